package sqlite

import (
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

const (
	emptyMD5    = "d41d8cd98f00b204e9800998ecf8427e"
	emptySHA1   = "da39a3ee5e6b4b0d3255bfef95601890afd80709"
	emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func createTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.kdb")
	require.NoError(t, Create(path))
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if db.db != nil {
			db.Close()
		}
	})
	return db
}

func TestCreate_RequiresKdbExtension(t *testing.T) {
	err := Create(filepath.Join(t.TempDir(), "test.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCreate_RefusesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.kdb")
	require.NoError(t, Create(path))

	err := Create(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestCreate_StampsProperties(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.kdb")
	require.NoError(t, Create(path))

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()

	for _, name := range []string{propSchemaVersion, propDatabaseGUID, propCreationDate} {
		var value string
		err := raw.QueryRow("SELECT value FROM db_properties WHERE name = ?", name).Scan(&value)
		require.NoError(t, err, name)
		assert.NotEmpty(t, value, name)
	}
}

func TestCreate_FileHasSQLiteMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.kdb")
	require.NoError(t, Create(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, HasMagic(f))
}

func TestOpen_RejectsForeignSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign.db")
	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec("CREATE TABLE unrelated (x INTEGER)")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnknownFormat)
}

func TestAccessors(t *testing.T) {
	db := createTestDB(t)

	assert.Equal(t, "test.kdb", db.DisplayName())
	assert.False(t, db.UsesExternalIndexes())
	assert.True(t, db.AcceptsUpdates())
	assert.NoError(t, db.OpenIndex(types.HashMD5))
	assert.NoError(t, db.MakeIndex(""))
}

func TestAddEntry_RoundTrip(t *testing.T) {
	db := createTestDB(t)

	require.NoError(t, db.AddEntry(types.Entry{
		Filename: "empty.bin",
		MD5:      emptyMD5,
		SHA1:     emptySHA1,
		SHA256:   emptySHA256,
		Comment:  "known empty file",
	}))

	calls := 0
	found, err := db.LookupString(emptyMD5, 0, func(hash, name string) error {
		calls++
		assert.Equal(t, emptyMD5, hash)
		assert.Equal(t, "empty.bin", name)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, calls)

	// Any stored hash variant finds the same row.
	found, err = db.LookupString(emptySHA1, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = db.LookupString(emptySHA256, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestAddEntry_RequiresAHash(t *testing.T) {
	db := createTestDB(t)

	err := db.AddEntry(types.Entry{Filename: "orphan.bin"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestAddEntry_RejectsMalformedHex(t *testing.T) {
	db := createTestDB(t)

	err := db.AddEntry(types.Entry{MD5: strings.Repeat("g", 32)})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	err = db.AddEntry(types.Entry{MD5: emptyMD5[:30]})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestAddEntry_ReusesExistingRow(t *testing.T) {
	db := createTestDB(t)

	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5, Filename: "a.bin"}))
	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5, Filename: "b.bin"}))

	var names []string
	found, err := db.LookupString(emptyMD5, 0, func(hash, name string) error {
		names = append(names, name)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.ElementsMatch(t, []string{"a.bin", "b.bin"}, names)

	var rows int
	require.NoError(t, db.db.QueryRow("SELECT count(*) FROM hashes").Scan(&rows))
	assert.Equal(t, 1, rows, "same hash must not duplicate its row")
}

func TestAddEntry_BackfillsReusedRow(t *testing.T) {
	db := createTestDB(t)

	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5, Filename: "a.bin"}))
	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5, SHA1: emptySHA1, Filename: "b.bin"}))

	// The variant supplied on reuse must become searchable.
	found, err := db.LookupString(emptySHA1, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.True(t, found)

	var res types.VerboseResult
	found, err = db.LookupVerbose(emptyMD5, &res)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, emptySHA1, res.SHA1)

	var rows int
	require.NoError(t, db.db.QueryRow("SELECT count(*) FROM hashes").Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestLookupRaw(t *testing.T) {
	db := createTestDB(t)
	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5, Filename: "empty.bin"}))

	raw, err := hex.DecodeString(emptyMD5)
	require.NoError(t, err)

	found, err := db.LookupRaw(raw, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.True(t, found)

	_, err = db.LookupRaw([]byte{0x01, 0x02}, 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestLookupVerbose(t *testing.T) {
	db := createTestDB(t)
	require.NoError(t, db.AddEntry(types.Entry{
		Filename: "empty.bin",
		MD5:      emptyMD5,
		SHA1:     emptySHA1,
		Comment:  "benign",
	}))

	var res types.VerboseResult
	found, err := db.LookupVerbose(emptySHA1, &res)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, emptySHA1, res.Hash)
	assert.Equal(t, types.HashSHA1, res.HashType)
	assert.Equal(t, emptyMD5, res.MD5)
	assert.Equal(t, emptySHA1, res.SHA1)
	assert.Empty(t, res.SHA256)
	assert.Equal(t, []string{"empty.bin"}, res.Filenames)
	assert.Equal(t, []string{"benign"}, res.Comments)
}

func TestLookup_NotFound(t *testing.T) {
	db := createTestDB(t)

	found, err := db.LookupString(emptyMD5, 0, func(hash, name string) error {
		t.Fatal("callback must not run on a miss")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTransaction_CommitPersists(t *testing.T) {
	db := createTestDB(t)

	require.NoError(t, db.BeginTransaction())
	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5}))
	require.NoError(t, db.CommitTransaction())

	found, err := db.LookupString(emptyMD5, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestTransaction_RollbackDiscards(t *testing.T) {
	db := createTestDB(t)

	require.NoError(t, db.BeginTransaction())
	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5}))
	require.NoError(t, db.RollbackTransaction())

	found, err := db.LookupString(emptyMD5, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.False(t, found, "rolled back entry must not persist")
}

func TestTransaction_VerbStateErrors(t *testing.T) {
	db := createTestDB(t)

	err := db.CommitTransaction()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	err = db.RollbackTransaction()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)

	require.NoError(t, db.BeginTransaction())
	err = db.BeginTransaction()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrUnsupportedOperation)
	require.NoError(t, db.RollbackTransaction())
}

func TestClose_RollsBackOpenTransaction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.kdb")
	require.NoError(t, Create(path))
	db, err := Open(path)
	require.NoError(t, err)

	require.NoError(t, db.BeginTransaction())
	require.NoError(t, db.AddEntry(types.Entry{MD5: emptyMD5}))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	found, err := db.LookupString(emptyMD5, types.FlagQuick, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClose_Twice(t *testing.T) {
	db := createTestDB(t)
	require.NoError(t, db.Close())
	err := db.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}
