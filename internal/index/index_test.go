package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

func md5ish(b byte) string {
	return strings.Repeat(string([]byte{"0123456789abcdef"[b%16]}), 32)
}

func TestWriteLoadFind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set-md5.idx")

	recs := []Rec{
		{Hash: md5ish(3), Offset: 300},
		{Hash: md5ish(1), Offset: 100},
		{Hash: md5ish(2), Offset: 200},
	}
	require.NoError(t, Write(path, "md5sum", recs))

	x, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "md5sum", x.Format())
	assert.Equal(t, 3, x.Len())
	assert.Equal(t, path, x.Path())

	assert.Equal(t, []int64{100}, x.Find(md5ish(1)))
	assert.Equal(t, []int64{200}, x.Find(md5ish(2)))
	assert.Empty(t, x.Find(md5ish(5)))
}

func TestFind_DuplicatesAdjacent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set-md5.idx")
	dup := md5ish(7)

	recs := []Rec{
		{Hash: md5ish(9), Offset: 900},
		{Hash: dup, Offset: 50},
		{Hash: md5ish(1), Offset: 10},
		{Hash: dup, Offset: 20},
	}
	require.NoError(t, Write(path, "nsrl", recs))

	x, err := Load(path)
	require.NoError(t, err)
	// All occurrences visited, in file order.
	assert.Equal(t, []int64{20, 50}, x.Find(dup))
}

func TestFind_CaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set-md5.idx")
	require.NoError(t, Write(path, "md5sum", []Rec{
		{Hash: strings.ToUpper(md5ish(4)), Offset: 40},
	}))

	x, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{40}, x.Find(strings.ToUpper(md5ish(4))))
	assert.Equal(t, []int64{40}, x.Find(md5ish(4)))
}

func TestWrite_EmptyIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set-sha1.idx")
	require.NoError(t, Write(path, "nsrl", nil))

	x, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, x.Len())
	assert.Equal(t, "nsrl", x.Format())
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "set-md5.idx")
	require.NoError(t, Write(path, "md5sum", []Rec{{Hash: md5ish(2), Offset: 2}}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "set-md5.idx", entries[0].Name())
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent-md5.idx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOpenFailure)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad-md5.idx")
	require.NoError(t, os.WriteFile(path, []byte("not an index\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOpenFailure)
}
