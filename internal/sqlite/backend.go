package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// Ext is the required extension for databases of this format.
const Ext = ".kdb"

// magic is the SQLite 3 file header.
var magic = []byte("SQLite format 3\x00")

// HasMagic reports whether r begins with the SQLite 3 header. The caller
// owns the stream position.
func HasMagic(r io.Reader) bool {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, magic)
}

// DB is the embedded-relational backend. A nil tx means autocommit; the
// transaction verbs swap a live sql.Tx in and out, and AddEntry routes
// through whichever is current.
type DB struct {
	path string
	db   *sql.DB
	tx   *sql.Tx
}

var (
	_ types.Database = (*DB)(nil)
	_ types.Updater  = (*DB)(nil)
)

// Create makes a new, empty database at path. The path must carry the
// .kdb extension and must not already exist. The schema version, creation
// time, and a fresh database GUID are stamped into db_properties.
func Create(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty database path", types.ErrInvalidArgument)
	}
	if !strings.HasSuffix(path, Ext) {
		return fmt.Errorf("%w: path must end in %s extension", types.ErrInvalidArgument, Ext)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s already exists", types.ErrInvalidArgument, path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, path, err)
	}
	defer db.Close()

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	props := [][2]string{
		{propSchemaVersion, schemaVersion},
		{propDatabaseGUID, uuid.NewString()},
		{propCreationDate, time.Now().UTC().Format(time.RFC3339)},
	}
	for _, p := range props {
		if _, err := db.Exec("INSERT INTO db_properties (name, value) VALUES (?, ?)", p[0], p[1]); err != nil {
			return fmt.Errorf("writing db properties: %w", err)
		}
	}
	return nil
}

// Open opens an existing database. The content has already been sniffed
// as SQLite; Open still verifies the schema is ours by probing the hashes
// table so a foreign SQLite file fails cleanly.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, path, err)
	}
	var n int
	err = db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'hashes'").Scan(&n)
	if err != nil || n == 0 {
		db.Close()
		return nil, fmt.Errorf("%w: %s is not a hash database", types.ErrUnknownFormat, path)
	}
	return &DB{path: path, db: db}, nil
}

// Path returns the database file path.
func (b *DB) Path() string { return b.path }

// DisplayName returns the base name of the database file.
func (b *DB) DisplayName() string { return filepath.Base(b.path) }

// UsesExternalIndexes reports false; SQLite indexes internally.
func (b *DB) UsesExternalIndexes() bool { return false }

// OpenIndex succeeds trivially: the internal indexes are always available.
func (b *DB) OpenIndex(types.HashType) error { return nil }

// MakeIndex succeeds trivially for the same reason.
func (b *DB) MakeIndex(string) error { return nil }

// AcceptsUpdates reports true.
func (b *DB) AcceptsUpdates() bool { return true }

// execer abstracts over autocommit and in-transaction execution.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (b *DB) exec() execer {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

// hashColumn maps a hash type to its hashes-table column.
func hashColumn(ht types.HashType) string {
	switch ht {
	case types.HashSHA1:
		return "sha1"
	case types.HashSHA256:
		return "sha256"
	default:
		return "md5"
	}
}

// decodeHash validates and decodes one hexadecimal hash argument.
func decodeHash(val string) (blob []byte, ht types.HashType, err error) {
	ht, ok := types.HashTypeForHexLen(len(val))
	if !ok || !types.IsHashHex(val) {
		return nil, 0, fmt.Errorf("%w: malformed hash value %q", types.ErrInvalidArgument, val)
	}
	blob, err = hex.DecodeString(strings.ToLower(val))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: malformed hash value %q", types.ErrInvalidArgument, val)
	}
	return blob, ht, nil
}

// AddEntry inserts a record. At least one hash must be supplied; when one
// of the supplied hashes already has a row, the entry attaches to that
// row instead of duplicating it, filling in any hash variants the row is
// missing. Runs inside the open transaction when one has begun.
func (b *DB) AddEntry(e types.Entry) error {
	type hashVal struct {
		col  string
		blob []byte
	}
	var vals []hashVal
	for _, v := range []struct {
		val string
		ht  types.HashType
	}{
		{e.MD5, types.HashMD5},
		{e.SHA1, types.HashSHA1},
		{e.SHA256, types.HashSHA256},
	} {
		if v.val == "" {
			continue
		}
		blob, ht, err := decodeHash(v.val)
		if err != nil {
			return err
		}
		if ht != v.ht {
			return fmt.Errorf("%w: %q is not a %s value", types.ErrInvalidArgument, v.val, v.ht)
		}
		vals = append(vals, hashVal{col: hashColumn(ht), blob: blob})
	}
	if len(vals) == 0 {
		return fmt.Errorf("%w: at least one hash value is required", types.ErrInvalidArgument)
	}

	ex := b.exec()

	// Reuse an existing row if any supplied hash is already present.
	var hashID int64
	found := false
	for _, v := range vals {
		err := ex.QueryRow("SELECT id FROM hashes WHERE "+v.col+" = ?", v.blob).Scan(&hashID)
		if err == nil {
			found = true
			break
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("querying hashes: %w", err)
		}
	}
	if found {
		// The reused row may lack variants this entry supplies; fill the
		// empty columns so every stored hash stays searchable.
		for _, v := range vals {
			if _, err := ex.Exec("UPDATE hashes SET "+v.col+" = ? WHERE id = ? AND "+v.col+" IS NULL", v.blob, hashID); err != nil {
				return fmt.Errorf("backfilling %s: %w", v.col, err)
			}
		}
	} else {
		cols := make([]string, len(vals))
		marks := make([]string, len(vals))
		args := make([]any, len(vals))
		for i, v := range vals {
			cols[i] = v.col
			marks[i] = "?"
			args[i] = v.blob
		}
		res, err := ex.Exec(
			"INSERT INTO hashes ("+strings.Join(cols, ", ")+") VALUES ("+strings.Join(marks, ", ")+")",
			args...,
		)
		if err != nil {
			return fmt.Errorf("inserting hash row: %w", err)
		}
		hashID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading hash row id: %w", err)
		}
	}

	if e.Filename != "" {
		if _, err := ex.Exec("INSERT INTO file_names (name, hash_id) VALUES (?, ?)", e.Filename, hashID); err != nil {
			return fmt.Errorf("inserting file name: %w", err)
		}
	}
	if e.Comment != "" {
		if _, err := ex.Exec("INSERT INTO comments (comment, hash_id) VALUES (?, ?)", e.Comment, hashID); err != nil {
			return fmt.Errorf("inserting comment: %w", err)
		}
	}
	return nil
}

// lookupBlob finds the hash rows matching a binary value.
func (b *DB) lookupBlob(blob []byte, ht types.HashType) ([]int64, error) {
	rows, err := b.exec().Query("SELECT id FROM hashes WHERE "+hashColumn(ht)+" = ?", blob)
	if err != nil {
		return nil, fmt.Errorf("querying hashes: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning hash row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading hash rows: %w", err)
	}
	return ids, nil
}

// namesFor returns the file names attached to a hash row.
func (b *DB) namesFor(hashID int64) ([]string, error) {
	rows, err := b.exec().Query("SELECT name FROM file_names WHERE hash_id = ?", hashID)
	if err != nil {
		return nil, fmt.Errorf("querying file names: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning file name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LookupString searches for a hexadecimal hash value. fn is invoked once
// per file name attached to each matching row, or once with an empty name
// for rows that have none, unless FlagQuick is set.
func (b *DB) LookupString(hash string, flags types.Flag, fn types.LookupFunc) (bool, error) {
	blob, ht, err := decodeHash(hash)
	if err != nil {
		return false, err
	}
	hash = strings.ToLower(hash)
	ids, err := b.lookupBlob(blob, ht)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}
	if flags&types.FlagQuick != 0 || fn == nil {
		return true, nil
	}
	for _, id := range ids {
		names, err := b.namesFor(id)
		if err != nil {
			return false, err
		}
		if len(names) == 0 {
			names = []string{""}
		}
		for _, name := range names {
			if err := fn(hash, name); err != nil {
				return false, fmt.Errorf("lookup callback: %w", err)
			}
		}
	}
	return true, nil
}

// LookupRaw searches for a binary hash value.
func (b *DB) LookupRaw(hash []byte, flags types.Flag, fn types.LookupFunc) (bool, error) {
	if _, ok := types.HashTypeForByteLen(len(hash)); !ok {
		return false, fmt.Errorf("%w: binary hash length %d matches no supported hash type", types.ErrInvalidArgument, len(hash))
	}
	return b.LookupString(hex.EncodeToString(hash), flags, fn)
}

// LookupVerbose fills res with every hash variant, file name, and comment
// stored for the first matching row.
func (b *DB) LookupVerbose(hash string, res *types.VerboseResult) (bool, error) {
	blob, ht, err := decodeHash(hash)
	if err != nil {
		return false, err
	}
	ids, err := b.lookupBlob(blob, ht)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		return false, nil
	}
	id := ids[0]

	var md5b, sha1b, sha256b []byte
	err = b.exec().QueryRow("SELECT md5, sha1, sha256 FROM hashes WHERE id = ?", id).Scan(&md5b, &sha1b, &sha256b)
	if err != nil {
		return false, fmt.Errorf("reading hash row %d: %w", id, err)
	}
	res.Hash = strings.ToLower(hash)
	res.HashType = ht
	res.MD5 = hex.EncodeToString(md5b)
	res.SHA1 = hex.EncodeToString(sha1b)
	res.SHA256 = hex.EncodeToString(sha256b)

	if res.Filenames, err = b.namesFor(id); err != nil {
		return false, err
	}
	rows, err := b.exec().Query("SELECT comment FROM comments WHERE hash_id = ?", id)
	if err != nil {
		return false, fmt.Errorf("querying comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return false, fmt.Errorf("scanning comment: %w", err)
		}
		res.Comments = append(res.Comments, c)
	}
	return true, rows.Err()
}

// BeginTransaction starts a native SQLite transaction. The dispatch layer
// enforces single-in-flight; a second begin here is still an honest error.
func (b *DB) BeginTransaction() error {
	if b.tx != nil {
		return fmt.Errorf("%w: transaction already begun", types.ErrUnsupportedOperation)
	}
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	b.tx = tx
	return nil
}

// CommitTransaction commits the open transaction. On failure the
// transaction reference is kept so the caller can roll back explicitly.
func (b *DB) CommitTransaction() error {
	if b.tx == nil {
		return fmt.Errorf("%w: transaction not begun", types.ErrUnsupportedOperation)
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	b.tx = nil
	return nil
}

// RollbackTransaction discards the open transaction.
func (b *DB) RollbackTransaction() error {
	if b.tx == nil {
		return fmt.Errorf("%w: transaction not begun", types.ErrUnsupportedOperation)
	}
	if err := b.tx.Rollback(); err != nil {
		return fmt.Errorf("rolling back transaction: %w", err)
	}
	b.tx = nil
	return nil
}

// Close rolls back any open transaction and releases the connection.
func (b *DB) Close() error {
	if b.db == nil {
		return fmt.Errorf("%w: database already closed", types.ErrInvalidArgument)
	}
	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		return fmt.Errorf("closing %s: %w", b.path, err)
	}
	return nil
}
