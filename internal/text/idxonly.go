package text

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/hashdb/internal/index"
	"github.com/mesh-intelligence/hashdb/internal/paths"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// IdxOnly is the backend for a detached index with no primary database.
// It answers existence lookups from the index alone; there are no records
// to rehydrate, so callbacks receive only the hash and verbose results
// carry only the hash variant that was queried.
type IdxOnly struct {
	dbPath string
	closed bool
	idx    map[types.HashType]*index.Index
}

var (
	_ types.Database = (*IdxOnly)(nil)
	_ types.Indexer  = (*IdxOnly)(nil)
)

// OpenIndexOnly constructs an index-only backend rooted at the canonical
// database path (the stem the detached index files are named from). The
// caller has already verified that at least one detached index opens;
// individual indexes are loaded lazily per hash type.
func OpenIndexOnly(dbPath string) *IdxOnly {
	return &IdxOnly{
		dbPath: dbPath,
		idx:    make(map[types.HashType]*index.Index),
	}
}

// Path returns the canonical (possibly absent) primary database path.
func (b *IdxOnly) Path() string { return b.dbPath }

// DisplayName returns the base name of the canonical database path.
func (b *IdxOnly) DisplayName() string { return filepath.Base(b.dbPath) }

// UsesExternalIndexes reports true; the index is all there is.
func (b *IdxOnly) UsesExternalIndexes() bool { return true }

// AcceptsUpdates reports false.
func (b *IdxOnly) AcceptsUpdates() bool { return false }

// IndexPath returns the conventional detached-index path for ht.
func (b *IdxOnly) IndexPath(ht types.HashType) (string, error) {
	return paths.IndexPath(b.dbPath, ht)
}

// OpenIndex loads the detached index for ht if not already loaded.
func (b *IdxOnly) OpenIndex(ht types.HashType) error {
	if _, ok := b.idx[ht]; ok {
		return nil
	}
	idxPath, err := b.IndexPath(ht)
	if err != nil {
		return err
	}
	x, err := index.Load(idxPath)
	if err != nil {
		return err
	}
	b.idx[ht] = x
	return nil
}

// MakeIndex fails: there is no source database to build an index from.
func (b *IdxOnly) MakeIndex(string) error {
	return fmt.Errorf("%w: cannot rebuild an index without its source database", types.ErrUnsupportedOperation)
}

// SourceFormat returns the format name recorded in a loaded index header,
// empty if no index has been opened yet or the header predates it.
func (b *IdxOnly) SourceFormat() string {
	for _, x := range b.idx {
		if x.Format() != "" {
			return x.Format()
		}
	}
	return ""
}

func (b *IdxOnly) findAll(hash string) ([]int64, error) {
	ht, ok := types.HashTypeForHexLen(len(hash))
	if !ok || !types.IsHashHex(hash) {
		return nil, fmt.Errorf("%w: malformed hash value %q", types.ErrInvalidArgument, hash)
	}
	if err := b.OpenIndex(ht); err != nil {
		return nil, err
	}
	return b.idx[ht].Find(hash), nil
}

// LookupString answers existence from the index, invoking fn once per
// indexed occurrence with an empty name unless FlagQuick is set.
func (b *IdxOnly) LookupString(hash string, flags types.Flag, fn types.LookupFunc) (bool, error) {
	hash = strings.ToLower(hash)
	offs, err := b.findAll(hash)
	if err != nil {
		return false, err
	}
	if len(offs) == 0 {
		return false, nil
	}
	if flags&types.FlagQuick != 0 || fn == nil {
		return true, nil
	}
	for range offs {
		if err := fn(hash, ""); err != nil {
			return false, fmt.Errorf("lookup callback: %w", err)
		}
	}
	return true, nil
}

// LookupRaw is the binary analogue of LookupString.
func (b *IdxOnly) LookupRaw(hash []byte, flags types.Flag, fn types.LookupFunc) (bool, error) {
	if _, ok := types.HashTypeForByteLen(len(hash)); !ok {
		return false, fmt.Errorf("%w: binary hash length %d matches no supported hash type", types.ErrInvalidArgument, len(hash))
	}
	return b.LookupString(hex.EncodeToString(hash), flags, fn)
}

// LookupVerbose reports existence; an index holds no metadata beyond the
// hash itself.
func (b *IdxOnly) LookupVerbose(hash string, res *types.VerboseResult) (bool, error) {
	hash = strings.ToLower(hash)
	offs, err := b.findAll(hash)
	if err != nil {
		return false, err
	}
	if len(offs) == 0 {
		return false, nil
	}
	ht, _ := types.HashTypeForHexLen(len(hash))
	res.Hash = hash
	res.HashType = ht
	switch ht {
	case types.HashMD5:
		res.MD5 = hash
	case types.HashSHA1:
		res.SHA1 = hash
	case types.HashSHA256:
		res.SHA256 = hash
	}
	return true, nil
}

// Close drops the loaded indexes. The backend holds no file descriptors
// between operations.
func (b *IdxOnly) Close() error {
	if b.closed {
		return fmt.Errorf("%w: database already closed", types.ErrInvalidArgument)
	}
	b.closed = true
	b.idx = nil
	return nil
}
