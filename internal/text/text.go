// Package text implements the legacy flat-format hash database backends:
// NSRL 2.0 CSV, md5sum output, EnCase hash sets, and HashKeeper dumps,
// plus the index-only backend used when only a detached index exists.
//
// The legacy formats are unordered on disk, so lookups go through the
// detached sorted index files managed by the index package. Each format
// contributes a content signature test (used by the sniffer), an
// extractor that streams (hash, offset) pairs for index construction, and
// an entry parser that rehydrates the record at a given offset.
package text

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/hashdb/internal/index"
	"github.com/mesh-intelligence/hashdb/internal/paths"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// emitFunc receives one (hash, record offset) pair during extraction.
type emitFunc func(hash string, off int64) error

// profile describes one legacy on-disk convention.
type profile struct {
	kind      types.FormatKind
	hashTypes []types.HashType // indexable hash types, default first
	extract   func(r io.Reader, ht types.HashType, emit emitFunc) error
	entryAt   func(f *os.File, off int64) (types.Entry, error)
}

var profiles = map[types.FormatKind]*profile{
	types.FormatNSRL: {
		kind:      types.FormatNSRL,
		hashTypes: []types.HashType{types.HashMD5, types.HashSHA1},
		extract:   nsrlExtract,
		entryAt:   nsrlEntryAt,
	},
	types.FormatMD5Sum: {
		kind:      types.FormatMD5Sum,
		hashTypes: []types.HashType{types.HashMD5},
		extract:   md5sumExtract,
		entryAt:   md5sumEntryAt,
	},
	types.FormatEnCase: {
		kind:      types.FormatEnCase,
		hashTypes: []types.HashType{types.HashMD5},
		extract:   encaseExtract,
		entryAt:   encaseEntryAt,
	},
	types.FormatHashKeeper: {
		kind:      types.FormatHashKeeper,
		hashTypes: []types.HashType{types.HashMD5},
		extract:   hkExtract,
		entryAt:   hkEntryAt,
	},
}

// DB is a read-only legacy-format hash database. Lookups require a
// detached index for the hash type being queried; OpenIndex loads one on
// demand and MakeIndex builds one from the database content.
type DB struct {
	path string
	f    *os.File
	prof *profile
	idx  map[types.HashType]*index.Index
}

var (
	_ types.Database = (*DB)(nil)
	_ types.Indexer  = (*DB)(nil)
)

// Open opens a legacy-format database of the given kind. The caller has
// already classified the content; Open fails only on I/O errors.
func Open(kind types.FormatKind, path string) (*DB, error) {
	prof, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a legacy text format", types.ErrInvalidArgument, kind)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, path, err)
	}
	return &DB{
		path: path,
		f:    f,
		prof: prof,
		idx:  make(map[types.HashType]*index.Index),
	}, nil
}

// Path returns the primary database path.
func (b *DB) Path() string { return b.path }

// DisplayName returns the base name of the database file.
func (b *DB) DisplayName() string { return filepath.Base(b.path) }

// Format returns the database's format kind.
func (b *DB) Format() types.FormatKind { return b.prof.kind }

// UsesExternalIndexes reports true: every legacy format does.
func (b *DB) UsesExternalIndexes() bool { return true }

// AcceptsUpdates reports false: legacy formats are read-only corpora.
func (b *DB) AcceptsUpdates() bool { return false }

// IndexPath returns the conventional detached-index path for ht.
func (b *DB) IndexPath(ht types.HashType) (string, error) {
	return paths.IndexPath(b.path, ht)
}

// supportsHashType reports whether the format can index ht.
func (b *DB) supportsHashType(ht types.HashType) bool {
	for _, t := range b.prof.hashTypes {
		if t == ht {
			return true
		}
	}
	return false
}

// OpenIndex loads the detached index for ht if not already loaded.
// Failure is recoverable; the caller may open other hash types or build
// the index with MakeIndex first.
func (b *DB) OpenIndex(ht types.HashType) error {
	if _, ok := b.idx[ht]; ok {
		return nil
	}
	if !b.supportsHashType(ht) {
		return fmt.Errorf("%w: %s databases keep no %s index", types.ErrUnsupportedOperation, b.prof.kind, ht)
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

// MakeIndex builds the detached index for the hash type named by hint and
// writes it alongside the database. An empty hint selects the format's
// default hash type. Any previously loaded index for that type is
// dropped so the next lookup sees the fresh one.
func (b *DB) MakeIndex(hint string) error {
	ht, err := b.hashTypeForHint(hint)
	if err != nil {
		return err
	}
	idxPath, err := b.IndexPath(ht)
	if err != nil {
		return err
	}
	if _, err := b.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding %s: %w", b.path, err)
	}
	var recs []index.Rec
	err = b.prof.extract(bufio.NewReader(b.f), ht, func(hash string, off int64) error {
		recs = append(recs, index.Rec{Hash: hash, Offset: off})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", b.path, err)
	}
	if err := index.Write(idxPath, b.prof.kind.String(), recs); err != nil {
		return err
	}
	delete(b.idx, ht)
	return nil
}

// hashTypeForHint resolves a make-index hint. Accepted forms: "",
// the format name ("nsrl"), a hash type name ("sha1"), or the combined
// "nsrl-sha1" form.
func (b *DB) hashTypeForHint(hint string) (types.HashType, error) {
	if hint == "" || hint == b.prof.kind.String() {
		return b.prof.hashTypes[0], nil
	}
	name := strings.TrimPrefix(hint, b.prof.kind.String()+"-")
	for _, ht := range b.prof.hashTypes {
		if name == ht.String() {
			return ht, nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognized index hint %q for %s database", types.ErrInvalidArgument, hint, b.prof.kind)
}

// offsetsFor resolves hash to its matching record offsets, loading the
// index for its hash type on demand.
func (b *DB) offsetsFor(hash string) ([]int64, error) {
	ht, ok := types.HashTypeForHexLen(len(hash))
	if !ok || !types.IsHashHex(hash) {
		return nil, fmt.Errorf("%w: malformed hash value %q", types.ErrInvalidArgument, hash)
	}
	if err := b.OpenIndex(ht); err != nil {
		return nil, err
	}
	return b.idx[ht].Find(hash), nil
}

// LookupString searches the index for a hexadecimal hash value and
// invokes fn once per matching record unless FlagQuick is set.
func (b *DB) LookupString(hash string, flags types.Flag, fn types.LookupFunc) (bool, error) {
	hash = strings.ToLower(hash)
	offs, err := b.offsetsFor(hash)
	if err != nil {
		return false, err
	}
	if len(offs) == 0 {
		return false, nil
	}
	if flags&types.FlagQuick != 0 || fn == nil {
		return true, nil
	}
	for _, off := range offs {
		e, err := b.prof.entryAt(b.f, off)
		if err != nil {
			return false, fmt.Errorf("reading entry at offset %d: %w", off, err)
		}
		if err := fn(hash, e.Filename); err != nil {
			return false, fmt.Errorf("lookup callback: %w", err)
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

// LookupVerbose gathers the full metadata for every record matching hash.
func (b *DB) LookupVerbose(hash string, res *types.VerboseResult) (bool, error) {
	hash = strings.ToLower(hash)
	offs, err := b.offsetsFor(hash)
	if err != nil {
		return false, err
	}
	if len(offs) == 0 {
		return false, nil
	}
	ht, _ := types.HashTypeForHexLen(len(hash))
	res.Hash = hash
	res.HashType = ht
	for i, off := range offs {
		e, err := b.prof.entryAt(b.f, off)
		if err != nil {
			return false, fmt.Errorf("reading entry at offset %d: %w", off, err)
		}
		if i == 0 {
			res.MD5 = strings.ToLower(e.MD5)
			res.SHA1 = strings.ToLower(e.SHA1)
			res.SHA256 = strings.ToLower(e.SHA256)
		}
		if e.Filename != "" {
			res.Filenames = append(res.Filenames, e.Filename)
		}
		if e.Comment != "" {
			res.Comments = append(res.Comments, e.Comment)
		}
	}
	return true, nil
}

// Close releases the database file. Loaded indexes are dropped with the
// backend.
func (b *DB) Close() error {
	if b.f == nil {
		return fmt.Errorf("%w: database already closed", types.ErrInvalidArgument)
	}
	err := b.f.Close()
	b.f = nil
	b.idx = nil
	if err != nil {
		return fmt.Errorf("closing %s: %w", b.path, err)
	}
	return nil
}

// lineScanner yields lines with their byte offsets, which bufio.Scanner
// cannot do.
type lineScanner struct {
	r   *bufio.Reader
	off int64
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{r: bufio.NewReader(r)}
}

// next returns the next line (without terminator) and its starting
// offset. io.EOF signals the end of input.
func (ls *lineScanner) next() (line string, off int64, err error) {
	raw, err := ls.r.ReadString('\n')
	if len(raw) == 0 {
		if err == nil {
			err = io.EOF
		}
		return "", ls.off, err
	}
	off = ls.off
	ls.off += int64(len(raw))
	return strings.TrimRight(raw, "\r\n"), off, nil
}

// readLineAt reads the single line starting at off.
func readLineAt(f *os.File, off int64) (string, error) {
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// csvFields splits one quoted-CSV line into its fields.
func csvFields(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.LazyQuotes = true
	return r.Read()
}

// sniffLineLimit caps how much of a file a signature test may consume.
const sniffLineLimit = 64 * 1024

// firstLine reads the leading line of r for signature testing. At most
// sniffLineLimit bytes are read; input with no newline inside the cap
// fails the test rather than being slurped whole.
func firstLine(r io.Reader) (string, bool) {
	buf := make([]byte, sniffLineLimit)
	n, err := io.ReadFull(r, buf)
	if n == 0 {
		return "", false
	}
	data := buf[:n]
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return strings.TrimRight(string(data[:i]), "\r"), true
	}
	if err == nil {
		// The cap filled without a newline; no text database has a
		// leading line this long.
		return "", false
	}
	return strings.TrimRight(string(data), "\r"), true
}

// isHexStr reports whether s is exactly n hexadecimal characters.
func isHexStr(s string, n int) bool {
	if len(s) != n {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
