// Package index reads and writes the detached index files used by the
// legacy text-format backends. An index file is plain text: a header line
// of sixteen zeros, a separator, and the source format name, followed by
// one "HASH|OFFSET" line per entry, sorted by hash so duplicates are
// adjacent and every match for a value can be visited in one scan.
package index

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// headerKey is the all-zero pseudo-hash that marks the header line.
const headerKey = "0000000000000000"

// Rec is one (hash, file offset) pair destined for an index.
type Rec struct {
	Hash   string
	Offset int64
}

// Index is a loaded detached index, searchable by hash.
type Index struct {
	path   string
	format string
	recs   []Rec
}

// Write sorts recs and writes them to path atomically (temp file in the
// same directory, then rename). formatName records the source database
// format in the header so index-only opens can report it.
func Write(path, formatName string, recs []Rec) error {
	for i := range recs {
		recs[i].Hash = strings.ToLower(recs[i].Hash)
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Hash != recs[j].Hash {
			return recs[i].Hash < recs[j].Hash
		}
		return recs[i].Offset < recs[j].Offset
	})

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating index temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "%s|%s\n", headerKey, formatName)
	for _, r := range recs {
		fmt.Fprintf(w, "%s|%d\n", r.Hash, r.Offset)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing index temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming index into place: %w", err)
	}
	return nil
}

// Load reads an index file fully into memory.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: index %s: %v", types.ErrOpenFailure, path, err)
	}
	defer f.Close()

	x := &Index{path: path}
	sc := bufio.NewScanner(f)
	first := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		hash, rest, ok := strings.Cut(line, "|")
		if !ok {
			return nil, fmt.Errorf("%w: index %s: malformed line %q", types.ErrOpenFailure, path, line)
		}
		if first && hash == headerKey {
			x.format = rest
			first = false
			continue
		}
		first = false
		off, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: index %s: bad offset in %q", types.ErrOpenFailure, path, line)
		}
		x.recs = append(x.recs, Rec{Hash: strings.ToLower(hash), Offset: off})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: index %s: %v", types.ErrOpenFailure, path, err)
	}
	return x, nil
}

// Path returns the on-disk path the index was loaded from.
func (x *Index) Path() string { return x.path }

// Format returns the source format name recorded in the header, empty for
// indexes written before the header convention.
func (x *Index) Format() string { return x.format }

// Len returns the number of entries.
func (x *Index) Len() int { return len(x.recs) }

// Find returns the offsets of every entry matching hash, in file order.
// The hash is matched case-insensitively.
func (x *Index) Find(hash string) []int64 {
	hash = strings.ToLower(hash)
	i := sort.Search(len(x.recs), func(i int) bool { return x.recs[i].Hash >= hash })
	var offs []int64
	for ; i < len(x.recs) && x.recs[i].Hash == hash; i++ {
		offs = append(offs, x.recs[i].Offset)
	}
	return offs
}
