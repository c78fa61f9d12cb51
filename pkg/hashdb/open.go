// Package hashdb is the public surface of the hash database library: it
// opens any supported on-disk format through one uniform handle and
// dispatches every subsequent operation to the concrete backend after
// validating arguments, capability, and transaction state.
package hashdb

import (
	"fmt"
	"os"

	"github.com/mesh-intelligence/hashdb/internal/paths"
	"github.com/mesh-intelligence/hashdb/internal/sniff"
	"github.com/mesh-intelligence/hashdb/internal/sqlite"
	"github.com/mesh-intelligence/hashdb/internal/text"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// OpenFlag adjusts Open behavior.
type OpenFlag uint8

const (
	// OpenIndexOnly skips probing the primary database file and opens the
	// detached index directly. The open fails unless a detached index
	// actually opens at the resolved path.
	OpenIndexOnly OpenFlag = 1 << iota
)

// Create makes a new, empty database. Only the embedded-relational
// format supports creation, so path must end in its .kdb extension.
func Create(path string) error {
	return sqlite.Create(path)
}

// Open opens an existing hash database, classifying its format by
// content. The supplied path may be the primary database file or a
// detached index file; a detached-index path whose primary database is
// missing degrades to an index-only open.
//
// Errors are distinguishable with errors.Is: ErrInvalidArgument for a bad
// path, ErrOpenFailure when nothing could be opened, ErrUnknownFormat
// when the file opened but matched no format, or more than one.
func Open(path string, flags OpenFlag) (*Handle, error) {
	dbPath, detached, err := paths.ResolveDatabasePath(path)
	if err != nil {
		return nil, err
	}

	kind := types.FormatUnknown
	if flags&OpenIndexOnly != 0 {
		kind = types.FormatIndexOnly
	} else {
		f, err := os.Open(dbPath)
		if err == nil {
			kind, err = sniffAndClose(f, dbPath)
			if err != nil {
				return nil, err
			}
		} else if detached {
			// The primary database is absent but the path names a
			// detached index; fall back to index-only lookups.
			kind = types.FormatIndexOnly
		} else {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, dbPath, err)
		}
	}

	db, err := construct(kind, path, dbPath, detached)
	if err != nil {
		return nil, err
	}
	return &Handle{db: db, kind: kind}, nil
}

// sniffAndClose classifies the probe stream and always closes it; every
// backend manages its own file access.
func sniffAndClose(f *os.File, dbPath string) (types.FormatKind, error) {
	defer f.Close()
	kind, err := sniff.Detect(f)
	if err != nil {
		return types.FormatUnknown, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, dbPath, err)
	}
	if kind == types.FormatUnknown {
		return types.FormatUnknown, fmt.Errorf("%w: %s", types.ErrUnknownFormat, dbPath)
	}
	return kind, nil
}

// construct maps a classified format to its backend.
func construct(kind types.FormatKind, userPath, dbPath string, detached bool) (types.Database, error) {
	switch kind {
	case types.FormatSQLite:
		return sqlite.Open(dbPath)
	case types.FormatNSRL, types.FormatMD5Sum, types.FormatEnCase, types.FormatHashKeeper:
		return text.Open(kind, dbPath)
	case types.FormatIndexOnly:
		if err := verifyDetachedIndex(userPath, dbPath, detached); err != nil {
			return nil, err
		}
		return text.OpenIndexOnly(dbPath), nil
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownFormat, dbPath)
	}
}

// verifyDetachedIndex confirms that a detached index file actually opens
// before the index-only backend is constructed. When the caller's path
// was itself an index path that file is checked; otherwise both
// conventional index paths for the stem are tried.
func verifyDetachedIndex(userPath, dbPath string, detached bool) error {
	candidates := []string{userPath}
	if !detached {
		candidates = []string{
			dbPath + paths.MD5IndexSuffix,
			dbPath + paths.SHA1IndexSuffix,
		}
	}
	for _, c := range candidates {
		f, err := os.Open(c)
		if err == nil {
			f.Close()
			return nil
		}
	}
	return fmt.Errorf("%w: database is index only and no index opens for %s", types.ErrOpenFailure, dbPath)
}
