// Package paths derives canonical hash database paths from user-supplied
// ones. A caller may hand us either a primary database file or a detached
// index file named by the stem-plus-suffix convention; the primary
// database, when present, lives at the stem path in the same directory as
// any detached index referencing it. Everything here is pure string
// derivation; the filesystem is never touched.
package paths

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// Detached index suffixes, one per legacy hash-type index convention.
const (
	MD5IndexSuffix  = "-md5.idx"
	SHA1IndexSuffix = "-sha1.idx"
)

// ResolveDatabasePath reconciles a user-supplied path with the on-disk
// layout. If the trailing segment carries a recognized detached-index
// suffix, the canonical database path is the input with that suffix
// removed and detached is true; otherwise the input passes through
// unchanged.
func ResolveDatabasePath(path string) (dbPath string, detached bool, err error) {
	if path == "" {
		return "", false, fmt.Errorf("%w: empty database path", types.ErrInvalidArgument)
	}
	for _, suffix := range []string{MD5IndexSuffix, SHA1IndexSuffix} {
		if strings.HasSuffix(path, suffix) && len(path) > len(suffix) {
			return path[:len(path)-len(suffix)], true, nil
		}
	}
	return path, false, nil
}

// IndexSuffix returns the detached-index suffix for a hash type. Only MD5
// and SHA-1 indexes have an on-disk convention.
func IndexSuffix(ht types.HashType) (string, bool) {
	switch ht {
	case types.HashMD5:
		return MD5IndexSuffix, true
	case types.HashSHA1:
		return SHA1IndexSuffix, true
	default:
		return "", false
	}
}

// IndexPath returns the conventional detached-index path for a database
// path and hash type.
func IndexPath(dbPath string, ht types.HashType) (string, error) {
	if dbPath == "" {
		return "", fmt.Errorf("%w: empty database path", types.ErrInvalidArgument)
	}
	suffix, ok := IndexSuffix(ht)
	if !ok {
		return "", fmt.Errorf("%w: no external index convention for %s", types.ErrInvalidArgument, ht)
	}
	return dbPath + suffix, nil
}
