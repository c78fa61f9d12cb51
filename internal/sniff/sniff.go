// Package sniff classifies hash database files by content. A file is
// never trusted on extension alone: a misidentified database would
// silently misreport lookups, so classification must be confident and
// unambiguous or fail outright.
package sniff

import (
	"fmt"
	"io"

	"github.com/mesh-intelligence/hashdb/internal/sqlite"
	"github.com/mesh-intelligence/hashdb/internal/text"
	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// legacyTests run in fixed priority order after the SQLite magic check.
var legacyTests = []struct {
	kind types.FormatKind
	test func(io.Reader) bool
}{
	{types.FormatNSRL, text.IsNSRL},
	{types.FormatMD5Sum, text.IsMD5Sum},
	{types.FormatEnCase, text.IsEnCase},
	{types.FormatHashKeeper, text.IsHashKeeper},
}

// Detect classifies the content of rs. The SQLite magic is distinctive
// enough to settle classification immediately; otherwise each legacy test
// runs from the start of the stream, and a second positive forces
// FormatUnknown rather than resolving the ambiguity by priority.
// The stream is left positioned at the start.
func Detect(rs io.ReadSeeker) (types.FormatKind, error) {
	rewind := func() error {
		_, err := rs.Seek(0, io.SeekStart)
		return err
	}

	if err := rewind(); err != nil {
		return types.FormatUnknown, fmt.Errorf("seeking database stream: %w", err)
	}
	if sqlite.HasMagic(rs) {
		if err := rewind(); err != nil {
			return types.FormatUnknown, fmt.Errorf("seeking database stream: %w", err)
		}
		return types.FormatSQLite, nil
	}

	kind := types.FormatUnknown
	for _, lt := range legacyTests {
		if err := rewind(); err != nil {
			return types.FormatUnknown, fmt.Errorf("seeking database stream: %w", err)
		}
		if !lt.test(rs) {
			continue
		}
		if kind != types.FormatUnknown {
			// Two signatures matched; fail safe rather than guess.
			kind = types.FormatUnknown
			break
		}
		kind = lt.kind
	}

	if err := rewind(); err != nil {
		return types.FormatUnknown, fmt.Errorf("seeking database stream: %w", err)
	}
	return kind, nil
}
