package text

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// NSRL 2.0 NSRLFile.txt layout: a quoted-CSV header row followed by data
// rows of the form "SHA-1","MD5","CRC32","FileName","FileSize",...
const nsrlHeaderPrefix = `"SHA-1","MD5","CRC32","FileName"`

const (
	nsrlFieldSHA1 = 0
	nsrlFieldMD5  = 1
	nsrlFieldName = 3
)

// IsNSRL reports whether the leading line of r looks like an NSRL file:
// either the canonical header row or a data row with a SHA-1 first field
// and an MD5 second field.
func IsNSRL(r io.Reader) bool {
	line, ok := firstLine(r)
	if !ok {
		return false
	}
	if strings.HasPrefix(line, nsrlHeaderPrefix) {
		return true
	}
	return isNSRLDataRow(line)
}

func isNSRLDataRow(line string) bool {
	fields, err := csvFields(line)
	if err != nil || len(fields) <= nsrlFieldName {
		return false
	}
	return isHexStr(fields[nsrlFieldSHA1], types.SHA1HexLen) &&
		isHexStr(fields[nsrlFieldMD5], types.MD5HexLen)
}

// nsrlExtract streams (hash, offset) pairs for ht from an NSRL file.
// The header row and malformed rows are skipped rather than fatal; NSRL
// distributions occasionally carry truncated trailing lines.
func nsrlExtract(r io.Reader, ht types.HashType, emit emitFunc) error {
	field := nsrlFieldMD5
	if ht == types.HashSHA1 {
		field = nsrlFieldSHA1
	}
	ls := newLineScanner(r)
	for {
		line, off, err := ls.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" || strings.HasPrefix(line, nsrlHeaderPrefix) {
			continue
		}
		fields, err := csvFields(line)
		if err != nil || len(fields) <= field {
			continue
		}
		if !isHexStr(fields[field], ht.HexLen()) {
			continue
		}
		if err := emit(fields[field], off); err != nil {
			return err
		}
	}
}

// nsrlEntryAt parses the NSRL data row starting at off.
func nsrlEntryAt(f *os.File, off int64) (types.Entry, error) {
	line, err := readLineAt(f, off)
	if err != nil {
		return types.Entry{}, err
	}
	fields, err := csvFields(line)
	if err != nil || len(fields) <= nsrlFieldName {
		return types.Entry{}, fmt.Errorf("malformed nsrl row %q", line)
	}
	return types.Entry{
		SHA1:     fields[nsrlFieldSHA1],
		MD5:      fields[nsrlFieldMD5],
		Filename: fields[nsrlFieldName],
	}, nil
}
