package text

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// HashKeeper dumps are quoted-CSV rows of the form
//
//	"file_id","hashset_id","file_name","directory","hash","file_size",...,"comments",...
//
// with an optional header row naming the columns.
const hkHeaderPrefix = `"file_id","hashset_id"`

const (
	hkFieldName    = 2
	hkFieldHash    = 4
	hkFieldComment = 9
	hkMinFields    = hkFieldHash + 1
)

// IsHashKeeper reports whether the leading line of r looks like a
// HashKeeper dump: the header row, or a data row whose hash column holds
// an MD5 value.
func IsHashKeeper(r io.Reader) bool {
	line, ok := firstLine(r)
	if !ok {
		return false
	}
	if strings.HasPrefix(line, hkHeaderPrefix) {
		return true
	}
	fields, err := csvFields(line)
	if err != nil || len(fields) < hkMinFields {
		return false
	}
	return isHexStr(fields[hkFieldHash], types.MD5HexLen)
}

// hkExtract streams (hash, offset) pairs from a HashKeeper dump.
// MD5-only, like the source tool.
func hkExtract(r io.Reader, _ types.HashType, emit emitFunc) error {
	ls := newLineScanner(r)
	for {
		line, off, err := ls.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" || strings.HasPrefix(line, hkHeaderPrefix) {
			continue
		}
		fields, err := csvFields(line)
		if err != nil || len(fields) < hkMinFields {
			continue
		}
		if !isHexStr(fields[hkFieldHash], types.MD5HexLen) {
			continue
		}
		if err := emit(fields[hkFieldHash], off); err != nil {
			return err
		}
	}
}

// hkEntryAt parses the HashKeeper row starting at off.
func hkEntryAt(f *os.File, off int64) (types.Entry, error) {
	line, err := readLineAt(f, off)
	if err != nil {
		return types.Entry{}, err
	}
	fields, err := csvFields(line)
	if err != nil || len(fields) < hkMinFields {
		return types.Entry{}, fmt.Errorf("malformed hashkeeper row %q", line)
	}
	e := types.Entry{
		MD5:      fields[hkFieldHash],
		Filename: fields[hkFieldName],
	}
	if len(fields) > hkFieldComment {
		e.Comment = fields[hkFieldComment]
	}
	return e, nil
}
