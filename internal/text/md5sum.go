package text

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// md5sum output comes in two shapes: the GNU form
//
//	d41d8cd98f00b204e9800998ecf8427e  path/to/file
//
// (separator is two spaces, or space-asterisk for binary mode), and the
// BSD form
//
//	MD5 (path/to/file) = d41d8cd98f00b204e9800998ecf8427e
var (
	md5sumGNURe = regexp.MustCompile(`^([0-9a-fA-F]{32}) [ *](.+)$`)
	md5sumBSDRe = regexp.MustCompile(`^MD5 \((.+)\) = ([0-9a-fA-F]{32})$`)
)

// IsMD5Sum reports whether the leading line of r is md5sum output.
func IsMD5Sum(r io.Reader) bool {
	line, ok := firstLine(r)
	if !ok {
		return false
	}
	return md5sumGNURe.MatchString(line) || md5sumBSDRe.MatchString(line)
}

// parseMD5SumLine splits a line into its hash and file name, accepting
// either shape. ok is false for lines that are neither.
func parseMD5SumLine(line string) (hash, name string, ok bool) {
	if m := md5sumGNURe.FindStringSubmatch(line); m != nil {
		return m[1], m[2], true
	}
	if m := md5sumBSDRe.FindStringSubmatch(line); m != nil {
		return m[2], m[1], true
	}
	return "", "", false
}

// md5sumExtract streams (hash, offset) pairs from md5sum output. Only MD5
// indexes exist for this format, so the requested hash type is ignored.
func md5sumExtract(r io.Reader, _ types.HashType, emit emitFunc) error {
	ls := newLineScanner(r)
	for {
		line, off, err := ls.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		hash, _, ok := parseMD5SumLine(strings.TrimSpace(line))
		if !ok {
			continue
		}
		if err := emit(hash, off); err != nil {
			return err
		}
	}
}

// md5sumEntryAt parses the md5sum line starting at off.
func md5sumEntryAt(f *os.File, off int64) (types.Entry, error) {
	line, err := readLineAt(f, off)
	if err != nil {
		return types.Entry{}, err
	}
	hash, name, ok := parseMD5SumLine(strings.TrimSpace(line))
	if !ok {
		return types.Entry{}, fmt.Errorf("malformed md5sum line %q", line)
	}
	return types.Entry{MD5: hash, Filename: name}, nil
}
