package text

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// EnCase hash sets are binary: an 8-byte magic, a fixed-size header, then
// 18-byte records holding a raw MD5 value followed by two reserved bytes.
var encaseMagic = []byte{'H', 'A', 'S', 'H', 0x0d, 0x0a, 0xff, 0x00}

const (
	encaseHeaderLen = 1152
	encaseRecordLen = 18
)

// IsEnCase reports whether r begins with the EnCase hash set magic.
func IsEnCase(r io.Reader) bool {
	buf := make([]byte, len(encaseMagic))
	if _, err := io.ReadFull(r, buf); err != nil {
		return false
	}
	return bytes.Equal(buf, encaseMagic)
}

// encaseExtract streams (hash, offset) pairs from an EnCase hash set.
// Records are MD5-only.
func encaseExtract(r io.Reader, _ types.HashType, emit emitFunc) error {
	if _, err := io.CopyN(io.Discard, r, encaseHeaderLen); err != nil {
		if err == io.EOF {
			return fmt.Errorf("truncated encase header")
		}
		return err
	}
	rec := make([]byte, encaseRecordLen)
	off := int64(encaseHeaderLen)
	for {
		_, err := io.ReadFull(r, rec)
		if err == io.EOF {
			return nil
		}
		if err == io.ErrUnexpectedEOF {
			return fmt.Errorf("truncated encase record at offset %d", off)
		}
		if err != nil {
			return err
		}
		if err := emit(hex.EncodeToString(rec[:types.MD5ByteLen]), off); err != nil {
			return err
		}
		off += encaseRecordLen
	}
}

// encaseEntryAt reads the 18-byte record starting at off. EnCase sets
// carry no per-record file names.
func encaseEntryAt(f *os.File, off int64) (types.Entry, error) {
	rec := make([]byte, encaseRecordLen)
	if _, err := f.ReadAt(rec, off); err != nil {
		return types.Entry{}, err
	}
	return types.Entry{MD5: hex.EncodeToString(rec[:types.MD5ByteLen])}, nil
}
