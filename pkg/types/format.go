package types

// FormatKind identifies the physical storage format of an open hash
// database. Exactly one kind is attached to a successfully opened handle;
// FormatUnknown is an open-time failure and never appears on a live handle.
type FormatKind int

const (
	FormatUnknown FormatKind = iota

	// FormatSQLite is the modern embedded-relational format (.kdb files).
	FormatSQLite

	// The legacy flat formats, in sniffing priority order.
	FormatNSRL       // NIST NSRL 2.0 CSV
	FormatMD5Sum     // md5sum / md5deep output
	FormatEnCase     // EnCase hash sets
	FormatHashKeeper // HashKeeper CSV dumps

	// FormatIndexOnly is a detached index file standing in for a primary
	// database that is absent or was deliberately not opened.
	FormatIndexOnly
)

// String returns the display name of the format.
func (k FormatKind) String() string {
	switch k {
	case FormatSQLite:
		return "sqlite"
	case FormatNSRL:
		return "nsrl"
	case FormatMD5Sum:
		return "md5sum"
	case FormatEnCase:
		return "encase"
	case FormatHashKeeper:
		return "hashkeeper"
	case FormatIndexOnly:
		return "index-only"
	default:
		return "unknown"
	}
}

// HashType identifies the hash algorithm a value or index belongs to.
// The library is otherwise hash-agnostic; types exist only to size values
// and to name detached index files.
type HashType int

const (
	HashMD5 HashType = iota
	HashSHA1
	HashSHA256
)

// Hex and binary widths per hash type.
const (
	MD5HexLen     = 32
	SHA1HexLen    = 40
	SHA256HexLen  = 64
	MD5ByteLen    = 16
	SHA1ByteLen   = 20
	SHA256ByteLen = 32
)

// String returns the conventional lowercase name of the hash type.
func (h HashType) String() string {
	switch h {
	case HashMD5:
		return "md5"
	case HashSHA1:
		return "sha1"
	case HashSHA256:
		return "sha256"
	default:
		return "invalid"
	}
}

// HexLen returns the length of the hexadecimal text form of the hash type.
func (h HashType) HexLen() int {
	switch h {
	case HashMD5:
		return MD5HexLen
	case HashSHA1:
		return SHA1HexLen
	case HashSHA256:
		return SHA256HexLen
	default:
		return 0
	}
}

// ByteLen returns the length of the binary form of the hash type.
func (h HashType) ByteLen() int {
	return h.HexLen() / 2
}

// HashTypeForHexLen maps a hexadecimal string length to the hash type it
// must belong to. Reports false for lengths no supported hash produces.
func HashTypeForHexLen(n int) (HashType, bool) {
	switch n {
	case MD5HexLen:
		return HashMD5, true
	case SHA1HexLen:
		return HashSHA1, true
	case SHA256HexLen:
		return HashSHA256, true
	default:
		return 0, false
	}
}

// HashTypeForByteLen maps a binary hash length to its hash type.
func HashTypeForByteLen(n int) (HashType, bool) {
	switch n {
	case MD5ByteLen:
		return HashMD5, true
	case SHA1ByteLen:
		return HashSHA1, true
	case SHA256ByteLen:
		return HashSHA256, true
	default:
		return 0, false
	}
}

// IsHashHex reports whether s is a well-formed hexadecimal hash value of
// one of the supported widths.
func IsHashHex(s string) bool {
	if _, ok := HashTypeForHexLen(len(s)); !ok {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
