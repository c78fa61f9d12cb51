package types

// Flag controls lookup behavior.
type Flag uint8

const (
	// FlagQuick requests an existence-only lookup; the callback is not
	// invoked and the first match settles the answer.
	FlagQuick Flag = 1 << iota
)

// LookupFunc is invoked once per matching database entry. hash is the
// normalized (lowercase hex) value that matched; name is the associated
// file name, empty when the format stores none. Returning an error aborts
// the lookup and surfaces the error to the caller.
type LookupFunc func(hash, name string) error

// Entry is one record to add to an update-capable database. At least one
// hash value must be set; every field is optional otherwise.
type Entry struct {
	Filename string
	MD5      string
	SHA1     string
	SHA256   string
	Comment  string
}

// VerboseResult carries the full metadata for a matched hash: every file
// name and comment associated with it, plus all hash variants the
// database knows for the same content.
type VerboseResult struct {
	Hash      string // the queried value, normalized
	HashType  HashType
	MD5       string
	SHA1      string
	SHA256    string
	Filenames []string
	Comments  []string
}

// Database is the capability surface every storage backend implements.
// A backend owns its file access: it opens what it needs from the path it
// was constructed with and releases everything in Close. Close must be
// called exactly once; behavior after Close is undefined.
//
// Backends are not safe for concurrent use. A handle has a single owner;
// callers needing to share one must synchronize externally.
type Database interface {
	// Path returns the canonical path of the primary database file.
	Path() string

	// DisplayName returns a short human-readable name for the database,
	// conventionally the base name of the primary file.
	DisplayName() string

	// UsesExternalIndexes reports whether lookups go through detached
	// on-disk index files rather than the database's own structures.
	UsesExternalIndexes() bool

	// OpenIndex builds or loads an index sufficient for lookups of the
	// given hash type. Failure is recoverable: other hash types may still
	// be opened. Backends with internal indexing succeed trivially.
	OpenIndex(ht HashType) error

	// MakeIndex forces (re)construction of an index. hint optionally names
	// the source layout (e.g. "nsrl-sha1"); empty selects the format's
	// default. Expensive; intended to run once per database.
	MakeIndex(hint string) error

	// LookupString searches for a hexadecimal hash value, invoking fn once
	// per match unless FlagQuick is set. Reports whether any entry matched.
	LookupString(hash string, flags Flag, fn LookupFunc) (bool, error)

	// LookupRaw is the binary analogue of LookupString.
	LookupRaw(hash []byte, flags Flag, fn LookupFunc) (bool, error)

	// LookupVerbose fills res with the full metadata of the first match.
	LookupVerbose(hash string, res *VerboseResult) (bool, error)

	// AcceptsUpdates reports whether the format supports AddEntry and the
	// transaction verbs. False implies the backend does not implement
	// Updater.
	AcceptsUpdates() bool

	// Close releases every resource held by the backend.
	Close() error
}

// Indexer is implemented only by backends whose formats keep a separate
// on-disk index file per hash type.
type Indexer interface {
	// IndexPath returns the conventional path of the detached index for
	// the given hash type.
	IndexPath(ht HashType) (string, error)
}

// Updater is implemented only by update-capable backends. The transaction
// verbs must report success and failure honestly even when the underlying
// storage has no native transaction concept.
type Updater interface {
	AddEntry(e Entry) error
	BeginTransaction() error
	CommitTransaction() error
	RollbackTransaction() error
}
