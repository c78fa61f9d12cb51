// Package types defines the backend contract for hash databases: the
// Database interface every storage format implements, the optional
// Indexer and Updater capability interfaces, format and hash-type
// enumerations, and the standard error values surfaced by the
// dispatch layer.
package types
