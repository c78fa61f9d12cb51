package types

import "errors"

// Error kinds surfaced by the open and dispatch layers. Callers match with
// errors.Is; the wrapped message carries the operation-specific detail.
var (
	// ErrInvalidArgument reports a nil handle, empty or malformed input, or
	// a capability the backend structurally does not implement.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOpenFailure reports that a database or index file could not be
	// opened at all.
	ErrOpenFailure = errors.New("unable to open hash database")

	// ErrUnknownFormat reports that a file opened but matched zero, or more
	// than one, format signature. Distinct from ErrOpenFailure.
	ErrUnknownFormat = errors.New("unrecognized hash database format")

	// ErrUnsupportedOperation reports a verb the backend's format or the
	// handle's current transaction state does not support.
	ErrUnsupportedOperation = errors.New("operation not supported")
)
