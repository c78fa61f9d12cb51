package hashdb

import (
	"fmt"

	"github.com/mesh-intelligence/hashdb/pkg/types"
)

// txState is the handle's transaction guard state.
type txState int

const (
	txIdle txState = iota
	txInProgress
)

// Handle is one open hash database session. It is exclusively owned by
// the caller that opened it: no internal locking protects the transaction
// state or dispatch, so concurrent use of a single handle requires
// external synchronization. Close releases the backend and must be called
// exactly once.
type Handle struct {
	db   types.Database
	kind types.FormatKind
	tx   txState
}

// valid rejects nil or closed handles before any dispatch.
func (h *Handle) valid() error {
	if h == nil || h.db == nil {
		return fmt.Errorf("%w: nil or closed hash database handle", types.ErrInvalidArgument)
	}
	return nil
}

// Format returns the handle's format kind, FormatUnknown for a nil or
// closed handle.
func (h *Handle) Format() types.FormatKind {
	if h == nil || h.db == nil {
		return types.FormatUnknown
	}
	return h.kind
}

// IsIndexOnly reports whether the handle wraps a detached index with no
// primary database.
func (h *Handle) IsIndexOnly() bool {
	return h.Format() == types.FormatIndexOnly
}

// Path returns the canonical primary database path.
func (h *Handle) Path() (string, error) {
	if err := h.valid(); err != nil {
		return "", err
	}
	return h.db.Path(), nil
}

// DisplayName returns the database's short human-readable name.
func (h *Handle) DisplayName() (string, error) {
	if err := h.valid(); err != nil {
		return "", err
	}
	return h.db.DisplayName(), nil
}

// UsesExternalIndexes reports whether lookups go through detached index
// files.
func (h *Handle) UsesExternalIndexes() (bool, error) {
	if err := h.valid(); err != nil {
		return false, err
	}
	return h.db.UsesExternalIndexes(), nil
}

// IndexPath returns the detached-index path for ht. Formats without
// external index files structurally lack this capability.
func (h *Handle) IndexPath(ht types.HashType) (string, error) {
	if err := h.valid(); err != nil {
		return "", err
	}
	idx, ok := h.db.(types.Indexer)
	if !ok {
		return "", fmt.Errorf("%w: %s databases keep no external index paths", types.ErrInvalidArgument, h.kind)
	}
	return idx.IndexPath(ht)
}

// OpenIndex builds or loads an index for lookups of ht. Failure is
// recoverable; other hash types may still work.
func (h *Handle) OpenIndex(ht types.HashType) error {
	if err := h.valid(); err != nil {
		return err
	}
	return h.db.OpenIndex(ht)
}

// HasIndex reports whether an index for ht is available, i.e. whether
// OpenIndex succeeds.
func (h *Handle) HasIndex(ht types.HashType) (bool, error) {
	if err := h.valid(); err != nil {
		return false, err
	}
	return h.db.OpenIndex(ht) == nil, nil
}

// MakeIndex forces (re)construction of an index. hint optionally names
// the source layout; empty selects the format default.
func (h *Handle) MakeIndex(hint string) error {
	if err := h.valid(); err != nil {
		return err
	}
	return h.db.MakeIndex(hint)
}

// LookupString searches for a hexadecimal hash value, invoking fn once
// per match unless types.FlagQuick is set. Reports whether any entry
// matched.
func (h *Handle) LookupString(hash string, flags types.Flag, fn types.LookupFunc) (bool, error) {
	if err := h.valid(); err != nil {
		return false, err
	}
	if hash == "" {
		return false, fmt.Errorf("%w: empty hash value", types.ErrInvalidArgument)
	}
	return h.db.LookupString(hash, flags, fn)
}

// LookupRaw searches for a binary hash value.
func (h *Handle) LookupRaw(hash []byte, flags types.Flag, fn types.LookupFunc) (bool, error) {
	if err := h.valid(); err != nil {
		return false, err
	}
	if len(hash) == 0 {
		return false, fmt.Errorf("%w: empty hash value", types.ErrInvalidArgument)
	}
	return h.db.LookupRaw(hash, flags, fn)
}

// LookupVerbose fills res with the full metadata of the first match.
func (h *Handle) LookupVerbose(hash string, res *types.VerboseResult) (bool, error) {
	if err := h.valid(); err != nil {
		return false, err
	}
	if hash == "" {
		return false, fmt.Errorf("%w: empty hash value", types.ErrInvalidArgument)
	}
	if res == nil {
		return false, fmt.Errorf("%w: nil result", types.ErrInvalidArgument)
	}
	return h.db.LookupVerbose(hash, res)
}

// AcceptsUpdates reports whether the format supports AddEntry and the
// transaction verbs.
func (h *Handle) AcceptsUpdates() (bool, error) {
	if err := h.valid(); err != nil {
		return false, err
	}
	return h.db.AcceptsUpdates(), nil
}

// updater gates the update verbs: the format must accept updates before
// anything reaches the backend's storage layer.
func (h *Handle) updater() (types.Updater, error) {
	if !h.db.AcceptsUpdates() {
		return nil, fmt.Errorf("%w: %s databases do not accept updates", types.ErrUnsupportedOperation, h.kind)
	}
	upd, ok := h.db.(types.Updater)
	if !ok {
		// An update-capable backend must implement Updater; this is a
		// backend defect, not a format limitation.
		return nil, fmt.Errorf("%w: %s backend implements no update operations", types.ErrInvalidArgument, h.kind)
	}
	return upd, nil
}

// AddEntry adds a record to an update-capable database. At least one hash
// value must be supplied.
func (h *Handle) AddEntry(e types.Entry) error {
	if err := h.valid(); err != nil {
		return err
	}
	upd, err := h.updater()
	if err != nil {
		return err
	}
	return upd.AddEntry(e)
}

// BeginTransaction opens the handle's single in-flight transaction.
// A begin while one is already open is a caller error, never a silent
// no-op. On backend failure the guard state is unchanged.
func (h *Handle) BeginTransaction() error {
	if err := h.valid(); err != nil {
		return err
	}
	upd, err := h.updater()
	if err != nil {
		return err
	}
	if h.tx == txInProgress {
		return fmt.Errorf("%w: transaction already begun", types.ErrUnsupportedOperation)
	}
	if err := upd.BeginTransaction(); err != nil {
		return err
	}
	h.tx = txInProgress
	return nil
}

// CommitTransaction commits the open transaction. On backend failure the
// guard stays in progress so the caller can retry or roll back.
func (h *Handle) CommitTransaction() error {
	if err := h.valid(); err != nil {
		return err
	}
	upd, err := h.updater()
	if err != nil {
		return err
	}
	if h.tx != txInProgress {
		return fmt.Errorf("%w: transaction not begun", types.ErrUnsupportedOperation)
	}
	if err := upd.CommitTransaction(); err != nil {
		return err
	}
	h.tx = txIdle
	return nil
}

// RollbackTransaction discards the open transaction. This is a distinct
// backend operation from commit; the two are never interchangeable.
func (h *Handle) RollbackTransaction() error {
	if err := h.valid(); err != nil {
		return err
	}
	upd, err := h.updater()
	if err != nil {
		return err
	}
	if h.tx != txInProgress {
		return fmt.Errorf("%w: transaction not begun", types.ErrUnsupportedOperation)
	}
	if err := upd.RollbackTransaction(); err != nil {
		return err
	}
	h.tx = txIdle
	return nil
}

// Close releases the backend's resources. Further calls on the handle
// fail with ErrInvalidArgument.
func (h *Handle) Close() error {
	if err := h.valid(); err != nil {
		return err
	}
	err := h.db.Close()
	h.db = nil
	h.tx = txIdle
	return err
}
