package storeerr

import "errors"

// Sentinel errors shared by every storage layer. Callers distinguish
// failure classes with errors.Is.
var (
	// ErrBackendUnavailable means the transactional medium cannot be
	// opened on this platform (missing driver, unreachable server).
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrCapacityExceeded means the underlying medium rejected a write
	// because the storage quota is full.
	ErrCapacityExceeded = errors.New("storage capacity exceeded")

	// ErrCorruptRecord means a stored value failed to parse. Bulk reads
	// skip and continue; single-record reads fail with this error.
	ErrCorruptRecord = errors.New("stored record failed to parse")

	// ErrTransactionAborted means the bulk migration write failed
	// mid-flight and was rolled back.
	ErrTransactionAborted = errors.New("migration transaction aborted")

	// ErrAlreadyInProgress rejects a reentrant migration start.
	ErrAlreadyInProgress = errors.New("migration already in progress")

	// ErrMigrationSkipped rejects a start while the migration is in the
	// user-declined state; only an explicit reset leaves it.
	ErrMigrationSkipped = errors.New("migration was skipped; reset before starting")

	// ErrKeyNotFound is returned by key-value mediums for absent keys.
	ErrKeyNotFound = errors.New("key not found")
)
