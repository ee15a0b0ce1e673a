// Package kv abstracts the flat key-value medium underneath the legacy and
// keyed stores. Implementations: file-per-key directory (default) and Redis.
package kv

import "context"

// Fixed keys of the persisted layout. The shapes behind them must stay
// byte-compatible across implementations.
const (
	KeyLegacyNotes     = "notes_all"
	KeyNoteIndex       = "note_ids"
	KeyMigrationStatus = "notes_migration_status"
	KeyUpgradeDone     = "notes_kv_upgraded"
)

// Store is the minimal contract the adapters need. Get returns
// storeerr.ErrKeyNotFound for absent keys; Set may fail with
// storeerr.ErrCapacityExceeded when the medium's quota is full.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
