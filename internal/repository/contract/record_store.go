package contract

import (
	"context"

	"notevault/internal/entity"
)

// RecordStore is the backend-neutral contract the note service writes
// through. Both the keyed store and the transactional store satisfy it; the
// service picks one at initialization and never switches mid-session.
type RecordStore interface {
	ReadAll(ctx context.Context) ([]*entity.Note, error)
	Upsert(ctx context.Context, note *entity.Note) error
	Delete(ctx context.Context, id int64) error
}

// CategoryFinder is the optional query surface over the secondary index.
// Only the transactional store provides it; the service falls back to a
// cache scan otherwise.
type CategoryFinder interface {
	FindByCategory(ctx context.Context, category string) ([]*entity.Note, error)
}
