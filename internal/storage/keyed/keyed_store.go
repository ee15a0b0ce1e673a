// Package keyed implements the intermediate per-record key-value format:
// one entry per record plus one index entry listing all record ids.
package keyed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"notevault/internal/codec"
	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/internal/storage/kv"
	"notevault/internal/storeerr"
)

type Store struct {
	store kv.Store
	log   logger.ILogger
}

func NewStore(store kv.Store, log logger.ILogger) *Store {
	return &Store{store: store, log: log}
}

func recordKey(id int64) string {
	return fmt.Sprintf("note_%d", id)
}

// ListIds returns the indexed record ids, empty when the index entry is
// absent.
func (s *Store) ListIds(ctx context.Context) ([]int64, error) {
	data, err := s.store.Get(ctx, kv.KeyNoteIndex)
	if errors.Is(err, storeerr.ErrKeyNotFound) {
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: note index: %v", storeerr.ErrCorruptRecord, err)
	}
	return ids, nil
}

// ReadAll loads every indexed record. Ids whose per-record entry is missing
// are skipped silently (the index is treated as a tolerant cache of keys);
// corrupt entries are logged and skipped.
func (s *Store) ReadAll(ctx context.Context) ([]*entity.Note, error) {
	ids, err := s.ListIds(ctx)
	if err != nil {
		return nil, err
	}

	notes := make([]*entity.Note, 0, len(ids))
	for _, id := range ids {
		data, err := s.store.Get(ctx, recordKey(id))
		if errors.Is(err, storeerr.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		note, err := codec.DecodeRecord(data)
		if err != nil {
			s.log.Warn("KeyedStore", "Skipping corrupt record", map[string]interface{}{
				"id":    id,
				"error": err.Error(),
			})
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// Upsert writes the record under its per-record key and appends the id to
// the index when missing. The two writes are not atomic: a crash in between
// can orphan an index entry (tolerated by ReadAll) or leave a record
// unindexed until a later write re-adds the id. Known gap, accepted for
// this medium.
func (s *Store) Upsert(ctx context.Context, note *entity.Note) error {
	data, err := codec.EncodeRecord(note)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, recordKey(note.Id), data); err != nil {
		return err
	}

	ids, err := s.ListIds(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == note.Id {
			return nil
		}
	}
	return s.writeIndex(ctx, append(ids, note.Id))
}

// Delete removes the per-record entry and rewrites the index without the
// id. Deleting an unknown id is a no-op. Same non-atomicity caveat as
// Upsert.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, recordKey(id)); err != nil {
		return err
	}

	ids, err := s.ListIds(ctx)
	if err != nil {
		return err
	}
	kept := make([]int64, 0, len(ids))
	changed := false
	for _, existing := range ids {
		if existing == id {
			changed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !changed {
		return nil
	}
	return s.writeIndex(ctx, kept)
}

func (s *Store) writeIndex(ctx context.Context, ids []int64) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, kv.KeyNoteIndex, data)
}
