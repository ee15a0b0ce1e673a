// Package legacy reads the original single-blob storage format: one JSON
// array of records under a fixed key. Read-only; current code never writes
// this key.
package legacy

import (
	"context"
	"errors"

	"notevault/internal/codec"
	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/internal/storage/kv"
	"notevault/internal/storeerr"
)

type FlatStore struct {
	store kv.Store
	log   logger.ILogger
}

func NewFlatStore(store kv.Store, log logger.ILogger) *FlatStore {
	return &FlatStore{store: store, log: log}
}

// Read returns all legacy records, normalized to the list shapes. An absent
// blob yields nil without error. Individually corrupt records are logged
// and dropped.
func (s *FlatStore) Read(ctx context.Context) ([]*entity.Note, error) {
	data, err := s.store.Get(ctx, kv.KeyLegacyNotes)
	if errors.Is(err, storeerr.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	notes, dropped, err := codec.DecodeRecords(data)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		s.log.Warn("LegacyFlatStore", "Dropped corrupt legacy records", map[string]interface{}{
			"dropped": dropped,
			"kept":    len(notes),
		})
	}
	return notes, nil
}
