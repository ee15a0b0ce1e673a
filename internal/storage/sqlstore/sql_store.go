// Package sqlstore implements the target storage format: an indexed,
// transactional notes table with a multi-entry secondary index on
// categories.
package sqlstore

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"notevault/internal/codec"
	"notevault/internal/entity"
	"notevault/internal/mapper"
	"notevault/internal/model"
	"notevault/internal/pkg/logger"
	"notevault/internal/storeerr"
)

type Store struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
	log    logger.ILogger
}

func NewStore(db *gorm.DB, log logger.ILogger) *Store {
	return &Store{
		db:     db,
		mapper: mapper.NewNoteMapper(),
		log:    log,
	}
}

// Init creates the notes table and its secondary index table.
func (s *Store) Init(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.Note{}, &model.NoteCategory{}); err != nil {
		return fmt.Errorf("%w: migrate schema: %v", storeerr.ErrBackendUnavailable, err)
	}
	return nil
}

// Available probes the underlying medium. The coordinator calls this before
// attempting a migration so an unusable platform fails fast.
func (s *Store) Available(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", storeerr.ErrBackendUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storeerr.ErrBackendUnavailable, err)
	}
	return nil
}

// ReadAll returns every record, newest first.
func (s *Store) ReadAll(ctx context.Context) ([]*entity.Note, error) {
	var models []*model.Note
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return s.mapper.ToEntities(models), nil
}

// Upsert writes one record and rebuilds its index rows in a single
// transaction.
func (s *Store) Upsert(ctx context.Context, note *entity.Note) error {
	m := s.mapper.ToModel(note)
	rows := s.mapper.CategoryRows(note)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", note.Id).Delete(&model.NoteCategory{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Delete removes a record and its index rows. Unknown ids are a no-op.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Note{}, id).Error; err != nil {
			return err
		}
		return tx.Where("note_id = ?", id).Delete(&model.NoteCategory{}).Error
	})
}

// FindByCategory returns every record whose category set includes the
// value, newest first, via the secondary index.
func (s *Store) FindByCategory(ctx context.Context, category string) ([]*entity.Note, error) {
	var models []*model.Note
	err := s.db.WithContext(ctx).
		Joins("JOIN note_categories ON note_categories.note_id = notes.id").
		Where("note_categories.category = ?", category).
		Order("notes.created_at DESC, notes.id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return s.mapper.ToEntities(models), nil
}

// BulkReplace clears the store and inserts every given record as one
// all-or-nothing transaction. Used only by the one-time migration; partial
// failure leaves the pre-transaction state intact.
func (s *Store) BulkReplace(ctx context.Context, notes []*entity.Note) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Note{}).Error; err != nil {
			return err
		}
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.NoteCategory{}).Error; err != nil {
			return err
		}

		for _, note := range notes {
			if err := tx.Create(s.mapper.ToModel(note)).Error; err != nil {
				return err
			}
			rows := s.mapper.CategoryRows(note)
			if len(rows) == 0 {
				continue
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", storeerr.ErrTransactionAborted, err)
	}
	s.log.Info("SqlStore", "Bulk replace committed", map[string]interface{}{
		"records": len(notes),
	})
	return nil
}

// ExportJSON dumps the full table in the legacy flat-blob shape so exports
// stay interchangeable between backends.
func (s *Store) ExportJSON(ctx context.Context) ([]byte, error) {
	notes, err := s.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	// Export keeps the legacy ordering convention: insertion order,
	// oldest first, as the flat blob grew append-only.
	for i, j := 0, len(notes)-1; i < j; i, j = i+1, j-1 {
		notes[i], notes[j] = notes[j], notes[i]
	}
	return codec.EncodeRecords(notes)
}
