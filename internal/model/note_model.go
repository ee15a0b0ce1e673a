package model

import (
	"time"

	"gorm.io/datatypes"
)

type Note struct {
	Id         int64          `gorm:"primaryKey;autoIncrement:false"`
	Title      string         `gorm:"type:text;not null"`
	Content    string         `gorm:"type:text"`
	Categories datatypes.JSON `gorm:"type:json"`
	Category   *string        `gorm:"type:text"`
	Images     datatypes.JSON `gorm:"type:json"`
	Image      *string        `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"index;autoCreateTime:false"`
}

func (Note) TableName() string {
	return "notes"
}

// NoteCategory is the multi-entry secondary index: one row per (note,
// category) pair, so a note with N categories is discoverable under any of
// them without a full scan. Maintained in the same transaction as the note
// row.
type NoteCategory struct {
	NoteId   int64  `gorm:"primaryKey;autoIncrement:false"`
	Category string `gorm:"primaryKey;index:idx_note_categories_category"`
}

func (NoteCategory) TableName() string {
	return "note_categories"
}
