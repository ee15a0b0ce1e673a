// Package codec implements the wire JSON shape shared by the legacy flat
// blob, the keyed per-record entries and the export format. Field names
// must stay stable across backends so exported files remain interchangeable.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"notevault/internal/entity"
	"notevault/internal/storeerr"
)

// recordJSON mirrors the persisted shape:
// { id, title, content, categories?, category?, image?, images?, createdAt }
type recordJSON struct {
	Id         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Categories []string `json:"categories,omitempty"`
	Category   *string  `json:"category,omitempty"`
	Image      *string  `json:"image,omitempty"`
	Images     []string `json:"images,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

func toWire(n *entity.Note) recordJSON {
	w := recordJSON{
		Id:        n.Id,
		Title:     n.Title,
		Content:   n.Content,
		Category:  n.Category,
		Image:     n.Image,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(n.Categories) > 0 {
		w.Categories = n.Categories
	}
	if len(n.Images) > 0 {
		w.Images = n.Images
	}
	return w
}

func fromWire(w recordJSON) (*entity.Note, error) {
	created, err := parseDate(w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad createdAt %q", storeerr.ErrCorruptRecord, w.CreatedAt)
	}
	n := &entity.Note{
		Id:         w.Id,
		Title:      w.Title,
		Content:    w.Content,
		Categories: w.Categories,
		Category:   w.Category,
		Images:     w.Images,
		Image:      w.Image,
		CreatedAt:  created,
	}
	n.Normalize()
	return n, nil
}

// parseDate rehydrates the ISO-compatible createdAt string. Legacy writers
// used millisecond precision with a trailing Z; RFC3339 covers both.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// EncodeRecord serializes one note in the wire shape.
func EncodeRecord(n *entity.Note) ([]byte, error) {
	return json.Marshal(toWire(n))
}

// DecodeRecord parses one note, rehydrating the creation date. Any parse
// failure is reported as ErrCorruptRecord.
func DecodeRecord(data []byte) (*entity.Note, error) {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", storeerr.ErrCorruptRecord, err)
	}
	return fromWire(w)
}

// EncodeRecords serializes the notes as the flat-blob JSON array.
func EncodeRecords(notes []*entity.Note) ([]byte, error) {
	wires := make([]recordJSON, 0, len(notes))
	for _, n := range notes {
		wires = append(wires, toWire(n))
	}
	return json.Marshal(wires)
}

// DecodeRecords parses a flat-blob array. Individually corrupt elements are
// dropped and counted rather than aborting the whole read; only a corrupt
// envelope yields an error.
func DecodeRecords(data []byte) ([]*entity.Note, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", storeerr.ErrCorruptRecord, err)
	}

	notes := make([]*entity.Note, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		n, err := DecodeRecord(raw)
		if err != nil {
			dropped++
			continue
		}
		notes = append(notes, n)
	}
	return notes, dropped, nil
}
