package mapper

import (
	"encoding/json"

	"gorm.io/datatypes"

	"notevault/internal/entity"
	"notevault/internal/model"
)

type NoteMapper struct{}

func NewNoteMapper() *NoteMapper {
	return &NoteMapper{}
}

func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	c := n.Clone()
	c.Normalize()

	categories, _ := json.Marshal(c.Categories)
	images, _ := json.Marshal(c.Images)

	return &model.Note{
		Id:         c.Id,
		Title:      c.Title,
		Content:    c.Content,
		Categories: datatypes.JSON(categories),
		Category:   c.Category,
		Images:     datatypes.JSON(images),
		Image:      c.Image,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *NoteMapper) ToEntity(mo *model.Note) *entity.Note {
	n := &entity.Note{
		Id:        mo.Id,
		Title:     mo.Title,
		Content:   mo.Content,
		Category:  mo.Category,
		Image:     mo.Image,
		CreatedAt: mo.CreatedAt,
	}
	// Column corruption degrades to the legacy single-value field rather
	// than failing the row.
	_ = json.Unmarshal(mo.Categories, &n.Categories)
	_ = json.Unmarshal(mo.Images, &n.Images)
	n.Normalize()
	return n
}

func (m *NoteMapper) ToEntities(models []*model.Note) []*entity.Note {
	notes := make([]*entity.Note, 0, len(models))
	for _, mo := range models {
		notes = append(notes, m.ToEntity(mo))
	}
	return notes
}

// CategoryRows expands the note into its secondary-index rows.
func (m *NoteMapper) CategoryRows(n *entity.Note) []model.NoteCategory {
	rows := make([]model.NoteCategory, 0, len(n.Categories))
	seen := make(map[string]struct{}, len(n.Categories))
	for _, c := range n.Categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		rows = append(rows, model.NoteCategory{NoteId: n.Id, Category: c})
	}
	return rows
}
