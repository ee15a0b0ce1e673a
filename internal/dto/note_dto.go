package dto

import (
	"time"

	"notevault/internal/entity"
)

type CreateNoteRequest struct {
	Id         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
	Images     []string `json:"images" validate:"omitempty,dive,datauri"`
	CreatedAt  string   `json:"createdAt" validate:"omitempty"`
}

func (r *CreateNoteRequest) ToEntity() *entity.Note {
	n := &entity.Note{
		Id:         r.Id,
		Title:      r.Title,
		Content:    r.Content,
		Categories: r.Categories,
		Images:     r.Images,
	}
	if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
		n.CreatedAt = t
	}
	return n
}

type UpdateNoteRequest struct {
	Id         int64    `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
	Images     []string `json:"images" validate:"omitempty,dive,datauri"`
}

func (r *UpdateNoteRequest) ToEntity() *entity.Note {
	return &entity.Note{
		Id:         r.Id,
		Title:      r.Title,
		Content:    r.Content,
		Categories: r.Categories,
		Images:     r.Images,
	}
}

type NoteResponse struct {
	Id         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Categories []string  `json:"categories"`
	Category   *string   `json:"category,omitempty"`
	Images     []string  `json:"images"`
	Image      *string   `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewNoteResponse(n *entity.Note) *NoteResponse {
	return &NoteResponse{
		Id:         n.Id,
		Title:      n.Title,
		Content:    n.Content,
		Categories: n.Categories,
		Category:   n.Category,
		Images:     n.Images,
		Image:      n.Image,
		CreatedAt:  n.CreatedAt,
	}
}

func NewNoteResponses(notes []*entity.Note) []*NoteResponse {
	out := make([]*NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, NewNoteResponse(n))
	}
	return out
}

type ImportNotesResponse struct {
	Imported int `json:"imported"`
}
