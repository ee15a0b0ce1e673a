package entity

import "time"

// Note is the domain record for a single user note. Identifiers are the
// creation time in unix milliseconds; collisions are treated as negligible
// for a single-user store.
//
// Category and Image mirror the first element of their list counterparts
// for readers of the pre-list format. The lists are authoritative once
// present; Normalize keeps the mirrors consistent.
type Note struct {
	Id         int64
	Title      string
	Content    string
	Categories []string
	Category   *string
	Images     []string
	Image      *string
	CreatedAt  time.Time
}

// Normalize upgrades legacy single-value fields into their list form and
// rewrites the mirrors from the list heads. Applied on every read path so
// callers never observe divergent shapes.
func (n *Note) Normalize() {
	if len(n.Categories) == 0 && n.Category != nil && *n.Category != "" {
		n.Categories = []string{*n.Category}
	}
	if n.Categories == nil {
		n.Categories = []string{}
	}
	if len(n.Categories) > 0 {
		first := n.Categories[0]
		n.Category = &first
	}

	if len(n.Images) == 0 && n.Image != nil && *n.Image != "" {
		n.Images = []string{*n.Image}
	}
	if n.Images == nil {
		n.Images = []string{}
	}
	if len(n.Images) > 0 {
		first := n.Images[0]
		n.Image = &first
	}
}

// Clone returns a deep copy so stored state cannot be mutated retroactively
// through the caller's reference.
func (n *Note) Clone() *Note {
	c := *n
	// make+copy, not append to nil: a normalized note holds empty non-nil
	// lists and the copy must keep them non-nil.
	if n.Categories != nil {
		c.Categories = make([]string, len(n.Categories))
		copy(c.Categories, n.Categories)
	}
	if n.Images != nil {
		c.Images = make([]string, len(n.Images))
		copy(c.Images, n.Images)
	}
	if n.Category != nil {
		v := *n.Category
		c.Category = &v
	}
	if n.Image != nil {
		v := *n.Image
		c.Image = &v
	}
	return &c
}

// HasCategory reports whether the note's category set includes the value.
func (n *Note) HasCategory(category string) bool {
	for _, c := range n.Categories {
		if c == category {
			return true
		}
	}
	return false
}
