package memory

import (
	"strconv"

	"github.com/patrickmn/go-cache"

	"notevault/internal/entity"
)

// NoteCache indexes the in-memory snapshot by id for synchronous lookups.
// Entries never expire; the owning service replaces them on every mutation.
type NoteCache struct {
	cache *cache.Cache
}

func NewNoteCache() *NoteCache {
	return &NoteCache{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (c *NoteCache) Set(note *entity.Note) {
	c.cache.Set(key(note.Id), note, cache.NoExpiration)
}

func (c *NoteCache) Get(id int64) (*entity.Note, bool) {
	if x, found := c.cache.Get(key(id)); found {
		return x.(*entity.Note), true
	}
	return nil, false
}

func (c *NoteCache) Delete(id int64) {
	c.cache.Delete(key(id))
}

func (c *NoteCache) ReplaceAll(notes []*entity.Note) {
	c.cache.Flush()
	for _, n := range notes {
		c.Set(n)
	}
}
