package legacy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notevault/internal/pkg/logger"
	"notevault/internal/storage/kv"
)

func newTestStore(t *testing.T) (*FlatStore, kv.Store) {
	t.Helper()
	fileStore, err := kv.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	return NewFlatStore(fileStore, logger.NewNopLogger()), fileStore
}

func TestReadAbsentBlob(t *testing.T) {
	store, _ := newTestStore(t)

	notes, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, notes)
}

func TestReadNormalizesLegacyShapes(t *testing.T) {
	store, raw := newTestStore(t)
	ctx := context.Background()

	blob := []byte(`[
		{"id":1,"title":"old","content":"","category":"work","createdAt":"2022-06-01T10:00:00.000Z"},
		{"id":2,"title":"new","content":"","categories":["a","b"],"createdAt":"2022-06-02T10:00:00.000Z"}
	]`)
	require.NoError(t, raw.Set(ctx, kv.KeyLegacyNotes, blob))

	notes, err := store.Read(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, []string{"work"}, notes[0].Categories)
	assert.Equal(t, []string{"a", "b"}, notes[1].Categories)
	assert.Equal(t, "a", *notes[1].Category)
	assert.Equal(t, 2022, notes[0].CreatedAt.Year())
}

func TestReadDropsCorruptRecords(t *testing.T) {
	store, raw := newTestStore(t)
	ctx := context.Background()

	blob := []byte(`[
		{"id":1,"title":"ok","content":"","createdAt":"2022-06-01T10:00:00Z"},
		{"id":2,"title":"broken","content":"","createdAt":"???"}
	]`)
	require.NoError(t, raw.Set(ctx, kv.KeyLegacyNotes, blob))

	notes, err := store.Read(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(1), notes[0].Id)
}
