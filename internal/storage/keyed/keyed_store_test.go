package keyed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/internal/storage/kv"
)

func newTestStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	fileStore, err := kv.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)
	return NewStore(fileStore, logger.NewNopLogger()), fileStore
}

func note(id int64, title string) *entity.Note {
	n := &entity.Note{
		Id:        id,
		Title:     title,
		CreatedAt: time.UnixMilli(id).UTC(),
	}
	n.Normalize()
	return n
}

func TestUpsertAndReadAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, note(1, "first")))
	require.NoError(t, store.Upsert(ctx, note(2, "second")))

	ids, err := store.ListIds(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	notes, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "first", notes[0].Title)
}

func TestUpsertExistingIdKeepsIndexUnique(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, note(1, "v1")))
	require.NoError(t, store.Upsert(ctx, note(1, "v2")))

	ids, err := store.ListIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	notes, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "v2", notes[0].Title)
}

func TestReadAllSkipsOrphanedIndexEntries(t *testing.T) {
	store, raw := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, note(1, "kept")))

	// Simulate a crash between record delete and index rewrite.
	ids, _ := json.Marshal([]int64{1, 99})
	require.NoError(t, raw.Set(ctx, kv.KeyNoteIndex, ids))

	notes, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(1), notes[0].Id)
}

func TestReadAllSkipsCorruptRecords(t *testing.T) {
	store, raw := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, note(1, "good")))
	require.NoError(t, raw.Set(ctx, "note_2", []byte("{broken")))
	ids, _ := json.Marshal([]int64{1, 2})
	require.NoError(t, raw.Set(ctx, kv.KeyNoteIndex, ids))

	notes, err := store.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "good", notes[0].Title)
}

func TestListIdsEmptyWhenIndexAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	ids, err := store.ListIds(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteRemovesRecordAndIndexEntry(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, note(1, "a")))
	require.NoError(t, store.Upsert(ctx, note(2, "b")))

	require.NoError(t, store.Delete(ctx, 1))

	ids, err := store.ListIds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestDeleteNonexistentIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, note(1, "a")))
	require.NoError(t, store.Delete(ctx, 42))

	notes, err := store.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}
