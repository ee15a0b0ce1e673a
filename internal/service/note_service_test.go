package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notevault/internal/codec"
	"notevault/internal/entity"
	"notevault/internal/migration"
	"notevault/internal/pkg/logger"
	"notevault/internal/storage/keyed"
	"notevault/internal/storage/kv"
	"notevault/internal/storeerr"
)

type stubTarget struct{}

func (stubTarget) Available(ctx context.Context) error                     { return nil }
func (stubTarget) Init(ctx context.Context) error                          { return nil }
func (stubTarget) BulkReplace(ctx context.Context, _ []*entity.Note) error { return nil }

type serviceFixture struct {
	svc     INoteService
	kvStore kv.Store
	keyed   *keyed.Store
}

// newServiceFixture wires the façade over file-backed stores with no
// transactional medium and no event broker, which is the common deployment.
// recordCapacity limits the keyed store's medium; zero means unlimited.
func newServiceFixture(t *testing.T, recordCapacity int64) *serviceFixture {
	t.Helper()
	log := logger.NewNopLogger()

	kvStore, err := kv.NewFileStore(t.TempDir(), 0)
	require.NoError(t, err)

	recordKV := kvStore
	if recordCapacity > 0 {
		recordKV, err = kv.NewFileStore(t.TempDir(), recordCapacity)
		require.NoError(t, err)
	}
	keyedStore := keyed.NewStore(recordKV, log)

	coord := migration.NewCoordinator(kvStore, keyedStore, stubTarget{}, log)
	return &serviceFixture{
		svc:     NewNoteService(kvStore, keyedStore, nil, coord, nil, log),
		kvStore: kvStore,
		keyed:   keyedStore,
	}
}

func (f *serviceFixture) initialize(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	f.svc.Initialize(ctx)
	select {
	case <-f.svc.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("service never became ready")
	}
}

func sampleNote(id int64, title string, categories ...string) *entity.Note {
	return &entity.Note{
		Id:         id,
		Title:      title,
		Content:    "content of " + title,
		Categories: categories,
		CreatedAt:  time.UnixMilli(id).UTC(),
	}
}

func TestInitializeEmptyYieldsEmptySnapshot(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)

	assert.Empty(t, f.svc.Snapshot())
}

func TestInitializeUpgradesLegacyBlob(t *testing.T) {
	f := newServiceFixture(t, 0)
	ctx := context.Background()

	blob, err := codec.EncodeRecords([]*entity.Note{
		sampleNote(1, "oldest"),
		sampleNote(2, "newest"),
	})
	require.NoError(t, err)
	require.NoError(t, f.kvStore.Set(ctx, kv.KeyLegacyNotes, blob))

	f.initialize(t)

	snapshot := f.svc.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "newest", snapshot[0].Title)
	assert.Equal(t, "oldest", snapshot[1].Title)

	// The upgrade persisted per-record entries and marked itself done.
	ids, err := f.keyed.ListIds(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, ids)

	flag, err := f.kvStore.Get(ctx, kv.KeyUpgradeDone)
	require.NoError(t, err)
	assert.Equal(t, "true", string(flag))
}

func TestAddDefaultsAndOrdersNewestFirst(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)
	ctx := context.Background()

	older, warn, err := f.svc.Add(ctx, &entity.Note{Title: "older", CreatedAt: time.UnixMilli(100).UTC()})
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, int64(100), older.Id, "id defaults to the creation timestamp")
	assert.NotNil(t, older.Categories)
	assert.Empty(t, older.Categories)
	assert.NotNil(t, older.Images)

	newer, _, err := f.svc.Add(ctx, &entity.Note{Title: "newer", CreatedAt: time.UnixMilli(200).UTC()})
	require.NoError(t, err)

	snapshot := f.svc.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, newer.Id, snapshot[0].Id)
	assert.Equal(t, older.Id, snapshot[1].Id)
}

func TestGetReturnsCopies(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)
	ctx := context.Background()

	added, _, err := f.svc.Add(ctx, sampleNote(7, "mine", "work"))
	require.NoError(t, err)

	got, ok := f.svc.Get(added.Id)
	require.True(t, ok)
	got.Title = "mutated"
	got.Categories[0] = "mutated"

	again, ok := f.svc.Get(added.Id)
	require.True(t, ok)
	assert.Equal(t, "mine", again.Title)
	assert.Equal(t, []string{"work"}, again.Categories)

	_, ok = f.svc.Get(999)
	assert.False(t, ok)
}

func TestUpdatePreservesCreationTime(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)
	ctx := context.Background()

	added, _, err := f.svc.Add(ctx, sampleNote(50, "draft"))
	require.NoError(t, err)

	warn, err := f.svc.Update(ctx, &entity.Note{Id: added.Id, Title: "final", Content: "done"})
	require.NoError(t, err)
	assert.Nil(t, warn)

	got, ok := f.svc.Get(added.Id)
	require.True(t, ok)
	assert.Equal(t, "final", got.Title)
	assert.True(t, got.CreatedAt.Equal(added.CreatedAt))
}

func TestDeleteNonexistentIsNoop(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, sampleNote(1, "keep"))
	require.NoError(t, err)

	warn, err := f.svc.Delete(ctx, 424242)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Len(t, f.svc.Snapshot(), 1)

	warn, err = f.svc.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Empty(t, f.svc.Snapshot())
}

func TestAddFallsBackToMemoryWhenStorageFull(t *testing.T) {
	f := newServiceFixture(t, 8)
	f.initialize(t)
	ctx := context.Background()

	added, warn, err := f.svc.Add(ctx, sampleNote(1, "too big for the medium"))
	require.NoError(t, err, "a full medium downgrades to memory, never fails the operation")
	require.NotNil(t, warn)
	assert.True(t, warn.Capacity)

	// The record is still served from memory.
	got, ok := f.svc.Get(added.Id)
	require.True(t, ok)
	assert.Equal(t, added.Title, got.Title)
	assert.Len(t, f.svc.Snapshot(), 1)

	// But the durable medium never received it.
	ids, err := f.keyed.ListIds(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// Errors other than capacity produce the generic wording.
	generic := newStorageWarning(storeerr.ErrBackendUnavailable)
	assert.False(t, generic.Capacity)
	assert.NotEqual(t, warn.Message, generic.Message)
}

func TestFindByCategoryScansCache(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)
	ctx := context.Background()

	_, _, err := f.svc.Add(ctx, sampleNote(1, "a", "work", "urgent"))
	require.NoError(t, err)
	_, _, err = f.svc.Add(ctx, sampleNote(2, "b", "home"))
	require.NoError(t, err)
	_, _, err = f.svc.Add(ctx, sampleNote(3, "c", "work"))
	require.NoError(t, err)

	matched, err := f.svc.FindByCategory(ctx, "work")
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, int64(3), matched[0].Id)
	assert.Equal(t, int64(1), matched[1].Id)

	none, err := f.svc.FindByCategory(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExportImportRoundTrip(t *testing.T) {
	source := newServiceFixture(t, 0)
	source.initialize(t)
	ctx := context.Background()

	_, _, err := source.svc.Add(ctx, sampleNote(100, "first", "work"))
	require.NoError(t, err)
	_, _, err = source.svc.Add(ctx, sampleNote(200, "second"))
	require.NoError(t, err)

	blob, err := source.svc.ExportAll(ctx)
	require.NoError(t, err)

	// Exports keep the legacy blob's oldest-first order.
	decoded, dropped, err := codec.DecodeRecords(blob)
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(100), decoded[0].Id)
	assert.Equal(t, int64(200), decoded[1].Id)

	dest := newServiceFixture(t, 0)
	dest.initialize(t)

	count, warn, err := dest.svc.ImportAll(ctx, blob)
	require.NoError(t, err)
	assert.Nil(t, warn)
	assert.Equal(t, 2, count)

	snapshot := dest.svc.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "second", snapshot[0].Title)
	assert.Equal(t, "first", snapshot[1].Title)

	// The imported records are durable, not memory-only.
	ids, err := dest.keyed.ListIds(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 200}, ids)
}

func TestImportRejectsCorruptEnvelope(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)

	_, _, err := f.svc.ImportAll(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, storeerr.ErrCorruptRecord)
}

func TestSubscribeReplaysSnapshotThenStreamsChanges(t *testing.T) {
	f := newServiceFixture(t, 0)
	f.initialize(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _, err := f.svc.Add(ctx, sampleNote(1, "existing"))
	require.NoError(t, err)

	snapshots, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.Len(t, snap, 1)
		assert.Equal(t, "existing", snap[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("expected immediate snapshot replay")
	}

	_, _, err = f.svc.Add(ctx, sampleNote(2, "fresh"))
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.Len(t, snap, 2)
		assert.Equal(t, "fresh", snap[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("expected change delivery")
	}
}
