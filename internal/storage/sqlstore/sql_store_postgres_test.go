package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notevault/internal/entity"
	"notevault/internal/pkg/logger"
	"notevault/pkg/database"
)

func newPostgresStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set, skipping postgres integration test")
	}
	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	return NewStore(db, logger.NewNopLogger())
}

func TestPostgresStoreLifecycle(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Available(ctx))

	n := &entity.Note{
		Id:         time.Now().UnixMilli(),
		Title:      "postgres lifecycle",
		Categories: []string{"integration"},
		CreatedAt:  time.Now().UTC(),
	}
	n.Normalize()
	require.NoError(t, store.Upsert(ctx, n))
	t.Cleanup(func() { _ = store.Delete(ctx, n.Id) })

	matched, err := store.FindByCategory(ctx, "integration")
	require.NoError(t, err)
	found := false
	for _, m := range matched {
		if m.Id == n.Id {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, store.Delete(ctx, n.Id))
	matched, err = store.FindByCategory(ctx, "integration")
	require.NoError(t, err)
	for _, m := range matched {
		assert.NotEqual(t, n.Id, m.Id)
	}
}
