package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})

	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "reqdistill.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.ResultCache().Put(ctx, "h1", "result"))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	got, ok, err := store.ResultCache().Get(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "result", got)
}

func TestResultCache_GetMissing(t *testing.T) {
	cache := setupTestStore(t).ResultCache()

	got, ok, err := cache.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestResultCache_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).ResultCache()

	require.NoError(t, cache.Put(ctx, "h", "first"))
	require.NoError(t, cache.Put(ctx, "h", "second"))

	got, ok, err := cache.Get(ctx, "h")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestResultCache_ConcurrentPutSameKey(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).ResultCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Put(ctx, "same", "payload"))
		}()
	}
	wg.Wait()

	got, ok, err := cache.Get(ctx, "same")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "payload", got)
}

func TestResultCache_StatsAndClear(t *testing.T) {
	ctx := context.Background()
	cache := setupTestStore(t).ResultCache()

	require.NoError(t, cache.Put(ctx, "a", "1234"))
	require.NoError(t, cache.Put(ctx, "b", "é"))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", stats.Backend)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(6), stats.Bytes)

	require.NoError(t, cache.Clear(ctx))
	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Entries)
}

func TestRunStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, runs.SaveRun(ctx, &domain.Run{
		ID:          "old",
		Document:    "a.pdf",
		StartedAt:   base,
		Duration:    1500 * time.Millisecond,
		Units:       4,
		FailedUnits: []int{2},
		Functional:  7,
	}))
	require.NoError(t, runs.SaveRun(ctx, &domain.Run{
		ID:            "new",
		Document:      "b.docx",
		StartedAt:     base.Add(time.Hour),
		Units:         2,
		NonFunctional: 3,
		Removed:       1,
		Output:        "out.txt",
	}))

	list, err := runs.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "new", list[0].ID)
	assert.Empty(t, list[0].FailedUnits)
	assert.Equal(t, "out.txt", list[0].Output)

	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, []int{2}, list[1].FailedUnits)
	assert.Equal(t, 1500*time.Millisecond, list[1].Duration)
	assert.True(t, base.Equal(list[1].StartedAt))

	limited, err := runs.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRunStore_SaveRejectsMissingID(t *testing.T) {
	runs := setupTestStore(t).RunStore()

	assert.ErrorIs(t, runs.SaveRun(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, runs.SaveRun(context.Background(), &domain.Run{}), domain.ErrInvalidInput)
}
