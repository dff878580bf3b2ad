package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

func TestResultCache_PutGet(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache()

	_, ok, err := cache.Get(ctx, "h")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, "h", "v1"))
	require.NoError(t, cache.Put(ctx, "h", "v2"))

	got, ok, err := cache.Get(ctx, "h")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
	assert.Equal(t, 1, cache.Len())
}

func TestResultCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = cache.Put(ctx, "k", "v")
		}()
		go func() {
			defer wg.Done()
			_, _, _ = cache.Get(ctx, "k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cache.Len())
}

func TestResultCache_StatsAndClear(t *testing.T) {
	ctx := context.Background()
	cache := NewResultCache()
	require.NoError(t, cache.Put(ctx, "a", "abc"))
	require.NoError(t, cache.Put(ctx, "b", "de"))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(5), stats.Bytes)

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewRunStore()
	now := time.Now()

	require.NoError(t, store.SaveRun(ctx, &domain.Run{ID: "a", StartedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.SaveRun(ctx, &domain.Run{ID: "b", StartedAt: now}))
	require.NoError(t, store.SaveRun(ctx, &domain.Run{ID: "c", StartedAt: now.Add(-2 * time.Hour)}))

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)
	assert.Equal(t, "c", runs[2].ID)

	runs, err = store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunStore_RejectsEmptyID(t *testing.T) {
	store := NewRunStore()
	assert.ErrorIs(t, store.SaveRun(context.Background(), &domain.Run{}), domain.ErrInvalidInput)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":     "text",
		"i":     int64(7),
		"f":     0.75,
		"fi":    int64(1),
		"b":     true,
		"slice": []any{"a", 1, "b"},
	})

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, 7, store.GetInt("i"))
	assert.InDelta(t, 0.75, store.GetFloat("f"), 1e-9)
	assert.InDelta(t, 1.0, store.GetFloat("fi"), 1e-9)
	assert.True(t, store.GetBool("b"))
	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("slice"))

	assert.Empty(t, store.GetString("missing"))
	assert.Zero(t, store.GetInt("s"))
	assert.Zero(t, store.GetFloat("b"))
	assert.False(t, store.GetBool("s"))
	assert.Nil(t, store.GetStringSlice("s"))
}

func TestConfigStore_SetOverwrites(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("k", "one"))
	require.NoError(t, store.Set("k", "two"))

	val, ok := store.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "two", val)
}
