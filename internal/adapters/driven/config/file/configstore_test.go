package file

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	return store, dir
}

func TestNewConfigStore(t *testing.T) {
	t.Run("explicit directory", func(t *testing.T) {
		store, dir := newStore(t)
		assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	})

	t.Run("defaults under home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		store, err := NewConfigStore("")

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".reqdistill", "config.toml"), store.Path())
	})

	t.Run("creates nested directories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")

		_, err := NewConfigStore(dir)

		require.NoError(t, err)
		assert.DirExists(t, dir)
	})

	t.Run("rejects a corrupt file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[llm\nprovider="), 0600))

		_, err := NewConfigStore(dir)

		assert.Error(t, err)
	})

	t.Run("empty file starts empty", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), nil, 0600))

		store, err := NewConfigStore(dir)

		require.NoError(t, err)
		_, ok := store.Get("llm.provider")
		assert.False(t, ok)
	})
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[llm]
provider = "anthropic"
model = "claude-3-5-haiku-latest"

[chunker]
max_size = 1200

[dedup]
enabled = true
similarity_threshold = 0.65
entailment_threshold = 1

[cache]
backend = "sqlite"

[extraction]
stop = ["###", "END"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", store.GetString("llm.provider"))
	assert.Equal(t, 1200, store.GetInt("chunker.max_size"))
	assert.True(t, store.GetBool("dedup.enabled"))
	assert.InDelta(t, 0.65, store.GetFloat("dedup.similarity_threshold"), 1e-9)
	assert.InDelta(t, 1.0, store.GetFloat("dedup.entailment_threshold"), 1e-9)
	assert.Equal(t, "sqlite", store.GetString("cache.backend"))
	assert.Equal(t, []string{"###", "END"}, store.GetStringSlice("extraction.stop"))
}

func TestConfigStore_TypedGettersIgnoreOtherTypes(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("llm.model", "llama3.2"))
	require.NoError(t, store.Set("chunker.max_size", 900))

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"string of int", store.GetString("chunker.max_size"), ""},
		{"int of string", store.GetInt("llm.model"), 0},
		{"float of string", store.GetFloat("llm.model"), 0.0},
		{"bool of string", store.GetBool("llm.model"), false},
		{"slice of string", store.GetStringSlice("llm.model"), []string(nil)},
		{"missing string", store.GetString("missing"), ""},
		{"missing int", store.GetInt("missing"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_DottedKeysPersistAsTables(t *testing.T) {
	store, dir := newStore(t)

	require.NoError(t, store.Set("chunker.max_size", 1500))
	require.NoError(t, store.Set("llm.provider", "ollama"))
	require.NoError(t, store.Set("embedding.model", "paraphrase-multilingual"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[chunker]")
	assert.Contains(t, string(raw), "[llm]")
	assert.NotContains(t, string(raw), "chunker.max_size")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 1500, reloaded.GetInt("chunker.max_size"))
	assert.Equal(t, "ollama", reloaded.GetString("llm.provider"))
	assert.Equal(t, "paraphrase-multilingual", reloaded.GetString("embedding.model"))
}

func TestConfigStore_ConflictingKeys(t *testing.T) {
	t.Run("value then table", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Set("llm", "ollama"))
		assert.Error(t, store.Set("llm.model", "llama3"))

		_, kept := store.Get("llm.model")
		assert.False(t, kept, "rejected key is rolled back")
		assert.NoError(t, store.Set("cache.backend", "file"), "later writes still succeed")
	})

	t.Run("table then value", func(t *testing.T) {
		store, _ := newStore(t)
		require.NoError(t, store.Set("llm.model", "llama3"))
		assert.Error(t, store.Set("llm", "ollama"))
	})
}

func TestConfigStore_OverwriteAndReload(t *testing.T) {
	store, dir := newStore(t)
	require.NoError(t, store.Set("cache.backend", "file"))
	require.NoError(t, store.Set("cache.backend", "memory"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[cache]\nbackend = \"sqlite\"\n"), 0600))
	require.NoError(t, store.Load())
	assert.Equal(t, "sqlite", store.GetString("cache.backend"))

	require.NoError(t, store.Save())
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", reloaded.GetString("cache.backend"))
}

func TestConfigStore_LoadMissingFileResets(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("llm.provider", "openai"))
	require.NoError(t, os.Remove(store.Path()))

	require.NoError(t, store.Load())

	_, ok := store.Get("llm.provider")
	assert.False(t, ok)
}

func TestConfigStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	store, _ := newStore(t)
	require.NoError(t, store.Set("llm.api_key", "secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_WriteFailure(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("needs a non-root unix user")
	}
	store, dir := newStore(t)
	require.NoError(t, os.Chmod(dir, 0500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

	assert.Error(t, store.Set("llm.provider", "ollama"))
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store, _ := newStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("extraction.concurrency", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.GetInt("extraction.concurrency")
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, store.GetInt("extraction.concurrency"), 0)
}
