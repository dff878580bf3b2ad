// Package file provides a content-addressed result cache stored as one
// plain-text file per unit hash.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

const entryExt = ".txt"

// syncEntry flushes a written entry to stable storage before it is renamed
// into place.
var syncEntry = (*os.File).Sync

// Ensure Cache implements the interface.
var _ driven.ResultCache = (*Cache)(nil)

// Cache stores each generation result at <dir>/<hash>.txt.
// Writes go through a temporary file and a rename, so a reader never
// observes a partial entry and concurrent writers of one hash are safe.
type Cache struct {
	dir string
}

// New creates a file cache rooted at dir.
// If dir is empty, defaults to ~/.reqdistill/cache.
func New(dir string) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".reqdistill", "cache")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the cached result for hash.
func (c *Cache) Get(_ context.Context, hash string) (string, bool, error) {
	path, err := c.entryPath(hash)
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cache entry: %w", err)
	}
	return string(data), true, nil
}

// Put writes result under hash, replacing any previous entry.
func (c *Cache) Put(_ context.Context, hash, result string) error {
	path, err := c.entryPath(hash)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.dir, "."+hash+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(result); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := syncEntry(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing cache entry: %w", err)
	}
	return nil
}

// Stats counts entries and their total size.
func (c *Cache) Stats(_ context.Context) (domain.CacheStats, error) {
	stats := domain.CacheStats{Backend: "file", Location: c.dir}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if !isEntry(e) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.Bytes += info.Size()
	}
	return stats, nil
}

// Clear removes every entry. Unrelated files in the directory are left alone.
func (c *Cache) Clear(_ context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if !isEntry(e) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing cache entry: %w", err)
		}
	}
	return nil
}

func (c *Cache) entryPath(hash string) (string, error) {
	if !validHash(hash) {
		return "", fmt.Errorf("%w: cache key %q is not a hex digest", domain.ErrInvalidInput, hash)
	}
	return filepath.Join(c.dir, hash+entryExt), nil
}

func isEntry(e fs.DirEntry) bool {
	name := e.Name()
	return !e.IsDir() && strings.HasSuffix(name, entryExt) && validHash(strings.TrimSuffix(name, entryExt))
}

func validHash(hash string) bool {
	if hash == "" {
		return false
	}
	for _, r := range hash {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
