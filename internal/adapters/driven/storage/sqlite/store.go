package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

const backendName = "sqlite"

// Store is one SQLite database shared by the result cache and the run
// history.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.reqdistill/data/reqdistill.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".reqdistill", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "reqdistill.db")

	// WAL lets extraction workers write while others read.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(context.Background(), schemaFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ResultCache returns the generation result cache backed by this store.
func (s *Store) ResultCache() driven.ResultCache {
	return &resultCache{store: s}
}

// RunStore returns the run history backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// ==================== Result Cache ====================

// resultCache implements driven.ResultCache.
type resultCache struct {
	store *Store
}

var _ driven.ResultCache = (*resultCache)(nil)

// Get returns the cached result for hash.
func (c *resultCache) Get(ctx context.Context, hash string) (string, bool, error) {
	var result string
	err := c.store.db.QueryRowContext(ctx, `SELECT result FROM results WHERE hash = ?`, hash).Scan(&result)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading cached result: %w", err)
	}
	return result, true, nil
}

// Put stores result under hash, replacing any previous entry.
func (c *resultCache) Put(ctx context.Context, hash, result string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO results (hash, result, created_at) VALUES (?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			result = excluded.result,
			created_at = excluded.created_at
	`, hash, result, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving cached result: %w", err)
	}
	return nil
}

// Stats counts cached results and their payload size.
func (c *resultCache) Stats(ctx context.Context) (domain.CacheStats, error) {
	stats := domain.CacheStats{Backend: backendName, Location: c.store.path}
	err := c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(LENGTH(CAST(result AS BLOB))), 0) FROM results`,
	).Scan(&stats.Entries, &stats.Bytes)
	if err != nil {
		return stats, fmt.Errorf("counting cached results: %w", err)
	}
	return stats, nil
}

// Clear removes every cached result.
func (c *resultCache) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clearing cached results: %w", err)
	}
	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun stores or updates a run summary.
func (s *runStore) SaveRun(ctx context.Context, run *domain.Run) error {
	if run == nil || run.ID == "" {
		return domain.ErrInvalidInput
	}

	failed := run.FailedUnits
	if failed == nil {
		failed = []int{}
	}
	failedJSON, err := json.Marshal(failed)
	if err != nil {
		return fmt.Errorf("marshalling failed units: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, document, started_at, duration_ms, units, failed_units,
			cache_hits, functional, non_functional, removed, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			duration_ms = excluded.duration_ms,
			units = excluded.units,
			failed_units = excluded.failed_units,
			cache_hits = excluded.cache_hits,
			functional = excluded.functional,
			non_functional = excluded.non_functional,
			removed = excluded.removed,
			output = excluded.output
	`, run.ID, run.Document, run.StartedAt.UTC(), run.Duration.Milliseconds(), run.Units,
		string(failedJSON), run.CacheHits, run.Functional, run.NonFunctional, run.Removed, run.Output)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document, started_at, duration_ms, units, failed_units,
			cache_hits, functional, non_functional, removed, output
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

func scanRun(rows *sql.Rows) (*domain.Run, error) {
	var run domain.Run
	var durationMS int64
	var failedJSON string
	if err := rows.Scan(&run.ID, &run.Document, &run.StartedAt, &durationMS, &run.Units, &failedJSON,
		&run.CacheHits, &run.Functional, &run.NonFunctional, &run.Removed, &run.Output); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if err := json.Unmarshal([]byte(failedJSON), &run.FailedUnits); err != nil {
		return nil, fmt.Errorf("unmarshaling failed units: %w", err)
	}
	return &run, nil
}
