package driven

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// ResultCache memoises generation results by unit content hash.
// Entries are immutable once written; a repeated Put for the same
// hash overwrites with last-writer-wins semantics.
type ResultCache interface {
	// Get returns the cached result. Absence is reported by ok=false,
	// never by an error.
	Get(ctx context.Context, hash string) (result string, ok bool, err error)

	// Put stores a result. Concurrent writers of the same hash are safe.
	Put(ctx context.Context, hash, result string) error

	// Stats summarises the cache contents.
	Stats(ctx context.Context) (domain.CacheStats, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
