package domain

import "time"

// FailedResult is the sentinel stored in an extraction slot whose
// generation call failed. It parses to zero requirements.
const FailedResult = ""

// Unit is a bounded, contiguous slice of the source document.
// Units are created by the chunker and never mutated.
type Unit struct {
	// Index is the position of the unit in the document, starting at 0.
	Index int

	// Text is the unit content. Its length never exceeds the
	// configured maximum unit size.
	Text string

	// Hash is the lowercase hex content hash of Text.
	Hash string
}

// Len returns the size of the unit text in bytes.
func (u Unit) Len() int {
	return len(u.Text)
}

// CacheEntry is a memoised generation result keyed by unit content hash.
type CacheEntry struct {
	// Hash is the content hash of the unit that produced Result.
	Hash string

	// Result is the raw generation output.
	Result string

	// CreatedAt is when the entry was written.
	CreatedAt time.Time
}

// CacheStats summarises the contents of a result cache.
type CacheStats struct {
	// Backend names the cache implementation.
	Backend string

	// Location is the directory or database path, if any.
	Location string

	// Entries is the number of cached results.
	Entries int

	// Bytes is the total payload size.
	Bytes int64
}
