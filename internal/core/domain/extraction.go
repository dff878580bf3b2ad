package domain

import (
	"sort"
	"time"
)

// UnitFailure records a unit whose generation call failed or timed out.
type UnitFailure struct {
	Index int
	Err   error
}

// ExtractionReport is the outcome of extracting every unit of a document.
type ExtractionReport struct {
	// Results is aligned with the unit sequence: Results[k] belongs to
	// unit k. Failed units hold FailedResult.
	Results []string

	// Failures lists failed units in ascending index order.
	Failures []UnitFailure

	// CacheHits counts units served from the result cache.
	CacheHits int

	// Generated counts units that called the generation service successfully.
	Generated int

	// Duration is the wall time of the batch.
	Duration time.Duration
}

// FailedIndices returns the indices of failed units in ascending order.
func (r *ExtractionReport) FailedIndices() []int {
	indices := make([]int, len(r.Failures))
	for i, f := range r.Failures {
		indices[i] = f.Index
	}
	sort.Ints(indices)
	return indices
}

// HasFailures returns true if any unit failed.
func (r *ExtractionReport) HasFailures() bool {
	return len(r.Failures) > 0
}
