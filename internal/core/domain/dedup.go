package domain

import (
	"fmt"
	"time"
)

// CandidatePair is an unordered pair of requirements, stored with I < J,
// whose embedding similarity exceeded the candidate threshold.
type CandidatePair struct {
	I          int
	J          int
	Similarity float64
}

// NLIScores is a probability distribution over entailment labels
// for one ordered (premise, hypothesis) pair.
type NLIScores struct {
	Contradiction float64
	Neutral       float64
	Entailment    float64
}

// Verdict is the outcome of a bidirectional entailment check.
type Verdict struct {
	// Forward is P(entailment) with the first item as premise.
	Forward float64

	// Backward is P(entailment) with the second item as premise.
	Backward float64

	// Score is max(Forward, Backward).
	Score float64

	// Duplicate is true when Score reached the confirmation threshold.
	Duplicate bool
}

// Removal records one requirement dropped as a duplicate.
type Removal struct {
	// Index is the position of the dropped item in the input.
	Index int

	// KeptIndex is the position of the item it duplicated.
	KeptIndex int

	// Score is the entailment score that confirmed the duplicate.
	Score float64
}

// DedupStats summarises a dedup pass.
type DedupStats struct {
	Total                  int
	Candidates             int
	Verified               int
	Confirmed              int
	Skipped                int
	ClassificationFailures int
	Duration               time.Duration

	// Degraded is set when embeddings could not be computed and the
	// items were kept unchanged.
	Degraded bool
}

// Add accumulates another pass's counters.
func (s *DedupStats) Add(o DedupStats) {
	s.Total += o.Total
	s.Candidates += o.Candidates
	s.Verified += o.Verified
	s.Confirmed += o.Confirmed
	s.Skipped += o.Skipped
	s.ClassificationFailures += o.ClassificationFailures
	s.Duration += o.Duration
	s.Degraded = s.Degraded || o.Degraded
}

// DedupResult is the outcome of deduplicating one category.
type DedupResult struct {
	// Kept is the survivors in their original relative order.
	Kept []Requirement

	// Removed lists dropped items in ascending index order.
	Removed []Removal

	Stats DedupStats
}

// DedupPhase is the state of a dedup pass.
type DedupPhase int

// Dedup phases, in the only order a pass may visit them.
const (
	PhaseIdle DedupPhase = iota
	PhaseEmbeddingComputed
	PhaseCandidatesGenerated
	PhasePairsVerified
	PhaseFinalized
)

// String returns the phase name.
func (p DedupPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseEmbeddingComputed:
		return "embedding_computed"
	case PhaseCandidatesGenerated:
		return "candidates_generated"
	case PhasePairsVerified:
		return "pairs_verified"
	case PhaseFinalized:
		return "finalized"
	default:
		return unknownDescription
	}
}

// Advance moves the phase one step forward.
// Any other transition returns ErrInvalidTransition.
func (p *DedupPhase) Advance(next DedupPhase) error {
	if next != *p+1 || next > PhaseFinalized {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, *p, next)
	}
	*p = next
	return nil
}
