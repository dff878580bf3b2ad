package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no reader handles the document format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnreadableDocument indicates the source document could not be read.
	// This is the only fatal error of a pipeline run.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrLLMUnavailable indicates the generation service is not configured
	// or not reachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Deduplication is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrEntailmentUnavailable indicates the entailment classifier is not configured.
	ErrEntailmentUnavailable = errors.New("entailment classifier unavailable")

	// ErrInvalidTransition indicates a dedup pass tried to move backwards
	// or skip a phase.
	ErrInvalidTransition = errors.New("invalid dedup phase transition")

	// ErrCircuitOpen indicates a remote service was disabled after
	// repeated failures.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrRateLimited indicates the remote API rejected the call for quota reasons.
	ErrRateLimited = errors.New("rate limited")
)

// StatusError is a non-success HTTP response from a remote AI service.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s error (status %d)", e.Service, e.Code)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Service, e.Code, e.Body)
}

// Temporary reports whether the call may succeed when repeated:
// rate limiting and server-side failures.
func (e *StatusError) Temporary() bool {
	return e.Code == 429 || e.Code >= 500
}

// Unwrap maps 429 responses onto ErrRateLimited.
func (e *StatusError) Unwrap() error {
	if e.Code == 429 {
		return ErrRateLimited
	}
	return nil
}
