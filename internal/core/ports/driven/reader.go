package driven

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// DocumentReader turns the file at path into a normalised Document.
type DocumentReader interface {
	Read(ctx context.Context, path string) (*domain.Document, error)
}

// Normaliser converts raw bytes of the MIME types it declares. When
// several normalisers claim a type the highest Priority wins: format
// specific ones use 50 to 89, plain-text fallbacks 1 to 9.
type Normaliser interface {
	SupportedMIMETypes() []string
	Priority() int
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}
