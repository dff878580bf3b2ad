package driven

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// EntailmentClassifier scores whether a premise entails a hypothesis.
// Calls are directional: Classify(a, b) and Classify(b, a) may differ.
type EntailmentClassifier interface {
	// Classify returns the label distribution for (premise, hypothesis).
	Classify(ctx context.Context, premise, hypothesis string) (domain.NLIScores, error)

	// ModelName returns the name of the classification model.
	ModelName() string
}
