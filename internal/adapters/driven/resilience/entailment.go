package resilience

import (
	"context"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.EntailmentClassifier = (*Classifier)(nil)

// Classifier decorates an entailment classifier with a guard.
type Classifier struct {
	inner driven.EntailmentClassifier
	guard *guard
}

// WrapClassifier guards every Classify call of inner.
func WrapClassifier(inner driven.EntailmentClassifier, cfg Config) *Classifier {
	return &Classifier{inner: inner, guard: newGuard("entailment", cfg)}
}

// Classify implements driven.EntailmentClassifier.
func (c *Classifier) Classify(ctx context.Context, premise, hypothesis string) (domain.NLIScores, error) {
	var scores domain.NLIScores
	err := c.guard.do(ctx, "classify", func(ctx context.Context) error {
		var err error
		scores, err = c.inner.Classify(ctx, premise, hypothesis)
		return err
	})
	return scores, err
}

// ModelName implements driven.EntailmentClassifier.
func (c *Classifier) ModelName() string {
	return c.inner.ModelName()
}
