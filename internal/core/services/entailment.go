package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// EntailmentVerifier confirms candidate pairs with a bidirectional
// entailment check.
type EntailmentVerifier struct {
	classifier driven.EntailmentClassifier
	threshold  float64
	timeout    time.Duration
}

// NewEntailmentVerifier creates a verifier. A pair is a duplicate when the
// larger of the two directional entailment probabilities reaches threshold.
func NewEntailmentVerifier(classifier driven.EntailmentClassifier, threshold float64, timeout time.Duration) *EntailmentVerifier {
	if threshold <= 0 {
		threshold = domain.DefaultConfirmationThreshold
	}
	if timeout <= 0 {
		timeout = domain.DefaultDedupTimeout
	}
	return &EntailmentVerifier{classifier: classifier, threshold: threshold, timeout: timeout}
}

// Verify classifies (a, b) and (b, a). Any classification error is returned
// and the caller must treat the pair as distinct.
func (v *EntailmentVerifier) Verify(ctx context.Context, a, b string) (domain.Verdict, error) {
	if v.classifier == nil {
		return domain.Verdict{}, domain.ErrEntailmentUnavailable
	}

	forward, err := v.classify(ctx, a, b)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("forward: %w", err)
	}
	backward, err := v.classify(ctx, b, a)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("backward: %w", err)
	}

	verdict := domain.Verdict{
		Forward:  forward.Entailment,
		Backward: backward.Entailment,
		Score:    max(forward.Entailment, backward.Entailment),
	}
	verdict.Duplicate = verdict.Score >= v.threshold
	return verdict, nil
}

// classify bounds one call by the verifier timeout, even when the
// classifier ignores its context.
func (v *EntailmentVerifier) classify(ctx context.Context, premise, hypothesis string) (domain.NLIScores, error) {
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	type outcome struct {
		scores domain.NLIScores
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		scores, err := v.classifier.Classify(callCtx, premise, hypothesis)
		done <- outcome{scores: scores, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return domain.NLIScores{}, out.err
		}
		return out.scores, nil
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return domain.NLIScores{}, ctx.Err()
		}
		return domain.NLIScores{}, fmt.Errorf("classification timed out after %s: %w", v.timeout, callCtx.Err())
	}
}

// KeepLonger decides which of a duplicate pair survives. It returns the
// kept and dropped indices. The longer text by rune count wins; on a tie
// the lower index is kept.
func KeepLonger(i, j int, textI, textJ string) (kept, dropped int) {
	li, lj := utf8.RuneCountInString(textI), utf8.RuneCountInString(textJ)
	if lj > li || (lj == li && j < i) {
		return j, i
	}
	return i, j
}
