// Package llmjudge provides an entailment classifier that asks a
// generation model for NLI label probabilities.
package llmjudge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.EntailmentClassifier = (*Classifier)(nil)
var _ driven.PromptStoreAware = (*Classifier)(nil)

// defaultJudgePrompt is used when no prompt store is configured.
const defaultJudgePrompt = `You are a natural language inference classifier.
Premise: %s
Hypothesis: %s

Does the premise entail the hypothesis? Answer only with a JSON object of
probabilities summing to 1, for example:
{"entailment": 0.1, "neutral": 0.7, "contradiction": 0.2}`

// Classifier scores pairs with an LLM.
type Classifier struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
}

// NewClassifier creates an LLM-backed classifier.
func NewClassifier(llm driven.LLMService) *Classifier {
	return &Classifier{llm: llm}
}

// SetPromptStore sets the prompt store for the judge template.
func (c *Classifier) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// judgeResponse is the JSON object the model is asked to return.
type judgeResponse struct {
	Entailment    float64 `json:"entailment"`
	Neutral       float64 `json:"neutral"`
	Contradiction float64 `json:"contradiction"`
}

// Classify returns the label distribution for (premise, hypothesis).
func (c *Classifier) Classify(ctx context.Context, premise, hypothesis string) (domain.NLIScores, error) {
	if c.llm == nil {
		return domain.NLIScores{}, domain.ErrEntailmentUnavailable
	}

	prompt := fillTemplate(c.template(), premise, hypothesis)
	out, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{MaxTokens: 64, Format: driven.FormatJSON})
	if err != nil {
		return domain.NLIScores{}, fmt.Errorf("judge: %w", err)
	}

	return parseJudgement(out)
}

// parseJudgement extracts the first JSON object from the model output.
// Code fences and surrounding prose are ignored.
func parseJudgement(out string) (domain.NLIScores, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return domain.NLIScores{}, fmt.Errorf("judge: no JSON object in %q", truncate(out, 200))
	}

	var resp judgeResponse
	if err := json.Unmarshal([]byte(out[start:end+1]), &resp); err != nil {
		return domain.NLIScores{}, fmt.Errorf("judge: decode %q: %w", truncate(out, 200), err)
	}

	return domain.NLIScores{
		Entailment:    clamp(resp.Entailment),
		Neutral:       clamp(resp.Neutral),
		Contradiction: clamp(resp.Contradiction),
	}, nil
}

func (c *Classifier) template() string {
	if c.promptStore == nil {
		return defaultJudgePrompt
	}
	t, err := c.promptStore.Load(driven.PromptEntailmentJudge)
	if err != nil || strings.Count(t, "%s") < 2 {
		return defaultJudgePrompt
	}
	return t
}

// fillTemplate replaces successive %s placeholders with args.
// Placeholders inside the substituted values are left alone.
func fillTemplate(template string, args ...string) string {
	parts := strings.SplitN(template, "%s", len(args)+1)
	var b strings.Builder
	for i, part := range parts {
		b.WriteString(part)
		if i < len(args) && i < len(parts)-1 {
			b.WriteString(args[i])
		}
	}
	return b.String()
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// ModelName returns the underlying generation model.
func (c *Classifier) ModelName() string {
	if c.llm == nil {
		return ""
	}
	return "llm:" + c.llm.ModelName()
}
