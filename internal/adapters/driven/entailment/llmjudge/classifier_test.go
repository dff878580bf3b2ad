package llmjudge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

type stubLLM struct {
	reply  string
	err    error
	prompt string
	opts   driven.GenerateOptions
}

func (s *stubLLM) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	s.prompt = prompt
	s.opts = opts
	return s.reply, s.err
}

func (s *stubLLM) ModelName() string            { return "stub" }
func (s *stubLLM) Ping(_ context.Context) error { return nil }
func (s *stubLLM) Close() error                 { return nil }

type fixedPrompts struct{ text string }

func (f fixedPrompts) Load(_ string) (string, error) { return f.text, nil }
func (f fixedPrompts) Reload()                      {}

func TestClassifier_Classify(t *testing.T) {
	llm := &stubLLM{reply: "```json\n{\"entailment\": 0.92, \"neutral\": 0.06, \"contradiction\": 0.02}\n```"}
	c := NewClassifier(llm)

	scores, err := c.Classify(context.Background(), "A user can log in.", "Users may sign in.")

	require.NoError(t, err)
	assert.InDelta(t, 0.92, scores.Entailment, 1e-9)
	assert.Contains(t, llm.prompt, "Premise: A user can log in.")
	assert.Contains(t, llm.prompt, "Hypothesis: Users may sign in.")
	assert.Equal(t, driven.FormatJSON, llm.opts.Format)
	assert.Zero(t, llm.opts.Temperature)
	assert.Equal(t, "llm:stub", c.ModelName())
}

func TestClassifier_UsesPromptStore(t *testing.T) {
	llm := &stubLLM{reply: `{"entailment": 1.4}`}
	c := NewClassifier(llm)
	c.SetPromptStore(fixedPrompts{text: "P=%s H=%s"})

	scores, err := c.Classify(context.Background(), "50%s off", "b")

	require.NoError(t, err)
	assert.Equal(t, "P=50%s off H=b", llm.prompt)
	assert.Equal(t, 1.0, scores.Entailment)
}

func TestClassifier_Errors(t *testing.T) {
	_, err := NewClassifier(&stubLLM{reply: "I think so"}).Classify(context.Background(), "a", "b")
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = NewClassifier(&stubLLM{err: boom}).Classify(context.Background(), "a", "b")
	assert.ErrorIs(t, err, boom)

	_, err = NewClassifier(nil).Classify(context.Background(), "a", "b")
	assert.ErrorIs(t, err, domain.ErrEntailmentUnavailable)
}

func TestFillTemplate(t *testing.T) {
	assert.Equal(t, "a=1 b=2", fillTemplate("a=%s b=%s", "1", "2"))
	assert.Equal(t, "only 1", fillTemplate("only %s", "1", "2"))
	assert.Equal(t, "x=1 y=2 z=%s", fillTemplate("x=%s y=%s z=%s", "1", "2"))
}
