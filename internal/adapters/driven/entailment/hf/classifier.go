// Package hf provides an entailment classifier backed by a Hugging Face
// style text-classification HTTP endpoint.
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure Classifier implements the interface.
var _ driven.EntailmentClassifier = (*Classifier)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api-inference.huggingface.co/models"
	DefaultTimeout = 60 * time.Second
)

// Config holds configuration for the HTTP classifier.
type Config struct {
	// BaseURL is the inference endpoint. The model name is appended as a
	// path segment when Model is set.
	BaseURL string

	// Model is the NLI model, e.g. joeddav/xlm-roberta-large-xnli.
	Model string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Classifier scores premise/hypothesis pairs over HTTP.
type Classifier struct {
	client   *http.Client
	endpoint string
	model    string
	apiKey   string
}

// classifyRequest is the text-classification request for a sentence pair.
type classifyRequest struct {
	Inputs     pairInput      `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    map[string]any `json:"options,omitempty"`
}

type pairInput struct {
	Text     string `json:"text"`
	TextPair string `json:"text_pair"`
}

// labelScore is one entry of the response distribution.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NewClassifier creates an HTTP entailment classifier.
func NewClassifier(cfg Config) *Classifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = domain.DefaultEntailmentModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	endpoint := strings.TrimRight(cfg.BaseURL, "/") + "/" + strings.TrimLeft(cfg.Model, "/")

	return &Classifier{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
	}
}

// Classify returns the label distribution for (premise, hypothesis).
func (c *Classifier) Classify(ctx context.Context, premise, hypothesis string) (domain.NLIScores, error) {
	body, err := json.Marshal(classifyRequest{
		Inputs:     pairInput{Text: premise, TextPair: hypothesis},
		Parameters: map[string]any{"top_k": 3},
		Options:    map[string]any{"wait_for_model": true},
	})
	if err != nil {
		return domain.NLIScores{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.NLIScores{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.NLIScores{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NLIScores{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.NLIScores{}, &domain.StatusError{
			Service: "entailment", Code: resp.StatusCode, Body: strings.TrimSpace(string(raw)),
		}
	}

	return parseScores(raw)
}

// parseScores accepts a flat list of label scores or the same list
// nested one level, as returned for batched inputs.
func parseScores(raw []byte) (domain.NLIScores, error) {
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		var nested [][]labelScore
		if err := json.Unmarshal(raw, &nested); err != nil || len(nested) == 0 {
			return domain.NLIScores{}, fmt.Errorf("decode response: unexpected shape: %.200s", raw)
		}
		flat = nested[0]
	}

	var scores domain.NLIScores
	var found bool
	for _, ls := range flat {
		switch strings.ToLower(ls.Label) {
		case "entailment", "label_2":
			scores.Entailment = ls.Score
			found = true
		case "neutral", "label_1":
			scores.Neutral = ls.Score
		case "contradiction", "label_0":
			scores.Contradiction = ls.Score
		}
	}
	if !found {
		return domain.NLIScores{}, fmt.Errorf("decode response: no entailment label in %.200s", raw)
	}
	return scores, nil
}

// ModelName returns the NLI model name.
func (c *Classifier) ModelName() string {
	return c.model
}
