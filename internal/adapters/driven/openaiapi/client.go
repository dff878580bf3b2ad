// Package openaiapi builds go-openai clients for the OpenAI generation and
// embedding adapters and maps their errors onto domain errors.
package openaiapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// DefaultBaseURL is the public OpenAI endpoint. Compatible servers
// (Azure, vLLM, LM Studio) are reached by overriding it.
const DefaultBaseURL = "https://api.openai.com/v1"

// ErrMissingKey is returned when no API key is configured.
var ErrMissingKey = errors.New("openai: API key is required")

// NewClient returns a client for baseURL, or DefaultBaseURL when empty.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*openai.Client, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{Timeout: timeout}
	return openai.NewClientWithConfig(config), nil
}

// MapError turns go-openai API and transport errors into
// *domain.StatusError so that retries can classify them.
func MapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.StatusError{Service: "openai", Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.StatusError{Service: "openai", Code: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return fmt.Errorf("openai: %w", err)
}
