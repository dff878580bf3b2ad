package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

// messagesServer records the request body and answers with text.
func messagesServer(t *testing.T, text string) (*LLMService, map[string]any) {
	t.Helper()
	body := map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		reply, _ := json.Marshal(text)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-5-sonnet-latest",
			"content": [{"type": "text", "text": ` + string(reply) + `}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 5}
		}`))
	}))
	t.Cleanup(server.Close)

	svc, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)
	return svc, body
}

func TestLLMService_GenerateWithSystem(t *testing.T) {
	svc, body := messagesServer(t, "Non-Functional Requirements:\n1. Fast")

	out, err := svc.Generate(context.Background(), "text", driven.GenerateOptions{
		System:    "You extract requirements.",
		MaxTokens: 64,
	})

	require.NoError(t, err)
	assert.Equal(t, "Non-Functional Requirements:\n1. Fast", out)
	assert.NotNil(t, body["system"])
	assert.EqualValues(t, 64, body["max_tokens"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 1)
}

func TestLLMService_GenerateJSONPrefills(t *testing.T) {
	svc, body := messagesServer(t, `"entailment": 0.95, "neutral": 0.05, "contradiction": 0}`)

	out, err := svc.Generate(context.Background(), "pair", driven.GenerateOptions{Format: driven.FormatJSON})

	require.NoError(t, err)
	assert.JSONEq(t, `{"entailment":0.95,"neutral":0.05,"contradiction":0}`, out)
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])
	assert.Nil(t, body["system"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	last, ok := messages[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "assistant", last["role"])
}

func TestLLMService_ErrorMapsToStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	svc, err := NewLLMService(Config{APIKey: "sk-ant", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "text", driven.GenerateOptions{})

	var status *domain.StatusError
	require.ErrorAs(t, err, &status)
	assert.Equal(t, http.StatusServiceUnavailable, status.Code)
	assert.True(t, status.Temporary())
}

func TestLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(Config{APIKey: "sk-ant"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.NoError(t, svc.Close())
}
