package hf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

func TestClassifier_Classify(t *testing.T) {
	var got classifyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/joeddav/xlm-roberta-large-xnli", r.URL.Path)
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[
			{"label":"entailment","score":0.93},
			{"label":"neutral","score":0.05},
			{"label":"contradiction","score":0.02}
		]`))
	}))
	defer server.Close()

	c := NewClassifier(Config{BaseURL: server.URL + "/models/", APIKey: "hf-token"})
	scores, err := c.Classify(context.Background(), "premise", "hypothesis")

	require.NoError(t, err)
	assert.InDelta(t, 0.93, scores.Entailment, 1e-9)
	assert.InDelta(t, 0.05, scores.Neutral, 1e-9)
	assert.InDelta(t, 0.02, scores.Contradiction, 1e-9)
	assert.Equal(t, "premise", got.Inputs.Text)
	assert.Equal(t, "hypothesis", got.Inputs.TextPair)
	assert.Equal(t, domain.DefaultEntailmentModel, c.ModelName())
}

func TestParseScores_NestedAndIndexedLabels(t *testing.T) {
	scores, err := parseScores([]byte(`[[{"label":"LABEL_2","score":0.8},{"label":"LABEL_0","score":0.2}]]`))

	require.NoError(t, err)
	assert.InDelta(t, 0.8, scores.Entailment, 1e-9)
	assert.InDelta(t, 0.2, scores.Contradiction, 1e-9)
}

func TestParseScores_Errors(t *testing.T) {
	_, err := parseScores([]byte(`{"error":"loading"}`))
	assert.Error(t, err)

	_, err = parseScores([]byte(`[{"label":"neutral","score":1}]`))
	assert.Error(t, err)
}

func TestClassifier_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
	}))
	defer server.Close()

	_, err := NewClassifier(Config{BaseURL: server.URL}).Classify(context.Background(), "a", "b")

	var status *domain.StatusError
	require.ErrorAs(t, err, &status)
	assert.True(t, status.Temporary())
}
