package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrUnreadableDocument", ErrUnreadableDocument},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrEntailmentUnavailable", ErrEntailmentUnavailable},
		{"ErrInvalidTransition", ErrInvalidTransition},
		{"ErrCircuitOpen", ErrCircuitOpen},
		{"ErrRateLimited", ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestCategory_IsValid(t *testing.T) {
	assert.True(t, CategoryFunctional.IsValid())
	assert.True(t, CategoryNonFunctional.IsValid())
	assert.False(t, Category("").IsValid())
	assert.False(t, Category("performance").IsValid())
}

func TestCategory_Label(t *testing.T) {
	assert.Equal(t, "Functional Requirements", CategoryFunctional.Label())
	assert.Equal(t, "Non-Functional Requirements", CategoryNonFunctional.Label())
	assert.Equal(t, "Unknown", Category("x").Label())
}

func TestRequirementList_AppendAndItems(t *testing.T) {
	var list RequirementList
	list.Append(
		Requirement{Text: "a", Category: CategoryFunctional},
		Requirement{Text: "b", Category: CategoryNonFunctional},
		Requirement{Text: "c", Category: CategoryFunctional},
		Requirement{Text: "dropped", Category: Category("other")},
	)

	assert.Equal(t, 3, list.Len())
	assert.Equal(t, []string{"a", "c"}, list.Texts(CategoryFunctional))
	assert.Equal(t, []string{"b"}, list.Texts(CategoryNonFunctional))

	list.Set(CategoryFunctional, nil)
	assert.Empty(t, list.Items(CategoryFunctional))
	assert.Nil(t, list.Items(Category("other")))
}

func TestExtractionReport_FailedIndices(t *testing.T) {
	report := &ExtractionReport{
		Failures: []UnitFailure{{Index: 4}, {Index: 1}},
	}
	assert.True(t, report.HasFailures())
	assert.Equal(t, []int{1, 4}, report.FailedIndices())

	assert.False(t, (&ExtractionReport{}).HasFailures())
}

func TestDedupPhase_Advance(t *testing.T) {
	phase := PhaseIdle
	for _, next := range []DedupPhase{
		PhaseEmbeddingComputed,
		PhaseCandidatesGenerated,
		PhasePairsVerified,
		PhaseFinalized,
	} {
		require.NoError(t, phase.Advance(next))
		assert.Equal(t, next, phase)
	}

	err := phase.Advance(PhaseFinalized + 1)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestDedupPhase_RejectsSkipAndRewind(t *testing.T) {
	phase := PhaseIdle
	err := phase.Advance(PhasePairsVerified)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, PhaseIdle, phase)

	phase = PhaseCandidatesGenerated
	err = phase.Advance(PhaseEmbeddingComputed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestDedupStats_Add(t *testing.T) {
	s := DedupStats{Total: 2, Confirmed: 1}
	s.Add(DedupStats{Total: 3, Candidates: 4, ClassificationFailures: 1})
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 4, s.Candidates)
	assert.Equal(t, 1, s.Confirmed)
	assert.Equal(t, 1, s.ClassificationFailures)
}

func TestAppSettings_Defaults(t *testing.T) {
	s := DefaultAppSettings()
	require.NoError(t, s.Validate())

	assert.Equal(t, 1500, s.Chunker.MaxSize)
	assert.Equal(t, 2, s.Extraction.Concurrency)
	assert.InDelta(t, 0.6, s.Dedup.CandidateThreshold, 1e-9)
	assert.InDelta(t, 0.9, s.Dedup.ConfirmationThreshold, 1e-9)
	assert.True(t, s.LLM.IsConfigured())
	assert.True(t, s.Embedding.IsConfigured())
	assert.True(t, s.Entailment.IsConfigured())
	assert.Equal(t, CacheBackendFile, s.Cache.Backend)
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"zero max size", func(s *AppSettings) { s.Chunker.MaxSize = 0 }},
		{"zero concurrency", func(s *AppSettings) { s.Extraction.Concurrency = 0 }},
		{"zero dedup concurrency", func(s *AppSettings) { s.Dedup.Concurrency = 0 }},
		{"candidate above one", func(s *AppSettings) { s.Dedup.CandidateThreshold = 1.5 }},
		{"confirmation below zero", func(s *AppSettings) { s.Dedup.ConfirmationThreshold = -0.1 }},
		{"negative rate", func(s *AppSettings) { s.Extraction.RatePerMinute = -1 }},
		{"unknown backend", func(s *AppSettings) { s.Cache.Backend = "redis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
}

func TestEmbeddingSettings_RejectsAnthropic(t *testing.T) {
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestEntailmentSettings_IsConfigured(t *testing.T) {
	assert.False(t, EntailmentSettings{}.IsConfigured())
	assert.False(t, EntailmentSettings{Provider: EntailmentProviderHTTP}.IsConfigured())
	assert.True(t, EntailmentSettings{Provider: EntailmentProviderHTTP, BaseURL: "http://x"}.IsConfigured())
	assert.True(t, EntailmentSettings{Provider: EntailmentProviderLLM}.IsConfigured())
}

func TestReportFormat_IsValid(t *testing.T) {
	assert.True(t, ReportFormatText.IsValid())
	assert.True(t, ReportFormatJSON.IsValid())
	assert.True(t, ReportFormatYAML.IsValid())
	assert.False(t, ReportFormat("xml").IsValid())
}

func TestAIProvider_Traits(t *testing.T) {
	tests := []struct {
		p                      AIProvider
		valid, local, key, emb bool
		desc                   string
	}{
		{AIProviderOllama, true, true, false, true, "Ollama (local)"},
		{AIProviderOpenAI, true, false, true, true, "OpenAI (cloud)"},
		{AIProviderAnthropic, true, false, true, false, "Anthropic (cloud)"},
		{"mistral", false, false, false, false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(string(tt.p), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.p.IsValid())
			assert.Equal(t, tt.local, tt.p.IsLocal())
			assert.Equal(t, tt.key, tt.p.RequiresAPIKey())
			assert.Equal(t, tt.emb, tt.p.SupportsEmbeddings())
			assert.Equal(t, tt.desc, tt.p.Description())
		})
	}
}

func TestProviderLists(t *testing.T) {
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic}, AllLLMProviders())
	assert.Equal(t, []AIProvider{AIProviderOllama, AIProviderOpenAI}, AllEmbeddingProviders())
	assert.NotContains(t, DefaultEmbeddingModels(), AIProviderAnthropic)
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
}
