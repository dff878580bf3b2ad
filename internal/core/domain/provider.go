package domain

// AIProvider names a service that generates text, embeds it, or both.
type AIProvider string

const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerTraits struct {
	description string
	local       bool
	embeds      bool
	llmModel    string
	embedModel  string
}

// aiProviders is ordered as the settings prompts list them.
var aiProviders = []struct {
	id AIProvider
	providerTraits
}{
	{AIProviderOllama, providerTraits{"Ollama (local)", true, true, "llama3.2", "paraphrase-multilingual"}},
	{AIProviderOpenAI, providerTraits{"OpenAI (cloud)", false, true, "gpt-4o-mini", "text-embedding-3-small"}},
	{AIProviderAnthropic, providerTraits{"Anthropic (cloud)", false, false, "claude-3-5-sonnet-latest", ""}},
}

func (p AIProvider) traits() (providerTraits, bool) {
	for _, e := range aiProviders {
		if e.id == p {
			return e.providerTraits, true
		}
	}
	return providerTraits{}, false
}

func (p AIProvider) IsValid() bool {
	_, ok := p.traits()
	return ok
}

// IsLocal reports a provider served from this machine. Local providers
// need a base URL and no API key.
func (p AIProvider) IsLocal() bool {
	t, _ := p.traits()
	return t.local
}

func (p AIProvider) RequiresAPIKey() bool {
	return p.IsValid() && !p.IsLocal()
}

func (p AIProvider) SupportsEmbeddings() bool {
	t, _ := p.traits()
	return t.embeds
}

func (p AIProvider) String() string {
	return string(p)
}

func (p AIProvider) Description() string {
	if t, ok := p.traits(); ok {
		return t.description
	}
	return unknownDescription
}

// AllLLMProviders returns every provider, in prompt order.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, 0, len(aiProviders))
	for _, e := range aiProviders {
		out = append(out, e.id)
	}
	return out
}

// AllEmbeddingProviders returns the providers with an embedding API.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, e := range aiProviders {
		if e.embeds {
			out = append(out, e.id)
		}
	}
	return out
}

func DefaultLLMModels() map[AIProvider]string {
	out := make(map[AIProvider]string, len(aiProviders))
	for _, e := range aiProviders {
		out[e.id] = e.llmModel
	}
	return out
}

func DefaultEmbeddingModels() map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, e := range aiProviders {
		if e.embeds {
			out[e.id] = e.embedModel
		}
	}
	return out
}

// EntailmentProvider names the NLI classifier backend.
type EntailmentProvider string

const (
	// EntailmentProviderHTTP posts pairs to a text-classification
	// endpoint that speaks the Hugging Face inference protocol.
	EntailmentProviderHTTP EntailmentProvider = "http"

	// EntailmentProviderLLM prompts the generation model for label
	// probabilities.
	EntailmentProviderLLM EntailmentProvider = "llm"
)

// DefaultEntailmentModel is a multilingual NLI model, so French and
// English specifications dedup alike.
const DefaultEntailmentModel = "joeddav/xlm-roberta-large-xnli"

const unknownDescription = "Unknown"

func (p EntailmentProvider) IsValid() bool {
	return p == EntailmentProviderHTTP || p == EntailmentProviderLLM
}

func (p EntailmentProvider) String() string {
	return string(p)
}

func (p EntailmentProvider) Description() string {
	switch p {
	case EntailmentProviderHTTP:
		return "NLI model over HTTP"
	case EntailmentProviderLLM:
		return "LLM judge"
	}
	return unknownDescription
}

func AllEntailmentProviders() []EntailmentProvider {
	return []EntailmentProvider{EntailmentProviderHTTP, EntailmentProviderLLM}
}
