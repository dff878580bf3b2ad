package driven

// Names of the prompt templates the pipeline loads.
const (
	// PromptExtractRequirements formats one unit (a single %s) into a
	// request for the two-section numbered requirement list.
	PromptExtractRequirements = "extract_requirements"

	// PromptEntailmentJudge formats premise then hypothesis (two %s)
	// into a request for NLI label probabilities as JSON.
	PromptEntailmentJudge = "entailment_judge"
)

// PromptStore resolves template names to text. Implementations cache
// templates until Reload.
type PromptStore interface {
	Load(name string) (string, error)
	Reload()
}

// PromptStoreAware is implemented by adapters whose prompts can be
// overridden. Without a store they use built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
