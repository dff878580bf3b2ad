package driven

import "github.com/custodia-labs/reqdistill/internal/core/domain"

// UnitSplitter cuts document text into bounded units.
type UnitSplitter interface {
	// Split returns units with contiguous indices starting at 0.
	Split(text string) []domain.Unit
}

// ListCodec converts between generation output, requirement lists and
// the rendered text artifact.
type ListCodec interface {
	// Parse extracts the requirements of one text, tagging them with origin.
	Parse(text string, origin int) domain.RequirementList

	// Merge parses results in order and concatenates them per category.
	Merge(results []string) domain.RequirementList

	// Render produces the numbered two-section text artifact.
	Render(list domain.RequirementList) string
}
