package domain

// Category classifies a requirement.
type Category string

// Requirement categories. The set is closed.
const (
	// CategoryFunctional covers behaviour the system must exhibit.
	CategoryFunctional Category = "functional"

	// CategoryNonFunctional covers qualities such as performance or security.
	CategoryNonFunctional Category = "non-functional"
)

// AllCategories returns the categories in output order.
func AllCategories() []Category {
	return []Category{CategoryFunctional, CategoryNonFunctional}
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFunctional, CategoryNonFunctional:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// Label returns the section heading used in the output artifact.
func (c Category) Label() string {
	switch c {
	case CategoryFunctional:
		return "Functional Requirements"
	case CategoryNonFunctional:
		return "Non-Functional Requirements"
	default:
		return unknownDescription
	}
}

// Requirement is one atomic requirement statement.
type Requirement struct {
	// Text is the statement with line breaks collapsed.
	Text string `json:"text" yaml:"text"`

	// Category is the requirement kind.
	Category Category `json:"category" yaml:"category"`

	// Origin is the index of the unit the requirement was extracted from.
	// Requirements read back from a rendered file carry NoOrigin.
	Origin int `json:"origin" yaml:"origin"`
}

// RequirementList holds requirements grouped by category.
// Within a category the order is document order.
type RequirementList struct {
	Functional    []Requirement `json:"functional" yaml:"functional"`
	NonFunctional []Requirement `json:"non_functional" yaml:"non_functional"`
}

// Items returns the requirements of one category.
func (l *RequirementList) Items(c Category) []Requirement {
	switch c {
	case CategoryFunctional:
		return l.Functional
	case CategoryNonFunctional:
		return l.NonFunctional
	default:
		return nil
	}
}

// Set replaces the requirements of one category.
func (l *RequirementList) Set(c Category, items []Requirement) {
	switch c {
	case CategoryFunctional:
		l.Functional = items
	case CategoryNonFunctional:
		l.NonFunctional = items
	}
}

// Append adds requirements to the end of their category.
// Items with an unknown category are dropped.
func (l *RequirementList) Append(items ...Requirement) {
	for _, r := range items {
		switch r.Category {
		case CategoryFunctional:
			l.Functional = append(l.Functional, r)
		case CategoryNonFunctional:
			l.NonFunctional = append(l.NonFunctional, r)
		}
	}
}

// Len returns the total number of requirements.
func (l *RequirementList) Len() int {
	return len(l.Functional) + len(l.NonFunctional)
}

// Texts returns the statement texts of one category.
func (l *RequirementList) Texts(c Category) []string {
	items := l.Items(c)
	texts := make([]string, len(items))
	for i, r := range items {
		texts[i] = r.Text
	}
	return texts
}

// NoOrigin marks requirements read from a rendered list rather than a unit.
const NoOrigin = -1
