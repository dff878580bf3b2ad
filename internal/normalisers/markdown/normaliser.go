// Package markdown reduces Markdown requirement documents to plain
// paragraphs, keeping the wording of lists, tables and inline code.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/normalisers/document"
)

var _ driven.Normaliser = (*Normaliser)(nil)

var (
	frontMatterPattern  = regexp.MustCompile(`(?s)\A---[ \t]*\n(.*?)\n---[ \t]*(\n|\z)`)
	fencePattern        = regexp.MustCompile("(?ms)^[ \t]*(```|~~~)[^\n]*\n.*?^[ \t]*(```|~~~)[ \t]*$")
	inlineCodePattern   = regexp.MustCompile("`([^`]+)`")
	imagePattern        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkPattern         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	atxPattern          = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.*?)[ \t#]*$`)
	setextPattern       = regexp.MustCompile(`(?m)^(=+|-{3,})[ \t]*$`)
	boldPattern         = regexp.MustCompile(`\*\*([^*\n]+)\*\*|__([^_\n]+)__`)
	italicPattern       = regexp.MustCompile(`\*([^*\s][^*\n]*)\*|\b_([^_\n]+)_\b`)
	blockquotePattern   = regexp.MustCompile(`(?m)^>[ \t]*`)
	rulePattern         = regexp.MustCompile(`(?m)^[*_]{3,}[ \t]*$`)
	bulletPattern       = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(\[[ xX]\][ \t]+)?`)
	numberedPattern     = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	tableDividerPattern = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?$`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips Markdown syntax. YAML front matter is removed from
// the text and kept under the "front_matter" metadata key; its title
// entry, else the first level-one heading, names the document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := strings.ReplaceAll(document.Decode(raw.Content), "\r\n", "\n")
	front, text := splitFrontMatter(text)

	title, _ := front["title"].(string)
	if title == "" {
		title = headingTitle(text)
	}

	doc := document.New(raw, "markdown", strings.TrimSpace(title), document.Clean(stripMarkdown(text)))
	if len(front) > 0 {
		doc.Metadata["front_matter"] = front
	}
	return doc, nil
}

// splitFrontMatter returns the parsed front matter and the remaining
// text. Front matter that is not a YAML mapping is left in the text.
func splitFrontMatter(text string) (map[string]any, string) {
	m := frontMatterPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, text
	}
	var front map[string]any
	if err := yaml.Unmarshal([]byte(text[m[2]:m[3]]), &front); err != nil {
		return nil, text
	}
	return front, text[m[1]:]
}

// headingTitle finds the first "# Title" or "Title\n=====" heading.
func headingTitle(text string) string {
	lines := strings.Split(fencePattern.ReplaceAllString(text, ""), "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimRight(strings.TrimPrefix(line, "# "), " #")
		}
		if line != "" && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "==") &&
			strings.Trim(strings.TrimSpace(lines[i+1]), "=") == "" {
			return line
		}
	}
	return ""
}

// stripMarkdown removes Markdown syntax and keeps the words. Code blocks
// are dropped; inline code keeps its text because requirements often
// quote identifiers that way. Table rows become tab-separated lines.
func stripMarkdown(text string) string {
	text = fencePattern.ReplaceAllString(text, "")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	text = imagePattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = atxPattern.ReplaceAllString(text, "$1")
	text = setextPattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1$2")
	text = italicPattern.ReplaceAllString(text, "$1$2")
	text = blockquotePattern.ReplaceAllString(text, "")
	text = rulePattern.ReplaceAllString(text, "")
	text = bulletPattern.ReplaceAllString(text, "")
	text = numberedPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(flattenTables(text))
}

// flattenTables turns pipe tables into tab-separated rows and drops
// divider rows.
func flattenTables(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			out = append(out, line)
			continue
		}
		if tableDividerPattern.MatchString(trimmed) {
			continue
		}
		cells := strings.Split(strings.Trim(trimmed, "|"), "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		out = append(out, strings.Join(cells, "\t"))
	}
	return strings.Join(out, "\n")
}
