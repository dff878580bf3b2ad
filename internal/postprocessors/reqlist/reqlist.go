// Package reqlist parses generation output into categorised requirement
// lists, merges the lists of many units and renders the final artifact.
package reqlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// label matches a category name. Submatch 1 or 2 is set for the
// non-functional category.
const label = `(?:exigences?[ \t]+(non[ \t-]*)?fonctionnelles?|(non[ \t-]*)?functional[ \t]+requirements?)`

var (
	// headerLine is a line holding only a label, with optional markdown
	// decoration, a leading list number or roman numeral and a colon.
	headerLine = regexp.MustCompile(
		`(?i)^[ \t#*_>-]*(?:(?:\d+|[ivxlc]+)[.)][ \t#*_]*)?` + label + `[ \t*_]*:?[ \t*_]*$`,
	)
	// leadIn is a sentence ending with a label and a colon, as in
	// "Voici les exigences fonctionnelles :".
	leadIn = regexp.MustCompile(`(?i)^(?:.*?[ \t*_])?` + label + `[ \t*_]*:[ \t*_]*$`)
)

// itemMarker matches a line-leading list number such as "3." or "3)".
var itemMarker = regexp.MustCompile(`(?m)^[ \t*_-]*\d+[.)](?:[ \t]+|$)`)

// headerCategory reports the category a header line opens.
func headerCategory(line string) (domain.Category, bool) {
	line = strings.TrimRight(line, "\r")
	m := headerLine.FindStringSubmatch(line)
	if m == nil {
		if m = leadIn.FindStringSubmatch(line); m == nil {
			return "", false
		}
	}
	if m[1] != "" || m[2] != "" {
		return domain.CategoryNonFunctional, true
	}
	return domain.CategoryFunctional, true
}

// Parse extracts the requirements of one generation result.
// A result without any category header yields an empty list.
func Parse(result string, origin int) domain.RequirementList {
	var (
		list     domain.RequirementList
		category domain.Category
		block    strings.Builder
	)

	flush := func() {
		if category != "" {
			for _, text := range splitItems(block.String()) {
				list.Append(domain.Requirement{
					Text:     text,
					Category: category,
					Origin:   origin,
				})
			}
		}
		block.Reset()
	}

	for _, line := range strings.Split(result, "\n") {
		if c, ok := headerCategory(line); ok {
			flush()
			category = c
			continue
		}
		block.WriteString(line)
		block.WriteByte('\n')
	}
	flush()

	return list
}

// splitItems returns the cleaned numbered items of a block.
// Text before the first number is discarded.
func splitItems(block string) []string {
	markers := itemMarker.FindAllStringIndex(block, -1)
	items := make([]string, 0, len(markers))
	for i, m := range markers {
		end := len(block)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		if text := clean(block[m[1]:end]); text != "" {
			items = append(items, text)
		}
	}
	return items
}

// clean strips emphasis markup and collapses whitespace.
func clean(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " *_-")
}

// Merge parses every result in unit order and concatenates the lists.
// Failed results contribute nothing.
func Merge(results []string) domain.RequirementList {
	var merged domain.RequirementList
	for i, result := range results {
		if result == domain.FailedResult {
			continue
		}
		parsed := Parse(result, i)
		merged.Append(parsed.Functional...)
		merged.Append(parsed.NonFunctional...)
	}
	return merged
}

// Render produces the output artifact: one numbered section per
// category, numbering restarting at 1 in each.
func Render(list domain.RequirementList) string {
	var b strings.Builder
	for i, category := range domain.AllCategories() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(category.Label())
		b.WriteString(":\n")
		for n, r := range list.Items(category) {
			b.WriteString(strconv.Itoa(n + 1))
			b.WriteString(". ")
			b.WriteString(r.Text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Codec exposes the package functions as a driven.ListCodec.
type Codec struct{}

// Ensure Codec implements the interface.
var _ driven.ListCodec = Codec{}

// Parse implements driven.ListCodec.
func (Codec) Parse(text string, origin int) domain.RequirementList {
	return Parse(text, origin)
}

// Merge implements driven.ListCodec.
func (Codec) Merge(results []string) domain.RequirementList {
	return Merge(results)
}

// Render implements driven.ListCodec.
func (Codec) Render(list domain.RequirementList) string {
	return Render(list)
}
