// Package html keeps the readable text of HTML pages. Block elements
// become paragraphs and table rows become tab-separated lines.
package html

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/normalisers/document"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML and XHTML documents.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise decodes the page in its declared charset and extracts the
// text of the body. The <title> element names the document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r, err := charset.NewReader(bytes.NewReader(raw.Content), raw.MIMEType)
	if err != nil {
		r = strings.NewReader(document.Decode(raw.Content))
	}
	title, text := extract(r)
	return document.New(raw, "html", title, document.Clean(text)), nil
}

// skipped elements contribute no text.
var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true,
	atom.Svg: true, atom.Template: true, atom.Iframe: true, atom.Object: true,
}

// blocks start and end a paragraph.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Main: true, atom.Aside: true, atom.Nav: true, atom.Figure: true,
	atom.Figcaption: true, atom.Details: true, atom.Summary: true, atom.Address: true,
	atom.Table: true, atom.Hr: true,
}

// extractor accumulates text while streaming tokens.
type extractor struct {
	text      strings.Builder
	title     strings.Builder
	inHead    bool
	inTitle   bool
	titleDone bool
	skip      int
	pre       int
	cell      int
}

// extract returns the page title and its text. Lines of the text are
// trimmed; table cells on a line are separated by tabs.
func extract(r io.Reader) (title, text string) {
	z := html.NewTokenizer(r)
	e := &extractor{}
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(e.title.String()), " "), tidy(e.text.String())
		case html.TextToken:
			e.onText(string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			e.onStart(atom.Lookup(name), tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			name, _ := z.TagName()
			e.onEnd(atom.Lookup(name))
		}
	}
}

func (e *extractor) onText(s string) {
	switch {
	case e.inTitle:
		e.title.WriteString(s)
	case e.skip > 0 || e.inHead:
	case e.pre > 0:
		e.text.WriteString(s)
	default:
		e.text.WriteString(collapse(s))
	}
}

func (e *extractor) onStart(a atom.Atom, selfClosing bool) {
	switch {
	case a == atom.Title && !e.titleDone && e.skip == 0:
		e.inTitle = !selfClosing
		return
	case a == atom.Head:
		e.inHead = true
		return
	case a == atom.Body:
		// A missing </head> must not hide the body.
		e.inHead = false
		e.skip = 0
		return
	case skipped[a]:
		if !selfClosing {
			e.skip++
		}
		return
	case e.skip > 0 || e.inHead:
		return
	}

	switch a {
	case atom.Br:
		e.breakLine("\n")
	case atom.Td, atom.Th:
		e.cell++
	case atom.Pre:
		e.pre++
		e.breakLine("\n\n")
	default:
		if blocks[a] {
			e.breakLine("\n\n")
		}
	}
}

func (e *extractor) onEnd(a atom.Atom) {
	switch {
	case a == atom.Title && e.inTitle:
		e.inTitle, e.titleDone = false, true
		return
	case a == atom.Head:
		e.inHead = false
		return
	case skipped[a]:
		if e.skip > 0 {
			e.skip--
		}
		return
	case e.skip > 0 || e.inHead:
		return
	}

	switch a {
	case atom.Td, atom.Th:
		if e.cell > 0 {
			e.cell--
		}
		e.text.WriteString("\t")
	case atom.Tr:
		e.text.WriteString("\n")
	case atom.Pre:
		if e.pre > 0 {
			e.pre--
		}
		e.breakLine("\n\n")
	default:
		if blocks[a] {
			e.breakLine("\n\n")
		}
	}
}

// breakLine writes sep, or a space inside a table cell so that a row
// stays on one line.
func (e *extractor) breakLine(sep string) {
	if e.cell > 0 {
		sep = " "
	}
	e.text.WriteString(sep)
}

// collapse turns whitespace runs, including non-breaking spaces, into
// one space and keeps a leading or trailing one.
func collapse(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if unicode.IsSpace([]rune(s)[0]) {
		out = " " + out
	}
	if r := []rune(s); unicode.IsSpace(r[len(r)-1]) {
		out += " "
	}
	return out
}

// tidy trims every line and collapses the spaces of every
// tab-separated cell on it.
func tidy(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		cells := strings.Split(line, "\t")
		for j := range cells {
			cells[j] = strings.Join(strings.Fields(cells[j]), " ")
		}
		lines[i] = strings.TrimSpace(strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}
