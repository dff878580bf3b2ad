// Package document holds what every normaliser shares: decoding source
// bytes, cleaning extracted text into blank-line separated paragraphs,
// and building the domain.Document envelope.
package document

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// New wraps extracted content. An empty title falls back to one derived
// from the file name. Metadata is copied from raw and gains mime_type,
// format when given, and the character count.
func New(raw *domain.RawDocument, format, title, content string) *domain.Document {
	if title == "" {
		title = TitleFromURI(raw.URI)
	}

	meta := make(map[string]any, len(raw.Metadata)+3)
	for k, v := range raw.Metadata {
		meta[k] = v
	}
	meta["mime_type"] = raw.MIMEType
	if format != "" {
		meta["format"] = format
	}
	meta["characters"] = utf8.RuneCountInString(content)

	return &domain.Document{
		ID:       uuid.New().String(),
		URI:      raw.URI,
		Title:    title,
		Content:  content,
		Metadata: meta,
	}
}

// TitleFromURI turns "specs/cahier_des-charges.v2.txt" into
// "cahier des charges.v2".
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// Decode returns b as UTF-8. A UTF-8 or UTF-16 byte order mark selects
// the encoding and is dropped; bytes that are not valid UTF-8 are read
// as Windows-1252, the usual encoding of legacy office exports.
func Decode(b []byte) string {
	out, _, err := transform.Bytes(xunicode.BOMOverride(encoding.Nop.NewDecoder()), b)
	if err != nil {
		out = b
	}
	if utf8.Valid(out) {
		return string(out)
	}
	if latin, err := charmap.Windows1252.NewDecoder().Bytes(out); err == nil {
		return string(latin)
	}
	return strings.ToValidUTF8(string(out), "�")
}

// Clean normalises extracted text. Line endings become \n, form feeds
// (page breaks) become paragraph breaks, and control characters other
// than tab are dropped. Trailing blanks are trimmed from each line,
// runs of blank lines are collapsed to one, and the text is put in NFC
// so that the same words always hash the same.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			return r
		}
		return -1
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\u00a0")
	}
	s = strings.Join(lines, "\n")

	s = blankRun.ReplaceAllString(s, "\n\n")
	return norm.NFC.String(strings.TrimSpace(s))
}
