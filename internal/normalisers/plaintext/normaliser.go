// Package plaintext reads plain text and CSV requirement documents.
// It is the fallback for every text/* type without its own normaliser.
package plaintext

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/normalisers/document"
)

var _ driven.Normaliser = (*Normaliser)(nil)

const mimeCSV = "text/csv"

// Normaliser decodes text in any common encoding.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", mimeCSV}
}

// Priority is the lowest of the built-in normalisers.
func (n *Normaliser) Priority() int {
	return 5
}

// Normalise decodes raw and cleans it into paragraphs. A CSV file becomes
// one paragraph per record with tab-separated fields, so that a row of a
// requirement matrix is never split from its identifier. A "title"
// metadata entry overrides the file-name title.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := document.Decode(raw.Content)
	format := ""
	if raw.MIMEType == mimeCSV {
		rows, err := csvParagraphs(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, raw.URI, err)
		}
		text, format = rows, "csv"
	}

	title, _ := raw.Metadata["title"].(string)
	return document.New(raw, format, title, document.Clean(text)), nil
}

func csvParagraphs(text string) (string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comma = sniffComma(text)

	var rows []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		for i := range record {
			record[i] = strings.Join(strings.Fields(record[i]), " ")
		}
		if row := strings.TrimSpace(strings.Join(record, "\t")); row != "" {
			rows = append(rows, row)
		}
	}
	return strings.Join(rows, "\n\n"), nil
}

// sniffComma picks ';' for exports from locales that use the comma as
// decimal separator.
func sniffComma(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}
