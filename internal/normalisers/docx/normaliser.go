// Package docx extracts paragraphs and tables from WordprocessingML.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/normalisers/document"
)

var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts a DOCX document to a normalised document.
// Paragraphs become blank-line separated blocks; each table becomes one
// block with a line per row and tab-separated cells. Core properties
// give the title and, when present, the author and modification time.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	archive, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", domain.ErrInvalidInput, err)
	}

	part, err := archive.Open(documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s missing", domain.ErrInvalidInput, documentPart)
	}
	defer part.Close()

	text, err := parseDocumentXML(part)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, documentPart, err)
	}

	props := readCoreProperties(archive)
	doc := document.New(raw, "docx", props.Title, document.Clean(text))
	if props.Creator != "" {
		doc.Metadata["author"] = props.Creator
	}
	if props.Modified != "" {
		doc.Metadata["modified"] = props.Modified
	}
	return doc, nil
}

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// bodyWalker accumulates document text while streaming WordprocessingML.
type bodyWalker struct {
	blocks     []string
	para       strings.Builder
	cellParts  []string
	row        []string
	rows       []string
	tableDepth int
	runDepth   int
	inText     bool
}

// parseDocumentXML streams the body so paragraphs and tables keep their order.
func parseDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	w := &bodyWalker{}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			w.start(t.Name.Local)
		case xml.EndElement:
			w.end(t.Name.Local)
		case xml.CharData:
			if w.inText {
				w.para.Write(t)
			}
		}
	}

	return strings.Join(w.blocks, "\n\n"), nil
}

func (w *bodyWalker) start(name string) {
	switch name {
	case "r":
		w.runDepth++
	case "t":
		w.inText = true
	case "tab":
		if w.runDepth > 0 {
			w.para.WriteString(w.separator("\t"))
		}
	case "br", "cr":
		if w.runDepth > 0 {
			w.para.WriteString(w.separator("\n"))
		}
	case "tbl":
		w.tableDepth++
		if w.tableDepth == 1 {
			w.rows = nil
		}
	case "tr":
		if w.tableDepth == 1 {
			w.row = nil
		}
	case "tc":
		if w.tableDepth == 1 {
			w.cellParts = nil
		}
	}
}

func (w *bodyWalker) end(name string) {
	switch name {
	case "r":
		w.runDepth--
	case "t":
		w.inText = false
	case "p":
		text := strings.TrimSpace(w.para.String())
		w.para.Reset()
		if text == "" {
			return
		}
		if w.tableDepth > 0 {
			w.cellParts = append(w.cellParts, text)
		} else {
			w.blocks = append(w.blocks, text)
		}
	case "tc":
		if w.tableDepth == 1 {
			w.row = append(w.row, strings.Join(w.cellParts, " "))
			w.cellParts = nil
		}
	case "tr":
		if w.tableDepth == 1 && strings.TrimSpace(strings.Join(w.row, "")) != "" {
			w.rows = append(w.rows, strings.Join(w.row, "\t"))
		}
	case "tbl":
		w.tableDepth--
		if w.tableDepth == 0 && len(w.rows) > 0 {
			w.blocks = append(w.blocks, strings.Join(w.rows, "\n"))
			w.rows = nil
		}
	}
}

// separator keeps table cells on one line.
func (w *bodyWalker) separator(s string) string {
	if w.tableDepth > 0 {
		return " "
	}
	return s
}

// coreProperties holds the Dublin Core fields of docProps/core.xml.
type coreProperties struct {
	Title    string `xml:"title"`
	Creator  string `xml:"creator"`
	Modified string `xml:"modified"`
}

// readCoreProperties returns the trimmed core properties, or zero values
// when the part is missing or unreadable.
func readCoreProperties(fsys fs.FS) coreProperties {
	var props coreProperties
	data, err := fs.ReadFile(fsys, corePart)
	if err != nil || xml.Unmarshal(data, &props) != nil {
		return coreProperties{}
	}
	props.Title = strings.TrimSpace(props.Title)
	props.Creator = strings.TrimSpace(props.Creator)
	props.Modified = strings.TrimSpace(props.Modified)
	return props
}
