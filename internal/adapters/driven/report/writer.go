// Package report encodes requirement lists and writes output artifacts.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.ReportWriter = (*Writer)(nil)

// Writer encodes lists as text, JSON or YAML and writes files atomically.
type Writer struct {
	codec driven.ListCodec
}

// NewWriter creates a report writer. The codec renders the text format.
func NewWriter(codec driven.ListCodec) *Writer {
	return &Writer{codec: codec}
}

// Encode renders list in the given format.
func (w *Writer) Encode(format domain.ReportFormat, list domain.RequirementList) ([]byte, error) {
	normalised := withEmptySections(list)

	switch format {
	case domain.ReportFormatText, "":
		if w.codec == nil {
			return nil, fmt.Errorf("%w: no text codec configured", domain.ErrUnsupportedType)
		}
		return []byte(w.codec.Render(normalised)), nil

	case domain.ReportFormatJSON:
		data, err := json.MarshalIndent(normalised, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil

	case domain.ReportFormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(normalised); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("%w: report format %q", domain.ErrUnsupportedType, format)
	}
}

// withEmptySections makes missing sections encode as [] rather than null.
func withEmptySections(list domain.RequirementList) domain.RequirementList {
	if list.Functional == nil {
		list.Functional = []domain.Requirement{}
	}
	if list.NonFunctional == nil {
		list.NonFunctional = []domain.Requirement{}
	}
	return list
}

// WriteFile stores data at path, replacing any existing file.
// Data goes to a temporary file in the same directory first, so readers
// never observe a partial report.
func (w *Writer) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
