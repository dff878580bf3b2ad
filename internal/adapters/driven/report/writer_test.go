package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/postprocessors/reqlist"
)

func sampleList() domain.RequirementList {
	return domain.RequirementList{
		Functional: []domain.Requirement{
			{Text: "Users can log in.", Category: domain.CategoryFunctional, Origin: 0},
			{Text: "Users can export reports.", Category: domain.CategoryFunctional, Origin: 1},
		},
		NonFunctional: []domain.Requirement{
			{Text: "Pages load in under 2 seconds.", Category: domain.CategoryNonFunctional, Origin: 1},
		},
	}
}

func TestEncode_Text(t *testing.T) {
	w := NewWriter(reqlist.Codec{})

	data, err := w.Encode(domain.ReportFormatText, sampleList())

	require.NoError(t, err)
	assert.Equal(t, "Functional Requirements:\n1. Users can log in.\n2. Users can export reports.\n\n"+
		"Non-Functional Requirements:\n1. Pages load in under 2 seconds.\n", string(data))
}

func TestEncode_TextWithoutCodec(t *testing.T) {
	_, err := NewWriter(nil).Encode(domain.ReportFormatText, sampleList())

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestEncode_JSON(t *testing.T) {
	data, err := NewWriter(nil).Encode(domain.ReportFormatJSON, sampleList())
	require.NoError(t, err)

	var decoded domain.RequirementList
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, sampleList(), decoded)
	assert.Contains(t, string(data), `"non_functional"`)
	assert.Contains(t, string(data), `"category": "functional"`)
}

func TestEncode_YAML(t *testing.T) {
	data, err := NewWriter(nil).Encode(domain.ReportFormatYAML, sampleList())
	require.NoError(t, err)

	var decoded domain.RequirementList
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, sampleList(), decoded)
	assert.Contains(t, string(data), "non_functional:")
}

func TestEncode_EmptySectionsAreLists(t *testing.T) {
	w := NewWriter(nil)

	data, err := w.Encode(domain.ReportFormatJSON, domain.RequirementList{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"functional": [], "non_functional": []}`, string(data))

	data, err = w.Encode(domain.ReportFormatYAML, domain.RequirementList{})
	require.NoError(t, err)
	assert.Equal(t, "functional: []\nnon_functional: []\n", string(data))
}

func TestEncode_UnknownFormat(t *testing.T) {
	_, err := NewWriter(nil).Encode("xml", sampleList())

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestWriteFile_CreatesAndReplaces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "requirements.txt")
	w := NewWriter(nil)

	require.NoError(t, w.WriteFile(context.Background(), path, []byte("first")))
	require.NoError(t, w.WriteFile(context.Background(), path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriteFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := filepath.Join(t.TempDir(), "out.txt")

	err := NewWriter(nil).WriteFile(ctx, path, []byte("x"))

	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteFile_TargetIsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "taken")
	require.NoError(t, os.Mkdir(target, 0755))

	err := NewWriter(nil).WriteFile(context.Background(), target, []byte("x"))

	assert.Error(t, err)
}
