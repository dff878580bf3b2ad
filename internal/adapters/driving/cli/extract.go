package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

var extractCmd = &cobra.Command{
	Use:   "extract <document>",
	Short: "Extract requirements from a document",
	Long: `Extract functional and non-functional requirements from a document.

The document (txt, md, html, docx or pdf) is split into units of at most
--max-size characters. Each unit is sent to the configured LLM, the
per-unit lists are merged in document order, and duplicates are removed
unless --no-dedup is given.

Results of previous runs are cached by unit content, so re-running on an
edited document only regenerates the units that changed.

Examples:
  reqdistill extract cahier.docx -o requirements.txt
  reqdistill extract spec.pdf --format json -o requirements.json
  reqdistill extract notes.md --watch -o requirements.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// Extract flags.
var (
	extractOutput      string
	extractFormat      string
	extractRawOutput   string
	extractNoDedup     bool
	extractMaxSize     int
	extractConcurrency int
	extractWatch       bool
)

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractOutput, "output", "o", "", "write the requirement list to this file instead of stdout")
	f.StringVar(&extractFormat, "format", string(domain.ReportFormatText), "output file format: text, json or yaml")
	f.StringVar(&extractRawOutput, "raw-output", "", "also write the raw per-unit LLM answers to this file")
	f.BoolVar(&extractNoDedup, "no-dedup", false, "keep semantically duplicate requirements")
	f.IntVar(&extractMaxSize, "max-size", 0, "maximum unit size in characters (default from settings)")
	f.IntVar(&extractConcurrency, "concurrency", 0, "number of concurrent LLM calls (default from settings)")
	f.BoolVarP(&extractWatch, "watch", "w", false, "re-run whenever the document changes")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	format := domain.ReportFormat(extractFormat)
	if !format.IsValid() {
		return fmt.Errorf("unknown format %q (want text, json or yaml)", extractFormat)
	}
	if format != domain.ReportFormatText && extractOutput == "" {
		return errors.New("--format requires --output")
	}

	settings, err := currentSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	applyExtractOverrides(settings)
	if err := settings.Validate(); err != nil {
		return err
	}

	rt, err := buildRuntime(settings)
	if err != nil {
		return err
	}
	defer rt.Close()

	req := domain.PipelineRequest{
		DocumentPath:  args[0],
		OutputPath:    extractOutput,
		RawOutputPath: extractRawOutput,
		Format:        format,
		SkipDedup:     extractNoDedup,
	}

	run := func(ctx context.Context) error {
		result, err := rt.Pipeline.Run(ctx, req)
		if err != nil {
			return explain(err)
		}
		if req.OutputPath == "" {
			cmd.Print(result.Rendered)
		}
		printRunSummary(cmd.ErrOrStderr(), req.DocumentPath, result)
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !extractWatch {
		return run(ctx)
	}

	if err := run(ctx); err != nil {
		cmd.PrintErrf("Error: %v\n", err)
	}
	cmd.PrintErrf("Watching %s for changes (Ctrl+C to stop)\n", req.DocumentPath)
	return watchFile(ctx, req.DocumentPath, watchDebounce, func(ctx context.Context) error {
		cmd.PrintErrf("\n%s changed, re-running\n", req.DocumentPath)
		return run(ctx)
	})
}

// applyExtractOverrides copies command line overrides onto settings.
func applyExtractOverrides(settings *domain.AppSettings) {
	if extractMaxSize > 0 {
		settings.Chunker.MaxSize = extractMaxSize
	}
	if extractConcurrency > 0 {
		settings.Extraction.Concurrency = extractConcurrency
	}
	if extractNoDedup {
		settings.Dedup.Enabled = false
	}
}

// explain adds a remedy to errors the user can fix through settings.
func explain(err error) error {
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		return fmt.Errorf("%w\nRun 'reqdistill settings llm' to configure a provider", err)
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		return fmt.Errorf("%w\nRun 'reqdistill settings embedding' to configure a provider", err)
	default:
		return err
	}
}
