package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup <requirements-file>",
	Short: "Remove duplicate requirements from a rendered list",
	Long: `Deduplicate a requirement list produced by 'reqdistill extract'.

The file must use the "Functional Requirements:" and
"Non-Functional Requirements:" headings. Each category is deduplicated
on its own: pairs above the similarity threshold are checked for mutual
entailment and the shorter statement of a confirmed pair is dropped.`,
	Args: cobra.ExactArgs(1),
	RunE: runDedup,
}

// Dedup flags.
var (
	dedupOutput string
	dedupFormat string
)

func init() {
	dedupCmd.Flags().StringVarP(&dedupOutput, "output", "o", "", "write the deduplicated list to this file instead of stdout")
	dedupCmd.Flags().StringVar(&dedupFormat, "format", string(domain.ReportFormatText), "output file format: text, json or yaml")
	rootCmd.AddCommand(dedupCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	format := domain.ReportFormat(dedupFormat)
	if !format.IsValid() {
		return fmt.Errorf("unknown format %q (want text, json or yaml)", dedupFormat)
	}
	if format != domain.ReportFormatText && dedupOutput == "" {
		return errors.New("--format requires --output")
	}

	settings, err := currentSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	settings.Dedup.Enabled = true

	rt, err := buildRuntime(settings)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := rt.Pipeline.DedupFile(cmd.Context(), args[0], dedupOutput, format)
	if err != nil {
		return explain(err)
	}

	if dedupOutput == "" {
		cmd.Print(result.Rendered)
	}
	printDedupSummary(cmd.ErrOrStderr(), args[0], result)
	return nil
}
