package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// printRunSummary writes the outcome of a run in colour when w is a terminal.
func printRunSummary(w io.Writer, document string, result *domain.PipelineResult) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()

	cached := 0
	if result.Extraction != nil {
		cached = result.Extraction.CacheHits
	}
	fmt.Fprintf(w, "%s %s: %d units (%d cached)\n", bold("Distilled"), document, result.Units, cached)
	fmt.Fprintf(w, "  Functional requirements:     %s\n", green(len(result.Requirements.Functional)))
	fmt.Fprintf(w, "  Non-functional requirements: %s\n", green(len(result.Requirements.NonFunctional)))
	printDedupLines(w, result.Dedup, yellow)

	if result.Extraction != nil && result.Extraction.HasFailures() {
		failed := result.Extraction.FailedIndices()
		fmt.Fprintf(w, "  %s\n", red(fmt.Sprintf("Failed units: %d %v", len(failed), failed)))
	}
	if result.OutputPath != "" {
		fmt.Fprintf(w, "  Output: %s\n", result.OutputPath)
	}
}

// printDedupSummary writes the outcome of a standalone dedup pass.
func printDedupSummary(w io.Writer, input string, result *domain.PipelineResult) {
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(w, "%s %s: %d requirements kept\n", bold("Deduplicated"), input, result.Requirements.Len())
	printDedupLines(w, result.Dedup, yellow)
	if result.OutputPath != "" {
		fmt.Fprintf(w, "  Output: %s\n", result.OutputPath)
	}
}

func printDedupLines(w io.Writer, stats domain.DedupStats, warn func(...any) string) {
	if stats.Total == 0 && !stats.Degraded {
		return
	}
	fmt.Fprintf(w, "  Duplicates removed:          %d (%d candidate pairs, %d verified)\n",
		stats.Confirmed, stats.Candidates, stats.Verified)
	if stats.Skipped > 0 {
		fmt.Fprintf(w, "  Pairs skipped:               %d\n", stats.Skipped)
	}
	if stats.ClassificationFailures > 0 {
		fmt.Fprintf(w, "  %s\n", warn(fmt.Sprintf("Classification failures: %d (both items kept)", stats.ClassificationFailures)))
	}
	if stats.Degraded {
		fmt.Fprintf(w, "  %s\n", warn("Dedup skipped: embeddings unavailable"))
	}
}
