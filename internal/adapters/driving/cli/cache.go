package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extraction result cache",
	Long: `Extraction results are cached by unit content hash, so unchanged units
are never sent to the LLM twice. Clear the cache after changing the
extraction prompt or the LLM model.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and location",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached result",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if resultCache == nil {
		return errors.New("cache not configured")
	}

	stats, err := resultCache.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	cmd.Printf("Backend:  %s\n", stats.Backend)
	if stats.Location != "" {
		cmd.Printf("Location: %s\n", stats.Location)
	}
	cmd.Printf("Entries:  %d\n", stats.Entries)
	cmd.Printf("Size:     %s\n", formatBytes(stats.Bytes))
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if resultCache == nil {
		return errors.New("cache not configured")
	}

	if err := resultCache.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cmd.Println("Cache cleared.")
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
