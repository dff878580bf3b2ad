package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var chunkCmd = &cobra.Command{
	Use:   "chunk <document>",
	Short: "Show how a document is split into units",
	Long: `Split a document into units without calling the LLM.

Prints one line per unit with its size in characters and its content hash,
the key under which its extraction result is cached.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

var chunkMaxSize int

func init() {
	chunkCmd.Flags().IntVar(&chunkMaxSize, "max-size", 0, "maximum unit size in characters (default from settings)")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	settings, err := currentSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if chunkMaxSize > 0 {
		settings.Chunker.MaxSize = chunkMaxSize
	}
	settings.Dedup.Enabled = false

	rt, err := buildRuntime(settings)
	if err != nil {
		return err
	}
	defer rt.Close()

	units, err := rt.Pipeline.Chunk(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	total := 0
	for _, u := range units {
		n := utf8.RuneCountInString(u.Text)
		total += n
		cmd.Printf("%4d  %5d chars  %s\n", u.Index, n, u.Hash)
	}
	cmd.Printf("%d units, %d characters (max %d per unit)\n", len(units), total, settings.Chunker.MaxSize)
	return nil
}
