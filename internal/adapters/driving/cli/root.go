// Package cli provides the reqdistill command line interface.
package cli

import (
	"context"
	"errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
	"github.com/custodia-labs/reqdistill/internal/logger"
)

// annotationStandalone marks commands that run without opening the stores.
const annotationStandalone = "standalone"

// envFiles are loaded at startup. Earlier files win; the process
// environment wins over both.
var envFiles = []string{".env.local", ".env"}

// version is set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
)

// Services are the collaborators commands run against.
type Services struct {
	Settings   driving.SettingsService
	Cache      driven.ResultCache
	Runs       driven.RunStore
	NewRuntime RuntimeFactory

	// Close releases the stores. Optional.
	Close func() error
}

// Runtime is a pipeline assembled for one set of settings.
type Runtime struct {
	Pipeline driving.PipelineService
	Dedup    driving.DedupService

	// Close releases the AI clients. Optional.
	Close func()
}

// RuntimeFactory assembles a pipeline from settings.
type RuntimeFactory func(settings *domain.AppSettings) (*Runtime, error)

// Bootstrap opens the stores under configDir.
// An empty configDir selects ~/.reqdistill.
type Bootstrap func(configDir string) (*Services, error)

var (
	bootstrap       Bootstrap
	settingsService driving.SettingsService
	resultCache     driven.ResultCache
	runStore        driven.RunStore
	newRuntime      RuntimeFactory
	closeServices   func() error
)

var rootCmd = &cobra.Command{
	Use:   "reqdistill",
	Short: "Distil requirement lists from specification documents",
	Long: `reqdistill turns a specification document into a deduplicated list of
functional and non-functional requirements.

The document is split into units, each unit is sent to a language model,
the per-unit lists are merged, and semantically duplicate requirements
are removed with embeddings and an entailment classifier.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print chunking, extraction and dedup progress")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.reqdistill)")
}

// SetBootstrap sets the function that opens the stores before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the stores afterwards.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if closeServices != nil {
		if cerr := closeServices(); cerr != nil {
			logger.Warn("closing stores: %v", cerr)
		}
		closeServices = nil
	}
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	loadEnvFiles()

	if bootstrap == nil || cmd.Annotations[annotationStandalone] == "true" {
		return nil
	}

	svc, err := bootstrap(configDir)
	if err != nil {
		return err
	}
	settingsService = svc.Settings
	resultCache = svc.Cache
	runStore = svc.Runs
	newRuntime = svc.NewRuntime
	closeServices = svc.Close
	return nil
}

func loadEnvFiles() {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			logger.Debug("loaded environment from %s", f)
		}
	}
}

// currentSettings returns the stored settings, or the defaults when no
// settings service is configured.
func currentSettings() (*domain.AppSettings, error) {
	if settingsService == nil {
		defaults := domain.DefaultAppSettings()
		return &defaults, nil
	}
	return settingsService.Get()
}

// buildRuntime assembles a pipeline for settings.
func buildRuntime(settings *domain.AppSettings) (*Runtime, error) {
	if newRuntime == nil {
		return nil, errors.New("pipeline not configured")
	}
	rt, err := newRuntime(settings)
	if err != nil {
		return nil, err
	}
	if rt.Close == nil {
		rt.Close = func() {}
	}
	return rt, nil
}
