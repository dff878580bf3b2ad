package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/reqdistill/internal/adapters/driven/ai"
	filecache "github.com/custodia-labs/reqdistill/internal/adapters/driven/cache/file"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/report"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/reqdistill/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reqdistill/internal/adapters/driving/cli"
	"github.com/custodia-labs/reqdistill/internal/core/domain"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driven"
	"github.com/custodia-labs/reqdistill/internal/core/ports/driving"
	"github.com/custodia-labs/reqdistill/internal/core/services"
	"github.com/custodia-labs/reqdistill/internal/logger"
	"github.com/custodia-labs/reqdistill/internal/normalisers"
	"github.com/custodia-labs/reqdistill/internal/postprocessors/chunker"
	"github.com/custodia-labs/reqdistill/internal/postprocessors/reqlist"
)

// stores are opened once per invocation and shared by every runtime.
type stores struct {
	cache   driven.ResultCache
	runs    driven.RunStore
	prompts driven.PromptStore
}

// bootstrap opens the configuration, cache and run history under configDir.
func bootstrap(configDir string) (*cli.Services, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".reqdistill")
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, err
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	db, err := sqlite.NewStore(filepath.Join(configDir, "data"))
	if err != nil {
		return nil, err
	}

	cache, err := openCache(settings.Cache, configDir, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	st := &stores{cache: cache, runs: db.RunStore()}
	if prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts")); err != nil {
		logger.Warn("prompt store unavailable, using built-in prompts: %v", err)
	} else {
		st.prompts = prompts
	}

	return &cli.Services{
		Settings: settingsService,
		Cache:    st.cache,
		Runs:     st.runs,
		NewRuntime: func(s *domain.AppSettings) (*cli.Runtime, error) {
			return newRuntime(s, st)
		},
		Close: db.Close,
	}, nil
}

// openCache selects the result cache backend.
func openCache(s domain.CacheSettings, configDir string, db *sqlite.Store) (driven.ResultCache, error) {
	switch s.Backend {
	case domain.CacheBackendSQLite:
		return db.ResultCache(), nil
	case domain.CacheBackendMemory:
		return memory.NewResultCache(), nil
	case domain.CacheBackendFile, "":
		dir := s.Dir
		if dir == "" {
			dir = filepath.Join(configDir, "cache")
		}
		return filecache.New(dir)
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, s.Backend)
	}
}

// newRuntime assembles the pipeline for settings. A missing LLM does not
// fail assembly so that chunking and dedup still work; extraction then
// reports domain.ErrLLMUnavailable.
func newRuntime(settings *domain.AppSettings, st *stores) (*cli.Runtime, error) {
	codec := reqlist.Codec{}
	deps := services.PipelineDeps{
		Reader:   normalisers.NewDefaultRegistry(),
		Splitter: chunker.New(chunker.WithMaxSize(settings.Chunker.MaxSize)),
		Codec:    codec,
		Writer:   report.NewWriter(codec),
		Runs:     st.runs,
	}
	rt := &cli.Runtime{}
	if st.prompts != nil {
		st.prompts.Reload()
	}

	aiResult, err := ai.Initialise(settings, st.prompts)
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		logger.Warn("%v", err)
		if settings.Dedup.Enabled {
			dedupOnly := ai.InitialiseDedup(settings, st.prompts)
			rt.Close = dedupOnly.Close
			deps.Dedup = newDedupService(settings.Dedup, dedupOnly)
		}
	case err != nil:
		return nil, err
	default:
		rt.Close = aiResult.Close
		deps.Extraction = services.NewExtractionService(aiResult.LLMService, st.cache,
			services.WithExtractionConcurrency(settings.Extraction.Concurrency),
			services.WithGenerationTimeout(settings.Extraction.Timeout),
			services.WithMaxTokens(settings.LLM.MaxTokens),
			services.WithStopWords(settings.Extraction.StopWords),
			services.WithPromptStore(st.prompts),
		)
		if settings.Dedup.Enabled {
			deps.Dedup = newDedupService(settings.Dedup, aiResult)
		}
	}

	pipeline := services.NewPipelineService(deps)
	rt.Pipeline = pipeline
	rt.Dedup = deps.Dedup
	return rt, nil
}

func newDedupService(s domain.DedupSettings, aiResult *ai.InitResult) driving.DedupService {
	index := services.NewSimilarityIndex(aiResult.EmbeddingService, s.CandidateThreshold)
	verifier := services.NewEntailmentVerifier(aiResult.Classifier, s.ConfirmationThreshold, s.Timeout)
	return services.NewDedupService(index, verifier, s.Concurrency)
}
