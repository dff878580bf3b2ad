package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	pingErr     error

	llmProvider   domain.AIProvider
	llmModel      string
	llmKey        string
	embedProvider domain.AIProvider
	embedModel    string
	nliProvider   domain.EntailmentProvider
	nliModel      string
	nliBaseURL    string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llmProvider, m.llmModel, m.llmKey = provider, model, apiKey
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, _ string) error {
	m.embedProvider, m.embedModel = provider, model
	return nil
}

func (m *mockSettingsService) SetEntailmentProvider(provider domain.EntailmentProvider, model, baseURL, _ string) error {
	m.nliProvider, m.nliModel, m.nliBaseURL = provider, model, baseURL
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateLLMConfig() error { return m.pingErr }
func (m *mockSettingsService) ValidateEntailmentConfig() error { return m.pingErr }

// mockPipelineService implements driving.PipelineService for testing.
type mockPipelineService struct {
	result  *domain.PipelineResult
	units   []domain.Unit
	err     error
	lastReq domain.PipelineRequest
	dedupIn string
	runs    int
}

func (m *mockPipelineService) Run(_ context.Context, req domain.PipelineRequest) (*domain.PipelineResult, error) {
	m.lastReq = req
	m.runs++
	return m.result, m.err
}

func (m *mockPipelineService) DedupFile(
	_ context.Context,
	inPath, outPath string,
	format domain.ReportFormat,
) (*domain.PipelineResult, error) {
	m.dedupIn = inPath
	m.lastReq = domain.PipelineRequest{OutputPath: outPath, Format: format}
	return m.result, m.err
}

func (m *mockPipelineService) Chunk(_ context.Context, _ string) ([]domain.Unit, error) {
	return m.units, m.err
}

// mockResultCache implements driven.ResultCache for testing.
type mockResultCache struct {
	stats   domain.CacheStats
	cleared bool
	err     error
}

func (m *mockResultCache) Get(_ context.Context, _ string) (string, bool, error) { return "", false, nil }
func (m *mockResultCache) Put(_ context.Context, _, _ string) error { return nil }

func (m *mockResultCache) Stats(_ context.Context) (domain.CacheStats, error) {
	return m.stats, m.err
}

func (m *mockResultCache) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

// mockRunStore implements driven.RunStore for testing.
type mockRunStore struct {
	runs []domain.Run
	err  error
}

func (m *mockRunStore) SaveRun(_ context.Context, run *domain.Run) error {
	m.runs = append(m.runs, *run)
	return m.err
}

func (m *mockRunStore) ListRuns(_ context.Context, _ int) ([]domain.Run, error) {
	return m.runs, m.err
}

// testEnv swaps the package services for mocks and restores them on cleanup.
type testEnv struct {
	settings *mockSettingsService
	pipeline *mockPipelineService
	cache    *mockResultCache
	runs     *mockRunStore

	// built holds the settings the last runtime was assembled from.
	built *domain.AppSettings
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		settings: newMockSettingsService(),
		pipeline: &mockPipelineService{result: &domain.PipelineResult{}},
		cache:    &mockResultCache{},
		runs:     &mockRunStore{},
	}

	oldSettings, oldCache, oldRuns, oldRuntime := settingsService, resultCache, runStore, newRuntime
	settingsService = env.settings
	resultCache = env.cache
	runStore = env.runs
	newRuntime = func(s *domain.AppSettings) (*Runtime, error) {
		env.built = s
		return &Runtime{Pipeline: env.pipeline}, nil
	}

	oldNoColor := color.NoColor
	color.NoColor = true

	t.Cleanup(func() {
		color.NoColor = oldNoColor
		settingsService, resultCache, runStore, newRuntime = oldSettings, oldCache, oldRuns, oldRuntime
		resetCommandFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	resetCommandFlags()
	return env
}

// resetCommandFlags restores flag variables that cobra does not reset
// between executions of the same command tree.
func resetCommandFlags() {
	extractOutput, extractFormat, extractRawOutput = "", string(domain.ReportFormatText), ""
	extractNoDedup, extractWatch = false, false
	extractMaxSize, extractConcurrency = 0, 0
	dedupOutput, dedupFormat = "", string(domain.ReportFormatText)
	chunkMaxSize = 0
	runsLimit = 20
	for _, c := range []string{"output", "format", "raw-output", "no-dedup", "max-size", "concurrency", "watch"} {
		if f := extractCmd.Flags().Lookup(c); f != nil {
			f.Changed = false
		}
	}
	for _, c := range []*cobra.Command{settingsLLMCmd, settingsEmbeddingCmd, settingsEntailmentCmd, versionCmd} {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}
