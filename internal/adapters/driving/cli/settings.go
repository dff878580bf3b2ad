package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/reqdistill/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the AI providers and pipeline options",
	Long: `Settings live in config.toml in the configuration directory.

API keys left blank are read from OPENAI_API_KEY, ANTHROPIC_API_KEY and
HF_API_TOKEN, which a .env file may set.

Each provider command prompts for its values unless --provider is given:

  reqdistill settings llm --provider anthropic --model claude-3-5-haiku-latest
  reqdistill settings entailment --provider llm`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Choose the model that extracts requirements",
	Args:  cobra.NoArgs,
	RunE:  runSettingsLLM,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Choose the model that finds duplicate candidates",
	Args:  cobra.NoArgs,
	RunE:  runSettingsEmbedding,
}

var settingsEntailmentCmd = &cobra.Command{
	Use:   "entailment",
	Short: "Choose the classifier that confirms duplicates",
	Long: `Duplicates are confirmed by natural language inference, either by
  http  an NLI model behind a text-classification endpoint, such as the
        Hugging Face Inference API or a self-hosted server
  llm   the configured LLM, prompted to judge entailment`,
	Args: cobra.NoArgs,
	RunE: runSettingsEntailment,
}

func init() {
	for _, c := range []*cobra.Command{settingsLLMCmd, settingsEmbeddingCmd, settingsEntailmentCmd} {
		c.Flags().String("provider", "", "provider name; skips the prompts")
		c.Flags().String("model", "", "model name (default: the provider's)")
		c.Flags().String("api-key", "", "API key (default: from the environment)")
	}
	settingsEntailmentCmd.Flags().String("base-url", "", "classification endpoint base URL")

	settingsCmd.AddCommand(settingsShowCmd, settingsLLMCmd, settingsEmbeddingCmd, settingsEntailmentCmd)
	rootCmd.AddCommand(settingsCmd)
}

// ---- show ----

type section struct {
	title string
	rows  [][2]string
}

func (s *section) add(key, value string) {
	s.rows = append(s.rows, [2]string{key, value})
}

func (s *section) status(configured bool) {
	if configured {
		s.add("Status", "configured")
	} else {
		s.add("Status", "not configured")
	}
}

func (s *section) print(cmd *cobra.Command) {
	width := 0
	for _, r := range s.rows {
		width = max(width, len(r[0])+1)
	}
	cmd.Println(color.New(color.Bold).Sprintf("[%s]", s.title))
	for _, r := range s.rows {
		cmd.Printf("  %-*s %s\n", width, r[0]+":", r[1])
	}
	cmd.Println()
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	llm := section{title: "LLM"}
	addProviderRows(&llm, s.LLM.Provider, s.LLM.Model, s.LLM.BaseURL, s.LLM.APIKey)
	llm.add("Max tokens", strconv.Itoa(s.LLM.MaxTokens))
	llm.status(s.LLM.IsConfigured())

	embed := section{title: "Embedding"}
	addProviderRows(&embed, s.Embedding.Provider, s.Embedding.Model, s.Embedding.BaseURL, s.Embedding.APIKey)
	embed.status(s.Embedding.IsConfigured())

	nli := section{title: "Entailment"}
	nli.add("Provider", s.Entailment.Provider.Description())
	if s.Entailment.Provider == domain.EntailmentProviderHTTP {
		nli.add("Model", s.Entailment.Model)
		nli.add("Base URL", s.Entailment.BaseURL)
		if s.Entailment.APIKey != "" {
			nli.add("API key", maskAPIKey(s.Entailment.APIKey))
		}
	}
	nli.status(s.Entailment.IsConfigured())

	pipeline := section{title: "Pipeline"}
	pipeline.add("Max unit size", strconv.Itoa(s.Chunker.MaxSize))
	pipeline.add("Extraction workers", strconv.Itoa(s.Extraction.Concurrency))
	pipeline.add("Generation timeout", s.Extraction.Timeout.String())
	if s.Extraction.RatePerMinute > 0 {
		pipeline.add("Rate limit", fmt.Sprintf("%d/min", s.Extraction.RatePerMinute))
	}
	if len(s.Extraction.StopWords) > 0 {
		pipeline.add("Stop sequences", strconv.Quote(strings.Join(s.Extraction.StopWords, " ")))
	}
	if s.Dedup.Enabled {
		pipeline.add("Dedup", "enabled")
		pipeline.add("Candidate threshold", fmt.Sprintf("%.2f", s.Dedup.CandidateThreshold))
		pipeline.add("Confirmation threshold", fmt.Sprintf("%.2f", s.Dedup.ConfirmationThreshold))
	} else {
		pipeline.add("Dedup", "disabled")
	}
	pipeline.add("Cache", string(s.Cache.Backend))

	for _, sec := range []*section{&llm, &embed, &nli, &pipeline} {
		sec.print(cmd)
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'reqdistill settings llm|embedding|entailment' to fix it.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func addProviderRows(s *section, p domain.AIProvider, model, baseURL, apiKey string) {
	s.add("Provider", p.Description())
	s.add("Model", model)
	if p.IsLocal() {
		s.add("Base URL", baseURL)
	}
	if !p.RequiresAPIKey() {
		return
	}
	if apiKey == "" {
		s.add("API key", "(not set)")
	} else {
		s.add("API key", maskAPIKey(apiKey))
	}
}

// ---- configure ----

// providerChoice is what a provider command collects, from flags or
// from prompts.
type providerChoice struct {
	provider string
	model    string
	baseURL  string
	apiKey   string
}

func flagChoice(cmd *cobra.Command) providerChoice {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return strings.TrimSpace(v)
	}
	return providerChoice{provider: get("provider"), model: get("model"), baseURL: get("base-url"), apiKey: get("api-key")}
}

type provider interface {
	~string
	Description() string
}

// selectProvider resolves name, or asks for one when name is empty.
func selectProvider[P provider](p *prompter, kind, name string, options []P) (P, error) {
	if name == "" {
		labels := make([]string, len(options))
		for i, o := range options {
			labels[i] = o.Description()
		}
		return options[p.choose("Select "+kind, labels)], nil
	}

	names := make([]string, len(options))
	for i, o := range options {
		if string(o) == name {
			return o, nil
		}
		names[i] = string(o)
	}
	var zero P
	return zero, fmt.Errorf("%w: unknown %s %q, want one of %s",
		domain.ErrInvalidInput, kind, name, strings.Join(names, ", "))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	c, p := flagChoice(cmd), newPrompter(cmd)
	interactive := c.provider == ""

	provider, err := selectProvider(p, "LLM provider", c.provider, domain.AllLLMProviders())
	if err != nil {
		return err
	}
	if interactive {
		c.model = p.ask("Model", domain.DefaultLLMModels()[provider])
		if provider.RequiresAPIKey() {
			c.apiKey = p.secret("API key (empty to use the environment)")
		}
	}

	if err := settingsService.SetLLMProvider(provider, c.model, c.apiKey); err != nil {
		return fmt.Errorf("saving LLM provider: %w", err)
	}
	if err := validateStep(cmd, settingsService.ValidateLLMConfig); err != nil {
		return fmt.Errorf("LLM configuration: %w", err)
	}
	cmd.Printf("LLM provider set to %s\n", provider.Description())
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	c, p := flagChoice(cmd), newPrompter(cmd)
	interactive := c.provider == ""

	provider, err := selectProvider(p, "embedding provider", c.provider, domain.AllEmbeddingProviders())
	if err != nil {
		return err
	}
	if interactive {
		c.model = p.ask("Model", domain.DefaultEmbeddingModels()[provider])
		if provider.RequiresAPIKey() {
			c.apiKey = p.secret("API key (empty to use the environment)")
		}
	}

	if err := settingsService.SetEmbeddingProvider(provider, c.model, c.apiKey); err != nil {
		return fmt.Errorf("saving embedding provider: %w", err)
	}
	if err := validateStep(cmd, settingsService.ValidateEmbeddingConfig); err != nil {
		return fmt.Errorf("embedding configuration: %w", err)
	}
	cmd.Printf("Embedding provider set to %s\n", provider.Description())
	return nil
}

func runSettingsEntailment(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	c, p := flagChoice(cmd), newPrompter(cmd)
	interactive := c.provider == ""

	provider, err := selectProvider(p, "entailment classifier", c.provider, domain.AllEntailmentProviders())
	if err != nil {
		return err
	}
	if provider == domain.EntailmentProviderHTTP {
		defaults := domain.DefaultAppSettings().Entailment
		if interactive {
			c.model = p.ask("Model", defaults.Model)
			c.baseURL = p.ask("Endpoint base URL", defaults.BaseURL)
			c.apiKey = p.secret("API token (empty to use HF_API_TOKEN)")
		} else if c.baseURL == "" {
			c.baseURL = defaults.BaseURL
		}
	}

	if err := settingsService.SetEntailmentProvider(provider, c.model, c.baseURL, c.apiKey); err != nil {
		return fmt.Errorf("saving entailment provider: %w", err)
	}
	if err := validateStep(cmd, settingsService.ValidateEntailmentConfig); err != nil {
		return fmt.Errorf("entailment configuration: %w", err)
	}
	cmd.Printf("Entailment classifier set to %s\n", provider.Description())
	return nil
}

// validateStep reports the outcome of validate on the command output.
func validateStep(cmd *cobra.Command, validate func() error) error {
	cmd.Print("Validating configuration... ")
	if err := validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return err
	}
	cmd.Println("OK")
	return nil
}

// ---- prompting ----

// prompter asks questions on the command's input and output.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func (p *prompter) line() string {
	s, _ := p.in.ReadString('\n') //nolint:errcheck // EOF reads as empty
	return strings.TrimSpace(s)
}

// choose lists options and returns the index picked, the first one by
// default or on invalid input.
func (p *prompter) choose(title string, options []string) int {
	p.cmd.Println(title)
	for i, o := range options {
		p.cmd.Printf("  %d. %s\n", i+1, o)
	}
	p.cmd.Print("\nEnter choice [1]: ")
	return parseChoice(p.line(), len(options), 1) - 1
}

func (p *prompter) ask(label, def string) string {
	p.cmd.Printf("%s [%s]: ", label, def)
	if v := p.line(); v != "" {
		return v
	}
	return def
}

// secret reads without echo when the input is a terminal.
func (p *prompter) secret(label string) string {
	p.cmd.Printf("%s: ", label)
	defer p.cmd.Println()
	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if b, err := term.ReadPassword(int(f.Fd())); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.line()
}

// parseChoice reads a 1-based choice, falling back to def.
func parseChoice(input string, n, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v < 1 || v > n {
		return def
	}
	return v
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
