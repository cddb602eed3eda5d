package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/bankdoc-rag/internal/core/domain"
)

var errNoSettings = errors.New("settings service not configured")

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change provider, storage, chunking and query settings",
	Long: `Without a subcommand, prints the effective settings and whether they validate.

Settings live in ~/.bankdoc/config.toml. API keys entered here are stored
there too; keys taken from OPENAI_API_KEY or ANTHROPIC_API_KEY never are.`,
	RunE: runSettingsShow,
}

func init() {
	settingsCmd.AddCommand(
		&cobra.Command{Use: "show", Short: "Print the effective settings", RunE: runSettingsShow},
		&cobra.Command{Use: "wizard", Short: "Walk through embedding, LLM and storage setup", RunE: runSettingsWizard},
		&cobra.Command{
			Use:   "embedding",
			Short: "Choose the embedding provider and model",
			Long: `Choose the embedding provider and model.

Vectors from different models are not comparable: re-ingest documents after
changing either.`,
			RunE: withPrompter(func(p *prompter) error { return configureProvider(p, embeddingStep()) }),
		},
		&cobra.Command{
			Use:   "llm",
			Short: "Choose the answer-writing LLM",
			RunE:  withPrompter(func(p *prompter) error { return configureProvider(p, llmStep()) }),
		},
		&cobra.Command{
			Use:   "storage",
			Short: "Choose where documents and vectors are kept",
			Long: `Choose where documents and vectors are kept.

  sqlite    one local file, the default
  memory    nothing survives the process
  postgres  vectors in pgvector, document records in local SQLite`,
			RunE: withPrompter(configureStorage),
		},
		&cobra.Command{
			Use:   "chunking <size> <overlap>",
			Short: "Set chunk size and overlap in words",
			Args:  cobra.ExactArgs(2),
			RunE:  runSettingsChunking,
		},
		&cobra.Command{
			Use:   "query <top-k> <max-tokens>",
			Short: "Set how many chunks are retrieved and the answer length",
			Args:  cobra.ExactArgs(2),
			RunE:  runSettingsQuery,
		},
	)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	s, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	printSection(cmd, "Embedding", providerRows(s.Embedding.Provider, s.Embedding.Model,
		s.Embedding.BaseURL, s.Embedding.APIKey, s.Embedding.IsConfigured()))
	printSection(cmd, "LLM", providerRows(s.LLM.Provider, s.LLM.Model,
		s.LLM.BaseURL, s.LLM.APIKey, s.LLM.IsConfigured()))

	storage := [][2]string{
		{"Backend", string(s.Storage.Backend)},
		{"Data dir", orDefault(s.Storage.DataDir, "~/.bankdoc/data")},
	}
	if s.Storage.Backend == domain.StoragePostgres {
		storage = append(storage, [2]string{"Postgres DSN", orDefault(maskDSN(s.Storage.PostgresDSN), "(not set)")})
	}
	printSection(cmd, "Storage", storage)

	printSection(cmd, "Chunking", [][2]string{
		{"Size", strconv.Itoa(s.Chunking.Size)},
		{"Overlap", strconv.Itoa(s.Chunking.Overlap)},
	})
	printSection(cmd, "Query", [][2]string{
		{"Top K", strconv.Itoa(s.Query.TopK)},
		{"Max tokens", strconv.Itoa(s.Query.MaxTokens)},
	})

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'bankdoc settings wizard' to fix configuration issues.")
		return nil
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func providerRows(p domain.AIProvider, model, baseURL, apiKey string, configured bool) [][2]string {
	rows := [][2]string{{"Provider", p.Description()}, {"Model", model}}
	if baseURL != "" {
		rows = append(rows, [2]string{"Base URL", baseURL})
	}
	if p.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		rows = append(rows, [2]string{"API Key", key})
	}
	status := "not configured"
	if configured {
		status = "configured"
	}
	return append(rows, [2]string{"Status", status})
}

func printSection(cmd *cobra.Command, title string, rows [][2]string) {
	cmd.Printf("[%s]\n", title)
	for _, r := range rows {
		cmd.Printf("  %s: %s\n", r[0], r[1])
	}
	cmd.Println()
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	p := newPrompter(cmd)

	cmd.Println("bankdoc Settings Wizard")
	cmd.Println("=======================")
	cmd.Println()

	cmd.Println("Step 1: Embeddings (required to index and search documents)")
	if err := configureProvider(p, embeddingStep()); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM (without one, answers list the matching excerpts)")
	if p.confirm("Configure an LLM now?") {
		if err := configureProvider(p, llmStep()); err != nil {
			return err
		}
	} else {
		cmd.Println("Skipped.")
		cmd.Println()
	}

	cmd.Println("Step 3: Storage")
	if err := configureStorage(p); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsChunking(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	size, overlap, err := parseIntPair(args, "size", "overlap")
	if err != nil {
		return err
	}
	if err := settingsService.SetChunking(size, overlap); err != nil {
		return fmt.Errorf("failed to set chunking: %w", err)
	}

	cmd.Printf("Chunking set to size %d, overlap %d\n", size, overlap)
	cmd.Println("Existing documents keep their chunks; re-ingest to apply.")
	return nil
}

func runSettingsQuery(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNoSettings
	}
	topK, maxTokens, err := parseIntPair(args, "top-k", "max-tokens")
	if err != nil {
		return err
	}
	if err := settingsService.SetQuery(topK, maxTokens); err != nil {
		return fmt.Errorf("failed to set query defaults: %w", err)
	}

	cmd.Printf("Query defaults set to top-k %d, max tokens %d\n", topK, maxTokens)
	return nil
}

// providerStep describes one "pick a provider, model and key" exchange.
type providerStep struct {
	label     string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	keyHint   string
	save      func(domain.AIProvider, string, string) error
	validate  func() error

	// lenient steps keep a setting whose backend is unreachable.
	lenient bool
}

func embeddingStep() providerStep {
	return providerStep{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		keyHint:   "OPENAI_API_KEY",
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	}
}

func llmStep() providerStep {
	return providerStep{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		keyHint:   "the environment",
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
		lenient:   true,
	}
}

func configureProvider(p *prompter, step providerStep) error {
	names := make([]string, len(step.providers))
	for i, prov := range step.providers {
		names[i] = prov.Description()
	}
	provider := step.providers[p.pick("Select "+step.label+" Provider", names)]
	model := p.text("Enter model name", step.models[provider])

	var apiKey string
	if provider.RequiresAPIKey() {
		apiKey = p.secret(fmt.Sprintf("Enter API key (blank to use %s)", step.keyHint))
	}

	if err := step.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.label, err)
	}

	p.cmd.Print("Validating configuration... ")
	switch err := step.validate(); {
	case err == nil:
		p.cmd.Println("OK")
	case step.lenient:
		p.cmd.Printf("FAILED: %v\n", err)
		p.cmd.Println("The setting was saved. Answers will list excerpts until the backend is reachable.")
	default:
		p.cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", strings.ToLower(step.label), err)
	}

	p.cmd.Printf("%s provider configured: %s (%s)\n\n", step.label, provider.Description(), model)
	return nil
}

func configureStorage(p *prompter) error {
	backends := domain.AllStorageBackends()
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	backend := backends[p.pick("Select Storage Backend", names)]

	var dataDir, dsn string
	if backend != domain.StorageMemory {
		dataDir = p.text("Enter data directory", "")
	}
	if backend == domain.StoragePostgres {
		dsn = p.secret("Enter Postgres DSN (blank to use BANKDOC_POSTGRES_DSN)")
	}

	if err := settingsService.SetStorage(backend, dataDir, dsn); err != nil {
		return fmt.Errorf("failed to configure storage: %w", err)
	}
	p.cmd.Printf("Storage backend set to: %s\n\n", backend)
	return nil
}

// prompter reads wizard answers from the command's input. Blank answers
// take the offered default.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

func withPrompter(fn func(*prompter) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errNoSettings
		}
		return fn(newPrompter(cmd))
	}
}

func (p *prompter) line() string {
	input, _ := p.in.ReadString('\n')
	return strings.TrimSpace(input)
}

// pick lists options and returns the 0-based index chosen; the first is the default.
func (p *prompter) pick(title string, options []string) int {
	p.cmd.Println(title)
	for i, o := range options {
		p.cmd.Printf("  %d. %s\n", i+1, o)
	}
	p.cmd.Print("\nEnter choice [1]: ")
	return parseChoice(p.line(), len(options), 1) - 1
}

func (p *prompter) text(label, def string) string {
	if def != "" {
		p.cmd.Printf("%s [%s]: ", label, def)
	} else {
		p.cmd.Printf("%s: ", label)
	}
	return orDefault(p.line(), def)
}

// secret reads without echo on a terminal.
func (p *prompter) secret(label string) string {
	p.cmd.Print(label + ": ")
	defer p.cmd.Println()

	fd := int(os.Stdin.Fd())
	if p.cmd.InOrStdin() == os.Stdin && term.IsTerminal(fd) {
		if b, err := term.ReadPassword(fd); err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.line()
}

func (p *prompter) confirm(question string) bool {
	p.cmd.Print(question + " [Y/n]: ")
	switch strings.ToLower(p.line()) {
	case "", "y", "yes":
		p.cmd.Println()
		return true
	}
	return false
}

func parseChoice(input string, maxVal, defaultVal int) int {
	val, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func parseIntPair(args []string, first, second string) (a, b int, err error) {
	if a, err = strconv.Atoi(args[0]); err != nil {
		return 0, 0, fmt.Errorf("invalid %s %q: must be an integer", first, args[0])
	}
	if b, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, fmt.Errorf("invalid %s %q: must be an integer", second, args[1])
	}
	return a, b, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// maskAPIKey keeps four characters at each end of keys long enough to spare them.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a URL-style connection string.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	user, _, hasPass := strings.Cut(rest[:at], ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":****" + rest[at:]
}
