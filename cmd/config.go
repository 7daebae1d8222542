package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teemow/calendar-agent/internal/agent"
	"github.com/teemow/calendar-agent/internal/calendar"
	"github.com/teemow/calendar-agent/internal/google"
	"github.com/teemow/calendar-agent/internal/instrumentation"
	"github.com/teemow/calendar-agent/internal/llm"
	"github.com/teemow/calendar-agent/internal/search"
	"github.com/teemow/calendar-agent/internal/server"
)

// Defaults for the agent configuration.
const (
	DefaultAPIKeyFile      = "api.txt"
	DefaultCredentialsFile = "credentials.json"
	DefaultRequestTimeout  = 60 * time.Second
)

// Config holds the settings shared by the chat, serve and auth commands.
type Config struct {
	APIKey        string
	APIKeyFile    string
	Model         string
	OpenAIBaseURL string

	CredentialsFile string
	TokenFile       string
	CalendarID      string

	MaxToolRounds  int
	RequestTimeout time.Duration
	Debug          bool
}

// envVar binds a flag to the environment variable used when the flag is not set.
type envVar struct {
	flag string
	env  string
}

var configEnvVars = []envVar{
	{"api-key-file", "OPENAI_API_KEY_FILE"},
	{"model", "OPENAI_MODEL"},
	{"openai-base-url", "OPENAI_BASE_URL"},
	{"credentials-file", "CREDENTIALS_FILE"},
	{"token-file", "GOOGLE_TOKEN_FILE"},
	{"calendar-id", "CALENDAR_ID"},
	{"max-tool-rounds", "MAX_TOOL_ROUNDS"},
	{"request-timeout", "REQUEST_TIMEOUT"},
	{"debug", "DEBUG"},
	{"metrics-addr", "METRICS_ADDR"},
}

// addConfigFlags registers the configuration flags on cmd and returns the
// Config they fill in.
func addConfigFlags(cmd *cobra.Command) *Config {
	cfg := &Config{}
	flags := cmd.Flags()

	flags.StringVar(&cfg.APIKeyFile, "api-key-file", DefaultAPIKeyFile, "File holding the OpenAI API key, read when OPENAI_API_KEY is unset. Can also use OPENAI_API_KEY_FILE env var.")
	flags.StringVar(&cfg.Model, "model", llm.DefaultModel, "Chat model. Can also use OPENAI_MODEL env var.")
	flags.StringVar(&cfg.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI-compatible API. Can also use OPENAI_BASE_URL env var.")
	flags.StringVar(&cfg.CredentialsFile, "credentials-file", DefaultCredentialsFile, "Google OAuth client secrets file. Can also use CREDENTIALS_FILE env var.")
	flags.StringVar(&cfg.TokenFile, "token-file", google.DefaultTokenFile, "Where the Google OAuth token is stored. Can also use GOOGLE_TOKEN_FILE env var.")
	flags.StringVar(&cfg.CalendarID, "calendar-id", calendar.DefaultCalendarID, "Calendar to manage. Can also use CALENDAR_ID env var.")
	flags.IntVar(&cfg.MaxToolRounds, "max-tool-rounds", agent.DefaultMaxToolRounds, "Maximum consecutive model calls for one message. Can also use MAX_TOOL_ROUNDS env var.")
	flags.DurationVar(&cfg.RequestTimeout, "request-timeout", DefaultRequestTimeout, "Timeout for each model and calendar request (0 disables). Can also use REQUEST_TIMEOUT env var.")
	flags.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging. Can also use DEBUG env var.")

	return cfg
}

// loadDotEnv loads a .env file into the environment. Variables that are
// already set win. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// applyEnv sets every flag the user did not pass from its environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	for _, ev := range configEnvVars {
		f := flags.Lookup(ev.flag)
		if f == nil || f.Changed {
			continue
		}
		value, ok := os.LookupEnv(ev.env)
		if !ok || value == "" {
			continue
		}
		if err := f.Value.Set(value); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", ev.env, value, err)
		}
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxToolRounds < 1 {
		return fmt.Errorf("max tool rounds must be at least 1, got %d", c.MaxToolRounds)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative, got %s", c.RequestTimeout)
	}
	return nil
}

// ResolveAPIKey returns OPENAI_API_KEY, or the trimmed content of the key file.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		return key, nil
	}
	if c.APIKeyFile == "" {
		return "", errors.New("no OpenAI API key: set OPENAI_API_KEY or --api-key-file")
	}

	data, err := os.ReadFile(c.APIKeyFile)
	if err != nil {
		return "", fmt.Errorf("no OpenAI API key: OPENAI_API_KEY is unset and %s could not be read: %w", c.APIKeyFile, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("no OpenAI API key: %s is empty", c.APIKeyFile)
	}
	return key, nil
}

// loadConfig runs the .env and environment fallbacks for cmd and validates cfg.
func loadConfig(cmd *cobra.Command, cfg *Config) error {
	if err := loadDotEnv(".env"); err != nil {
		return err
	}
	if err := applyEnv(cmd.Flags()); err != nil {
		return err
	}
	return cfg.Validate()
}

// newCalendarClient authenticates with the stored OAuth token and builds the
// calendar gateway.
func newCalendarClient(ctx context.Context, cfg *Config, provider *instrumentation.Provider, logger *slog.Logger) (*calendar.Client, error) {
	conf, err := google.LoadOAuthConfig(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	tokens := google.NewFileTokenProvider(cfg.TokenFile)
	if !tokens.HasToken() {
		return nil, fmt.Errorf("no Google OAuth token at %s; run 'calendar-agent auth' first", tokens.Path())
	}

	httpClient, err := google.NewHTTPClient(ctx, conf, tokens)
	if err != nil {
		return nil, err
	}
	if cfg.RequestTimeout > 0 {
		httpClient.Timeout = cfg.RequestTimeout
	}

	svc, err := calendar.NewService(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return calendar.NewClient(svc,
		calendar.WithMetrics(provider.Metrics()),
		calendar.WithLogger(logger.With("component", "calendar")),
	)
}

// newInstrumentation creates the OpenTelemetry provider from the environment.
func newInstrumentation(ctx context.Context) (*instrumentation.Provider, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	return provider, nil
}

// newServerContext wires the calendar gateway, search engine and tool registry.
func newServerContext(ctx context.Context, cfg *Config, provider *instrumentation.Provider, logger *slog.Logger) (*server.ServerContext, error) {
	cal, err := newCalendarClient(ctx, cfg, provider, logger)
	if err != nil {
		return nil, err
	}

	sc, err := server.NewServerContext(ctx, server.Config{
		Calendar:   cal,
		CalendarID: cfg.CalendarID,
		Search:     search.DefaultOptions(),
		Provider:   provider,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return sc, nil
}
