// Package config loads the annotator settings. Values are layered: built-in
// defaults, then an optional TOML file named by ANNOTATOR_CONFIG, then
// individual ANNOTATOR_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// FileEnvVar names the environment variable holding the TOML config path.
const FileEnvVar = "ANNOTATOR_CONFIG"

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

type Config struct {
	Provider string `toml:"provider" env:"ANNOTATOR_PROVIDER"`
	Model    string `toml:"model" env:"ANNOTATOR_MODEL"`
	BaseURL  string `toml:"base_url" env:"ANNOTATOR_BASE_URL"`
	APIKey   string `toml:"api_key" env:"ANNOTATOR_API_KEY"`

	// ParamPrefix, when set, moves the API token to SSM under
	// <prefix>/<provider>-token.
	ParamPrefix string `toml:"param_prefix" env:"ANNOTATOR_PARAM_PREFIX"`
	LedgerTable string `toml:"ledger_table" env:"ANNOTATOR_LEDGER_TABLE"`

	// Language overrides detection from the file extension.
	Language       string `toml:"language" env:"ANNOTATOR_LANGUAGE"`
	AtomicWrite    bool   `toml:"atomic_write" env:"ANNOTATOR_ATOMIC_WRITE"`
	MaxTokens      int    `toml:"max_tokens" env:"ANNOTATOR_MAX_TOKENS"`
	MaxSourceBytes int    `toml:"max_source_bytes" env:"ANNOTATOR_MAX_SOURCE_BYTES"`

	LogLevel  string `toml:"log_level" env:"ANNOTATOR_LOG_LEVEL"`
	LogFormat string `toml:"log_format" env:"ANNOTATOR_LOG_FORMAT"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Provider:       ProviderOpenAI,
		MaxTokens:      8192,
		MaxSourceBytes: 256 << 10,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the configuration from defaults, the file named by
// ANNOTATOR_CONFIG (if any) and the environment.
func Load() (Config, error) {
	return LoadFile(os.Getenv(FileEnvVar))
}

// LoadFile is Load with an explicit TOML path. An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	// No envDefault tags: unset variables must not clobber file values.
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.ParamPrefix = strings.TrimRight(strings.TrimSpace(cfg.ParamPrefix), "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return errors.New("config: max_tokens must be positive")
	}
	if c.MaxSourceBytes <= 0 {
		return errors.New("config: max_source_bytes must be positive")
	}
	return nil
}

// ResolvedModel returns the configured model, or the provider's default when
// none is set.
func (c Config) ResolvedModel() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	switch c.Provider {
	case ProviderAnthropic:
		return "claude-sonnet-4-5-20250929"
	case ProviderOllama:
		return "llama3.1:latest"
	default:
		return "gpt-4o"
	}
}

// UsesAWS reports whether any AWS-backed feature is enabled.
func (c Config) UsesAWS() bool {
	return c.ParamPrefix != "" || strings.TrimSpace(c.LedgerTable) != ""
}
