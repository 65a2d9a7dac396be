package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the backend: "anthropic", "openai", "gemini",
	// "openrouter" or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single request including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Optional. Override for OpenRouter or compatible APIs.

	// Headers are sent with every request.
	Headers map[string]string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// backend describes one API-key provider. Discovery probes them in this
// order; Gemini comes first because the coach's prompts were tuned on it.
type backend struct {
	name string
	// discoveryKey is the conventional env var the vendor's own tools read.
	discoveryKey string
	key          func(*Config) *string
	model        func(*Config) *string
}

var backends = []backend{
	{"gemini", "GEMINI_API_KEY",
		func(c *Config) *string { return &c.Gemini.APIKey },
		func(c *Config) *string { return &c.Gemini.Model }},
	{"openai", "OPENAI_API_KEY",
		func(c *Config) *string { return &c.OpenAI.APIKey },
		func(c *Config) *string { return &c.OpenAI.Model }},
	{"anthropic", "ANTHROPIC_API_KEY",
		func(c *Config) *string { return &c.Anthropic.APIKey },
		func(c *Config) *string { return &c.Anthropic.Model }},
	{"openrouter", "OPENROUTER_API_KEY",
		func(c *Config) *string { return &c.OpenRouter.APIKey },
		func(c *Config) *string { return &c.OpenRouter.Model }},
}

// envName returns the KOTOWARI_ variable for a backend setting, e.g.
// KOTOWARI_GEMINI_API_KEY.
func (b backend) envName(setting string) string {
	return "KOTOWARI_" + strings.ToUpper(b.name) + "_" + setting
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from KOTOWARI_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) Config {
	cfg := DefaultConfig()

	if p := getenv("KOTOWARI_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	for _, b := range backends {
		if v := getenv(b.envName("API_KEY")); v != "" {
			*b.key(&cfg) = v
		}
		if v := getenv(b.envName("MODEL")); v != "" {
			*b.model(&cfg) = v
		}
	}
	if u := getenv("KOTOWARI_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}
	if u := getenv("KOTOWARI_OPENROUTER_BASE_URL"); u != "" {
		cfg.OpenRouter.BaseURL = u
	}

	if d, err := time.ParseDuration(getenv("KOTOWARI_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(getenv("KOTOWARI_LLM_RETRIES")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// Resolve returns the explicit KOTOWARI_* configuration when it is valid,
// otherwise whatever DiscoverConfig finds. The second result is false when
// no provider could be configured.
func Resolve() (Config, bool) {
	cfg := ConfigFromEnv()
	if cfg.Validate() == nil {
		return cfg, true
	}
	found, ok := DiscoverConfig()
	if !ok {
		return cfg, false
	}
	found.Timeout = cfg.Timeout
	found.Retry = cfg.Retry
	return found, true
}

// DiscoverConfig returns a Config for the first backend whose
// conventional API key variable (GEMINI_API_KEY, OPENAI_API_KEY, ...) is
// set.
func DiscoverConfig() (Config, bool) {
	for _, b := range backends {
		if k := os.Getenv(b.discoveryKey); k != "" {
			cfg := DefaultConfig()
			cfg.Provider = b.name
			*b.key(&cfg) = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key set.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	for _, b := range backends {
		if b.name != c.Provider {
			continue
		}
		if *b.key(&c) == "" {
			return fmt.Errorf("%s is required for the %s provider", b.envName("API_KEY"), b.name)
		}
		return nil
	}
	return fmt.Errorf("unknown LLM provider: %q", c.Provider)
}
