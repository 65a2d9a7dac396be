// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/abhisek/kotowari/internal/llm"
	"github.com/abhisek/kotowari/internal/store"
	"github.com/abhisek/kotowari/internal/verdict"
)

// Blob backends.
const (
	BackendSQL  = "sql"
	BackendFile = "file"
)

// Config holds all application configuration.
type Config struct {
	// DBDriver is "sqlite" or "postgres".
	DBDriver string

	// DSN is the database path (sqlite) or connection string (postgres).
	DSN string

	// Backend selects where progress and chat logs live: "sql" stores them
	// in the database blobs table, "file" writes one JSON file per user
	// under DataDir.
	Backend string
	DataDir string

	// User is the default user identifier for the TUI and CLI.
	User string

	Verdict     verdict.Tokens
	MaxTokens   int
	Temperature float64

	HTTPAddr string

	Log LogConfig
	LLM llm.Config

	// LLMConfigured is false when no provider credentials were found.
	LLMConfigured bool
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string // debug, info, warn, error
	File        string // empty means stderr
	Development bool
}

// Load reads configuration from KOTOWARI_* environment variables. Call
// godotenv first to pick up a .env file.
func Load() (*Config, error) {
	dataDir := getEnv("KOTOWARI_DATA_DIR", "")
	if dataDir == "" {
		d, err := store.DefaultDataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = d
	}

	llmCfg, ok := llm.Resolve()

	cfg := &Config{
		DBDriver: strings.ToLower(getEnv("KOTOWARI_DB_DRIVER", "sqlite")),
		DSN:      getEnv("KOTOWARI_DB", ""),
		Backend:  strings.ToLower(getEnv("KOTOWARI_BACKEND", BackendSQL)),
		DataDir:  dataDir,
		User:     getEnv("KOTOWARI_USER", defaultUser()),
		Verdict: verdict.Tokens{
			Pass: getEnv("KOTOWARI_VERDICT_PASS", verdict.DefaultPassToken),
			Fail: getEnv("KOTOWARI_VERDICT_FAIL", verdict.DefaultFailToken),
		},
		MaxTokens:   getEnvInt("KOTOWARI_MAX_TOKENS", 2048),
		Temperature: getEnvFloat("KOTOWARI_TEMPERATURE", 0.7),
		HTTPAddr:    getEnv("KOTOWARI_HTTP_ADDR", ":8080"),
		Log: LogConfig{
			Level:       strings.ToLower(getEnv("KOTOWARI_LOG_LEVEL", "info")),
			File:        getEnv("KOTOWARI_LOG_FILE", ""),
			Development: getEnvBool("KOTOWARI_LOG_DEV", false),
		},
		LLM:           llmCfg,
		LLMConfigured: ok,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("KOTOWARI_DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.DSN == "" {
		return fmt.Errorf("KOTOWARI_DB is required for postgres")
	}
	switch c.Backend {
	case BackendSQL, BackendFile:
	default:
		return fmt.Errorf("KOTOWARI_BACKEND must be sql or file, got %q", c.Backend)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir cannot be empty")
	}
	if strings.TrimSpace(c.Verdict.Pass) == "" || strings.TrimSpace(c.Verdict.Fail) == "" {
		return fmt.Errorf("verdict tokens cannot be empty")
	}
	if c.Verdict.Pass == c.Verdict.Fail {
		return fmt.Errorf("pass and fail verdict tokens must differ")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("KOTOWARI_MAX_TOKENS must be > 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("KOTOWARI_TEMPERATURE must be between 0 and 2")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("KOTOWARI_LOG_LEVEL must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// DBPath returns the sqlite database path, defaulting to a file in DataDir.
// The parent directory is created.
func (c *Config) DBPath() (string, error) {
	p := c.DSN
	if p == "" {
		p = filepath.Join(c.DataDir, "kotowari.db")
	}
	return p, store.EnsureDir(p)
}

// BlobDir is the root directory of the file backend.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blobs")
}

func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "default"
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}
