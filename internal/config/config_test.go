package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/kotowari/internal/verdict"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"KOTOWARI_DB_DRIVER", "KOTOWARI_DB", "KOTOWARI_BACKEND", "KOTOWARI_DATA_DIR",
		"KOTOWARI_USER", "KOTOWARI_VERDICT_PASS", "KOTOWARI_VERDICT_FAIL",
		"KOTOWARI_MAX_TOKENS", "KOTOWARI_TEMPERATURE", "KOTOWARI_HTTP_ADDR",
		"KOTOWARI_LOG_LEVEL", "KOTOWARI_LOG_FILE", "KOTOWARI_LOG_DEV",
		"KOTOWARI_LLM_PROVIDER", "KOTOWARI_ANTHROPIC_API_KEY", "KOTOWARI_OPENAI_API_KEY",
		"KOTOWARI_GEMINI_API_KEY", "KOTOWARI_OPENROUTER_API_KEY",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("KOTOWARI_DATA_DIR", dir)
	t.Setenv("KOTOWARI_USER", "hana")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, BackendSQL, cfg.Backend)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "hana", cfg.User)
	assert.Equal(t, verdict.DefaultTokens(), cfg.Verdict)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.LLMConfigured)

	p, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "kotowari.db"), p)
	assert.Equal(t, filepath.Join(dir, "blobs"), cfg.BlobDir())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KOTOWARI_DATA_DIR", t.TempDir())
	t.Setenv("KOTOWARI_DB_DRIVER", "POSTGRES")
	t.Setenv("KOTOWARI_DB", "postgres://localhost/kotowari")
	t.Setenv("KOTOWARI_BACKEND", "file")
	t.Setenv("KOTOWARI_VERDICT_PASS", "PASS")
	t.Setenv("KOTOWARI_VERDICT_FAIL", "FAIL")
	t.Setenv("KOTOWARI_MAX_TOKENS", "512")
	t.Setenv("KOTOWARI_TEMPERATURE", "0")
	t.Setenv("KOTOWARI_LOG_LEVEL", "debug")
	t.Setenv("KOTOWARI_LOG_DEV", "yes")
	t.Setenv("KOTOWARI_LLM_PROVIDER", "mock")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, verdict.Tokens{Pass: "PASS", Fail: "FAIL"}, cfg.Verdict)
	assert.Equal(t, 512, cfg.MaxTokens)
	assert.Zero(t, cfg.Temperature)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.LLMConfigured)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBDriver:    "sqlite",
			Backend:     BackendSQL,
			DataDir:     "/tmp/kotowari",
			Verdict:     verdict.DefaultTokens(),
			MaxTokens:   100,
			Temperature: 0.5,
			Log:         LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DBDriver = "postgres" }},
		{"unknown backend", func(c *Config) { c.Backend = "s3" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty pass token", func(c *Config) { c.Verdict.Pass = " " }},
		{"equal tokens", func(c *Config) { c.Verdict.Fail = c.Verdict.Pass }},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
