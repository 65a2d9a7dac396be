package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/kotowari/internal/store"
)

type recordedEvents struct {
	events []store.LLMRequestEventData
	err    error
}

func (r *recordedEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "はい", Usage: Usage{InputTokens: 7, OutputTokens: 3}})
	rec := &recordedEvents{}
	p := WithLogging(mock, "mock", rec, zap.NewNop())

	ctx := WithPurpose(context.Background(), "opening")
	resp, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "こんにちは"}}})
	require.NoError(t, err)
	assert.Equal(t, "はい", resp.Text)

	require.Len(t, rec.events, 1)
	e := rec.events[0]
	assert.Equal(t, "mock", e.Provider)
	assert.Equal(t, "opening", e.Purpose)
	assert.True(t, e.Success)
	assert.Equal(t, 7, e.InputTokens)
	assert.Equal(t, "はい", e.ResponseBody)
	assert.Contains(t, e.RequestBody, "[system]\nsys")
	assert.Contains(t, e.RequestBody, "[user]\nこんにちは")
}

func TestLogging_RecordsFailure(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	rec := &recordedEvents{}
	p := WithLogging(mock, "mock", rec, nil)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, rec.events, 1)
	assert.False(t, rec.events[0].Success)
	assert.Contains(t, rec.events[0].ErrorMessage, "down")
	assert.Equal(t, "unknown", rec.events[0].Purpose)
}

func TestLogging_EventWriteFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "ok"})
	rec := &recordedEvents{err: errors.New("disk full")}
	p := WithLogging(mock, "mock", rec, zap.NewNop())

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		return &Response{Text: "late"}, nil
	}
}

func (slowProvider) ModelID() string { return "slow" }

func TestTimeout_Expires(t *testing.T) {
	p := WithTimeout(slowProvider{}, 10*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "slow", p.ModelID())
}

func TestTimeout_ZeroDisables(t *testing.T) {
	mock := NewMockProvider()
	assert.Same(t, mock, WithTimeout(mock, 0))
}

func TestMockProvider_EmptyTextIsInvalid(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: ""})
	_, err := mock.Generate(context.Background(), Request{})
	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"
	rec := &recordedEvents{}

	p, err := NewProvider(context.Background(), cfg, rec, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Len(t, rec.events, 1)
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil)
	require.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("KOTOWARI_LLM_PROVIDER", "gemini")
	t.Setenv("KOTOWARI_GEMINI_API_KEY", "g-key")
	t.Setenv("KOTOWARI_GEMINI_MODEL", "gemini-pro")
	t.Setenv("KOTOWARI_LLM_TIMEOUT", "15s")
	t.Setenv("KOTOWARI_LLM_RETRIES", "5")

	cfg := ConfigFromEnv()
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-pro", cfg.Gemini.Model)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	t.Setenv("KOTOWARI_LLM_TIMEOUT", "not-a-duration")
	cfg := ConfigFromEnv()
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}

func TestResolve_FallsBackToDiscovery(t *testing.T) {
	t.Setenv("KOTOWARI_LLM_PROVIDER", "")
	t.Setenv("KOTOWARI_ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("KOTOWARI_LLM_TIMEOUT", "5s")

	cfg, ok := Resolve()
	require.True(t, ok)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestResolve_NothingConfigured(t *testing.T) {
	for _, k := range []string{
		"KOTOWARI_LLM_PROVIDER", "KOTOWARI_ANTHROPIC_API_KEY",
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
	_, ok := Resolve()
	assert.False(t, ok)
}

func TestConfigFrom_AllBackends(t *testing.T) {
	env := map[string]string{
		"KOTOWARI_LLM_PROVIDER":        "openrouter",
		"KOTOWARI_ANTHROPIC_MODEL":     "claude-sonnet",
		"KOTOWARI_OPENAI_API_KEY":      "sk-oa",
		"KOTOWARI_OPENROUTER_API_KEY":  "sk-or",
		"KOTOWARI_OPENROUTER_BASE_URL": "http://localhost:9999/v1",
	}
	cfg := configFrom(func(k string) string { return env[k] })

	assert.Equal(t, "openrouter", cfg.Provider)
	assert.Equal(t, "claude-sonnet", cfg.Anthropic.Model)
	assert.Equal(t, "sk-oa", cfg.OpenAI.APIKey)
	assert.Equal(t, "sk-or", cfg.OpenRouter.APIKey)
	assert.Equal(t, "http://localhost:9999/v1", cfg.OpenRouter.BaseURL)
	assert.Equal(t, "gemini-flash", cfg.Gemini.Model)
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "gemini"
	assert.ErrorContains(t, cfg.Validate(), "KOTOWARI_GEMINI_API_KEY")
}

func TestDiscoverConfig_PrefersGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "g-key", cfg.Gemini.APIKey)
}
