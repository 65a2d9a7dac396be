package llm

import (
	"context"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Text  string
	Usage Usage
	Err   error
}

// MockProvider is a deterministic Provider for testing and offline use.
// It returns canned responses in FIFO order and records all requests.
// Once the queue is drained it falls back to Fallback when set.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request

	// Fallback, when non-nil, produces a reply once the queue is empty.
	Fallback func(Request) string
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewEchoProvider returns a MockProvider that answers every request with a
// short in-character line. Used by the "mock" provider setting so the app
// can be explored without an API key.
func NewEchoProvider() *MockProvider {
	return &MockProvider{Fallback: func(req Request) string {
		if len(req.Messages) == 0 {
			return "（モック）こんにちは。今週末、一緒に出かけませんか？"
		}
		last := req.Messages[len(req.Messages)-1]
		return "（モック）「" + last.Content + "」と受け取りました。"
	}}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty and no fallback is set.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		if m.Fallback != nil {
			return &Response{Text: m.Fallback(req), Model: "mock", StopReason: StopEnd}, nil
		}
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := checkText(resp.Text, StopEnd); err != nil {
		return nil, err
	}

	return &Response{
		Text:       resp.Text,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: StopEnd,
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// Reply queues a successful text response.
func (m *MockProvider) Reply(text string) {
	m.AddResponse(MockResponse{Text: text})
}

// Fail queues an error response.
func (m *MockProvider) Fail(err error) {
	m.AddResponse(MockResponse{Err: err})
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or the zero Request.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}
	}
	return m.Calls[len(m.Calls)-1]
}
