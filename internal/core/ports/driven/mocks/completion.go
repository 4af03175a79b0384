package mocks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/carbonledger/verify-core/internal/core/domain"
)

// MockCompletionService is a scriptable in-memory CompletionService.
// Responses are matched by substring of the instructions, falling back to a
// default response, so tests can route extractor and synthesis prompts
// independently.
type MockCompletionService struct {
	mu sync.Mutex

	// Default is returned when no scripted response matches
	Default json.RawMessage

	// Err, when set, is returned by every Complete call
	Err error

	// PingErr, when set, makes Ping fail
	PingErr error

	responses []scriptedResponse
	calls     []CompletionCall
}

type scriptedResponse struct {
	match    string
	response json.RawMessage
	err      error
}

// CompletionCall records one invocation for assertions.
type CompletionCall struct {
	Instructions string
	Content      string
}

// NewMockCompletionService creates a mock with an empty-object default.
func NewMockCompletionService() *MockCompletionService {
	return &MockCompletionService{Default: json.RawMessage(`{}`)}
}

// Respond scripts a response for instructions containing match.
func (m *MockCompletionService) Respond(match string, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, scriptedResponse{match: match, response: json.RawMessage(response)})
}

// FailOn scripts an error for instructions containing match.
func (m *MockCompletionService) FailOn(match string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, scriptedResponse{match: match, err: err})
}

func (m *MockCompletionService) Complete(ctx context.Context, instructions, content string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, CompletionCall{Instructions: instructions, Content: content})

	if m.Err != nil {
		return nil, m.Err
	}
	for _, r := range m.responses {
		if r.match != "" && strings.Contains(instructions+content, r.match) {
			if r.err != nil {
				return nil, r.err
			}
			return r.response, nil
		}
	}
	return m.Default, nil
}

// Calls returns all recorded invocations.
func (m *MockCompletionService) Calls() []CompletionCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Complete ran.
func (m *MockCompletionService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockCompletionService) Model() string { return "mock-model" }

func (m *MockCompletionService) Ping(ctx context.Context) error {
	if m.PingErr != nil {
		return domain.ErrServiceUnavailable
	}
	return nil
}

func (m *MockCompletionService) Close() error { return nil }
