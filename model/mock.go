package model

import (
	"context"
	"errors"
	"sync"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It answers with a canned completion keyed by the latest user or tool
// message, falling back to an echo.
type MockModel struct {
	mu        sync.RWMutex
	info      Info
	responses map[string]string
}

// NewMockModel constructs an empty MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic completion for an input text.
func (m *MockModel) AddResponse(input, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[input] = response
}

// Run implements Model.
func (m *MockModel) Run(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(req.Messages) == 0 {
		return "", errors.New("no messages provided")
	}
	input := req.LastUserText()

	m.mu.RLock()
	defer m.mu.RUnlock()
	if out, ok := m.responses[input]; ok {
		return out, nil
	}
	return "Mock response to: " + input, nil
}

// Reset is a no-op.
func (m *MockModel) Reset() {}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// ScriptedModel returns a pre-defined sequence of completions, one per
// call. Useful for multi-turn loop tests.
type ScriptedModel struct {
	mu        sync.Mutex
	responses []string
	// Err, when set, is returned by every call.
	Err error

	calls  []Request
	resets int
}

// NewScriptedModel creates a model that replays responses in order.
func NewScriptedModel(responses ...string) *ScriptedModel {
	return &ScriptedModel{responses: responses}
}

// Run pops the next scripted response or returns the configured error.
func (s *ScriptedModel) Run(ctx context.Context, req Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.responses) == 0 {
		return "", errors.New("scripted model: no more responses available")
	}

	out := s.responses[0]
	s.responses = s.responses[1:]
	return out, nil
}

// AddResponse appends a response to the queue.
func (s *ScriptedModel) AddResponse(response ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, response...)
}

// Reset counts resets; the script is kept.
func (s *ScriptedModel) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
}

// Info implements Model.
func (s *ScriptedModel) Info() Info { return Info{Name: "scripted", Provider: "mock"} }

// Calls returns the requests received so far.
func (s *ScriptedModel) Calls() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times Run has been called.
func (s *ScriptedModel) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Resets returns how many times Reset has been called.
func (s *ScriptedModel) Resets() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resets
}

// Remaining returns the number of unused responses.
func (s *ScriptedModel) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

var (
	_ Model = (*MockModel)(nil)
	_ Model = (*ScriptedModel)(nil)
	_ Model = Func(nil)
)
