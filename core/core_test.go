package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/unison/logging"
)

type logEntry struct {
	msg  string
	args []any
}

type testLogger struct {
	mu      sync.Mutex
	warns   []string
	entries []logEntry
}

func (l *testLogger) record(msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{msg: msg, args: args})
}

func (l *testLogger) Debug(msg string, args ...any) { l.record(msg, args) }
func (l *testLogger) Info(msg string, args ...any)  { l.record(msg, args) }
func (l *testLogger) Warn(msg string, args ...any) {
	l.record(msg, args)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *testLogger) Error(msg string, args ...any) { l.record(msg, args) }

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("run: %w", NewError(CodeTurnLimitExceeded, "writer", "exceeded max turns: 3"))

	assert.ErrorIs(t, err, ErrTurnLimitExceeded)
	assert.NotErrorIs(t, err, ErrModelBackend)

	code, ok := CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, CodeTurnLimitExceeded, code)
	assert.Contains(t, err.Error(), "[writer]")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError(CodeModelBackend, "a", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrModelBackend)
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"backend", WrapError(CodeModelBackend, "a", errors.New("x")), true},
		{"turn limit", NewError(CodeTurnLimitExceeded, "a", ""), false},
		{"fatal unknown agent", &Error{Code: CodeUnknownAgent, Fatal: true}, true},
		{"recoverable unknown agent", &Error{Code: CodeUnknownAgent}, false},
		{"nested backend", &Error{Code: CodeUnrecoverableParseError, Err: WrapError(CodeModelBackend, "b", nil)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTerminal(tt.err))
		})
	}
}

func TestPartialAnswer(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &Error{Code: CodeTurnLimitExceeded, Partial: "half done"})

	partial, ok := PartialAnswer(err)
	assert.True(t, ok)
	assert.Equal(t, "half done", partial)

	_, ok = PartialAnswer(errors.New("other"))
	assert.False(t, ok)
}

func TestTurnLimiter(t *testing.T) {
	tl := NewTurnLimiter(2)

	require.NoError(t, tl.Increment())
	require.NoError(t, tl.Increment())
	assert.Equal(t, 0, tl.Remaining())

	err := tl.Increment()
	assert.ErrorIs(t, err, ErrTurnLimitExceeded)
	assert.Equal(t, 2, tl.Count(), "rejected turns are not counted")

	unlimited := NewTurnLimiter(0)
	for i := 0; i < 50; i++ {
		require.NoError(t, unlimited.Increment())
	}
	assert.Equal(t, -1, unlimited.Remaining())
}

func TestToolContext(t *testing.T) {
	plan, err := NewPlan("goal", []PlanStep{{Description: "step"}}, "")
	require.NoError(t, err)

	ctx := WithPlan(context.Background(), plan)
	rc := NewRunContext(ctx, "run-1", AgentInfo{Name: "Researcher", Role: RoleMember}, "task", nil, 5, nil)
	tc := NewToolContext(rc, "call-1")

	assert.Equal(t, "run-1", tc.RunID())
	assert.Equal(t, "call-1", tc.CallID())
	assert.Equal(t, "Researcher", tc.AgentName())
	assert.Equal(t, RoleMember, tc.AgentInfo().Role)
	assert.Same(t, plan, tc.Plan())
	assert.NotNil(t, tc.Logger())
	assert.Equal(t, "Researcher", rc.History.Identity())
}

func TestLoggerScopes(t *testing.T) {
	logger := &testLogger{}
	rc := NewRunContext(context.Background(), "run-7", AgentInfo{Name: "writer"}, "task", nil, 0, logger)
	tc := NewToolContext(rc, "call-2")

	rc.LogInfo("agent.run.start", "max_turns", 3)
	tc.LogDebug("tool.pass_result")
	rc.History.LogWarn("history.flush.failed", "message_id", "m-1")

	require.Len(t, logger.entries, 3)
	assert.Equal(t, []any{"agent", "writer", "run_id", "run-7", "max_turns", 3}, logger.entries[0].args)
	assert.Equal(t, []any{"agent", "writer", "run_id", "run-7", "call_id", "call-2"}, logger.entries[1].args)
	assert.Equal(t, []any{"agent", "writer", "message_id", "m-1"}, logger.entries[2].args)
}

func TestLoggerScopes_StructuredLoggerBindsRun(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "json", Output: &buf})

	rc := NewRunContext(context.Background(), "run-9", AgentInfo{Name: "editor"}, "task", nil, 0, logger)
	rc.LogInfo("agent.run.done", "turns", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agent.run.done", entry["msg"])
	assert.Equal(t, "editor", entry["agent"])
	assert.Equal(t, "run-9", entry["run_id"])
	assert.EqualValues(t, 2, entry["turns"])
}
