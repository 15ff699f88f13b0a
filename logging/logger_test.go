package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, level LogLevel) *StructuredLogger {
	return NewLogger(&LoggerConfig{Level: level, Format: "json", Output: buf})
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LogLevelDebug,
		" WARN ":  LogLevelWarn,
		"warning": LogLevelWarn,
		"error":   LogLevelError,
		"off":     LogLevelOff,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestStructuredLogger_Scopes(t *testing.T) {
	var buf bytes.Buffer
	base := newBufferLogger(&buf, LogLevelDebug)

	base.WithContext("service", "unison").
		WithComponent("clan").
		WithRun("writer", "run-1").
		Info("agent.run.start", "max_turns", 3)
	base.Debug("plain")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)

	assert.Equal(t, "agent.run.start", entries[0]["msg"])
	assert.Equal(t, "unison", entries[0]["service"])
	assert.Equal(t, "clan", entries[0]["component"])
	assert.Equal(t, "writer", entries[0]["agent"])
	assert.Equal(t, "run-1", entries[0]["run_id"])
	assert.EqualValues(t, 3, entries[0]["max_turns"])

	assert.NotContains(t, entries[1], "agent", "With* returns a copy")
	assert.NotContains(t, entries[1], "service")
}

func TestStructuredLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf, LogLevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")
	l.Error("shown too")
	assert.Len(t, decodeLines(t, &buf), 2)

	buf.Reset()
	off := newBufferLogger(&buf, LogLevelOff)
	off.Error("never")
	assert.Empty(t, buf.String())
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil)))
	LogModelCall(l, "gpt-4o-mini", 0, assert.AnError)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.call.failed", entries[0]["msg"])
	assert.Equal(t, "gpt-4o-mini", entries[0]["model"])
}

func TestConsoleReporter(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)
	r.TaskStarted("writer", "draft a title")
	r.Thought("writer", "  ")
	r.ToolCalled("writer", `word_count(text="Go Fast")`, "2", true)
	r.ToolCalled("writer", "explode()", "Error: kaboom\nstack", false)
	r.Answer("writer", "Go Fast")

	assert.Equal(t,
		"[writer] task: draft a title\n"+
			"[writer] ✓ word_count(text=\"Go Fast\")\n"+
			"    2\n"+
			"[writer] ✗ explode()\n"+
			"    Error: kaboom\n    stack\n"+
			"[writer] Go Fast\n",
		buf.String())
}
