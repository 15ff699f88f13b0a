package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Reporter receives human oriented progress notifications from agent loops.
// It complements Logger: logs are for machines, reports are for the person
// watching a verbose run.
type Reporter interface {
	TaskStarted(agent, task string)
	Thought(agent, text string)
	ToolCalled(agent, call, result string, success bool)
	Answer(agent, text string)
}

// NoOpReporter discards all notifications.
type NoOpReporter struct{}

// TaskStarted implements Reporter.
func (NoOpReporter) TaskStarted(string, string) {}

// Thought implements Reporter.
func (NoOpReporter) Thought(string, string) {}

// ToolCalled implements Reporter.
func (NoOpReporter) ToolCalled(string, string, string, bool) {}

// Answer implements Reporter.
func (NoOpReporter) Answer(string, string) {}

// ConsoleReporter prints coloured progress to a terminal.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer

	agent   *color.Color
	thought *color.Color
	ok      *color.Color
	failed  *color.Color
	answer  *color.Color
}

// NewConsoleReporter creates a reporter writing to out (stdout when nil).
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{
		out:     out,
		agent:   color.New(color.FgCyan, color.Bold),
		thought: color.New(color.FgHiBlack, color.Italic),
		ok:      color.New(color.FgGreen),
		failed:  color.New(color.FgRed),
		answer:  color.New(color.FgYellow, color.Bold),
	}
}

// TaskStarted implements Reporter.
func (r *ConsoleReporter) TaskStarted(agent, task string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.agent.Fprintf(r.out, "[%s] ", agent)
	_, _ = fmt.Fprintf(r.out, "task: %s\n", task)
}

// Thought implements Reporter.
func (r *ConsoleReporter) Thought(agent, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.agent.Fprintf(r.out, "[%s] ", agent)
	_, _ = r.thought.Fprintln(r.out, text)
}

// ToolCalled implements Reporter.
func (r *ConsoleReporter) ToolCalled(agent, call, result string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mark, c := "✓", r.ok
	if !success {
		mark, c = "✗", r.failed
	}
	_, _ = r.agent.Fprintf(r.out, "[%s] ", agent)
	_, _ = c.Fprintf(r.out, "%s %s\n", mark, call)
	if result != "" {
		_, _ = fmt.Fprintf(r.out, "    %s\n", strings.ReplaceAll(result, "\n", "\n    "))
	}
}

// Answer implements Reporter.
func (r *ConsoleReporter) Answer(agent, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = r.agent.Fprintf(r.out, "[%s] ", agent)
	_, _ = r.answer.Fprintln(r.out, text)
}
