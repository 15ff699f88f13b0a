package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/unison/core"
)

// Request captures the normalized model input produced by the agent loop.
type Request struct {
	System   string         `json:"system"`
	Messages []core.Message `json:"messages"`
}

// Prompt flattens the request into a single prompt for text-only backends.
func (r Request) Prompt() string {
	var b strings.Builder
	if s := strings.TrimSpace(r.System); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	for _, t := range Conversation(r.Messages) {
		fmt.Fprintf(&b, "%s: %s\n\n", strings.ToUpper(string(t.Role)), t.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// LastUserText returns the content of the most recent user or tool message.
func (r Request) LastUserText() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role != core.RoleAssistant {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Model is the minimal interface an agent needs to drive generation.
//
// Run blocks until the completion is available. Reset clears any
// conversation state a backend keeps between calls; it is invoked before
// each run and around clan planning.
type Model interface {
	Run(ctx context.Context, req Request) (string, error)
	Reset()
	Info() Info
}

// Turn is one provider message after tool results have been folded into
// user turns.
type Turn struct {
	Role core.Role
	Text string
}

// ToolResultLabel prefixes tool messages sent to providers as user turns.
const ToolResultLabel = "[tool results]"

// Conversation converts history messages into alternating user/assistant
// turns. Tool messages become user text under ToolResultLabel and
// consecutive turns of the same role are merged.
func Conversation(msgs []core.Message) []Turn {
	var turns []Turn
	for _, m := range msgs {
		role, text := m.Role, m.Content
		switch m.Role {
		case core.RoleTool:
			role, text = core.RoleUser, ToolResultLabel+"\n"+m.Content
		case core.RoleSystem:
			role = core.RoleUser
		}
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Text += "\n\n" + text
			continue
		}
		turns = append(turns, Turn{Role: role, Text: text})
	}
	return turns
}

// Func adapts a plain function to the Model interface.
type Func func(ctx context.Context, req Request) (string, error)

// Run calls f.
func (f Func) Run(ctx context.Context, req Request) (string, error) { return f(ctx, req) }

// Reset is a no-op.
func (Func) Reset() {}

// Info implements Model.
func (Func) Info() Info { return Info{Name: "func", Provider: "local"} }
