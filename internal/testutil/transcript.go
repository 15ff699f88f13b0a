package testutil

import (
	"strings"
	"time"

	"github.com/hupe1980/unison/core"
)

// Reply builds one model completion.
// Example:
//
//	out := testutil.NewReply().Think("need the sum").Call(`add(a=2, b=3)`).String()
//
// Segments are joined with newlines in the order they were added.
type Reply struct {
	parts []string
}

// NewReply starts an empty completion.
func NewReply() *Reply { return &Reply{} }

// Think appends a <think> block.
func (r *Reply) Think(text string) *Reply {
	r.parts = append(r.parts, "<think>"+text+"</think>")
	return r
}

// Call appends a <tool> region containing call.
func (r *Reply) Call(call string) *Reply {
	r.parts = append(r.parts, "<tool>"+call+"</tool>")
	return r
}

// Text appends free text.
func (r *Reply) Text(text string) *Reply {
	r.parts = append(r.parts, text)
	return r
}

// String renders the completion.
func (r *Reply) String() string { return strings.Join(r.parts, "\n") }

// HistoryBuilder seeds a message log in tests.
// Example:
//
//	msgs := testutil.NewHistory().User("task").Assistant("done").Build()
type HistoryBuilder struct {
	msgs []core.Message
	at   time.Time
}

// NewHistory starts an empty log with deterministic timestamps.
func NewHistory() *HistoryBuilder {
	return &HistoryBuilder{at: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (b *HistoryBuilder) add(role core.Role, content string) *HistoryBuilder {
	msg := core.NewMessage(role, content)
	msg.Timestamp = b.at.Add(time.Duration(len(b.msgs)) * time.Second)
	b.msgs = append(b.msgs, msg)
	return b
}

// User appends a user message (chainable).
func (b *HistoryBuilder) User(content string) *HistoryBuilder { return b.add(core.RoleUser, content) }

// Assistant appends an assistant message (chainable).
func (b *HistoryBuilder) Assistant(content string) *HistoryBuilder {
	return b.add(core.RoleAssistant, content)
}

// Tool appends a tool message (chainable).
func (b *HistoryBuilder) Tool(content string) *HistoryBuilder { return b.add(core.RoleTool, content) }

// Build returns a copy of the accumulated messages.
func (b *HistoryBuilder) Build() []core.Message {
	out := make([]core.Message, len(b.msgs))
	copy(out, b.msgs)
	return out
}

// Contents returns only the message contents, handy for equality checks.
func Contents(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

// Roles returns the role sequence of msgs.
func Roles(msgs []core.Message) []core.Role {
	out := make([]core.Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}
