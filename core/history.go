package core

import (
	"context"
	"sync"

	"github.com/hupe1980/unison/logging"
)

// HistoryStore persists conversation histories keyed by agent identity.
//
// Append is called once per message, immediately after the message is
// produced. Implementations must be safe for concurrent use by different
// identities; a single identity is only ever written by its owning agent.
type HistoryStore interface {
	Load(ctx context.Context, identity string) ([]Message, error)
	Append(ctx context.Context, identity string, msg Message) error
}

// History is the ordered message log of one agent identity. It is owned by
// that agent's loop and passed by reference to collaborators that only read.
type History struct {
	mu       sync.RWMutex
	identity string
	store    HistoryStore
	messages []Message

	*loggerAdapter
}

// NewHistory creates an empty history bound to store (which may be nil for a
// purely in-process history).
func NewHistory(identity string, store HistoryStore, logger logging.Logger) *History {
	return &History{identity: identity, store: store, messages: []Message{}, loggerAdapter: newLoggerAdapter(logger, "agent", identity)}
}

// LoadHistory restores the history of identity from store. A missing or
// unreadable record is not an error: the history starts empty and a warning
// is logged.
func LoadHistory(ctx context.Context, store HistoryStore, identity string, logger logging.Logger) *History {
	h := NewHistory(identity, store, logger)
	if store == nil {
		return h
	}
	msgs, err := store.Load(ctx, identity)
	if err != nil {
		h.LogWarn("history.load.failed", "error", err.Error())
		return h
	}
	for _, m := range msgs {
		if !m.Role.Valid() {
			h.LogWarn("history.load.skip", "role", string(m.Role))
			continue
		}
		h.messages = append(h.messages, m)
	}
	h.LogDebug("history.load", "messages", len(h.messages))
	return h
}

// Identity returns the agent identity the history belongs to.
func (h *History) Identity() string { return h.identity }

// Append records a new message and flushes it to the store before returning.
// Flush failures are logged; the in-memory history stays authoritative for
// the rest of the run.
func (h *History) Append(ctx context.Context, role Role, content string) Message {
	msg := NewMessage(role, content)

	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()

	if h.store != nil {
		if err := h.store.Append(ctx, h.identity, msg); err != nil {
			h.LogWarn("history.flush.failed", "message_id", msg.ID, "error", err.Error())
		}
	}
	return msg
}

// Messages returns a copy of all messages in order.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recent message with the given role.
func (h *History) Last(role Role) (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.messages) - 1; i >= 0; i-- {
		if h.messages[i].Role == role {
			return h.messages[i], true
		}
	}
	return Message{}, false
}
