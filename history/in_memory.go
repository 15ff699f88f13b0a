package history

import (
	"context"
	"sync"

	"github.com/hupe1980/unison/core"
)

// InMemoryStore is a volatile HistoryStore implementation storing messages
// in a process local map. It is safe for concurrent access. Loaded slices
// are copies, so callers cannot mutate stored state.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory history store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string][]core.Message)}
}

// Load returns a copy of the messages recorded for identity. Unknown
// identities yield an empty history.
func (s *InMemoryStore) Load(_ context.Context, identity string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.records[identity]
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds msg to the record of identity.
func (s *InMemoryStore) Append(_ context.Context, identity string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[identity] = append(s.records[identity], msg)
	return nil
}

// Identities lists every identity with at least one message.
func (s *InMemoryStore) Identities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}

var _ core.HistoryStore = (*InMemoryStore)(nil)
