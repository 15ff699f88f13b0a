package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoPath is returned by NewFileSink and Truncate for an empty path.
var ErrNoPath = errors.New("output path is required")

// Sink receives the final answer of an agent or clan run.
type Sink interface {
	Write(ctx context.Context, text string) error
}

// FileSink writes answers to a single file.
type FileSink struct {
	Path string
}

// NewFileSink creates a sink for path. Parent directories are created on
// the first write.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	return &FileSink{Path: path}, nil
}

// Write replaces the file contents with text.
func (s *FileSink) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".output-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("write output %s: %w", s.Path, err)
	}
	return nil
}

// Truncate creates path, or empties it when it already exists.
func Truncate(path string) error {
	if path == "" {
		return ErrNoPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("truncate output %s: %w", path, err)
	}
	return f.Close()
}

// MemorySink records every write in process.
type MemorySink struct {
	mu     sync.RWMutex
	writes []string
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write records text.
func (m *MemorySink) Write(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, text)
	return nil
}

// Last returns the most recent write and whether there was one.
func (m *MemorySink) Last() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.writes) == 0 {
		return "", false
	}
	return m.writes[len(m.writes)-1], true
}

// Writes returns a snapshot of all writes in order.
func (m *MemorySink) Writes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.writes))
	copy(out, m.writes)
	return out
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*MemorySink)(nil)
)
