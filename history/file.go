package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/unison/core"
)

// FileStore persists each agent's history as a JSON array in
// <root>/<identity>.json. Every Append rewrites the file through a temp file
// and rename, so a crash never leaves a half written record behind.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates the root folder if needed.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("history folder is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create history folder: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the folder holding the history files.
func (s *FileStore) Root() string { return s.root }

// Path returns the file used for identity.
func (s *FileStore) Path(identity string) string {
	return filepath.Join(s.root, fileName(identity)+".json")
}

// errMalformed marks a history file that exists but cannot be decoded.
var errMalformed = errors.New("malformed history file")

// Load reads the history of identity. A missing file is an empty history;
// a malformed one is an error.
func (s *FileStore) Load(_ context.Context, identity string) ([]core.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(identity)
}

// Append adds msg to the file of identity. A malformed file is moved aside
// to <identity>.json.corrupt-<unix> and a fresh history is started.
func (s *FileStore) Append(_ context.Context, identity string, msg core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.readLocked(identity)
	if errors.Is(err, errMalformed) {
		path := s.Path(identity)
		if rerr := os.Rename(path, fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())); rerr != nil {
			return fmt.Errorf("move aside history %s: %w", identity, rerr)
		}
		msgs, err = []core.Message{}, nil
	}
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)

	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history %s: %w", identity, err)
	}
	return writeAtomic(s.Path(identity), data)
}

func (s *FileStore) readLocked(identity string) ([]core.Message, error) {
	data, err := os.ReadFile(s.Path(identity))
	if errors.Is(err, os.ErrNotExist) {
		return []core.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", identity, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []core.Message{}, nil
	}
	var msgs []core.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode history %s: %w: %w", identity, errMalformed, err)
	}
	return msgs, nil
}

// fileName maps an identity to a safe base name.
func fileName(identity string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(identity))
	name = filepath.Base(name)
	if name == "." || name == ".." || name == "" {
		name = "_"
	}
	return name
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".history-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

var _ core.HistoryStore = (*FileStore)(nil)
