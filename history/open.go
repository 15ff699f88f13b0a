package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/unison/core"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds a store from a backend name and a location. For the file
// backend location is a folder; for sqlite it is either a database file or
// a folder, in which case history.db is created inside it. An empty backend
// selects memory.
func Open(backend, location string) (core.HistoryStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendMemory:
		return NewInMemoryStore(), nil
	case BackendFile:
		return NewFileStore(location)
	case BackendSQLite:
		if location == "" {
			return nil, errors.New("sqlite history requires a location")
		}
		if filepath.Ext(location) == "" {
			if err := os.MkdirAll(location, 0o755); err != nil {
				return nil, fmt.Errorf("create history folder: %w", err)
			}
			location = filepath.Join(location, "history.db")
		}
		return OpenSQLite(location)
	}
	return nil, core.NewError(core.CodeInvalidConfig, "", fmt.Sprintf("unknown history backend %q", backend))
}
