package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/unison/core"
)

// SQLiteStore persists messages as rows of the history_messages table.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// NewSQLiteStore wraps an open database and ensures the schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureHistorySchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// OpenSQLite opens (or creates) the database file at path. The returned
// store owns the connection and closes it on Close.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	s.owned = true
	return s, nil
}

// Load returns the messages of identity in insertion order.
func (s *SQLiteStore) Load(ctx context.Context, identity string) ([]core.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, role, content, created_at
		FROM history_messages
		WHERE identity = ?
		ORDER BY rowid ASC
	`, identity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []core.Message{}
	for rows.Next() {
		var (
			msg     core.Message
			role    string
			created string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &created); err != nil {
			return nil, err
		}
		msg.Role = core.Role(role)
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			msg.Timestamp = ts
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Append inserts msg for identity.
func (s *SQLiteStore) Append(ctx context.Context, identity string, msg core.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history_messages (identity, message_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		identity,
		msg.ID,
		string(msg.Role),
		msg.Content,
		msg.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Close releases the connection when the store opened it.
func (s *SQLiteStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

func ensureHistorySchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS history_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identity TEXT NOT NULL,
			message_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_history_messages_identity ON history_messages (identity)`)
	return err
}

var _ core.HistoryStore = (*SQLiteStore)(nil)
