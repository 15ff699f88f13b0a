package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/unison/core"
	"github.com/hupe1980/unison/logging"
)

func newStores(t *testing.T) map[string]core.HistoryStore {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	sq, err := OpenSQLite(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]core.HistoryStore{
		"memory": NewInMemoryStore(),
		"file":   fs,
		"sqlite": sq,
	}
}

func TestStores_AppendAndLoad(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := store.Load(ctx, "Researcher")
			require.NoError(t, err)
			assert.Empty(t, empty)

			first := core.NewMessage(core.RoleUser, "find the capital of France")
			second := core.NewMessage(core.RoleAssistant, `<tool>search(query="capital of France")</tool>`)
			require.NoError(t, store.Append(ctx, "Researcher", first))
			require.NoError(t, store.Append(ctx, "Researcher", second))
			require.NoError(t, store.Append(ctx, "Writer", core.NewMessage(core.RoleUser, "other")))

			msgs, err := store.Load(ctx, "Researcher")
			require.NoError(t, err)
			require.Len(t, msgs, 2)
			assert.Equal(t, first.ID, msgs[0].ID)
			assert.Equal(t, core.RoleUser, msgs[0].Role)
			assert.Equal(t, second.Content, msgs[1].Content)
			assert.True(t, first.Timestamp.Equal(msgs[0].Timestamp))
		})
	}
}

func TestStores_RestoreThroughCoreHistory(t *testing.T) {
	ctx := context.Background()
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			h := core.LoadHistory(ctx, store, "Analyst", logging.NoOpLogger{})
			h.Append(ctx, core.RoleUser, "task")
			h.Append(ctx, core.RoleAssistant, "answer")

			restored := core.LoadHistory(ctx, store, "Analyst", logging.NoOpLogger{})
			require.Equal(t, h.Len(), restored.Len())
			for i, m := range restored.Messages() {
				assert.Equal(t, h.Messages()[i].ID, m.ID)
				assert.Equal(t, h.Messages()[i].Content, m.Content)
			}
		})
	}
}

func TestInMemoryStore_LoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Append(ctx, "a", core.NewMessage(core.RoleUser, "hi")))

	msgs, _ := s.Load(ctx, "a")
	msgs[0].Content = "mutated"

	again, _ := s.Load(ctx, "a")
	assert.Equal(t, "hi", again[0].Content)
	assert.Equal(t, []string{"a"}, s.Identities())
}

func TestFileStore_SanitizesIdentity(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	path := s.Path("../../etc/passwd")
	assert.Equal(t, dir, filepath.Dir(path))

	require.NoError(t, s.Append(context.Background(), "../escape", core.NewMessage(core.RoleUser, "x")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path("Broken"), []byte("{not json"), 0o644))

	_, err = s.Load(context.Background(), "Broken")
	assert.Error(t, err)

	h := core.LoadHistory(context.Background(), s, "Broken", logging.NoOpLogger{})
	assert.Equal(t, 0, h.Len())
}

func TestFileStore_AppendAfterMalformedFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path("writer"), []byte("{not json"), 0o644))

	ctx := context.Background()
	h := core.LoadHistory(ctx, s, "writer", logging.NoOpLogger{})
	h.Append(ctx, core.RoleUser, "draft a title")
	h.Append(ctx, core.RoleAssistant, "Go Fast")

	msgs, err := s.Load(ctx, "writer")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "draft a title", msgs[0].Content)
	assert.Equal(t, "Go Fast", msgs[1].Content)

	corrupt, err := filepath.Glob(s.Path("writer") + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, corrupt, 1)
	data, err := os.ReadFile(corrupt[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", "")
	require.NoError(t, err)
	assert.IsType(t, &InMemoryStore{}, s)

	s, err = Open("file", filepath.Join(dir, "hist"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open("SQLite", filepath.Join(dir, "db"))
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	assert.NoError(t, s.(*SQLiteStore).Close())
	assert.FileExists(t, filepath.Join(dir, "db", "history.db"))

	_, err = Open("redis", "")
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
