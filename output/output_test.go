package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_WriteReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "answer.txt")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Write(context.Background(), "first"))
	require.NoError(t, sink.Write(context.Background(), "second\nanswer"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\nanswer", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileSink_CancelledContext(t *testing.T) {
	sink, err := NewFileSink(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sink.Write(ctx, "x"), context.Canceled)
	_, err = os.Stat(sink.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileSink_NoPath(t *testing.T) {
	_, err := NewFileSink("")
	assert.ErrorIs(t, err, ErrNoPath)
	assert.ErrorIs(t, Truncate(""), ErrNoPath)
}

func TestTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale answer"), 0o644))

	require.NoError(t, Truncate(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMemorySink(t *testing.T) {
	m := NewMemorySink()
	_, ok := m.Last()
	assert.False(t, ok)

	require.NoError(t, m.Write(context.Background(), "a"))
	require.NoError(t, m.Write(context.Background(), "b"))

	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last)

	writes := m.Writes()
	writes[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, m.Writes())
}
