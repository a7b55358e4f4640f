package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFileLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labkeeper.log")

	log, closer := NewFileLogger(FileOptions{Path: path, MaxSizeMB: 1, Level: slog.LevelInfo})
	log.With("module", "test").Info(context.Background(), "queue drained", "items", 3)
	log.Debug(context.Background(), "hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "msg=\"queue drained\"")
	assert.Contains(t, out, "module=test")
	assert.Contains(t, out, "items=3")
	assert.NotContains(t, out, "hidden")
}

func TestDiscard_DoesNotPanic(t *testing.T) {
	l := Discard()
	l.Info(context.Background(), "x")
	l.With("k", "v").Error(context.Background(), "y")
}
