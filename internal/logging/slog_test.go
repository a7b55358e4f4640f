package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTextLogger(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newTextLogger(slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_FiltersBelowLevel(t *testing.T) {
	log, buf := newTextLogger(slog.LevelWarn)
	log.Info(context.Background(), "quiet")
	log.Warn(context.Background(), "loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestSlogLogger_With(t *testing.T) {
	log, buf := newTextLogger(slog.LevelInfo)
	log.With("entry", "e1").Info(context.Background(), "saved", "blocks", 2)

	assert.Contains(t, buf.String(), "entry=e1")
	assert.Contains(t, buf.String(), "blocks=2")
}

func TestSlogLogger_NilContext(t *testing.T) {
	log, buf := newTextLogger(slog.LevelInfo)
	//nolint:staticcheck // nil context is tolerated
	log.Info(nil, "no ctx")
	assert.Contains(t, buf.String(), "no ctx")
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSONLogger(&buf, slog.LevelInfo)
	log.Info(context.Background(), "change recorded", "change", "c1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "change recorded", rec["msg"])
	assert.Equal(t, "c1", rec["change"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warning ", slog.LevelWarn, false},
		{"Error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
