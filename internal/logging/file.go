package logging

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions configures a size-rotated log file.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	Level      slog.Level
}

// NewFileLogger returns a text logger writing to a rotating file, so that
// interactive programs keep stdout for the user. The returned closer releases
// the file handle.
func NewFileLogger(opts FileOptions) (*SlogLogger, io.Closer) {
	w := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return NewSlogLogger(slog.New(h)), w
}

// Discard returns a logger that drops every record.
func Discard() *SlogLogger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}
