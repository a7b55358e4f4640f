// Package logging is the structured logger shared by the notebook client and
// the sync receiver. Components depend on the Logger interface; the concrete
// logger is chosen in main.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	log.Info(ctx, "change delivered", "change", id, "attempts", n)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
