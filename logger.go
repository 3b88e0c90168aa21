package travelgo

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/roamnz/travelgo/model"
)

// Logger wraps slog.Logger with travelgo-specific helpers so lookup,
// search, and booking operations log consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// LogLookup logs a customer lookup operation.
func (l *Logger) LogLookup(ctx context.Context, typ model.IdentifierType, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "customer lookup failed",
			"identifier_type", string(typ),
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "customer lookup completed",
		"identifier_type", string(typ),
		"found", found,
	)
}

// LogSearch logs an accommodation search, recording which phase
// produced the results.
func (l *Logger) LogSearch(ctx context.Context, location, phase string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "accommodation search failed",
			"location", location,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "accommodation search completed",
		"location", location,
		"phase", phase,
		"results", results,
	)
}

// LogBooking logs a booking creation.
func (l *Logger) LogBooking(ctx context.Context, bookingRef string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "booking creation failed",
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "booking created",
		"booking_ref", bookingRef,
	)
}

// LogRetry logs a credential-expiry retry.
func (l *Logger) LogRetry(ctx context.Context, err error) {
	l.InfoContext(ctx, "retrying with refreshed credentials",
		"cause", err,
	)
}
