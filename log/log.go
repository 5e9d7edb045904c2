// Package log provides structured logging for the gas profiler. Contract
// and source resolution in this tool never fails the run outright: a
// missing bundle entry, an unreadable source file, or a truncated bytecode
// blob all leave the affected Contract or Source partially populated and
// let attribution continue around the gap. Skip and Corrupt exist so every
// one of those call sites reports through the same two shapes instead of
// each inventing its own message format.
package log

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with the profiler's resolution-gap reporting.
type Logger struct {
	inner *slog.Logger
}

// New creates a Logger that writes JSON to stderr at the given level.
func New(level slog.Level) *Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{inner: slog.New(h)}
}

// VerbosityToLogLevel converts the CLI --verbosity level into an slog.Level: 0 is
// errors only, increasing verbosity widens the floor down to debug.
func VerbosityToLogLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Skip reports an expected resolution gap: an address with no deployed
// code, a bundle with no matching contract, a source id the bundle never
// named. The caller always continues with a Contract or Source left
// partially unresolved; this never indicates a bug in the profiler itself.
func (l *Logger) Skip(reason string, args ...any) {
	l.inner.Warn(reason, args...)
}

// Corrupt reports a resolution failure caused by malformed input: a
// source map that doesn't parse, bytecode that runs off the end of a PUSH
// immediate. Like Skip, the caller continues with the affected Contract
// left partially populated — Corrupt exists only to flag that, unlike a
// Skip, the input itself looks broken and is worth a closer look.
func (l *Logger) Corrupt(reason string, args ...any) {
	l.inner.Error(reason, args...)
}

// Error logs a fatal condition: one that ends the run instead of leaving
// a Contract or Source partially populated, e.g. a bundle that won't
// parse or an RPC endpoint that never answers.
func (l *Logger) Error(msg string, args ...any) { l.inner.Error(msg, args...) }
