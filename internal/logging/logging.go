// Package logging provides the zap-backed logr logger used across mensabot.
package logging

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logr.V(). INFO is the default level (V(0)).
const (
	DEBUG = 1
	TRACE = 2
)

// Log is the process-wide root logger. It discards everything until Setup
// (or NewTestLogger) has been called.
var Log logr.Logger = logr.Discard()

// Setup builds the root logger and installs it as Log.
// level is one of "info", "debug", "trace"; development switches to zap's
// console encoder with human-readable timestamps.
func Setup(level string, development bool) (logr.Logger, error) {
	zapLevel, err := parseLevel(level)
	if err != nil {
		return logr.Logger{}, err
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	zl, err := cfg.Build()
	if err != nil {
		return logr.Logger{}, fmt.Errorf("building zap logger: %w", err)
	}

	Log = zapr.NewLogger(zl)
	return Log, nil
}

// NewTestLogger installs a development logger suitable for test suites
// and returns it.
func NewTestLogger() logr.Logger {
	zl, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	Log = zapr.NewLogger(zl)
	return Log
}

// parseLevel maps mensabot log level names to zap levels. logr verbosity
// maps to negative zap levels, so "debug" enables V(DEBUG) and "trace"
// enables V(TRACE).
func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.Level(-DEBUG), nil
	case "trace":
		return zapcore.Level(-TRACE), nil
	default:
		return 0, fmt.Errorf("unknown log level %q (expected info, debug or trace)", level)
	}
}

// IntoContext stores the logger in the context.
func IntoContext(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// FromContext returns the logger stored in the context, falling back to Log.
func FromContext(ctx context.Context) logr.Logger {
	if log, err := logr.FromContext(ctx); err == nil {
		return log
	}
	return Log
}
