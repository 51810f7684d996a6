package log

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// GetLogger returns a stdr backed logr.Logger named "oblivious" and sets
// the global stdr verbosity: 0 for info level messages, 1 for the stage
// progress of each protocol and 2 for per stage timing and heap statistics.
// Any other level falls back to 0.
func GetLogger(v int) logr.Logger {
	logger := stdr.New(nil).WithName("oblivious")
	if v > 2 || v < 0 {
		logger.Info("Invalid verbosity, setting logger to display info level messages only.", "verbosity", v)
		v = 0
	}
	stdr.SetVerbosity(v)

	return logger
}

// ContextWithLogger returns a context carrying logger, picked up by the
// Exchange methods of every sender and receiver.
func ContextWithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// GetLoggerFromContextWithName returns the logger carried by ctx, with name
// appended when not empty. A context without a logger yields a logger that
// discards everything.
func GetLoggerFromContextWithName(ctx context.Context, name string) logr.Logger {
	logger := logr.FromContextOrDiscard(ctx)
	if name != "" {
		return logger.WithName(name)
	}
	return logger
}
