// Package logging constructs the zap loggers threaded explicitly
// through the pipeline's components. There is no package-level
// global logger; callers receive a *zap.Logger from New and pass it
// down, per the "explicit tables, not globals" convention this repo
// follows for all other read-only/process-wide state.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style JSON logger, or a human-readable
// console logger when dev is true.
func New(dev bool) (*zap.Logger, error) {
	if dev {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Discard returns a no-op logger, useful for tests and library
// callers that have not configured logging.
func Discard() *zap.Logger {
	return zap.NewNop()
}

// Must returns l, or, if New failed, writes the error to stderr and
// returns a no-op logger; used at process entrypoints.
func Must(l *zap.Logger, err error) *zap.Logger {
	if err != nil {
		// Fall back to stderr text so the failure itself is visible.
		os.Stderr.WriteString("logging: failed to build logger: " + err.Error() + "\n")
		return zap.NewNop()
	}
	return l
}
