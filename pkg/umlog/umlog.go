// Package umlog wraps zap for the engine's two ambient logging needs:
// a terse default for normal runs and a per-instruction trace for -v.
// cmd/um builds the *zap.SugaredLogger and feeds the engine's trace
// callback into it, instead of reaching for the stdlib log package
// directly; the engine itself takes no logger.
package umlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a SugaredLogger. In verbose mode it uses zap's development
// encoder (human-readable, debug level and up); otherwise it is quiet,
// surfacing only error-level-and-above diagnostics.
func New(verbose bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
		cfg.DisableStacktrace = true
	}
	logger, err := cfg.Build()
	if err != nil {
		// zap's own config construction does not fail for the fixed
		// configurations above; fall back to a no-op logger rather than
		// panic out of a logging helper.
		logger = zap.NewNop()
	}
	return logger.Sugar()
}
