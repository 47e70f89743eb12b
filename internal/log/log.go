// Package log is a small structured-logging wrapper around go.uber.org/zap,
// with context-free call sites of the form
// log.Warn(message, log.String(...), log.Cause(err)). The engine logs only
// where the spec makes logging an observable side effect — an unrecognized
// custom conflict strategy (spec.md §4.5) — never as a substitute for the
// Report.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.Logger
)

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	if logger != nil {
		return logger
	}

	return zap.NewNop()
}

// SetLogger installs the process-wide logger. Callers that want engine
// diagnostics (e.g. the demo CLI) call this once at startup; library
// consumers that never call it get a no-op logger, matching the core's "no
// logging sinks" non-goal (spec.md §1) by default.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
}

// Field is an alias so call sites don't need to import zap directly.
type Field = zap.Field

func String(key, value string) Field { return zap.String(key, value) }
func Int(key string, value int) Field { return zap.Int(key, value) }
func Any(key string, value any) Field { return zap.Any(key, value) }
func Cause(err error) Field           { return zap.Error(err) }

func Warn(message string, fields ...Field) {
	current().Warn(message, fields...)
}

func Debug(message string, fields ...Field) {
	current().Debug(message, fields...)
}

func DebugEnabled() bool {
	return current().Core().Enabled(zap.DebugLevel)
}
