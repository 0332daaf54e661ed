// Package logctx adds a correlation id prefix to the standard library
// logger, the same ad hoc "log.Printf with a short static prefix" idiom
// kihw-herald's services use (e.g. recommendation_engine_service.go's
// "Failed to save recommendations: %v"), generalized here to a prefix
// supplied per command invocation instead of hardcoded per call site.
package logctx

import (
	"fmt"
	"log"
)

// Logger prefixes every line with a correlation id, so a CLI run's
// diagnostics can be grepped out of a shared log stream by invocation.
type Logger struct {
	prefix string
}

// New builds a Logger tagging every line with correlationID.
func New(correlationID string) *Logger {
	return &Logger{prefix: correlationID}
}

// Printf logs one line: "[correlation_id] formatted message".
func (l *Logger) Printf(format string, args ...any) {
	log.Printf("[%s] %s", l.prefix, fmt.Sprintf(format, args...))
}

// Errorf logs an error line the same way Printf does, for the common
// "log the error then return it" call shape.
func (l *Logger) Errorf(format string, args ...any) {
	l.Printf(format, args...)
}
