// Package logger wraps the shared application logger. Every package
// that logs derives a child logger with its own component key so log
// lines can be filtered per subsystem.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a [log.Logger] writing to w with timestamps enabled.
// Debug level is enabled outside of prod.
func New(w io.Writer, env string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	if env != "prod" {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// With creates a child logger with the specified key-value pairs added
// to all log entries.
func With(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}
