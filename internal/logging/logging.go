// Package logging builds the structured loggers shared by the server, the
// CLI commands and the background workers.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w with timestamps enabled. The writer
// defaults to os.Stderr and an unknown level falls back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps a config string to a log level.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// With creates a child logger carrying the given key-value pairs, or a
// discarding logger when l is nil.
func With(l *log.Logger, kv ...any) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l.With(kv...)
}
