// Package logger routes diagnostic output from the library packages to
// whatever the embedding program installs. Nothing is printed by default.
package logger

import "sync/atomic"

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels
type LogFunc func(level LogLevel, msg string, keyvals ...any)

var current atomic.Pointer[LogFunc]

func init() {
	nop := LogFunc(func(LogLevel, string, ...any) {})
	current.Store(&nop)
}

// SetLogger sets the global logger function. A nil f restores the no-op logger.
func SetLogger(f LogFunc) {
	if f == nil {
		f = func(LogLevel, string, ...any) {}
	}
	current.Store(&f)
}

// Debug logs a message at debug level
func Debug(msg string, keyvals ...any) {
	(*current.Load())(DebugLevel, msg, keyvals...)
}

// Error logs a message at error level
func Error(msg string, keyvals ...any) {
	(*current.Load())(ErrorLevel, msg, keyvals...)
}
