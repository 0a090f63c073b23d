// Package logger provides leveled logging on top of the standard log
// package.
//
// A Logger is a plain value passed to the components that log, so tests
// and embedding applications can route or silence output per instance.
package logger

import (
	"io"
	"log"
	"os"
	"strings"
)

// Level selects which messages are written.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
	LevelOff
)

// ParseLevel maps "debug", "info", "error" and "off" to a Level. Unknown
// names select LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "error":
		return LevelError
	case "off", "none", "silent":
		return LevelOff
	default:
		return LevelInfo
	}
}

// Logger writes info and debug messages to one writer and errors to
// another.
type Logger struct {
	info  *log.Logger
	err   *log.Logger
	debug *log.Logger
}

// New creates a logger writing info and debug to out and errors to errOut.
func New(level Level, out, errOut io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lmsgprefix

	l := &Logger{
		info:  log.New(io.Discard, "", 0),
		err:   log.New(io.Discard, "", 0),
		debug: log.New(io.Discard, "", 0),
	}
	if level <= LevelDebug {
		l.debug = log.New(out, "DEBUG: ", flags)
	}
	if level <= LevelInfo {
		l.info = log.New(out, "INFO: ", flags)
	}
	if level <= LevelError {
		l.err = log.New(errOut, "ERROR: ", flags)
	}
	return l
}

// Default logs info to stdout and errors to stderr at level.
func Default(level Level) *Logger {
	return New(level, os.Stdout, os.Stderr)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(LevelOff, io.Discard, io.Discard)
}

// Info logs informational messages.
func (l *Logger) Info(message string, args ...any) {
	if l != nil {
		l.info.Printf(message, args...)
	}
}

// Error logs error messages.
func (l *Logger) Error(message string, args ...any) {
	if l != nil {
		l.err.Printf(message, args...)
	}
}

// Debug logs debug messages.
func (l *Logger) Debug(message string, args ...any) {
	if l != nil {
		l.debug.Printf(message, args...)
	}
}
