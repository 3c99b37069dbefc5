// Package logger provides leveled logging for docugraph.
// Warnings and errors are always printed so that missing configuration and
// index conflicts reach the operator. Info and debug messages appear once the
// level is lowered, which the --verbose flag does.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is a logging threshold. Messages below the current level are dropped.
type Level int

// Available levels, most verbose first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu     sync.RWMutex
	level  = LevelWarn
	output io.Writer = os.Stderr

	// writeMu serialises writes so concurrent crawl workers do not interleave lines.
	writeMu sync.Mutex
)

// SetLevel sets the minimum level that is printed.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current threshold.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetVerbose enables or disables verbose logging.
// Verbose lowers the threshold to debug; disabling restores the warn default.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// IsVerbose returns true if debug messages are printed.
func IsVerbose() bool {
	return GetLevel() <= LevelDebug
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(l Level, prefix, format string, args ...any) {
	mu.RLock()
	enabled := l >= level
	w := output
	mu.RUnlock()

	if !enabled {
		return
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	fmt.Fprintf(w, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(LevelDebug, "[DEBUG] ", format, args...)
}

// Section prints a section header if info messages are enabled.
func Section(name string) {
	logf(LevelInfo, "\n=== ", "%s ===", name)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	logf(LevelInfo, "[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logf(LevelWarn, "[WARN] ", format, args...)
}

// Error prints an error message. Errors are never suppressed.
func Error(format string, args ...any) {
	logf(LevelError, "[ERROR] ", format, args...)
}
