// Package logger is bankdoc's process-wide log sink.
//
// Everything below Error is suppressed unless --verbose is set, so a normal
// ingest or query prints only its result. Verbose mode traces each pipeline
// stage on stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level tags a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// String returns the upper-case name of the level.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelTags[l]
}

var (
	mu      sync.RWMutex
	verbose bool
	out     io.Writer = os.Stderr
)

// SetVerbose turns verbose output on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether verbose output is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log output. Tests pass a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// Writer returns the current sink for libraries that log via io.Writer.
func Writer() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// Enabled reports whether a line at level would be written.
func Enabled(level Level) bool {
	return level >= LevelError || IsVerbose()
}

func logf(level Level, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < LevelError && !verbose {
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", level, fmt.Sprintf(format, args...))
}

// Debug writes a message when verbose output is on.
func Debug(format string, args ...any) { logf(LevelDebug, format, args) }

// Info writes a message when verbose output is on.
func Info(format string, args ...any) { logf(LevelInfo, format, args) }

// Warn writes a warning when verbose output is on.
func Warn(format string, args ...any) { logf(LevelWarn, format, args) }

// Error is written even when verbose output is off.
func Error(format string, args ...any) { logf(LevelError, format, args) }

// Section prints a stage header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(out, "\n=== %s ===\n", name)
	}
}

// Timed logs how long a stage took when the returned func is called:
//
//	defer logger.Timed("embed chunks")()
func Timed(stage string) func() {
	start := time.Now()
	return func() {
		Debug("%s took %s", stage, time.Since(start).Round(time.Microsecond))
	}
}
