// Package logger provides verbose logging for reqdistill.
// When verbose mode is enabled via the --verbose flag, messages are
// printed to stderr so users can follow chunking, extraction and dedup.
// Error is printed regardless of the verbose setting.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// Level tags. Colour is dropped when color.NoColor is set, which
// fatih/color does by itself when stdout is not a terminal.
var (
	debugTag = color.New(color.Faint)
	infoTag  = color.New(color.FgCyan)
	warnTag  = color.New(color.FgYellow)
	errorTag = color.New(color.FgRed, color.Bold)
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints per-unit and per-pair detail.
func Debug(format string, args ...any) {
	write(false, debugTag, "[DEBUG]", format, args...)
}

// Info prints stage progress.
func Info(format string, args ...any) {
	write(false, infoTag, "[INFO]", format, args...)
}

// Warn prints degraded but recoverable conditions.
func Warn(format string, args ...any) {
	write(false, warnTag, "[WARN]", format, args...)
}

// Error prints a message whether or not verbose mode is enabled.
func Error(format string, args ...any) {
	write(true, errorTag, "[ERROR]", format, args...)
}

// Section prints a stage header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Stage prints a section header and returns a func that reports the
// elapsed time of the stage:
//
//	defer logger.Stage("Extraction")()
func Stage(name string) func() {
	Section(name)
	start := time.Now()
	return func() {
		Info("%s took %s", name, time.Since(start).Round(time.Millisecond))
	}
}

func write(always bool, c *color.Color, tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprint(output, c.Sprint(tag)+" "+fmt.Sprintf(format, args...)+"\n")
	}
}
