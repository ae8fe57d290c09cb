package debug

import (
	"io"
	"log"
	"os"
)

// Debug levels
const (
	LevelOff     = 0 // No output
	LevelInfo    = 1 // Scan plan, position count, errors
	LevelLive    = 2 // Moves and shots as they happen
	LevelVerbose = 3 // Rings, step counts, pin timings
	LevelTrace   = 4 // Every GPIO call
)

var (
	level  int
	logger *log.Logger
	output io.Writer = os.Stdout
)

// Init sets the debug level (0-4). Level 0 discards everything.
func Init(debugLevel int) {
	level = debugLevel
	logger = nil
	if level > LevelOff {
		logger = log.New(output, "[skyscan] ", log.LstdFlags|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output (e.g. to stdout and the web status stream).
func SetOutput(w io.Writer) {
	output = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// IsEnabled reports whether messages at minLevel are printed.
func IsEnabled(minLevel int) bool {
	return logger != nil && level >= minLevel
}

func logAt(minLevel int, format string, args ...interface{}) {
	if IsEnabled(minLevel) {
		logger.Printf(format, args...)
	}
}

func banner(minLevel int, rule, title string) {
	if IsEnabled(minLevel) {
		logger.Print(rule)
		logger.Printf("  %s", title)
		logger.Print(rule)
	}
}

// --- Level 1 (Info) ---

func Info(format string, args ...interface{}) {
	logAt(LevelInfo, "[INFO] "+format, args...)
}

// Summary prints a boxed title.
func Summary(title string) {
	banner(LevelInfo, "═══════════════════════════════════════", title)
}

// Plan prints the scan plan size.
func Plan(rings, positions, startIndex int) {
	logAt(LevelInfo, "[INFO] Scan plan: %d rings, %d positions, starting at index %d", rings, positions, startIndex)
}

// Value prints a named setting.
func Value(name string, value interface{}) {
	logAt(LevelInfo, "[INFO]   %s = %v", name, value)
}

func Error(err error) {
	logAt(LevelInfo, "[ERROR] %v", err)
}

// --- Level 2 (Live) ---

func Live(format string, args ...interface{}) {
	logAt(LevelLive, "[LIVE] "+format, args...)
}

// Move prints one axis move.
func Move(motor string, steps int, direction string) {
	logAt(LevelLive, "[LIVE] Motor %s: %d steps (%s)", motor, steps, direction)
}

// Shot prints a completed capture and the head position it was taken at.
func Shot(n, total int, pan, tilt int) {
	logAt(LevelLive, "[LIVE] Photo %d/%d taken at position (pan=%d, tilt=%d)", n, total, pan, tilt)
}

// --- Level 3 (Verbose) ---

func Verbose(format string, args ...interface{}) {
	logAt(LevelVerbose, "[VERBOSE] "+format, args...)
}

// Printf is an alias for Verbose.
func Printf(format string, args ...interface{}) {
	Verbose(format, args...)
}

// Ring prints one elevation ring of the scan plan.
func Ring(step int, elevationDeg float64, count int) {
	logAt(LevelVerbose, "[VERBOSE] Ring tilt=%d (%.2f°): %d positions", step, elevationDeg, count)
}

func PrintStruct(name string, v interface{}) {
	logAt(LevelVerbose, "[VERBOSE] %s: %+v", name, v)
}

func Section(name string) {
	banner(LevelVerbose, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━", name)
}

// Step prints a numbered startup step.
func Step(num int, description string) {
	logAt(LevelVerbose, "[VERBOSE] Step %d: %s", num, description)
}

// --- Level 4 (Trace) ---

func Trace(format string, args ...interface{}) {
	logAt(LevelTrace, "[TRACE] "+format, args...)
}

// GPIO prints a single pin operation.
func GPIO(operation string, pin int, value interface{}) {
	logAt(LevelTrace, "[GPIO] %s pin=%d value=%v", operation, pin, value)
}
