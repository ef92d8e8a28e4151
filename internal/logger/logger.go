// Package logger provides debug, file and RPC logging for the orchestr8 MCP server.
//
// Debug loggers are namespaced and switched on through the DEBUG environment
// variable, using the same pattern syntax as the `debug` npm package:
//
//	DEBUG=*                   enable everything
//	DEBUG=server:*            enable one package
//	DEBUG=*,-registry:query   enable everything except one namespace
//
// All output goes to stderr. Stdout carries the JSON-RPC stream and must never
// receive log lines.
package logger

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// colorPalette holds the ANSI colors assigned to namespaces.
var colorPalette = []string{
	"\033[36m", // cyan
	"\033[32m", // green
	"\033[33m", // yellow
	"\033[35m", // magenta
	"\033[34m", // blue
	"\033[91m", // bright red
	"\033[92m", // bright green
	"\033[94m", // bright blue
	"\033[95m", // bright magenta
	"\033[96m", // bright cyan
}

const colorReset = "\033[0m"

var (
	// debugColors is false when DEBUG_COLORS=0
	debugColors = os.Getenv("DEBUG_COLORS") != "0"
	// isTTY reports whether stderr is attached to a terminal
	isTTY = term.IsTerminal(int(os.Stderr.Fd()))
)

// Logger is a namespaced debug logger.
type Logger struct {
	namespace string
	enabled   bool
	color     string

	mu       sync.Mutex
	lastTime time.Time
}

// New creates a logger for the given namespace. Whether it is enabled is
// decided once, from DEBUG at construction time.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   computeEnabled(namespace),
		color:     selectColor(namespace),
	}
}

// Enabled reports whether the logger writes anything.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Printf logs a formatted message.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.output(fmt.Sprintf(format, args...))
}

// Print logs its operands the way fmt.Sprint formats them.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.output(fmt.Sprint(args...))
}

func (l *Logger) output(message string) {
	l.mu.Lock()
	now := time.Now()
	var diff time.Duration
	if !l.lastTime.IsZero() {
		diff = now.Sub(l.lastTime)
	}
	l.lastTime = now
	l.mu.Unlock()

	if l.color != "" {
		fmt.Fprintf(os.Stderr, "%s%s%s %s %s+%s%s\n", l.color, l.namespace, colorReset, message, l.color, formatDiff(diff), colorReset)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, message, formatDiff(diff))
	}

	// Mirror into the file logger without colors
	LogDebug(l.namespace, "%s", message)
}

func formatDiff(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
}

// selectColor picks a stable color for a namespace, or "" when colors are off.
func selectColor(namespace string) string {
	if !debugColors || !isTTY {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(namespace))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}

// computeEnabled evaluates DEBUG against a namespace. Exclusions win over
// inclusions regardless of order.
func computeEnabled(namespace string) bool {
	debugEnv := os.Getenv("DEBUG")
	if debugEnv == "" {
		return false
	}

	enabled := false
	for _, pattern := range strings.Split(debugEnv, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "-") {
			if matchPattern(namespace, pattern[1:]) {
				return false
			}
			continue
		}
		if matchPattern(namespace, pattern) {
			enabled = true
		}
	}
	return enabled
}

// matchPattern matches a namespace against a pattern where "*" matches any run
// of characters, including ":" separators.
func matchPattern(namespace, pattern string) bool {
	if pattern == "*" || pattern == namespace {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}

	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(namespace, parts[0]) {
		return false
	}
	rest := namespace[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(rest, parts[i])
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(parts[i]):]
	}
	return strings.HasSuffix(rest, parts[len(parts)-1])
}
