// Package logger provides leveled console and file loggers for ethocode.
//
// Both loggers implement observation.Logger, so an engine reports added and
// removed events, forced state closes, unpaired states and media probes
// through them. Implementations are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
)

// Log level constants for filtering.
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines to a writer.
// Color output is enabled for os.Stdout/os.Stderr when they are terminals.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	scheme      *colorScheme
}

// NewConsoleLogger creates a ConsoleLogger that writes to writer.
// A nil writer discards messages. An empty or invalid logLevel means "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		scheme:      newColorScheme(),
	}
}

// isTerminal reports whether w is a color-capable standard stream.
// fatih/color already honors NO_COLOR and non-TTY output.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel lowercases level and falls back to "info".
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// ValidLogLevel reports whether level names a known level.
func ValidLogLevel(level string) bool {
	return normalizeLogLevel(level) == strings.ToLower(strings.TrimSpace(level))
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, cl.scheme.level(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

// LogEventAdded logs a coded event at DEBUG level.
func (cl *ConsoleLogger) LogEventAdded(observation string, ev models.Event, index int) {
	cl.LogDebug(fmt.Sprintf("%s: added %s at #%d", observation, cl.event(ev), index))
}

// LogEventsRemoved logs deleted events at INFO level.
func (cl *ConsoleLogger) LogEventsRemoved(observation string, removed []models.Event) {
	cl.LogInfo(fmt.Sprintf("%s: removed %s", observation, plural(len(removed), "event")))
	for _, ev := range removed {
		cl.LogDebug("  - " + cl.event(ev))
	}
}

// LogStatesClosed logs forced STOP events at INFO level.
func (cl *ConsoleLogger) LogStatesClosed(observation string, reason string, closes []models.Event) {
	cl.LogInfo(fmt.Sprintf("%s: closed %s (%s)", observation, plural(len(closes), "state"), reason))
	for _, ev := range closes {
		cl.LogDebug("  - " + cl.event(ev))
	}
}

// LogUnpaired logs unpaired STATE groups at WARN level.
func (cl *ConsoleLogger) LogUnpaired(observation string, groups []events.Unpaired) {
	for _, g := range groups {
		cl.LogWarn(fmt.Sprintf("%s: %s", observation, unpairedText(g)))
	}
}

// LogProbe logs a probe result at DEBUG level, or its failure at WARN level.
func (cl *ConsoleLogger) LogProbe(path string, info media.Info, err error) {
	if err != nil {
		cl.LogWarn(fmt.Sprintf("probe %s: %v", path, err))
		return
	}
	cl.LogDebug(probeText(path, info))
}

// LogProgress logs a progress bar line at INFO level, e.g. "Probing: [=====     ] 2/4 (50%)".
func (cl *ConsoleLogger) LogProgress(label string, done, total int) {
	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.SetPrefix(label + ": ")
	pb.Update(done)
	cl.LogInfo(pb.Render())
}

func (cl *ConsoleLogger) event(ev models.Event) string {
	if cl.colorOutput {
		return cl.scheme.event(ev)
	}
	return eventText(ev)
}

// timestamp returns the current time as "15:04:05".
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogEventAdded(string, models.Event, int)        {}
func (n *NoOpLogger) LogEventsRemoved(string, []models.Event)        {}
func (n *NoOpLogger) LogStatesClosed(string, string, []models.Event) {}
func (n *NoOpLogger) LogUnpaired(string, []events.Unpaired)          {}
func (n *NoOpLogger) LogProbe(string, media.Info, error)             {}
