package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
)

// FileLogger writes a timestamped run log (run-YYYYMMDD-HHMMSS.log) under a
// log directory and keeps a latest.log symlink pointing at it.
// It is thread-safe and implements observation.Logger.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in .ethocode/logs at level "info".
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(filepath.Join(".ethocode", "logs"), "info")
}

// NewFileLoggerWithDirAndLevel creates a FileLogger in logDir.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}
	fl.writeRunLog("=== ethocode run log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))
	return fl, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogEventAdded records a coded event at DEBUG level.
func (fl *FileLogger) LogEventAdded(observation string, ev models.Event, index int) {
	fl.LogDebug(fmt.Sprintf("%s: added %s at #%d", observation, eventText(ev), index))
}

// LogEventsRemoved records every removed event at INFO level.
func (fl *FileLogger) LogEventsRemoved(observation string, removed []models.Event) {
	for _, ev := range removed {
		fl.LogInfo(fmt.Sprintf("%s: removed %s", observation, eventText(ev)))
	}
}

// LogStatesClosed records every forced STOP at INFO level.
func (fl *FileLogger) LogStatesClosed(observation string, reason string, closes []models.Event) {
	for _, ev := range closes {
		fl.LogInfo(fmt.Sprintf("%s: closed %s (%s)", observation, eventText(ev), reason))
	}
}

// LogUnpaired records unpaired STATE groups at WARN level.
func (fl *FileLogger) LogUnpaired(observation string, groups []events.Unpaired) {
	for _, g := range groups {
		fl.LogWarn(fmt.Sprintf("%s: %s", observation, unpairedText(g)))
	}
}

// LogProbe records a probe result, failures at WARN level.
func (fl *FileLogger) LogProbe(path string, info media.Info, err error) {
	if err != nil {
		fl.LogWarn(fmt.Sprintf("probe %s: %v", path, err))
		return
	}
	fl.LogDebug(probeText(path, info))
}

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
