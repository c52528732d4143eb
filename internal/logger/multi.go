package logger

import (
	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/observation"
)

var (
	_ observation.Logger = (*ConsoleLogger)(nil)
	_ observation.Logger = (*FileLogger)(nil)
	_ observation.Logger = (*NoOpLogger)(nil)
	_ observation.Logger = (*MultiLogger)(nil)
)

// MultiLogger forwards every call to each of its loggers.
type MultiLogger struct {
	loggers []observation.Logger
}

// NewMultiLogger skips nil loggers.
func NewMultiLogger(loggers ...observation.Logger) *MultiLogger {
	ml := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			ml.loggers = append(ml.loggers, l)
		}
	}
	return ml
}

// LogEventAdded forwards to all loggers.
func (ml *MultiLogger) LogEventAdded(observation string, ev models.Event, index int) {
	for _, l := range ml.loggers {
		l.LogEventAdded(observation, ev, index)
	}
}

// LogEventsRemoved forwards to all loggers.
func (ml *MultiLogger) LogEventsRemoved(observation string, removed []models.Event) {
	for _, l := range ml.loggers {
		l.LogEventsRemoved(observation, removed)
	}
}

// LogStatesClosed forwards to all loggers.
func (ml *MultiLogger) LogStatesClosed(observation string, reason string, closes []models.Event) {
	for _, l := range ml.loggers {
		l.LogStatesClosed(observation, reason, closes)
	}
}

// LogUnpaired forwards to all loggers.
func (ml *MultiLogger) LogUnpaired(observation string, groups []events.Unpaired) {
	for _, l := range ml.loggers {
		l.LogUnpaired(observation, groups)
	}
}

// LogProbe forwards to all loggers.
func (ml *MultiLogger) LogProbe(path string, info media.Info, err error) {
	for _, l := range ml.loggers {
		l.LogProbe(path, info, err)
	}
}
