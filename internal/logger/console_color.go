package logger

import (
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/ethocode/internal/models"
)

// colorScheme holds the colors used by console output.
// Cyan: subjects
// Bold: behavior codes
// Magenta: modifiers
// Level colors follow the usual trace/debug/info/warn/error palette.
type colorScheme struct {
	subject  *color.Color
	behavior *color.Color
	modifier *color.Color
	levels   map[string]*color.Color
}

func newColorScheme() *colorScheme {
	return &colorScheme{
		subject:  color.New(color.FgCyan),
		behavior: color.New(color.Bold),
		modifier: color.New(color.FgMagenta),
		levels: map[string]*color.Color{
			"TRACE": color.New(color.FgHiBlack),
			"DEBUG": color.New(color.FgCyan),
			"INFO":  color.New(color.FgBlue),
			"WARN":  color.New(color.FgYellow),
			"ERROR": color.New(color.FgRed),
		},
	}
}

// level colors a level name; unknown levels are returned as is.
func (cs *colorScheme) level(level string) string {
	if c, ok := cs.levels[strings.ToUpper(level)]; ok {
		return c.Sprint(level)
	}
	return level
}

// event is eventText with colored parts.
func (cs *colorScheme) event(ev models.Event) string {
	var sb strings.Builder
	sb.WriteString(cs.subject.Sprint(subjectText(ev.Subject)))
	sb.WriteString(" ")
	sb.WriteString(cs.behavior.Sprint(ev.Behavior))
	if ev.Modifier != "" {
		sb.WriteString(" (" + cs.modifier.Sprint(ev.Modifier) + ")")
	}
	sb.WriteString(" at ")
	sb.WriteString(ev.Time.String())
	return sb.String()
}
