package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/project"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Items      []string // Affected groups, files or events (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning in yellow
func (w Warning) Display(out io.Writer) {
	var b strings.Builder

	b.WriteString("\x1b[33m")
	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	for i, item := range w.Items {
		b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, item))
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	b.WriteString("\x1b[0m")
	fmt.Fprint(out, b.String())
}

// WarnUnpaired lists STATE groups with an odd number of events
func WarnUnpaired(observation string, groups []events.Unpaired) Warning {
	items := make([]string, 0, len(groups))
	for _, g := range groups {
		items = append(items, fmt.Sprintf("%s (%d events, last at %s)", g.Group, g.Count, g.LastTime))
	}
	return Warning{
		Title:      fmt.Sprintf("Unpaired states in observation %s", observation),
		Message:    "Durations of these behaviors are reported as UNPAIRED.",
		Items:      items,
		Suggestion: `Code the missing STOP events with "ethocode add-event".`,
	}
}

// WarnProbeFailure reports a media file that could not be analysed
func WarnProbeFailure(path string, err error) Warning {
	return Warning{
		Title:      "Media probe failed",
		Message:    err.Error(),
		Items:      []string{path},
		Suggestion: "Check the file path and ffprobe_path, or use the last event time as observation length.",
	}
}

// WarnIssues groups consistency issues of one project file
func WarnIssues(path string, issues []project.Issue) Warning {
	items := make([]string, 0, len(issues))
	for _, is := range issues {
		items = append(items, fmt.Sprintf("[%s] %s: %s", is.Observation, is.Kind, is.Message))
	}
	title := fmt.Sprintf("%d issue found in %s", len(issues), path)
	if len(issues) != 1 {
		title = fmt.Sprintf("%d issues found in %s", len(issues), path)
	}
	return Warning{Title: title, Items: items}
}
