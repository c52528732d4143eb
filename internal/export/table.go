// Package export renders the structured results of the engine (time budgets,
// category rollups, event listings, transition matrices) as text documents.
//
// Results are first turned into a Table; an Exporter then writes one or more
// tables in a given format.
package export

import (
	"fmt"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/timebudget"
	"github.com/harrison/ethocode/internal/timecode"
	"github.com/harrison/ethocode/internal/transitions"
)

// Table is a titled grid. Cells hold strings, numbers, timecode.Value or
// timebudget.Measure; text formats print them with fmt, JSON keeps their type.
type Table struct {
	Title  string
	Header []string
	Rows   [][]interface{}
}

// AddRow appends a row.
func (t *Table) AddRow(cells ...interface{}) {
	t.Rows = append(t.Rows, cells)
}

// TimeBudgetTable lays out time budget rows.
func TimeBudgetTable(title string, res *timebudget.Result) *Table {
	t := &Table{
		Title: title,
		Header: []string{
			"Subject", "Behavior", "Modifiers", "Type", "Total number of occurrences",
			"Total duration (s)", "Duration mean (s)", "Duration std dev",
			"Inter-event intervals mean (s)", "Inter-event intervals std dev", "% of total length",
		},
	}
	for _, r := range res.Rows {
		t.AddRow(subjectLabel(r.Subject), r.Behavior, r.Modifiers, r.Kind.String(), r.Count,
			r.Duration, r.DurationMean, r.DurationStdDev, r.IntervalMean, r.IntervalStdDev, r.Percent)
	}
	return t
}

// CategoryTable lays out category rollups.
func CategoryTable(title string, rows []timebudget.CategoryRow) *Table {
	t := &Table{Title: title, Header: []string{"Subject", "Category", "Number of occurrences", "Duration (s)"}}
	for _, r := range rows {
		category := r.Category
		if category == "" {
			category = "No category"
		}
		t.AddRow(subjectLabel(r.Subject), category, r.Count, r.Duration)
	}
	return t
}

// EventsTable lists classified events; times are rendered in mode.
func EventsTable(title string, evs []events.Classified, mode timecode.Mode) *Table {
	t := &Table{Title: title, Header: []string{"Time", "Subject", "Behavior", "Modifiers", "Status", "Comment"}}
	for _, c := range evs {
		var tm interface{} = c.Time
		if mode != timecode.ModeSeconds {
			tm = c.Time.Format(mode)
		}
		t.AddRow(tm, subjectLabel(c.Subject), c.Behavior, c.Modifier, c.Status.String(), c.Comment)
	}
	return t
}

// UnpairedTable lists unpaired STATE groups.
func UnpairedTable(title string, groups []timebudget.UnpairedGroup) *Table {
	t := &Table{Title: title, Header: []string{"Observation", "Subject", "Behavior", "Modifiers", "Events", "Last event"}}
	for _, g := range groups {
		t.AddRow(g.Observation, subjectLabel(g.Group.Subject), g.Group.Behavior, g.Group.Modifier, g.Count, g.LastTime)
	}
	return t
}

// MatrixTable lays out a transition matrix with row labels in the first column.
func MatrixTable(title string, m *transitions.Matrix) *Table {
	t := &Table{Title: title, Header: append([]string{""}, m.Labels...)}
	for i, label := range m.Labels {
		row := make([]interface{}, 0, len(m.Labels)+1)
		row = append(row, label)
		for _, v := range m.Cells[i] {
			row = append(row, v)
		}
		t.AddRow(row...)
	}
	return t
}

func subjectLabel(s string) string {
	if s == "" {
		return "No focal subject"
	}
	return s
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}
