// Package timebudget aggregates coded events into per-subject, per-behavior
// time budgets over one or several observations.
package timebudget

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
)

var (
	// ErrWindowMultipleObservations is returned when a window is requested over several observations.
	ErrWindowMultipleObservations = errors.New("a time window needs exactly one observation")

	// ErrInvalidWindow is returned when the window end is not after its start.
	ErrInvalidWindow = errors.New("invalid time window")
)

var hundred = decimal.NewFromInt(100)

// Ethogram is the part of the behavior registry the engine needs.
type Ethogram interface {
	KindOf(code string) (models.Kind, bool)
	CategoryOf(code string) string
}

// Observation is one event history to aggregate.
type Observation struct {
	ID     string
	Events []models.Event
	// Length is the media length. LengthKnown is false for live sessions or failed probes.
	Length      timecode.Value
	LengthKnown bool
}

// Interval is the half-open window [Start, End).
type Interval struct {
	Start timecode.Value
	End   timecode.Value
}

// Length returns End - Start.
func (i Interval) Length() timecode.Value {
	return i.End.Sub(i.Start)
}

func (i Interval) contains(t timecode.Value) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Options selects and shapes the aggregation.
type Options struct {
	Subjects  []string // Subjects to report, in output order
	Behaviors []string // Behavior codes to report, in output order
	Window    *Interval

	// IncludeModifiers splits each behavior by modifier and pairs STATE events per modifier.
	IncludeModifiers bool
	// ExcludeEmpty drops groups without events.
	ExcludeEmpty bool
	// UseLastEventWhenLengthUnavailable substitutes the last event time for unknown media lengths.
	UseLastEventWhenLengthUnavailable bool
}

// Row is the time budget of one (subject, behavior, modifiers) group.
type Row struct {
	Subject        string
	Behavior       string
	Modifiers      string
	Kind           models.Kind
	Count          Measure
	Duration       Measure
	DurationMean   Measure
	DurationStdDev Measure
	IntervalMean   Measure
	IntervalStdDev Measure
	Percent        Measure
}

// UnpairedGroup is an unpaired STATE group found in one observation.
type UnpairedGroup struct {
	Observation string
	events.Unpaired
}

// Result holds the rows and the denominator used for percentages.
type Result struct {
	Rows        []Row
	TotalLength Measure
	Unpaired    []UnpairedGroup
}

type rowKey struct {
	subject, behavior, modifier string
}

// Compute builds the time budget of the selected subjects and behaviors.
func Compute(obs []Observation, eth Ethogram, opts Options) (*Result, error) {
	if opts.Window != nil {
		if len(obs) > 1 {
			return nil, fmt.Errorf("%w: got %d", ErrWindowMultipleObservations, len(obs))
		}
		if !opts.Window.End.After(opts.Window.Start) {
			return nil, fmt.Errorf("%w: [%s, %s)", ErrInvalidWindow, opts.Window.Start, opts.Window.End)
		}
	}

	wantSubject := toSet(opts.Subjects)
	wantBehavior := toSet(opts.Behaviors)

	// Per observation, the selected events grouped by row key, in time order.
	perObs := make([]map[rowKey][]models.Event, len(obs))
	modifiersSeen := make(map[rowKey][]string)
	result := &Result{TotalLength: totalLength(obs, opts)}

	for i, o := range obs {
		sorted := events.NewStore(o.Events).Events()
		groups := make(map[rowKey][]models.Event)
		for _, ev := range sorted {
			if !wantSubject[ev.Subject] || !wantBehavior[ev.Behavior] {
				continue
			}
			key := rowKey{subject: ev.Subject, behavior: ev.Behavior}
			if opts.IncludeModifiers {
				key.modifier = ev.Modifier
				base := rowKey{subject: ev.Subject, behavior: ev.Behavior}
				if !contains(modifiersSeen[base], ev.Modifier) {
					modifiersSeen[base] = append(modifiersSeen[base], ev.Modifier)
				}
			}
			groups[key] = append(groups[key], ev)
		}
		perObs[i] = groups

		for _, u := range events.FindUnpairedEvents(sorted, eth, nil, opts.IncludeModifiers) {
			if wantSubject[u.Group.Subject] && wantBehavior[u.Group.Behavior] {
				result.Unpaired = append(result.Unpaired, UnpairedGroup{Observation: o.ID, Unpaired: u})
			}
		}
	}

	for _, subject := range opts.Subjects {
		for _, behavior := range opts.Behaviors {
			modifiers := []string{""}
			if opts.IncludeModifiers {
				if seen := modifiersSeen[rowKey{subject: subject, behavior: behavior}]; len(seen) > 0 {
					modifiers = seen
				}
			}
			for _, modifier := range modifiers {
				key := rowKey{subject: subject, behavior: behavior, modifier: modifier}
				lists := make([][]models.Event, len(perObs))
				for i, groups := range perObs {
					lists[i] = groups[key]
				}

				kind, _ := eth.KindOf(behavior)
				var row Row
				if kind == models.StateKind {
					row = stateRow(lists, opts.Window, result.TotalLength)
				} else {
					row = pointRow(lists, opts.Window)
				}
				row.Subject, row.Behavior, row.Modifiers, row.Kind = subject, behavior, modifier, kind

				if opts.ExcludeEmpty && row.Count.IsAvailable() && row.Count.Value.IsZero() {
					continue
				}
				result.Rows = append(result.Rows, row)
			}
		}
	}
	return result, nil
}

// totalLength is the window length, or the summed observation lengths.
func totalLength(obs []Observation, opts Options) Measure {
	if opts.Window != nil {
		return Time(opts.Window.Length())
	}
	total := timecode.Zero
	for _, o := range obs {
		switch {
		case o.LengthKnown:
			total = total.Add(o.Length)
		case opts.UseLastEventWhenLengthUnavailable:
			last := timecode.Zero
			for _, ev := range o.Events {
				last = timecode.Max(last, ev.Time)
			}
			total = total.Add(last)
		default:
			return NA
		}
	}
	return Time(total)
}

func pointRow(lists [][]models.Event, window *Interval) Row {
	count := 0
	var intervals []decimal.Decimal
	for _, evs := range lists {
		var prev *timecode.Value
		for _, ev := range evs {
			if window != nil && !window.contains(ev.Time) {
				continue
			}
			count++
			if prev != nil {
				intervals = append(intervals, ev.Time.Sub(*prev).Decimal())
			}
			t := ev.Time
			prev = &t
		}
	}
	return Row{
		Count:          Int(count),
		Duration:       NA,
		DurationMean:   NA,
		DurationStdDev: NA,
		IntervalMean:   mean(intervals),
		IntervalStdDev: stdev(intervals),
		Percent:        NA,
	}
}

func stateRow(lists [][]models.Event, window *Interval, total Measure) Row {
	for _, evs := range lists {
		if len(evs)%2 == 1 {
			return Row{
				Count:          Unpaired,
				Duration:       Unpaired,
				DurationMean:   Unpaired,
				DurationStdDev: Unpaired,
				IntervalMean:   Unpaired,
				IntervalStdDev: Unpaired,
				Percent:        Unpaired,
			}
		}
	}

	var durations, intervals []decimal.Decimal
	duration := timecode.Zero
	for _, evs := range lists {
		var prevClose *timecode.Value
		for i := 0; i+1 < len(evs); i += 2 {
			open, close := evs[i].Time, evs[i+1].Time
			if window != nil {
				if !close.After(window.Start) || !open.Before(window.End) {
					continue
				}
				open = timecode.Max(open, window.Start)
				close = timecode.Min(close, window.End)
			}
			d := close.Sub(open)
			duration = duration.Add(d)
			durations = append(durations, d.Decimal())
			if prevClose != nil {
				intervals = append(intervals, open.Sub(*prevClose).Decimal())
			}
			c := close
			prevClose = &c
		}
	}

	row := Row{
		Count:          Int(len(durations)),
		Duration:       Time(duration),
		DurationMean:   mean(durations),
		DurationStdDev: stdev(durations),
		IntervalMean:   mean(intervals),
		IntervalStdDev: stdev(intervals),
		Percent:        percent(Time(duration), total),
	}
	return row
}

// percent is part/total*100 rounded to 1 decimal, NA when it cannot be computed.
func percent(part, total Measure) Measure {
	if part.Status == UnpairedState {
		return Unpaired
	}
	if !part.IsAvailable() || !total.IsAvailable() || total.Value.IsZero() {
		return NA
	}
	return Num(part.Value.Div(total.Value).Mul(hundred).Round(1))
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SortUnpaired orders unpaired groups by observation, subject and behavior.
func SortUnpaired(groups []UnpairedGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Observation != b.Observation {
			return a.Observation < b.Observation
		}
		if a.Group.Subject != b.Group.Subject {
			return a.Group.Subject < b.Group.Subject
		}
		return a.Group.Behavior < b.Group.Behavior
	})
}
