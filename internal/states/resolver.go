// Package states answers which STATE behaviors are open at a given time.
//
// Nothing is cached: every answer is a fold over the sorted event history up
// to the query time, counting events per (subject, behavior). A behavior is
// open when that count is odd. The fold is linear in the number of events and
// is cheap enough to run on every playback tick.
package states

import (
	"sort"

	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
)

// Ethogram is the part of the behavior registry the resolver needs.
type Ethogram interface {
	KindOf(code string) (models.Kind, bool)
	Lookup(code string) (models.Behavior, bool)
}

// OpenState is a STATE behavior open at the query time.
type OpenState struct {
	Subject  string
	Behavior string
	Modifier string         // modifier of the opening event
	Since    timecode.Value // time of the opening event
}

type pairKey struct {
	subject  string
	behavior string
}

// fold walks events with time <= at and returns the open states keyed by (subject, behavior).
func fold(evs []models.Event, eth Ethogram, at timecode.Value, subject *string) map[pairKey]OpenState {
	open := make(map[pairKey]OpenState)
	for _, ev := range evs {
		if ev.Time.After(at) {
			break
		}
		if subject != nil && ev.Subject != *subject {
			continue
		}
		if k, ok := eth.KindOf(ev.Behavior); !ok || k != models.StateKind {
			continue
		}
		key := pairKey{ev.Subject, ev.Behavior}
		if _, isOpen := open[key]; isOpen {
			delete(open, key)
			continue
		}
		open[key] = OpenState{Subject: ev.Subject, Behavior: ev.Behavior, Modifier: ev.Modifier, Since: ev.Time}
	}
	return open
}

// OpenStates returns the open states per subject at time at, in opening order.
// Every requested subject is present in the result, possibly with no states.
// A nil subjects list means every subject seen in the events.
func OpenStates(evs []models.Event, eth Ethogram, subjects []string, at timecode.Value) map[string][]OpenState {
	open := fold(evs, eth, at, nil)

	out := make(map[string][]OpenState, len(subjects))
	for _, s := range subjects {
		out[s] = []OpenState{}
	}
	if subjects == nil {
		for _, ev := range evs {
			if _, ok := out[ev.Subject]; !ok {
				out[ev.Subject] = []OpenState{}
			}
		}
	}

	for _, st := range open {
		if list, wanted := out[st.Subject]; wanted {
			out[st.Subject] = append(list, st)
		}
	}
	for s := range out {
		sortStates(out[s])
	}
	return out
}

// CurrentStates returns the codes of the open states per subject at time at.
func CurrentStates(evs []models.Event, eth Ethogram, subjects []string, at timecode.Value) map[string][]string {
	out := make(map[string][]string)
	for subject, list := range OpenStates(evs, eth, subjects, at) {
		codes := make([]string, 0, len(list))
		for _, st := range list {
			codes = append(codes, st.Behavior)
		}
		out[subject] = codes
	}
	return out
}

// ModifierOfOpenState returns the modifier of the latest (subject, behavior) event at or before at.
func ModifierOfOpenState(evs []models.Event, subject, behavior string, at timecode.Value) string {
	modifier := ""
	for _, ev := range evs {
		if ev.Time.After(at) {
			break
		}
		if ev.Subject == subject && ev.Behavior == behavior {
			modifier = ev.Modifier
		}
	}
	return modifier
}

// ForceCloseOpenStates builds a STOP event at at-1ms for every state open at at.
// States opened at or after at-1ms cannot be closed before they start and are left open.
// The events are returned for the caller to add; evs is not modified.
func ForceCloseOpenStates(evs []models.Event, eth Ethogram, subjects []string, at timecode.Value) []models.Event {
	closeAt := at.Sub(timecode.Millisecond)
	var closes []models.Event
	bySubject := OpenStates(evs, eth, subjects, at)
	for _, subject := range sortedSubjects(bySubject) {
		for _, st := range bySubject[subject] {
			if c, ok := closeEvent(st, closeAt); ok {
				closes = append(closes, c)
			}
		}
	}
	return closes
}

// LingeringStates returns the states open at at that ForceCloseOpenStates
// leaves open, because they opened at or after at-1ms.
func LingeringStates(evs []models.Event, eth Ethogram, subjects []string, at timecode.Value) []OpenState {
	closeAt := at.Sub(timecode.Millisecond)
	var out []OpenState
	bySubject := OpenStates(evs, eth, subjects, at)
	for _, subject := range sortedSubjects(bySubject) {
		for _, st := range bySubject[subject] {
			if _, ok := closeEvent(st, closeAt); !ok {
				out = append(out, st)
			}
		}
	}
	return out
}

// ExclusionCloses returns the STOP events needed before code opens for subject at time at:
// every open state of that subject listed in the behavior's excluded set is closed at at-1ms.
// Nothing is returned when code is not a STATE or is itself open (the new event closes it).
func ExclusionCloses(evs []models.Event, eth Ethogram, subject, code string, at timecode.Value) []models.Event {
	b, ok := eth.Lookup(code)
	if !ok || b.Kind != models.StateKind || len(b.Excluded) == 0 {
		return nil
	}
	open := fold(evs, eth, at, &subject)
	if _, selfOpen := open[pairKey{subject, code}]; selfOpen {
		return nil
	}

	list := make([]OpenState, 0, len(open))
	for _, st := range open {
		if b.Excludes(st.Behavior) {
			list = append(list, st)
		}
	}
	sortStates(list)

	closeAt := at.Sub(timecode.Millisecond)
	var closes []models.Event
	for _, st := range list {
		if c, ok := closeEvent(st, closeAt); ok {
			closes = append(closes, c)
		}
	}
	return closes
}

func closeEvent(st OpenState, closeAt timecode.Value) (models.Event, bool) {
	if !closeAt.After(st.Since) {
		return models.Event{}, false
	}
	return models.Event{
		Time:     closeAt,
		Subject:  st.Subject,
		Behavior: st.Behavior,
		Modifier: st.Modifier,
	}, true
}

func sortStates(list []OpenState) {
	sort.Slice(list, func(i, j int) bool {
		if c := list[i].Since.Cmp(list[j].Since); c != 0 {
			return c < 0
		}
		return list[i].Behavior < list[j].Behavior
	})
}

func sortedSubjects(m map[string][]OpenState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
