package events

import (
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
)

// Classified is an event with its derived status.
type Classified struct {
	models.Event
	Index  int
	Status models.Status
}

// Unpaired describes a STATE group with an odd number of events.
type Unpaired struct {
	Group    models.GroupKey
	Count    int
	LastTime timecode.Value
}

// Classify derives START/STOP/POINT per (subject, behavior, modifier) group.
func (s *Store) Classify(kinds KindResolver) []Classified {
	return s.ClassifyBy(kinds, true)
}

// ClassifyBy derives statuses, grouping STATE events with or without the modifier.
func (s *Store) ClassifyBy(kinds KindResolver, withModifier bool) []Classified {
	return ClassifyEvents(s.events, kinds, withModifier)
}

// ClassifyEvents derives statuses for events already sorted by time.
// Codes unknown to kinds are treated as points.
func ClassifyEvents(evs []models.Event, kinds KindResolver, withModifier bool) []Classified {
	out := make([]Classified, len(evs))
	open := make(map[models.GroupKey]bool)
	for i, ev := range evs {
		out[i] = Classified{Event: ev, Index: i, Status: models.StatusPoint}
		if k, ok := kinds.KindOf(ev.Behavior); !ok || k != models.StateKind {
			continue
		}
		key := ev.Group(withModifier)
		if open[key] {
			out[i].Status = models.StatusStop
		} else {
			out[i].Status = models.StatusStart
		}
		open[key] = !open[key]
	}
	return out
}

// FindUnpaired reports STATE groups with an odd count, in order of first appearance.
// A nil subject means every subject.
func (s *Store) FindUnpaired(kinds KindResolver, subject *string) []Unpaired {
	return FindUnpairedEvents(s.events, kinds, subject, true)
}

// FindUnpairedEvents is FindUnpaired over a plain sorted slice.
func FindUnpairedEvents(evs []models.Event, kinds KindResolver, subject *string, withModifier bool) []Unpaired {
	counts := make(map[models.GroupKey]*Unpaired)
	var order []models.GroupKey
	for _, ev := range evs {
		if subject != nil && ev.Subject != *subject {
			continue
		}
		if k, ok := kinds.KindOf(ev.Behavior); !ok || k != models.StateKind {
			continue
		}
		key := ev.Group(withModifier)
		u, seen := counts[key]
		if !seen {
			u = &Unpaired{Group: key}
			counts[key] = u
			order = append(order, key)
		}
		u.Count++
		u.LastTime = ev.Time
	}

	var out []Unpaired
	for _, key := range order {
		if u := counts[key]; u.Count%2 == 1 {
			out = append(out, *u)
		}
	}
	return out
}
