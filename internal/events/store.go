// Package events holds the per-observation event store.
//
// The store keeps coded events sorted by time. Event status (START, STOP,
// POINT) is never stored: Classify derives it from the whole history each
// time it is asked, so edits and reorders cannot leave stale flags behind.
package events

import (
	"errors"
	"fmt"
	"sort"

	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
)

var (
	// ErrDuplicateEvent is returned when an event with the same time, subject and behavior exists.
	ErrDuplicateEvent = errors.New("duplicate event")

	// ErrIndexOutOfRange is returned for positions outside the store.
	ErrIndexOutOfRange = errors.New("event index out of range")
)

// KindResolver tells the store which codes are STATE behaviors.
type KindResolver interface {
	KindOf(code string) (models.Kind, bool)
}

// Store is the ordered event list of one observation.
// It is not safe for concurrent mutation; the host serializes edits.
type Store struct {
	events []models.Event
}

// NewStore builds a store from persisted events, sorting them by time.
// Loaded data is not rejected for duplicates; use Duplicates to report them.
func NewStore(evs []models.Event) *Store {
	s := &Store{events: make([]models.Event, len(evs))}
	copy(s.events, evs)
	sort.SliceStable(s.events, func(i, j int) bool {
		return s.events[i].Time.Before(s.events[j].Time)
	})
	return s
}

// Len returns the number of events.
func (s *Store) Len() int {
	return len(s.events)
}

// At returns the event at position i.
func (s *Store) At(i int) (models.Event, error) {
	if i < 0 || i >= len(s.events) {
		return models.Event{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return s.events[i], nil
}

// Events returns a copy of the events in time order.
func (s *Store) Events() []models.Event {
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Find returns the position of the event with the given triple, or -1.
func (s *Store) Find(t timecode.Value, subject, behavior string) int {
	probe := models.Event{Time: t, Subject: subject, Behavior: behavior}
	for i := s.lowerBound(t); i < len(s.events) && s.events[i].Time.Equal(t); i++ {
		if s.events[i].SameTriple(probe) {
			return i
		}
	}
	return -1
}

// Add inserts ev keeping time order; among equal times it goes last.
// It returns the position of the new event.
func (s *Store) Add(ev models.Event) (int, error) {
	if i := s.Find(ev.Time, ev.Subject, ev.Behavior); i >= 0 {
		return -1, fmt.Errorf("%w: %s %s at %s", ErrDuplicateEvent, subjectLabel(ev.Subject), ev.Behavior, ev.Time)
	}
	pos := s.upperBound(ev.Time)
	s.events = append(s.events, models.Event{})
	copy(s.events[pos+1:], s.events[pos:])
	s.events[pos] = ev
	return pos, nil
}

// Replace substitutes the event at index, as an edit does.
// The duplicate check ignores the row being replaced. On error the store is unchanged.
func (s *Store) Replace(index int, ev models.Event) (int, error) {
	if index < 0 || index >= len(s.events) {
		return -1, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if i := s.Find(ev.Time, ev.Subject, ev.Behavior); i >= 0 && i != index {
		return -1, fmt.Errorf("%w: %s %s at %s", ErrDuplicateEvent, subjectLabel(ev.Subject), ev.Behavior, ev.Time)
	}
	s.events = append(s.events[:index], s.events[index+1:]...)
	pos := s.upperBound(ev.Time)
	s.events = append(s.events, models.Event{})
	copy(s.events[pos+1:], s.events[pos:])
	s.events[pos] = ev
	return pos, nil
}

// Remove deletes the events at the given positions, all computed against the
// current ordering. Repeated positions are removed once. On error nothing is removed.
func (s *Store) Remove(indices []int) error {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.events) {
			return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
		}
		drop[i] = true
	}
	kept := s.events[:0]
	for i, ev := range s.events {
		if !drop[i] {
			kept = append(kept, ev)
		}
	}
	for i := len(kept); i < len(s.events); i++ {
		s.events[i] = models.Event{}
	}
	s.events = kept
	return nil
}

// Duplicates returns positions of events repeating an earlier (time, subject, behavior) triple.
func (s *Store) Duplicates() []int {
	var dups []int
	for i := 1; i < len(s.events); i++ {
		for j := i - 1; j >= 0 && s.events[j].Time.Equal(s.events[i].Time); j-- {
			if s.events[j].SameTriple(s.events[i]) {
				dups = append(dups, i)
				break
			}
		}
	}
	return dups
}

// lowerBound is the first position with time >= t.
func (s *Store) lowerBound(t timecode.Value) int {
	return sort.Search(len(s.events), func(i int) bool {
		return !s.events[i].Time.Before(t)
	})
}

// upperBound is the first position with time > t.
func (s *Store) upperBound(t timecode.Value) int {
	return sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Time.After(t)
	})
}

func subjectLabel(subject string) string {
	if subject == models.NoFocalSubject {
		return "no focal subject"
	}
	return subject
}
