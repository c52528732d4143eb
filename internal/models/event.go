package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harrison/ethocode/internal/timecode"
)

// NoFocalSubject is the subject name of events coded without a focal subject.
const NoFocalSubject = ""

// ModifierSeparator joins the modifiers selected for one event.
const ModifierSeparator = "|"

// Status is the derived role of an event in its behavior group.
type Status int

const (
	StatusPoint Status = iota
	StatusStart
	StatusStop
)

// String returns POINT, START or STOP.
func (s Status) String() string {
	switch s {
	case StatusStart:
		return "START"
	case StatusStop:
		return "STOP"
	default:
		return "POINT"
	}
}

// Event is one coded occurrence. It is stored in the project file as the tuple
// [time, subject, behavior, modifier, comment].
type Event struct {
	Time     timecode.Value
	Subject  string
	Behavior string
	Modifier string
	Comment  string
}

// GroupKey identifies a pairing group of STATE events.
type GroupKey struct {
	Subject  string
	Behavior string
	Modifier string
}

// String renders the key for diagnostics.
func (k GroupKey) String() string {
	subject := k.Subject
	if subject == NoFocalSubject {
		subject = "No focal subject"
	}
	if k.Modifier == "" {
		return fmt.Sprintf("%s / %s", subject, k.Behavior)
	}
	return fmt.Sprintf("%s / %s (%s)", subject, k.Behavior, k.Modifier)
}

// Group returns the pairing key, dropping the modifier unless withModifier is set.
func (e Event) Group(withModifier bool) GroupKey {
	k := GroupKey{Subject: e.Subject, Behavior: e.Behavior}
	if withModifier {
		k.Modifier = e.Modifier
	}
	return k
}

// SameTriple reports whether both events share time, subject and behavior.
func (e Event) SameTriple(o Event) bool {
	return e.Time.Equal(o.Time) && e.Subject == o.Subject && e.Behavior == o.Behavior
}

// Modifiers splits the modifier text into the selected values.
func (e Event) Modifiers() []string {
	if e.Modifier == "" {
		return nil
	}
	return strings.Split(e.Modifier, ModifierSeparator)
}

// MarshalJSON writes the event as a 5-element array.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Time, e.Subject, e.Behavior, e.Modifier, e.Comment})
}

// UnmarshalJSON reads the event tuple. Older files may omit the trailing fields.
func (e *Event) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	if len(fields) < 3 {
		return fmt.Errorf("decode event: expected at least 3 fields, got %d", len(fields))
	}

	var ev Event
	if err := json.Unmarshal(fields[0], &ev.Time); err != nil {
		return fmt.Errorf("decode event time: %w", err)
	}
	text := []*string{&ev.Subject, &ev.Behavior, &ev.Modifier, &ev.Comment}
	for i, dst := range text {
		if i+1 >= len(fields) {
			break
		}
		if string(fields[i+1]) == "null" {
			continue
		}
		if err := json.Unmarshal(fields[i+1], dst); err != nil {
			return fmt.Errorf("decode event field %d: %w", i+1, err)
		}
	}

	*e = ev
	return nil
}
