package observation

import (
	"errors"
	"fmt"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/states"
	"github.com/harrison/ethocode/internal/timecode"
	"github.com/harrison/ethocode/internal/timeline"
)

// EventTime converts a global media time on track 1 to event time by applying the observation time offset.
func (e *Engine) EventTime(media timecode.Value) timecode.Value {
	return media.Add(e.meta.TimeOffset)
}

// MediaTime is the inverse of EventTime.
func (e *Engine) MediaTime(event timecode.Value) timecode.Value {
	return event.Sub(e.meta.TimeOffset)
}

// Tick is what a player poll needs at one instant.
type Tick struct {
	EventTime timecode.Value
	Position  timeline.Position
	Companion *timeline.Companion // nil without a second track
	States    map[string][]string
}

// Tick answers a playback poll at global media time on track 1.
// It is a pure read and does not log.
func (e *Engine) Tick(media timecode.Value) (Tick, error) {
	if e.mapper == nil {
		return Tick{}, e.noMedia()
	}
	pos, err := e.mapper.SegmentAt(timeline.Track1, media)
	if err != nil {
		return Tick{}, err
	}
	t := Tick{
		EventTime: e.EventTime(media),
		Position:  pos,
	}
	if e.mapper.HasSecondTrack() {
		c := e.mapper.CompanionTime(media)
		t.Companion = &c
	}
	t.States = states.CurrentStates(e.store.Events(), e.eth, e.subjects, t.EventTime)
	return t, nil
}

// SegmentBoundaries returns the event times at which track 1 switches to its next segment.
func (e *Engine) SegmentBoundaries() []timecode.Value {
	if e.mapper == nil {
		return nil
	}
	segs := e.mapper.Segments(timeline.Track1)
	var out []timecode.Value
	for i := 1; i < len(segs); i++ {
		start, err := e.mapper.GlobalTimeAt(timeline.Track1, i, timecode.Zero)
		if err != nil {
			continue
		}
		out = append(out, e.EventTime(start))
	}
	return out
}

// OnSegmentTransition is called when playback moves to the next segment at event time at.
// When states are closed between media, every open state gets a STOP at at-1ms.
// The added events are returned.
func (e *Engine) OnSegmentTransition(at timecode.Value) ([]models.Event, error) {
	if !e.opts.CloseStatesBetweenMedia {
		return nil, nil
	}
	closes := states.ForceCloseOpenStates(e.store.Events(), e.eth, e.subjects, at)
	e.reportLingering(at)
	if len(closes) == 0 {
		return nil, nil
	}

	next := e.clone()
	for _, c := range closes {
		if _, err := next.Add(c); err != nil {
			return nil, fmt.Errorf("close %s at segment boundary: %w", c.Behavior, err)
		}
	}
	e.store = next
	e.opts.Logger.LogStatesClosed(e.id, "segment boundary", closes)
	return closes, nil
}

// CloseAll force-closes every state open at event time at, as done when an observation is stopped.
func (e *Engine) CloseAll(at timecode.Value) ([]models.Event, error) {
	closes := states.ForceCloseOpenStates(e.store.Events(), e.eth, e.subjects, at)
	e.reportLingering(at)
	next := e.clone()
	for _, c := range closes {
		if _, err := next.Add(c); err != nil {
			return nil, fmt.Errorf("close %s: %w", c.Behavior, err)
		}
	}
	e.store = next
	if len(closes) > 0 {
		e.opts.Logger.LogStatesClosed(e.id, "observation stopped", closes)
	}
	return closes, nil
}

// reportLingering logs, as unpaired, the states opened less than 1 ms before at.
// They cannot be closed at at-1ms and stay open.
func (e *Engine) reportLingering(at timecode.Value) {
	lingering := states.LingeringStates(e.store.Events(), e.eth, e.subjects, at)
	if len(lingering) == 0 {
		return
	}
	evs := e.store.Events()
	groups := make([]events.Unpaired, 0, len(lingering))
	for _, st := range lingering {
		count := 0
		for _, ev := range evs {
			if ev.Time.After(at) {
				break
			}
			if ev.Subject == st.Subject && ev.Behavior == st.Behavior {
				count++
			}
		}
		groups = append(groups, events.Unpaired{
			Group:    models.GroupKey{Subject: st.Subject, Behavior: st.Behavior, Modifier: st.Modifier},
			Count:    count,
			LastTime: st.Since,
		})
	}
	e.opts.Logger.LogUnpaired(e.id, groups)
}

// Position maps an event time to a segment of track 1.
func (e *Engine) Position(event timecode.Value) (timeline.Position, error) {
	if e.mapper == nil {
		return timeline.Position{}, e.noMedia()
	}
	return e.mapper.SegmentAt(timeline.Track1, e.MediaTime(event))
}

func (e *Engine) noMedia() error {
	if e.mediaErr != nil && !errors.Is(e.mediaErr, ErrNoMedia) {
		return fmt.Errorf("%w: %w", ErrNoMedia, e.mediaErr)
	}
	return ErrNoMedia
}
