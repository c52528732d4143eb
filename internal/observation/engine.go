// Package observation owns the coding state of one observation: its event
// store, its media timeline and the rules applied when events are added.
//
// An Engine is created per observation and passed around explicitly. It is
// not safe for concurrent mutation; the host serializes edits.
package observation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/states"
	"github.com/harrison/ethocode/internal/timecode"
	"github.com/harrison/ethocode/internal/timeline"
)

var (
	// ErrUnknownBehavior is returned when an event uses a code missing from the ethogram.
	ErrUnknownBehavior = errors.New("unknown behavior")

	// ErrUnknownSubject is returned when an event uses a subject missing from the project.
	ErrUnknownSubject = errors.New("unknown subject")

	// ErrNoMedia is returned for timeline queries on observations without usable media.
	ErrNoMedia = errors.New("no media timeline")
)

// Logger receives engine notifications.
type Logger interface {
	LogEventAdded(observation string, ev models.Event, index int)
	LogEventsRemoved(observation string, removed []models.Event)
	LogStatesClosed(observation string, reason string, closes []models.Event)
	LogUnpaired(observation string, groups []events.Unpaired)
	LogProbe(path string, info media.Info, err error)
}

// Options configures an Engine.
type Options struct {
	// CloseStatesBetweenMedia closes open states at every segment boundary.
	// The observation's own close_behaviors_between_videos flag also enables it.
	CloseStatesBetweenMedia bool
	Logger                  Logger
}

// Engine is the owned coding state of one observation.
type Engine struct {
	id       string
	session  uuid.UUID
	meta     models.Observation
	store    *events.Store
	eth      *models.Ethogram
	subjects []string
	mapper   *timeline.Mapper
	mediaErr error
	opts     Options
}

// New builds an engine from already resolved parts. mapper may be nil for live observations.
// A nil subjects list accepts any subject.
func New(id string, obs models.Observation, eth *models.Ethogram, subjects []string, mapper *timeline.Mapper, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	opts.CloseStatesBetweenMedia = opts.CloseStatesBetweenMedia || obs.CloseBehaviorsBetweenVideos

	meta := obs
	meta.Events = nil
	return &Engine{
		id:       id,
		session:  uuid.New(),
		meta:     meta,
		store:    events.NewStore(obs.Events),
		eth:      eth,
		subjects: subjects,
		mapper:   mapper,
		opts:     opts,
	}
}

// Open builds an engine and its media timeline, probing segments through cache.
// Probe failures are not fatal: the engine works without a timeline and MediaErr reports why.
// An unsupported track layout is returned as an error.
func Open(ctx context.Context, id string, obs models.Observation, eth *models.Ethogram, subjects []string, cache *media.Cache, opts Options) (*Engine, error) {
	e := New(id, obs, eth, subjects, nil, opts)
	if obs.Type == models.ObservationLive || len(obs.Track(1)) == 0 {
		e.mediaErr = ErrNoMedia
		return e, nil
	}

	if cache == nil {
		cache = media.NewCache(nil, nil)
	}
	cache.SeedObservation(obs)
	var tracks [2][]timeline.Segment
	for i := range tracks {
		for _, path := range obs.Track(i + 1) {
			info, err := cache.Probe(ctx, path)
			e.opts.Logger.LogProbe(path, info, err)
			if err != nil {
				e.mediaErr = err
				return e, nil
			}
			tracks[i] = append(tracks[i], timeline.Segment{
				Path:       path,
				Duration:   info.Duration,
				FPS:        info.FPS,
				FrameCount: info.FrameCount,
				HasVideo:   info.HasVideo,
				HasAudio:   info.HasAudio,
			})
		}
	}

	mapper, err := timeline.NewMapper(tracks[0], tracks[1], obs.TimeOffsetSecondPlayer)
	if err != nil {
		return nil, fmt.Errorf("observation %s: %w", id, err)
	}
	e.mapper = mapper
	return e, nil
}

// ID returns the observation id.
func (e *Engine) ID() string { return e.id }

// Session identifies this engine instance in logs.
func (e *Engine) Session() uuid.UUID { return e.session }

// Mapper returns the media timeline, nil when unavailable.
func (e *Engine) Mapper() *timeline.Mapper { return e.mapper }

// MediaErr tells why the media timeline is unavailable, nil when it is usable.
func (e *Engine) MediaErr() error { return e.mediaErr }

// Ethogram returns the behavior registry.
func (e *Engine) Ethogram() *models.Ethogram { return e.eth }

// Events returns a copy of the events in time order.
func (e *Engine) Events() []models.Event { return e.store.Events() }

// Len returns the number of events.
func (e *Engine) Len() int { return e.store.Len() }

func (e *Engine) validate(ev models.Event) error {
	if _, ok := e.eth.Lookup(ev.Behavior); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBehavior, ev.Behavior)
	}
	if e.subjects == nil || ev.Subject == models.NoFocalSubject {
		return nil
	}
	for _, s := range e.subjects {
		if s == ev.Subject {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownSubject, ev.Subject)
}

// AddEvent inserts ev and returns its position.
// Opening a STATE first closes, at ev.Time-1ms, the open states of the same subject it excludes.
// On error nothing is added.
func (e *Engine) AddEvent(ev models.Event) (int, error) {
	if err := e.validate(ev); err != nil {
		return -1, err
	}
	current := e.store.Events()
	closes := states.ExclusionCloses(current, e.eth, ev.Subject, ev.Behavior, ev.Time)

	next := e.clone()
	for _, c := range closes {
		if _, err := next.Add(c); err != nil {
			return -1, fmt.Errorf("close %s before %s: %w", c.Behavior, ev.Behavior, err)
		}
	}
	index, err := next.Add(ev)
	if err != nil {
		return -1, err
	}
	e.store = next

	if len(closes) > 0 {
		e.opts.Logger.LogStatesClosed(e.id, fmt.Sprintf("%s excludes them", ev.Behavior), closes)
	}
	e.opts.Logger.LogEventAdded(e.id, ev, index)
	return index, nil
}

// EditEvent replaces the event at index and returns its new position.
func (e *Engine) EditEvent(index int, ev models.Event) (int, error) {
	if err := e.validate(ev); err != nil {
		return -1, err
	}
	return e.store.Replace(index, ev)
}

// RemoveEvents deletes the events at the given positions.
func (e *Engine) RemoveEvents(indices []int) error {
	removed := make([]models.Event, 0, len(indices))
	for _, i := range indices {
		ev, err := e.store.At(i)
		if err != nil {
			return err
		}
		removed = append(removed, ev)
	}
	if err := e.store.Remove(indices); err != nil {
		return err
	}
	e.opts.Logger.LogEventsRemoved(e.id, removed)
	return nil
}

// Classify derives START/STOP/POINT for every event.
func (e *Engine) Classify() []events.Classified {
	return e.store.Classify(e.eth)
}

// Unpaired reports STATE groups with an odd event count and logs them.
func (e *Engine) Unpaired(subject *string) []events.Unpaired {
	groups := e.store.FindUnpaired(e.eth, subject)
	if len(groups) > 0 {
		e.opts.Logger.LogUnpaired(e.id, groups)
	}
	return groups
}

// CurrentStates returns the open state codes per subject at event time at.
func (e *Engine) CurrentStates(at timecode.Value) map[string][]string {
	return states.CurrentStates(e.store.Events(), e.eth, e.subjects, at)
}

// OpenStates returns the open states with their modifiers per subject at event time at.
func (e *Engine) OpenStates(at timecode.Value) map[string][]states.OpenState {
	return states.OpenStates(e.store.Events(), e.eth, e.subjects, at)
}

// Snapshot returns the observation with the current events, ready to persist.
func (e *Engine) Snapshot() models.Observation {
	obs := e.meta
	obs.Events = e.store.Events()
	return obs
}

// clone copies the store so a multi-event mutation can be applied all or nothing.
func (e *Engine) clone() *events.Store {
	return events.NewStore(e.store.Events())
}

type nopLogger struct{}

func (nopLogger) LogEventAdded(string, models.Event, int)        {}
func (nopLogger) LogEventsRemoved(string, []models.Event)        {}
func (nopLogger) LogStatesClosed(string, string, []models.Event) {}
func (nopLogger) LogUnpaired(string, []events.Unpaired)          {}
func (nopLogger) LogProbe(string, media.Info, error)             {}
