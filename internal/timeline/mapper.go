// Package timeline maps the global observation clock onto concatenated media
// segments for one or two synchronized tracks.
package timeline

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/harrison/ethocode/internal/timecode"
)

var (
	// ErrOutOfRange is returned for times, frames or segment indices past the track.
	ErrOutOfRange = errors.New("out of range")

	// ErrUnsupportedConfiguration is returned for multi-segment track 1 with a non-empty track 2.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrInvalidFrameRate is returned for a frame rate <= 0.
	ErrInvalidFrameRate = errors.New("invalid frame rate")
)

// Track identifies player 1 or player 2.
type Track int

const (
	Track1 Track = 1
	Track2 Track = 2
)

// Segment is one media file of a track.
type Segment struct {
	Path       string
	Duration   timecode.Value
	FPS        float64
	FrameCount int64 // 0 when unknown
	HasVideo   bool
	HasAudio   bool
}

// Position locates a global time inside a segment.
type Position struct {
	Index int
	Local timecode.Value
}

// FramePosition locates a global frame inside a segment.
type FramePosition struct {
	Index int
	Local int64
}

// Mapper converts between global time and (segment, local time).
// Segment lists are fixed for the life of the observation.
type Mapper struct {
	tracks [2][]Segment
	starts [2][]timecode.Value // cumulative start time of each segment
	totals [2]timecode.Value
	offset timecode.Value
}

// NewMapper builds a mapper. offset is the signed delay of track 2 relative to track 1.
func NewMapper(track1, track2 []Segment, offset timecode.Value) (*Mapper, error) {
	if len(track1) > 1 && len(track2) > 0 {
		return nil, fmt.Errorf("%w: track 1 has %d segments and track 2 is not empty", ErrUnsupportedConfiguration, len(track1))
	}
	m := &Mapper{offset: offset}
	for i, segs := range [][]Segment{track1, track2} {
		m.tracks[i] = append([]Segment(nil), segs...)
		m.starts[i] = make([]timecode.Value, len(segs))
		total := timecode.Zero
		for j, s := range segs {
			m.starts[i][j] = total
			total = total.Add(s.Duration)
		}
		m.totals[i] = total
	}
	return m, nil
}

// Offset returns the track 2 offset.
func (m *Mapper) Offset() timecode.Value {
	return m.offset
}

// HasSecondTrack reports whether track 2 has media.
func (m *Mapper) HasSecondTrack() bool {
	return len(m.tracks[1]) > 0
}

// Segments returns a copy of a track's segments.
func (m *Mapper) Segments(track Track) []Segment {
	i, err := trackIndex(track)
	if err != nil {
		return nil
	}
	return append([]Segment(nil), m.tracks[i]...)
}

// Total returns the summed duration of a track.
func (m *Mapper) Total(track Track) timecode.Value {
	i, err := trackIndex(track)
	if err != nil {
		return timecode.Zero
	}
	return m.totals[i]
}

// SegmentAt maps a global time to a segment. A time exactly on a boundary belongs
// to the following segment; the track end maps to the end of the last segment.
func (m *Mapper) SegmentAt(track Track, global timecode.Value) (Position, error) {
	ti, err := trackIndex(track)
	if err != nil {
		return Position{}, err
	}
	segs := m.tracks[ti]
	if len(segs) == 0 {
		return Position{}, fmt.Errorf("%w: track %d has no media", ErrOutOfRange, track)
	}
	if global.Sign() < 0 || global.After(m.totals[ti]) {
		return Position{}, fmt.Errorf("%w: %s not in [0, %s] on track %d", ErrOutOfRange, global, m.totals[ti], track)
	}

	starts := m.starts[ti]
	idx := len(segs) - 1
	for i := 1; i < len(starts); i++ {
		if global.Before(starts[i]) {
			idx = i - 1
			break
		}
	}
	return Position{Index: idx, Local: global.Sub(starts[idx])}, nil
}

// GlobalTimeAt is the inverse of SegmentAt.
func (m *Mapper) GlobalTimeAt(track Track, index int, local timecode.Value) (timecode.Value, error) {
	ti, err := trackIndex(track)
	if err != nil {
		return timecode.Zero, err
	}
	segs := m.tracks[ti]
	if index < 0 || index >= len(segs) {
		return timecode.Zero, fmt.Errorf("%w: segment %d on track %d", ErrOutOfRange, index, track)
	}
	if local.Sign() < 0 || local.After(segs[index].Duration) {
		return timecode.Zero, fmt.Errorf("%w: %s not in segment %d of length %s", ErrOutOfRange, local, index, segs[index].Duration)
	}
	return m.starts[ti][index].Add(local), nil
}

// FrameDuration returns the length of one frame, 1/fps seconds.
func FrameDuration(fps float64) (timecode.Value, error) {
	if fps <= 0 {
		return timecode.Zero, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	return timecode.New(decimal.NewFromInt(1).Div(decimal.NewFromFloat(fps))), nil
}

// FrameTime returns the global time at which frame n starts.
func FrameTime(frame int64, fps float64) (timecode.Value, error) {
	if fps <= 0 {
		return timecode.Zero, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	return timecode.New(decimal.NewFromInt(frame).Div(decimal.NewFromFloat(fps))), nil
}

// frameCount is the number of whole frames of a segment at fps.
func frameCount(s Segment, fps decimal.Decimal) int64 {
	if s.FrameCount > 0 {
		return s.FrameCount
	}
	return s.Duration.Decimal().Mul(fps).Floor().IntPart()
}

// FrameAt maps a global frame counter to a segment in frame-by-frame mode.
func (m *Mapper) FrameAt(track Track, globalFrame int64, fps float64) (FramePosition, error) {
	ti, err := trackIndex(track)
	if err != nil {
		return FramePosition{}, err
	}
	if fps <= 0 {
		return FramePosition{}, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	if globalFrame < 0 {
		return FramePosition{}, fmt.Errorf("%w: frame %d", ErrOutOfRange, globalFrame)
	}

	rate := decimal.NewFromFloat(fps)
	remaining := globalFrame
	for i, s := range m.tracks[ti] {
		n := frameCount(s, rate)
		if remaining < n {
			return FramePosition{Index: i, Local: remaining}, nil
		}
		remaining -= n
	}
	return FramePosition{}, fmt.Errorf("%w: frame %d past end of track %d", ErrOutOfRange, globalFrame, track)
}

// GlobalFrameAt is the inverse of FrameAt.
func (m *Mapper) GlobalFrameAt(track Track, index int, local int64, fps float64) (int64, error) {
	ti, err := trackIndex(track)
	if err != nil {
		return 0, err
	}
	if fps <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFrameRate, fps)
	}
	segs := m.tracks[ti]
	if index < 0 || index >= len(segs) {
		return 0, fmt.Errorf("%w: segment %d on track %d", ErrOutOfRange, index, track)
	}

	rate := decimal.NewFromFloat(fps)
	if local < 0 || local >= frameCount(segs[index], rate) {
		return 0, fmt.Errorf("%w: frame %d in segment %d", ErrOutOfRange, local, index)
	}
	var global int64
	for _, s := range segs[:index] {
		global += frameCount(s, rate)
	}
	return global + local, nil
}

func trackIndex(track Track) (int, error) {
	switch track {
	case Track1:
		return 0, nil
	case Track2:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown track %d", ErrOutOfRange, track)
	}
}
