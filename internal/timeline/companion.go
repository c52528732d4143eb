package timeline

import "github.com/harrison/ethocode/internal/timecode"

// Companion is the position of the other track for a given time.
// Playing is false when that track has not started yet (Time is clamped to 0)
// or when Time is past the end of its media.
type Companion struct {
	Time    timecode.Value
	Playing bool
}

// CompanionTime maps a global time on track 1 to track 2.
// A positive offset delays track 2: companion = t1 - offset.
func (m *Mapper) CompanionTime(t1 timecode.Value) Companion {
	return follow(t1, m.offset, m.totals[1], m.HasSecondTrack())
}

// PrimaryTime maps a global time on track 2 back to track 1.
// With a negative offset track 1 starts later and is not playing while t2 < -offset.
func (m *Mapper) PrimaryTime(t2 timecode.Value) Companion {
	return follow(t2, m.offset.Neg(), m.totals[0], len(m.tracks[0]) > 0)
}

// follow shifts t by -offset for the follower track.
// bounded is false when the follower has no media and so no known end.
func follow(t, offset, total timecode.Value, bounded bool) Companion {
	if offset.Sign() > 0 && t.Before(offset) {
		return Companion{Time: timecode.Zero, Playing: false}
	}
	c := Companion{Time: t.Sub(offset), Playing: true}
	if bounded && c.Time.After(total) {
		c.Playing = false
	}
	return c
}
