package timeline

import (
	"testing"

	"github.com/harrison/ethocode/internal/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tv(s string) timecode.Value { return timecode.MustParse(s) }

func threeSegments() []Segment {
	return []Segment{
		{Path: "a.mp4", Duration: tv("10"), FPS: 25},
		{Path: "b.mp4", Duration: tv("5.5"), FPS: 25},
		{Path: "c.mp4", Duration: tv("20"), FPS: 25},
	}
}

func TestNewMapper_MultiSegmentDualTrackUnsupported(t *testing.T) {
	_, err := NewMapper(threeSegments(), []Segment{{Path: "x.mp4", Duration: tv("1")}}, timecode.Zero)
	require.ErrorIs(t, err, ErrUnsupportedConfiguration)

	_, err = NewMapper(threeSegments()[:1], []Segment{{Path: "x.mp4", Duration: tv("1")}}, timecode.Zero)
	require.NoError(t, err)

	_, err = NewMapper(threeSegments(), nil, timecode.Zero)
	require.NoError(t, err)
}

func TestSegmentAt(t *testing.T) {
	m, err := NewMapper(threeSegments(), nil, timecode.Zero)
	require.NoError(t, err)
	assert.Equal(t, "35.500", m.Total(Track1).String())

	tests := []struct {
		global string
		index  int
		local  string
	}{
		{"0", 0, "0.000"},
		{"9.999", 0, "9.999"},
		{"10", 1, "0.000"},
		{"15.5", 2, "0.000"},
		{"16.25", 2, "0.750"},
		{"35.5", 2, "20.000"},
	}
	for _, tt := range tests {
		t.Run(tt.global, func(t *testing.T) {
			pos, err := m.SegmentAt(Track1, tv(tt.global))
			require.NoError(t, err)
			assert.Equal(t, tt.index, pos.Index)
			assert.Equal(t, tt.local, pos.Local.String())
		})
	}

	_, err = m.SegmentAt(Track1, tv("35.501"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.SegmentAt(Track1, tv("-0.001"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.SegmentAt(Track2, tv("1"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.SegmentAt(Track(3), tv("1"))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSegmentAt_RoundTrip(t *testing.T) {
	m, err := NewMapper(threeSegments(), nil, timecode.Zero)
	require.NoError(t, err)

	for ms := int64(1); ms < 35500; ms += 373 {
		global := timecode.FromMilliseconds(ms)
		pos, err := m.SegmentAt(Track1, global)
		require.NoError(t, err)
		back, err := m.GlobalTimeAt(Track1, pos.Index, pos.Local)
		require.NoError(t, err)
		require.True(t, back.Equal(global), "round trip of %s gave %s", global, back)
	}
}

func TestGlobalTimeAt_Errors(t *testing.T) {
	m, err := NewMapper(threeSegments(), nil, timecode.Zero)
	require.NoError(t, err)

	_, err = m.GlobalTimeAt(Track1, 3, tv("0"))
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.GlobalTimeAt(Track1, 1, tv("5.6"))
	assert.ErrorIs(t, err, ErrOutOfRange)

	g, err := m.GlobalTimeAt(Track1, 1, tv("2"))
	require.NoError(t, err)
	assert.Equal(t, "12.000", g.String())
}

func TestFrameAt(t *testing.T) {
	m, err := NewMapper(threeSegments(), nil, timecode.Zero)
	require.NoError(t, err)

	// 25 fps: 250, 137 and 500 frames.
	pos, err := m.FrameAt(Track1, 0, 25)
	require.NoError(t, err)
	assert.Equal(t, FramePosition{Index: 0, Local: 0}, pos)

	pos, err = m.FrameAt(Track1, 250, 25)
	require.NoError(t, err)
	assert.Equal(t, FramePosition{Index: 1, Local: 0}, pos)

	pos, err = m.FrameAt(Track1, 400, 25)
	require.NoError(t, err)
	assert.Equal(t, FramePosition{Index: 2, Local: 13}, pos)

	back, err := m.GlobalFrameAt(Track1, 2, 13, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(400), back)

	_, err = m.FrameAt(Track1, 887, 25)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = m.FrameAt(Track1, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidFrameRate)
	_, err = m.GlobalFrameAt(Track1, 1, 137, 25)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestFrameAt_UsesProbedFrameCount(t *testing.T) {
	segs := []Segment{{Duration: tv("10"), FrameCount: 100}, {Duration: tv("10"), FrameCount: 100}}
	m, err := NewMapper(segs, nil, timecode.Zero)
	require.NoError(t, err)

	pos, err := m.FrameAt(Track1, 150, 25)
	require.NoError(t, err)
	assert.Equal(t, FramePosition{Index: 1, Local: 50}, pos)
}

func TestFrameDurationAndTime(t *testing.T) {
	d, err := FrameDuration(25)
	require.NoError(t, err)
	assert.Equal(t, int64(40), d.Milliseconds())

	ft, err := FrameTime(50, 25)
	require.NoError(t, err)
	assert.True(t, ft.Equal(tv("2")))

	_, err = FrameDuration(-1)
	assert.ErrorIs(t, err, ErrInvalidFrameRate)
	_, err = FrameTime(1, 0)
	assert.ErrorIs(t, err, ErrInvalidFrameRate)
}
