package models

import (
	"encoding/json"
	"testing"

	"github.com/harrison/ethocode/internal/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProject = `{
  "project_name": "pond",
  "project_date": "2026-03-01T10:00:00",
  "project_description": "",
  "time_format": "hh:mm:ss",
  "project_format_version": "4.0",
  "subjects_conf": {
    "1": {"key": "b", "name": "B", "description": ""},
    "0": {"key": "a", "name": "A", "description": ""}
  },
  "ethogram": {
    "0": {"type": "State event", "key": "e", "code": "eat", "description": "", "modifiers": "fast,slow", "excluded": "rest", "coding map": "", "category": "feeding"},
    "1": {"type": "Point event", "key": "l", "code": "look", "description": "", "modifiers": "", "excluded": "", "coding map": "", "category": ""},
    "10": {"type": "State event with coding map", "key": "r", "code": "rest", "description": "", "modifiers": "", "excluded": "eat", "coding map": "zones", "category": "resting"}
  },
  "behavioral_categories": ["feeding", "resting"],
  "observations": {
    "obs1": {
      "type": "MEDIA",
      "date": "2026-03-01T10:00:00",
      "description": "",
      "file": {"1": ["a.mp4", "b.mp4"], "2": []},
      "time offset": 0,
      "time offset second player": -1.5,
      "events": [[1.0, "A", "eat", "", ""], [4.5, "A", "eat", "", ""], [1.2, "", "look", "", "note"]],
      "media_info": {"length": {"a.mp4": 60.04, "b.mp4": 30}, "fps": {"a.mp4": 25}, "hasVideo": {"a.mp4": true}, "hasAudio": {"a.mp4": false}},
      "close_behaviors_between_videos": true,
      "visualize_spectrogram": false
    }
  }
}`

func TestProject_Decode(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(sampleProject), &p))

	assert.Equal(t, "pond", p.Name)
	assert.Contains(t, p.Extra, "project_format_version")

	eth := p.EthogramIndex()
	assert.Equal(t, []string{"eat", "look", "rest"}, eth.Codes())
	assert.Equal(t, []string{"eat", "rest"}, eth.StateCodes())
	assert.Equal(t, []string{"feeding", "resting"}, eth.Categories())

	rest, ok := eth.Lookup("rest")
	require.True(t, ok)
	assert.Equal(t, StateKind, rest.Kind)
	assert.True(t, rest.Excludes("eat"))
	assert.Equal(t, "zones", rest.CodingMap)

	eat, _ := eth.Lookup("eat")
	assert.Equal(t, [][]string{{"fast", "slow"}}, eat.ModifierSets())

	assert.Equal(t, []string{"", "A", "B"}, p.SubjectNames())

	obs := p.Observations["obs1"]
	require.Len(t, obs.Events, 3)
	assert.Equal(t, "note", obs.Events[2].Comment)
	assert.True(t, obs.TimeOffsetSecondPlayer.Equal(timecode.MustParse("-1.5")))
	assert.Contains(t, obs.Extra, "visualize_spectrogram")
	assert.True(t, obs.CloseBehaviorsBetweenVideos)

	length, ok := obs.MediaLength()
	require.True(t, ok)
	assert.Equal(t, "90.040", length.String())
}

func TestProject_RoundTripKeepsUnknownKeys(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(sampleProject), &p))

	out, err := json.Marshal(p)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.Equal(t, "4.0", generic["project_format_version"])

	obs := generic["observations"].(map[string]interface{})["obs1"].(map[string]interface{})
	assert.Equal(t, false, obs["visualize_spectrogram"])
	assert.Equal(t, -1.5, obs["time offset second player"])

	events := obs["events"].([]interface{})
	assert.Equal(t, []interface{}{1.0, "A", "eat", "", ""}, events[0])
}

func TestEvent_JSON(t *testing.T) {
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(`[12.5, "A", "eat"]`), &ev))
	assert.Equal(t, "12.500", ev.Time.String())
	assert.Equal(t, "eat", ev.Behavior)
	assert.Empty(t, ev.Modifier)

	require.NoError(t, json.Unmarshal([]byte(`[1, null, "look", "x|y", null]`), &ev))
	assert.Equal(t, NoFocalSubject, ev.Subject)
	assert.Equal(t, []string{"x", "y"}, ev.Modifiers())

	assert.Error(t, json.Unmarshal([]byte(`[1, "A"]`), &ev))
	assert.Error(t, json.Unmarshal([]byte(`{"time": 1}`), &ev))

	out, err := json.Marshal(Event{Time: timecode.MustParse("3.25"), Subject: "A", Behavior: "eat", Modifier: "fast"})
	require.NoError(t, err)
	assert.JSONEq(t, `[3.25, "A", "eat", "fast", ""]`, string(out))
}

func TestEvent_GroupAndTriple(t *testing.T) {
	a := Event{Time: timecode.MustParse("1"), Subject: "A", Behavior: "eat", Modifier: "fast"}
	b := Event{Time: timecode.MustParse("1.000"), Subject: "A", Behavior: "eat", Modifier: "slow"}

	assert.True(t, a.SameTriple(b))
	assert.NotEqual(t, a.Group(true), b.Group(true))
	assert.Equal(t, a.Group(false), b.Group(false))
	assert.Equal(t, "No focal subject / look", GroupKey{Behavior: "look"}.String())
	assert.Equal(t, "A / eat (fast)", a.Group(true).String())
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, StateKind, ParseKind("State event"))
	assert.Equal(t, StateKind, ParseKind("State event with coding map"))
	assert.Equal(t, PointKind, ParseKind("Point event"))
	assert.Equal(t, PointKind, ParseKind(""))
	assert.Equal(t, "State event", StateKind.String())
}

func TestEthogram_DuplicateCodeReplaces(t *testing.T) {
	eth := NewEthogram(
		Behavior{Code: "eat", Kind: PointKind},
		Behavior{Code: "look", Kind: PointKind},
		Behavior{Code: "eat", Kind: StateKind},
	)
	assert.Equal(t, []string{"eat", "look"}, eth.Codes())
	assert.True(t, eth.IsState("eat"))

	_, ok := eth.KindOf("missing")
	assert.False(t, ok)
}

func TestObservation_MediaLengthUnavailable(t *testing.T) {
	live := Observation{Type: ObservationLive}
	_, ok := live.MediaLength()
	assert.False(t, ok)

	missing := Observation{Type: ObservationMedia, Files: map[string][]string{"1": {"x.mp4"}}}
	_, ok = missing.MediaLength()
	assert.False(t, ok)
}
