package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
)

const pond = `{
  "project_name": "pond",
  "project_format_version": "4.0",
  "subjects_conf": {"0": {"key": "a", "name": "A", "description": ""}},
  "ethogram": {
    "0": {"type": "State event", "key": "e", "code": "eat", "description": "", "modifiers": "", "excluded": "", "coding map": "", "category": "feeding"},
    "1": {"type": "Point event", "key": "l", "code": "look", "description": "", "modifiers": "", "excluded": "", "coding map": "", "category": ""}
  },
  "observations": {
    "obs1": {
      "type": "MEDIA",
      "file": {"1": ["a.mp4", "b.mp4"]},
      "time offset": 0,
      "time offset second player": 0,
      "events": [[1.0, "A", "eat", "", ""], [1.2, "", "look", "", ""], [1.2, "", "look", "", ""], [3.0, "Z", "fly", "", ""]],
      "media_info": {"length": {"a.mp4": 60}}
    },
    "live": {
      "type": "LIVE",
      "events": [[2.0, "A", "eat", "", ""], [5.0, "A", "eat", "", ""]]
    }
  }
}`

func writeProject(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pond.json")
	require.NoError(t, os.WriteFile(path, []byte(pond), 0644))
	return path
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := writeProject(t)
	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "obs1"}, p.ObservationIDs())

	require.NoError(t, Save(context.Background(), path, p))
	again, err := Load(path)
	require.NoError(t, err)
	assert.Contains(t, again.Extra, "project_format_version")
	assert.Len(t, again.Observations["obs1"].Events, 4)

	_, err = os.Stat(path + ".lock")
	assert.NoError(t, err, "save goes through the sidecar lock")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	path := writeProject(t)
	ctx := context.Background()

	err := Update(ctx, path, func(p *models.Project) error {
		obs := p.Observations["live"]
		obs.Events = append(obs.Events, models.Event{Time: timecode.MustParse("6"), Subject: "A", Behavior: "look"})
		p.Observations["live"] = obs
		return nil
	})
	require.NoError(t, err)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, p.Observations["live"].Events, 3)

	stop := errors.New("stop")
	assert.ErrorIs(t, Update(ctx, path, func(*models.Project) error { return stop }), stop)
	assert.ErrorIs(t, Update(ctx, filepath.Join(t.TempDir(), "none.json"), func(*models.Project) error { return nil }), os.ErrNotExist)
}

func TestObservationAndSelect(t *testing.T) {
	p, err := Decode([]byte(pond))
	require.NoError(t, err)

	_, err = Observation(p, "nope")
	assert.ErrorIs(t, err, ErrObservationNotFound)

	ids, err := Select(p, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "obs1"}, ids)

	_, err = Select(p, []string{"obs1", "nope"})
	assert.ErrorIs(t, err, ErrObservationNotFound)
}

func TestCheck(t *testing.T) {
	p, err := Decode([]byte(pond))
	require.NoError(t, err)

	kinds := make(map[IssueKind]int)
	for _, issue := range Check(p) {
		kinds[issue.Kind]++
		if issue.Kind == IssueUnpairedState {
			assert.Equal(t, "obs1", issue.Observation)
		}
	}
	assert.Equal(t, map[IssueKind]int{
		IssueDuplicateEvent:   1,
		IssueUnknownBehavior:  1,
		IssueUnknownSubject:   1,
		IssueUnpairedState:    1,
		IssueMissingMediaInfo: 1,
	}, kinds)
}
