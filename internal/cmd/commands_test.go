package cmd

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/observation"
	"github.com/harrison/ethocode/internal/project"
	"github.com/harrison/ethocode/internal/timeline"
)

func TestEventsCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("events", f.project, "-o", "obs1")
	require.NoError(t, err)

	want := "Events of obs1\n" +
		"Time\tSubject\tBehavior\tModifiers\tStatus\tComment\n" +
		"1.000\tA\teat\t\tSTART\t\n" +
		"2.000\tA\tlook\t\tPOINT\t\n" +
		"4.500\tA\teat\t\tSTOP\t\n" +
		"6.000\tA\twalk\t\tSTART\t\n"
	assert.Equal(t, want, out)
}

func TestEventsCommand_SubjectFilterAndFormat(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("events", f.project, "-o", "obs1", "--subject", "B", "--time-format", "hh:mm:ss", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, "Events of obs1\nTime,Subject,Behavior,Modifiers,Status,Comment\n", out)

	_, _, err = f.run("events", f.project, "-o", "missing")
	assert.ErrorIs(t, err, project.ErrObservationNotFound)
}

func TestStatesCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("states", f.project, "-o", "obs1", "--at", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "A\teat\t\t1.000\n")
	assert.NotContains(t, out, "walk")

	out, _, err = f.run("states", f.project, "-o", "obs1", "--at", "7", "--media")
	require.NoError(t, err)
	assert.Contains(t, out, "States of obs1 at media 7.000 (file 2, 2.000)")
	assert.Contains(t, out, "A\twalk\t\t6.000\n")
}

func TestStatesCommand_MediaNeedsTimeline(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run("states", f.project, "-o", "live", "--at", "3", "--media")
	assert.ErrorIs(t, err, observation.ErrNoMedia)
}

func TestUnpairedCommand(t *testing.T) {
	f := newFixture(t)
	out, stderr, err := f.run("unpaired", f.project)
	assert.ErrorIs(t, err, errUnpaired)
	assert.Contains(t, stderr, "Unpaired states in observation obs1")
	assert.Contains(t, out, "obs1\tA\twalk\t\t1\t6.000\n")

	_, _, err = f.run("unpaired", f.project, "-o", "live")
	assert.NoError(t, err)
}

func TestSegmentCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("segment", f.project, "-o", "obs1", "--time", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "7.000\t2\tb.mp4\t2.000\t7.000\t\t\n")

	out, _, err = f.run("segment", f.project, "-o", "obs1", "--file", "1", "--local", "4.5")
	require.NoError(t, err)
	assert.Contains(t, out, "4.500\t1\ta.mp4\t4.500\t4.500\t\t\n")

	out, _, err = f.run("segment", f.project, "-o", "obs1", "--frame", "150")
	require.NoError(t, err)
	assert.Contains(t, out, "6.000\t2\tb.mp4\t1.000\t6.000\t\t\n")

	_, _, err = f.run("segment", f.project, "-o", "obs1", "--time", "11")
	assert.ErrorIs(t, err, timeline.ErrOutOfRange)
}

func TestTimeBudgetCommand(t *testing.T) {
	f := newFixture(t)
	out, stderr, err := f.run("timebudget", f.project, "-o", "obs1", "--categories")
	require.NoError(t, err)

	assert.Contains(t, out, "Time budget of obs1 (total length 10)\n")
	assert.Contains(t, out, "A\teat\t\tState event\t1\t3.5\t3.5\tNA\tNA\tNA\t35\n")
	assert.Contains(t, out, "A\tlook\t\tPoint event\t1\tNA\tNA\tNA\tNA\tNA\tNA\n")
	assert.Contains(t, out, "A\twalk\t\tState event\tUNPAIRED")
	assert.Contains(t, out, "A\tfeeding\t1\t3.5\n")
	assert.Contains(t, stderr, "Unpaired states in observation obs1")
}

func TestTimeBudgetCommand_Window(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("timebudget", f.project, "-o", "obs1", "--behavior", "eat", "--start", "3", "--end", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "A\teat\t\tState event\t1\t1.5\t1.5\tNA\tNA\tNA\t75\n")

	_, _, err = f.run("timebudget", f.project, "--start", "3", "--end", "5")
	assert.Error(t, err, "a window over several observations is refused")
}

func TestTimeBudgetCommand_LiveLength(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("timebudget", f.project, "-o", "live", "--format", "json")
	require.NoError(t, err)

	var doc []struct {
		Title string                   `json:"title"`
		Rows  []map[string]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc, 1)
	require.Len(t, doc[0].Rows, 1)
	assert.Equal(t, "NA", doc[0].Rows[0]["% of total length"])

	out, _, err = f.run("timebudget", f.project, "-o", "live", "--use-last-event")
	require.NoError(t, err)
	assert.Contains(t, out, "A\teat\t\tState event\t1\t3\t3\tNA\tNA\tNA\t60\n")
}

func TestTransitionsCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("transitions", f.project, "-o", "obs1", "--strings")
	require.NoError(t, err)
	assert.Equal(t, "Behavior strings\nString\neat|look|walk\n", out)

	out, _, err = f.run("transitions", f.project, "-o", "obs1")
	require.NoError(t, err)
	want := "Transitions (number)\n" +
		"\teat\tlook\twalk\n" +
		"eat\t0\t1\t0\n" +
		"look\t0\t0\t1\n" +
		"walk\t0\t0\t0\n"
	assert.Equal(t, want, out)

	out, _, err = f.run("transitions", f.project, "-o", "obs1", "--dot")
	require.NoError(t, err)
	assert.Contains(t, out, `"eat" -> "look" [label="1"];`)

	_, _, err = f.run("transitions", f.project, "-o", "live")
	assert.Error(t, err, "a single token has no transition")

	_, _, err = f.run("transitions", f.project, "--mode", "sideways")
	assert.Error(t, err)
}

func TestAddEventCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("add-event", f.project, "-o", "live", "--time", "3", "--subject", "A", "--behavior", "look")
	require.NoError(t, err)
	assert.Equal(t, "Added A look at 3.000 to live (event 2)\n", out)

	p, err := project.Load(f.project)
	require.NoError(t, err)
	assert.Len(t, p.Observations["live"].Events, 3)

	_, _, err = f.run("add-event", f.project, "-o", "live", "--time", "3", "--subject", "A", "--behavior", "look")
	assert.ErrorIs(t, err, events.ErrDuplicateEvent)
	_, _, err = f.run("add-event", f.project, "-o", "live", "--time", "4", "--behavior", "fly")
	assert.ErrorIs(t, err, observation.ErrUnknownBehavior)

	p, err = project.Load(f.project)
	require.NoError(t, err)
	assert.Len(t, p.Observations["live"].Events, 3, "failed adds leave the project unchanged")
}

func TestRemoveEventCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("remove-event", f.project, "-o", "obs1", "--time", "6", "--subject", "A", "--behavior", "walk")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 event(s) from obs1\n", out)

	_, _, err = f.run("remove-event", f.project, "-o", "obs1", "--index", "1", "--index", "3")
	require.NoError(t, err)

	p, err := project.Load(f.project)
	require.NoError(t, err)
	evs := p.Observations["obs1"].Events
	require.Len(t, evs, 1)
	assert.Equal(t, "look", evs[0].Behavior)

	_, _, err = f.run("remove-event", f.project, "-o", "obs1", "--index", "9")
	assert.Error(t, err)
}

func TestCloseStatesCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("close-states", f.project, "-o", "obs1", "--at", "8")
	require.NoError(t, err)
	assert.Equal(t, "Stopped A walk at 7.999\n", out)

	_, _, err = f.run("unpaired", f.project, "-o", "obs1")
	assert.NoError(t, err)

	out, _, err = f.run("close-states", f.project, "-o", "obs1", "--at", "9")
	require.NoError(t, err)
	assert.Equal(t, "No state open at 9.000\n", out)
}

func TestProbeCommand(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.run("probe")
	assert.ErrorContains(t, err, "no media files")

	clips := filepath.Join(f.dir, "clips")
	require.NoError(t, os.MkdirAll(clips, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(clips, "x.mp4"), []byte("not a video"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(clips, "notes.txt"), []byte("x"), 0644))

	out, stderr, err := f.run("probe", clips)
	assert.ErrorContains(t, err, "1 of 1 media files could not be probed")
	assert.Contains(t, stderr, "[1/1] x.mp4")
	assert.Contains(t, out, "x.mp4")
	assert.NotContains(t, out, "notes.txt")

	_, _, err = f.run("probe", "--record")
	assert.ErrorContains(t, err, "--record needs --project")
}

func TestValidateCommand(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run("validate", f.dir)
	assert.True(t, errors.Is(err, errInvalid))
	assert.Contains(t, out, "1 issue found in")
	assert.Contains(t, out, "[obs1] unpaired state")

	clean := filepath.Join(f.dir, "clean")
	require.NoError(t, os.MkdirAll(clean, 0755))
	content := strings.Replace(pondProject, `[6.0, "A", "walk", "", ""]`, `[6.0, "A", "walk", "", ""], [7.0, "A", "walk", "", ""]`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(clean, "pond.json"), []byte(content), 0644))

	out, _, err = f.run("validate", clean)
	require.NoError(t, err)
	assert.Contains(t, out, "pond.json: 2 observation(s) valid")

	_, _, err = f.run("validate", filepath.Join(f.dir, "missing.boris"))
	assert.Error(t, err)
}
