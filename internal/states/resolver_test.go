package states

import (
	"testing"

	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tv(s string) timecode.Value { return timecode.MustParse(s) }

func ev(t, subject, behavior, modifier string) models.Event {
	return models.Event{Time: tv(t), Subject: subject, Behavior: behavior, Modifier: modifier}
}

func ethogram() *models.Ethogram {
	return models.NewEthogram(
		models.Behavior{Code: "eat", Kind: models.StateKind, Excluded: []string{"rest"}},
		models.Behavior{Code: "rest", Kind: models.StateKind, Excluded: []string{"eat"}},
		models.Behavior{Code: "groom", Kind: models.StateKind},
		models.Behavior{Code: "look", Kind: models.PointKind},
	)
}

func scenario() []models.Event {
	return []models.Event{
		ev("1.000", "A", "eat", ""),
		ev("1.200", "", "look", ""),
		ev("4.500", "A", "eat", ""),
	}
}

func TestCurrentStates_Scenario(t *testing.T) {
	got := CurrentStates(scenario(), ethogram(), []string{"", "A"}, tv("2.0"))
	assert.Equal(t, []string{"eat"}, got["A"])
	assert.Equal(t, []string{}, got[""])

	got = CurrentStates(scenario(), ethogram(), []string{"", "A"}, tv("4.5"))
	assert.Empty(t, got["A"], "the closing event at the query time counts")

	got = CurrentStates(scenario(), ethogram(), []string{"A"}, tv("0.5"))
	assert.Empty(t, got["A"])
}

func TestCurrentStates_ParityIgnoresModifier(t *testing.T) {
	evs := []models.Event{
		ev("1", "A", "eat", "fast"),
		ev("2", "A", "groom", ""),
		ev("3", "A", "eat", "slow"),
		ev("5", "A", "eat", "slow"),
	}
	assert.Equal(t, []string{"eat", "groom"}, CurrentStates(evs, ethogram(), []string{"A"}, tv("2.5"))["A"])
	assert.Equal(t, []string{"groom"}, CurrentStates(evs, ethogram(), []string{"A"}, tv("4"))["A"])
	assert.Equal(t, []string{"groom", "eat"}, CurrentStates(evs, ethogram(), []string{"A"}, tv("6"))["A"])

	assert.Equal(t, "fast", ModifierOfOpenState(evs, "A", "eat", tv("2")))
	assert.Equal(t, "slow", ModifierOfOpenState(evs, "A", "eat", tv("9")))
	assert.Equal(t, "", ModifierOfOpenState(evs, "B", "eat", tv("9")))
}

func TestOpenStates_NilSubjectsUsesEvents(t *testing.T) {
	evs := []models.Event{ev("1", "A", "eat", "x"), ev("2", "B", "look", "")}
	got := OpenStates(evs, ethogram(), nil, tv("3"))
	require.Contains(t, got, "A")
	require.Contains(t, got, "B")
	require.Len(t, got["A"], 1)
	assert.Equal(t, "x", got["A"][0].Modifier)
	assert.Equal(t, "1.000", got["A"][0].Since.String())
	assert.Empty(t, got["B"])
}

func TestForceCloseOpenStates(t *testing.T) {
	evs := []models.Event{
		ev("1", "A", "eat", "fast"),
		ev("2", "B", "groom", ""),
		ev("3", "", "rest", ""),
		ev("4", "B", "groom", ""),
		ev("9.9995", "A", "rest", ""),
	}
	before := append([]models.Event(nil), evs...)

	closes := ForceCloseOpenStates(evs, ethogram(), []string{"", "A", "B"}, tv("10"))
	require.Len(t, closes, 2)

	assert.Equal(t, "", closes[0].Subject)
	assert.Equal(t, "rest", closes[0].Behavior)
	assert.Equal(t, "9.999", closes[0].Time.String())

	assert.Equal(t, "A", closes[1].Subject)
	assert.Equal(t, "eat", closes[1].Behavior)
	assert.Equal(t, "fast", closes[1].Modifier, "close carries the opening modifier")

	assert.Equal(t, before, evs, "input must not be mutated")

	// Appending the closes leaves nothing open that could be closed.
	all := append(append([]models.Event(nil), evs[:4]...), closes[0])
	all = append(all, closes[1], evs[4])
	assert.Equal(t, []string{"rest"}, CurrentStates(all, ethogram(), []string{"A"}, tv("10"))["A"])
}

func TestLingeringStates(t *testing.T) {
	evs := []models.Event{
		ev("1", "A", "eat", "fast"),
		ev("9.999", "B", "groom", "slow"),
		ev("9.9995", "A", "rest", ""),
	}

	lingering := LingeringStates(evs, ethogram(), []string{"", "A", "B"}, tv("10"))
	require.Len(t, lingering, 2)
	assert.Equal(t, OpenState{Subject: "A", Behavior: "rest", Since: tv("9.9995")}, lingering[0])
	assert.Equal(t, OpenState{Subject: "B", Behavior: "groom", Modifier: "slow", Since: tv("9.999")}, lingering[1])

	assert.Empty(t, LingeringStates(evs[:1], ethogram(), nil, tv("10")), "eat can be closed at 9.999")
}

func TestExclusionCloses(t *testing.T) {
	evs := []models.Event{ev("1", "A", "eat", "fast"), ev("2", "B", "eat", "")}

	closes := ExclusionCloses(evs, ethogram(), "A", "rest", tv("5"))
	require.Len(t, closes, 1)
	assert.Equal(t, models.Event{Time: tv("4.999"), Subject: "A", Behavior: "eat", Modifier: "fast"}, closes[0])

	assert.Empty(t, ExclusionCloses(evs, ethogram(), "A", "groom", tv("5")), "groom excludes nothing")
	assert.Empty(t, ExclusionCloses(evs, ethogram(), "A", "look", tv("5")), "points do not exclude")
	assert.Empty(t, ExclusionCloses(evs, ethogram(), "C", "rest", tv("5")), "other subjects are untouched")

	open := append(evs, ev("3", "A", "rest", ""))
	assert.Empty(t, ExclusionCloses(open, ethogram(), "A", "rest", tv("6")), "closing rest is not an opening")
}
