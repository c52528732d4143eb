// Package transitions turns coded events into behavior strings and counts
// the transitions between consecutive tokens.
package transitions

import (
	"sort"
	"strings"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/models"
)

const (
	// DefaultBehaviorSeparator joins tokens of a behavior string.
	DefaultBehaviorSeparator = "|"
	// DefaultStateSeparator joins simultaneously open states inside a token.
	DefaultStateSeparator = "+"
)

// BehavioralString builds the token string of one subject.
// A POINT event contributes its code. A STATE start contributes every state
// open after it, joined by stateSep in opening order; a STATE stop contributes
// the states still open, or nothing when none remain.
func BehavioralString(evs []models.Event, kinds events.KindResolver, subject, behaviorSep, stateSep string) string {
	var tokens []string
	var open []string
	for _, c := range events.ClassifyEvents(evs, kinds, false) {
		if c.Subject != subject {
			continue
		}
		switch c.Status {
		case models.StatusPoint:
			tokens = append(tokens, c.Behavior)
		case models.StatusStart:
			open = append(open, c.Behavior)
			tokens = append(tokens, strings.Join(open, stateSep))
		case models.StatusStop:
			open = without(open, c.Behavior)
			if len(open) > 0 {
				tokens = append(tokens, strings.Join(open, stateSep))
			}
		}
	}
	return strings.Join(tokens, behaviorSep)
}

// BehavioralStrings builds one string per subject, skipping subjects without tokens.
func BehavioralStrings(evs []models.Event, kinds events.KindResolver, subjects []string, behaviorSep, stateSep string) []string {
	var out []string
	for _, s := range subjects {
		if str := BehavioralString(evs, kinds, s, behaviorSep, stateSep); str != "" {
			out = append(out, str)
		}
	}
	return out
}

// Analyze splits behavior strings into token sequences and collects the distinct tokens, sorted.
func Analyze(strs []string, sep string) ([][]string, []string) {
	seen := make(map[string]bool)
	var sequences [][]string
	for _, s := range strs {
		if s == "" {
			continue
		}
		seq := strings.Split(s, sep)
		for _, tok := range seq {
			seen[tok] = true
		}
		sequences = append(sequences, seq)
	}

	observed := make([]string, 0, len(seen))
	for tok := range seen {
		observed = append(observed, tok)
	}
	sort.Strings(observed)
	return sequences, observed
}

func without(list []string, code string) []string {
	for i, v := range list {
		if v == code {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
