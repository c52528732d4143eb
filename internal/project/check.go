package project

import (
	"fmt"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/models"
)

// IssueKind classifies a consistency problem.
type IssueKind string

const (
	IssueDuplicateEvent   IssueKind = "duplicate event"
	IssueUnknownBehavior  IssueKind = "unknown behavior"
	IssueUnknownSubject   IssueKind = "unknown subject"
	IssueUnpairedState    IssueKind = "unpaired state"
	IssueMissingMediaInfo IssueKind = "missing media info"
)

// Issue is one problem found in an observation.
type Issue struct {
	Observation string
	Kind        IssueKind
	Message     string
}

// Check reports consistency problems of every observation, in observation id order.
// It never modifies the project.
func Check(p *models.Project) []Issue {
	eth := p.EthogramIndex()
	known := make(map[string]bool)
	for _, s := range p.SubjectNames() {
		known[s] = true
	}

	var issues []Issue
	for _, id := range p.ObservationIDs() {
		obs := p.Observations[id]
		add := func(kind IssueKind, format string, args ...interface{}) {
			issues = append(issues, Issue{Observation: id, Kind: kind, Message: fmt.Sprintf(format, args...)})
		}

		store := events.NewStore(obs.Events)
		for _, i := range store.Duplicates() {
			ev, _ := store.At(i)
			add(IssueDuplicateEvent, "%s %s at %s", subjectName(ev.Subject), ev.Behavior, ev.Time)
		}

		seenBehavior := make(map[string]bool)
		seenSubject := make(map[string]bool)
		for _, ev := range store.Events() {
			if _, ok := eth.Lookup(ev.Behavior); !ok && !seenBehavior[ev.Behavior] {
				seenBehavior[ev.Behavior] = true
				add(IssueUnknownBehavior, "%q is not in the ethogram", ev.Behavior)
			}
			if !known[ev.Subject] && !seenSubject[ev.Subject] {
				seenSubject[ev.Subject] = true
				add(IssueUnknownSubject, "%q is not a project subject", ev.Subject)
			}
		}

		for _, u := range store.FindUnpaired(eth, nil) {
			add(IssueUnpairedState, "%s: %d events, last at %s", u.Group, u.Count, u.LastTime)
		}

		if obs.Type != models.ObservationLive {
			for _, path := range append(obs.Track(1), obs.Track(2)...) {
				if l, ok := obs.MediaInfo.Length[path]; !ok || l.Sign() <= 0 {
					add(IssueMissingMediaInfo, "no length recorded for %s", path)
				}
			}
		}
	}
	return issues
}

func subjectName(s string) string {
	if s == models.NoFocalSubject {
		return "No focal subject"
	}
	return s
}
