package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/project"
)

// NewAddEventCommand creates the add-event subcommand
func NewAddEventCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add-event <project-file>",
		Short: "Code an event into an observation",
		Long: `Add one event to an observation and save the project.

Starting a STATE behavior first stops, 1 ms earlier, the open states of
the same subject that it excludes. An event with the same time, subject
and behavior as an existing one is rejected and the project is left
unchanged.

Example:
  ethocode add-event pond.boris -o obs1 --time 12.5 --subject A --behavior eat --modifier fast`,
		Args: cobra.ExactArgs(1),
		RunE: runAddEvent,
	}
	cmd.Flags().StringP("observation", "o", "", "Observation id (required)")
	cmd.Flags().String("time", "", "Event time (required)")
	cmd.Flags().Bool("media", false, "Interpret --time as a media position (adds the observation time offset)")
	cmd.Flags().String("subject", "", "Subject name (empty for no focal subject)")
	cmd.Flags().String("behavior", "", "Behavior code (required)")
	cmd.Flags().String("modifier", "", "Modifier, several sets joined by |")
	cmd.Flags().String("comment", "", "Free text comment")
	cmd.MarkFlagRequired("observation")
	cmd.MarkFlagRequired("time")
	cmd.MarkFlagRequired("behavior")
	return cmd
}

func runAddEvent(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, _ := cmd.Flags().GetString("observation")
	timeText, _ := cmd.Flags().GetString("time")
	at, err := parseTime("time", timeText)
	if err != nil {
		return err
	}
	ev := models.Event{Time: at}
	subject, _ := cmd.Flags().GetString("subject")
	ev.Subject = subjectArg(subject)
	ev.Behavior, _ = cmd.Flags().GetString("behavior")
	ev.Modifier, _ = cmd.Flags().GetString("modifier")
	ev.Comment, _ = cmd.Flags().GetString("comment")
	useMedia, _ := cmd.Flags().GetBool("media")

	var index int
	err = project.Update(cmd.Context(), args[0], func(p *models.Project) error {
		l, err := e.openFrom(cmd.Context(), p, id, false)
		if err != nil {
			return err
		}
		if useMedia {
			ev.Time = l.engine.EventTime(ev.Time)
		}
		index, err = l.engine.AddEvent(ev)
		if err != nil {
			return err
		}
		p.Observations[id] = l.engine.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s at %s to %s (event %d)\n",
		subjectName(ev.Subject), ev.Behavior, ev.Time.Format(e.timeMode()), id, index+1)
	return nil
}

// NewRemoveEventCommand creates the remove-event subcommand
func NewRemoveEventCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove-event <project-file>",
		Short: "Delete events from an observation",
		Long: `Delete events from an observation and save the project. Events are
selected either by their 1-based position in the time-ordered listing
(--index, repeatable) or by time, subject and behavior.`,
		Args: cobra.ExactArgs(1),
		RunE: runRemoveEvent,
	}
	cmd.Flags().StringP("observation", "o", "", "Observation id (required)")
	cmd.Flags().IntSlice("index", nil, "1-based event positions")
	cmd.Flags().String("time", "", "Event time")
	cmd.Flags().String("subject", "", "Subject name")
	cmd.Flags().String("behavior", "", "Behavior code")
	cmd.MarkFlagRequired("observation")
	cmd.MarkFlagsMutuallyExclusive("index", "time")
	cmd.MarkFlagsRequiredTogether("time", "behavior")
	return cmd
}

func runRemoveEvent(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, _ := cmd.Flags().GetString("observation")
	positions, _ := cmd.Flags().GetIntSlice("index")
	var target *models.Event
	if cmd.Flags().Changed("time") {
		timeText, _ := cmd.Flags().GetString("time")
		at, err := parseTime("time", timeText)
		if err != nil {
			return err
		}
		subject, _ := cmd.Flags().GetString("subject")
		behavior, _ := cmd.Flags().GetString("behavior")
		target = &models.Event{Time: at, Subject: subjectArg(subject), Behavior: behavior}
	}
	if target == nil && len(positions) == 0 {
		return fmt.Errorf("select events with --index or --time/--subject/--behavior")
	}

	removed := 0
	err = project.Update(cmd.Context(), args[0], func(p *models.Project) error {
		l, err := e.openFrom(cmd.Context(), p, id, false)
		if err != nil {
			return err
		}
		var indices []int
		if target != nil {
			for i, ev := range l.engine.Events() {
				if ev.SameTriple(*target) {
					indices = append(indices, i)
				}
			}
			if len(indices) == 0 {
				return fmt.Errorf("no event %s %s at %s in %s", subjectName(target.Subject), target.Behavior, target.Time, id)
			}
		} else {
			for _, pos := range positions {
				indices = append(indices, pos-1)
			}
			sort.Ints(indices)
		}
		if err := l.engine.RemoveEvents(indices); err != nil {
			return err
		}
		removed = len(indices)
		p.Observations[id] = l.engine.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d event(s) from %s\n", removed, id)
	return nil
}

// NewCloseStatesCommand creates the close-states subcommand
func NewCloseStatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "close-states <project-file>",
		Short: "Stop every state open at a given time",
		Long: `Add a STOP event, 1 ms before --at, for every state open at that time,
as done when an observation is stopped, and save the project.`,
		Args: cobra.ExactArgs(1),
		RunE: runCloseStates,
	}
	cmd.Flags().StringP("observation", "o", "", "Observation id (required)")
	cmd.Flags().String("at", "", "Time of the stop (required)")
	cmd.MarkFlagRequired("observation")
	cmd.MarkFlagRequired("at")
	return cmd
}

func runCloseStates(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, _ := cmd.Flags().GetString("observation")
	atText, _ := cmd.Flags().GetString("at")
	at, err := parseTime("at", atText)
	if err != nil {
		return err
	}

	var closes []models.Event
	err = project.Update(cmd.Context(), args[0], func(p *models.Project) error {
		l, err := e.openFrom(cmd.Context(), p, id, false)
		if err != nil {
			return err
		}
		if closes, err = l.engine.CloseAll(at); err != nil {
			return err
		}
		p.Observations[id] = l.engine.Snapshot()
		return nil
	})
	if err != nil {
		return err
	}
	for _, c := range closes {
		fmt.Fprintf(cmd.OutOrStdout(), "Stopped %s %s at %s\n", subjectName(c.Subject), c.Behavior, c.Time.Format(e.timeMode()))
	}
	if len(closes) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No state open at %s\n", at.Format(e.timeMode()))
	}
	return nil
}
