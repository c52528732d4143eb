package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/states"
)

// NewStatesCommand creates the states subcommand
func NewStatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "states <project-file>",
		Short: "Show the states open at a given time",
		Long: `Show, for every subject, the STATE behaviors open at a time of an
observation, with the modifier and time of their opening event.

With --media the time is read as a media position: the observation's time
offset is added before resolving states and the media segment is reported.

Example:
  ethocode states pond.boris -o obs1 --at 00:01:30.250`,
		Args: cobra.ExactArgs(1),
		RunE: runStates,
	}
	cmd.Flags().StringP("observation", "o", "", "Observation id (required)")
	cmd.Flags().String("at", "", "Time to resolve (HH:MM:SS.mmm or seconds, required)")
	cmd.Flags().Bool("media", false, "Interpret --at as a media position on player 1")
	cmd.MarkFlagRequired("observation")
	cmd.MarkFlagRequired("at")
	addOutputFlags(cmd)
	return cmd
}

func runStates(cmd *cobra.Command, args []string) error {
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
	useMedia, _ := cmd.Flags().GetBool("media")

	l, err := e.openObservation(cmd.Context(), args[0], id, useMedia)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("States of %s at %s", id, at.Format(e.timeMode()))
	var open map[string][]states.OpenState
	if useMedia {
		tick, err := l.engine.Tick(at)
		if err != nil {
			return err
		}
		title = fmt.Sprintf("States of %s at media %s (file %d, %s)", id, at.Format(e.timeMode()),
			tick.Position.Index+1, tick.Position.Local.Format(e.timeMode()))
		open = l.engine.OpenStates(tick.EventTime)
	} else {
		open = l.engine.OpenStates(at)
	}

	t := &export.Table{Title: title, Header: []string{"Subject", "Behavior", "Modifiers", "Since"}}
	for _, subject := range l.project.SubjectNames() {
		for _, st := range open[subject] {
			t.AddRow(subjectName(subject), st.Behavior, st.Modifier, st.Since.Format(e.timeMode()))
		}
	}
	return writeTables(cmd, t)
}

func subjectName(s string) string {
	if s == "" {
		return "No focal subject"
	}
	return s
}
