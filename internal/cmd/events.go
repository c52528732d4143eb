package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/export"
)

// NewEventsCommand creates the events subcommand
func NewEventsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events <project-file>",
		Short: "List the coded events of an observation with their START/STOP/POINT status",
		Long: `List every event of one observation in time order. STATE events are
classified as START or STOP by pairing them per subject, behavior and
modifier; POINT events are listed as POINT.

Example:
  ethocode events pond.boris --observation obs1 --subject A`,
		Args: cobra.ExactArgs(1),
		RunE: runEvents,
	}
	cmd.Flags().StringP("observation", "o", "", "Observation id (required)")
	cmd.Flags().StringSlice("subject", nil, "Only list events of these subjects")
	cmd.MarkFlagRequired("observation")
	addOutputFlags(cmd)
	return cmd
}

func runEvents(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, _ := cmd.Flags().GetString("observation")
	l, err := e.openObservation(cmd.Context(), args[0], id, false)
	if err != nil {
		return err
	}

	classified := l.engine.Classify()
	if cmd.Flags().Changed("subject") {
		subjects, _ := cmd.Flags().GetStringSlice("subject")
		classified = filterSubjects(classified, subjects)
	}
	return writeTables(cmd, export.EventsTable(fmt.Sprintf("Events of %s", id), classified, e.timeMode()))
}

func filterSubjects(classified []events.Classified, subjects []string) []events.Classified {
	want := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		want[subjectArg(s)] = true
	}
	out := classified[:0:0]
	for _, c := range classified {
		if want[c.Subject] {
			out = append(out, c)
		}
	}
	return out
}

// subjectArg maps the command-line spelling of "no focal subject" to its stored name
func subjectArg(s string) string {
	if s == "-" || s == "No focal subject" {
		return ""
	}
	return s
}
