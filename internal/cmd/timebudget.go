package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/display"
	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/project"
	"github.com/harrison/ethocode/internal/timebudget"
	"github.com/harrison/ethocode/internal/timeline"
)

// NewTimeBudgetCommand creates the timebudget subcommand
func NewTimeBudgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timebudget <project-file>",
		Short: "Compute occurrences, durations and intervals per subject and behavior",
		Long: `Compute the time budget of one or more observations: for every selected
subject and behavior the number of occurrences, the total, mean and
standard deviation of durations (STATE behaviors), the mean and standard
deviation of inter-event intervals and the percentage of the total length.

Figures that cannot be computed are reported as NA; STATE behaviors with
an odd number of events are reported as UNPAIRED.

A time window (--start/--end) can only be used with a single observation.
The observation length comes from the saved media information; --probe
analyses the media files instead. When a length is unavailable,
--use-last-event uses the time of the last event.

Example:
  ethocode timebudget pond.boris -o obs1 -o obs2 --categories --format md`,
		Args: cobra.ExactArgs(1),
		RunE: runTimeBudget,
	}
	cmd.Flags().StringSliceP("observation", "o", nil, "Observation ids (default: all)")
	cmd.Flags().StringSlice("subject", nil, "Subjects to report (default: all, use - for no focal subject)")
	cmd.Flags().StringSlice("behavior", nil, "Behavior codes to report (default: whole ethogram)")
	cmd.Flags().String("start", "", "Window start")
	cmd.Flags().String("end", "", "Window end")
	cmd.Flags().Bool("include-modifiers", false, "Split behaviors by modifier")
	cmd.Flags().Bool("exclude-empty", true, "Drop behaviors without events")
	cmd.Flags().Bool("use-last-event", false, "Use the last event time when the media length is unavailable")
	cmd.Flags().Bool("categories", false, "Add a table rolled up by behavioral category")
	cmd.Flags().Bool("probe", false, "Probe media files for the observation length")
	cmd.MarkFlagsRequiredTogether("start", "end")
	addOutputFlags(cmd)
	return cmd
}

func runTimeBudget(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	ids, _ := cmd.Flags().GetStringSlice("observation")
	ids, err = project.Select(p, ids)
	if err != nil {
		return err
	}

	opts := timebudget.Options{
		Subjects:                          p.SubjectNames(),
		Behaviors:                         p.EthogramIndex().Codes(),
		IncludeModifiers:                  e.cfg.TimeBudget.IncludeModifiers,
		ExcludeEmpty:                      e.cfg.TimeBudget.ExcludeEmpty,
		UseLastEventWhenLengthUnavailable: e.cfg.TimeBudget.UseLastEventWhenLengthUnavailable,
	}
	if cmd.Flags().Changed("subject") {
		subjects, _ := cmd.Flags().GetStringSlice("subject")
		opts.Subjects = opts.Subjects[:0]
		for _, s := range subjects {
			opts.Subjects = append(opts.Subjects, subjectArg(s))
		}
	}
	if cmd.Flags().Changed("behavior") {
		opts.Behaviors, _ = cmd.Flags().GetStringSlice("behavior")
	}
	if cmd.Flags().Changed("include-modifiers") {
		opts.IncludeModifiers, _ = cmd.Flags().GetBool("include-modifiers")
	}
	if cmd.Flags().Changed("exclude-empty") {
		opts.ExcludeEmpty, _ = cmd.Flags().GetBool("exclude-empty")
	}
	if cmd.Flags().Changed("use-last-event") {
		opts.UseLastEventWhenLengthUnavailable, _ = cmd.Flags().GetBool("use-last-event")
	}
	if cmd.Flags().Changed("start") {
		startText, _ := cmd.Flags().GetString("start")
		endText, _ := cmd.Flags().GetString("end")
		start, err := parseTime("start", startText)
		if err != nil {
			return err
		}
		end, err := parseTime("end", endText)
		if err != nil {
			return err
		}
		opts.Window = &timebudget.Interval{Start: start, End: end}
	}

	probe, _ := cmd.Flags().GetBool("probe")
	obs := make([]timebudget.Observation, 0, len(ids))
	for i, id := range ids {
		o := p.Observations[id]
		tb := timebudget.Observation{ID: id, Events: o.Events}
		tb.Length, tb.LengthKnown = o.MediaLength()
		if probe && !tb.LengthKnown {
			l, err := e.openFrom(cmd.Context(), p, id, true)
			if err != nil {
				return err
			}
			if m := l.engine.Mapper(); m != nil {
				tb.Length, tb.LengthKnown = m.Total(timeline.Track1), true
			}
		}
		if probe && len(ids) > 1 {
			e.console.LogProgress("Probing observations", i+1, len(ids))
		}
		obs = append(obs, tb)
	}

	res, err := timebudget.Compute(obs, p.EthogramIndex(), opts)
	if err != nil {
		return err
	}
	for _, g := range groupUnpaired(res.Unpaired) {
		display.WarnUnpaired(g[0].Observation, unpairedOf(g)).Display(e.errOut)
	}

	title := fmt.Sprintf("Time budget (total length %s)", res.TotalLength)
	if len(ids) == 1 {
		title = fmt.Sprintf("Time budget of %s (total length %s)", ids[0], res.TotalLength)
	}
	tables := []*export.Table{export.TimeBudgetTable(title, res)}
	if withCategories, _ := cmd.Flags().GetBool("categories"); withCategories {
		tables = append(tables, export.CategoryTable("Behavioral categories", timebudget.Categories(res.Rows, p.EthogramIndex())))
	}
	return writeTables(cmd, tables...)
}

// groupUnpaired splits unpaired groups per observation, keeping their order
func groupUnpaired(groups []timebudget.UnpairedGroup) [][]timebudget.UnpairedGroup {
	var out [][]timebudget.UnpairedGroup
	for _, g := range groups {
		if n := len(out); n > 0 && out[n-1][0].Observation == g.Observation {
			out[n-1] = append(out[n-1], g)
			continue
		}
		out = append(out, []timebudget.UnpairedGroup{g})
	}
	return out
}

func unpairedOf(groups []timebudget.UnpairedGroup) []events.Unpaired {
	out := make([]events.Unpaired, len(groups))
	for i, g := range groups {
		out[i] = g.Unpaired
	}
	return out
}
