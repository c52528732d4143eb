package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/filelock"
	"github.com/harrison/ethocode/internal/project"
	"github.com/harrison/ethocode/internal/transitions"
)

// NewTransitionsCommand creates the transitions subcommand
func NewTransitionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transitions <project-file>",
		Short: "Build the behavior transition matrix of coded observations",
		Long: `Turn the events of every selected subject into a behavior string and
count how often each token is followed by each other token.

A POINT event is a token of its own. Starting a STATE adds a token made of
every state then open, joined by the state separator ("+"); stopping a
STATE adds the states still open, if any.

Modes:
  number                        raw transition counts
  frequency                     counts divided by the row total
  frequencies_after_behaviors   counts divided by the times the row token is
                                followed by any token, listed or not

Example:
  ethocode transitions pond.boris --mode frequency --dot --output pond.gv`,
		Args: cobra.ExactArgs(1),
		RunE: runTransitions,
	}
	cmd.Flags().StringSliceP("observation", "o", nil, "Observation ids (default: all)")
	cmd.Flags().StringSlice("subject", nil, "Subjects (default: all, use - for no focal subject)")
	cmd.Flags().StringSlice("behavior", nil, "Matrix labels (default: every observed token)")
	cmd.Flags().String("mode", transitions.Number.String(), "number, frequency or frequencies_after_behaviors")
	cmd.Flags().Bool("strings", false, "Print the behavior strings instead of the matrix")
	cmd.Flags().Bool("dot", false, "Write a Graphviz digraph instead of a table")
	addOutputFlags(cmd)
	return cmd
}

func runTransitions(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	modeText, _ := cmd.Flags().GetString("mode")
	mode, err := transitions.ParseMode(modeText)
	if err != nil {
		return err
	}

	p, err := project.Load(args[0])
	if err != nil {
		return err
	}
	ids, _ := cmd.Flags().GetStringSlice("observation")
	ids, err = project.Select(p, ids)
	if err != nil {
		return err
	}
	subjects := p.SubjectNames()
	if cmd.Flags().Changed("subject") {
		raw, _ := cmd.Flags().GetStringSlice("subject")
		subjects = subjects[:0]
		for _, s := range raw {
			subjects = append(subjects, subjectArg(s))
		}
	}

	eth := p.EthogramIndex()
	var strs []string
	for _, id := range ids {
		strs = append(strs, transitions.BehavioralStrings(p.Observations[id].Events, eth, subjects,
			e.cfg.BehaviorSeparator, e.cfg.StateSeparator)...)
	}

	if onlyStrings, _ := cmd.Flags().GetBool("strings"); onlyStrings {
		t := &export.Table{Title: "Behavior strings", Header: []string{"String"}}
		for _, s := range strs {
			t.AddRow(s)
		}
		return writeTables(cmd, t)
	}

	sequences, observed := transitions.Analyze(strs, e.cfg.BehaviorSeparator)
	labels := observed
	if cmd.Flags().Changed("behavior") {
		labels, _ = cmd.Flags().GetStringSlice("behavior")
	}
	m, err := transitions.ObservedTransitionsMatrix(sequences, labels, mode)
	if err != nil {
		return err
	}

	if dot, _ := cmd.Flags().GetBool("dot"); dot {
		graph := export.TransitionsDOT(m)
		if output, _ := cmd.Flags().GetString("output"); output != "" {
			if err := filelock.AtomicWrite(output, []byte(graph)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), graph)
		return nil
	}
	return writeTables(cmd, export.MatrixTable(fmt.Sprintf("Transitions (%s)", m.Mode), m))
}
