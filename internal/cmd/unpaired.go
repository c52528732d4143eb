package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/display"
	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/project"
	"github.com/harrison/ethocode/internal/timebudget"
)

// NewUnpairedCommand creates the unpaired subcommand
func NewUnpairedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpaired <project-file>",
		Short: "Report STATE behaviors with an odd number of events",
		Long: `Report, per observation, the STATE groups (subject, behavior, modifier)
whose events do not pair into START/STOP couples. Time budgets mark these
groups UNPAIRED.

Exit code: 0 when every state is paired, 1 otherwise`,
		Args: cobra.ExactArgs(1),
		RunE: runUnpaired,
	}
	cmd.Flags().StringSliceP("observation", "o", nil, "Observation ids (default: all)")
	cmd.Flags().String("subject", "", "Only check this subject")
	addOutputFlags(cmd)
	return cmd
}

func runUnpaired(cmd *cobra.Command, args []string) error {
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
	var subject *string
	if cmd.Flags().Changed("subject") {
		s, _ := cmd.Flags().GetString("subject")
		s = subjectArg(s)
		subject = &s
	}

	var all []timebudget.UnpairedGroup
	for _, id := range ids {
		l, err := e.openFrom(cmd.Context(), p, id, false)
		if err != nil {
			return err
		}
		groups := l.engine.Unpaired(subject)
		if len(groups) == 0 {
			continue
		}
		display.WarnUnpaired(id, groups).Display(e.errOut)
		for _, g := range groups {
			all = append(all, timebudget.UnpairedGroup{Observation: id, Unpaired: g})
		}
	}

	if err := writeTables(cmd, export.UnpairedTable("Unpaired states", all)); err != nil {
		return err
	}
	if len(all) > 0 {
		return errUnpaired
	}
	return nil
}
