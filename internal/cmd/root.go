package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for ethocode
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ethocode",
		Short: "Behavioral observation coding and analysis",
		Long: `Ethocode codes behavioral observations against an ethogram and
analyses them: it lists and classifies coded events, resolves the states
that are open at any time, maps times onto multi-file media timelines,
computes time budgets and builds behavior transition matrices.

Projects are read from and written to the JSON project file format.
Configuration is loaded from .ethocode/config.yaml if present.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default: .ethocode/config.yaml)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error")
	pf.String("log-dir", "", "Directory for run logs")
	pf.Bool("no-log-file", false, "Do not write a run log")
	pf.BoolP("verbose", "v", false, "Shorthand for --log-level debug")
	pf.String("time-format", "", "Time display format: hh:mm:ss or s")
	pf.Bool("close-states", false, "Close open states at every media file boundary")

	cmd.AddCommand(NewEventsCommand())
	cmd.AddCommand(NewStatesCommand())
	cmd.AddCommand(NewUnpairedCommand())
	cmd.AddCommand(NewSegmentCommand())
	cmd.AddCommand(NewTimeBudgetCommand())
	cmd.AddCommand(NewTransitionsCommand())
	cmd.AddCommand(NewAddEventCommand())
	cmd.AddCommand(NewRemoveEventCommand())
	cmd.AddCommand(NewCloseStatesCommand())
	cmd.AddCommand(NewProbeCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewWatchCommand())

	return cmd
}
