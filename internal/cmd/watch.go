package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/project"
)

// NewWatchCommand creates the watch subcommand
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <project-file>",
		Short: "Validate a project file every time it is saved",
		Long: `Validate a project file, then validate it again each time it changes on
disk, until interrupted. Useful next to a coding session running in
another tool.`,
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
	cmd.Flags().Duration("debounce", project.DefaultDebounceDelay, "Wait this long after the last change before validating")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := args[0]
	out := cmd.OutOrStdout()
	check := func() {
		fmt.Fprintf(out, "[%s] ", time.Now().Format("15:04:05"))
		validateProject(path, out)
	}

	check()
	e.console.LogInfo(fmt.Sprintf("watching %s, press Ctrl+C to stop", path))
	delay, _ := cmd.Flags().GetDuration("debounce")
	return project.Watch(ctx, path, delay, check, func(err error) {
		e.warn(fmt.Sprintf("watch %s: %v", path, err))
	})
}
