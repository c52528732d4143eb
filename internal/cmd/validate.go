package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/display"
	"github.com/harrison/ethocode/internal/fileutil"
	"github.com/harrison/ethocode/internal/project"
)

var (
	errUnpaired = errors.New("unpaired states found")
	errInvalid  = errors.New("validation failed")
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <project-file-or-directory>...",
		Short: "Check project files for coding problems",
		Long: `Load project files and check every observation for:
  - Duplicate events (same time, subject and behavior)
  - Behaviors missing from the ethogram
  - Subjects missing from the subject list
  - Unpaired STATE events
  - Media files without saved media information

Directories are scanned for .boris and .json project files.

Exit code: 0 if valid, 1 if problems are found`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := fileutil.ExpandPaths(args, fileutil.ProjectExtensions, false)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no project files found")
			}
			return validateProjects(paths, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	return cmd
}

// validateProjects checks each project and reports to output
func validateProjects(paths []string, output io.Writer) error {
	failed := 0
	for _, path := range paths {
		if !validateProject(path, output) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d project file(s) have problems", errInvalid, failed, len(paths))
	}
	return nil
}

// validateProject prints the result for one file and reports whether it is clean
func validateProject(path string, output io.Writer) bool {
	p, err := project.Load(path)
	if err != nil {
		fmt.Fprintf(output, "%s %s: %v\n", color.RedString("✗"), path, err)
		return false
	}
	issues := project.Check(p)
	if len(issues) > 0 {
		display.WarnIssues(path, issues).Display(output)
		return false
	}
	fmt.Fprintf(output, "%s %s: %d observation(s) valid\n", color.GreenString("✓"), path, len(p.Observations))
	return true
}
