package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/display"
	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/fileutil"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/project"
)

// NewProbeCommand creates the probe subcommand
func NewProbeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [media-file-or-directory]...",
		Short: "Analyse media files with ffprobe",
		Long: `Report duration, frame rate, frame count and streams of media files.
Directories are scanned for media files. Results are cached in the probe
database (probe.cache_db) so each file is analysed once.

With --project and --observation the observation's media files are probed
and --record saves the results into the project's media information.

Examples:
  ethocode probe videos/
  ethocode probe --project pond.boris -o obs1 --record`,
		RunE: runProbe,
	}
	cmd.Flags().Bool("recursive", false, "Scan directories recursively")
	cmd.Flags().String("project", "", "Project file whose observation media is probed")
	cmd.Flags().StringP("observation", "o", "", "Observation id, with --project")
	cmd.Flags().Bool("record", false, "Save the results into the project, with --project")
	cmd.MarkFlagsRequiredTogether("project", "observation")
	addOutputFlags(cmd)
	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	projectPath, _ := cmd.Flags().GetString("project")
	id, _ := cmd.Flags().GetString("observation")
	record, _ := cmd.Flags().GetBool("record")
	if record && projectPath == "" {
		return fmt.Errorf("--record needs --project and --observation")
	}

	var paths []string
	if projectPath != "" {
		p, err := project.Load(projectPath)
		if err != nil {
			return err
		}
		obs, err := project.Observation(p, id)
		if err != nil {
			return err
		}
		paths = append(paths, obs.Track(1)...)
		paths = append(paths, obs.Track(2)...)
	}
	recursive, _ := cmd.Flags().GetBool("recursive")
	expanded, err := fileutil.ExpandPaths(args, fileutil.MediaExtensions, recursive)
	if err != nil {
		return err
	}
	paths = append(paths, expanded...)
	if len(paths) == 0 {
		return fmt.Errorf("no media files to probe")
	}

	cache := e.probeCache()
	progress := display.NewProgressIndicator(e.errOut, "Probing media files", len(paths))
	progress.Start()

	t := &export.Table{
		Title:  "Media files",
		Header: []string{"Path", "Duration (s)", "FPS", "Frames", "Video", "Audio", "Error"},
	}
	var ok []string
	failed := 0
	for _, path := range paths {
		progress.Step(path)
		info, err := cache.Probe(cmd.Context(), path)
		e.log.LogProbe(path, info, err)
		if err != nil {
			failed++
			t.AddRow(path, "", "", "", "", "", err.Error())
			continue
		}
		ok = append(ok, path)
		t.AddRow(path, info.Duration, info.FPS, info.FrameCount, info.HasVideo, info.HasAudio, "")
	}
	progress.Complete(failed)

	if record && len(ok) > 0 {
		err := project.Update(cmd.Context(), projectPath, func(p *models.Project) error {
			obs, err := project.Observation(p, id)
			if err != nil {
				return err
			}
			segs, err := cache.Segments(cmd.Context(), ok)
			if err != nil {
				return err
			}
			media.Record(&obs, segs)
			p.Observations[id] = obs
			return nil
		})
		if err != nil {
			return err
		}
		e.console.LogInfo(fmt.Sprintf("recorded media information of %d file(s) in %s", len(ok), projectPath))
	}

	if err := writeTables(cmd, t); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d media files could not be probed", failed, len(paths))
	}
	return nil
}
