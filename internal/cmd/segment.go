package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/timecode"
	"github.com/harrison/ethocode/internal/timeline"
)

// NewSegmentCommand creates the segment subcommand
func NewSegmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment <project-file>",
		Short: "Map times and frames between the global timeline and media files",
		Long: `Locate a position of an observation's media timeline. The media files
of a player are concatenated; the command maps between the global position
and (file, local position). With a second player the companion position
on the other player is reported too.

Exactly one of --time, --frame or --file/--local selects the position.

Examples:
  ethocode segment pond.boris -o obs1 --time 00:02:10
  ethocode segment pond.boris -o obs1 --file 2 --local 15.5
  ethocode segment pond.boris -o obs1 --frame 3000 --fps 25`,
		Args: cobra.ExactArgs(1),
		RunE: runSegment,
	}
	cmd.Flags().StringP("observation", "o", "", "Observation id (required)")
	cmd.Flags().Int("track", 1, "Player track: 1 or 2")
	cmd.Flags().String("time", "", "Global media time")
	cmd.Flags().Int64("frame", -1, "Global frame number")
	cmd.Flags().Float64("fps", 0, "Frame rate for --frame (default: frame rate of the first file)")
	cmd.Flags().Int("file", 0, "File number (1-based) for --local")
	cmd.Flags().String("local", "", "Time inside --file")
	cmd.MarkFlagRequired("observation")
	cmd.MarkFlagsMutuallyExclusive("time", "frame", "file")
	cmd.MarkFlagsRequiredTogether("file", "local")
	addOutputFlags(cmd)
	return cmd
}

func runSegment(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	id, _ := cmd.Flags().GetString("observation")
	trackNum, _ := cmd.Flags().GetInt("track")
	track := timeline.Track(trackNum)
	if track != timeline.Track1 && track != timeline.Track2 {
		return fmt.Errorf("--track must be 1 or 2, got %d", trackNum)
	}

	l, err := e.openObservation(cmd.Context(), args[0], id, true)
	if err != nil {
		return err
	}
	m := l.engine.Mapper()
	if m == nil {
		return fmt.Errorf("observation %s: %w", id, l.engine.MediaErr())
	}
	segs := m.Segments(track)
	mode := e.timeMode()

	var global timecode.Value
	var pos timeline.Position
	switch {
	case cmd.Flags().Changed("time"):
		text, _ := cmd.Flags().GetString("time")
		if global, err = parseTime("time", text); err != nil {
			return err
		}
		if pos, err = m.SegmentAt(track, global); err != nil {
			return err
		}
	case cmd.Flags().Changed("file"):
		file, _ := cmd.Flags().GetInt("file")
		text, _ := cmd.Flags().GetString("local")
		local, err := parseTime("local", text)
		if err != nil {
			return err
		}
		if global, err = m.GlobalTimeAt(track, file-1, local); err != nil {
			return err
		}
		pos = timeline.Position{Index: file - 1, Local: local}
	case cmd.Flags().Changed("frame"):
		frame, _ := cmd.Flags().GetInt64("frame")
		fps, _ := cmd.Flags().GetFloat64("fps")
		if fps == 0 && len(segs) > 0 {
			fps = segs[0].FPS
		}
		fp, err := m.FrameAt(track, frame, fps)
		if err != nil {
			return err
		}
		local, err := timeline.FrameTime(fp.Local, fps)
		if err != nil {
			return err
		}
		if global, err = m.GlobalTimeAt(track, fp.Index, local); err != nil {
			return err
		}
		pos = timeline.Position{Index: fp.Index, Local: local}
	default:
		return fmt.Errorf("one of --time, --frame or --file/--local is required")
	}

	t := &export.Table{
		Title:  fmt.Sprintf("Position on player %d of %s", track, id),
		Header: []string{"Global time", "File", "Path", "Local time", "Event time", "Other player", "Other player time"},
	}
	eventTime := global
	if track == timeline.Track1 {
		eventTime = l.engine.EventTime(global)
	}
	other, otherTime := "", ""
	if m.HasSecondTrack() {
		var c timeline.Companion
		if track == timeline.Track1 {
			c = m.CompanionTime(global)
		} else {
			c = m.PrimaryTime(global)
			eventTime = l.engine.EventTime(c.Time)
		}
		other = "stopped"
		if c.Playing {
			other = "playing"
		}
		otherTime = c.Time.Format(mode)
	}
	t.AddRow(global.Format(mode), pos.Index+1, segs[pos.Index].Path, pos.Local.Format(mode),
		eventTime.Format(mode), other, otherTime)
	return writeTables(cmd, t)
}
