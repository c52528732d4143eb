package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/ethocode/internal/config"
	"github.com/harrison/ethocode/internal/display"
	"github.com/harrison/ethocode/internal/export"
	"github.com/harrison/ethocode/internal/logger"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
	"github.com/harrison/ethocode/internal/observation"
	"github.com/harrison/ethocode/internal/project"
	"github.com/harrison/ethocode/internal/timecode"
)

// env is what every subcommand needs after flags are parsed
type env struct {
	cfg     *config.Config
	console *logger.ConsoleLogger
	file    *logger.FileLogger
	log     observation.Logger
	out     io.Writer
	errOut  io.Writer
	sqlite  *media.SQLiteStore
}

// setup loads the configuration, applies flag overrides and creates the loggers
func setup(cmd *cobra.Command) (*env, error) {
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	logDirFlag, _ := cmd.Flags().GetString("log-dir")
	timeFormatFlag, _ := cmd.Flags().GetString("time-format")
	closeStatesFlag, _ := cmd.Flags().GetBool("close-states")

	var logLevelPtr, logDirPtr, timeFormatPtr *string
	var closeStatesPtr *bool
	if cmd.Flags().Changed("log-level") {
		logLevelPtr = &logLevelFlag
	}
	if cmd.Flags().Changed("log-dir") {
		logDirPtr = &logDirFlag
	}
	if cmd.Flags().Changed("time-format") {
		timeFormatPtr = &timeFormatFlag
	}
	if cmd.Flags().Changed("close-states") {
		closeStatesPtr = &closeStatesFlag
	}
	cfg.MergeWithFlags(logLevelPtr, logDirPtr, timeFormatPtr, closeStatesPtr)

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{
		cfg:    cfg,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}
	e.console = logger.NewConsoleLogger(e.errOut, cfg.LogLevel)

	if noLog, _ := cmd.Flags().GetBool("no-log-file"); !noLog && cfg.LogDir != "" {
		e.file, err = logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
	}
	if e.file != nil {
		e.log = logger.NewMultiLogger(e.console, e.file)
	} else {
		e.log = e.console
	}
	return e, nil
}

// Close releases the run log and the probe database
func (e *env) Close() {
	if e.sqlite != nil {
		e.sqlite.Close()
	}
	if e.file != nil {
		e.file.Close()
	}
}

func (e *env) timeMode() timecode.Mode {
	mode, err := timecode.ParseMode(e.cfg.TimeFormat)
	if err != nil {
		return timecode.ModeHHMMSS
	}
	return mode
}

func (e *env) warn(message string) {
	e.console.LogWarn(message)
	if e.file != nil {
		e.file.LogWarn(message)
	}
}

// probeCache builds the ffprobe-backed cache, persisted in SQLite when configured
func (e *env) probeCache() *media.Cache {
	prober := media.FFProbe{Binary: e.cfg.Probe.FFProbePath, Timeout: e.cfg.Probe.Timeout}

	var store media.Store
	if e.cfg.Probe.CacheDB != "" && e.sqlite == nil {
		s, err := media.NewSQLiteStore(e.cfg.Probe.CacheDB)
		if err != nil {
			e.warn(fmt.Sprintf("probe cache disabled: %v", err))
		} else {
			e.sqlite = s
		}
	}
	if e.sqlite != nil {
		store = e.sqlite
	}

	cache := media.NewCache(prober, store)
	cache.Warn = e.warn
	return cache
}

// loaded is a project with one observation opened in an engine
type loaded struct {
	project *models.Project
	engine  *observation.Engine
}

// openObservation loads a project and opens observation id. With probe set
// the observation's media is analysed, otherwise the engine has no timeline.
func (e *env) openObservation(ctx context.Context, path, id string, probe bool) (*loaded, error) {
	p, err := project.Load(path)
	if err != nil {
		return nil, err
	}
	return e.openFrom(ctx, p, id, probe)
}

func (e *env) openFrom(ctx context.Context, p *models.Project, id string, probe bool) (*loaded, error) {
	obs, err := project.Observation(p, id)
	if err != nil {
		return nil, err
	}
	opts := observation.Options{CloseStatesBetweenMedia: e.cfg.CloseStatesBetweenMedia, Logger: e.log}

	if !probe {
		return &loaded{project: p, engine: observation.New(id, obs, p.EthogramIndex(), p.SubjectNames(), nil, opts)}, nil
	}
	eng, err := observation.Open(ctx, id, obs, p.EthogramIndex(), p.SubjectNames(), e.probeCache(), opts)
	if err != nil {
		return nil, err
	}
	if err := eng.MediaErr(); err != nil && len(obs.Track(1)) > 0 && obs.Type != models.ObservationLive {
		display.WarnProbeFailure(strings.Join(obs.Track(1), ", "), err).Display(e.errOut)
	}
	return &loaded{project: p, engine: eng}, nil
}

// parseTime parses a time flag, naming the flag in the error
func parseTime(flag, text string) (timecode.Value, error) {
	v, err := timecode.Parse(text)
	if err != nil {
		return timecode.Zero, fmt.Errorf("--%s: %w", flag, err)
	}
	return v, nil
}

// addOutputFlags registers --format and --output
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", export.FormatTSV, "Output format: tsv, csv, json, markdown (md), html")
	cmd.Flags().String("output", "", "Write the result to this file instead of stdout")
}

// writeTables renders tables to --output or to stdout.
// Titles are highlighted when plain text goes to a terminal.
func writeTables(cmd *cobra.Command, tables ...*export.Table) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	format, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	if output != "" {
		if err := export.ExportToFile(output, format, tables...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
		return nil
	}

	content, err := export.ExportToString(format, tables...)
	if err != nil {
		return err
	}
	if (format == export.FormatTSV || format == export.FormatCSV) && isTerminal(cmd.OutOrStdout()) {
		content = highlightTitles(content, tables)
	}
	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func highlightTitles(content string, tables []*export.Table) string {
	titles := make(map[string]bool)
	for _, t := range tables {
		if t.Title != "" {
			titles[t.Title] = true
		}
	}
	bold := color.New(color.Bold, color.FgCyan)
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		if titles[l] {
			lines[i] = bold.Sprint(l)
		}
	}
	return strings.Join(lines, "\n")
}
