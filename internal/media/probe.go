// Package media discovers the duration and frame rate of media segments.
//
// Probing is delegated to a Prober (ffprobe by default). Results are cached
// per path so that a segment is probed at most once per process, and can be
// persisted across runs in a SQLite database.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/ethocode/internal/timecode"
)

// ErrProbeFailure wraps every failure to analyse a media file.
var ErrProbeFailure = errors.New("media probe failed")

// Info is what a probe learns about one media file.
type Info struct {
	FrameCount int64
	Duration   timecode.Value
	FPS        float64
	HasVideo   bool
	HasAudio   bool
}

// Prober analyses a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, path string) (Info, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, path string) (Info, error) {
	return f(ctx, path)
}

// FFProbe runs the ffprobe binary and parses its JSON output.
type FFProbe struct {
	Binary  string        // Path to ffprobe, "ffprobe" when empty
	Timeout time.Duration // Per-file timeout, none when 0
}

// ffprobeOutput is the subset of `ffprobe -of json -show_format -show_streams` we read.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

// Probe runs ffprobe on path.
func (p FFProbe) Probe(ctx context.Context, path string) (Info, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-of", "json",
		"-show_format",
		"-show_streams",
		path)

	output, err := cmd.Output()
	if err != nil {
		return Info{}, fmt.Errorf("%w: %s: %v", ErrProbeFailure, path, err)
	}
	return ParseFFProbe(output)
}

// ParseFFProbe extracts Info from ffprobe JSON output.
func ParseFFProbe(output []byte) (Info, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(output, &out); err != nil {
		return Info{}, fmt.Errorf("%w: decode ffprobe output: %v", ErrProbeFailure, err)
	}

	var info Info
	durationText := out.Format.Duration
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.FPS = parseRate(s.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = parseRate(s.RFrameRate)
			}
			info.FrameCount, _ = strconv.ParseInt(s.NbFrames, 10, 64)
			if durationText == "" {
				durationText = s.Duration
			}
		case "audio":
			info.HasAudio = true
			if durationText == "" {
				durationText = s.Duration
			}
		}
	}

	if !info.HasVideo && !info.HasAudio {
		return Info{}, fmt.Errorf("%w: no audio or video stream", ErrProbeFailure)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(durationText), 64)
	if err != nil || seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Info{}, fmt.Errorf("%w: unknown duration %q", ErrProbeFailure, durationText)
	}
	info.Duration = timecode.FromSeconds(seconds)
	return info, nil
}

// parseRate reads "30000/1001" or "25".
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if found {
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0
		}
		n /= d
	}
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
