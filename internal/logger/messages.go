package logger

import (
	"fmt"
	"strings"

	"github.com/harrison/ethocode/internal/events"
	"github.com/harrison/ethocode/internal/media"
	"github.com/harrison/ethocode/internal/models"
)

// eventText renders "A eat (fast) at 1.000".
func eventText(ev models.Event) string {
	var sb strings.Builder
	sb.WriteString(subjectText(ev.Subject))
	sb.WriteString(" ")
	sb.WriteString(ev.Behavior)
	if ev.Modifier != "" {
		sb.WriteString(" (" + ev.Modifier + ")")
	}
	sb.WriteString(" at ")
	sb.WriteString(ev.Time.String())
	return sb.String()
}

func subjectText(subject string) string {
	if subject == models.NoFocalSubject {
		return "No focal subject"
	}
	return subject
}

func unpairedText(u events.Unpaired) string {
	return fmt.Sprintf("unpaired state %s: %s, last at %s", u.Group, plural(u.Count, "event"), u.LastTime)
}

func probeText(path string, info media.Info) string {
	var streams []string
	if info.HasVideo {
		streams = append(streams, "video")
	}
	if info.HasAudio {
		streams = append(streams, "audio")
	}
	if len(streams) == 0 {
		streams = append(streams, "no streams")
	}
	return fmt.Sprintf("probe %s: %ss, %g fps, %s", path, info.Duration, info.FPS, strings.Join(streams, "+"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
