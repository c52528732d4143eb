package display

import (
	"fmt"
	"io"
	"path/filepath"
)

// ProgressIndicator prints "[N/Total] name" steps with ANSI colors
type ProgressIndicator struct {
	writer  io.Writer
	label   string
	total   int
	current int
}

// NewProgressIndicator creates a progress indicator; label names the work, e.g. "Probing media files"
func NewProgressIndicator(w io.Writer, label string, total int) *ProgressIndicator {
	return &ProgressIndicator{writer: w, label: label, total: total}
}

// Start displays the header message
func (p *ProgressIndicator) Start() {
	fmt.Fprintf(p.writer, "%s:\n", p.label)
}

// Step displays progress for current item in cyan
func (p *ProgressIndicator) Step(path string) {
	p.current++
	fmt.Fprintf(p.writer, "\x1b[36m  [%d/%d] %s\x1b[0m\n", p.current, p.total, filepath.Base(path))
}

// Complete displays the summary with a green checkmark
func (p *ProgressIndicator) Complete(failed int) {
	if failed == 0 {
		fmt.Fprintf(p.writer, "\x1b[32m✓\x1b[0m %d/%d done\n", p.current, p.total)
		return
	}
	fmt.Fprintf(p.writer, "\x1b[33m!\x1b[0m %d/%d done, %d failed\n", p.current, p.total, failed)
}
