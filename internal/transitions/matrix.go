package transitions

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrNoTransitions is returned when the sequences hold no transition between listed behaviors.
var ErrNoTransitions = errors.New("no transitions found")

// Mode selects how matrix cells are normalized.
type Mode int

const (
	// Number keeps raw transition counts.
	Number Mode = iota
	// Frequency divides each cell by its row total.
	Frequency
	// FrequenciesAfterBehaviors divides each cell by the number of times the row
	// behavior is followed by any token, listed or not.
	FrequenciesAfterBehaviors
)

var modeNames = map[Mode]string{
	Number:                    "number",
	Frequency:                 "frequency",
	FrequenciesAfterBehaviors: "frequencies_after_behaviors",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode reads a mode name.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return m, nil
		}
	}
	return Number, fmt.Errorf("unknown transition mode %q", s)
}

// Matrix is a square transition table; Cells[i][j] is Labels[i] followed by Labels[j]
type Matrix struct {
	Labels []string
	Cells  [][]float64
	Mode   Mode
}

// At returns the cell for from -> to, ok is false for unknown labels.
func (m *Matrix) At(from, to string) (float64, bool) {
	i, j := indexOf(m.Labels, from), indexOf(m.Labels, to)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Cells[i][j], true
}

// ObservedTransitionsMatrix counts consecutive-token transitions inside each sequence.
// Tokens missing from behaviors are not counted as source or target.
func ObservedTransitionsMatrix(sequences [][]string, behaviors []string, mode Mode) (*Matrix, error) {
	index := make(map[string]int, len(behaviors))
	for i, b := range behaviors {
		index[b] = i
	}

	n := len(behaviors)
	cells := make([][]float64, n)
	for i := range cells {
		cells[i] = make([]float64, n)
	}
	followed := make([]float64, n)

	total := 0
	for _, seq := range sequences {
		for k := 0; k+1 < len(seq); k++ {
			i, ok := index[seq[k]]
			if !ok {
				continue
			}
			followed[i]++
			j, ok := index[seq[k+1]]
			if !ok {
				continue
			}
			cells[i][j]++
			total++
		}
	}
	if total == 0 {
		return nil, ErrNoTransitions
	}

	switch mode {
	case Frequency:
		for i := range cells {
			normalize(cells[i], sum(cells[i]))
		}
	case FrequenciesAfterBehaviors:
		for i := range cells {
			normalize(cells[i], followed[i])
		}
	}

	labels := make([]string, n)
	copy(labels, behaviors)
	return &Matrix{Labels: labels, Cells: cells, Mode: mode}, nil
}

func normalize(row []float64, denominator float64) {
	if denominator == 0 {
		return
	}
	for j := range row {
		row[j] = math.Round(row[j]/denominator*1000) / 1000
	}
}

func sum(row []float64) float64 {
	var s float64
	for _, v := range row {
		s += v
	}
	return s
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
