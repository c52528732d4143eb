package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harrison/ethocode/internal/transitions"
)

// TransitionsDOT writes a Graphviz digraph of the non-zero matrix cells,
// each edge labelled with its value.
func TransitionsDOT(m *transitions.Matrix) string {
	var sb strings.Builder
	sb.WriteString("digraph G {\n")
	for i, from := range m.Labels {
		for j, to := range m.Labels {
			v := m.Cells[i][j]
			if v == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("    %s -> %s [label=%q];\n",
				strconv.Quote(from), strconv.Quote(to), strconv.FormatFloat(v, 'g', -1, 64)))
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}
