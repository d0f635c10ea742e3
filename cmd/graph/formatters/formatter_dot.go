package formatters

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/unstar/depgraph"
)

// DOTFormatter formats wildcard graphs as Graphviz DOT.
type DOTFormatter struct{}

// Format converts the graph to DOT. Modules and edges that take part in a
// cycle are drawn in red.
func (f *DOTFormatter) Format(g *depgraph.WildcardGraph, opts FormatOptions) (string, error) {
	view, err := newGraphView(g)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("digraph wildcards {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n")

	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf("  label=%q;\n", opts.Label))
		sb.WriteString("  labelloc=t;\n")
		sb.WriteString("  labeljust=l;\n")
		sb.WriteString("  fontsize=10;\n")
		sb.WriteString("  fontname=Courier;\n")
	}
	sb.WriteString("\n")

	for _, module := range view.modules {
		color := "white"
		if view.inCycles[module] {
			color = "lightcoral"
		}
		sb.WriteString(fmt.Sprintf("  %q [style=filled, fillcolor=%s];\n", module, color))
	}
	if len(view.edges) > 0 {
		sb.WriteString("\n")
	}

	for _, e := range view.edges {
		if e.cycle {
			sb.WriteString(fmt.Sprintf("  %q -> %q [color=red];\n", e.From, e.To))
		} else {
			sb.WriteString(fmt.Sprintf("  %q -> %q;\n", e.From, e.To))
		}
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}
