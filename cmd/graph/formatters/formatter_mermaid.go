package formatters

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/unstar/depgraph"
)

// MermaidFormatter formats wildcard graphs as Mermaid.js flowcharts.
type MermaidFormatter struct{}

// Format converts the graph to a Mermaid flowchart.
func (f *MermaidFormatter) Format(g *depgraph.WildcardGraph, opts FormatOptions) (string, error) {
	view, err := newGraphView(g)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if opts.Label != "" {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", opts.Label))
		sb.WriteString("---\n")
	}
	sb.WriteString("flowchart LR\n")

	// Mermaid node IDs can't have dots or special characters
	nodeIDs := make(map[string]string, len(view.modules))
	var cycleNodes []string
	for i, module := range view.modules {
		id := fmt.Sprintf("n%d", i)
		nodeIDs[module] = id
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, module))
		if view.inCycles[module] {
			cycleNodes = append(cycleNodes, id)
		}
	}

	for i, e := range view.edges {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", nodeIDs[e.From], nodeIDs[e.To]))
		if e.cycle {
			sb.WriteString(fmt.Sprintf("    linkStyle %d stroke:red\n", i))
		}
	}

	if len(cycleNodes) > 0 {
		sb.WriteString("    classDef cycle fill:lightcoral\n")
		sb.WriteString(fmt.Sprintf("    class %s cycle\n", strings.Join(cycleNodes, ",")))
	}
	return sb.String(), nil
}
