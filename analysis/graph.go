package analysis

import (
	"github.com/LegacyCodeHQ/unstar/depgraph"
)

// WildcardGraph builds the graph of wildcard imports written in the
// analyzed files. A file without a module name is keyed by its path.
// Sites whose target is unknown add no edge.
func WildcardGraph(reports []FileReport) (*depgraph.WildcardGraph, error) {
	g := depgraph.NewWildcardGraph()
	for _, report := range reports {
		from := VertexName(report)
		if err := g.AddModule(from); err != nil {
			return nil, err
		}
		for _, outcome := range report.Outcomes {
			if outcome.Site.Target == "" {
				continue
			}
			if err := g.AddWildcardEdge(from, outcome.Site.Target); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// VertexName is the graph key of a report's file.
func VertexName(report FileReport) string {
	if report.Module.Name != "" {
		return report.Module.Name
	}
	return report.Path
}
