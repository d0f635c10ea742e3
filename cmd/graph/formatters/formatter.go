// Package formatters renders the wildcard-import graph.
package formatters

import (
	"fmt"
	"strings"

	"github.com/LegacyCodeHQ/unstar/depgraph"
)

// OutputFormat represents an output format type
type OutputFormat string

const (
	OutputFormatDOT     OutputFormat = "dot"
	OutputFormatJSON    OutputFormat = "json"
	OutputFormatMermaid OutputFormat = "mermaid"
)

// String returns the string representation of the format
func (f OutputFormat) String() string {
	return string(f)
}

// SupportedFormats lists the valid --format values.
func SupportedFormats() string {
	return strings.Join([]string{
		OutputFormatDOT.String(),
		OutputFormatJSON.String(),
		OutputFormatMermaid.String(),
	}, ", ")
}

// FormatOptions contains optional parameters for formatting graphs.
type FormatOptions struct {
	// Label is an optional title or label for the graph
	Label string
}

// Formatter is the interface that all graph formatters must implement.
type Formatter interface {
	// Format converts a wildcard graph to a formatted string representation.
	Format(g *depgraph.WildcardGraph, opts FormatOptions) (string, error)
}

// NewFormatter creates a Formatter for the specified format type.
func NewFormatter(format string) (Formatter, error) {
	switch OutputFormat(format) {
	case OutputFormatDOT:
		return &DOTFormatter{}, nil
	case OutputFormatJSON:
		return &JSONFormatter{}, nil
	case OutputFormatMermaid:
		return &MermaidFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (valid options: %s)", format, SupportedFormats())
	}
}

// graphView is a sorted, cycle-annotated copy of a graph.
type graphView struct {
	modules  []string
	edges    []viewEdge
	cycles   []depgraph.Cycle
	inCycles map[string]bool
}

type viewEdge struct {
	depgraph.Edge
	cycle bool
}

func newGraphView(g *depgraph.WildcardGraph) (*graphView, error) {
	modules, err := g.Modules()
	if err != nil {
		return nil, err
	}
	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}
	cycles, err := g.Cycles()
	if err != nil {
		return nil, err
	}

	view := &graphView{modules: modules, cycles: cycles, inCycles: make(map[string]bool)}
	for _, cycle := range cycles {
		for _, m := range cycle.Modules {
			view.inCycles[m] = true
		}
	}
	for _, e := range edges {
		cycle, err := g.InCycle(e.From, e.To)
		if err != nil {
			return nil, err
		}
		view.edges = append(view.edges, viewEdge{Edge: e, cycle: cycle})
	}
	return view, nil
}
