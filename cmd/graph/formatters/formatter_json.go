package formatters

import (
	"encoding/json"

	"github.com/LegacyCodeHQ/unstar/depgraph"
)

type jsonGraph struct {
	Modules []string   `json:"modules"`
	Edges   []jsonEdge `json:"edges"`
	Cycles  [][]string `json:"cycles"`
}

type jsonEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Cycle bool   `json:"cycle"`
}

// JSONFormatter formats wildcard graphs as JSON.
type JSONFormatter struct{}

// Format converts the graph to JSON. The label is not used.
func (f *JSONFormatter) Format(g *depgraph.WildcardGraph, opts FormatOptions) (string, error) {
	view, err := newGraphView(g)
	if err != nil {
		return "", err
	}

	out := jsonGraph{
		Modules: view.modules,
		Edges:   make([]jsonEdge, 0, len(view.edges)),
		Cycles:  make([][]string, 0, len(view.cycles)),
	}
	if out.Modules == nil {
		out.Modules = []string{}
	}
	for _, e := range view.edges {
		out.Edges = append(out.Edges, jsonEdge{From: e.From, To: e.To, Cycle: e.cycle})
	}
	for _, c := range view.cycles {
		out.Cycles = append(out.Cycles, c.Modules)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
