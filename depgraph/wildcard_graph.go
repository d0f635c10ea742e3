// Package depgraph records which modules wildcard-import which, and finds
// the import cycles among them.
package depgraph

import (
	"errors"
	"fmt"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// Edge is a wildcard import of To written in From.
type Edge struct {
	From string
	To   string
}

// Cycle is one strongly connected group of modules, sorted by name.
type Cycle struct {
	Modules []string
}

// WildcardGraph is a directed graph of module names joined by
// "from X import *" edges.
type WildcardGraph struct {
	graph     graphlib.Graph[string, string]
	selfLoops map[string]bool

	dirty     bool
	component map[string]int
	cycles    []Cycle
}

// NewWildcardGraph creates an empty graph.
func NewWildcardGraph() *WildcardGraph {
	return &WildcardGraph{
		graph:     graphlib.New(graphlib.StringHash, graphlib.Directed()),
		selfLoops: make(map[string]bool),
		component: make(map[string]int),
	}
}

// AddModule adds a module vertex. Adding a known module is a no-op.
func (g *WildcardGraph) AddModule(name string) error {
	if err := g.graph.AddVertex(name); err != nil && !errors.Is(err, graphlib.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add module %s: %w", name, err)
	}
	g.dirty = true
	return nil
}

// AddWildcardEdge records that from wildcard-imports to. Both modules are
// added when missing.
func (g *WildcardGraph) AddWildcardEdge(from, to string) error {
	if err := g.AddModule(from); err != nil {
		return err
	}
	if err := g.AddModule(to); err != nil {
		return err
	}
	if from == to {
		g.selfLoops[from] = true
		return nil
	}
	if err := g.graph.AddEdge(from, to); err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to add wildcard edge %s -> %s: %w", from, to, err)
	}
	return nil
}

// HasModule reports whether name is a vertex of the graph.
func (g *WildcardGraph) HasModule(name string) bool {
	_, err := g.graph.Vertex(name)
	return err == nil
}

// Modules returns all module names, sorted.
func (g *WildcardGraph) Modules() ([]string, error) {
	adjacency, err := g.graph.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read wildcard graph: %w", err)
	}
	modules := make([]string, 0, len(adjacency))
	for module := range adjacency {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules, nil
}

// Edges returns all wildcard edges, self-imports included, sorted by
// source then target.
func (g *WildcardGraph) Edges() ([]Edge, error) {
	adjacency, err := g.graph.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read wildcard graph: %w", err)
	}
	var edges []Edge
	for from, targets := range adjacency {
		for to := range targets {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	for module := range g.selfLoops {
		edges = append(edges, Edge{From: module, To: module})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges, nil
}

// InCycle reports whether an edge from -> to closes a wildcard cycle,
// meaning both ends sit in the same strongly connected component.
func (g *WildcardGraph) InCycle(from, to string) (bool, error) {
	if from == to {
		return true, nil
	}
	if err := g.refresh(); err != nil {
		return false, err
	}
	a, okA := g.component[from]
	b, okB := g.component[to]
	return okA && okB && a == b, nil
}

// Cycles returns every group of modules that wildcard-import each other,
// including modules that import themselves. Groups are sorted by their
// first module.
func (g *WildcardGraph) Cycles() ([]Cycle, error) {
	if err := g.refresh(); err != nil {
		return nil, err
	}
	return append([]Cycle(nil), g.cycles...), nil
}

func (g *WildcardGraph) refresh() error {
	if !g.dirty {
		return nil
	}

	components, err := graphlib.StronglyConnectedComponents(g.graph)
	if err != nil {
		return fmt.Errorf("failed to compute wildcard cycles: %w", err)
	}

	component := make(map[string]int)
	var cycles []Cycle
	for i, members := range components {
		for _, module := range members {
			component[module] = i
		}
		if len(members) > 1 {
			sorted := append([]string(nil), members...)
			sort.Strings(sorted)
			cycles = append(cycles, Cycle{Modules: sorted})
		}
	}
	for module := range g.selfLoops {
		if _, inGroup := findCycle(cycles, module); !inGroup {
			cycles = append(cycles, Cycle{Modules: []string{module}})
		}
	}
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Modules[0] < cycles[j].Modules[0]
	})

	g.component = component
	g.cycles = cycles
	g.dirty = false
	return nil
}

func findCycle(cycles []Cycle, module string) (int, bool) {
	for i, cycle := range cycles {
		for _, m := range cycle.Modules {
			if m == module {
				return i, true
			}
		}
	}
	return -1, false
}
