// Package namespace computes the names a "from X import *" statement binds,
// following wildcard imports inside X transitively.
package namespace

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/LegacyCodeHQ/unstar/depgraph"
	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/pymodule"
)

// Loader returns the parsed module at a file path.
type Loader interface {
	Load(path string) (*pyast.Module, error)
}

// Resolver computes and caches namespace snapshots for one run.
// It is safe for concurrent use.
type Resolver struct {
	locator *pymodule.Locator
	loader  Loader

	mu        sync.Mutex
	graph     *depgraph.WildcardGraph
	modules   map[string]*moduleInfo
	snapshots map[string]result
}

type result struct {
	snapshot *Snapshot
	err      error
}

// moduleInfo is the per-module data gathered while discovering the
// wildcard closure of a module.
type moduleInfo struct {
	ref     pymodule.Ref
	exports *exports
	err     error
	targets map[*pyast.ImportFrom]target
}

type target struct {
	ref pymodule.Ref
	err error
}

// NewResolver creates a Resolver that locates modules with locator and
// parses them with loader.
func NewResolver(locator *pymodule.Locator, loader Loader) *Resolver {
	return &Resolver{
		locator:   locator,
		loader:    loader,
		graph:     depgraph.NewWildcardGraph(),
		modules:   make(map[string]*moduleInfo),
		snapshots: make(map[string]result),
	}
}

// Locator returns the locator used to find modules.
func (r *Resolver) Locator() *pymodule.Locator {
	return r.locator
}

// ResolveName locates a dotted module name and resolves its namespace.
func (r *Resolver) ResolveName(name string) (*Snapshot, error) {
	ref, err := r.locator.Locate(name)
	if err != nil {
		return nil, &ModuleError{Module: name, Err: err}
	}
	return r.Resolve(ref)
}

// Resolve returns the snapshot of names "from ref import *" binds.
// Each module is computed at most once per Resolver.
func (r *Resolver) Resolve(ref pymodule.Ref) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.snapshots[ref.Name]; ok {
		return res.snapshot, res.err
	}

	if err := r.discover(ref); err != nil {
		return nil, err
	}
	snapshot, err := r.compute(ref.Name)
	return snapshot, err
}

// Cycles returns the wildcard cycles found among the modules resolved so far.
func (r *Resolver) Cycles() ([]depgraph.Cycle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.graph.Cycles()
}

// discover loads every module reachable from ref through unconditional
// wildcard imports and records the edges in the wildcard graph. Cycles
// are only known once the whole closure is in the graph.
func (r *Resolver) discover(ref pymodule.Ref) error {
	queue := []pymodule.Ref{ref}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, seen := r.modules[current.Name]; seen {
			continue
		}

		info := r.load(current)
		r.modules[current.Name] = info
		if err := r.graph.AddModule(current.Name); err != nil {
			return err
		}
		if info.err != nil || info.exports.hasAll || info.exports.dynamic != "" {
			continue
		}

		for _, site := range info.exports.stars() {
			t := info.targets[site]
			if t.err != nil {
				continue
			}
			if err := r.graph.AddWildcardEdge(current.Name, t.ref.Name); err != nil {
				return err
			}
			queue = append(queue, t.ref)
		}
	}
	return nil
}

func (r *Resolver) load(ref pymodule.Ref) *moduleInfo {
	slog.Debug("resolving wildcard namespace", "module", ref.Name, "path", ref.Path)

	info := &moduleInfo{ref: ref, targets: make(map[*pyast.ImportFrom]target)}
	tree, err := r.loader.Load(ref.Path)
	if err != nil {
		info.err = &NamespaceError{Module: ref.Name, Reason: "source could not be parsed", Err: err}
		return info
	}

	info.exports = collectExports(ref, tree)
	for _, site := range info.exports.stars() {
		targetRef, err := r.locator.ResolveFrom(ref, site.Module, site.Level)
		if err != nil {
			info.targets[site] = target{err: &ModuleError{Module: site.ModuleText, Err: err}}
			continue
		}
		info.targets[site] = target{ref: targetRef}
	}
	return info
}

// compute builds the snapshot of a discovered module. Recursion only
// follows edges that leave the module's strongly connected component, so
// it terminates.
func (r *Resolver) compute(name string) (*Snapshot, error) {
	if res, ok := r.snapshots[name]; ok {
		return res.snapshot, res.err
	}

	snapshot, err := r.build(r.modules[name])
	r.snapshots[name] = result{snapshot: snapshot, err: err}
	return snapshot, err
}

func (r *Resolver) build(info *moduleInfo) (*Snapshot, error) {
	if info.err != nil {
		return nil, info.err
	}
	ex := info.exports
	if ex.dynamic != "" {
		return nil, &NamespaceError{Module: info.ref.Name, Reason: ex.dynamic}
	}

	snapshot := newSnapshot(info.ref)
	if ex.hasAll {
		snapshot.HasAll = true
		for _, name := range ex.all {
			snapshot.set(Name{Name: name, Provenance: Explicit})
		}
		return snapshot, nil
	}

	if ex.conditionalStar != nil {
		return nil, &NamespaceError{
			Module: info.ref.Name,
			Reason: fmt.Sprintf("conditional wildcard import of %s on line %d", ex.conditionalStar.ModuleText, ex.conditionalStar.Span().Start.Line),
		}
	}

	for _, ev := range ex.events {
		switch ev.kind {
		case bindEvent:
			if !isPrivate(ev.name) {
				snapshot.set(Name{Name: ev.name, Provenance: Declared})
			}
		case deleteEvent:
			snapshot.remove(ev.name)
		case starEvent:
			if err := r.inherit(snapshot, info, ev.site); err != nil {
				return nil, err
			}
		}
	}
	return snapshot, nil
}

func (r *Resolver) inherit(snapshot *Snapshot, info *moduleInfo, site *pyast.ImportFrom) error {
	t := info.targets[site]
	if t.err != nil {
		return &NamespaceError{
			Module: info.ref.Name,
			Reason: "wildcard import target cannot be located",
			Err:    t.err,
		}
	}

	inCycle, err := r.graph.InCycle(info.ref.Name, t.ref.Name)
	if err != nil {
		return err
	}
	if inCycle {
		snapshot.addIssue(&CycleError{Module: info.ref.Name, Target: t.ref.Name})
		return nil
	}

	inherited, err := r.compute(t.ref.Name)
	if err != nil {
		return &NamespaceError{
			Module: info.ref.Name,
			Reason: "wildcard import of " + t.ref.Name + " is not static",
			Err:    err,
		}
	}

	for _, n := range inherited.Names {
		if isPrivate(n.Name) {
			continue
		}
		origin := t.ref.Name
		if n.Provenance == Inherited && n.Origin != "" {
			origin = n.Origin
		}
		snapshot.set(Name{Name: n.Name, Provenance: Inherited, Origin: origin})
	}
	for _, issue := range inherited.Issues {
		snapshot.addIssue(issue)
	}
	return nil
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, "_")
}
