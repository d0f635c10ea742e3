// Package wildcard decides, for every "from X import *" in a module, which
// explicit names should replace it.
package wildcard

import (
	"errors"
	"fmt"

	"github.com/LegacyCodeHQ/unstar/namespace"
	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/pymodule"
	"github.com/LegacyCodeHQ/unstar/usage"
)

// ErrUnresolvableSite marks wildcard imports that are not unconditional
// module-level statements.
var ErrUnresolvableSite = errors.New("unresolvable wildcard site")

// Site is one wildcard import statement.
type Site struct {
	Module pymodule.Ref
	Stmt   *pyast.ImportFrom
	// Target is the absolute dotted name of the imported module. It is
	// empty when a relative import climbs past the top-level package.
	Target string
	// TopLevel is true for unconditional module-level statements.
	TopLevel bool
}

// Line returns the 1-based line of the statement.
func (s Site) Line() int {
	return s.Stmt.Span().Start.Line
}

// Result is the outcome for one site: either the resolved names or the
// reason they could not be determined.
type Result struct {
	Names []string
	Err   error
}

// Resolved returns a result carrying names. An empty list means the import
// supplies nothing that is used.
func Resolved(names []string) Result {
	if names == nil {
		names = []string{}
	}
	return Result{Names: names}
}

// Unresolvable returns a result carrying the reason resolution failed.
func Unresolvable(reason error) Result {
	return Result{Err: reason}
}

// IsResolved reports whether the result carries names.
func (r Result) IsResolved() bool {
	return r.Err == nil
}

// IsDead reports whether the import can be deleted.
func (r Result) IsDead() bool {
	return r.Err == nil && len(r.Names) == 0
}

// Outcome pairs a site with its result.
type Outcome struct {
	Site   Site
	Result Result
}

// Resolver resolves wildcard sites against a shared namespace cache.
type Resolver struct {
	namespaces *namespace.Resolver
}

// NewResolver creates a Resolver that reads module namespaces from ns.
func NewResolver(ns *namespace.Resolver) *Resolver {
	return &Resolver{namespaces: ns}
}

// Resolve returns one outcome per wildcard import in tree, in source order.
func (r *Resolver) Resolve(module pymodule.Ref, tree *pyast.Module) []Outcome {
	return r.ResolveDemanded(module, tree, nil)
}

// ResolveDemanded is Resolve for a module whose finished namespace is also
// read by other modules. Each demanded name counts as a read at the end of
// the module, so the wildcard import that last supplies it keeps it.
func (r *Resolver) ResolveDemanded(module pymodule.Ref, tree *pyast.Module, demand *Demand) []Outcome {
	sites := Sites(module, tree)
	if len(sites) == 0 {
		return nil
	}
	index := usage.Scan(tree)

	outcomes := make([]Outcome, len(sites))
	snapshots := make(map[*pyast.ImportFrom]*namespace.Snapshot)
	for i, site := range sites {
		outcomes[i] = Outcome{Site: site}
		snapshot, err := r.snapshotFor(site)
		if err != nil {
			outcomes[i].Result = Unresolvable(err)
			continue
		}
		snapshots[site.Stmt] = snapshot
	}

	// A later resolved import that exports a name supplies it from there
	// on. Unresolved imports neither claim names nor hide earlier ones.
	reads := usage.Reads{
		Hidden: func(later *pyast.ImportFrom, name string) bool {
			snapshot, ok := snapshots[later]
			return ok && snapshot.Contains(name)
		},
		AtEnd: demand.atEnd(sites, snapshots),
	}

	for i, site := range sites {
		snapshot, ok := snapshots[site.Stmt]
		if !ok {
			continue
		}
		used := index.ReadsAfter(site.Stmt, reads)
		names := make([]string, 0, used.Len())
		for _, n := range snapshot.Names {
			if used.Contains(n.Name) {
				names = append(names, n.Name)
			}
		}
		outcomes[i].Result = Resolved(names)
	}
	return outcomes
}

func (r *Resolver) snapshotFor(site Site) (*namespace.Snapshot, error) {
	if !site.TopLevel {
		return nil, fmt.Errorf("%w: import of %s on line %d is not an unconditional module-level statement",
			ErrUnresolvableSite, site.Stmt.ModuleText, site.Line())
	}

	ref, err := r.namespaces.Locator().ResolveFrom(site.Module, site.Stmt.Module, site.Stmt.Level)
	if err != nil {
		return nil, &namespace.ModuleError{Module: site.Stmt.ModuleText, Err: err}
	}

	snapshot, err := r.namespaces.Resolve(ref)
	if err != nil {
		return nil, err
	}
	if issue := snapshot.CycleIssue(); issue != nil {
		return nil, issue
	}
	return snapshot, nil
}

// Sites lists the wildcard imports of tree in source order.
func Sites(module pymodule.Ref, tree *pyast.Module) []Site {
	topLevel := make(map[*pyast.ImportFrom]bool)
	for _, stmt := range tree.Body {
		if imp, ok := stmt.(*pyast.ImportFrom); ok && imp.Wildcard {
			topLevel[imp] = true
		}
	}

	var sites []Site
	for _, imp := range pyast.WildcardImports(tree) {
		target, err := pymodule.AbsoluteName(module, imp.Module, imp.Level)
		if err != nil {
			target = ""
		}
		sites = append(sites, Site{
			Module:   module,
			Stmt:     imp,
			Target:   target,
			TopLevel: topLevel[imp],
		})
	}
	return sites
}
