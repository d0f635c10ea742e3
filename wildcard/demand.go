package wildcard

import (
	"sort"

	"github.com/LegacyCodeHQ/unstar/namespace"
	"github.com/LegacyCodeHQ/unstar/pyast"
)

// Demand is what other modules read from a module after importing it.
// The zero value demands nothing.
type Demand struct {
	// All is set when some importer may read any exported name, as with a
	// wildcard import that was left unresolved.
	All   bool
	names map[string]bool
}

// Add records name and reports whether it was new.
func (d *Demand) Add(name string) bool {
	if d.names == nil {
		d.names = make(map[string]bool)
	}
	if d.names[name] {
		return false
	}
	d.names[name] = true
	return true
}

// RequireAll marks every exported name as read and reports whether that
// is new.
func (d *Demand) RequireAll() bool {
	if d.All {
		return false
	}
	d.All = true
	return true
}

// Names returns the recorded names in lexical order.
func (d *Demand) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.names))
	for name := range d.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// atEnd returns the demanded names, expanding All to everything the
// module's resolved wildcard imports supply.
func (d *Demand) atEnd(sites []Site, snapshots map[*pyast.ImportFrom]*namespace.Snapshot) []string {
	if d == nil {
		return nil
	}
	if !d.All {
		return d.Names()
	}

	seen := make(map[string]bool)
	var names []string
	for _, site := range sites {
		snapshot, ok := snapshots[site.Stmt]
		if !ok {
			continue
		}
		for _, n := range snapshot.Names {
			if !seen[n.Name] {
				seen[n.Name] = true
				names = append(names, n.Name)
			}
		}
	}
	return names
}
