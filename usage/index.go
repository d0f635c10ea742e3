package usage

import (
	"sort"

	"github.com/LegacyCodeHQ/unstar/pyast"
)

// UsageSet is a set of names kept in first-use order.
type UsageSet struct {
	names []string
	set   map[string]bool
}

func (u *UsageSet) add(name string) {
	if u.set == nil {
		u.set = make(map[string]bool)
	}
	if u.set[name] {
		return
	}
	u.set[name] = true
	u.names = append(u.names, name)
}

// Contains reports whether name is in the set.
func (u UsageSet) Contains(name string) bool {
	return u.set[name]
}

// Names returns the names in first-use order.
func (u UsageSet) Names() []string {
	return append([]string(nil), u.names...)
}

// Sorted returns the names in lexical order.
func (u UsageSet) Sorted() []string {
	names := u.Names()
	sort.Strings(names)
	return names
}

// Len returns the number of names.
func (u UsageSet) Len() int {
	return len(u.names)
}

// Index holds the ordered name events of one module.
type Index struct {
	events []Event
	stars  map[*pyast.ImportFrom]int
}

func newIndex(events []Event) *Index {
	stars := make(map[*pyast.ImportFrom]int)
	for i, ev := range events {
		if ev.Kind == Star {
			stars[ev.Site] = i
		}
	}
	return &Index{events: events, stars: stars}
}

// Events returns the module's events in execution order.
func (ix *Index) Events() []Event {
	return ix.events
}

// StarPosition returns the event position of a wildcard import.
func (ix *Index) StarPosition(site *pyast.ImportFrom) (int, bool) {
	i, ok := ix.stars[site]
	return i, ok
}

// Reads narrows which module-level reads after a wildcard import count
// for it.
type Reads struct {
	// Hidden reports whether a later wildcard import takes over name from
	// that point on.
	Hidden func(later *pyast.ImportFrom, name string) bool
	// AtEnd are names read from the module once it has finished running,
	// such as attributes other modules import from it.
	AtEnd []string
}

// UsedNamesAfter returns the names read at module level after site, each
// counted only until its first strong rebinding after site.
func (ix *Index) UsedNamesAfter(site *pyast.ImportFrom) UsageSet {
	return ix.ReadsAfter(site, Reads{})
}

// ReadsAfter is UsedNamesAfter with a name also dropped from the point a
// later wildcard import hides it. AtEnd names count as reads after the
// last event.
func (ix *Index) ReadsAfter(site *pyast.ImportFrom, r Reads) UsageSet {
	var used UsageSet
	start, ok := ix.stars[site]
	if !ok {
		return used
	}

	shadowed := make(map[string]bool)
	var later []*pyast.ImportFrom
	read := func(name string) {
		if shadowed[name] || used.Contains(name) {
			return
		}
		if r.Hidden != nil {
			for _, s := range later {
				if r.Hidden(s, name) {
					return
				}
			}
		}
		used.add(name)
	}

	for _, ev := range ix.events[start+1:] {
		switch ev.Kind {
		case Star:
			later = append(later, ev.Site)
		case Bind:
			if ev.Strong {
				shadowed[ev.Name] = true
			}
		case Use:
			read(ev.Name)
		}
	}
	for _, name := range r.AtEnd {
		read(name)
	}
	return used
}
