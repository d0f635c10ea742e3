package namespace

import (
	"errors"

	"github.com/LegacyCodeHQ/unstar/pymodule"
)

// Provenance tells how a name got into a module's namespace.
type Provenance int

const (
	// Declared names are bound directly in the module.
	Declared Provenance = iota
	// Explicit names are listed in __all__.
	Explicit
	// Inherited names arrived through a wildcard import.
	Inherited
)

func (p Provenance) String() string {
	switch p {
	case Declared:
		return "declared"
	case Explicit:
		return "explicit"
	case Inherited:
		return "inherited"
	default:
		return "unknown"
	}
}

// Name is one exported name.
type Name struct {
	Name       string
	Provenance Provenance
	// Origin is the module that declares an inherited name.
	Origin string
}

// Snapshot is the ordered set of names "from Module import *" would bind.
type Snapshot struct {
	Module pymodule.Ref
	Names  []Name
	// HasAll is true when the names come from a static __all__.
	HasAll bool
	// Issues holds non-fatal problems, such as wildcard cycles.
	Issues []error

	index map[string]int
}

func newSnapshot(ref pymodule.Ref) *Snapshot {
	return &Snapshot{Module: ref, index: make(map[string]int)}
}

// Contains reports whether name is exported.
func (s *Snapshot) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Lookup returns the exported entry for name.
func (s *Snapshot) Lookup(name string) (Name, bool) {
	i, ok := s.index[name]
	if !ok {
		return Name{}, false
	}
	return s.Names[i], true
}

// NameList returns the exported names in order.
func (s *Snapshot) NameList() []string {
	names := make([]string, len(s.Names))
	for i, n := range s.Names {
		names[i] = n.Name
	}
	return names
}

// CycleIssue returns the first wildcard cycle recorded for the snapshot.
func (s *Snapshot) CycleIssue() error {
	for _, issue := range s.Issues {
		if errors.Is(issue, ErrWildcardCycle) {
			return issue
		}
	}
	return nil
}

// set binds name, keeping its original position when already present.
func (s *Snapshot) set(n Name) {
	if i, ok := s.index[n.Name]; ok {
		s.Names[i] = n
		return
	}
	s.index[n.Name] = len(s.Names)
	s.Names = append(s.Names, n)
}

func (s *Snapshot) remove(name string) {
	i, ok := s.index[name]
	if !ok {
		return
	}
	s.Names = append(s.Names[:i], s.Names[i+1:]...)
	delete(s.index, name)
	for j := i; j < len(s.Names); j++ {
		s.index[s.Names[j].Name] = j
	}
}

func (s *Snapshot) addIssue(err error) {
	for _, existing := range s.Issues {
		if existing.Error() == err.Error() {
			return
		}
	}
	s.Issues = append(s.Issues, err)
}
