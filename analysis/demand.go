package analysis

import (
	"github.com/LegacyCodeHQ/unstar/pyast"
	"github.com/LegacyCodeHQ/unstar/pymodule"
	"github.com/LegacyCodeHQ/unstar/wildcard"
)

// demands maps an absolute module name to what the scanned files read
// from it.
type demands map[string]*wildcard.Demand

func (d demands) of(module string) *wildcard.Demand {
	demand, ok := d[module]
	if !ok {
		demand = &wildcard.Demand{}
		d[module] = demand
	}
	return demand
}

func (d demands) add(module, name string) bool {
	if module == "" || name == "" {
		return false
	}
	return d.of(module).Add(name)
}

func (d demands) requireAll(module string) bool {
	if module == "" {
		return false
	}
	return d.of(module).RequireAll()
}

// addOutcomes records what resolving a file's wildcard imports takes from
// their targets. An unresolved import may read anything.
func (d demands) addOutcomes(outcomes []wildcard.Outcome) bool {
	changed := false
	for _, outcome := range outcomes {
		target := outcome.Site.Target
		if !outcome.Result.IsResolved() {
			changed = d.requireAll(target) || changed
			continue
		}
		for _, name := range outcome.Result.Names {
			changed = d.add(target, name) || changed
		}
	}
	return changed
}

// addImports records the names tree takes from other modules with
// "from m import name" and with attribute reads such as "m.name" on an
// imported module. Imports anywhere in the file count, and a local
// variable that shadows an import alias is not told apart; keeping an
// extra name is harmless.
func (d demands) addImports(module pymodule.Ref, tree *pyast.Module) {
	aliases := make(map[string]string)

	pyast.Inspect(tree, func(node any) bool {
		switch n := node.(type) {
		case *pyast.Import:
			for _, alias := range n.Names {
				if alias.AsName != "" {
					aliases[alias.AsName] = alias.Name
				} else {
					aliases[alias.BoundName()] = alias.BoundName()
				}
			}
		case *pyast.ImportFrom:
			if n.Wildcard {
				return true
			}
			target, err := pymodule.AbsoluteName(module, n.Module, n.Level)
			if err != nil || target == "" {
				return true
			}
			for _, alias := range n.Names {
				d.add(target, alias.Name)
				// The name may be a submodule read through attributes.
				aliases[alias.BoundName()] = target + "." + alias.Name
			}
		}
		return true
	})

	pyast.Inspect(tree, func(node any) bool {
		attr, ok := node.(*pyast.Attribute)
		if !ok {
			return true
		}
		base, path := attributePath(attr)
		module, ok := aliases[base]
		if !ok {
			return true
		}
		// For a.b.c every prefix may be the module: a supplies b, a.b
		// supplies c.
		for _, part := range path {
			d.add(module, part)
			module = module + "." + part
		}
		return false
	})
}

// attributePath splits a.b.c into "a" and ["b", "c"]. The base is empty
// unless the chain starts at a bare name.
func attributePath(attr *pyast.Attribute) (string, []string) {
	var parts []string
	var expr pyast.Expr = attr
	for {
		a, ok := expr.(*pyast.Attribute)
		if !ok {
			break
		}
		parts = append(parts, a.Attr)
		expr = a.Value
	}
	name, ok := expr.(*pyast.Name)
	if !ok {
		return "", nil
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return name.ID, parts
}

