package usage

import "github.com/LegacyCodeHQ/unstar/pyast"

type scopeKind int

const (
	moduleScope scopeKind = iota
	functionScope
	classScope
	comprehensionScope
)

type scope struct {
	kind   scopeKind
	parent *scope
	// locals is fixed up front for functions and comprehensions and grows
	// as the body is scanned for classes.
	locals  map[string]bool
	globals map[string]bool
}

func newScope(kind scopeKind, parent *scope) *scope {
	return &scope{
		kind:    kind,
		parent:  parent,
		locals:  make(map[string]bool),
		globals: make(map[string]bool),
	}
}

// functionScopeFor builds the scope of a function or lambda body. Python
// decides locality for the whole body at compile time, so every name bound
// anywhere in the body is local from its first line.
func functionScopeFor(parent *scope, params []pyast.Param, body []pyast.Stmt, expr pyast.Expr) *scope {
	s := newScope(functionScope, parent)
	for _, p := range params {
		if p.Name != "" {
			s.locals[p.Name] = true
		}
	}

	declared := make(map[string]bool)
	visit := func(node any) bool {
		switch n := node.(type) {
		case *pyast.FunctionDef:
			s.locals[n.Name] = true
			return false
		case *pyast.ClassDef:
			s.locals[n.Name] = true
			return false
		case *pyast.Lambda:
			return false
		case *pyast.Import:
			for _, alias := range n.Names {
				s.locals[alias.BoundName()] = true
			}
		case *pyast.ImportFrom:
			for _, alias := range n.Names {
				s.locals[alias.BoundName()] = true
			}
		case *pyast.Assign:
			for _, target := range n.Targets {
				addTargetNames(s.locals, target)
			}
		case *pyast.AugAssign:
			addTargetNames(s.locals, n.Target)
		case *pyast.AnnAssign:
			addTargetNames(s.locals, n.Target)
		case *pyast.Delete:
			for _, target := range n.Targets {
				addTargetNames(s.locals, target)
			}
		case *pyast.For:
			addTargetNames(s.locals, n.Target)
		case *pyast.With:
			for _, item := range n.Items {
				addTargetNames(s.locals, item.Target)
			}
		case *pyast.Try:
			for _, h := range n.Handlers {
				if h.Name != "" {
					s.locals[h.Name] = true
				}
			}
		case *pyast.Match:
			for _, c := range n.Cases {
				for _, capture := range c.Captures {
					s.locals[capture] = true
				}
			}
		case *pyast.NamedExpr:
			if n.Target != nil {
				s.locals[n.Target.ID] = true
			}
		case *pyast.Global:
			for _, name := range n.Names {
				declared[name] = true
				s.globals[name] = true
			}
		case *pyast.Nonlocal:
			for _, name := range n.Names {
				declared[name] = true
			}
		}
		return true
	}

	pyast.Inspect(body, visit)
	if expr != nil {
		pyast.Inspect(expr, visit)
	}

	for name := range declared {
		delete(s.locals, name)
	}
	return s
}

func addTargetNames(names map[string]bool, target pyast.Expr) {
	switch t := target.(type) {
	case *pyast.Name:
		names[t.ID] = true
	case *pyast.Seq:
		for _, elt := range t.Elts {
			addTargetNames(names, elt)
		}
	case *pyast.Starred:
		addTargetNames(names, t.Value)
	}
}
