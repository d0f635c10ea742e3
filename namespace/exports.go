package namespace

import (
	"strings"

	"github.com/LegacyCodeHQ/unstar/pymodule"
	"github.com/LegacyCodeHQ/unstar/pyast"
)

const allName = "__all__"

var listMutators = map[string]bool{
	"append": true, "extend": true, "insert": true, "remove": true,
	"pop": true, "clear": true, "sort": true, "reverse": true,
	"__iadd__": true, "__setitem__": true, "__delitem__": true,
}

type eventKind int

const (
	bindEvent eventKind = iota
	deleteEvent
	starEvent
)

type exportEvent struct {
	kind eventKind
	name string
	site *pyast.ImportFrom
}

// exports is what one module's own source says about its namespace.
type exports struct {
	hasAll bool
	all    []string
	// dynamic is non-empty when __all__ is built in a way we cannot follow.
	dynamic string
	// conditionalStar is the first wildcard import nested in a compound
	// statement at module level.
	conditionalStar *pyast.ImportFrom
	events          []exportEvent
}

// stars returns the unconditional top-level wildcard imports, in order.
func (e *exports) stars() []*pyast.ImportFrom {
	var sites []*pyast.ImportFrom
	for _, ev := range e.events {
		if ev.kind == starEvent {
			sites = append(sites, ev.site)
		}
	}
	return sites
}

type exportCollector struct {
	ref pymodule.Ref
	ex  *exports
}

func collectExports(ref pymodule.Ref, tree *pyast.Module) *exports {
	c := &exportCollector{ref: ref, ex: &exports{}}
	c.stmts(tree.Body, false)
	c.scanAllMutations(tree)
	return c.ex
}

func (c *exportCollector) markDynamic(reason string) {
	if c.ex.dynamic == "" {
		c.ex.dynamic = reason
	}
}

func (c *exportCollector) bind(name string) {
	if name == "" {
		return
	}
	if name == allName {
		c.markDynamic("__all__ is bound by a statement other than a literal assignment")
		return
	}
	c.ex.events = append(c.ex.events, exportEvent{kind: bindEvent, name: name})
}

func (c *exportCollector) stmts(stmts []pyast.Stmt, conditional bool) {
	for _, s := range stmts {
		c.stmt(s, conditional)
	}
}

func (c *exportCollector) stmt(s pyast.Stmt, conditional bool) {
	switch n := s.(type) {
	case *pyast.Import:
		for _, alias := range n.Names {
			c.bindSubmodule(alias.Name, 0)
			c.bind(alias.BoundName())
		}

	case *pyast.ImportFrom:
		c.bindSubmodule(n.Module, n.Level)
		if n.Wildcard {
			if conditional {
				if c.ex.conditionalStar == nil {
					c.ex.conditionalStar = n
				}
				return
			}
			c.ex.events = append(c.ex.events, exportEvent{kind: starEvent, site: n})
			return
		}
		for _, alias := range n.Names {
			c.bind(alias.BoundName())
		}

	case *pyast.FunctionDef:
		c.exprs(n.Decorators)
		for _, p := range n.Params {
			c.expr(p.Default)
			c.expr(p.Annotation)
		}
		c.expr(n.Returns)
		c.bind(n.Name)

	case *pyast.ClassDef:
		c.exprs(n.Decorators)
		c.exprs(n.Bases)
		c.bind(n.Name)

	case *pyast.Assign:
		c.expr(n.Value)
		for _, target := range n.Targets {
			if isAllName(target) {
				c.assignAll(n.Value, conditional)
				continue
			}
			c.target(target)
		}

	case *pyast.AnnAssign:
		c.expr(n.Annotation)
		if n.Value == nil {
			return
		}
		c.expr(n.Value)
		if isAllName(n.Target) {
			c.assignAll(n.Value, conditional)
			return
		}
		c.target(n.Target)

	case *pyast.AugAssign:
		c.expr(n.Value)
		if isAllName(n.Target) {
			c.extendAll(n.Value, conditional)
			return
		}
		c.target(n.Target)

	case *pyast.Delete:
		for _, target := range n.Targets {
			c.deleteTarget(target, conditional)
		}

	case *pyast.For:
		c.expr(n.Iter)
		c.target(n.Target)
		c.stmts(n.Body, true)
		c.stmts(n.Orelse, true)

	case *pyast.While:
		c.expr(n.Test)
		c.stmts(n.Body, true)
		c.stmts(n.Orelse, true)

	case *pyast.If:
		c.expr(n.Test)
		c.stmts(n.Body, true)
		c.stmts(n.Orelse, true)

	case *pyast.With:
		for _, item := range n.Items {
			c.expr(item.Context)
			c.target(item.Target)
		}
		c.stmts(n.Body, conditional)

	case *pyast.Try:
		c.stmts(n.Body, true)
		for _, h := range n.Handlers {
			c.expr(h.Type)
			c.stmts(h.Body, true)
		}
		c.stmts(n.Orelse, true)
		c.stmts(n.Finalbody, conditional)

	case *pyast.Match:
		c.expr(n.Subject)
		for _, mc := range n.Cases {
			for _, capture := range mc.Captures {
				c.bind(capture)
			}
			c.expr(mc.Guard)
			c.stmts(mc.Body, true)
		}

	case *pyast.ExprStmt:
		c.exprs(n.Values)
	}
}

// bindSubmodule records the attribute a package gains when one of its own
// submodules is imported from its __init__.py.
func (c *exportCollector) bindSubmodule(module string, level int) {
	if !c.ref.IsPackage {
		return
	}
	name, err := pymodule.AbsoluteName(c.ref, module, level)
	if err != nil {
		return
	}
	prefix := c.ref.Name + "."
	if !strings.HasPrefix(name, prefix) {
		return
	}
	sub := strings.TrimPrefix(name, prefix)
	if i := strings.IndexByte(sub, '.'); i >= 0 {
		sub = sub[:i]
	}
	c.bind(sub)
}

func (c *exportCollector) target(e pyast.Expr) {
	switch t := e.(type) {
	case nil:
	case *pyast.Name:
		c.bind(t.ID)
	case *pyast.Seq:
		for _, elt := range t.Elts {
			c.target(elt)
		}
	case *pyast.Starred:
		c.target(t.Value)
	case *pyast.Other:
		if t.Kind == "subscript" && len(t.Children) > 0 && isAllName(t.Children[0]) {
			c.markDynamic("__all__ is modified by item assignment")
		}
		c.expr(t)
	default:
		c.expr(t)
	}
}

func (c *exportCollector) deleteTarget(e pyast.Expr, conditional bool) {
	switch t := e.(type) {
	case *pyast.Name:
		if t.ID == allName {
			c.markDynamic("__all__ is deleted")
			return
		}
		if !conditional {
			c.ex.events = append(c.ex.events, exportEvent{kind: deleteEvent, name: t.ID})
		}
	case *pyast.Seq:
		for _, elt := range t.Elts {
			c.deleteTarget(elt, conditional)
		}
	default:
		c.target(e)
	}
}

func (c *exportCollector) assignAll(value pyast.Expr, conditional bool) {
	if conditional {
		c.markDynamic("__all__ is assigned conditionally")
		return
	}
	names, ok := stringLiterals(value)
	if !ok {
		c.markDynamic("__all__ is not a literal list of strings")
		return
	}
	c.ex.hasAll = true
	c.ex.all = names
}

func (c *exportCollector) extendAll(value pyast.Expr, conditional bool) {
	if conditional || !c.ex.hasAll {
		c.markDynamic("__all__ is extended conditionally or before it is assigned")
		return
	}
	names, ok := stringLiterals(value)
	if !ok {
		c.markDynamic("__all__ is extended with a non-literal value")
		return
	}
	c.ex.all = append(c.ex.all, names...)
}

// expr looks for walrus bindings, which land in module scope even from
// inside comprehensions.
func (c *exportCollector) expr(e pyast.Expr) {
	if e == nil {
		return
	}
	pyast.Inspect(e, func(node any) bool {
		switch n := node.(type) {
		case *pyast.Lambda:
			return false
		case *pyast.NamedExpr:
			if n.Target != nil {
				c.bind(n.Target.ID)
			}
		}
		return true
	})
}

func (c *exportCollector) exprs(es []pyast.Expr) {
	for _, e := range es {
		c.expr(e)
	}
}

// scanAllMutations flags __all__ mutations anywhere in the module, function
// bodies included, such as an export decorator calling __all__.append.
func (c *exportCollector) scanAllMutations(tree *pyast.Module) {
	pyast.Inspect(tree, func(node any) bool {
		switch n := node.(type) {
		case *pyast.Attribute:
			if isAllName(n.Value) && listMutators[n.Attr] {
				c.markDynamic("__all__ is modified with ." + n.Attr)
			}
		case *pyast.Global:
			for _, name := range n.Names {
				if name == allName {
					c.markDynamic("__all__ is declared global in a function")
				}
			}
		}
		return true
	})
}

func isAllName(e pyast.Expr) bool {
	name, ok := e.(*pyast.Name)
	return ok && name.ID == allName
}

func stringLiterals(e pyast.Expr) ([]string, bool) {
	seq, ok := e.(*pyast.Seq)
	if !ok || seq.Kind == pyast.SeqSet {
		return nil, false
	}
	names := make([]string, 0, len(seq.Elts))
	for _, elt := range seq.Elts {
		str, ok := elt.(*pyast.Str)
		if !ok || !str.Constant {
			return nil, false
		}
		names = append(names, str.Value)
	}
	return names, true
}
