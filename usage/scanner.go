// Package usage finds the module-level names a Python module reads, in
// execution order, so that each wildcard import can be matched with the
// names it actually supplies.
package usage

import (
	"github.com/LegacyCodeHQ/unstar/pyast"
)

// EventKind is the kind of a module-level name event.
type EventKind int

const (
	// Use is a read of a module-level name.
	Use EventKind = iota
	// Bind is an assignment, definition, import or deletion of a
	// module-level name.
	Bind
	// Star is a "from X import *" statement.
	Star
)

func (k EventKind) String() string {
	switch k {
	case Use:
		return "use"
	case Bind:
		return "bind"
	case Star:
		return "star"
	default:
		return "unknown"
	}
}

// Event is one step of the module's name traffic.
type Event struct {
	Kind EventKind
	Name string
	// Strong is set on bindings that always happen when execution reaches
	// them. Bindings inside if, loop, try and match blocks are weak.
	Strong bool
	Site   *pyast.ImportFrom
	Pos    pyast.Position
}

type scanner struct {
	events []Event
	scope  *scope
	// weak counts the conditional blocks enclosing the current statement.
	weak int
}

// Scan walks the module once and records its name events.
func Scan(m *pyast.Module) *Index {
	s := &scanner{scope: newScope(moduleScope, nil)}
	s.stmts(m.Body)
	return newIndex(s.events)
}

func (s *scanner) emit(ev Event) {
	s.events = append(s.events, ev)
}

func (s *scanner) stmts(stmts []pyast.Stmt) {
	for _, st := range stmts {
		s.stmt(st)
	}
}

func (s *scanner) weakStmts(stmts []pyast.Stmt) {
	s.weak++
	s.stmts(stmts)
	s.weak--
}

func (s *scanner) stmt(st pyast.Stmt) {
	switch n := st.(type) {
	case *pyast.Import:
		for _, alias := range n.Names {
			s.bind(alias.BoundName(), st.Span().Start)
		}

	case *pyast.ImportFrom:
		if n.Wildcard {
			s.emit(Event{Kind: Star, Site: n, Pos: n.Span().Start})
			return
		}
		for _, alias := range n.Names {
			s.bind(alias.BoundName(), st.Span().Start)
		}

	case *pyast.FunctionDef:
		s.exprs(n.Decorators)
		for _, p := range n.Params {
			s.expr(p.Default)
			s.expr(p.Annotation)
		}
		s.expr(n.Returns)
		s.bind(n.Name, n.Span().Start)

		saved, savedWeak := s.scope, s.weak
		s.scope = functionScopeFor(s.scope, n.Params, n.Body, nil)
		s.weak = 0
		s.stmts(n.Body)
		s.scope, s.weak = saved, savedWeak

	case *pyast.ClassDef:
		s.exprs(n.Decorators)
		s.exprs(n.Bases)

		saved, savedWeak := s.scope, s.weak
		s.scope = newScope(classScope, s.scope)
		s.weak = 0
		s.stmts(n.Body)
		s.scope, s.weak = saved, savedWeak

		s.bind(n.Name, n.Span().Start)

	case *pyast.Assign:
		s.expr(n.Value)
		for _, target := range n.Targets {
			s.target(target)
		}

	case *pyast.AugAssign:
		s.expr(n.Value)
		if name, ok := n.Target.(*pyast.Name); ok {
			s.reference(name.ID, name.Pos)
		}
		s.target(n.Target)

	case *pyast.AnnAssign:
		s.expr(n.Annotation)
		if n.Value == nil {
			if _, ok := n.Target.(*pyast.Name); !ok {
				s.expr(n.Target)
			}
			return
		}
		s.expr(n.Value)
		s.target(n.Target)

	case *pyast.Delete:
		for _, target := range n.Targets {
			s.deleteTarget(target)
		}

	case *pyast.For:
		s.expr(n.Iter)
		s.weak++
		s.target(n.Target)
		s.stmts(n.Body)
		s.stmts(n.Orelse)
		s.weak--

	case *pyast.While:
		s.expr(n.Test)
		s.weakStmts(n.Body)
		s.weakStmts(n.Orelse)

	case *pyast.If:
		s.expr(n.Test)
		s.weakStmts(n.Body)
		s.weakStmts(n.Orelse)

	case *pyast.With:
		for _, item := range n.Items {
			s.expr(item.Context)
			s.target(item.Target)
		}
		s.stmts(n.Body)

	case *pyast.Try:
		s.weakStmts(n.Body)
		s.weak++
		for _, h := range n.Handlers {
			s.expr(h.Type)
			if h.Name != "" {
				s.bind(h.Name, n.Span().Start)
			}
			s.stmts(h.Body)
		}
		s.weak--
		s.weakStmts(n.Orelse)
		s.stmts(n.Finalbody)

	case *pyast.Match:
		s.expr(n.Subject)
		s.weak++
		for _, c := range n.Cases {
			s.exprs(c.Uses)
			for _, capture := range c.Captures {
				s.bind(capture, n.Span().Start)
			}
			s.expr(c.Guard)
			s.stmts(c.Body)
		}
		s.weak--

	case *pyast.Global, *pyast.Nonlocal:

	case *pyast.ExprStmt:
		s.exprs(n.Values)
	}
}

func (s *scanner) target(e pyast.Expr) {
	switch t := e.(type) {
	case nil:
	case *pyast.Name:
		s.bind(t.ID, t.Pos)
	case *pyast.Seq:
		for _, elt := range t.Elts {
			s.target(elt)
		}
	case *pyast.Starred:
		s.target(t.Value)
	default:
		// Attribute and subscript targets only read their operands.
		s.expr(t)
	}
}

func (s *scanner) deleteTarget(e pyast.Expr) {
	switch t := e.(type) {
	case *pyast.Name:
		s.reference(t.ID, t.Pos)
		s.bind(t.ID, t.Pos)
	case *pyast.Seq:
		for _, elt := range t.Elts {
			s.deleteTarget(elt)
		}
	default:
		s.expr(t)
	}
}

func (s *scanner) exprs(es []pyast.Expr) {
	for _, e := range es {
		s.expr(e)
	}
}

func (s *scanner) expr(e pyast.Expr) {
	switch n := e.(type) {
	case nil:
	case *pyast.Name:
		if n != nil {
			s.reference(n.ID, n.Pos)
		}
	case *pyast.Attribute:
		s.expr(n.Value)
	case *pyast.Call:
		s.expr(n.Func)
		s.exprs(n.Args)
	case *pyast.Str:
		s.exprs(n.Parts)
	case *pyast.Seq:
		s.exprs(n.Elts)
	case *pyast.Starred:
		s.expr(n.Value)
	case *pyast.Lambda:
		for _, p := range n.Params {
			s.expr(p.Default)
		}
		saved := s.scope
		s.scope = functionScopeFor(s.scope, n.Params, nil, n.Body)
		s.expr(n.Body)
		s.scope = saved
	case *pyast.Comprehension:
		s.comprehension(n)
	case *pyast.NamedExpr:
		s.expr(n.Value)
		if n.Target != nil {
			s.bindWalrus(n.Target.ID, n.Target.Pos)
		}
	case *pyast.Other:
		s.exprs(n.Children)
	}
}

// comprehension evaluates the first iterable in the enclosing scope and
// everything else in the comprehension's own scope.
func (s *scanner) comprehension(c *pyast.Comprehension) {
	if len(c.Clauses) == 0 {
		s.exprs(c.Elts)
		return
	}
	s.expr(c.Clauses[0].Iter)

	saved := s.scope
	s.scope = newScope(comprehensionScope, saved)
	for _, clause := range c.Clauses {
		addTargetNames(s.scope.locals, clause.Target)
	}
	for i, clause := range c.Clauses {
		if i > 0 {
			s.expr(clause.Iter)
		}
		s.comprehensionTarget(clause.Target)
		s.exprs(clause.Ifs)
	}
	s.exprs(c.Elts)
	s.scope = saved
}

// comprehensionTarget reads the operands of attribute and subscript targets.
func (s *scanner) comprehensionTarget(e pyast.Expr) {
	switch t := e.(type) {
	case nil, *pyast.Name:
	case *pyast.Seq:
		for _, elt := range t.Elts {
			s.comprehensionTarget(elt)
		}
	case *pyast.Starred:
		s.comprehensionTarget(t.Value)
	default:
		s.expr(t)
	}
}

// reference resolves a read of name from the current scope. Class scopes
// are invisible from the functions and comprehensions nested in them.
func (s *scanner) reference(name string, pos pyast.Position) {
	skipClass := false
	for sc := s.scope; sc != nil; sc = sc.parent {
		switch sc.kind {
		case moduleScope:
			s.emit(Event{Kind: Use, Name: name, Pos: pos})
			return
		case classScope:
			if !skipClass && sc.locals[name] {
				return
			}
		case functionScope:
			if sc.globals[name] {
				s.emit(Event{Kind: Use, Name: name, Pos: pos})
				return
			}
			if sc.locals[name] {
				return
			}
			skipClass = true
		case comprehensionScope:
			if sc.locals[name] {
				return
			}
			skipClass = true
		}
	}
}

func (s *scanner) bind(name string, pos pyast.Position) {
	switch s.scope.kind {
	case moduleScope:
		s.emit(Event{Kind: Bind, Name: name, Strong: s.weak == 0, Pos: pos})
	case classScope:
		s.scope.locals[name] = true
	}
}

// bindWalrus binds in the nearest scope that is not a comprehension.
func (s *scanner) bindWalrus(name string, pos pyast.Position) {
	sc := s.scope
	for sc.kind == comprehensionScope && sc.parent != nil {
		sc = sc.parent
	}
	switch sc.kind {
	case moduleScope:
		s.emit(Event{Kind: Bind, Name: name, Strong: s.weak == 0, Pos: pos})
	case classScope:
		sc.locals[name] = true
	}
}
