package pyast

// Inspect traverses node depth-first in source order, calling fn for every
// Stmt and Expr it meets. If fn returns false, the children of that node
// are skipped. node may be a Stmt, an Expr, a []Stmt or a *Module.
func Inspect(node any, fn func(node any) bool) {
	switch n := node.(type) {
	case nil:
		return
	case *Module:
		inspectStmts(n.Body, fn)
		return
	case []Stmt:
		inspectStmts(n, fn)
		return
	case Stmt:
		if !fn(n) {
			return
		}
		inspectStmtChildren(n, fn)
	case Expr:
		if isNilExpr(n) || !fn(n) {
			return
		}
		inspectExprChildren(n, fn)
	}
}

func inspectStmts(stmts []Stmt, fn func(any) bool) {
	for _, s := range stmts {
		Inspect(s, fn)
	}
}

func inspectExprs(exprs []Expr, fn func(any) bool) {
	for _, e := range exprs {
		inspectExpr(e, fn)
	}
}

func inspectExpr(e Expr, fn func(any) bool) {
	if e == nil {
		return
	}
	Inspect(e, fn)
}

func inspectParams(params []Param, fn func(any) bool) {
	for _, p := range params {
		inspectExpr(p.Annotation, fn)
		inspectExpr(p.Default, fn)
	}
}

func inspectStmtChildren(s Stmt, fn func(any) bool) {
	switch n := s.(type) {
	case *FunctionDef:
		inspectExprs(n.Decorators, fn)
		inspectParams(n.Params, fn)
		inspectExpr(n.Returns, fn)
		inspectStmts(n.Body, fn)
	case *ClassDef:
		inspectExprs(n.Decorators, fn)
		inspectExprs(n.Bases, fn)
		inspectStmts(n.Body, fn)
	case *Assign:
		inspectExpr(n.Value, fn)
		inspectExprs(n.Targets, fn)
	case *AugAssign:
		inspectExpr(n.Value, fn)
		inspectExpr(n.Target, fn)
	case *AnnAssign:
		inspectExpr(n.Annotation, fn)
		inspectExpr(n.Value, fn)
		inspectExpr(n.Target, fn)
	case *Delete:
		inspectExprs(n.Targets, fn)
	case *For:
		inspectExpr(n.Iter, fn)
		inspectExpr(n.Target, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Orelse, fn)
	case *While:
		inspectExpr(n.Test, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Orelse, fn)
	case *If:
		inspectExpr(n.Test, fn)
		inspectStmts(n.Body, fn)
		inspectStmts(n.Orelse, fn)
	case *With:
		for _, item := range n.Items {
			inspectExpr(item.Context, fn)
			inspectExpr(item.Target, fn)
		}
		inspectStmts(n.Body, fn)
	case *Try:
		inspectStmts(n.Body, fn)
		for _, h := range n.Handlers {
			inspectExpr(h.Type, fn)
			inspectStmts(h.Body, fn)
		}
		inspectStmts(n.Orelse, fn)
		inspectStmts(n.Finalbody, fn)
	case *Match:
		inspectExpr(n.Subject, fn)
		for _, c := range n.Cases {
			inspectExprs(c.Uses, fn)
			inspectExpr(c.Guard, fn)
			inspectStmts(c.Body, fn)
		}
	case *ExprStmt:
		inspectExprs(n.Values, fn)
	}
}

func inspectExprChildren(e Expr, fn func(any) bool) {
	switch n := e.(type) {
	case *Attribute:
		inspectExpr(n.Value, fn)
	case *Call:
		inspectExpr(n.Func, fn)
		inspectExprs(n.Args, fn)
	case *Str:
		inspectExprs(n.Parts, fn)
	case *Seq:
		inspectExprs(n.Elts, fn)
	case *Starred:
		inspectExpr(n.Value, fn)
	case *Lambda:
		inspectParams(n.Params, fn)
		inspectExpr(n.Body, fn)
	case *Comprehension:
		for _, c := range n.Clauses {
			inspectExpr(c.Iter, fn)
			inspectExpr(c.Target, fn)
			inspectExprs(c.Ifs, fn)
		}
		inspectExprs(n.Elts, fn)
	case *NamedExpr:
		inspectExpr(n.Value, fn)
		if n.Target != nil {
			Inspect(n.Target, fn)
		}
	case *Other:
		inspectExprs(n.Children, fn)
	}
}

// isNilExpr catches typed nil pointers stored in an Expr.
func isNilExpr(e Expr) bool {
	switch n := e.(type) {
	case *Name:
		return n == nil
	case *Attribute:
		return n == nil
	case *Call:
		return n == nil
	case *Str:
		return n == nil
	case *Seq:
		return n == nil
	case *Starred:
		return n == nil
	case *Lambda:
		return n == nil
	case *Comprehension:
		return n == nil
	case *NamedExpr:
		return n == nil
	case *Other:
		return n == nil
	}
	return false
}

// WildcardImports returns every "from X import *" statement in the module,
// at any depth, in source order.
func WildcardImports(m *Module) []*ImportFrom {
	var sites []*ImportFrom
	Inspect(m, func(node any) bool {
		if imp, ok := node.(*ImportFrom); ok && imp.Wildcard {
			sites = append(sites, imp)
		}
		return true
	})
	return sites
}
