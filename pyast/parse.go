package pyast

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrParseFailure marks source that tree-sitter could not parse cleanly.
var ErrParseFailure = errors.New("parse failure")

// ParseError reports where parsing failed.
type ParseError struct {
	Pos Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d", e.Pos.Line, e.Pos.Column)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

// Parse parses Python source code into a Module.
func Parse(sourceCode []byte) (*Module, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Python code: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, &ParseError{Pos: firstErrorPosition(root)}
	}

	c := converter{src: sourceCode}
	return &Module{Body: c.block(root), Source: sourceCode}, nil
}

func firstErrorPosition(n *sitter.Node) Position {
	if n.IsError() || n.IsMissing() {
		return position(n.StartPoint())
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.HasError() {
			return firstErrorPosition(child)
		}
	}
	return position(n.StartPoint())
}

func position(p sitter.Point) Position {
	return Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func spanOf(n *sitter.Node) Span {
	return Span{
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
		Start:     position(n.StartPoint()),
		End:       position(n.EndPoint()),
	}
}

type converter struct {
	src []byte
}

func (c converter) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(c.src)
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	children := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		children = append(children, child)
	}
	return children
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// fieldChildren returns every child of n stored under the given field name.
func fieldChildren(n *sitter.Node, field string) []*sitter.Node {
	var children []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			if child := n.Child(i); child != nil {
				children = append(children, child)
			}
		}
	}
	return children
}

func (c converter) block(n *sitter.Node) []Stmt {
	if n == nil {
		return nil
	}
	var stmts []Stmt
	for _, child := range namedChildren(n) {
		if s := c.stmt(child); s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (c converter) stmt(n *sitter.Node) Stmt {
	base := stmtBase{span: spanOf(n)}

	switch n.Type() {
	case "import_statement":
		return &Import{stmtBase: base, Names: c.aliases(n)}

	case "import_from_statement", "future_import_statement":
		return c.importFrom(n, base)

	case "function_definition":
		return c.functionDef(n, base, nil)

	case "class_definition":
		return c.classDef(n, base, nil)

	case "decorated_definition":
		var decorators []Expr
		for _, child := range namedChildren(n) {
			if child.Type() == "decorator" {
				decorators = append(decorators, c.exprs(namedChildren(child))...)
			}
		}
		def := n.ChildByFieldName("definition")
		if def == nil {
			return &ExprStmt{stmtBase: base, Values: decorators}
		}
		if def.Type() == "class_definition" {
			return c.classDef(def, base, decorators)
		}
		return c.functionDef(def, base, decorators)

	case "expression_statement":
		children := namedChildren(n)
		if len(children) == 1 {
			switch children[0].Type() {
			case "assignment":
				return c.assignment(children[0], base)
			case "augmented_assignment":
				return &AugAssign{
					stmtBase: base,
					Target:   c.expr(children[0].ChildByFieldName("left")),
					Value:    c.expr(children[0].ChildByFieldName("right")),
				}
			}
		}
		return &ExprStmt{stmtBase: base, Values: c.exprs(children)}

	case "delete_statement":
		var targets []Expr
		for _, child := range namedChildren(n) {
			if child.Type() == "expression_list" {
				targets = append(targets, c.exprs(namedChildren(child))...)
				continue
			}
			targets = append(targets, c.expr(child))
		}
		return &Delete{stmtBase: base, Targets: targets}

	case "global_statement":
		return &Global{stmtBase: base, Names: c.identifiers(n)}

	case "nonlocal_statement":
		return &Nonlocal{stmtBase: base, Names: c.identifiers(n)}

	case "if_statement":
		return c.ifStatement(n, base)

	case "for_statement":
		return &For{
			stmtBase: base,
			Target:   c.expr(n.ChildByFieldName("left")),
			Iter:     c.expr(n.ChildByFieldName("right")),
			Body:     c.block(n.ChildByFieldName("body")),
			Orelse:   c.elseBody(n.ChildByFieldName("alternative")),
		}

	case "while_statement":
		return &While{
			stmtBase: base,
			Test:     c.expr(n.ChildByFieldName("condition")),
			Body:     c.block(n.ChildByFieldName("body")),
			Orelse:   c.elseBody(n.ChildByFieldName("alternative")),
		}

	case "try_statement":
		return c.tryStatement(n, base)

	case "with_statement":
		return c.withStatement(n, base)

	case "match_statement":
		return c.matchStatement(n, base)

	default:
		return &ExprStmt{stmtBase: base, Values: c.exprs(namedChildren(n))}
	}
}

func (c converter) importFrom(n *sitter.Node, base stmtBase) *ImportFrom {
	imp := &ImportFrom{stmtBase: base}
	if n.Type() == "future_import_statement" {
		imp.Module = "__future__"
		imp.ModuleText = "__future__"
	} else if moduleNode := n.ChildByFieldName("module_name"); moduleNode != nil {
		imp.Module, imp.Level = c.modulePath(moduleNode)
		imp.ModuleText = strings.Repeat(".", imp.Level) + imp.Module
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child != nil && child.Type() == "wildcard_import" {
			imp.Wildcard = true
		}
	}
	if !imp.Wildcard {
		imp.Names = c.aliases(n)
	}
	return imp
}

// modulePath splits a dotted_name or relative_import into its dotted module
// and relative level.
func (c converter) modulePath(n *sitter.Node) (string, int) {
	if n.Type() != "relative_import" {
		return compact(c.text(n)), 0
	}

	level := 0
	module := ""
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_prefix":
			level = strings.Count(c.text(child), ".")
		case "dotted_name":
			module = compact(c.text(child))
		}
	}
	return module, level
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func (c converter) aliases(n *sitter.Node) []Alias {
	var aliases []Alias
	for _, child := range fieldChildren(n, "name") {
		switch child.Type() {
		case "aliased_import":
			aliases = append(aliases, Alias{
				Name:   compact(c.text(child.ChildByFieldName("name"))),
				AsName: c.text(child.ChildByFieldName("alias")),
			})
		default:
			aliases = append(aliases, Alias{Name: compact(c.text(child))})
		}
	}
	return aliases
}

func (c converter) identifiers(n *sitter.Node) []string {
	var names []string
	for _, child := range namedChildren(n) {
		if child.Type() == "identifier" {
			names = append(names, c.text(child))
		}
	}
	return names
}

func (c converter) functionDef(n *sitter.Node, base stmtBase, decorators []Expr) *FunctionDef {
	return &FunctionDef{
		stmtBase:   base,
		Name:       c.text(n.ChildByFieldName("name")),
		Decorators: decorators,
		Params:     c.params(n.ChildByFieldName("parameters")),
		Returns:    c.expr(n.ChildByFieldName("return_type")),
		Body:       c.block(n.ChildByFieldName("body")),
	}
}

func (c converter) classDef(n *sitter.Node, base stmtBase, decorators []Expr) *ClassDef {
	var bases []Expr
	if superclasses := n.ChildByFieldName("superclasses"); superclasses != nil {
		bases = c.exprs(namedChildren(superclasses))
	}
	return &ClassDef{
		stmtBase:   base,
		Name:       c.text(n.ChildByFieldName("name")),
		Decorators: decorators,
		Bases:      bases,
		Body:       c.block(n.ChildByFieldName("body")),
	}
}

func (c converter) params(n *sitter.Node) []Param {
	var params []Param
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "identifier":
			params = append(params, Param{Name: c.text(child)})
		case "default_parameter":
			params = append(params, Param{
				Name:    c.patternName(child.ChildByFieldName("name")),
				Default: c.expr(child.ChildByFieldName("value")),
			})
		case "typed_default_parameter":
			params = append(params, Param{
				Name:       c.patternName(child.ChildByFieldName("name")),
				Default:    c.expr(child.ChildByFieldName("value")),
				Annotation: c.expr(child.ChildByFieldName("type")),
			})
		case "typed_parameter":
			param := Param{Annotation: c.expr(child.ChildByFieldName("type"))}
			for _, sub := range namedChildren(child) {
				if sub.Type() != "type" {
					param.Name = c.patternName(sub)
					break
				}
			}
			params = append(params, param)
		case "list_splat_pattern", "dictionary_splat_pattern":
			params = append(params, Param{Name: c.patternName(child)})
		case "tuple_pattern":
			for _, name := range c.patternNames(child) {
				params = append(params, Param{Name: name})
			}
		}
	}
	return params
}

func (c converter) patternName(n *sitter.Node) string {
	names := c.patternNames(n)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func (c converter) patternNames(n *sitter.Node) []string {
	if n == nil {
		return nil
	}
	if n.Type() == "identifier" {
		return []string{c.text(n)}
	}
	var names []string
	for _, child := range namedChildren(n) {
		names = append(names, c.patternNames(child)...)
	}
	return names
}

func (c converter) assignment(n *sitter.Node, base stmtBase) Stmt {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")

	if annotation := n.ChildByFieldName("type"); annotation != nil {
		return &AnnAssign{
			stmtBase:   base,
			Target:     c.expr(left),
			Annotation: c.expr(annotation),
			Value:      c.expr(right),
		}
	}

	targets := []Expr{c.expr(left)}
	for right != nil && right.Type() == "assignment" {
		targets = append(targets, c.expr(right.ChildByFieldName("left")))
		right = right.ChildByFieldName("right")
	}
	return &Assign{stmtBase: base, Targets: targets, Value: c.expr(right)}
}

func (c converter) ifStatement(n *sitter.Node, base stmtBase) *If {
	stmt := &If{
		stmtBase: base,
		Test:     c.expr(n.ChildByFieldName("condition")),
		Body:     c.block(n.ChildByFieldName("consequence")),
	}

	alternatives := fieldChildren(n, "alternative")
	var orelse []Stmt
	for i := len(alternatives) - 1; i >= 0; i-- {
		alt := alternatives[i]
		switch alt.Type() {
		case "else_clause":
			orelse = c.block(alt.ChildByFieldName("body"))
		case "elif_clause":
			orelse = []Stmt{&If{
				stmtBase: stmtBase{span: spanOf(alt)},
				Test:     c.expr(alt.ChildByFieldName("condition")),
				Body:     c.block(alt.ChildByFieldName("consequence")),
				Orelse:   orelse,
			}}
		}
	}
	stmt.Orelse = orelse
	return stmt
}

// elseBody returns the statements of an else_clause.
func (c converter) elseBody(n *sitter.Node) []Stmt {
	if n == nil {
		return nil
	}
	if body := n.ChildByFieldName("body"); body != nil {
		return c.block(body)
	}
	for _, child := range namedChildren(n) {
		if child.Type() == "block" {
			return c.block(child)
		}
	}
	return nil
}

func (c converter) tryStatement(n *sitter.Node, base stmtBase) *Try {
	stmt := &Try{stmtBase: base, Body: c.block(n.ChildByFieldName("body"))}

	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "except_clause", "except_group_clause":
			stmt.Handlers = append(stmt.Handlers, c.exceptHandler(child))
		case "else_clause":
			stmt.Orelse = c.elseBody(child)
		case "finally_clause":
			stmt.Finalbody = c.elseBody(child)
		}
	}
	return stmt
}

func (c converter) exceptHandler(n *sitter.Node) ExceptHandler {
	var handler ExceptHandler
	var parts []*sitter.Node
	for _, child := range namedChildren(n) {
		if child.Type() == "block" {
			handler.Body = c.block(child)
			continue
		}
		parts = append(parts, child)
	}

	if len(parts) == 0 {
		return handler
	}
	if parts[0].Type() == "as_pattern" {
		value, alias := c.asPattern(parts[0])
		handler.Type = value
		handler.Name = c.patternName(alias)
		return handler
	}
	handler.Type = c.expr(parts[0])
	if len(parts) > 1 {
		handler.Name = c.patternName(parts[1])
	}
	return handler
}

// asPattern splits "value as alias" into its value expression and alias node.
func (c converter) asPattern(n *sitter.Node) (Expr, *sitter.Node) {
	alias := n.ChildByFieldName("alias")
	var value Expr
	for _, child := range namedChildren(n) {
		if alias != nil && sameNode(child, alias) {
			continue
		}
		if child.Type() == "as_pattern_target" {
			alias = child
			continue
		}
		if value == nil {
			value = c.expr(child)
		}
	}
	return value, alias
}

func (c converter) withStatement(n *sitter.Node, base stmtBase) *With {
	stmt := &With{stmtBase: base, Body: c.block(n.ChildByFieldName("body"))}

	var collect func(*sitter.Node)
	collect = func(node *sitter.Node) {
		for _, child := range namedChildren(node) {
			switch child.Type() {
			case "with_clause":
				collect(child)
			case "with_item":
				stmt.Items = append(stmt.Items, c.withItem(child))
			}
		}
	}
	collect(n)
	return stmt
}

func (c converter) withItem(n *sitter.Node) WithItem {
	value := n.ChildByFieldName("value")
	if value == nil {
		return WithItem{}
	}
	if value.Type() == "as_pattern" {
		context, alias := c.asPattern(value)
		item := WithItem{Context: context}
		if alias != nil {
			item.Target = c.target(alias)
		}
		return item
	}
	item := WithItem{Context: c.expr(value)}
	if alias := n.ChildByFieldName("alias"); alias != nil {
		item.Target = c.expr(alias)
	}
	return item
}

// target converts an as_pattern_target wrapper into its inner expression.
func (c converter) target(n *sitter.Node) Expr {
	if n.Type() == "as_pattern_target" {
		children := namedChildren(n)
		if len(children) == 1 {
			return c.expr(children[0])
		}
		return &Seq{Kind: SeqTuple, Elts: c.exprs(children)}
	}
	return c.expr(n)
}

func (c converter) matchStatement(n *sitter.Node, base stmtBase) *Match {
	stmt := &Match{stmtBase: base}

	subjects := fieldChildren(n, "subject")
	if len(subjects) == 1 {
		stmt.Subject = c.expr(subjects[0])
	} else if len(subjects) > 1 {
		stmt.Subject = &Seq{Kind: SeqTuple, Elts: c.exprs(subjects)}
	}

	body := n.ChildByFieldName("body")
	for _, child := range namedChildren(body) {
		if child.Type() != "case_clause" {
			continue
		}
		matchCase := MatchCase{Body: c.block(child.ChildByFieldName("consequence"))}
		if guard := child.ChildByFieldName("guard"); guard != nil {
			matchCase.Guard = c.expr(guard)
		}
		for _, part := range namedChildren(child) {
			if part.Type() == "case_pattern" {
				c.casePattern(part, &matchCase)
			}
		}
		stmt.Cases = append(stmt.Cases, matchCase)
	}
	return stmt
}

// casePattern splits a match pattern into capture names and value references.
func (c converter) casePattern(n *sitter.Node, mc *MatchCase) {
	switch n.Type() {
	case "dotted_name":
		parts := namedChildren(n)
		if len(parts) == 1 {
			if name := c.text(parts[0]); name != "_" {
				mc.Captures = append(mc.Captures, name)
			}
			return
		}
		if len(parts) > 1 {
			mc.Uses = append(mc.Uses, c.expr(parts[0]))
		}
		return
	case "identifier":
		if name := c.text(n); name != "_" {
			mc.Captures = append(mc.Captures, name)
		}
		return
	case "class_pattern":
		for i, child := range namedChildren(n) {
			if i == 0 && child.Type() == "dotted_name" {
				if parts := namedChildren(child); len(parts) > 0 {
					mc.Uses = append(mc.Uses, c.expr(parts[0]))
				}
				continue
			}
			c.casePattern(child, mc)
		}
		return
	case "keyword_pattern":
		for i, child := range namedChildren(n) {
			if i == 0 && child.Type() == "identifier" {
				continue
			}
			c.casePattern(child, mc)
		}
		return
	case "string", "concatenated_string", "integer", "float", "true", "false", "none":
		return
	}
	for _, child := range namedChildren(n) {
		c.casePattern(child, mc)
	}
}

func (c converter) exprs(nodes []*sitter.Node) []Expr {
	exprs := make([]Expr, 0, len(nodes))
	for _, n := range nodes {
		if e := c.expr(n); e != nil {
			exprs = append(exprs, e)
		}
	}
	return exprs
}

func (c converter) expr(n *sitter.Node) Expr {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case "identifier", "keyword_identifier":
		return &Name{ID: c.text(n), Pos: position(n.StartPoint())}

	case "attribute":
		return &Attribute{
			Value: c.expr(n.ChildByFieldName("object")),
			Attr:  c.text(n.ChildByFieldName("attribute")),
		}

	case "call":
		call := &Call{Func: c.expr(n.ChildByFieldName("function"))}
		if args := n.ChildByFieldName("arguments"); args != nil {
			if args.Type() == "argument_list" {
				call.Args = c.exprs(namedChildren(args))
			} else {
				call.Args = []Expr{c.expr(args)}
			}
		}
		return call

	case "keyword_argument":
		return c.expr(n.ChildByFieldName("value"))

	case "string":
		return c.str(n)

	case "concatenated_string":
		str := &Str{Constant: true}
		for _, child := range namedChildren(n) {
			part, ok := c.expr(child).(*Str)
			if !ok {
				continue
			}
			str.Value += part.Value
			str.Constant = str.Constant && part.Constant
			str.Parts = append(str.Parts, part.Parts...)
		}
		return str

	case "list", "list_pattern":
		return &Seq{Kind: SeqList, Elts: c.exprs(namedChildren(n))}

	case "tuple", "tuple_pattern", "pattern_list", "expression_list":
		return &Seq{Kind: SeqTuple, Elts: c.exprs(namedChildren(n))}

	case "set":
		return &Seq{Kind: SeqSet, Elts: c.exprs(namedChildren(n))}

	case "parenthesized_expression":
		children := namedChildren(n)
		if len(children) == 1 {
			return c.expr(children[0])
		}
		return &Other{Kind: n.Type(), Children: c.exprs(children)}

	case "list_splat", "list_splat_pattern", "dictionary_splat", "dictionary_splat_pattern", "parenthesized_list_splat":
		children := namedChildren(n)
		if len(children) == 0 {
			return &Other{Kind: n.Type()}
		}
		return &Starred{Value: c.expr(children[0])}

	case "lambda":
		return &Lambda{
			Params: c.params(n.ChildByFieldName("parameters")),
			Body:   c.expr(n.ChildByFieldName("body")),
		}

	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return c.comprehension(n)

	case "named_expression":
		target, _ := c.expr(n.ChildByFieldName("name")).(*Name)
		return &NamedExpr{Target: target, Value: c.expr(n.ChildByFieldName("value"))}

	case "as_pattern_target":
		return c.target(n)

	case "comment":
		return nil

	default:
		return &Other{Kind: n.Type(), Children: c.exprs(namedChildren(n))}
	}
}

func (c converter) comprehension(n *sitter.Node) *Comprehension {
	comp := &Comprehension{}
	body := n.ChildByFieldName("body")
	if body != nil {
		if body.Type() == "pair" {
			comp.Elts = c.exprs(namedChildren(body))
		} else {
			comp.Elts = []Expr{c.expr(body)}
		}
	}

	for _, child := range namedChildren(n) {
		if body != nil && sameNode(child, body) {
			continue
		}
		switch child.Type() {
		case "for_in_clause":
			clause := ComprehensionClause{Target: c.expr(child.ChildByFieldName("left"))}
			iters := fieldChildren(child, "right")
			if len(iters) == 1 {
				clause.Iter = c.expr(iters[0])
			} else if len(iters) > 1 {
				clause.Iter = &Seq{Kind: SeqTuple, Elts: c.exprs(iters)}
			}
			comp.Clauses = append(comp.Clauses, clause)
		case "if_clause":
			if len(comp.Clauses) == 0 {
				continue
			}
			last := &comp.Clauses[len(comp.Clauses)-1]
			last.Ifs = append(last.Ifs, c.exprs(namedChildren(child))...)
		}
	}
	return comp
}

// str decodes a string literal. Strings whose value cannot be known
// statically (f-strings with interpolations, bytes, undecodable escapes)
// come back with Constant set to false.
func (c converter) str(n *sitter.Node) *Str {
	str := &Str{Constant: true}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() == "interpolation" {
			str.Constant = false
			str.Parts = append(str.Parts, c.exprs(namedChildren(child))...)
		}
	}

	value, ok := decodeLiteral(c.text(n))
	if !ok {
		str.Constant = false
	}
	str.Value = value
	return str
}

func decodeLiteral(literal string) (string, bool) {
	prefixEnd := 0
	for prefixEnd < len(literal) && strings.ContainsRune("rRbBuUfF", rune(literal[prefixEnd])) {
		prefixEnd++
	}
	prefix := strings.ToLower(literal[:prefixEnd])
	body := literal[prefixEnd:]

	var quote string
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(body, q) && strings.HasSuffix(body, q) && len(body) >= 2*len(q) {
			quote = q
			break
		}
	}
	if quote == "" {
		return "", false
	}
	body = body[len(quote) : len(body)-len(quote)]

	if strings.Contains(prefix, "b") {
		return body, false
	}
	if strings.Contains(prefix, "r") || !strings.Contains(body, `\`) {
		return body, true
	}

	unquoted, err := strconv.Unquote(`"` + strings.ReplaceAll(body, `"`, `\"`) + `"`)
	if err != nil {
		return body, false
	}
	return unquoted, true
}
