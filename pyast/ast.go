// Package pyast holds a reduced Python syntax tree built from tree-sitter output.
//
// Only the shapes needed for name resolution are modelled: statements that
// bind names, the scopes they open, and the expressions that reference names.
// Everything else collapses into Other and ExprStmt nodes that keep their
// sub-expressions.
package pyast

import "strings"

// Position is a 1-based line and column in the source.
type Position struct {
	Line   int
	Column int
}

// Span locates a node in the source by byte offsets and positions.
type Span struct {
	StartByte int
	EndByte   int
	Start     Position
	End       Position
}

// Module is a parsed Python source file.
type Module struct {
	Body   []Stmt
	Source []byte
}

// Text returns the source text covered by span.
func (m *Module) Text(span Span) string {
	if span.StartByte < 0 || span.EndByte > len(m.Source) || span.StartByte > span.EndByte {
		return ""
	}
	return string(m.Source[span.StartByte:span.EndByte])
}

// Stmt is a statement node.
type Stmt interface {
	Span() Span
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	exprNode()
}

type stmtBase struct {
	span Span
}

func (s stmtBase) Span() Span { return s.span }
func (stmtBase) stmtNode()    {}

// Alias is one imported name, as in "name as asname".
type Alias struct {
	Name   string
	AsName string
}

// BoundName returns the name the alias binds in the importing scope.
// For "import a.b" that is "a".
func (a Alias) BoundName() string {
	if a.AsName != "" {
		return a.AsName
	}
	if i := strings.IndexByte(a.Name, '.'); i >= 0 {
		return a.Name[:i]
	}
	return a.Name
}

// Import is "import a.b, c as d".
type Import struct {
	stmtBase
	Names []Alias
}

// ImportFrom is "from <module> import names" or "from <module> import *".
type ImportFrom struct {
	stmtBase
	// Module is the dotted module name without leading dots.
	Module string
	// Level is the number of leading dots of a relative import.
	Level int
	// ModuleText is the module as written, e.g. "..pkg.sub".
	ModuleText string
	Names      []Alias
	Wildcard   bool
}

// Param is a function or lambda parameter.
type Param struct {
	Name       string
	Default    Expr
	Annotation Expr
}

// FunctionDef is a def or async def statement.
type FunctionDef struct {
	stmtBase
	Name       string
	Decorators []Expr
	Params     []Param
	Returns    Expr
	Body       []Stmt
}

// ClassDef is a class statement.
type ClassDef struct {
	stmtBase
	Name       string
	Decorators []Expr
	Bases      []Expr
	Body       []Stmt
}

// Assign is "t1 = t2 = value". Targets are listed left to right.
type Assign struct {
	stmtBase
	Targets []Expr
	Value   Expr
}

// AugAssign is "target op= value".
type AugAssign struct {
	stmtBase
	Target Expr
	Value  Expr
}

// AnnAssign is "target: annotation [= value]".
type AnnAssign struct {
	stmtBase
	Target     Expr
	Annotation Expr
	Value      Expr
}

// Delete is "del t1, t2".
type Delete struct {
	stmtBase
	Targets []Expr
}

// For is a for or async for loop.
type For struct {
	stmtBase
	Target Expr
	Iter   Expr
	Body   []Stmt
	Orelse []Stmt
}

// While is a while loop.
type While struct {
	stmtBase
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// If is an if statement. Elif chains are nested If nodes in Orelse.
type If struct {
	stmtBase
	Test   Expr
	Body   []Stmt
	Orelse []Stmt
}

// WithItem is one "context as target" entry.
type WithItem struct {
	Context Expr
	Target  Expr
}

// With is a with or async with statement.
type With struct {
	stmtBase
	Items []WithItem
	Body  []Stmt
}

// ExceptHandler is one except clause.
type ExceptHandler struct {
	Type Expr
	Name string
	Body []Stmt
}

// Try is a try statement.
type Try struct {
	stmtBase
	Body      []Stmt
	Handlers  []ExceptHandler
	Orelse    []Stmt
	Finalbody []Stmt
}

// MatchCase is one case clause of a match statement.
type MatchCase struct {
	// Captures are names bound by the pattern.
	Captures []string
	// Uses are value references inside the pattern, like Color.RED.
	Uses  []Expr
	Guard Expr
	Body  []Stmt
}

// Match is a match statement.
type Match struct {
	stmtBase
	Subject Expr
	Cases   []MatchCase
}

// Global is "global a, b".
type Global struct {
	stmtBase
	Names []string
}

// Nonlocal is "nonlocal a, b".
type Nonlocal struct {
	stmtBase
	Names []string
}

// ExprStmt is any statement that only evaluates expressions:
// expression statements, return, raise, assert, pass, print and so on.
type ExprStmt struct {
	stmtBase
	Values []Expr
}

// Name is a bare identifier.
type Name struct {
	ID  string
	Pos Position
}

// Attribute is "value.attr".
type Attribute struct {
	Value Expr
	Attr  string
}

// Call is "fn(args)". Keyword names are dropped, their values kept.
type Call struct {
	Func Expr
	Args []Expr
}

// Str is a string literal. Constant is false for f-strings with
// interpolations, whose expressions are kept in Parts.
type Str struct {
	Value    string
	Constant bool
	Parts    []Expr
}

// SeqKind tells list, tuple and set displays apart.
type SeqKind int

const (
	SeqTuple SeqKind = iota
	SeqList
	SeqSet
)

// Seq is a list, tuple, set display or an unpacking pattern.
type Seq struct {
	Kind SeqKind
	Elts []Expr
}

// Starred is "*value" in a display or target.
type Starred struct {
	Value Expr
}

// Lambda is "lambda params: body".
type Lambda struct {
	Params []Param
	Body   Expr
}

// ComprehensionClause is one "for target in iter if cond..." clause.
type ComprehensionClause struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// Comprehension is a list, set, dict comprehension or generator expression.
type Comprehension struct {
	Elts    []Expr
	Clauses []ComprehensionClause
}

// NamedExpr is "target := value".
type NamedExpr struct {
	Target *Name
	Value  Expr
}

// Other is any expression without name-resolution semantics of its own.
type Other struct {
	Kind     string
	Children []Expr
}

func (*Name) exprNode()          {}
func (*Attribute) exprNode()     {}
func (*Call) exprNode()          {}
func (*Str) exprNode()           {}
func (*Seq) exprNode()           {}
func (*Starred) exprNode()       {}
func (*Lambda) exprNode()        {}
func (*Comprehension) exprNode() {}
func (*NamedExpr) exprNode()     {}
func (*Other) exprNode()         {}
