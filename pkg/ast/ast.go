// Package ast defines the syntax tree consumed and produced by the singleline passes.
// Statement and expression kinds form a closed set: every node implements either Stmt
// or Expr through an unexported marker method, so a type switch over them is exhaustive
// for the package's own kinds.
package ast

// Node is implemented by every statement and expression.
type Node interface {
	node()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// ExprContext tells whether a name is read or bound.
type ExprContext int

const (
	Load ExprContext = iota
	Store
)

// LoopKind distinguishes pre-test loop forms.
type LoopKind string

const (
	LoopWhile LoopKind = "while"
	LoopFor   LoopKind = "for"
)

// LiteralKind classifies literal values.
type LiteralKind string

const (
	LitInt    LiteralKind = "int"
	LitFloat  LiteralKind = "float"
	LitString LiteralKind = "string"
	LitBool   LiteralKind = "bool"
	LitNone   LiteralKind = "none"
)

// Pos is a 1-based source position. The zero value means unknown.
type Pos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Statements

type (
	// ExprStmt evaluates an expression for its effect.
	ExprStmt struct {
		Pos   Pos
		Value Expr
	}

	// Assign binds Value to every target, left to right (a = b = v).
	Assign struct {
		Pos     Pos
		Targets []Expr
		Value   Expr
	}

	// AugAssign is an in-place update such as x += 1.
	AugAssign struct {
		Pos    Pos
		Target Expr
		Op     string
		Value  Expr
	}

	// If is a two-way conditional. Orelse may be empty; elif chains nest an If in Orelse.
	If struct {
		Pos    Pos
		Test   Expr
		Body   []Stmt
		Orelse []Stmt
	}

	// Loop is a pre-test loop. For loops bind Target from Iter on every iteration;
	// while loops re-check Test.
	Loop struct {
		Pos    Pos
		Kind   LoopKind
		Target Expr
		Iter   Expr
		Test   Expr
		Body   []Stmt

		// Mutated is attached by the mutation analyzer; nil means not analyzed.
		Mutated *NameSet
	}

	// FunctionDef defines a named function.
	FunctionDef struct {
		Pos    Pos
		Name   string
		Params []string
		Body   []Stmt

		// Mutated is attached by the mutation analyzer; nil means not analyzed.
		Mutated *NameSet
	}

	// ClassDef defines a class. Only its name is visible to the enclosing scope.
	ClassDef struct {
		Pos   Pos
		Name  string
		Bases []Expr
		Body  []Stmt
	}

	Break    struct{ Pos Pos }
	Continue struct{ Pos Pos }
	Pass     struct{ Pos Pos }

	// Return leaves the enclosing function. Value may be nil.
	Return struct {
		Pos   Pos
		Value Expr
	}

	// Nonlocal declares names that resolve to an enclosing function scope.
	Nonlocal struct {
		Pos   Pos
		Names []string
	}

	// Global declares names that resolve to the module scope.
	Global struct {
		Pos   Pos
		Names []string
	}
)

// Expressions

type (
	// Literal holds the raw source text of a constant.
	Literal struct {
		Kind LiteralKind
		Raw  string
	}

	// Name is a variable reference.
	Name struct {
		ID  string
		Ctx ExprContext
	}

	Attribute struct {
		Value Expr
		Attr  string
	}

	Subscript struct {
		Value Expr
		Index Expr
	}

	// BinOp covers arithmetic and bitwise operators.
	BinOp struct {
		Op    string
		Left  Expr
		Right Expr
	}

	// BoolOp is a short-circuit "and" / "or".
	BoolOp struct {
		Op    string
		Left  Expr
		Right Expr
	}

	UnaryOp struct {
		Op      string
		Operand Expr
	}

	// Compare is a (possibly chained) comparison: Left Ops[0] Comparators[0] ...
	Compare struct {
		Left        Expr
		Ops         []string
		Comparators []Expr
	}

	Keyword struct {
		Name  string
		Value Expr
	}

	Call struct {
		Func     Expr
		Args     []Expr
		Keywords []Keyword
	}

	// IfExp is the conditional expression "Body if Test else Orelse".
	IfExp struct {
		Test   Expr
		Body   Expr
		Orelse Expr
	}

	Lambda struct {
		Params []string
		Body   Expr
	}

	Tuple struct {
		Elts []Expr
		Ctx  ExprContext
	}

	List struct {
		Elts []Expr
		Ctx  ExprContext
	}

	// Let binds Value to Target (a Name or a Tuple of Names) while evaluating Body.
	Let struct {
		Target Expr
		Value  Expr
		Body   Expr
	}

	// Seq evaluates Exprs in order and yields the last one.
	Seq struct {
		Exprs []Expr
	}

	// Closure is a named lambda that can call itself by Name from Body.
	Closure struct {
		Name   string
		Params []string
		Body   Expr

		// Shadowed holds the names this closure binds locally. Renaming of outer
		// variables stops at the closure for these names.
		Shadowed *NameSet
	}
)

func (*ExprStmt) node()    {}
func (*Assign) node()      {}
func (*AugAssign) node()   {}
func (*If) node()          {}
func (*Loop) node()        {}
func (*FunctionDef) node() {}
func (*ClassDef) node()    {}
func (*Break) node()       {}
func (*Continue) node()    {}
func (*Pass) node()        {}
func (*Return) node()      {}
func (*Nonlocal) node()    {}
func (*Global) node()      {}

func (*ExprStmt) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*If) stmtNode()          {}
func (*Loop) stmtNode()        {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
func (*Pass) stmtNode()        {}
func (*Return) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Global) stmtNode()      {}

func (*Literal) node()   {}
func (*Name) node()      {}
func (*Attribute) node() {}
func (*Subscript) node() {}
func (*BinOp) node()     {}
func (*BoolOp) node()    {}
func (*UnaryOp) node()   {}
func (*Compare) node()   {}
func (*Call) node()      {}
func (*IfExp) node()     {}
func (*Lambda) node()    {}
func (*Tuple) node()     {}
func (*List) node()      {}
func (*Let) node()       {}
func (*Seq) node()       {}
func (*Closure) node()   {}

func (*Literal) exprNode()   {}
func (*Name) exprNode()      {}
func (*Attribute) exprNode() {}
func (*Subscript) exprNode() {}
func (*BinOp) exprNode()     {}
func (*BoolOp) exprNode()    {}
func (*UnaryOp) exprNode()   {}
func (*Compare) exprNode()   {}
func (*Call) exprNode()      {}
func (*IfExp) exprNode()     {}
func (*Lambda) exprNode()    {}
func (*Tuple) exprNode()     {}
func (*List) exprNode()      {}
func (*Let) exprNode()       {}
func (*Seq) exprNode()       {}
func (*Closure) exprNode()   {}

// None returns a fresh None literal.
func None() *Literal {
	return &Literal{Kind: LitNone, Raw: "None"}
}

// IsExit reports whether s unconditionally leaves the current sequence.
func IsExit(s Stmt) bool {
	switch s.(type) {
	case *Return, *Break, *Continue:
		return true
	}
	return false
}

// IsCompound reports whether s branches control flow.
func IsCompound(s Stmt) bool {
	switch s.(type) {
	case *If, *Loop:
		return true
	}
	return false
}

// StmtPos returns the source position of a statement.
func StmtPos(s Stmt) Pos {
	switch n := s.(type) {
	case *ExprStmt:
		return n.Pos
	case *Assign:
		return n.Pos
	case *AugAssign:
		return n.Pos
	case *If:
		return n.Pos
	case *Loop:
		return n.Pos
	case *FunctionDef:
		return n.Pos
	case *ClassDef:
		return n.Pos
	case *Break:
		return n.Pos
	case *Continue:
		return n.Pos
	case *Pass:
		return n.Pos
	case *Return:
		return n.Pos
	case *Nonlocal:
		return n.Pos
	case *Global:
		return n.Pos
	}
	return Pos{}
}
