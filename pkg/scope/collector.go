// Package scope computes per-scope name bindings and the mutation annotations that
// tell the loop rewriter which variables must be threaded through a store.
package scope

import (
	"github.com/l3aro/go-singleline/pkg/ast"
)

// AnalyzeScope returns the Local Variable Set of a scope: every name bound anywhere
// in stmts. Loops do not open a new scope, so their targets and body bindings land in
// the result. Nested function and class definitions contribute only their own name.
func AnalyzeScope(stmts []ast.Stmt) *ast.NameSet {
	c := &collector{vars: ast.NewNameSet()}
	c.walkBlock(stmts)
	return c.vars
}

type collector struct {
	vars *ast.NameSet
}

func (c *collector) walkBlock(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.walkStatement(s)
	}
}

func (c *collector) walkStatement(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.Assign:
		for _, target := range n.Targets {
			c.extractAssignmentTarget(target)
		}
		c.walkExpr(n.Value)
	case *ast.AugAssign:
		c.extractAssignmentTarget(n.Target)
		c.walkExpr(n.Value)
	case *ast.ExprStmt:
		c.walkExpr(n.Value)
	case *ast.Return:
		c.walkExpr(n.Value)
	case *ast.If:
		c.walkExpr(n.Test)
		c.walkBlock(n.Body)
		c.walkBlock(n.Orelse)
	case *ast.Loop:
		if n.Target != nil {
			c.extractAssignmentTarget(n.Target)
		}
		c.walkExpr(n.Iter)
		c.walkExpr(n.Test)
		c.walkBlock(n.Body)
	case *ast.FunctionDef:
		c.vars.Add(n.Name)
	case *ast.ClassDef:
		c.vars.Add(n.Name)
	}
}

func (c *collector) extractAssignmentTarget(target ast.Expr) {
	for _, name := range ast.BoundNames(target) {
		c.vars.Add(name)
	}
	// Object targets still evaluate their sub-expressions.
	switch t := target.(type) {
	case *ast.Attribute:
		c.walkExpr(t.Value)
	case *ast.Subscript:
		c.walkExpr(t.Value)
		c.walkExpr(t.Index)
	}
}

// walkExpr records Store-context names nested in expressions.
func (c *collector) walkExpr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.Name:
		if n.Ctx == ast.Store {
			c.vars.Add(n.ID)
		}
	case *ast.Tuple:
		for _, elt := range n.Elts {
			c.walkExpr(elt)
		}
	case *ast.List:
		for _, elt := range n.Elts {
			c.walkExpr(elt)
		}
	case *ast.Attribute:
		c.walkExpr(n.Value)
	case *ast.Subscript:
		c.walkExpr(n.Value)
		c.walkExpr(n.Index)
	case *ast.BinOp:
		c.walkExpr(n.Left)
		c.walkExpr(n.Right)
	case *ast.BoolOp:
		c.walkExpr(n.Left)
		c.walkExpr(n.Right)
	case *ast.UnaryOp:
		c.walkExpr(n.Operand)
	case *ast.Compare:
		c.walkExpr(n.Left)
		for _, cmp := range n.Comparators {
			c.walkExpr(cmp)
		}
	case *ast.Call:
		c.walkExpr(n.Func)
		for _, arg := range n.Args {
			c.walkExpr(arg)
		}
		for _, kw := range n.Keywords {
			c.walkExpr(kw.Value)
		}
	case *ast.IfExp:
		c.walkExpr(n.Test)
		c.walkExpr(n.Body)
		c.walkExpr(n.Orelse)
	case *ast.Seq:
		for _, sub := range n.Exprs {
			c.walkExpr(sub)
		}
	}
	// Lambda, Closure and Let bodies are separate scopes.
}
