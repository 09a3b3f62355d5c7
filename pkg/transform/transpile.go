package transform

import (
	"strconv"

	"github.com/l3aro/go-singleline/pkg/ast"
	"github.com/l3aro/go-singleline/pkg/scope"
)

// Transpiler carries the options and the counters used to name generated closures
// and temporaries. A Transpiler is not safe for concurrent use; use one per tree.
type Transpiler struct {
	opts  Options
	loops int
	temps int
	joins int
}

// NewTranspiler creates a transpiler. Empty option fields take their defaults.
func NewTranspiler(opts Options) *Transpiler {
	return &Transpiler{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (t *Transpiler) Options() Options {
	return t.opts
}

// Loops returns the number of loops rewritten so far.
func (t *Transpiler) Loops() int {
	return t.loops
}

// RewriteLoops returns a copy of stmts in which every loop, at any depth, is
// replaced by a closure call that unpacks its final store. Loops and functions
// must carry mutation annotations.
func (t *Transpiler) RewriteLoops(stmts []ast.Stmt) ([]ast.Stmt, error) {
	return t.rewriteBlock(stmts, ast.NewNameSet())
}

// Compose converts a loop-free statement sequence into one expression. The result
// evaluates to the value of the first return reached, or None.
func (t *Transpiler) Compose(stmts []ast.Stmt) (ast.Expr, error) {
	return t.composeBlock(stmts, constant(ast.None()), composeEnv{known: ast.NewNameSet()})
}

// Transpile annotates, rewrites and composes a module body.
func (t *Transpiler) Transpile(stmts []ast.Stmt) (ast.Expr, error) {
	if err := scope.AnalyzeBlock(stmts); err != nil {
		return nil, err
	}
	rewritten, err := t.RewriteLoops(stmts)
	if err != nil {
		return nil, err
	}
	expr, err := t.Compose(rewritten)
	if err != nil {
		return nil, err
	}

	if t.opts.RecursionLimit > 0 {
		// __import__('sys').setrecursionlimit(N)
		setLimit := &ast.Call{
			Func: &ast.Attribute{
				Value: &ast.Call{Func: &ast.Name{ID: "__import__"}, Args: []ast.Expr{stringLiteral("sys")}},
				Attr:  "setrecursionlimit",
			},
			Args: []ast.Expr{&ast.Literal{Kind: ast.LitInt, Raw: strconv.Itoa(t.opts.RecursionLimit)}},
		}
		expr = seq(setLimit, expr)
	}
	return expr, nil
}

// RewriteLoops rewrites the loops of stmts with a fresh Transpiler.
func RewriteLoops(stmts []ast.Stmt, opts Options) ([]ast.Stmt, error) {
	return NewTranspiler(opts).RewriteLoops(stmts)
}

// Compose composes stmts with a fresh Transpiler.
func Compose(stmts []ast.Stmt, opts Options) (ast.Expr, error) {
	return NewTranspiler(opts).Compose(stmts)
}

// Transpile transpiles stmts with a fresh Transpiler.
func Transpile(stmts []ast.Stmt, opts Options) (ast.Expr, error) {
	return NewTranspiler(opts).Transpile(stmts)
}
