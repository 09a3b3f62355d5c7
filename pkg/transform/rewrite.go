package transform

import (
	"fmt"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// rewriteBlock replaces every loop in stmts, innermost first. known holds the names
// bound before stmts in this or an enclosing scope; it grows as statements are
// processed and is owned by the call.
func (t *Transpiler) rewriteBlock(stmts []ast.Stmt, known *ast.NameSet) ([]ast.Stmt, error) {
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		r, err := t.rewriteStatement(s, known)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		bound, err := boundAfter(r)
		if err != nil {
			return nil, err
		}
		known.Merge(bound)
	}
	return out, nil
}

func (t *Transpiler) rewriteStatement(s ast.Stmt, known *ast.NameSet) (ast.Stmt, error) {
	switch n := s.(type) {
	case *ast.Loop:
		return t.rewriteLoop(n, known)

	case *ast.If:
		body, err := t.rewriteBlock(n.Body, known.Clone())
		if err != nil {
			return nil, err
		}
		orelse, err := t.rewriteBlock(n.Orelse, known.Clone())
		if err != nil {
			return nil, err
		}
		return &ast.If{Pos: n.Pos, Test: ast.CloneExpr(n.Test), Body: body, Orelse: orelse}, nil

	case *ast.FunctionDef:
		if n.Mutated == nil {
			return nil, fmt.Errorf("%w: function %s at line %d", ErrNotAnalyzed, n.Name, n.Pos.Line)
		}
		inner := known.Clone()
		inner.Add(n.Name)
		for _, p := range n.Params {
			inner.Add(p)
		}
		body, err := t.rewriteBlock(n.Body, inner)
		if err != nil {
			return nil, fmt.Errorf("function %s: %w", n.Name, err)
		}
		return &ast.FunctionDef{
			Pos:     n.Pos,
			Name:    n.Name,
			Params:  append([]string(nil), n.Params...),
			Body:    body,
			Mutated: n.Mutated.Clone(),
		}, nil

	case nil:
		return nil, fmt.Errorf("%w: nil statement", ast.ErrMalformed)
	}
	return s, nil
}

// rewriteLoop turns a loop into a call of a recursive closure whose parameters are
// the loop's store. The call returns the final store, which the replacement
// statement unpacks back into the mutated names.
func (t *Transpiler) rewriteLoop(n *ast.Loop, known *ast.NameSet) (ast.Stmt, error) {
	if n.Mutated == nil {
		return nil, fmt.Errorf("%w: %s loop at line %d", ErrNotAnalyzed, n.Kind, n.Pos.Line)
	}

	mutated := n.Mutated.Sorted()
	inner := known.Clone()
	inner.Merge(n.Mutated)
	env := composeEnv{known: inner.Clone()}
	body, err := t.rewriteBlock(n.Body, inner)
	if err != nil {
		return nil, err
	}

	t.loops++
	id := t.loops
	name := t.opts.closureName(id)

	rename := make(map[string]string, len(mutated))
	params := make([]string, 0, len(mutated)+1)
	inits := make([]ast.Expr, 0, len(mutated)+1)
	for _, m := range mutated {
		rename[m] = t.opts.storeName(m)
		if known.Has(m) {
			inits = append(inits, &ast.Name{ID: m, Ctx: ast.Load})
		} else {
			inits = append(inits, t.opts.undefined())
		}
	}
	store := func() ast.Expr {
		return &ast.Tuple{Elts: ast.LoadNames(mutated), Ctx: ast.Load}
	}

	var closureBody, value ast.Expr
	switch n.Kind {
	case ast.LoopWhile:
		recur := &ast.Call{Func: &ast.Name{ID: name}, Args: ast.LoadNames(mutated)}
		env.loop = &loopExits{brk: store(), cont: recur}
		bodyExpr, err := t.composeBlock(body, constant(recur), env)
		if err != nil {
			return nil, err
		}
		closureBody = &ast.IfExp{Test: ast.CloneExpr(n.Test), Body: bodyExpr, Orelse: store()}

	case ast.LoopFor:
		target, err := flatTarget(n.Target)
		if err != nil {
			return nil, fmt.Errorf("for loop at line %d: %w", n.Pos.Line, err)
		}
		it := fmt.Sprintf("__it_%d", id)
		next := fmt.Sprintf("__next_%d", id)
		sentinel := fmt.Sprintf("__sentinel_%d", id)

		recur := &ast.Call{
			Func: &ast.Name{ID: name},
			Args: append([]ast.Expr{&ast.Name{ID: it}}, ast.LoadNames(mutated)...),
		}
		env.loop = &loopExits{brk: store(), cont: recur}
		bodyExpr, err := t.composeBlock(body, constant(recur), env)
		if err != nil {
			return nil, err
		}

		// next(it, sentinel) yields the sentinel once the iterator is exhausted.
		closureBody = &ast.Let{
			Target: &ast.Name{ID: next, Ctx: ast.Store},
			Value: &ast.Call{
				Func: &ast.Name{ID: "next"},
				Args: []ast.Expr{&ast.Name{ID: it}, &ast.Name{ID: sentinel}},
			},
			Body: &ast.IfExp{
				Test:   &ast.Compare{Left: &ast.Name{ID: next}, Ops: []string{"is"}, Comparators: []ast.Expr{&ast.Name{ID: sentinel}}},
				Body:   store(),
				Orelse: &ast.Let{Target: target, Value: &ast.Name{ID: next}, Body: bodyExpr},
			},
		}
		params = append(params, it)
		inits = append([]ast.Expr{&ast.Call{Func: &ast.Name{ID: "iter"}, Args: []ast.Expr{ast.CloneExpr(n.Iter)}}}, inits...)

	default:
		return nil, fmt.Errorf("%w: loop kind %q", ast.ErrUnsupported, n.Kind)
	}

	for _, m := range mutated {
		params = append(params, rename[m])
	}
	closure := &ast.Closure{
		Name:     name,
		Params:   params,
		Body:     substitute(closureBody, rename),
		Shadowed: n.Mutated.Clone(),
	}
	value = &ast.Call{Func: closure, Args: inits}
	if n.Kind == ast.LoopFor {
		value = &ast.Let{
			Target: &ast.Name{ID: fmt.Sprintf("__sentinel_%d", id), Ctx: ast.Store},
			Value:  &ast.Call{Func: &ast.Name{ID: "object"}},
			Body:   value,
		}
	}

	if len(mutated) == 0 {
		return &ast.ExprStmt{Pos: n.Pos, Value: value}, nil
	}
	return &ast.Assign{
		Pos:     n.Pos,
		Targets: []ast.Expr{ast.StoreNames(mutated)},
		Value:   value,
	}, nil
}
