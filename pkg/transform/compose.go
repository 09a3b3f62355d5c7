package transform

import (
	"fmt"
	"strconv"

	"github.com/l3aro/go-singleline/pkg/ast"
	"github.com/l3aro/go-singleline/pkg/cfg"
	"github.com/l3aro/go-singleline/pkg/scope"
)

// loopExits holds what break and continue evaluate to inside a loop closure.
type loopExits struct {
	brk  ast.Expr
	cont ast.Expr
}

type composeEnv struct {
	// loop is nil outside a loop body.
	loop *loopExits
	// declared holds the nonlocal/global names of the enclosing function.
	declared *ast.NameSet
	// known holds the names bound at this point of the composed program.
	known *ast.NameSet
}

// after returns the environment that follows s.
func (env composeEnv) after(s ast.Stmt) (composeEnv, error) {
	bound, err := boundAfter(s)
	if err != nil {
		return env, err
	}
	next := env
	next.known = env.known.Clone()
	next.known.Merge(bound)
	return next, nil
}

// cont builds the expression a block continues with, given the names bound where
// it is placed. A small continuation may be placed on several paths; a large one
// is placed at most once.
type cont struct {
	small bool
	build func(known *ast.NameSet) ast.Expr
}

func constant(e ast.Expr) cont {
	return cont{small: true, build: func(*ast.NameSet) ast.Expr { return ast.CloneExpr(e) }}
}

// composeBlock converts stmts into one expression whose value is the continuation
// once the statements ran.
func (t *Transpiler) composeBlock(stmts []ast.Stmt, k cont, env composeEnv) (ast.Expr, error) {
	if len(stmts) == 0 {
		return k.build(env.known), nil
	}
	rest := func() (ast.Expr, error) {
		next, err := env.after(stmts[0])
		if err != nil {
			return nil, err
		}
		return t.composeBlock(stmts[1:], k, next)
	}

	switch n := stmts[0].(type) {
	case *ast.Assign:
		body, err := rest()
		if err != nil {
			return nil, err
		}
		return t.composeAssign(n, body, env)

	case *ast.AugAssign:
		body, err := rest()
		if err != nil {
			return nil, err
		}
		return t.composeAugAssign(n, body, env)

	case *ast.ExprStmt:
		body, err := rest()
		if err != nil {
			return nil, err
		}
		return seq(ast.CloneExpr(n.Value), body), nil

	case *ast.If:
		return t.composeIf(n, stmts[1:], k, env)

	case *ast.FunctionDef:
		body, err := rest()
		if err != nil {
			return nil, err
		}
		return t.composeFunction(n, body, env)

	case *ast.Return:
		if env.loop != nil {
			return nil, fmt.Errorf("%w: return inside a loop at line %d", ast.ErrUnsupported, n.Pos.Line)
		}
		if n.Value == nil {
			return ast.None(), nil
		}
		return ast.CloneExpr(n.Value), nil

	case *ast.Break:
		if env.loop == nil {
			return nil, fmt.Errorf("%w: break outside a loop at line %d", ast.ErrMalformed, n.Pos.Line)
		}
		return ast.CloneExpr(env.loop.brk), nil

	case *ast.Continue:
		if env.loop == nil {
			return nil, fmt.Errorf("%w: continue outside a loop at line %d", ast.ErrMalformed, n.Pos.Line)
		}
		return ast.CloneExpr(env.loop.cont), nil

	case *ast.Pass, *ast.Nonlocal, *ast.Global:
		return rest()

	case *ast.Loop:
		return nil, fmt.Errorf("%w: %s loop at line %d was not rewritten", ast.ErrUnsupported, n.Kind, n.Pos.Line)

	case *ast.ClassDef:
		return nil, fmt.Errorf("%w: class %s at line %d", ast.ErrUnsupported, n.Name, n.Pos.Line)

	case nil:
		return nil, fmt.Errorf("%w: nil statement", ast.ErrMalformed)

	default:
		return nil, fmt.Errorf("%w: statement %T", ast.ErrUnsupported, n)
	}
}

// composeIf composes a conditional followed by the statements after it. When both
// branches fall through, the rest is bound once to a join closure over the names
// either branch binds, and a branch that skips one of them passes the undefined
// value. When one branch falls through, the rest is placed in that branch only.
func (t *Transpiler) composeIf(n *ast.If, after []ast.Stmt, k cont, env composeEnv) (ast.Expr, error) {
	bodyFalls, err := fallsThrough(n.Body)
	if err != nil {
		return nil, err
	}
	orelseFalls, err := fallsThrough(n.Orelse)
	if err != nil {
		return nil, err
	}

	next := k
	var join *ast.Let
	if bodyFalls || orelseFalls {
		afterEnv, err := env.after(n)
		if err != nil {
			return nil, err
		}

		switch {
		case bodyFalls && orelseFalls && (len(after) > 0 || !k.small):
			bound, err := boundAfter(n)
			if err != nil {
				return nil, err
			}
			params := bound.Sorted()
			t.joins++
			name := fmt.Sprintf("__join_%d", t.joins)
			rest, err := t.composeBlock(after, k, afterEnv)
			if err != nil {
				return nil, err
			}
			join = &ast.Let{
				Target: &ast.Name{ID: name, Ctx: ast.Store},
				Value:  &ast.Lambda{Params: params, Body: rest},
			}
			next = t.joinCall(name, params)

		case len(after) > 0:
			rest, err := t.composeBlock(after, k, afterEnv)
			if err != nil {
				return nil, err
			}
			next = cont{build: func(*ast.NameSet) ast.Expr { return rest }}
		}
	}

	body, err := t.composeBlock(n.Body, next, env)
	if err != nil {
		return nil, err
	}
	orelse, err := t.composeBlock(n.Orelse, next, env)
	if err != nil {
		return nil, err
	}
	cond := &ast.IfExp{Test: ast.CloneExpr(n.Test), Body: body, Orelse: orelse}
	if join == nil {
		return cond, nil
	}
	join.Body = cond
	return join, nil
}

// joinCall calls the join closure name with the current value of every param.
func (t *Transpiler) joinCall(name string, params []string) cont {
	return cont{small: true, build: func(known *ast.NameSet) ast.Expr {
		args := make([]ast.Expr, 0, len(params))
		for _, p := range params {
			if known.Has(p) {
				args = append(args, &ast.Name{ID: p, Ctx: ast.Load})
			} else {
				args = append(args, t.opts.undefined())
			}
		}
		return &ast.Call{Func: &ast.Name{ID: name}, Args: args}
	}}
}

// boundAfter returns the names s leaves bound when control falls through it. A
// conditional binds the names of each branch that falls through; the composer
// binds the undefined value on the paths that skip them.
func boundAfter(s ast.Stmt) (*ast.NameSet, error) {
	n, ok := s.(*ast.If)
	if !ok {
		return scope.AnalyzeScope([]ast.Stmt{s}), nil
	}
	bound := ast.NewNameSet()
	for _, branch := range [][]ast.Stmt{n.Body, n.Orelse} {
		falls, err := fallsThrough(branch)
		if err != nil {
			return nil, err
		}
		if !falls {
			continue
		}
		for _, bs := range branch {
			names, err := boundAfter(bs)
			if err != nil {
				return nil, err
			}
			bound.Merge(names)
		}
	}
	return bound, nil
}

func fallsThrough(stmts []ast.Stmt) (bool, error) {
	g, err := cfg.Build(stmts)
	if err != nil {
		return false, err
	}
	return g.FallsThrough(), nil
}

func (t *Transpiler) composeAssign(n *ast.Assign, body ast.Expr, env composeEnv) (ast.Expr, error) {
	switch len(n.Targets) {
	case 0:
		return nil, fmt.Errorf("%w: assignment without target at line %d", ast.ErrMalformed, n.Pos.Line)
	case 1:
		return t.bind(n.Targets[0], ast.CloneExpr(n.Value), body, env)
	}

	// a = b = v evaluates v once and binds it to each target from left to right.
	src, ok := n.Targets[0].(*ast.Name)
	first := 1
	if !ok {
		t.temps++
		src = &ast.Name{ID: "__value_" + strconv.Itoa(t.temps)}
		first = 0
	}

	var err error
	for i := len(n.Targets) - 1; i >= first; i-- {
		body, err = t.bind(n.Targets[i], &ast.Name{ID: src.ID, Ctx: ast.Load}, body, env)
		if err != nil {
			return nil, err
		}
	}
	if first == 1 {
		return t.bind(src, ast.CloneExpr(n.Value), body, env)
	}
	return &ast.Let{Target: &ast.Name{ID: src.ID, Ctx: ast.Store}, Value: ast.CloneExpr(n.Value), Body: body}, nil
}

// bind evaluates body with value assigned to target.
func (t *Transpiler) bind(target, value, body ast.Expr, env composeEnv) (ast.Expr, error) {
	switch tgt := target.(type) {
	case *ast.Name, *ast.Tuple, *ast.List:
		letTarget, err := flatTarget(target)
		if err != nil {
			return nil, err
		}
		for _, name := range ast.BoundNames(letTarget) {
			if env.declared.Has(name) {
				return nil, fmt.Errorf("%w: assignment to %s declared nonlocal or global", ast.ErrUnsupported, name)
			}
		}
		return &ast.Let{Target: letTarget, Value: value, Body: body}, nil

	case *ast.Attribute:
		set := &ast.Call{
			Func: &ast.Name{ID: "setattr"},
			Args: []ast.Expr{ast.CloneExpr(tgt.Value), stringLiteral(tgt.Attr), value},
		}
		return seq(set, body), nil

	case *ast.Subscript:
		set := &ast.Call{
			Func: &ast.Attribute{Value: ast.CloneExpr(tgt.Value), Attr: "__setitem__"},
			Args: []ast.Expr{ast.CloneExpr(tgt.Index), value},
		}
		return seq(set, body), nil
	}
	return nil, fmt.Errorf("%w: assignment target %T", ast.ErrMalformed, target)
}

func (t *Transpiler) composeAugAssign(n *ast.AugAssign, body ast.Expr, env composeEnv) (ast.Expr, error) {
	var current ast.Expr
	switch tgt := n.Target.(type) {
	case *ast.Name:
		current = &ast.Name{ID: tgt.ID, Ctx: ast.Load}
	case *ast.Attribute:
		current = &ast.Attribute{Value: ast.CloneExpr(tgt.Value), Attr: tgt.Attr}
	case *ast.Subscript:
		current = &ast.Subscript{Value: ast.CloneExpr(tgt.Value), Index: ast.CloneExpr(tgt.Index)}
	default:
		return nil, fmt.Errorf("%w: augmented assignment target %T at line %d", ast.ErrMalformed, n.Target, n.Pos.Line)
	}
	value := &ast.BinOp{Op: n.Op, Left: current, Right: ast.CloneExpr(n.Value)}
	return t.bind(n.Target, value, body, env)
}

func (t *Transpiler) composeFunction(n *ast.FunctionDef, body ast.Expr, env composeEnv) (ast.Expr, error) {
	if n.Mutated == nil {
		return nil, fmt.Errorf("%w: function %s at line %d", ErrNotAnalyzed, n.Name, n.Pos.Line)
	}

	known := env.known.Clone()
	known.Add(n.Name)
	for _, p := range n.Params {
		known.Add(p)
	}
	fnBody, err := t.composeBlock(n.Body, constant(ast.None()), composeEnv{declared: scope.DeclaredNames(n.Body), known: known})
	if err != nil {
		return nil, fmt.Errorf("function %s: %w", n.Name, err)
	}
	closure := &ast.Closure{
		Name:     n.Name,
		Params:   append([]string(nil), n.Params...),
		Body:     fnBody,
		Shadowed: n.Mutated.Clone(),
	}
	return t.bind(&ast.Name{ID: n.Name, Ctx: ast.Store}, closure, body, env)
}

// flatTarget returns a let target for a name or a flat tuple/list of names.
func flatTarget(target ast.Expr) (ast.Expr, error) {
	var elts []ast.Expr
	switch tgt := target.(type) {
	case *ast.Name:
		return &ast.Name{ID: tgt.ID, Ctx: ast.Store}, nil
	case *ast.Tuple:
		elts = tgt.Elts
	case *ast.List:
		elts = tgt.Elts
	default:
		return nil, fmt.Errorf("%w: binding target %T", ast.ErrMalformed, target)
	}

	names := make([]string, 0, len(elts))
	for _, e := range elts {
		name, ok := e.(*ast.Name)
		if !ok {
			return nil, fmt.Errorf("%w: nested unpacking into %T", ast.ErrUnsupported, e)
		}
		names = append(names, name.ID)
	}
	return ast.StoreNames(names), nil
}

// seq evaluates first for its effect, then yields rest.
func seq(first, rest ast.Expr) ast.Expr {
	if s, ok := rest.(*ast.Seq); ok {
		return &ast.Seq{Exprs: append([]ast.Expr{first}, s.Exprs...)}
	}
	return &ast.Seq{Exprs: []ast.Expr{first, rest}}
}

func stringLiteral(s string) *ast.Literal {
	return &ast.Literal{Kind: ast.LitString, Raw: strconv.Quote(s)}
}
