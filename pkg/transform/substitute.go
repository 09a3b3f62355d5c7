package transform

import (
	"maps"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// substitute returns a copy of e with every name in rename replaced, in both Load
// and Store context. Renaming of a name stops at a lambda or closure that binds it:
// lambda and closure parameters, a closure's own name and the names a closure
// shadows.
func substitute(e ast.Expr, rename map[string]string) ast.Expr {
	if len(rename) == 0 {
		return ast.CloneExpr(e)
	}

	switch n := e.(type) {
	case nil:
		return nil
	case *ast.Name:
		if to, ok := rename[n.ID]; ok {
			return &ast.Name{ID: to, Ctx: n.Ctx}
		}
		return &ast.Name{ID: n.ID, Ctx: n.Ctx}
	case *ast.Literal:
		return &ast.Literal{Kind: n.Kind, Raw: n.Raw}
	case *ast.Attribute:
		return &ast.Attribute{Value: substitute(n.Value, rename), Attr: n.Attr}
	case *ast.Subscript:
		return &ast.Subscript{Value: substitute(n.Value, rename), Index: substitute(n.Index, rename)}
	case *ast.BinOp:
		return &ast.BinOp{Op: n.Op, Left: substitute(n.Left, rename), Right: substitute(n.Right, rename)}
	case *ast.BoolOp:
		return &ast.BoolOp{Op: n.Op, Left: substitute(n.Left, rename), Right: substitute(n.Right, rename)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{Op: n.Op, Operand: substitute(n.Operand, rename)}
	case *ast.Compare:
		return &ast.Compare{
			Left:        substitute(n.Left, rename),
			Ops:         append([]string(nil), n.Ops...),
			Comparators: substituteAll(n.Comparators, rename),
		}
	case *ast.Call:
		call := &ast.Call{Func: substitute(n.Func, rename), Args: substituteAll(n.Args, rename)}
		for _, kw := range n.Keywords {
			call.Keywords = append(call.Keywords, ast.Keyword{Name: kw.Name, Value: substitute(kw.Value, rename)})
		}
		return call
	case *ast.IfExp:
		return &ast.IfExp{
			Test:   substitute(n.Test, rename),
			Body:   substitute(n.Body, rename),
			Orelse: substitute(n.Orelse, rename),
		}
	case *ast.Lambda:
		return &ast.Lambda{
			Params: append([]string(nil), n.Params...),
			Body:   substitute(n.Body, without(rename, n.Params...)),
		}
	case *ast.Tuple:
		return &ast.Tuple{Elts: substituteAll(n.Elts, rename), Ctx: n.Ctx}
	case *ast.List:
		return &ast.List{Elts: substituteAll(n.Elts, rename), Ctx: n.Ctx}
	case *ast.Let:
		// A let binds in the scope it appears in, so its target is renamed too.
		return &ast.Let{
			Target: substitute(n.Target, rename),
			Value:  substitute(n.Value, rename),
			Body:   substitute(n.Body, rename),
		}
	case *ast.Seq:
		return &ast.Seq{Exprs: substituteAll(n.Exprs, rename)}
	case *ast.Closure:
		inner := without(rename, n.Params...)
		inner = without(inner, n.Name)
		if n.Shadowed != nil {
			inner = without(inner, n.Shadowed.Sorted()...)
		}
		return &ast.Closure{
			Name:     n.Name,
			Params:   append([]string(nil), n.Params...),
			Body:     substitute(n.Body, inner),
			Shadowed: n.Shadowed.Clone(),
		}
	}
	return ast.CloneExpr(e)
}

func substituteAll(es []ast.Expr, rename map[string]string) []ast.Expr {
	if es == nil {
		return nil
	}
	out := make([]ast.Expr, len(es))
	for i, e := range es {
		out[i] = substitute(e, rename)
	}
	return out
}

// without returns rename minus names, copying only when something is removed.
func without(rename map[string]string, names ...string) map[string]string {
	var out map[string]string
	for _, name := range names {
		if _, ok := rename[name]; !ok {
			continue
		}
		if out == nil {
			out = maps.Clone(rename)
		}
		delete(out, name)
	}
	if out == nil {
		return rename
	}
	return out
}
