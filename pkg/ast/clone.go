package ast

import "fmt"

// CloneExpr returns a deep copy of e. Passes that place one source expression at
// several tree positions clone it first, so no node is shared.
func CloneExpr(e Expr) Expr {
	switch n := e.(type) {
	case nil:
		return nil
	case *Literal:
		c := *n
		return &c
	case *Name:
		c := *n
		return &c
	case *Attribute:
		return &Attribute{Value: CloneExpr(n.Value), Attr: n.Attr}
	case *Subscript:
		return &Subscript{Value: CloneExpr(n.Value), Index: CloneExpr(n.Index)}
	case *BinOp:
		return &BinOp{Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *BoolOp:
		return &BoolOp{Op: n.Op, Left: CloneExpr(n.Left), Right: CloneExpr(n.Right)}
	case *UnaryOp:
		return &UnaryOp{Op: n.Op, Operand: CloneExpr(n.Operand)}
	case *Compare:
		return &Compare{
			Left:        CloneExpr(n.Left),
			Ops:         append([]string(nil), n.Ops...),
			Comparators: cloneExprs(n.Comparators),
		}
	case *Call:
		kws := make([]Keyword, len(n.Keywords))
		for i, kw := range n.Keywords {
			kws[i] = Keyword{Name: kw.Name, Value: CloneExpr(kw.Value)}
		}
		return &Call{Func: CloneExpr(n.Func), Args: cloneExprs(n.Args), Keywords: kws}
	case *IfExp:
		return &IfExp{Test: CloneExpr(n.Test), Body: CloneExpr(n.Body), Orelse: CloneExpr(n.Orelse)}
	case *Lambda:
		return &Lambda{Params: append([]string(nil), n.Params...), Body: CloneExpr(n.Body)}
	case *Tuple:
		return &Tuple{Elts: cloneExprs(n.Elts), Ctx: n.Ctx}
	case *List:
		return &List{Elts: cloneExprs(n.Elts), Ctx: n.Ctx}
	case *Let:
		return &Let{Target: CloneExpr(n.Target), Value: CloneExpr(n.Value), Body: CloneExpr(n.Body)}
	case *Seq:
		return &Seq{Exprs: cloneExprs(n.Exprs)}
	case *Closure:
		var shadowed *NameSet
		if n.Shadowed != nil {
			shadowed = n.Shadowed.Clone()
		}
		return &Closure{
			Name:     n.Name,
			Params:   append([]string(nil), n.Params...),
			Body:     CloneExpr(n.Body),
			Shadowed: shadowed,
		}
	default:
		panic(fmt.Sprintf("ast: cannot clone %T", e))
	}
}

func cloneExprs(es []Expr) []Expr {
	if es == nil {
		return nil
	}
	out := make([]Expr, len(es))
	for i, e := range es {
		out[i] = CloneExpr(e)
	}
	return out
}
