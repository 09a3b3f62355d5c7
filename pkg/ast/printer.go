package ast

import (
	"fmt"
	"strings"
)

// Format renders an expression as Python source text on a single line.
// Operands that are not atoms are parenthesized, so the output never depends on
// operator precedence.
func Format(e Expr) string {
	var p printer
	p.expr(e)
	return p.sb.String()
}

type printer struct {
	sb strings.Builder
}

func (p *printer) write(parts ...string) {
	for _, s := range parts {
		p.sb.WriteString(s)
	}
}

func (p *printer) expr(e Expr) {
	switch n := e.(type) {
	case *Literal:
		p.write(n.Raw)
	case *Name:
		p.write(n.ID)
	case *Attribute:
		p.atom(n.Value)
		p.write(".", n.Attr)
	case *Subscript:
		p.atom(n.Value)
		p.write("[")
		p.expr(n.Index)
		p.write("]")
	case *BinOp:
		p.atom(n.Left)
		p.write(" ", n.Op, " ")
		p.atom(n.Right)
	case *BoolOp:
		p.atom(n.Left)
		p.write(" ", n.Op, " ")
		p.atom(n.Right)
	case *UnaryOp:
		if n.Op == "not" {
			p.write("not ")
		} else {
			p.write(n.Op)
		}
		p.atom(n.Operand)
	case *Compare:
		p.atom(n.Left)
		for i, op := range n.Ops {
			p.write(" ", op, " ")
			p.atom(n.Comparators[i])
		}
	case *Call:
		p.atom(n.Func)
		p.write("(")
		p.list(n.Args)
		for i, kw := range n.Keywords {
			if i > 0 || len(n.Args) > 0 {
				p.write(", ")
			}
			p.write(kw.Name, "=")
			p.expr(kw.Value)
		}
		p.write(")")
	case *IfExp:
		p.atom(n.Body)
		p.write(" if ")
		p.atom(n.Test)
		p.write(" else ")
		p.atom(n.Orelse)
	case *Lambda:
		p.lambda(n.Params, n.Body)
	case *Tuple:
		p.write("(")
		p.list(n.Elts)
		if len(n.Elts) == 1 {
			p.write(",")
		}
		p.write(")")
	case *List:
		p.write("[")
		p.list(n.Elts)
		p.write("]")
	case *Let:
		p.let(n)
	case *Seq:
		if len(n.Exprs) == 1 {
			p.expr(n.Exprs[0])
			return
		}
		p.write("(")
		p.list(n.Exprs)
		p.write(")[-1]")
	case *Closure:
		p.closure(n)
	default:
		panic(fmt.Sprintf("ast: cannot format %T", e))
	}
}

func (p *printer) atom(e Expr) {
	switch e.(type) {
	case *Literal, *Name, *Attribute, *Subscript, *Call, *Tuple, *List, *Let, *Seq, *Closure:
		p.expr(e)
	default:
		p.write("(")
		p.expr(e)
		p.write(")")
	}
}

func (p *printer) list(es []Expr) {
	for i, e := range es {
		if i > 0 {
			p.write(", ")
		}
		p.expr(e)
	}
}

func (p *printer) lambda(params []string, body Expr) {
	p.write("lambda")
	if len(params) > 0 {
		p.write(" ", strings.Join(params, ", "))
	}
	p.write(": ")
	p.expr(body)
}

// let renders (lambda target: body)(value); tuple targets unpack with *value.
func (p *printer) let(n *Let) {
	var params []string
	unpack := false
	switch t := n.Target.(type) {
	case *Name:
		params = []string{t.ID}
	case *Tuple:
		unpack = true
		for _, elt := range t.Elts {
			name, ok := elt.(*Name)
			if !ok {
				panic(fmt.Sprintf("ast: let target element %T is not a name", elt))
			}
			params = append(params, name.ID)
		}
	default:
		panic(fmt.Sprintf("ast: let target %T is not a name", n.Target))
	}

	p.write("(")
	p.lambda(params, n.Body)
	p.write(")(")
	if unpack {
		p.write("*")
		p.atom(n.Value)
	} else {
		p.expr(n.Value)
	}
	p.write(")")
}

// closure ties the recursive knot with a self-application combinator so that the
// body can call the closure by its own name.
func (p *printer) closure(n *Closure) {
	p.write("(lambda _f: lambda *_a: _f(_f, *_a))(lambda _self")
	for _, param := range n.Params {
		p.write(", ", param)
	}
	p.write(": (lambda ", n.Name, ": ")
	p.expr(n.Body)
	p.write(")(lambda *_a: _self(_self, *_a)))")
}
