package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-singleline/pkg/ast"
)

func (c *converter) exprs(nodes []*sitter.Node) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(nodes))
	for _, n := range nodes {
		e, err := c.expr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// expr converts an expression node into a Load-context expression.
func (c *converter) expr(node *sitter.Node) (ast.Expr, error) {
	if node == nil {
		return nil, nil
	}

	switch node.Type() {
	case "identifier":
		return &ast.Name{ID: c.text(node), Ctx: ast.Load}, nil
	case "integer":
		return &ast.Literal{Kind: ast.LitInt, Raw: c.text(node)}, nil
	case "float":
		return &ast.Literal{Kind: ast.LitFloat, Raw: c.text(node)}, nil
	case "string", "concatenated_string":
		return &ast.Literal{Kind: ast.LitString, Raw: c.text(node)}, nil
	case "true", "false":
		return &ast.Literal{Kind: ast.LitBool, Raw: c.text(node)}, nil
	case "none":
		return ast.None(), nil

	case "parenthesized_expression":
		children := namedChildren(node)
		if len(children) != 1 {
			return nil, c.unsupported(node)
		}
		return c.expr(children[0])

	case "binary_operator":
		left, right, err := c.operands(node)
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Op: c.text(node.ChildByFieldName("operator")), Left: left, Right: right}, nil

	case "boolean_operator":
		left, right, err := c.operands(node)
		if err != nil {
			return nil, err
		}
		return &ast.BoolOp{Op: c.text(node.ChildByFieldName("operator")), Left: left, Right: right}, nil

	case "not_operator":
		operand, err := c.expr(node.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: "not", Operand: operand}, nil

	case "unary_operator":
		operand, err := c.expr(node.ChildByFieldName("argument"))
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: c.text(node.ChildByFieldName("operator")), Operand: operand}, nil

	case "comparison_operator":
		return c.comparison(node)

	case "call":
		return c.call(node)

	case "attribute":
		value, err := c.expr(node.ChildByFieldName("object"))
		if err != nil {
			return nil, err
		}
		return &ast.Attribute{Value: value, Attr: c.text(node.ChildByFieldName("attribute"))}, nil

	case "subscript":
		value, err := c.expr(node.ChildByFieldName("value"))
		if err != nil {
			return nil, err
		}
		index, err := c.expr(node.ChildByFieldName("subscript"))
		if err != nil {
			return nil, err
		}
		return &ast.Subscript{Value: value, Index: index}, nil

	case "conditional_expression":
		children := namedChildren(node)
		if len(children) != 3 {
			return nil, c.unsupported(node)
		}
		parts, err := c.exprs(children)
		if err != nil {
			return nil, err
		}
		return &ast.IfExp{Body: parts[0], Test: parts[1], Orelse: parts[2]}, nil

	case "lambda":
		var params []string
		if ps := node.ChildByFieldName("parameters"); ps != nil {
			var err error
			if params, err = c.parameters(ps); err != nil {
				return nil, err
			}
		}
		body, err := c.expr(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Params: params, Body: body}, nil

	case "tuple", "expression_list":
		elts, err := c.exprs(namedChildren(node))
		if err != nil {
			return nil, err
		}
		return &ast.Tuple{Elts: elts}, nil

	case "list":
		elts, err := c.exprs(namedChildren(node))
		if err != nil {
			return nil, err
		}
		return &ast.List{Elts: elts}, nil
	}

	return nil, c.unsupported(node)
}

func (c *converter) operands(node *sitter.Node) (ast.Expr, ast.Expr, error) {
	left, err := c.expr(node.ChildByFieldName("left"))
	if err != nil {
		return nil, nil, err
	}
	right, err := c.expr(node.ChildByFieldName("right"))
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// comparison walks operand/operator children in order; operators are anonymous
// nodes such as "<" or "not in".
func (c *converter) comparison(node *sitter.Node) (ast.Expr, error) {
	cmp := &ast.Compare{}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		if !child.IsNamed() {
			cmp.Ops = append(cmp.Ops, c.text(child))
			continue
		}
		operand, err := c.expr(child)
		if err != nil {
			return nil, err
		}
		if cmp.Left == nil {
			cmp.Left = operand
		} else {
			cmp.Comparators = append(cmp.Comparators, operand)
		}
	}
	if len(cmp.Ops) != len(cmp.Comparators) {
		return nil, c.unsupported(node)
	}
	return cmp, nil
}

func (c *converter) call(node *sitter.Node) (ast.Expr, error) {
	fn, err := c.expr(node.ChildByFieldName("function"))
	if err != nil {
		return nil, err
	}
	call := &ast.Call{Func: fn}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return call, nil
	}
	if args.Type() != "argument_list" {
		return nil, c.unsupported(args)
	}
	for _, arg := range namedChildren(args) {
		if arg.Type() == "keyword_argument" {
			value, err := c.expr(arg.ChildByFieldName("value"))
			if err != nil {
				return nil, err
			}
			call.Keywords = append(call.Keywords, ast.Keyword{
				Name:  c.text(arg.ChildByFieldName("name")),
				Value: value,
			})
			continue
		}
		value, err := c.expr(arg)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, value)
	}
	return call, nil
}
