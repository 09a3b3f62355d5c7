package parser

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// converter maps tree-sitter Python nodes onto ast nodes.
type converter struct {
	content []byte
}

func (c *converter) text(node *sitter.Node) string {
	return nodeText(node, c.content)
}

func (c *converter) unsupported(node *sitter.Node) error {
	return fmt.Errorf("%w: %s at line %d", ast.ErrUnsupported, node.Type(), int(node.StartPoint().Row)+1)
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// block converts every statement child of a module or block node.
func (c *converter) block(node *sitter.Node) ([]ast.Stmt, error) {
	stmts := make([]ast.Stmt, 0)
	if node == nil {
		return stmts, nil
	}
	for _, child := range namedChildren(node) {
		s, err := c.statement(child)
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}

func (c *converter) statement(node *sitter.Node) (ast.Stmt, error) {
	pos := position(node)

	switch node.Type() {
	case "expression_statement":
		return c.expressionStatement(node)

	case "if_statement":
		return c.ifStatement(node)

	case "while_statement":
		if node.ChildByFieldName("alternative") != nil {
			return nil, fmt.Errorf("%w: while/else at line %d", ast.ErrUnsupported, pos.Line)
		}
		test, err := c.expr(node.ChildByFieldName("condition"))
		if err != nil {
			return nil, err
		}
		body, err := c.block(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return &ast.Loop{Pos: pos, Kind: ast.LoopWhile, Test: test, Body: body}, nil

	case "for_statement":
		if node.ChildByFieldName("alternative") != nil {
			return nil, fmt.Errorf("%w: for/else at line %d", ast.ErrUnsupported, pos.Line)
		}
		target, err := c.target(node.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		iter, err := c.expr(node.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		body, err := c.block(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return &ast.Loop{Pos: pos, Kind: ast.LoopFor, Target: target, Iter: iter, Body: body}, nil

	case "function_definition":
		params, err := c.parameters(node.ChildByFieldName("parameters"))
		if err != nil {
			return nil, err
		}
		body, err := c.block(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return &ast.FunctionDef{
			Pos:    pos,
			Name:   c.text(node.ChildByFieldName("name")),
			Params: params,
			Body:   body,
		}, nil

	case "class_definition":
		var bases []ast.Expr
		if supers := node.ChildByFieldName("superclasses"); supers != nil {
			for _, arg := range namedChildren(supers) {
				base, err := c.expr(arg)
				if err != nil {
					return nil, err
				}
				bases = append(bases, base)
			}
		}
		body, err := c.block(node.ChildByFieldName("body"))
		if err != nil {
			return nil, err
		}
		return &ast.ClassDef{Pos: pos, Name: c.text(node.ChildByFieldName("name")), Bases: bases, Body: body}, nil

	case "return_statement":
		ret := &ast.Return{Pos: pos}
		if children := namedChildren(node); len(children) > 0 {
			value, err := c.expr(children[0])
			if err != nil {
				return nil, err
			}
			ret.Value = value
		}
		return ret, nil

	case "break_statement":
		return &ast.Break{Pos: pos}, nil
	case "continue_statement":
		return &ast.Continue{Pos: pos}, nil
	case "pass_statement":
		return &ast.Pass{Pos: pos}, nil

	case "nonlocal_statement":
		return &ast.Nonlocal{Pos: pos, Names: c.identifiers(node)}, nil
	case "global_statement":
		return &ast.Global{Pos: pos, Names: c.identifiers(node)}, nil
	}

	return nil, c.unsupported(node)
}

func (c *converter) identifiers(node *sitter.Node) []string {
	var names []string
	for _, child := range namedChildren(node) {
		if child.Type() == "identifier" {
			names = append(names, c.text(child))
		}
	}
	return names
}

func (c *converter) expressionStatement(node *sitter.Node) (ast.Stmt, error) {
	pos := position(node)
	children := namedChildren(node)
	if len(children) == 0 {
		return nil, nil
	}

	first := children[0]
	switch first.Type() {
	case "assignment":
		return c.assignment(first, pos)
	case "augmented_assignment":
		target, err := c.target(first.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		value, err := c.expr(first.ChildByFieldName("right"))
		if err != nil {
			return nil, err
		}
		op := c.text(first.ChildByFieldName("operator"))
		// "+=" becomes "+".
		return &ast.AugAssign{Pos: pos, Target: target, Op: op[:len(op)-1], Value: value}, nil
	}

	if len(children) > 1 {
		elts, err := c.exprs(children)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Pos: pos, Value: &ast.Tuple{Elts: elts}}, nil
	}

	value, err := c.expr(first)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Pos: pos, Value: value}, nil
}

// assignment flattens chained assignments a = b = v into one Assign.
func (c *converter) assignment(node *sitter.Node, pos ast.Pos) (ast.Stmt, error) {
	assign := &ast.Assign{Pos: pos}
	current := node
	for {
		right := current.ChildByFieldName("right")
		if right == nil {
			// Bare annotation such as "x: int" binds nothing.
			return &ast.Pass{Pos: pos}, nil
		}
		target, err := c.target(current.ChildByFieldName("left"))
		if err != nil {
			return nil, err
		}
		assign.Targets = append(assign.Targets, target)

		if right.Type() != "assignment" {
			value, err := c.expr(right)
			if err != nil {
				return nil, err
			}
			assign.Value = value
			return assign, nil
		}
		current = right
	}
}

func (c *converter) ifStatement(node *sitter.Node) (ast.Stmt, error) {
	test, err := c.expr(node.ChildByFieldName("condition"))
	if err != nil {
		return nil, err
	}
	body, err := c.block(node.ChildByFieldName("consequence"))
	if err != nil {
		return nil, err
	}
	root := &ast.If{Pos: position(node), Test: test, Body: body, Orelse: make([]ast.Stmt, 0)}

	// elif clauses nest as If statements in the previous alternative.
	current := root
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "elif_clause":
			elifTest, err := c.expr(child.ChildByFieldName("condition"))
			if err != nil {
				return nil, err
			}
			elifBody, err := c.block(child.ChildByFieldName("consequence"))
			if err != nil {
				return nil, err
			}
			next := &ast.If{Pos: position(child), Test: elifTest, Body: elifBody, Orelse: make([]ast.Stmt, 0)}
			current.Orelse = []ast.Stmt{next}
			current = next
		case "else_clause":
			elseBody, err := c.block(child.ChildByFieldName("body"))
			if err != nil {
				return nil, err
			}
			current.Orelse = elseBody
		}
	}
	return root, nil
}

func (c *converter) parameters(node *sitter.Node) ([]string, error) {
	params := make([]string, 0)
	if node == nil {
		return params, nil
	}
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "identifier":
			params = append(params, c.text(child))
		case "typed_parameter":
			for _, sub := range namedChildren(child) {
				if sub.Type() == "identifier" {
					params = append(params, c.text(sub))
					break
				}
			}
		default:
			// Defaults, splats and keyword-only markers have no store equivalent.
			return nil, c.unsupported(child)
		}
	}
	return params, nil
}

// target converts an assignment or loop target into a Store-context expression.
func (c *converter) target(node *sitter.Node) (ast.Expr, error) {
	if node == nil {
		return nil, fmt.Errorf("%w: missing assignment target", ast.ErrMalformed)
	}
	switch node.Type() {
	case "identifier":
		return &ast.Name{ID: c.text(node), Ctx: ast.Store}, nil
	case "pattern_list", "tuple_pattern", "tuple", "expression_list":
		elts, err := c.targets(node)
		if err != nil {
			return nil, err
		}
		return &ast.Tuple{Elts: elts, Ctx: ast.Store}, nil
	case "list_pattern", "list":
		elts, err := c.targets(node)
		if err != nil {
			return nil, err
		}
		return &ast.List{Elts: elts, Ctx: ast.Store}, nil
	case "parenthesized_expression":
		children := namedChildren(node)
		if len(children) != 1 {
			return nil, c.unsupported(node)
		}
		return c.target(children[0])
	case "attribute", "subscript":
		return c.expr(node)
	}
	return nil, c.unsupported(node)
}

func (c *converter) targets(node *sitter.Node) ([]ast.Expr, error) {
	var elts []ast.Expr
	for _, child := range namedChildren(node) {
		t, err := c.target(child)
		if err != nil {
			return nil, err
		}
		elts = append(elts, t)
	}
	return elts, nil
}
