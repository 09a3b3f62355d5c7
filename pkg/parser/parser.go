// Package parser turns Python source into the singleline syntax tree using
// tree-sitter. It covers the statement and expression kinds the passes understand and
// reports anything else as ast.ErrUnsupported.
package parser

import (
	"context"
	"errors"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// SyntaxError reports the first tree-sitter error node of a source file.
type SyntaxError struct {
	Line   int
	Column int
	Text   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d near %q", e.Line, e.Column, e.Text)
}

// Unwrap lets callers match syntax errors with errors.Is(err, ast.ErrMalformed).
func (e *SyntaxError) Unwrap() error {
	return ast.ErrMalformed
}

// Parse parses Python source into a statement sequence.
func Parse(ctx context.Context, content []byte) ([]ast.Stmt, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, firstSyntaxError(root, content)
	}

	c := &converter{content: content}
	return c.block(root)
}

// ParseString parses Python source held in a string.
func ParseString(code string) ([]ast.Stmt, error) {
	return Parse(context.Background(), []byte(code))
}

// ParseFile reads and parses a Python file.
func ParseFile(ctx context.Context, path string) ([]ast.Stmt, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	stmts, err := Parse(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return stmts, nil
}

// IsSyntaxError reports whether err carries a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}

func firstSyntaxError(node *sitter.Node, content []byte) error {
	if node.Type() == "ERROR" || node.IsMissing() {
		return &SyntaxError{
			Line:   int(node.StartPoint().Row) + 1,
			Column: int(node.StartPoint().Column) + 1,
			Text:   nodeText(node, content),
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil && child.HasError() {
			return firstSyntaxError(child, content)
		}
	}
	return &SyntaxError{
		Line:   int(node.StartPoint().Row) + 1,
		Column: int(node.StartPoint().Column) + 1,
		Text:   nodeText(node, content),
	}
}

// nodeText extracts the text content of a node from the source.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}

func position(node *sitter.Node) ast.Pos {
	return ast.Pos{
		Line:   int(node.StartPoint().Row) + 1,
		Column: int(node.StartPoint().Column) + 1,
	}
}
