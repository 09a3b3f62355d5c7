package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/l3aro/go-singleline/pkg/ast"
	"github.com/l3aro/go-singleline/pkg/parser"
)

// moduleScope names the top-level block of a file in command output.
const moduleScope = "<module>"

// loadFile parses a single Python file.
func loadFile(ctx context.Context, path string) ([]ast.Stmt, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", path)
	}
	return parser.ParseFile(ctx, path)
}

// selectBlock returns the body of the named function, or stmts itself for "".
func selectBlock(stmts []ast.Stmt, function string) ([]ast.Stmt, string, error) {
	if function == "" {
		return stmts, moduleScope, nil
	}
	fn := findFunction(stmts, function)
	if fn == nil {
		return nil, "", fmt.Errorf("function %q not found", function)
	}
	return fn.Body, fn.Name, nil
}

// findFunction returns the first function definition named name, searching
// nested blocks in source order.
func findFunction(stmts []ast.Stmt, name string) *ast.FunctionDef {
	for _, s := range stmts {
		var nested [][]ast.Stmt
		switch n := s.(type) {
		case *ast.FunctionDef:
			if n.Name == name {
				return n
			}
			nested = append(nested, n.Body)
		case *ast.ClassDef:
			nested = append(nested, n.Body)
		case *ast.If:
			nested = append(nested, n.Body, n.Orelse)
		case *ast.Loop:
			nested = append(nested, n.Body)
		}
		for _, body := range nested {
			if fn := findFunction(body, name); fn != nil {
				return fn
			}
		}
	}
	return nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
