package cfg

import (
	"fmt"
	"strings"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// Info summarizes the graph in the JSON-friendly CFGInfo form.
func (g *Graph) Info(functionName string) *CFGInfo {
	blocks := make(map[string]CFGBlock, len(g.nodes))
	for _, n := range g.nodes {
		block := CFGBlock{
			ID:           n.ID,
			Type:         blockType(n),
			Statements:   make([]string, 0),
			Predecessors: make([]string, 0),
		}
		if n.Kind == NodeBlock {
			for _, s := range n.Stmts {
				block.Statements = append(block.Statements, summarize(s))
			}
		} else {
			block.Statements = append(block.Statements, header(n.Branch))
		}
		block.StartLine, block.EndLine = lineRange(n)
		for _, e := range g.Predecessors(n) {
			block.Predecessors = append(block.Predecessors, e.From.ID)
		}
		blocks[n.ID] = block
	}

	edges := make([]CFGEdge, 0, len(g.edges))
	for _, e := range g.edges {
		edges = append(edges, CFGEdge{
			SourceID:  e.From.ID,
			TargetID:  e.To.ID,
			EdgeType:  e.Type,
			Condition: condition(e),
		})
	}

	exits := make([]string, 0, len(g.Out))
	for _, n := range g.Out {
		exits = append(exits, n.ID)
	}

	return &CFGInfo{
		FunctionName:         functionName,
		Blocks:               blocks,
		Edges:                edges,
		EntryBlockID:         g.Entry.ID,
		ExitBlockIDs:         exits,
		CyclomaticComplexity: g.CyclomaticComplexity(),
	}
}

// CyclomaticComplexity calculates the cyclomatic complexity.
// Formula: decision_points + 1
func (g *Graph) CyclomaticComplexity() int {
	decisionPoints := 0
	for _, n := range g.nodes {
		switch s := n.Branch.(type) {
		case *ast.If:
			decisionPoints += 1 + countBoolOps(s.Test)
		case *ast.Loop:
			decisionPoints += 1 + countBoolOps(s.Test)
		}
	}
	return decisionPoints + 1
}

// countBoolOps counts "and"/"or" operators as extra decision points.
func countBoolOps(e ast.Expr) int {
	switch n := e.(type) {
	case *ast.BoolOp:
		return 1 + countBoolOps(n.Left) + countBoolOps(n.Right)
	case *ast.UnaryOp:
		return countBoolOps(n.Operand)
	}
	return 0
}

func blockType(n *Node) BlockType {
	switch n.Kind {
	case NodeIf:
		return BlockTypeBranch
	case NodeLoop:
		return BlockTypeLoopHeader
	}
	if len(n.Stmts) > 0 && ast.IsExit(n.Stmts[len(n.Stmts)-1]) {
		return BlockTypeReturn
	}
	return BlockTypePlain
}

func lineRange(n *Node) (int, int) {
	if n.Kind != NodeBlock {
		line := ast.StmtPos(n.Branch).Line
		return line, line
	}
	if len(n.Stmts) == 0 {
		return 0, 0
	}
	return ast.StmtPos(n.Stmts[0]).Line, ast.StmtPos(n.Stmts[len(n.Stmts)-1]).Line
}

func condition(e Edge) string {
	var test ast.Expr
	switch s := e.From.Branch.(type) {
	case *ast.If:
		test = s.Test
	case *ast.Loop:
		if s.Kind == ast.LoopWhile {
			test = s.Test
		}
	}
	if test == nil {
		return ""
	}
	switch e.Type {
	case EdgeTypeIfTrue, EdgeTypeLoopBody:
		return ast.Format(test)
	case EdgeTypeIfFalse, EdgeTypeLoopExit:
		return "not (" + ast.Format(test) + ")"
	}
	return ""
}

// header renders the first line of a branching statement.
func header(s ast.Stmt) string {
	switch n := s.(type) {
	case *ast.If:
		return "if " + ast.Format(n.Test)
	case *ast.Loop:
		if n.Kind == ast.LoopFor {
			return "for " + ast.Format(n.Target) + " in " + ast.Format(n.Iter)
		}
		return "while " + ast.Format(n.Test)
	}
	return summarize(s)
}

// summarize renders a one-line description of a straight-line statement.
func summarize(s ast.Stmt) string {
	switch n := s.(type) {
	case *ast.ExprStmt:
		return ast.Format(n.Value)
	case *ast.Assign:
		parts := make([]string, 0, len(n.Targets)+1)
		for _, t := range n.Targets {
			parts = append(parts, ast.Format(t))
		}
		parts = append(parts, ast.Format(n.Value))
		return strings.Join(parts, " = ")
	case *ast.AugAssign:
		return fmt.Sprintf("%s %s= %s", ast.Format(n.Target), n.Op, ast.Format(n.Value))
	case *ast.FunctionDef:
		return fmt.Sprintf("def %s(%s)", n.Name, strings.Join(n.Params, ", "))
	case *ast.ClassDef:
		return "class " + n.Name
	case *ast.Break:
		return "break"
	case *ast.Continue:
		return "continue"
	case *ast.Pass:
		return "pass"
	case *ast.Return:
		if n.Value == nil {
			return "return"
		}
		return "return " + ast.Format(n.Value)
	case *ast.Nonlocal:
		return "nonlocal " + strings.Join(n.Names, ", ")
	case *ast.Global:
		return "global " + strings.Join(n.Names, ", ")
	}
	return fmt.Sprintf("%T", s)
}
