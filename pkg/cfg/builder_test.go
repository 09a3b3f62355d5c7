package cfg

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-singleline/pkg/ast"
)

func name(id string) *ast.Name {
	return &ast.Name{ID: id}
}

func assign(id string, raw string) *ast.Assign {
	return &ast.Assign{
		Targets: []ast.Expr{&ast.Name{ID: id, Ctx: ast.Store}},
		Value:   &ast.Literal{Kind: ast.LitInt, Raw: raw},
	}
}

func edgesOfType(g *Graph, t EdgeType) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestBuildStraightLine(t *testing.T) {
	stmts := []ast.Stmt{assign("a", "1"), assign("b", "2"), &ast.ExprStmt{Value: name("a")}}

	g, err := Build(stmts)
	require.NoError(t, err)

	require.Len(t, g.Nodes(), 1)
	assert.Empty(t, g.Edges())
	assert.Equal(t, NodeBlock, g.Entry.Kind)
	assert.Len(t, g.Entry.Stmts, 3)
	assert.Equal(t, []*Node{g.Entry}, g.Out)
	assert.True(t, g.FallsThrough())
}

func TestBuildEmptySequence(t *testing.T) {
	g, err := Build(nil)
	require.NoError(t, err)

	require.Len(t, g.Nodes(), 1)
	assert.True(t, g.Entry.IsEmpty())
	assert.Equal(t, []*Node{g.Entry}, g.Out)
}

func TestBuildReturnTruncates(t *testing.T) {
	stmts := []ast.Stmt{
		assign("a", "1"),
		&ast.Return{Value: name("a")},
		assign("dead", "2"),
		&ast.If{Test: name("c"), Body: []ast.Stmt{&ast.Pass{}}},
	}

	g, err := Build(stmts)
	require.NoError(t, err)

	require.Len(t, g.Nodes(), 1)
	assert.Len(t, g.Entry.Stmts, 2)
	assert.Empty(t, g.Out)
	assert.False(t, g.FallsThrough())
}

func TestBuildIfWithoutElse(t *testing.T) {
	ifStmt := &ast.If{Test: name("c"), Body: []ast.Stmt{assign("a", "1")}}

	g, err := Build([]ast.Stmt{ifStmt})
	require.NoError(t, err)

	assert.Equal(t, NodeIf, g.Entry.Kind)
	assert.Same(t, ifStmt, g.Entry.Branch)

	trueEdges := edgesOfType(g, EdgeTypeIfTrue)
	falseEdges := edgesOfType(g, EdgeTypeIfFalse)
	require.Len(t, trueEdges, 1)
	require.Len(t, falseEdges, 1)
	assert.Len(t, trueEdges[0].To.Stmts, 1)
	assert.True(t, falseEdges[0].To.IsEmpty())

	require.Len(t, g.Out, 2)
	assert.Same(t, trueEdges[0].To, g.Out[0])
	assert.Same(t, falseEdges[0].To, g.Out[1])
}

func TestBuildIfBothBranchesReturn(t *testing.T) {
	ifStmt := &ast.If{
		Test:   name("c"),
		Body:   []ast.Stmt{&ast.Return{Value: name("a")}},
		Orelse: []ast.Stmt{&ast.Return{Value: name("b")}},
	}
	after := assign("dead", "1")

	g, err := Build([]ast.Stmt{ifStmt, after})
	require.NoError(t, err)

	assert.Same(t, ifStmt, g.Entry.Branch)
	assert.Empty(t, g.Out)
	// The statement after the dead end is never added.
	assert.Len(t, g.Nodes(), 3)
	for _, n := range g.Nodes() {
		for _, s := range n.Stmts {
			assert.NotSame(t, after, s)
		}
	}
	for _, e := range g.Edges() {
		assert.Same(t, g.Entry, e.From)
		assert.Equal(t, BlockTypeReturn, blockType(e.To))
	}
}

func TestBuildIfThenStatements(t *testing.T) {
	ifStmt := &ast.If{
		Test:   name("c"),
		Body:   []ast.Stmt{&ast.Return{Value: name("a")}},
		Orelse: []ast.Stmt{assign("b", "1")},
	}

	g, err := Build([]ast.Stmt{assign("a", "0"), ifStmt, assign("d", "2")})
	require.NoError(t, err)

	require.Len(t, g.Out, 1)
	tail := g.Out[0]
	assert.Len(t, tail.Stmts, 1)

	preds := g.Predecessors(tail)
	require.Len(t, preds, 1)
	assert.Equal(t, EdgeTypeUnconditional, preds[0].Type)
	assert.Equal(t, NodeBlock, preds[0].From.Kind)
	assert.Len(t, preds[0].From.Stmts, 1)
}

func TestBuildLoop(t *testing.T) {
	loop := &ast.Loop{
		Kind: ast.LoopWhile,
		Test: &ast.Compare{Left: name("x"), Ops: []string{"<"}, Comparators: []ast.Expr{&ast.Literal{Kind: ast.LitInt, Raw: "3"}}},
		Body: []ast.Stmt{&ast.AugAssign{Target: &ast.Name{ID: "x", Ctx: ast.Store}, Op: "+", Value: &ast.Literal{Kind: ast.LitInt, Raw: "1"}}},
	}

	g, err := Build([]ast.Stmt{assign("x", "0"), loop, assign("y", "1")})
	require.NoError(t, err)

	var loopNode *Node
	for _, n := range g.Nodes() {
		if n.Kind == NodeLoop {
			loopNode = n
		}
	}
	require.NotNil(t, loopNode)

	body := edgesOfType(g, EdgeTypeLoopBody)
	require.Len(t, body, 1)
	assert.Same(t, loopNode, body[0].From)

	back := edgesOfType(g, EdgeTypeBackEdge)
	require.Len(t, back, 1)
	assert.Same(t, body[0].To, back[0].From)
	assert.Same(t, loopNode, back[0].To)

	exit := edgesOfType(g, EdgeTypeLoopExit)
	require.Len(t, exit, 1)
	assert.Same(t, loopNode, exit[0].From)
	assert.Equal(t, g.Out, []*Node{exit[0].To})
}

func TestBuildTrailingLoop(t *testing.T) {
	loop := &ast.Loop{
		Kind:   ast.LoopFor,
		Target: &ast.Name{ID: "i", Ctx: ast.Store},
		Iter:   name("xs"),
		Body:   []ast.Stmt{&ast.Break{}},
	}

	g, err := Build([]ast.Stmt{loop})
	require.NoError(t, err)

	assert.Same(t, loop, g.Entry.Branch)

	// A break ends the body, so no back edge is drawn.
	assert.Empty(t, edgesOfType(g, EdgeTypeBackEdge))
	exit := edgesOfType(g, EdgeTypeLoopExit)
	require.Len(t, exit, 1)
	assert.Same(t, g.Entry, exit[0].From)
	assert.NotSame(t, g.Entry, exit[0].To)
	assert.True(t, exit[0].To.IsEmpty())
	assert.Equal(t, []*Node{exit[0].To}, g.Out)
}

func TestBuilderBuildTrailingLoop(t *testing.T) {
	loop := &ast.Loop{Kind: ast.LoopWhile, Test: name("c"), Body: []ast.Stmt{&ast.Pass{}}}

	b := NewBuilder()
	entry, out, err := b.Build([]ast.Stmt{assign("a", "1"), loop})
	require.NoError(t, err)
	assert.Equal(t, NodeBlock, entry.Kind)

	require.Len(t, out, 1)
	assert.Equal(t, NodeBlock, out[0].Kind)
	preds := b.Graph().Predecessors(out[0])
	require.Len(t, preds, 1)
	assert.Equal(t, EdgeTypeLoopExit, preds[0].Type)
	assert.Same(t, loop, preds[0].From.Branch)
}

func TestBuildNestedLoops(t *testing.T) {
	inner := &ast.Loop{Kind: ast.LoopWhile, Test: name("b"), Body: []ast.Stmt{&ast.Pass{}}}
	outer := &ast.Loop{Kind: ast.LoopWhile, Test: name("a"), Body: []ast.Stmt{inner}}

	g, err := Build([]ast.Stmt{outer, assign("z", "1")})
	require.NoError(t, err)

	var outerNode, innerNode *Node
	for _, n := range g.Nodes() {
		switch n.Branch {
		case outer:
			outerNode = n
		case inner:
			innerNode = n
		}
	}
	require.NotNil(t, outerNode)
	require.NotNil(t, innerNode)

	for _, n := range []*Node{outerNode, innerNode} {
		var exits int
		for _, e := range g.Successors(n) {
			if e.Type == EdgeTypeLoopExit {
				exits++
			}
			assert.NotEqual(t, EdgeTypeBackEdge, e.Type, "%s leaves through a back edge", n.ID)
		}
		assert.Equal(t, 1, exits, "loop %s", n.ID)
	}

	// The inner loop exits back to the outer test.
	innerExit := g.Successors(innerNode)
	require.Len(t, innerExit, 2)
	assert.Equal(t, EdgeTypeLoopBody, innerExit[0].Type)
	assert.Same(t, outerNode, innerExit[1].To)

	back := edgesOfType(g, EdgeTypeBackEdge)
	require.Len(t, back, 1)
	assert.Same(t, innerNode, back[0].To)

	require.Len(t, g.Out, 1)
	assert.Len(t, g.Out[0].Stmts, 1)
}

func TestBuildNestedLoopExitsIntoIf(t *testing.T) {
	inner := &ast.Loop{Kind: ast.LoopWhile, Test: name("c"), Body: []ast.Stmt{&ast.Pass{}}}
	ifStmt := &ast.If{Test: name("d"), Body: []ast.Stmt{inner}}

	g, err := Build([]ast.Stmt{ifStmt, assign("z", "1")})
	require.NoError(t, err)

	exit := edgesOfType(g, EdgeTypeLoopExit)
	require.Len(t, exit, 1)
	assert.Equal(t, NodeLoop, exit[0].From.Kind)
	require.Len(t, g.Out, 1)
	assert.Same(t, g.Out[0], exit[0].To)
}

func TestBuildReachable(t *testing.T) {
	ifStmt := &ast.If{
		Test:   name("c"),
		Body:   []ast.Stmt{assign("a", "1")},
		Orelse: []ast.Stmt{assign("b", "1")},
	}
	g, err := Build([]ast.Stmt{ifStmt, assign("c", "1")})
	require.NoError(t, err)

	reachable := g.Reachable()
	for _, n := range g.Nodes() {
		assert.True(t, reachable[n.ID], n.ID)
	}
}

func TestBuildUniqueIDs(t *testing.T) {
	stmts := []ast.Stmt{
		&ast.If{Test: name("a"), Body: []ast.Stmt{&ast.Pass{}}},
		&ast.If{Test: name("b"), Body: []ast.Stmt{&ast.Pass{}}},
	}
	g, err := Build(stmts)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
	// Two if nodes, each with a body block and an empty else block.
	assert.Len(t, g.Nodes(), 6)
}

func TestBuildNilStatement(t *testing.T) {
	_, err := Build([]ast.Stmt{nil})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ast.ErrMalformed))
}

func TestInfo(t *testing.T) {
	test := &ast.BoolOp{Op: "and", Left: name("a"), Right: name("b")}
	ifStmt := &ast.If{
		Pos:  ast.Pos{Line: 2},
		Test: test,
		Body: []ast.Stmt{&ast.Return{Pos: ast.Pos{Line: 3}, Value: name("a")}},
	}
	loop := &ast.Loop{
		Pos:  ast.Pos{Line: 4},
		Kind: ast.LoopWhile,
		Test: name("c"),
		Body: []ast.Stmt{&ast.Pass{Pos: ast.Pos{Line: 5}}},
	}
	stmts := []ast.Stmt{&ast.Assign{
		Pos:     ast.Pos{Line: 1},
		Targets: []ast.Expr{&ast.Name{ID: "a", Ctx: ast.Store}},
		Value:   &ast.Literal{Kind: ast.LitInt, Raw: "1"},
	}, ifStmt, loop}

	g, err := Build(stmts)
	require.NoError(t, err)
	info := g.Info("main")

	assert.Equal(t, "main", info.FunctionName)
	assert.Equal(t, 4, info.CyclomaticComplexity)
	assert.Equal(t, g.Entry.ID, info.EntryBlockID)
	assert.Len(t, info.Blocks, len(g.Nodes()))
	assert.Len(t, info.Edges, len(g.Edges()))

	entry := info.Blocks[info.EntryBlockID]
	assert.Equal(t, BlockTypePlain, entry.Type)
	assert.Equal(t, []string{"a = 1"}, entry.Statements)
	assert.Equal(t, 1, entry.StartLine)

	var sawTrue, sawFalse bool
	for _, e := range info.Edges {
		switch e.EdgeType {
		case EdgeTypeIfTrue:
			sawTrue = true
			assert.Equal(t, "a and b", e.Condition)
		case EdgeTypeIfFalse:
			sawFalse = true
			assert.Equal(t, "not (a and b)", e.Condition)
		case EdgeTypeLoopBody:
			assert.Equal(t, "c", e.Condition)
		}
	}
	assert.True(t, sawTrue)
	assert.True(t, sawFalse)

	types := make(map[BlockType]int)
	for _, b := range info.Blocks {
		types[b.Type]++
	}
	assert.Equal(t, 1, types[BlockTypeBranch])
	assert.Equal(t, 1, types[BlockTypeLoopHeader])
	assert.Equal(t, 1, types[BlockTypeReturn])
	require.Len(t, info.ExitBlockIDs, 1)
	exit := info.Blocks[info.ExitBlockIDs[0]]
	assert.Equal(t, BlockTypePlain, exit.Type)
	require.Len(t, exit.Predecessors, 1)
	assert.Equal(t, BlockTypeLoopHeader, info.Blocks[exit.Predecessors[0]].Type)
}
