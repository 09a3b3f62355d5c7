package cfg

import (
	"fmt"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// Graph is the CFG of one statement sequence.
type Graph struct {
	Entry *Node
	// Out holds the live out-flowing nodes. It is empty when every path ends in
	// return, break or continue.
	Out []*Node

	nodes []*Node
	edges []Edge
}

// Nodes returns the nodes in creation order.
func (g *Graph) Nodes() []*Node {
	return g.nodes
}

// Edges returns the edges in creation order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Successors returns the edges leaving n.
func (g *Graph) Successors(n *Node) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == n {
			out = append(out, e)
		}
	}
	return out
}

// Predecessors returns the edges entering n.
func (g *Graph) Predecessors(n *Node) []Edge {
	var in []Edge
	for _, e := range g.edges {
		if e.To == n {
			in = append(in, e)
		}
	}
	return in
}

// FallsThrough reports whether control can leave the sequence normally.
func (g *Graph) FallsThrough() bool {
	return len(g.Out) > 0
}

// Reachable returns the IDs of nodes reachable from Entry.
func (g *Graph) Reachable() map[string]bool {
	seen := map[string]bool{g.Entry.ID: true}
	queue := []*Node{g.Entry}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, e := range g.Successors(n) {
			if !seen[e.To.ID] {
				seen[e.To.ID] = true
				queue = append(queue, e.To)
			}
		}
	}
	return seen
}

// Builder accumulates nodes and edges while expanding statement sequences.
type Builder struct {
	graph   *Graph
	blockID int
}

// NewBuilder creates a builder with an empty graph.
func NewBuilder() *Builder {
	return &Builder{graph: &Graph{}}
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph {
	return b.graph
}

// Build adds the CFG of stmts to the builder's graph and returns its entry node and
// live out-flowing nodes. A loop left without a successor exits into a fresh empty
// block, which takes its place in the out-list.
func (b *Builder) Build(stmts []ast.Stmt) (*Node, []*Node, error) {
	entry, out, err := b.analysisPass(stmts)
	if err != nil {
		return nil, nil, err
	}

	live := make([]*Node, 0, len(out))
	for _, n := range out {
		if n.Kind == NodeLoop {
			exit := b.addNode(b.newNode(NodeBlock, nil))
			b.addEdge(n, exit, EdgeTypeLoopExit)
			n = exit
		}
		live = append(live, n)
	}
	return entry, live, nil
}

// Build constructs a fresh CFG for stmts.
func Build(stmts []ast.Stmt) (*Graph, error) {
	b := NewBuilder()
	entry, out, err := b.Build(stmts)
	if err != nil {
		return nil, err
	}

	g := b.graph
	g.Entry = entry
	g.Out = out
	return g, nil
}

// unit is one element of a partitioned sequence: a block or a branching node.
type unit struct {
	block  *Node
	branch ast.Stmt
}

// analysisPass partitions stmts into blocks and branching statements, expands each
// and chains them in source order. Partitioning stops after an exit statement, and
// chaining stops after a unit with no live out-flowing nodes: what follows is
// unreachable and stays out of the graph.
func (b *Builder) analysisPass(stmts []ast.Stmt) (*Node, []*Node, error) {
	var units []unit
	interrupted := false

	var current *Node
	for _, s := range stmts {
		if s == nil {
			return nil, nil, fmt.Errorf("%w: nil statement", ast.ErrMalformed)
		}
		if ast.IsCompound(s) {
			units = append(units, unit{branch: s})
			current = nil
		} else {
			if current == nil {
				current = b.newNode(NodeBlock, nil)
				units = append(units, unit{block: current})
			}
			current.Stmts = append(current.Stmts, s)
		}

		if ast.IsExit(s) {
			interrupted = true
			break
		}
	}

	// Dummy control-flow node.
	if len(units) == 0 {
		node := b.addNode(b.newNode(NodeBlock, nil))
		return node, []*Node{node}, nil
	}

	var first *Node
	var prev []*Node
	for i, u := range units {
		in, out, err := b.expandSingleNode(u)
		if err != nil {
			return nil, nil, err
		}
		if first == nil {
			first = in
		}
		for _, p := range prev {
			b.addFlowEdge(p, in, EdgeTypeUnconditional)
		}
		prev = out

		if len(out) == 0 && i < len(units)-1 {
			interrupted = true
			break
		}
	}

	if interrupted {
		return first, []*Node{}, nil
	}
	return first, prev, nil
}

// expandSingleNode adds the sub-graph of one unit, disconnected from the rest, and
// returns its entry node and out-flowing nodes.
func (b *Builder) expandSingleNode(u unit) (*Node, []*Node, error) {
	if u.block != nil {
		b.addNode(u.block)
		return u.block, []*Node{u.block}, nil
	}

	switch s := u.branch.(type) {
	case *ast.If:
		node := b.addNode(b.newNode(NodeIf, s))
		ifIn, ifOut, err := b.analysisPass(s.Body)
		if err != nil {
			return nil, nil, err
		}
		elseIn, elseOut, err := b.analysisPass(s.Orelse)
		if err != nil {
			return nil, nil, err
		}
		b.addEdge(node, ifIn, EdgeTypeIfTrue)
		b.addEdge(node, elseIn, EdgeTypeIfFalse)

		out := make([]*Node, 0, len(ifOut)+len(elseOut))
		out = append(out, ifOut...)
		out = append(out, elseOut...)
		return node, out, nil

	case *ast.Loop:
		node := b.addNode(b.newNode(NodeLoop, s))
		bodyIn, bodyOut, err := b.analysisPass(s.Body)
		if err != nil {
			return nil, nil, err
		}
		b.addEdge(node, bodyIn, EdgeTypeLoopBody)
		for _, o := range bodyOut {
			b.addFlowEdge(o, node, EdgeTypeBackEdge)
		}
		// Control always returns to the test, which is where the loop exits.
		return node, []*Node{node}, nil
	}

	panic(fmt.Sprintf("cfg: unexpected compound statement %T", u.branch))
}

func (b *Builder) newNode(kind NodeKind, branch ast.Stmt) *Node {
	b.blockID++
	return &Node{
		ID:     fmt.Sprintf("block_%d", b.blockID),
		Kind:   kind,
		Stmts:  make([]ast.Stmt, 0),
		Branch: branch,
	}
}

func (b *Builder) addNode(n *Node) *Node {
	b.graph.nodes = append(b.graph.nodes, n)
	return n
}

func (b *Builder) addEdge(from, to *Node, edgeType EdgeType) {
	b.graph.edges = append(b.graph.edges, Edge{From: from, To: to, Type: edgeType})
}

// addFlowEdge adds an edge leaving a unit's out-node. Control only leaves a loop
// node when its test fails, so such edges are always loop exits.
func (b *Builder) addFlowEdge(from, to *Node, edgeType EdgeType) {
	if from.Kind == NodeLoop {
		edgeType = EdgeTypeLoopExit
	}
	b.addEdge(from, to, edgeType)
}
