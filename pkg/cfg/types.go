// Package cfg builds Control Flow Graphs (CFGs) over statement sequences and defines
// the JSON-shaped summary used to report them.
package cfg

import (
	"github.com/l3aro/go-singleline/pkg/ast"
)

// NodeKind distinguishes straight-line blocks from branching statements.
type NodeKind string

const (
	NodeBlock NodeKind = "block" // Straight-line statements
	NodeIf    NodeKind = "if"    // Conditional branch
	NodeLoop  NodeKind = "loop"  // Loop test (while/for)
)

// BlockType represents the type of a CFG block in a CFGInfo summary.
type BlockType string

const (
	BlockTypeBranch     BlockType = "branch"      // Conditional branch (if/elif/else)
	BlockTypeLoopHeader BlockType = "loop_header" // Loop test (for/while)
	BlockTypeReturn     BlockType = "return"      // Block ending in return/break/continue
	BlockTypePlain      BlockType = "plain"       // Regular statements
)

// EdgeType represents the type of a CFG edge.
type EdgeType string

const (
	EdgeTypeUnconditional EdgeType = "unconditional" // Sequential flow
	EdgeTypeIfTrue        EdgeType = "if_true"       // True branch of conditional
	EdgeTypeIfFalse       EdgeType = "if_false"      // False branch of conditional
	EdgeTypeLoopBody      EdgeType = "loop_body"     // Loop test holds
	EdgeTypeLoopExit      EdgeType = "loop_exit"     // Loop test fails
	EdgeTypeBackEdge      EdgeType = "back_edge"     // Back edge (loop continuation)
)

// Node is a vertex of the graph: a straight-line block or a branching statement.
// Nodes are compared by identity; two empty blocks are distinct nodes.
type Node struct {
	ID     string
	Kind   NodeKind
	Stmts  []ast.Stmt // Statements of a block
	Branch ast.Stmt   // *ast.If or *ast.Loop for branching nodes
}

// IsEmpty reports whether n is a block without statements.
func (n *Node) IsEmpty() bool {
	return n.Kind == NodeBlock && len(n.Stmts) == 0
}

// Edge is a directed, labeled edge between two nodes.
type Edge struct {
	From *Node
	To   *Node
	Type EdgeType
}

// CFGBlock represents a basic block in the Control Flow Graph summary.
type CFGBlock struct {
	ID           string    `json:"id"`           // Unique identifier for the block
	Type         BlockType `json:"type"`         // Type of block (branch, loop_header, return, plain)
	StartLine    int       `json:"start_line"`   // Starting line number in source
	EndLine      int       `json:"end_line"`     // Ending line number in source
	Statements   []string  `json:"statements"`   // List of statements in this block
	Predecessors []string  `json:"predecessors"` // IDs of blocks that can precede this block
}

// CFGEdge represents a directed edge between two CFG blocks.
type CFGEdge struct {
	SourceID  string   `json:"source_id"`           // ID of the source block
	TargetID  string   `json:"target_id"`           // ID of the target block
	EdgeType  EdgeType `json:"edge_type"`           // Type of edge (if_true, loop_exit, etc.)
	Condition string   `json:"condition,omitempty"` // Condition expression for conditional edges
}

// CFGInfo represents the complete Control Flow Graph for a function or module body.
type CFGInfo struct {
	FunctionName         string              `json:"function_name"`         // Name of the function
	Blocks               map[string]CFGBlock `json:"blocks"`                // Map of block ID to block
	Edges                []CFGEdge           `json:"edges"`                 // List of edges in the graph
	EntryBlockID         string              `json:"entry_block_id"`        // ID of the entry block
	ExitBlockIDs         []string            `json:"exit_block_ids"`        // IDs of live out-flowing blocks
	CyclomaticComplexity int                 `json:"cyclomatic_complexity"` // Cyclomatic complexity
}
