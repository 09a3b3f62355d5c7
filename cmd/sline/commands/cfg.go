package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-singleline/pkg/cfg"
)

func newCFGCmd(a *app) *cobra.Command {
	var (
		function   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "cfg <file>",
		Short: "Extract the control flow graph of a module or function",
		Long: `Builds the control flow graph for the top-level statements of a Python file, or
for the body of one function with --function. Outputs blocks, edges and cyclomatic
complexity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmts, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			block, name, err := selectBlock(stmts, function)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			g, err := cfg.Build(block)
			if err != nil {
				return fmt.Errorf("building CFG: %w", err)
			}
			info := g.Info(name)
			a.logger.Debug("built CFG", "scope", name, "blocks", len(info.Blocks), "edges", len(info.Edges))

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			printCFGInfo(cmd.OutOrStdout(), info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&function, "function", "f", "", "Function whose body to analyze")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// printCFGInfo prints CFG information in human-readable format.
func printCFGInfo(w io.Writer, info *cfg.CFGInfo) {
	fmt.Fprintf(w, "=== CFG for: %s ===\n", info.FunctionName)
	fmt.Fprintf(w, "Cyclomatic Complexity: %d\n", info.CyclomaticComplexity)
	fmt.Fprintf(w, "Entry Block: %s\n", info.EntryBlockID)
	fmt.Fprintf(w, "Exit Blocks: %v\n", info.ExitBlockIDs)

	ids := make([]string, 0, len(info.Blocks))
	for id := range info.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})

	fmt.Fprintf(w, "\nBlocks (%d):\n", len(info.Blocks))
	for _, id := range ids {
		block := info.Blocks[id]
		fmt.Fprintf(w, "  %s (%s, lines %d-%d)\n", id, block.Type, block.StartLine, block.EndLine)
		for _, stmt := range block.Statements {
			fmt.Fprintf(w, "    %s\n", stmt)
		}
	}

	fmt.Fprintf(w, "\nEdges (%d):\n", len(info.Edges))
	for _, edge := range info.Edges {
		fmt.Fprintf(w, "  %s --%s--> %s\n", edge.SourceID, edge.EdgeType, edge.TargetID)
	}
}
