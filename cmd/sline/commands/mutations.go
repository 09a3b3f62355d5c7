package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-singleline/pkg/ast"
	"github.com/l3aro/go-singleline/pkg/scope"
)

// mutationReport is the annotation of one loop or function.
type mutationReport struct {
	Kind    string   `json:"kind"`
	Header  string   `json:"header"`
	Line    int      `json:"line"`
	Mutated []string `json:"mutated"`
}

func newMutationsCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "mutations <file>",
		Short: "Show the names each loop and function rebinds",
		Long: `Runs the mutation analyzer over a Python file and reports, in source order, the
names every loop and function assigns that belong to an enclosing scope (loops) or
to its own frame (functions).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stmts, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := scope.AnalyzeBlock(stmts); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			reports := collectMutations(stmts, nil)
			a.logger.Debug("analyzed mutations", "file", args[0], "annotated", len(reports))

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			for _, r := range reports {
				fmt.Fprintf(cmd.OutOrStdout(), "line %d: %s: {%s}\n", r.Line, r.Header, strings.Join(r.Mutated, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// collectMutations walks stmts in source order and appends one report per
// annotated loop or function.
func collectMutations(stmts []ast.Stmt, reports []mutationReport) []mutationReport {
	if reports == nil {
		reports = make([]mutationReport, 0)
	}
	for _, s := range stmts {
		switch n := s.(type) {
		case *ast.Loop:
			header := "while " + ast.Format(n.Test)
			if n.Kind == ast.LoopFor {
				header = "for " + ast.Format(n.Target) + " in " + ast.Format(n.Iter)
			}
			reports = append(reports, mutationReport{
				Kind:    string(n.Kind),
				Header:  header,
				Line:    n.Pos.Line,
				Mutated: n.Mutated.Sorted(),
			})
			reports = collectMutations(n.Body, reports)
		case *ast.FunctionDef:
			reports = append(reports, mutationReport{
				Kind:    "function",
				Header:  fmt.Sprintf("def %s(%s)", n.Name, strings.Join(n.Params, ", ")),
				Line:    n.Pos.Line,
				Mutated: n.Mutated.Sorted(),
			})
			reports = collectMutations(n.Body, reports)
		case *ast.If:
			reports = collectMutations(n.Body, reports)
			reports = collectMutations(n.Orelse, reports)
		case *ast.ClassDef:
			reports = collectMutations(n.Body, reports)
		}
	}
	return reports
}
