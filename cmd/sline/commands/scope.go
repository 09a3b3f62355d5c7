package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-singleline/pkg/scope"
)

// scopeReport lists the names a block binds locally.
type scopeReport struct {
	Scope  string   `json:"scope"`
	Locals []string `json:"locals"`
}

func newScopeCmd(a *app) *cobra.Command {
	var (
		function   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "scope <file>",
		Short: "List the names bound locally by a module or function",
		Long: `Collects every name the top-level statements of a Python file bind, or the body
of one function with --function. Nested functions, classes and lambdas are not
descended into.`,
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

			report := scopeReport{Scope: name, Locals: scope.AnalyzeScope(block).Sorted()}
			a.logger.Debug("collected scope", "scope", name, "locals", len(report.Locals))

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			for _, local := range report.Locals {
				fmt.Fprintln(cmd.OutOrStdout(), local)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&function, "function", "f", "", "Function whose body to analyze")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
