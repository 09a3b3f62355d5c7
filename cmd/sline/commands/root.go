// Package commands provides the CLI commands for the sline tool.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-singleline/internal/config"
	"github.com/l3aro/go-singleline/internal/log"
)

// app holds the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	logJSON    bool

	cfg    *config.Config
	logger log.Logger
}

// NewRootCmd builds the sline command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sline",
		Short: "singleline - Rewrite Python programs as a single expression",
		Long: `singleline rewrites imperative Python into one composed expression.

Commands:
  transpile   Rewrite a file or every file of a directory
  cfg         Show the control flow graph of a module or function
  scope       List the names a block binds locally
  mutations   Show the names each loop and function rebinds
  init        Create a configuration file interactively

Use "sline [command] --help" for more information about a command.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("sline version {{.Version}}\n")

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default: ~/.sline/config.yaml, then ./.sline/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Log as JSON lines")

	root.AddCommand(newTranspileCmd(a))
	root.AddCommand(newCFGCmd(a))
	root.AddCommand(newScopeCmd(a))
	root.AddCommand(newMutationsCmd(a))
	root.AddCommand(newInitCmd(a))

	return root
}

// Execute runs the sline command tree.
func Execute(version string) error {
	return NewRootCmd(version).Execute()
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON = a.logJSON
	}

	level := log.InfoLevel
	if cfg.Verbose {
		level = log.DebugLevel
	}
	a.cfg = cfg
	a.logger = log.New(log.LoggerConfig{
		Level:      level,
		JSONOutput: cfg.LogJSON,
		Stderr:     cmd.ErrOrStderr(),
	})
	a.logger.Debug("config loaded", "store_prefix", cfg.StorePrefix, "loop_prefix", cfg.LoopPrefix, "cache", cfg.CacheEnabled)

	return nil
}
