package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-singleline/internal/config"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		useDefaults bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize sline configuration interactively",
		Long: `Guides you through setting up sline configuration step by step.
Creates a config file with the generated name prefixes, the undefined value and
cache settings. --defaults writes the default project configuration without
prompting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if useDefaults {
				return writeConfig(cmd.OutOrStdout(), config.DefaultConfig(), config.ProjectConfigFilePath(), force)
			}
			return runInit(cmd.OutOrStdout(), a.cfg, force)
		},
	}

	cmd.Flags().BoolVar(&useDefaults, "defaults", false, "Write the default project config without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func runInit(w io.Writer, current *config.Config, force bool) error {
	cfg := *current

	// === SECTION 1: Generated names ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Store prefix").
				Description("Prefix of the parameters that carry loop state").
				Placeholder(cfg.StorePrefix).
				Value(&cfg.StorePrefix).
				Validate(nonEmpty),
			huh.NewInput().
				Title("Loop prefix").
				Description("Prefix of the names bound to rewritten loop closures").
				Placeholder(cfg.LoopPrefix).
				Value(&cfg.LoopPrefix).
				Validate(nonEmpty),
			huh.NewInput().
				Title("Undefined value").
				Description("Python literal bound to names first assigned inside a loop").
				Placeholder(cfg.UndefinedValue).
				Value(&cfg.UndefinedValue).
				Validate(nonEmpty),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Output and cache ===
	limit := strconv.Itoa(cfg.RecursionLimit)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Recursion limit").
				Description("Raise sys.setrecursionlimit in the output (0 keeps the interpreter default)").
				Value(&limit).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n < 0 {
						return fmt.Errorf("enter a non-negative number")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Cache transpile results?").
				Affirmative("Yes").
				Negative("No").
				Value(&cfg.CacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.RecursionLimit, _ = strconv.Atoi(limit)

	// === SECTION 3: Config Location ===
	var location string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Project (./.sline/config.yaml)", "project"),
					huh.NewOption("Global (~/.sline/config.yaml)", "global"),
				).
				Value(&location),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if location == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !force {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
		force = true
	}

	return writeConfig(w, &cfg, configPath, force)
}

// writeConfig validates cfg, saves it to path and prints a preview.
func writeConfig(w io.Writer, cfg *config.Config, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	// Validate config before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Fprintln(w, "=== Configuration Preview ===")
	fmt.Fprintf(w, "Config path: %s\n", path)
	fmt.Fprintf(w, "Store prefix: %s\n", cfg.StorePrefix)
	fmt.Fprintf(w, "Loop prefix: %s\n", cfg.LoopPrefix)
	fmt.Fprintf(w, "Undefined value: %s\n", cfg.UndefinedValue)
	fmt.Fprintf(w, "Recursion limit: %d\n", cfg.RecursionLimit)
	fmt.Fprintf(w, "Cache: %t (%s)\n", cfg.CacheEnabled, cfg.CacheDir)
	fmt.Fprintln(w, "=============================")

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Fprintf(w, "Configuration saved to: %s\n", path)
	return nil
}

func nonEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("value must not be empty")
	}
	return nil
}
