package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-singleline/pkg/transform"
)

// identifierPattern matches the Python identifiers and identifier prefixes the
// rewriter is allowed to generate.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config holds all configuration for singleline
type Config struct {
	// Names introduced by the loop rewriter
	StorePrefix string `yaml:"store_prefix" env:"SLINE_STORE_PREFIX"`
	LoopPrefix  string `yaml:"loop_prefix" env:"SLINE_LOOP_PREFIX"`

	// UndefinedValue is the literal bound to store variables first assigned inside a loop
	UndefinedValue string `yaml:"undefined_value" env:"SLINE_UNDEFINED_VALUE"`

	// RecursionLimit, when positive, raises the interpreter's recursion limit in the output
	RecursionLimit int `yaml:"recursion_limit" env:"SLINE_RECURSION_LIMIT"`

	// Result cache settings
	CacheEnabled    bool   `yaml:"cache_enabled" env:"SLINE_CACHE_ENABLED"`
	CacheDir        string `yaml:"cache_dir" env:"SLINE_CACHE_DIR"`
	CacheMaxEntries int    `yaml:"cache_max_entries" env:"SLINE_CACHE_MAX_ENTRIES"`

	// Logging
	Verbose bool `yaml:"verbose" env:"SLINE_VERBOSE"`
	LogJSON bool `yaml:"log_json" env:"SLINE_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		StorePrefix:     transform.DefaultStorePrefix,
		LoopPrefix:      transform.DefaultLoopPrefix,
		UndefinedValue:  transform.DefaultUndefined,
		RecursionLimit:  0,
		CacheEnabled:    true,
		CacheDir:        defaultCacheDir(),
		CacheMaxEntries: 1000,
		Verbose:         false,
		LogJSON:         false,
	}
}

// defaultCacheDir returns ~/.sline/cache, or a project-relative fallback.
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sline", "cache")
	}
	return filepath.Join(home, ".sline", "cache")
}

// GlobalConfigFilePath returns the global config file path (~/.sline/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sline/config.yaml"
	}
	return filepath.Join(home, ".sline", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.sline/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".sline", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.sline/config.yaml)
// 3. Global config (~/.sline/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// 1. Load global config (~/.sline/config.yaml)
	if err := mergeFile(cfg, GlobalConfigFilePath()); err != nil {
		return nil, err
	}

	// 2. Load project-level config (./.sline/config.yaml) - overrides global
	if err := mergeFile(cfg, ProjectConfigFilePath()); err != nil {
		return nil, err
	}

	// 3. Override with environment variables
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeFile unmarshals path over cfg. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SLINE_STORE_PREFIX"); v != "" {
		cfg.StorePrefix = v
	}
	if v := os.Getenv("SLINE_LOOP_PREFIX"); v != "" {
		cfg.LoopPrefix = v
	}
	if v := os.Getenv("SLINE_UNDEFINED_VALUE"); v != "" {
		cfg.UndefinedValue = v
	}
	if v := os.Getenv("SLINE_RECURSION_LIMIT"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.RecursionLimit = i
		}
	}
	if v := os.Getenv("SLINE_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("SLINE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("SLINE_CACHE_MAX_ENTRIES"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheMaxEntries = i
		}
	}
	if v := os.Getenv("SLINE_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("SLINE_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if !identifierPattern.MatchString(c.StorePrefix) {
		return fmt.Errorf("store_prefix must be a valid identifier prefix, got %q", c.StorePrefix)
	}
	if !identifierPattern.MatchString(c.LoopPrefix) {
		return fmt.Errorf("loop_prefix must be a valid identifier prefix, got %q", c.LoopPrefix)
	}
	if c.StorePrefix == c.LoopPrefix {
		return fmt.Errorf("store_prefix and loop_prefix must differ")
	}
	if c.UndefinedValue == "" {
		return fmt.Errorf("undefined_value must not be empty")
	}
	if c.RecursionLimit < 0 {
		return fmt.Errorf("recursion_limit must be non-negative")
	}
	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache_max_entries must be positive")
	}
	if c.CacheEnabled && c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required when cache_enabled is true")
	}

	return nil
}

// TransformOptions returns the rewriter options described by the configuration.
func (c *Config) TransformOptions() transform.Options {
	return transform.Options{
		StorePrefix:    c.StorePrefix,
		LoopPrefix:     c.LoopPrefix,
		Undefined:      c.UndefinedValue,
		RecursionLimit: c.RecursionLimit,
	}
}

// CacheFile returns the path of the persisted result cache.
func (c *Config) CacheFile() string {
	return filepath.Join(c.CacheDir, "transpile.msgpack")
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}

func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}
