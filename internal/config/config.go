// Package config holds the run configuration for tablesift: the input and
// output directories, the keyword rule source and the heuristic thresholds.
// All of it is resolved once at process start; there is no runtime
// reconfiguration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/paleodata/tablesift/internal/classify"
)

const (
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"

	// DefaultDirPerm is used when creating the output directory.
	DefaultDirPerm = 0o750
)

// Config holds all configuration for a tablesift run.
type Config struct {
	// InputDir is the root of the extraction output to index.
	InputDir string
	// OutputDir receives the index files and the run log.
	OutputDir string

	// RulesFile optionally overrides the default keyword rules (JSON).
	RulesFile string
	// WriteXLSX also writes an XLSX workbook next to the CSV index.
	WriteXLSX bool

	// Thresholds configure the real-table heuristic.
	Thresholds classify.Thresholds

	// Application configuration
	Version  string
	LogLevel string
}

// DefaultConfig returns a configuration with sensible defaults. The input
// directory has no default; it must be supplied per run.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:  "output",
		Thresholds: classify.DefaultThresholds(),
		Version:    "1.0.0",
		LogLevel:   DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths so log output names directories unambiguously.
	if cfg.InputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.InputDir); err == nil {
			cfg.InputDir = expandedPath
		}
	}
	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("TABLESIFT")
	viper.AutomaticEnv()

	viper.SetDefault("input", cfg.InputDir)
	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("rules", cfg.RulesFile)
	viper.SetDefault("xlsx", cfg.WriteXLSX)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("min-rows", cfg.Thresholds.MinRows)
	viper.SetDefault("min-cols", cfg.Thresholds.MinCols)
	viper.SetDefault("min-digit-ratio", cfg.Thresholds.MinDigitRatio)
	viper.SetDefault("max-mean-cell-words", cfg.Thresholds.MaxMeanCellWords)
	viper.SetDefault("min-fill-ratio", cfg.Thresholds.MinFillRatio)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("input", cfg.InputDir, "Directory containing the extracted tables (one subdirectory per article)")
	pflag.String("output", cfg.OutputDir, "Directory receiving the index files and the run log")
	pflag.String("rules", cfg.RulesFile, "Optional JSON file with keyword rules replacing the default set")
	pflag.Bool("xlsx", cfg.WriteXLSX, "Also write an XLSX workbook next to the CSV index")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int("min-rows", cfg.Thresholds.MinRows, "Minimum row count for a grid to qualify as a table")
	pflag.Int("min-cols", cfg.Thresholds.MinCols, "Minimum column count for a grid to qualify as a table")
	pflag.Float64("min-digit-ratio", cfg.Thresholds.MinDigitRatio, "Minimum fraction of digit characters")
	pflag.Float64("max-mean-cell-words", cfg.Thresholds.MaxMeanCellWords, "Exclusive upper bound on mean words per cell")
	pflag.Float64("min-fill-ratio", cfg.Thresholds.MinFillRatio, "Minimum fraction of non-empty cells")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"input", "output", "rules", "xlsx", "loglevel",
		"min-rows", "min-cols", "min-digit-ratio", "max-mean-cell-words", "min-fill-ratio",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ntablesift - index and label tables extracted from PDF articles\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input=/data/extraction                # index into ./output\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input=/data/extraction --xlsx         # also write tables.xlsx\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input=/data/extraction --rules=r.json # custom keyword rules\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  TABLESIFT_INPUT       Input directory\n")
		fmt.Fprintf(os.Stderr, "  TABLESIFT_OUTPUT      Output directory\n")
		fmt.Fprintf(os.Stderr, "  TABLESIFT_RULES       Keyword rules file\n")
		fmt.Fprintf(os.Stderr, "  TABLESIFT_LOGLEVEL    Log level\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.InputDir = viper.GetString("input")
	cfg.OutputDir = viper.GetString("output")
	cfg.RulesFile = viper.GetString("rules")
	cfg.WriteXLSX = viper.GetBool("xlsx")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.Thresholds.MinRows = viper.GetInt("min-rows")
	cfg.Thresholds.MinCols = viper.GetInt("min-cols")
	cfg.Thresholds.MinDigitRatio = viper.GetFloat64("min-digit-ratio")
	cfg.Thresholds.MaxMeanCellWords = viper.GetFloat64("max-mean-cell-words")
	cfg.Thresholds.MinFillRatio = viper.GetFloat64("min-fill-ratio")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return errors.New("input directory cannot be empty")
	}
	if info, err := os.Stat(c.InputDir); err != nil {
		return fmt.Errorf("cannot access input directory %s: %w", c.InputDir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", c.InputDir)
	}

	if c.OutputDir == "" {
		return errors.New("output directory cannot be empty")
	}
	// Create the output directory up front so the run log has a home.
	if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.OutputDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create output directory %s: %w", c.OutputDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access output directory %s: %w", c.OutputDir, err)
	}

	if c.RulesFile != "" {
		if _, err := os.Stat(c.RulesFile); err != nil {
			return fmt.Errorf("cannot access rules file %s: %w", c.RulesFile, err)
		}
	}

	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{InputDir: %s, OutputDir: %s, RulesFile: %s, WriteXLSX: %t, LogLevel: %s, Thresholds: %+v}",
		c.InputDir, c.OutputDir, c.RulesFile, c.WriteXLSX, c.LogLevel, c.Thresholds)
}
