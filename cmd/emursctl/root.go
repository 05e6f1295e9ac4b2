package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/emurs/internal/bootcfg"
	"github.com/joshuapare/emurs/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
	preset     string
)

var rootCmd = &cobra.Command{
	Use:   "emursctl",
	Short: "Inspect and exercise the emurs kernel heap allocator",
	Long: `emursctl boots the emurs heap allocator on the host from a memory map
(a YAML file or a built-in preset) and lets you inspect the memory table,
query free ranges, and replay allocation scripts.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "Memory map YAML file (default: $EMURS_CONFIG_FILE)")
	rootCmd.PersistentFlags().
		StringVar(&preset, "preset", "", "Built-in memory map when no config file is given: gba or desktop")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging discards logs unless --verbose is set. Verbose runs log to
// stderr at info until the memory map's log_level is known.
func initLogging() error {
	if !verbose {
		return logger.Init(logger.Options{Enabled: false})
	}
	return logger.Init(logger.Options{Enabled: true, Writer: os.Stderr, Level: slog.LevelInfo})
}

// applyLogLevel re-initialises verbose logging at the level cfg asks for.
func applyLogLevel(cfg *bootcfg.Config) error {
	if !verbose {
		return nil
	}
	opts, err := cfg.LoggerOptions(os.Stderr)
	if err != nil {
		return err
	}
	return logger.Init(opts)
}

// loadConfig resolves the memory map from --config, $EMURS_CONFIG_FILE or
// --preset and applies its log level.
func loadConfig() (*bootcfg.Config, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	if err := applyLogLevel(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfig() (*bootcfg.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("EMURS_CONFIG_FILE")
	}
	if path != "" {
		printVerbose("Loading memory map: %s\n", path)
		return bootcfg.Load(path)
	}

	name := preset
	if name == "" {
		name = "gba"
	}
	var cfg *bootcfg.Config
	switch name {
	case "gba":
		cfg = bootcfg.GBA()
	case "desktop":
		cfg = bootcfg.Desktop(0x10000, 1000)
	default:
		return nil, fmt.Errorf("unknown preset %q (want gba or desktop)", preset)
	}
	printVerbose("Using %s preset\n", name)
	if err := cfg.Override(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
