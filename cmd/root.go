package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/basketlens/internal/config"
	"github.com/KaramelBytes/basketlens/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "basketlens",
	Short: "basketlens: market basket analysis for retail transaction files",
	Long: `basketlens mines association rules from headerless transaction tables
(one basket per row, one item per cell) and turns them into product
recommendations, rule tables and word clouds, from the command line or
from a local web dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.basketlens/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log output: console or json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		logging.Init(logging.DefaultConfig())
		return
	}
	cfg = c

	lc := logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if logFormat != "" {
		lc.Format = logFormat
	}
	if debug {
		lc.Level = "debug"
	}
	logging.Init(lc)
	logging.Debug().Str("data_dir", cfg.DataDir).Msg("config loaded")
}

// currentConfig returns the loaded configuration, loading it on first use for callers
// that run outside cobra's initializers (tests).
func currentConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
