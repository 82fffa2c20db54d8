package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/wrangle-cli/internal/config"
	"github.com/KaramelBytes/wrangle-cli/internal/logging"
	"github.com/KaramelBytes/wrangle-cli/internal/session"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile          string
	debug            bool
	flagLogLevel     string
	flagLogFormat    string
	flagHistoryLimit int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "wrangle",
	Short: "Wrangle CLI: clean tabular data with undo, redo and an action log",
	Long: `Wrangle loads CSV, TSV and Excel files into an editing session where rows can be
deduplicated, missing values dropped or filled, and rows filtered. Every change can be
undone and redone, failed edits leave the data untouched, and each action is logged.
Use the interactive shell, or apply recipes to one or many files from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", session.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.wrangle/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHistoryLimit, "history-limit", -1, "max undo steps, 0 = unlimited (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = defaultConfig()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("history-limit") && flagHistoryLimit >= 0 {
		cfg.HistoryLimit = flagHistoryLimit
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
}

// currentConfig returns the loaded configuration, loading it on first use.
func currentConfig() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func defaultConfig() *cfgpkg.Global {
	return &cfgpkg.Global{
		HistoryLimit:     session.DefaultHistoryLimit,
		LogLevel:         "warn",
		LogFormat:        "text",
		DecimalSeparator: ".",
		SheetIndex:       1,
		PreviewRows:      10,
		HistogramBins:    30,
		BarTop:           20,
	}
}
