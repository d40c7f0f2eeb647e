package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/spf13/cobra"

	"github.com/guangl/dm-parser-sqllog/internal/config"
	"github.com/guangl/dm-parser-sqllog/internal/logging"
)

var (
	cfgFile   string
	outputFmt string
	verbose   bool
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "dmsqllog",
	Short: "dmsqllog — DM SQL activity log parser",
	Long: `dmsqllog recovers structured records from DM database SQL activity
log dumps. Records are not cleanly delimited: the parser re-discovers
boundaries from timestamp anchors, keeps multi-line SQL intact, and
preserves any leading corrupt content as error lines instead of
discarding it.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.toml", "TOML config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
}

// loadConfig reads the config file and wires the global logger.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	logging.Init(cfg.Logging)
	zap.L().Debug("configuration loaded",
		zap.String("file", cfgFile),
		zap.String("log_level", cfg.Logging.Level),
		zap.Int("batch_size", cfg.Sqllog.BatchSize),
		zap.Int("thread_num", cfg.Sqllog.ThreadNum))
	return cfg, nil
}
