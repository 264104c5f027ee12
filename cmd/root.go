package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/bimmerbailey/driftlog/internal/logging"
	"github.com/bimmerbailey/driftlog/internal/timestamp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "driftlog",
	Short: "Find what changed between two runs by comparing their logs",
	Long: `Driftlog compares a candidate log against a reference log from a run
that behaved correctly, and scores every candidate line by how unexpected it is.

Lines are grouped into templates, then scored by four heuristics: error
keywords, template frequency, timing relative to matching reference lines,
and reference lines the candidate never produced.

Examples:
  driftlog compare good.log bad.log
  driftlog compare --top 10 --format table good.log 'runs/**/*.log'
  driftlog templates good.log bad.log
  driftlog watch good.log current.log
  driftlog explain good.log bad.log`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.driftlog.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("log-level", "warn", "diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize text output (auto, always, never)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".driftlog")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DRIFTLOG")
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper(), timestamp.DefaultLayouts)

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// loadConfig decodes the current viper state.
func loadConfig() (*config.Config, error) {
	return config.FromViper(viper.GetViper())
}

// newLogger builds the diagnostic logger, always on stderr so that report
// output stays machine readable.
func newLogger(cfg *config.Config) *slog.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return logging.Init(os.Stderr, level, false)
}
