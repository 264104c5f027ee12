package cmd

import (
	"fmt"
	"time"

	"github.com/bimmerbailey/driftlog/internal/analyzer"
	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var compareCmd = &cobra.Command{
	Use:   "compare [flags] <reference> <candidate>...",
	Short: "Score candidate log lines against a reference log",
	Long: `Compare one or more candidate logs against a reference log and report
the candidate lines that are least expected given the reference.

Every candidate is compared on its own; candidates may be glob patterns,
including "**" for recursive matches.

Examples:
  driftlog compare good.log bad.log
  driftlog compare --top 5 --min-score 0.7 good.log bad.log
  driftlog compare --format json good.log 'ci/**/test-*.log'
  driftlog compare --all --format table good.log bad.log`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().Int("top", 20, "number of lines to report (0 = all flagged lines)")
	compareCmd.Flags().Float64("min-score", 0.5, "importance from which a line is flagged")
	compareCmd.Flags().Bool("all", false, "report every candidate line in file order")
	compareCmd.Flags().Bool("diff", false, "include the per-line diff entries")
	compareCmd.Flags().String("timeout", "", "give up scoring after this long (e.g., 30s, 5m)")
	compareCmd.Flags().Int("workers", 0, "timestamp extraction workers (0 = GOMAXPROCS)")
	compareCmd.Flags().Bool("auto-mask", false, "mask addresses, paths and ids that occur often in the reference")

	_ = viper.BindPFlag("display.top", compareCmd.Flags().Lookup("top"))
	_ = viper.BindPFlag("display.min_score", compareCmd.Flags().Lookup("min-score"))
	_ = viper.BindPFlag("workers", compareCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("drain.auto_mask", compareCmd.Flags().Lookup("auto-mask"))

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	diff, _ := cmd.Flags().GetBool("diff")
	timeoutStr, _ := cmd.Flags().GetString("timeout")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var timeout time.Duration
	if timeoutStr != "" {
		timeout, err = config.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid --timeout value: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive")
		}
	}

	candidates, err := config.ExpandGlobs(args[1:])
	if err != nil {
		return err
	}

	writer, err := newWriter(cmd, cfg)
	if err != nil {
		return err
	}

	r := newRunner(cfg)
	r.timeout = timeout

	reference, err := r.load(args[0])
	if err != nil {
		return err
	}

	opts := reportOptions(cfg)
	opts.All = all
	opts.DiffEntries = diff

	ctx := commandContext(cmd)
	var reports []*analyzer.Report
	for _, path := range candidates {
		candidate, err := r.load(path)
		if err != nil {
			return err
		}
		report, err := r.compare(ctx, reference, candidate, opts)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	if len(reports) == 1 {
		return writer.WriteReport(reports[0])
	}
	return writer.WriteReports(reports)
}
