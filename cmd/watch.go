package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/bimmerbailey/driftlog/internal/logfile"
	"github.com/bimmerbailey/driftlog/internal/output"
	"github.com/bimmerbailey/driftlog/internal/watch"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] <reference> <candidate>",
	Short: "Re-run a comparison whenever either log changes",
	Long: `Compare a candidate log against a reference log, then keep watching
both files and print a fresh report after every change.

Examples:
  driftlog watch good.log current.log
  driftlog watch --debounce 2s --format table good.log current.log`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("debounce", "250ms", "quiet period after a change before re-running")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	debounceStr, _ := cmd.Flags().GetString("debounce")

	debounce, err := config.ParseDuration(debounceStr)
	if err != nil {
		return fmt.Errorf("invalid --debounce value: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	writer, err := newWriter(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newWatchSession(newRunner(cfg), writer, args[0], args[1])
	if err != nil {
		return err
	}
	if err := s.render(ctx); err != nil {
		return err
	}

	w, err := watch.New(watch.Options{
		Paths:    []string{s.paths[0], s.paths[1]},
		Debounce: debounce,
		Logger:   s.r.logger,
	})
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	for ev := range w.Events() {
		if err := s.handle(ctx, cmd, ev); err != nil {
			stop()
			<-errc
			return err
		}
	}
	return <-errc
}

// watchSession keeps the loaded files between re-runs so only the file
// that changed is read again.
type watchSession struct {
	r      *runner
	writer *output.Writer
	paths  [2]string // absolute reference and candidate paths
	files  [2]*logfile.LogFile
}

func newWatchSession(r *runner, writer *output.Writer, reference, candidate string) (*watchSession, error) {
	s := &watchSession{r: r, writer: writer}
	for i, p := range []string{reference, candidate} {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		s.paths[i] = abs
		if s.files[i], err = r.load(p); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *watchSession) render(ctx context.Context) error {
	opts := reportOptions(s.r.cfg)
	report, err := s.r.compare(ctx, s.files[0], s.files[1], opts)
	if err != nil {
		return err
	}
	return s.writer.WriteReport(report)
}

// handle reloads the changed file and prints a new report. A file that
// cannot be loaded, e.g. while it is being rewritten, only logs a warning.
func (s *watchSession) handle(ctx context.Context, cmd *cobra.Command, ev watch.Event) error {
	for i, p := range s.paths {
		if p != ev.Path {
			continue
		}
		f, err := s.r.load(s.files[i].Name())
		if err != nil {
			s.r.logger.Warn("reload failed, keeping previous contents", "path", p, "error", err)
			return nil
		}
		s.files[i] = f
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n==> %s changed <==\n", ev.Path)
	if err := s.render(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
