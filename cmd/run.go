package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bimmerbailey/driftlog/internal/analyzer"
	"github.com/bimmerbailey/driftlog/internal/config"
	"github.com/bimmerbailey/driftlog/internal/heuristic"
	"github.com/bimmerbailey/driftlog/internal/logfile"
	"github.com/bimmerbailey/driftlog/internal/output"
	"github.com/bimmerbailey/driftlog/internal/templating"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// runner loads, annotates and scores log files for the compare, watch and
// explain commands.
type runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	fs      afero.Fs
	timeout time.Duration // 0 = no limit on scoring
}

func newRunner(cfg *config.Config) *runner {
	return &runner{cfg: cfg, logger: newLogger(cfg), fs: afero.NewOsFs()}
}

func (r *runner) load(path string) (*logfile.LogFile, error) {
	return logfile.Load(r.fs, path,
		logfile.WithWorkers(r.cfg.Workers),
		logfile.WithLayouts(r.cfg.TimestampFormats),
		logfile.WithLogger(r.logger),
	)
}

// masking returns the configured masking instructions, plus the built-ins
// that match enough reference lines when auto masking is on.
func (r *runner) masking(reference *logfile.LogFile) ([]templating.MaskingInstruction, error) {
	instructions, err := templating.MaskingByName(r.cfg.Drain.Masking)
	if err != nil {
		return nil, err
	}
	if !r.cfg.Drain.AutoMask {
		return instructions, nil
	}

	have := make(map[string]bool, len(instructions))
	for _, m := range instructions {
		have[m.Name] = true
	}
	for _, m := range templating.FindMaskingInstructions(reference, templating.DefaultMinMaskedLines) {
		if have[m.Name] {
			continue
		}
		r.logger.Info("auto masking enabled", "name", m.Name, "file", reference.Name())
		instructions = append(instructions, m)
	}
	return instructions, nil
}

// annotate learns templates from all files in one session and assigns
// them. The first file drives auto masking.
func (r *runner) annotate(files ...*logfile.LogFile) (*templating.Session, error) {
	instructions, err := r.masking(files[0])
	if err != nil {
		return nil, err
	}

	s := templating.NewSession(templating.DrainConfig{
		Depth:        r.cfg.Drain.Depth,
		SimThreshold: r.cfg.Drain.SimThreshold,
		MaxChildren:  r.cfg.Drain.MaxChildren,
	}, templating.WithMasking(instructions...), templating.WithLogger(r.logger))

	s.Learn(files...)
	for _, f := range files {
		s.Annotate(f)
	}
	r.logger.Debug("templates learned", "count", len(s.Templates()))
	return s, nil
}

// compare annotates and scores one reference/candidate pair and builds its
// report. Heuristic stage failures end up in Report.Errors; only
// cancellation and structural problems are returned as errors.
func (r *runner) compare(ctx context.Context, reference, candidate *logfile.LogFile, opts analyzer.Options) (*analyzer.Report, error) {
	if _, err := r.annotate(reference, candidate); err != nil {
		return nil, err
	}

	p := heuristic.Default(r.logger)
	stageErr, err := r.apply(ctx, p, reference, candidate)
	if err != nil {
		return nil, err
	}

	opts.Keys = p.Keys()
	report, err := analyzer.Build(reference, candidate, opts)
	if err != nil {
		return nil, err
	}
	report.Errors = errorStrings(stageErr)
	return report, nil
}

// apply runs the pipeline, giving up when ctx is done or the runner
// timeout passes. The first result is the pipeline's own error.
func (r *runner) apply(ctx context.Context, p *heuristic.Pipeline, reference, candidate *logfile.LogFile) (stageErr, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- p.Apply(reference, candidate) }()

	select {
	case err := <-done:
		return err, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("scoring %s: %w", candidate.Name(), ctx.Err())
	}
}

// errorStrings flattens a joined error into its messages.
func errorStrings(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

func reportOptions(cfg *config.Config) analyzer.Options {
	return analyzer.Options{MinScore: cfg.Display.MinScore, Top: cfg.Display.Top}
}

// newWriter builds the output writer for cmd from the configured format and
// the --color flag.
func newWriter(cmd *cobra.Command, cfg *config.Config) (*output.Writer, error) {
	flag, _ := cmd.Flags().GetString("color")
	mode, err := output.ParseColorMode(flag)
	if err != nil {
		return nil, err
	}
	return output.New(cmd.OutOrStdout(), output.ParseFormat(cfg.Format), mode), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
