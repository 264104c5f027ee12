package heuristic

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bimmerbailey/driftlog/internal/logfile"
)

// Stage is a heuristic registered in a Pipeline under the key it scores.
type Stage struct {
	Key       logfile.HeuristicKey
	Heuristic Heuristic
}

// Pipeline runs heuristics in registration order. Runs are serialized.
type Pipeline struct {
	mu     sync.Mutex
	stages []Stage
	logger *slog.Logger
}

// NewPipeline creates a pipeline running stages in the given order.
func NewPipeline(logger *slog.Logger, stages ...Stage) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{stages: stages, logger: logger}
}

// Default returns the pipeline of the built-in heuristics:
// keyword, distribution, temporal and filler.
func Default(logger *slog.Logger) *Pipeline {
	return NewPipeline(logger,
		Stage{KeyKeyword, NewKeyword(logger)},
		Stage{KeyDistribution, NewDistribution()},
		Stage{KeyTemporal, NewTemporal(logger)},
		Stage{KeyFiller, NewFiller()},
	)
}

// Keys returns the keys of the registered stages, in order.
func (p *Pipeline) Keys() []logfile.HeuristicKey {
	keys := make([]logfile.HeuristicKey, len(p.stages))
	for i, s := range p.stages {
		keys[i] = s.Key
	}
	return keys
}

// Apply clears previous scores from both files, then loads the reference
// into every stage and scores the candidate. A failing stage does not stop
// the stages after it; all failures are returned joined.
func (p *Pipeline) Apply(reference, candidate *logfile.LogFile) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	reference.ClearHeuristics()
	candidate.ClearHeuristics()

	var errs []error
	for _, s := range p.stages {
		start := time.Now()
		if err := p.run(s, reference, candidate); err != nil {
			p.logger.Warn("heuristic failed", "heuristic", s.Key, "error", err)
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrStageFailed, s.Key, err))
			continue
		}
		p.logger.Debug("heuristic applied", "heuristic", s.Key, "elapsed", time.Since(start))
	}
	return errors.Join(errs...)
}

func (p *Pipeline) run(s Stage, reference, candidate *logfile.LogFile) error {
	if err := s.Heuristic.LoadReference(reference); err != nil {
		return fmt.Errorf("loading reference: %w", err)
	}
	if err := s.Heuristic.Score(candidate); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	return nil
}
