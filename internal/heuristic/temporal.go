package heuristic

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/bimmerbailey/driftlog/internal/assignment"
	"github.com/bimmerbailey/driftlog/internal/logfile"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// durationShare is the part of the candidate duration that maps to a
	// time difference score of 1.
	durationShare = 0.5
	// stabilityTerm keeps the cost scale positive for zero length logs.
	stabilityTerm = 1e-4
)

// Temporal aligns lines of the same template across both logs by their
// time since the start of the log. Within every template the lines are
// matched one to one so the total time difference is minimal; a line's
// score is its normalized difference to its partner.
type Temporal struct {
	logger *slog.Logger

	reference *logfile.LogFile
	groups    *orderedmap.OrderedMap[int, []*logfile.LogLine]
	disabled  bool
}

// NewTemporal creates a Temporal heuristic.
func NewTemporal(logger *slog.Logger) *Temporal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Temporal{logger: logger}
}

// LoadReference groups the reference lines by template.
func (t *Temporal) LoadReference(reference *logfile.LogFile) error {
	t.reference, t.groups, t.disabled = nil, nil, false

	if first := reference.Lines()[0]; !first.OriginallyTimestamped() {
		t.logger.Warn("reference starts without a timestamp, temporal heuristic disabled",
			"file", reference.Name())
		t.disabled = true
		return nil
	}

	groups, err := reference.LinesByTemplate()
	if err != nil {
		return err
	}
	t.reference = reference
	t.groups = groups
	return nil
}

// Score matches candidate lines to reference lines of the same template by relative time.
func (t *Temporal) Score(candidate *logfile.LogFile) error {
	if t.disabled {
		return nil
	}
	if t.reference == nil {
		return ErrNoReference
	}

	duration, err := candidate.Duration()
	if err != nil {
		t.logger.Info("candidate has no usable timestamps, skipping temporal heuristic",
			"file", candidate.Name(), "error", err)
		return nil
	}
	scale := durationShare*duration + stabilityTerm

	groups, err := candidate.LinesByTemplate()
	if err != nil {
		return err
	}

	ids := make([]int, 0, groups.Len()+t.groups.Len())
	seen := make(map[int]bool)
	for _, g := range []*orderedmap.OrderedMap[int, []*logfile.LogLine]{groups, t.groups} {
		for p := g.Oldest(); p != nil; p = p.Next() {
			if !seen[p.Key] {
				seen[p.Key] = true
				ids = append(ids, p.Key)
			}
		}
	}

	for _, id := range ids {
		cand, _ := groups.Get(id)
		ref, _ := t.groups.Get(id)
		err := t.alignTemplate(candidate, cand, ref, scale)
		if errors.Is(err, logfile.ErrMissingTimestamp) {
			t.logger.Info("skipping template without timestamps", "template", id, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("template %d: %w", id, err)
		}
	}
	return nil
}

// alignTemplate matches the candidate lines of one template against the
// reference lines of the same template.
func (t *Temporal) alignTemplate(candidate *logfile.LogFile, cand, ref []*logfile.LogLine, scale float64) error {
	n, m := len(cand), len(ref)
	disproportion := math.Abs(float64(n-m)) / float64(n+m+1)

	if n == 0 {
		return nil
	}
	if m == 0 {
		for _, l := range cand {
			if err := l.SetScore(KeyTemporal, disproportion, nil); err != nil {
				return err
			}
		}
		return nil
	}

	candTimes, err := relativeTimes(candidate, cand)
	if err != nil {
		return err
	}
	refTimes, err := relativeTimes(t.reference, ref)
	if err != nil {
		return err
	}

	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, m)
		for j := range cost[i] {
			cost[i][j] = math.Abs(candTimes[i]-refTimes[j]) / scale
		}
	}

	assigned, err := assignment.Solve(assignment.Pad(cost, n, m, 0))
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		j := assigned[i]
		if j >= m {
			if err := cand[i].SetScore(KeyTemporal, disproportion, TemporalMatch{}); err != nil {
				return err
			}
			continue
		}
		score := min(1, max(0, cost[i][j]))
		if err := cand[i].SetScore(KeyTemporal, score, TemporalMatch{Reference: ref[j]}); err != nil {
			return err
		}
	}
	return nil
}

func relativeTimes(f *logfile.LogFile, lines []*logfile.LogLine) ([]float64, error) {
	out := make([]float64, len(lines))
	for i, l := range lines {
		rel, err := f.RelativeTime(l)
		if err != nil {
			return nil, err
		}
		out[i] = rel
	}
	return out, nil
}
