package heuristic

import (
	"log/slog"
	"strings"

	"github.com/bimmerbailey/driftlog/internal/logfile"
	"golang.org/x/text/cases"
)

// Severity pairs a keyword with the score it gives a line.
type Severity struct {
	Keyword string
	Weight  float64
}

// DefaultSeverities is the keyword table used by NewKeyword.
var DefaultSeverities = []Severity{
	{"error", 1.0},
	{"exception", 0.9},
	{"traceback", 0.9},
	{"warning", 0.8},
	{"warn", 0.8},
}

// Keyword raises the score of candidate lines containing a severity keyword
// that never appears in the reference. Matching is case-insensitive.
type Keyword struct {
	severities []Severity
	logger     *slog.Logger

	// absent holds the keywords the reference does not contain.
	absent []Severity
	loaded bool
}

// NewKeyword creates a Keyword heuristic using DefaultSeverities.
func NewKeyword(logger *slog.Logger) *Keyword {
	return NewKeywordWith(DefaultSeverities, logger)
}

// NewKeywordWith creates a Keyword heuristic with a custom table.
func NewKeywordWith(severities []Severity, logger *slog.Logger) *Keyword {
	if logger == nil {
		logger = slog.Default()
	}
	folder := cases.Fold()
	table := make([]Severity, len(severities))
	for i, s := range severities {
		table[i] = Severity{Keyword: folder.String(s.Keyword), Weight: s.Weight}
	}
	return &Keyword{severities: table, logger: logger}
}

// LoadReference records which severity keywords the reference never mentions.
func (k *Keyword) LoadReference(reference *logfile.LogFile) error {
	folder := cases.Fold()
	found := make([]bool, len(k.severities))
	for _, l := range reference.Lines() {
		content := folder.String(l.Content())
		for i, s := range k.severities {
			if !found[i] && strings.Contains(content, s.Keyword) {
				found[i] = true
			}
		}
	}

	k.absent = k.absent[:0]
	for i, s := range k.severities {
		if !found[i] {
			k.absent = append(k.absent, s)
		}
	}
	k.loaded = true
	return nil
}

// Score marks candidate lines that contain a keyword absent from the reference.
func (k *Keyword) Score(candidate *logfile.LogFile) error {
	if !k.loaded {
		k.logger.Warn("keyword heuristic has no reference")
		return ErrNoReference
	}
	if len(k.absent) == 0 {
		return nil
	}

	folder := cases.Fold()
	for _, l := range candidate.Lines() {
		content := folder.String(l.Content())
		for _, s := range k.absent {
			if !strings.Contains(content, s.Keyword) {
				continue
			}
			if cur, err := l.Score(KeyKeyword); err == nil && cur.Value >= s.Weight {
				continue
			}
			if err := l.SetScore(KeyKeyword, s.Weight, KeywordMatch{Keyword: s.Keyword}); err != nil {
				return err
			}
		}
	}
	return nil
}
