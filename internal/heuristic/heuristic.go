// Package heuristic scores candidate log lines against a reference log.
//
// Every heuristic first loads the reference, then scores each line of the
// candidate with a value in [0, 1]. Higher values mean the line is more
// likely to diverge from the reference. Heuristics run in a fixed order
// through a Pipeline; later heuristics may read the metadata earlier ones
// attached to lines.
package heuristic

import (
	"errors"

	"github.com/bimmerbailey/driftlog/internal/logfile"
)

// Heuristic scores the lines of a candidate log.
type Heuristic interface {
	// LoadReference prepares the heuristic for a new reference log.
	LoadReference(reference *logfile.LogFile) error
	// Score attaches values to the lines of candidate.
	Score(candidate *logfile.LogFile) error
}

// Keys the built-in heuristics score under.
const (
	KeyKeyword      logfile.HeuristicKey = "keyword"
	KeyDistribution logfile.HeuristicKey = "distribution"
	KeyTemporal     logfile.HeuristicKey = "temporal"
	KeyFiller       logfile.HeuristicKey = "filler"
)

var (
	// ErrNoReference is returned by Score when LoadReference was not called.
	ErrNoReference = errors.New("no reference loaded")

	// ErrStageFailed wraps the failure of a single pipeline stage.
	ErrStageFailed = errors.New("heuristic stage failed")
)

// KeywordMatch records which severity keyword raised a line's score.
type KeywordMatch struct {
	Keyword string
}

// Key returns KeyKeyword.
func (KeywordMatch) Key() logfile.HeuristicKey { return KeyKeyword }

// TemplateShare records how often a line's template occurs in both logs.
type TemplateShare struct {
	Reference int
	Candidate int
}

// Key returns KeyDistribution.
func (TemplateShare) Key() logfile.HeuristicKey { return KeyDistribution }

// TemporalMatch points at the reference line a candidate line was aligned
// with. Reference is nil when the line was matched to padding.
type TemporalMatch struct {
	Reference *logfile.LogLine
}

// Key returns KeyTemporal.
func (TemporalMatch) Key() logfile.HeuristicKey { return KeyTemporal }

// FillerAssignment lists the unclaimed reference lines closest in time to
// a candidate line.
type FillerAssignment struct {
	Assigned []*logfile.LogLine
}

// Key returns KeyFiller.
func (FillerAssignment) Key() logfile.HeuristicKey { return KeyFiller }

// MetadataOf returns the metadata of type T attached under key, if any.
func MetadataOf[T logfile.Metadata](l *logfile.LogLine, key logfile.HeuristicKey) (T, bool) {
	var zero T
	s, err := l.Score(key)
	if err != nil {
		return zero, false
	}
	meta, ok := s.Metadata.(T)
	return meta, ok
}

// MatchedReference returns the reference line l was temporally aligned
// with, or nil.
func MatchedReference(l *logfile.LogLine) *logfile.LogLine {
	m, ok := MetadataOf[TemporalMatch](l, KeyTemporal)
	if !ok {
		return nil
	}
	return m.Reference
}
