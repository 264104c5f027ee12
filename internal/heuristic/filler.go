package heuristic

import (
	"github.com/bimmerbailey/driftlog/internal/logfile"
)

// fillerSaturation is the number of unclaimed reference lines that gives a
// candidate line the maximum filler score.
const fillerSaturation = 11

// Filler finds reference lines that temporal alignment left without a
// partner and hands each of them to the candidate line closest in time.
// Candidate lines collecting many such lines likely stand where the
// candidate is missing output. It must run after Temporal.
type Filler struct {
	reference *logfile.LogFile
}

// NewFiller creates a Filler heuristic.
func NewFiller() *Filler {
	return &Filler{}
}

// LoadReference keeps the reference for Score.
func (f *Filler) LoadReference(reference *logfile.LogFile) error {
	f.reference = reference
	return nil
}

// Score assigns unmatched reference lines to the closest candidate line.
func (f *Filler) Score(candidate *logfile.LogFile) error {
	if f.reference == nil {
		return ErrNoReference
	}

	claimed := make(map[int]bool)
	for _, l := range candidate.Lines() {
		if ref := MatchedReference(l); ref != nil {
			claimed[ref.Number()] = true
		}
	}

	assigned := make(map[int][]*logfile.LogLine)
	for _, l := range f.reference.Lines() {
		if claimed[l.Number()] {
			continue
		}
		rel, err := f.reference.RelativeTime(l)
		if err != nil {
			return err
		}
		closest, err := candidate.FindClosestLineByRelativeTimestamp(rel)
		if err != nil {
			return err
		}
		assigned[closest.Number()] = append(assigned[closest.Number()], l)
	}

	for _, l := range candidate.Lines() {
		lines := assigned[l.Number()]
		score := min(1, float64(len(lines))/fillerSaturation)
		if err := l.SetScore(KeyFiller, score, FillerAssignment{Assigned: lines}); err != nil {
			return err
		}
	}
	return nil
}
