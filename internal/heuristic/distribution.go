package heuristic

import (
	"math"

	"github.com/bimmerbailey/driftlog/internal/logfile"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// normalizationPadding widens the normalization range so no template ends
// up exactly on its bounds by accident.
const normalizationPadding = 0.001

// Distribution compares how many lines each template has in the reference
// and the candidate. Every candidate line gets the normalized difference of
// its template.
type Distribution struct {
	reference *orderedmap.OrderedMap[int, int]
}

// NewDistribution creates a Distribution heuristic.
func NewDistribution() *Distribution {
	return &Distribution{}
}

// LoadReference counts the reference lines of every template.
func (d *Distribution) LoadReference(reference *logfile.LogFile) error {
	counts, err := reference.TemplateCounts()
	if err != nil {
		return err
	}
	d.reference = counts
	return nil
}

// Score gives each candidate line the normalized count difference of its template.
func (d *Distribution) Score(candidate *logfile.LogFile) error {
	if d.reference == nil {
		return ErrNoReference
	}
	counts, err := candidate.TemplateCounts()
	if err != nil {
		return err
	}

	ids := orderedmap.New[int, float64]()
	diff := func(id int) float64 {
		r, _ := d.reference.Get(id)
		c, _ := counts.Get(id)
		return math.Abs(float64(r-c)) / float64(r+c+1)
	}
	for p := d.reference.Oldest(); p != nil; p = p.Next() {
		ids.Set(p.Key, diff(p.Key))
	}
	for p := counts.Oldest(); p != nil; p = p.Next() {
		ids.Set(p.Key, diff(p.Key))
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for p := ids.Oldest(); p != nil; p = p.Next() {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	hi = math.Max(1, hi+normalizationPadding)
	lo = math.Max(0, lo-normalizationPadding)

	for _, l := range candidate.Lines() {
		t, err := l.Template()
		if err != nil {
			return err
		}
		v, _ := ids.Get(t.ID)
		r, _ := d.reference.Get(t.ID)
		c, _ := counts.Get(t.ID)
		score := (v - lo) / (hi - lo)
		if err := l.SetScore(KeyDistribution, score, TemplateShare{Reference: r, Candidate: c}); err != nil {
			return err
		}
	}
	return nil
}
