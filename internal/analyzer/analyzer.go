// Package analyzer summarizes scored log comparisons into reports:
// per-heuristic statistics, the most divergent candidate lines, template
// groups and a line diff.
package analyzer

import (
	"sort"

	"github.com/bimmerbailey/driftlog/internal/heuristic"
	"github.com/bimmerbailey/driftlog/internal/logfile"
)

// Report is the outcome of comparing one candidate against a reference.
type Report struct {
	Reference      FileSummary      `json:"reference" yaml:"reference"`
	Candidate      FileSummary      `json:"candidate" yaml:"candidate"`
	Templates      int              `json:"templates" yaml:"templates"`
	MeanImportance float64          `json:"mean_importance" yaml:"mean_importance"`
	MinScore       float64          `json:"min_score" yaml:"min_score"`
	Flagged        int              `json:"flagged" yaml:"flagged"`
	Heuristics     []HeuristicStats `json:"heuristics" yaml:"heuristics"`
	Lines          []LineReport     `json:"lines" yaml:"lines"`
	Groups         []TemplateGroup  `json:"groups" yaml:"groups"`
	Diff           DiffSummary      `json:"diff" yaml:"diff"`
	Errors         []string         `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// FileSummary describes one of the compared files.
type FileSummary struct {
	Name        string  `json:"name" yaml:"name"`
	Lines       int     `json:"lines" yaml:"lines"`
	Timestamped int     `json:"timestamped" yaml:"timestamped"`
	Duration    float64 `json:"duration_seconds" yaml:"duration_seconds"`
}

// HeuristicStats aggregates the scores of one heuristic over the candidate.
type HeuristicStats struct {
	Key    string  `json:"key" yaml:"key"`
	Scored int     `json:"scored" yaml:"scored"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Max    float64 `json:"max" yaml:"max"`
}

// LineReport is a candidate line with its score breakdown.
type LineReport struct {
	Number     int          `json:"number" yaml:"number"`
	Content    string       `json:"content" yaml:"content"`
	Importance float64      `json:"importance" yaml:"importance"`
	Scores     []ScoreEntry `json:"scores" yaml:"scores"`
	TemplateID int          `json:"template_id" yaml:"template_id"`
	Pattern    string       `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Reference  *LineRef     `json:"reference,omitempty" yaml:"reference,omitempty"`
	Keyword    string       `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Unmatched  []LineRef    `json:"unmatched_nearby,omitempty" yaml:"unmatched_nearby,omitempty"`
}

// ScoreEntry is the value one heuristic gave a line.
type ScoreEntry struct {
	Key   string  `json:"key" yaml:"key"`
	Value float64 `json:"value" yaml:"value"`
}

// LineRef points at a line of the reference.
type LineRef struct {
	ID      string `json:"id" yaml:"id"`
	Number  int    `json:"number" yaml:"number"`
	Content string `json:"content" yaml:"content"`
}

// TemplateGroup summarizes one template across both files.
type TemplateGroup struct {
	ID             int     `json:"id" yaml:"id"`
	Pattern        string  `json:"pattern" yaml:"pattern"`
	Reference      int     `json:"reference" yaml:"reference"`
	Candidate      int     `json:"candidate" yaml:"candidate"`
	MeanImportance float64 `json:"mean_importance" yaml:"mean_importance"`
}

// DiffStatus classifies a line in the diff.
type DiffStatus string

const (
	// DiffOK marks a candidate line aligned with a reference line.
	DiffOK DiffStatus = "OK"
	// DiffAdditional marks a candidate line without a reference partner.
	DiffAdditional DiffStatus = "ADDITIONAL"
	// DiffMissing marks a reference line no candidate line was aligned with.
	DiffMissing DiffStatus = "MISSING"
)

// DiffEntry is one line of the diff.
type DiffEntry struct {
	Status    DiffStatus `json:"status" yaml:"status"`
	Candidate *LineRef   `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Reference *LineRef   `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// DiffSummary counts and lists the diff entries.
type DiffSummary struct {
	OK         int         `json:"ok" yaml:"ok"`
	Additional int         `json:"additional" yaml:"additional"`
	Missing    int         `json:"missing" yaml:"missing"`
	Entries    []DiffEntry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Options controls what a report contains.
type Options struct {
	// MinScore is the importance from which a line counts as flagged.
	MinScore float64
	// Top limits the number of reported lines. Zero reports every flagged line.
	Top int
	// All reports every candidate line in file order instead of the top lines.
	All bool
	// Keys lists the heuristics to summarize, in order.
	Keys []logfile.HeuristicKey
	// DiffEntries includes the individual diff entries.
	DiffEntries bool
}

// Build summarizes a reference and a candidate scored by a pipeline run.
// Both files must be annotated with templates.
func Build(reference, candidate *logfile.LogFile, opts Options) (*Report, error) {
	r := &Report{
		Reference: summarize(reference),
		Candidate: summarize(candidate),
		MinScore:  opts.MinScore,
	}

	groups, err := buildGroups(reference, candidate)
	if err != nil {
		return nil, err
	}
	r.Groups = groups
	r.Templates = len(groups)

	var total float64
	for _, l := range candidate.Lines() {
		imp := l.Importance()
		total += imp
		if imp >= opts.MinScore {
			r.Flagged++
		}
	}
	if candidate.Len() > 0 {
		r.MeanImportance = total / float64(candidate.Len())
	}

	for _, key := range opts.Keys {
		r.Heuristics = append(r.Heuristics, heuristicStats(candidate, key))
	}

	r.Lines = selectLines(candidate, opts)
	r.Diff = buildDiff(reference, candidate, opts.DiffEntries)
	return r, nil
}

func summarize(f *logfile.LogFile) FileSummary {
	d, _ := f.Duration()
	return FileSummary{
		Name:        f.Name(),
		Lines:       f.Len(),
		Timestamped: f.TimestampedCount(),
		Duration:    d,
	}
}

func heuristicStats(f *logfile.LogFile, key logfile.HeuristicKey) HeuristicStats {
	s := HeuristicStats{Key: string(key)}
	var sum float64
	for _, l := range f.Lines() {
		sc, err := l.Score(key)
		if err != nil {
			continue
		}
		s.Scored++
		sum += sc.Value
		if sc.Value > s.Max {
			s.Max = sc.Value
		}
	}
	if s.Scored > 0 {
		s.Mean = sum / float64(s.Scored)
	}
	return s
}

// selectLines returns the reported lines: every line in file order with
// opts.All, otherwise the flagged lines by importance, highest first.
func selectLines(f *logfile.LogFile, opts Options) []LineReport {
	var picked []*logfile.LogLine
	for _, l := range f.Lines() {
		if opts.All || l.Importance() >= opts.MinScore {
			picked = append(picked, l)
		}
	}

	if !opts.All {
		sort.SliceStable(picked, func(i, j int) bool {
			return picked[i].Importance() > picked[j].Importance()
		})
		if opts.Top > 0 && len(picked) > opts.Top {
			picked = picked[:opts.Top]
		}
	}

	out := make([]LineReport, 0, len(picked))
	for _, l := range picked {
		out = append(out, lineReport(l))
	}
	return out
}

func lineReport(l *logfile.LogLine) LineReport {
	lr := LineReport{
		Number:     l.Number(),
		Content:    l.Content(),
		Importance: l.Importance(),
	}
	for _, key := range l.ScoreKeys() {
		s, _ := l.Score(key)
		lr.Scores = append(lr.Scores, ScoreEntry{Key: string(key), Value: s.Value})
	}
	if t, err := l.Template(); err == nil {
		lr.TemplateID = t.ID
		lr.Pattern = t.Pattern
	}
	if ref := heuristic.MatchedReference(l); ref != nil {
		lr.Reference = refOf(ref)
	}
	if m, ok := heuristic.MetadataOf[heuristic.KeywordMatch](l, heuristic.KeyKeyword); ok {
		lr.Keyword = m.Keyword
	}
	if fa, ok := heuristic.MetadataOf[heuristic.FillerAssignment](l, heuristic.KeyFiller); ok {
		for _, a := range fa.Assigned {
			lr.Unmatched = append(lr.Unmatched, *refOf(a))
		}
	}
	return lr
}

func refOf(l *logfile.LogLine) *LineRef {
	return &LineRef{ID: l.ID().String(), Number: l.Number(), Content: l.Content()}
}

// buildGroups lists every template of either file in first-seen order,
// reference first.
func buildGroups(reference, candidate *logfile.LogFile) ([]TemplateGroup, error) {
	refGroups, err := reference.LinesByTemplate()
	if err != nil {
		return nil, err
	}
	candGroups, err := candidate.LinesByTemplate()
	if err != nil {
		return nil, err
	}

	index := make(map[int]int)
	var out []TemplateGroup
	group := func(id int, pattern string) *TemplateGroup {
		if i, ok := index[id]; ok {
			return &out[i]
		}
		index[id] = len(out)
		out = append(out, TemplateGroup{ID: id, Pattern: pattern})
		return &out[len(out)-1]
	}

	for p := refGroups.Oldest(); p != nil; p = p.Next() {
		t, _ := p.Value[0].Template()
		group(p.Key, t.Pattern).Reference = len(p.Value)
	}
	for p := candGroups.Oldest(); p != nil; p = p.Next() {
		t, _ := p.Value[0].Template()
		g := group(p.Key, t.Pattern)
		g.Candidate = len(p.Value)
		g.Pattern = t.Pattern

		var sum float64
		for _, l := range p.Value {
			sum += l.Importance()
		}
		g.MeanImportance = sum / float64(len(p.Value))
	}
	return out, nil
}

// buildDiff lists candidate lines as OK when temporally aligned with a
// reference line and ADDITIONAL otherwise, then the reference lines no
// candidate line was aligned with as MISSING.
func buildDiff(reference, candidate *logfile.LogFile, entries bool) DiffSummary {
	var d DiffSummary
	claimed := make(map[int]bool)

	for _, l := range candidate.Lines() {
		ref := heuristic.MatchedReference(l)
		e := DiffEntry{Candidate: refOf(l)}
		if ref != nil {
			claimed[ref.Number()] = true
			e.Status = DiffOK
			e.Reference = refOf(ref)
			d.OK++
		} else {
			e.Status = DiffAdditional
			d.Additional++
		}
		if entries {
			d.Entries = append(d.Entries, e)
		}
	}

	for _, l := range reference.Lines() {
		if claimed[l.Number()] {
			continue
		}
		d.Missing++
		if entries {
			d.Entries = append(d.Entries, DiffEntry{Status: DiffMissing, Reference: refOf(l)})
		}
	}
	return d
}
