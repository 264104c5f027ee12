package logfile

import (
	"fmt"
	"math"
	"sort"

	"github.com/bimmerbailey/driftlog/internal/timestamp"
	"github.com/google/uuid"
)

// Template is the structural cluster a line was assigned to by the
// templating engine.
type Template struct {
	ID      int    `json:"id" yaml:"id"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

// HeuristicKey identifies the heuristic that produced a score.
type HeuristicKey string

// Metadata is the heuristic specific payload attached to a score.
// Each heuristic defines its own concrete type.
type Metadata interface {
	Key() HeuristicKey
}

// Score is the value a heuristic attached to a line: 1.0 means the line
// is very likely to diverge from the reference, 0.0 means it is not.
type Score struct {
	Value    float64
	Metadata Metadata
}

// LogLine is a single line of a log file.
type LogLine struct {
	id       uuid.UUID
	content  string
	number   int
	ts       *timestamp.Timestamp
	stamped  bool
	stripped string
	template *Template
	scores   map[HeuristicKey]Score
}

// NewLine creates a line with the given content and 1-based line number.
func NewLine(content string, number int) *LogLine {
	return &LogLine{
		id:      uuid.New(),
		content: content,
		number:  number,
		scores:  make(map[HeuristicKey]Score),
	}
}

// ID returns a random identifier unique to this line, used to point at
// lines across files.
func (l *LogLine) ID() uuid.UUID { return l.id }

// Content returns the raw line.
func (l *LogLine) Content() string { return l.content }

// Number returns the 1-based line number.
func (l *LogLine) Number() int { return l.number }

// ContentWithoutTimestamp returns the line with its own timestamp removed.
// Lines without an extracted timestamp return their raw content.
func (l *LogLine) ContentWithoutTimestamp() string {
	if l.stamped {
		return l.stripped
	}
	return l.content
}

// Timestamp returns the timestamp of the line, extracted or filled in.
func (l *LogLine) Timestamp() (timestamp.Timestamp, error) {
	if l.ts == nil {
		return timestamp.Timestamp{}, fmt.Errorf("line %d: %w", l.number, ErrMissingTimestamp)
	}
	return *l.ts, nil
}

// HasTimestamp reports whether the line has a timestamp.
func (l *LogLine) HasTimestamp() bool { return l.ts != nil }

// OriginallyTimestamped reports whether the timestamp was read from the
// line itself rather than carried over from an earlier line.
func (l *LogLine) OriginallyTimestamped() bool { return l.stamped }

// SetTimestamp sets the timestamp of the line.
func (l *LogLine) SetTimestamp(ts timestamp.Timestamp) {
	l.ts = &ts
}

func (l *LogLine) extractTimestamp(e *timestamp.Extractor) {
	rest, ts, ok := e.Extract(l.content)
	if !ok {
		return
	}
	l.ts = &ts
	l.stamped = true
	l.stripped = rest
}

// Template returns the template assigned to the line.
func (l *LogLine) Template() (Template, error) {
	if l.template == nil {
		return Template{}, fmt.Errorf("line %d: %w", l.number, ErrMissingTemplate)
	}
	return *l.template, nil
}

// HasTemplate reports whether a template was assigned.
func (l *LogLine) HasTemplate() bool { return l.template != nil }

// SetTemplate assigns a template to the line.
func (l *LogLine) SetTemplate(t Template) {
	l.template = &t
}

// SetScore records the value of heuristic key for this line, replacing any
// previous value.
func (l *LogLine) SetScore(key HeuristicKey, value float64, meta Metadata) error {
	if math.IsNaN(value) || value < 0 || value > 1 {
		return fmt.Errorf("%w: %s=%v on line %d", ErrScoreOutOfRange, key, value, l.number)
	}
	l.scores[key] = Score{Value: value, Metadata: meta}
	return nil
}

// Score returns the value of heuristic key.
func (l *LogLine) Score(key HeuristicKey) (Score, error) {
	s, ok := l.scores[key]
	if !ok {
		return Score{}, fmt.Errorf("%w: %s on line %d", ErrNoScore, key, l.number)
	}
	return s, nil
}

// HasScore reports whether heuristic key scored this line.
func (l *LogLine) HasScore(key HeuristicKey) bool {
	_, ok := l.scores[key]
	return ok
}

// ScoreKeys returns the keys of all heuristics that scored this line, sorted.
func (l *LogLine) ScoreKeys() []HeuristicKey {
	keys := make([]HeuristicKey, 0, len(l.scores))
	for k := range l.scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ClearScores removes every heuristic value from the line.
func (l *LogLine) ClearScores() {
	clear(l.scores)
}

// Importance is the highest value any heuristic attached to the line, or 0.
func (l *LogLine) Importance() float64 {
	best := 0.0
	for _, s := range l.scores {
		if s.Value > best {
			best = s.Value
		}
	}
	return best
}
