// Package logfile models a log as an ordered list of lines with timestamps,
// template assignments and heuristic scores.
//
// A LogFile is built once from raw text. Timestamps are extracted while
// building it and lines without one inherit the timestamp of the closest
// earlier line, so every line can be placed in time:
//
//	lf, err := logfile.New(text, logfile.WithWorkers(4))
//	if errors.Is(err, logfile.ErrInvalidInput) {
//	    // reject the file
//	}
//
// Templates are assigned afterwards by the templating engine and heuristic
// scores are written and cleared by the heuristic pipeline.
package logfile

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bimmerbailey/driftlog/internal/timestamp"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// maxLineSize is the longest line accepted when reading a log.
const maxLineSize = 1024 * 1024

// LogFile is an ordered sequence of log lines.
type LogFile struct {
	name    string
	lines   []*LogLine
	stamped int

	startOnce sync.Once
	start     *timestamp.Timestamp
}

// Option configures how a LogFile is built.
type Option func(*options)

type options struct {
	name    string
	workers int
	layouts []string
	logger  *slog.Logger
}

// WithName sets the name the file is reported under, usually its path.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithWorkers bounds the number of goroutines extracting timestamps.
// Values below 1 use GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLayouts sets the date layouts used for timestamp extraction.
func WithLayouts(layouts []string) Option {
	return func(o *options) { o.layouts = layouts }
}

// WithLogger sets the logger used while building the file.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds a LogFile from raw text.
func New(text string, opts ...Option) (*LogFile, error) {
	return Parse(strings.NewReader(text), opts...)
}

// Load reads and builds the LogFile stored at path on fs.
func Load(fs afero.Fs, path string, opts ...Option) (*LogFile, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log file %s: %w", path, err)
	}
	defer f.Close()

	opts = append([]Option{WithName(path)}, opts...)
	lf, err := Parse(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lf, nil
}

// Parse reads every line from r and builds a LogFile.
//
// It returns ErrInvalidInput when the input has fewer than two lines or
// fewer than two of them carry a timestamp.
func Parse(r io.Reader, opts ...Option) (*LogFile, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []*LogLine
	for scanner.Scan() {
		content := strings.TrimSuffix(scanner.Text(), "\r")
		lines = append(lines, NewLine(content, len(lines)+1))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 lines, got %d", ErrInvalidInput, len(lines))
	}

	extractor := timestamp.NewExtractor(o.layouts)
	extractTimestamps(lines, extractor, o.workers)

	f := &LogFile{name: o.name, lines: lines}
	for _, l := range lines {
		if l.stamped {
			f.stamped++
		}
	}
	if f.stamped < 2 {
		return nil, fmt.Errorf("%w: need at least 2 timestamped lines, got %d", ErrInvalidInput, f.stamped)
	}

	hits, misses := extractor.CacheStats()
	o.logger.Debug("extracted timestamps",
		"file", o.name,
		"lines", len(lines),
		"timestamped", f.stamped,
		"cache_hits", hits,
		"cache_misses", misses)

	fillTimestamps(lines)
	return f, nil
}

// extractTimestamps runs the extractor over index-addressed chunks of
// lines. Each worker only writes to the lines of its own chunk.
func extractTimestamps(lines []*LogLine, e *timestamp.Extractor, workers int) {
	chunk := (len(lines) + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers)
	for start := 0; start < len(lines); start += chunk {
		end := min(start+chunk, len(lines))
		p.Go(func() {
			for i := start; i < end; i++ {
				lines[i].extractTimestamp(e)
			}
		})
	}
	p.Wait()
}

// fillTimestamps gives every line without a timestamp the timestamp of
// the nearest earlier timestamped line. Lines before the first timestamp
// take the first timestamp.
func fillTimestamps(lines []*LogLine) {
	var last *timestamp.Timestamp
	firstStamped := -1
	for i, l := range lines {
		if l.stamped {
			last = l.ts
			if firstStamped < 0 {
				firstStamped = i
			}
			continue
		}
		if last != nil {
			l.SetTimestamp(*last)
		}
	}
	for i := 0; i < firstStamped; i++ {
		lines[i].SetTimestamp(*lines[firstStamped].ts)
	}
}

// Name returns the name the file was built with.
func (f *LogFile) Name() string { return f.name }

// Lines returns the lines of the file in order.
func (f *LogFile) Lines() []*LogLine { return f.lines }

// Len returns the number of lines.
func (f *LogFile) Len() int { return len(f.lines) }

// TimestampedCount returns how many lines carried their own timestamp.
func (f *LogFile) TimestampedCount() int { return f.stamped }

// Line returns the line with the given 1-based number.
func (f *LogFile) Line(number int) (*LogLine, error) {
	if number < 1 || number > len(f.lines) {
		return nil, fmt.Errorf("line %d out of range [1, %d]", number, len(f.lines))
	}
	return f.lines[number-1], nil
}

// StartingTime returns the timestamp of the first timestamped line.
func (f *LogFile) StartingTime() (timestamp.Timestamp, error) {
	f.startOnce.Do(func() {
		for _, l := range f.lines {
			if l.ts != nil {
				ts := *l.ts
				f.start = &ts
				return
			}
		}
	})
	if f.start == nil {
		return timestamp.Timestamp{}, ErrMissingTimestamp
	}
	return *f.start, nil
}

// RelativeTime returns the seconds between the start of the file and l.
func (f *LogFile) RelativeTime(l *LogLine) (float64, error) {
	origin, err := f.StartingTime()
	if err != nil {
		return 0, err
	}
	ts, err := l.Timestamp()
	if err != nil {
		return 0, err
	}
	return ts.Relative(origin), nil
}

// Duration returns the seconds between the first and the last line.
func (f *LogFile) Duration() (float64, error) {
	return f.RelativeTime(f.lines[len(f.lines)-1])
}

// FindClosestLineByRelativeTimestamp returns the first line whose relative
// timestamp is not before t, or the last line when t is past the end.
// Lines are expected to be sorted by relative timestamp.
func (f *LogFile) FindClosestLineByRelativeTimestamp(t float64) (*LogLine, error) {
	origin, err := f.StartingTime()
	if err != nil {
		return nil, err
	}

	var missing error
	idx := sort.Search(len(f.lines), func(i int) bool {
		ts, err := f.lines[i].Timestamp()
		if err != nil {
			missing = err
			return false
		}
		return ts.Relative(origin) >= t
	})
	if missing != nil {
		return nil, missing
	}
	if idx >= len(f.lines) {
		idx = len(f.lines) - 1
	}
	return f.lines[idx], nil
}

// TemplateIDs yields the distinct template ids of the file in first-seen
// order. It yields an ErrMissingTemplate error and stops at the first line
// without a template.
func (f *LogFile) TemplateIDs() iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		seen := make(map[int]struct{})
		for _, l := range f.lines {
			t, err := l.Template()
			if err != nil {
				yield(0, err)
				return
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			if !yield(t.ID, nil) {
				return
			}
		}
	}
}

// TemplateCounts counts lines per template id, in first-seen order.
func (f *LogFile) TemplateCounts() (*orderedmap.OrderedMap[int, int], error) {
	counts := orderedmap.New[int, int]()
	for _, l := range f.lines {
		t, err := l.Template()
		if err != nil {
			return nil, err
		}
		n, _ := counts.Get(t.ID)
		counts.Set(t.ID, n+1)
	}
	return counts, nil
}

// LinesByTemplate groups lines per template id, preserving line order
// inside each group and first-seen order across groups.
func (f *LogFile) LinesByTemplate() (*orderedmap.OrderedMap[int, []*LogLine], error) {
	groups := orderedmap.New[int, []*LogLine]()
	for _, l := range f.lines {
		t, err := l.Template()
		if err != nil {
			return nil, err
		}
		g, _ := groups.Get(t.ID)
		groups.Set(t.ID, append(g, l))
	}
	return groups, nil
}

// ClearHeuristics removes every heuristic score from every line.
func (f *LogFile) ClearHeuristics() {
	for _, l := range f.lines {
		l.ClearScores()
	}
}
