package timestamp

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

// maxPrefixWords bounds how many leading words may form a timestamp.
const maxPrefixWords = 6

// cacheSize is the number of winning word counts remembered.
const cacheSize = 4

// Extractor finds and parses the timestamp at the start of a log line.
//
// An Extractor remembers which word counts produced timestamps before and
// tries them first, so homogeneous files are processed faster. Cached
// positions are always verified, a stale entry never changes the result.
// Create one Extractor per file being processed; it is safe for concurrent
// use by the workers processing that file.
type Extractor struct {
	layouts []string

	mu        sync.Mutex
	positions []int // most recent winner first
	layoutIdx int   // index of the layout that matched last
	hits      int
	misses    int
}

// NewExtractor creates an Extractor using the given date layouts.
// DefaultLayouts are used when layouts is empty.
func NewExtractor(layouts []string) *Extractor {
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	return &Extractor{layouts: layouts}
}

// Extract returns the line with its leading timestamp removed, and the
// timestamp. ok is false when the line carries no recognizable timestamp.
func (e *Extractor) Extract(line string) (remainder string, ts Timestamp, ok bool) {
	if strings.HasPrefix(line, "[") {
		if end := strings.IndexByte(line[1:], ']'); end >= 0 {
			inner := line[1 : end+1]
			if ts, ok := e.parse(strings.TrimSpace(inner)); ok {
				ts.Representation = inner
				return strings.TrimSpace(line[end+2:]), ts, true
			}
		}
	}

	words := strings.Fields(line)
	if len(words) > maxPrefixWords+1 {
		words = words[:maxPrefixWords+1]
	}
	if len(words) == 0 {
		return "", Timestamp{}, false
	}

	for _, k := range e.cachedPositions() {
		if ts, ok := e.verify(words, k); ok {
			e.record(k, true)
			return dropWords(line, k), ts, true
		}
	}

	k, ts, ok := e.scan(words)
	if !ok {
		return "", Timestamp{}, false
	}
	e.record(k, false)
	return dropWords(line, k), ts, true
}

// CacheStats reports how many extractions were answered from the position
// cache and how many needed a full prefix scan.
func (e *Extractor) CacheStats() (hits, misses int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hits, e.misses
}

// scan grows the prefix one word at a time and keeps the longest prefix
// that parses, stopping at the first failure after a success.
func (e *Extractor) scan(words []string) (int, Timestamp, bool) {
	best := 0
	var bestTS Timestamp
	for k := 1; k <= len(words) && k <= maxPrefixWords; k++ {
		if ts, ok := e.parsePrefix(words, k); ok {
			best, bestTS = k, ts
			continue
		}
		if best > 0 {
			break
		}
	}
	return best, bestTS, best > 0
}

// verify reports whether scan would return exactly k words for this line.
func (e *Extractor) verify(words []string, k int) (Timestamp, bool) {
	if k > len(words) || k > maxPrefixWords {
		return Timestamp{}, false
	}
	ts, ok := e.parsePrefix(words, k)
	if !ok {
		return Timestamp{}, false
	}
	if k < len(words) && k < maxPrefixWords {
		if _, ok := e.parsePrefix(words, k+1); ok {
			return Timestamp{}, false
		}
	}

	// Shorter prefixes must be either part of the run ending at k, or all
	// fail below that run.
	j := k - 1
	for j >= 1 {
		if _, ok := e.parsePrefix(words, j); !ok {
			break
		}
		j--
	}
	for j--; j >= 1; j-- {
		if _, ok := e.parsePrefix(words, j); ok {
			return Timestamp{}, false
		}
	}
	return ts, true
}

func (e *Extractor) parsePrefix(words []string, k int) (Timestamp, bool) {
	prefix := strings.Join(words[:k], " ")
	ts, ok := e.parse(prefix)
	if ok {
		ts.Representation = prefix
	}
	return ts, ok
}

// parse interprets s as a number of seconds, then against every layout.
func (e *Extractor) parse(s string) (Timestamp, bool) {
	if s == "" {
		return Timestamp{}, false
	}
	if !isHexLiteral(s) {
		if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
			return FromSeconds(v), true
		}
	}

	preferred := e.preferredLayout()
	if t, err := time.Parse(e.layouts[preferred], s); err == nil {
		return FromTime(t), true
	}
	for i, layout := range e.layouts {
		if i == preferred {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			e.setPreferredLayout(i)
			return FromTime(t), true
		}
	}
	return Timestamp{}, false
}

func (e *Extractor) cachedPositions() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int, len(e.positions))
	copy(out, e.positions)
	return out
}

// record moves k to the front of the position cache.
func (e *Extractor) record(k int, hit bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if hit {
		e.hits++
	} else {
		e.misses++
	}

	for i, p := range e.positions {
		if p == k {
			copy(e.positions[1:i+1], e.positions[:i])
			e.positions[0] = k
			return
		}
	}
	e.positions = append([]int{k}, e.positions...)
	if len(e.positions) > cacheSize {
		e.positions = e.positions[:cacheSize]
	}
}

func (e *Extractor) preferredLayout() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layoutIdx
}

func (e *Extractor) setPreferredLayout(i int) {
	e.mu.Lock()
	e.layoutIdx = i
	e.mu.Unlock()
}

// dropWords removes the first k whitespace-delimited words from line.
func dropWords(line string, k int) string {
	rest := line
	for i := 0; i < k; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		rest = rest[idx:]
	}
	return strings.TrimSpace(rest)
}

// isHexLiteral reports whether s is a hexadecimal number such as 0x1p3,
// which strconv.ParseFloat would otherwise accept.
func isHexLiteral(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
