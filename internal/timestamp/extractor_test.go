package timestamp

import (
	"sync"
	"testing"
	"time"
)

func TestExtractor_CommonFormats(t *testing.T) {
	const message = "Random 23.12.2023 log message"

	tests := []struct {
		name     string
		stamp    string
		wantRepr string
	}{
		{"hadoop", "2015-10-17 15:37:56,547", "2015-10-17 15:37:56,547"},
		{"hadoop second", "2015-10-17 18:09:30,830", "2015-10-17 18:09:30,830"},
		{"apache bracketed", "[Thu Jun 09 06:07:04 2005]", "Thu Jun 09 06:07:04 2005"},
		{"android", "12-17 19:31:36.263", "12-17 19:31:36.263"},
		{"linux kernel", "[    0.000000]", "    0.000000"},
		{"syslog", "Jan 26 10:00:01", "Jan 26 10:00:01"},
		{"rfc3339", "2025-01-26T10:00:01Z", "2025-01-26T10:00:01Z"},
		{"hour minute", "10:30", "10:30"},
		{"counter", "42", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExtractor(nil)
			rest, ts, ok := e.Extract(tt.stamp + " " + message)
			if !ok {
				t.Fatalf("Extract(%q) found no timestamp", tt.stamp)
			}
			if rest != message {
				t.Errorf("remainder = %q, want %q", rest, message)
			}
			if ts.Representation != tt.wantRepr {
				t.Errorf("Representation = %q, want %q", ts.Representation, tt.wantRepr)
			}
		})
	}
}

func TestExtractor_NoTimestamp(t *testing.T) {
	e := NewExtractor(nil)
	for _, line := range []string{"Test1", "", "   ", "[not a date] hello", "info message", "NaN apples", "0x1p3 hex", "-0X10 hex", "[0x10] bracketed hex"} {
		if _, _, ok := e.Extract(line); ok {
			t.Errorf("Extract(%q) should find no timestamp", line)
		}
	}
}

func TestExtractor_LongestPrefixWins(t *testing.T) {
	e := NewExtractor(nil)

	// "Jan", "Jan 2" fail; "Jan 2 15:04:05" parses; adding "rest" fails.
	rest, ts, ok := e.Extract("Jan 2 15:04:05 rest")
	if !ok {
		t.Fatal("expected timestamp")
	}
	if rest != "rest" {
		t.Errorf("remainder = %q, want %q", rest, "rest")
	}
	if ts.Representation != "Jan 2 15:04:05" {
		t.Errorf("Representation = %q", ts.Representation)
	}

	// The date alone parses, the date and time parse too; the longer wins.
	rest, ts, ok = e.Extract("2015-10-17 18:09:30,830 INFO [main] org.apache.hadoop.mapred.YarnChild: Executing")
	if !ok {
		t.Fatal("expected timestamp")
	}
	if ts.Representation != "2015-10-17 18:09:30,830" {
		t.Errorf("Representation = %q", ts.Representation)
	}
	if rest != "INFO [main] org.apache.hadoop.mapred.YarnChild: Executing" {
		t.Errorf("remainder = %q", rest)
	}
	got, isDate := ts.Time()
	if !isDate {
		t.Fatal("expected calendar timestamp")
	}
	want := time.Date(2015, 10, 17, 18, 9, 30, 830_000_000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}
}

func TestExtractor_StopsAtFirstFailureAfterSuccess(t *testing.T) {
	e := NewExtractor(nil)
	rest, ts, ok := e.Extract("1 : Warning test is a test")
	if !ok {
		t.Fatal("expected timestamp")
	}
	if ts.Numeric() != 1 {
		t.Errorf("Numeric() = %v, want 1", ts.Numeric())
	}
	if rest != ": Warning test is a test" {
		t.Errorf("remainder = %q", rest)
	}
}

func TestExtractor_BracketWinsOverPrefix(t *testing.T) {
	e := NewExtractor(nil)
	rest, ts, ok := e.Extract("[12.5] 2015-10-17 15:37:56 rest")
	if !ok {
		t.Fatal("expected timestamp")
	}
	if ts.Kind() != KindNumeric || ts.Numeric() != 12.5 {
		t.Errorf("timestamp = %v (kind %v), want numeric 12.5", ts, ts.Kind())
	}
	if rest != "2015-10-17 15:37:56 rest" {
		t.Errorf("remainder = %q", rest)
	}
}

func TestExtractor_BracketFallsBackToPrefix(t *testing.T) {
	e := NewExtractor(nil)
	// Unclosed bracket goes through the prefix rule and fails there too.
	if _, _, ok := e.Extract("[12.5 rest"); ok {
		t.Error("unterminated bracket should not parse")
	}
}

func TestExtractor_PositionCache(t *testing.T) {
	e := NewExtractor(nil)
	lines := []string{
		"2015-10-17 15:37:56,547 INFO first",
		"2015-10-17 15:37:57,001 INFO second",
		"2015-10-17 15:37:58,120 WARN third",
	}
	for _, l := range lines {
		if _, _, ok := e.Extract(l); !ok {
			t.Fatalf("Extract(%q) failed", l)
		}
	}
	hits, misses := e.CacheStats()
	if misses != 1 || hits != 2 {
		t.Errorf("CacheStats() = (%d, %d), want (2, 1)", hits, misses)
	}
}

func TestExtractor_StaleCacheKeepsResults(t *testing.T) {
	warm := NewExtractor(nil)
	cold := NewExtractor(nil)

	// Teach the warm extractor a 3 word position, then feed other shapes.
	warm.Extract("Jan 2 15:04:05 boot")
	lines := []string{
		"42 : counter line",
		"2015-10-17 15:37:56,547 INFO mixed",
		"Jan 3 10:00:00 syslog again",
		"no timestamp here",
		"[7] bracketed",
	}
	for _, l := range lines {
		r1, t1, ok1 := warm.Extract(l)
		r2, t2, ok2 := cold.Extract(l)
		if r1 != r2 || ok1 != ok2 || t1.Representation != t2.Representation || t1.Numeric() != t2.Numeric() {
			t.Errorf("Extract(%q) differs: warm=(%q,%v,%v) cold=(%q,%v,%v)", l, r1, t1, ok1, r2, t2, ok2)
		}
	}
}

func TestExtractor_Concurrent(t *testing.T) {
	e := NewExtractor(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, _, ok := e.Extract("2015-10-17 15:37:56,547 INFO line"); !ok {
					t.Error("expected timestamp")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestTimestamp_Relative(t *testing.T) {
	origin := FromTime(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	later := FromTime(time.Date(2024, 1, 1, 10, 0, 1, 500_000_000, time.UTC))
	if got := later.Relative(origin); got != 1.5 {
		t.Errorf("Relative() = %v, want 1.5", got)
	}
	if got := FromSeconds(30).Relative(FromSeconds(23)); got != 7 {
		t.Errorf("Relative() = %v, want 7", got)
	}
	if !origin.Before(later) || later.Before(origin) {
		t.Error("Before() ordering is wrong")
	}
}

func TestDropWords(t *testing.T) {
	tests := []struct {
		line string
		k    int
		want string
	}{
		{"a b c", 1, "b c"},
		{"  a   b  c ", 2, "c"},
		{"a", 1, ""},
		{"a\tb", 1, "b"},
	}
	for _, tt := range tests {
		if got := dropWords(tt.line, tt.k); got != tt.want {
			t.Errorf("dropWords(%q, %d) = %q, want %q", tt.line, tt.k, got, tt.want)
		}
	}
}
