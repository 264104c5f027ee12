package prompt_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bimmerbailey/driftlog/internal/analyzer"
	"github.com/bimmerbailey/driftlog/internal/prompt"
)

const testSummary = `=== Overview ===
reference: 4 lines over 3.0s
candidate: 4 lines over 3.0s

=== Flagged candidate lines ===
[1.000] line 3: 2 : ERROR request failed`

func TestBuild_RequiresSummary(t *testing.T) {
	for _, pt := range prompt.Types {
		t.Run(string(pt), func(t *testing.T) {
			_, err := prompt.Build(pt, prompt.BuildOptions{Reference: "ref.log"})
			if !errors.Is(err, prompt.ErrMissingField) {
				t.Errorf("expected ErrMissingField, got %v", err)
			}
		})
	}
}

func TestBuild_UnknownType(t *testing.T) {
	if _, err := prompt.Build("summarize", prompt.BuildOptions{Summary: testSummary}); err == nil {
		t.Error("Build() with unknown type should fail")
	}
}

func TestBuild_MessageStructure(t *testing.T) {
	tests := []struct {
		pt          prompt.PromptType
		wantSystem  string
		wantRequest string
	}{
		{prompt.TypeExplain, "comparing two runs", "Explain how the candidate run differs"},
		{prompt.TypeTriage, "triaging a failed run", "Triage the flagged lines"},
	}

	for _, tt := range tests {
		t.Run(string(tt.pt), func(t *testing.T) {
			msgs, err := prompt.Build(tt.pt, prompt.BuildOptions{Summary: testSummary})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" {
				t.Fatalf("messages = %+v, want system + user", msgs)
			}
			if !strings.Contains(msgs[0].Content, tt.wantSystem) {
				t.Errorf("system prompt missing %q", tt.wantSystem)
			}
			if !strings.HasPrefix(msgs[1].Content, tt.wantRequest) {
				t.Errorf("user message = %q, want prefix %q", msgs[1].Content, tt.wantRequest)
			}
			if !strings.Contains(msgs[1].Content, testSummary) {
				t.Error("user message should contain the summary")
			}
		})
	}
}

func TestBuild_ContextNotes(t *testing.T) {
	msgs, err := prompt.Build(prompt.TypeExplain, prompt.BuildOptions{
		Summary:    testSummary,
		Reference:  "good.log",
		Candidate:  "bad.log",
		Heuristics: []string{"keyword", "temporal"},
		MinScore:   0.5,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	user := msgs[1].Content
	for _, want := range []string{
		"Reference file: good.log",
		"Candidate file: bad.log",
		"Heuristics applied: keyword, temporal",
		"below importance 0.50",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q\n%s", want, user)
		}
	}

	msgs, _ = prompt.Build(prompt.TypeExplain, prompt.BuildOptions{Summary: testSummary})
	if strings.Contains(msgs[1].Content, "Note:") {
		t.Error("no notes expected without optional fields")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		input   string
		want    prompt.PromptType
		wantErr bool
	}{
		{"explain", prompt.TypeExplain, false},
		{"TRIAGE", prompt.TypeTriage, false},
		{"root_cause", "", true},
	}
	for _, tt := range tests {
		got, err := prompt.ParseType(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseType(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestFromReport(t *testing.T) {
	r := &analyzer.Report{
		Reference:      analyzer.FileSummary{Name: "ref.log", Lines: 4, Duration: 3},
		Candidate:      analyzer.FileSummary{Name: "cand.log", Lines: 4, Duration: 3},
		Templates:      4,
		MeanImportance: 0.3,
		MinScore:       0.5,
		Flagged:        2,
		Heuristics:     []analyzer.HeuristicStats{{Key: "keyword"}, {Key: "filler"}},
		Lines: []analyzer.LineReport{
			{Number: 3, Content: "ERROR request failed", Importance: 1,
				Scores: []analyzer.ScoreEntry{{Key: "keyword", Value: 1}}, Keyword: "error"},
			{Number: 2, Content: strings.Repeat("x", 400), Importance: 0.6,
				Reference: &analyzer.LineRef{Number: 2, Content: "request a"}},
		},
		Diff: analyzer.DiffSummary{OK: 3, Additional: 1, Missing: 1, Entries: []analyzer.DiffEntry{
			{Status: analyzer.DiffOK, Candidate: &analyzer.LineRef{Number: 1}},
			{Status: analyzer.DiffMissing, Reference: &analyzer.LineRef{Number: 3, Content: "request b"}},
		}},
	}

	opts := prompt.FromReport(r, 1, nil)
	if opts.Reference != "ref.log" || opts.Candidate != "cand.log" || opts.MinScore != 0.5 {
		t.Errorf("opts = %+v", opts)
	}
	if strings.Join(opts.Heuristics, ",") != "keyword,filler" {
		t.Errorf("Heuristics = %v", opts.Heuristics)
	}

	for _, want := range []string{
		"diff: 3 ok, 1 additional, 1 missing",
		"[1.000] line 3: ERROR request failed",
		"scores: keyword=1.00 keyword error",
		"no matching reference line",
		"(1 more omitted)",
		"line 3: request b",
	} {
		if !strings.Contains(opts.Summary, want) {
			t.Errorf("summary missing %q\n%s", want, opts.Summary)
		}
	}
	if strings.Contains(opts.Summary, strings.Repeat("x", 300)) {
		t.Error("long content should be clipped")
	}

	if _, err := prompt.Build(prompt.TypeTriage, opts); err != nil {
		t.Errorf("Build(FromReport) error = %v", err)
	}
}

func TestFromReport_ClipsOnRuneBoundary(t *testing.T) {
	r := &analyzer.Report{
		Lines: []analyzer.LineReport{{Number: 1, Content: strings.Repeat("é", 150), Importance: 1}},
	}

	opts := prompt.FromReport(r, 0, nil)
	if !utf8.ValidString(opts.Summary) {
		t.Errorf("summary is not valid UTF-8:\n%q", opts.Summary)
	}
	if !strings.Contains(opts.Summary, "é...") {
		t.Errorf("clipped content should end on a whole rune:\n%s", opts.Summary)
	}
}

func TestRedactor(t *testing.T) {
	r, err := prompt.NewRedactor(nil)
	if err != nil {
		t.Fatalf("NewRedactor() error = %v", err)
	}

	first := r.Redact("connect from 10.1.2.3 as ops@example.com failed")
	second := r.Redact("retry from 10.1.2.3 token=abcdef123456")
	if strings.Contains(first, "10.1.2.3") || strings.Contains(first, "example.com") {
		t.Errorf("values not redacted: %q", first)
	}
	if strings.Contains(second, "abcdef123456") {
		t.Errorf("secret not redacted: %q", second)
	}

	ph := first[len("connect from "):strings.Index(first, " as ")]
	if !strings.HasPrefix(ph, "[IPV4:") || !strings.Contains(second, ph) {
		t.Errorf("same address should share a placeholder: %q / %q", first, second)
	}
	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}

	var none *prompt.Redactor
	if got := none.Redact("10.1.2.3"); got != "10.1.2.3" {
		t.Errorf("nil Redactor changed text: %q", got)
	}

	if _, err := prompt.NewRedactor([]string{"ipv4", "ssn"}); err == nil {
		t.Error("NewRedactor() should reject unknown patterns")
	}
}

func TestFromReport_Redacts(t *testing.T) {
	r := &analyzer.Report{
		Lines: []analyzer.LineReport{{Number: 1, Content: "login ops@example.com", Importance: 1}},
		Diff: analyzer.DiffSummary{Entries: []analyzer.DiffEntry{
			{Status: analyzer.DiffMissing, Reference: &analyzer.LineRef{Number: 1, Content: "peer 192.168.0.9 up"}},
		}},
	}
	redactor, err := prompt.NewRedactor([]string{"ipv4", "email"})
	if err != nil {
		t.Fatal(err)
	}

	opts := prompt.FromReport(r, 0, redactor)
	if strings.Contains(opts.Summary, "ops@example.com") || strings.Contains(opts.Summary, "192.168.0.9") {
		t.Errorf("summary leaks values:\n%s", opts.Summary)
	}
	if !strings.Contains(opts.Summary, "[EMAIL:") || !strings.Contains(opts.Summary, "[IPV4:") {
		t.Errorf("summary missing placeholders:\n%s", opts.Summary)
	}
}
