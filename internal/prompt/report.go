package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bimmerbailey/driftlog/internal/analyzer"
)

// DefaultMaxLines caps the flagged and missing lines FromReport includes.
const DefaultMaxLines = 30

// maxContent truncates long log lines in the prompt.
const maxContent = 200

// FromReport renders r as compact prompt context and fills the matching
// BuildOptions. At most maxLines flagged lines and maxLines missing lines
// are included; maxLines <= 0 means DefaultMaxLines. Log content passes
// through redactor, which may be nil.
func FromReport(r *analyzer.Report, maxLines int, redactor *Redactor) BuildOptions {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Overview ===\n")
	fmt.Fprintf(&sb, "reference: %d lines over %.1fs\n", r.Reference.Lines, r.Reference.Duration)
	fmt.Fprintf(&sb, "candidate: %d lines over %.1fs\n", r.Candidate.Lines, r.Candidate.Duration)
	fmt.Fprintf(&sb, "templates: %d, mean importance %.3f, flagged %d\n", r.Templates, r.MeanImportance, r.Flagged)
	fmt.Fprintf(&sb, "diff: %d ok, %d additional, %d missing\n", r.Diff.OK, r.Diff.Additional, r.Diff.Missing)

	if len(r.Lines) > 0 {
		sb.WriteString("\n=== Flagged candidate lines ===\n")
		for i, l := range r.Lines {
			if i == maxLines {
				fmt.Fprintf(&sb, "(%d more omitted)\n", len(r.Lines)-maxLines)
				break
			}
			fmt.Fprintf(&sb, "[%.3f] line %d: %s\n", l.Importance, l.Number, clip(redactor.Redact(l.Content)))
			var parts []string
			for _, s := range l.Scores {
				parts = append(parts, fmt.Sprintf("%s=%.2f", s.Key, s.Value))
			}
			if l.Keyword != "" {
				parts = append(parts, "keyword "+l.Keyword)
			}
			if len(parts) > 0 {
				fmt.Fprintf(&sb, "  scores: %s\n", strings.Join(parts, " "))
			}
			if l.Reference != nil {
				fmt.Fprintf(&sb, "  matches reference line %d: %s\n", l.Reference.Number, clip(redactor.Redact(l.Reference.Content)))
			} else {
				sb.WriteString("  no matching reference line\n")
			}
		}
	}

	var missing []analyzer.DiffEntry
	for _, e := range r.Diff.Entries {
		if e.Status == analyzer.DiffMissing {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		sb.WriteString("\n=== MISSING reference lines ===\n")
		for i, e := range missing {
			if i == maxLines {
				fmt.Fprintf(&sb, "(%d more omitted)\n", len(missing)-maxLines)
				break
			}
			fmt.Fprintf(&sb, "line %d: %s\n", e.Reference.Number, clip(redactor.Redact(e.Reference.Content)))
		}
	}

	for _, e := range r.Errors {
		fmt.Fprintf(&sb, "\nwarning: %s\n", e)
	}

	heuristics := make([]string, len(r.Heuristics))
	for i, h := range r.Heuristics {
		heuristics[i] = h.Key
	}

	return BuildOptions{
		Summary:    strings.TrimRight(sb.String(), "\n"),
		Reference:  r.Reference.Name,
		Candidate:  r.Candidate.Name,
		Heuristics: heuristics,
		MinScore:   r.MinScore,
	}
}

func clip(s string) string {
	if len(s) <= maxContent {
		return s
	}
	cut := maxContent - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
