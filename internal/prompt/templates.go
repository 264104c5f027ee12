package prompt

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/driftlog/internal/llm"
)

// Build constructs a []llm.Message slice ready to be sent to any llm.Provider.
//
// The slice is a system message chosen by pt followed by one user message
// carrying the report context. Returns ErrMissingField if Summary is empty.
func Build(pt PromptType, opts BuildOptions) ([]llm.Message, error) {
	if opts.Summary == "" {
		return nil, missingField("Summary")
	}
	if _, err := ParseType(string(pt)); err != nil {
		return nil, err
	}

	return []llm.Message{
		{Role: "system", Content: systemPrompt(pt)},
		{Role: "user", Content: buildUserMessage(pt, opts)},
	}, nil
}

func buildUserMessage(pt PromptType, opts BuildOptions) string {
	var sb strings.Builder

	switch pt {
	case TypeTriage:
		sb.WriteString("Triage the flagged lines in the following comparison report:\n\n")
	default:
		sb.WriteString("Explain how the candidate run differs from the reference run:\n\n")
	}

	if opts.Reference != "" {
		fmt.Fprintf(&sb, "Reference file: %s\n", opts.Reference)
	}
	if opts.Candidate != "" {
		fmt.Fprintf(&sb, "Candidate file: %s\n", opts.Candidate)
	}
	if opts.Reference != "" || opts.Candidate != "" {
		sb.WriteString("\n")
	}

	sb.WriteString(opts.Summary)
	sb.WriteString("\n\n")

	appendNotes(&sb, opts)
	return sb.String()
}

func appendNotes(sb *strings.Builder, opts BuildOptions) {
	var notes []string
	if len(opts.Heuristics) > 0 {
		notes = append(notes, "Heuristics applied: "+strings.Join(opts.Heuristics, ", "))
	}
	if opts.MinScore > 0 {
		notes = append(notes, fmt.Sprintf("Lines below importance %.2f were omitted", opts.MinScore))
	}
	if len(notes) > 0 {
		sb.WriteString("Note: ")
		sb.WriteString(strings.Join(notes, "; "))
		sb.WriteString(".\n")
	}
}
