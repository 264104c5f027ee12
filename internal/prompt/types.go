package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// PromptType identifies the task a prompt asks the model to perform.
type PromptType string

const (
	// TypeExplain asks for a narrative account of how the candidate run
	// diverges from the reference run. It is the default for `driftlog explain`.
	TypeExplain PromptType = "explain"

	// TypeTriage asks the model to rank the flagged lines by how likely they
	// are to be the cause of a failure, with evidence for each.
	TypeTriage PromptType = "triage"
)

// Types lists every PromptType accepted by Build.
var Types = []PromptType{TypeExplain, TypeTriage}

// ParseType converts a --type value to a PromptType.
func ParseType(s string) (PromptType, error) {
	for _, pt := range Types {
		if strings.EqualFold(s, string(pt)) {
			return pt, nil
		}
	}
	return "", fmt.Errorf("unknown prompt type %q (must be explain or triage)", s)
}

// BuildOptions holds the context a prompt is built from.
type BuildOptions struct {
	// Summary is the compact report text, usually from FromReport.
	// Required.
	Summary string

	// Reference and Candidate name the compared files.
	// Optional: included as context when non-empty.
	Reference string
	Candidate string

	// Heuristics lists the scoring stages that ran.
	// Optional: appended as a context note when non-empty.
	Heuristics []string

	// MinScore is the importance a line needed to be flagged.
	// Optional: appended as a context note when positive.
	MinScore float64
}

// ErrMissingField is returned by [Build] when a required field is absent
// from [BuildOptions].
var ErrMissingField = errors.New("prompt: missing required field")

func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
