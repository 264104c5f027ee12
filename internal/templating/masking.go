package templating

import (
	"fmt"
	"regexp"

	"github.com/bimmerbailey/driftlog/internal/logfile"
)

// MaskingInstruction replaces every match of Regex with "<Name>" before a
// message is clustered, so variable spans do not split clusters.
type MaskingInstruction struct {
	Name  string
	Regex *regexp.Regexp
}

// NewMaskingInstruction compiles pattern into an instruction.
func NewMaskingInstruction(name, pattern string) (MaskingInstruction, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return MaskingInstruction{}, fmt.Errorf("masking instruction %s: %w", name, err)
	}
	return MaskingInstruction{Name: name, Regex: re}, nil
}

// Placeholder returns the text a match is replaced with.
func (m MaskingInstruction) Placeholder() string {
	return "<" + m.Name + ">"
}

// Apply masks every match of the instruction in text.
func (m MaskingInstruction) Apply(text string) string {
	return m.Regex.ReplaceAllLiteralString(text, m.Placeholder())
}

// Built-in masking instructions for common variable fields.
var (
	ipv4Regex = regexp.MustCompile(`\b(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(?:\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)){3}\b`)

	// 24h clock times: 09:15, 23:59:01
	timeRegex = regexp.MustCompile(`\b[0-9]{1,2}:[0-9]{2}(?::[0-9]{2})?\b`)

	// Unix paths: /var/log/app, /usr/lib/
	unixPathRegex = regexp.MustCompile(`(?:/[a-zA-Z0-9._\-]+)+/?`)

	uuidRegex = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	hexRegex = regexp.MustCompile(`\b0[xX][0-9a-fA-F]+\b`)

	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// BuiltInMasking lists the built-in instructions in the order they are
// applied. Longer, more specific shapes come first.
var BuiltInMasking = []MaskingInstruction{
	{Name: "UUID", Regex: uuidRegex},
	{Name: "EMAIL", Regex: emailRegex},
	{Name: "IP", Regex: ipv4Regex},
	{Name: "TIME", Regex: timeRegex},
	{Name: "PATH", Regex: unixPathRegex},
	{Name: "HEX", Regex: hexRegex},
}

// DefaultMinMaskedLines is the number of lines a built-in instruction has
// to match before FindMaskingInstructions suggests it.
const DefaultMinMaskedLines = 5

// MaskingByName returns the built-in instructions with the given names.
func MaskingByName(names []string) ([]MaskingInstruction, error) {
	out := make([]MaskingInstruction, 0, len(names))
	for _, name := range names {
		found := false
		for _, m := range BuiltInMasking {
			if m.Name == name {
				out = append(out, m)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown masking instruction: %s", name)
		}
	}
	return out, nil
}

// FindMaskingInstructions returns the built-in instructions that match at
// least minLines lines of file. Values below 1 use DefaultMinMaskedLines.
func FindMaskingInstructions(file *logfile.LogFile, minLines int) []MaskingInstruction {
	if minLines < 1 {
		minLines = DefaultMinMaskedLines
	}

	var out []MaskingInstruction
	for _, m := range BuiltInMasking {
		n := 0
		for _, l := range file.Lines() {
			if m.Regex.MatchString(l.ContentWithoutTimestamp()) {
				n++
				if n >= minLines {
					break
				}
			}
		}
		if n >= minLines {
			out = append(out, m)
		}
	}
	return out
}

func mask(text string, instructions []MaskingInstruction) string {
	for _, m := range instructions {
		text = m.Apply(text)
	}
	return text
}
