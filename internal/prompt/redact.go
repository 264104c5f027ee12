package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"
)

// RedactionPattern detects one kind of sensitive value.
type RedactionPattern struct {
	Name  string
	Regex *regexp.Regexp
	Type  string // placeholder prefix, as in [IPV4:a3f2]
}

var redactionPatterns = map[string]RedactionPattern{
	"ipv4": {
		Name:  "ipv4",
		Regex: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
		Type:  "IPV4",
	},
	"email": {
		Name:  "email",
		Regex: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		Type:  "EMAIL",
	},
	"api_key": {
		Name:  "api_key",
		Regex: regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|token|secret|password|passwd|pwd)["\s]*[:=]["\s]*[a-zA-Z0-9_\-]{8,}`),
		Type:  "SECRET",
	},
	"aws_key": {
		Name:  "aws_key",
		Regex: regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		Type:  "AWS_KEY",
	},
	"jwt": {
		Name:  "jwt",
		Regex: regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*\b`),
		Type:  "JWT",
	},
	"private_key": {
		Name:  "private_key",
		Regex: regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
		Type:  "PRIVATE_KEY",
	},
	"mac_address": {
		Name:  "mac_address",
		Regex: regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`),
		Type:  "MAC",
	},
}

// DefaultRedactionPatterns are applied when no pattern names are configured.
var DefaultRedactionPatterns = []string{"ipv4", "email", "api_key", "aws_key", "jwt", "private_key"}

// Redactor replaces sensitive values before log lines are sent to a model.
//
// The same value always gets the same placeholder, so the model can still
// tell that two lines mention the same address.
type Redactor struct {
	patterns []RedactionPattern
	seen     map[string]string // value -> placeholder
	mu       sync.Mutex
}

// NewRedactor builds a Redactor for the named patterns; no names means
// DefaultRedactionPatterns. Unknown names are an error.
func NewRedactor(names []string) (*Redactor, error) {
	if len(names) == 0 {
		names = DefaultRedactionPatterns
	}
	r := &Redactor{seen: make(map[string]string)}
	for _, n := range names {
		p, ok := redactionPatterns[n]
		if !ok {
			return nil, fmt.Errorf("unknown redaction pattern %q", n)
		}
		r.patterns = append(r.patterns, p)
	}
	return r, nil
}

// Redact returns text with every sensitive value replaced. A nil Redactor
// returns text unchanged.
func (r *Redactor) Redact(text string) string {
	if r == nil {
		return text
	}
	for _, p := range r.patterns {
		text = p.Regex.ReplaceAllStringFunc(text, func(match string) string {
			return r.placeholder(match, p.Type)
		})
	}
	return text
}

// Count returns the number of distinct values redacted so far.
func (r *Redactor) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *Redactor) placeholder(value, kind string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ph, ok := r.seen[value]; ok {
		return ph
	}
	h := sha256.Sum256([]byte(value))
	ph := fmt.Sprintf("[%s:%s]", kind, hex.EncodeToString(h[:2]))
	r.seen[value] = ph
	return ph
}
