// Package templating assigns structural templates to log lines.
//
// A Session learns clusters from one or more log files with a Drain miner
// and then annotates each line with the id and pattern of its cluster.
// Ids are stable within a session, so lines of a reference and a candidate
// annotated by the same session can be compared by template id:
//
//	s := templating.NewSession(templating.DefaultDrainConfig)
//	s.Learn(reference, candidate)
//	s.Annotate(reference)
//	s.Annotate(candidate)
//
// Masking instructions replace variable spans such as addresses or paths
// with placeholders before clustering.
package templating

import (
	"log/slog"

	"github.com/bimmerbailey/driftlog/internal/logfile"
)

// Session owns one miner for a learn and annotate cycle.
type Session struct {
	miner   *Miner
	masking []MaskingInstruction
	logger  *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMasking sets the masking instructions applied before clustering.
func WithMasking(instructions ...MaskingInstruction) SessionOption {
	return func(s *Session) { s.masking = append(s.masking, instructions...) }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a Session with a fresh miner.
func NewSession(cfg DrainConfig, opts ...SessionOption) *Session {
	s := &Session{miner: NewMiner(cfg), logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Learn feeds the lines of every file to the miner, timestamps removed.
func (s *Session) Learn(files ...*logfile.LogFile) {
	for _, f := range files {
		for _, l := range f.Lines() {
			s.miner.Learn(s.message(l))
		}
		s.logger.Debug("learned templates", "file", f.Name(), "templates", s.miner.Len())
	}
}

// Annotate assigns a template to every line of file. Lines that match no
// learned cluster are learned first.
func (s *Session) Annotate(file *logfile.LogFile) {
	learned := 0
	for _, l := range file.Lines() {
		msg := s.message(l)
		c, ok := s.miner.Match(msg)
		if !ok {
			id := s.miner.Learn(msg)
			learned++
			if c, ok = s.miner.Cluster(id); !ok {
				// Empty lines share cluster 0.
				c = Cluster{ID: id}
			}
		}
		l.SetTemplate(logfile.Template{ID: c.ID, Pattern: c.Pattern})
	}
	if learned > 0 {
		s.logger.Debug("annotated unseen lines", "file", file.Name(), "learned", learned)
	}
}

// Templates returns the clusters learned so far, most frequent first.
func (s *Session) Templates() []Cluster {
	return s.miner.Clusters()
}

// Masking returns the instructions the session applies.
func (s *Session) Masking() []MaskingInstruction {
	return s.masking
}

func (s *Session) message(l *logfile.LogLine) string {
	return mask(l.ContentWithoutTimestamp(), s.masking)
}
