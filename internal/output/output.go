// Package output renders comparison reports and template listings.
// It supports text, JSON, YAML and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bimmerbailey/driftlog/internal/analyzer"
	"gopkg.in/yaml.v3"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	pal    palette
}

// New creates a new output Writer. Text output is colored according to mode.
func New(w io.Writer, format Format, mode ColorMode) *Writer {
	return &Writer{w: w, format: format, pal: newPalette(w, shouldColorize(mode, w))}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML outputs any value as YAML.
func (wr *Writer) WriteYAML(v interface{}) error {
	enc := yaml.NewEncoder(wr.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// WriteReport outputs a comparison report in the configured format.
func (wr *Writer) WriteReport(r *analyzer.Report) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(r)
	case FormatYAML:
		return wr.WriteYAML(r)
	case FormatTable:
		return wr.writeReportTable(r)
	default:
		return wr.writeReportText(r)
	}
}

// WriteReports outputs several reports. JSON and YAML produce a single
// list; text and table output separate the reports with a blank line.
func (wr *Writer) WriteReports(reports []*analyzer.Report) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(reports)
	case FormatYAML:
		return wr.WriteYAML(reports)
	}
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(wr.w)
		}
		if err := wr.WriteReport(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteSummary outputs only the headline numbers of a report as text.
func (wr *Writer) WriteSummary(r *analyzer.Report) error {
	return wr.writeHeader(r)
}

func (wr *Writer) writeHeader(r *analyzer.Report) error {
	for _, f := range []struct {
		label string
		s     analyzer.FileSummary
	}{{"reference", r.Reference}, {"candidate", r.Candidate}} {
		fmt.Fprintf(wr.w, "%s %s (%d lines, %d timestamped, %.1fs)\n",
			wr.pal.label.Render(f.label+":"), f.s.Name, f.s.Lines, f.s.Timestamped, f.s.Duration)
	}
	fmt.Fprintf(wr.w, "templates: %d  mean importance: %.3f  flagged: %d (min score %.2f)\n",
		r.Templates, r.MeanImportance, r.Flagged, r.MinScore)
	_, err := fmt.Fprintf(wr.w, "diff: %d ok, %d additional, %d missing\n",
		r.Diff.OK, r.Diff.Additional, r.Diff.Missing)
	return err
}

func (wr *Writer) writeReportText(r *analyzer.Report) error {
	if err := wr.writeHeader(r); err != nil {
		return err
	}

	if len(r.Heuristics) > 0 {
		fmt.Fprintln(wr.w)
		tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "HEURISTIC\tSCORED\tMEAN\tMAX")
		for _, h := range r.Heuristics {
			fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\n", h.Key, h.Scored, h.Mean, h.Max)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, l := range r.Lines {
		fmt.Fprintln(wr.w)
		fmt.Fprintf(wr.w, "%s %d: %s\n",
			wr.pal.forScore(l.Importance).Render(fmt.Sprintf("[%.3f]", l.Importance)), l.Number, l.Content)

		scores := make([]string, len(l.Scores))
		for i, s := range l.Scores {
			scores[i] = fmt.Sprintf("%s=%.3f", s.Key, s.Value)
		}
		if len(scores) > 0 {
			fmt.Fprintf(wr.w, "    %s\n", wr.pal.detail.Render(strings.Join(scores, " ")))
		}
		fmt.Fprintf(wr.w, "    template %d: %s\n", l.TemplateID, l.Pattern)
		if l.Reference != nil {
			fmt.Fprintf(wr.w, "    reference %d: %s\n", l.Reference.Number, l.Reference.Content)
		} else {
			fmt.Fprintf(wr.w, "    reference: %s\n", wr.pal.detail.Render("none"))
		}
		if len(l.Unmatched) > 0 {
			fmt.Fprintf(wr.w, "    %d unmatched reference lines nearby\n", len(l.Unmatched))
		}
	}

	for _, e := range r.Errors {
		fmt.Fprintf(wr.w, "\n%s %s\n", wr.pal.high.Render("error:"), e)
	}
	return nil
}

func (wr *Writer) writeReportTable(r *analyzer.Report) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tSCORE\tTEMPLATE\tREF\tCONTENT")
	fmt.Fprintln(tw, "----\t-----\t--------\t---\t-------")

	for _, l := range r.Lines {
		ref := "-"
		if l.Reference != nil {
			ref = fmt.Sprint(l.Reference.Number)
		}
		fmt.Fprintf(tw, "%d\t%.3f\t%d\t%s\t%s\n", l.Number, l.Importance, l.TemplateID, ref, truncate(l.Content, 80))
	}

	return tw.Flush()
}

// TemplateRow is one learned template with its line count per file.
type TemplateRow struct {
	ID      int    `json:"id" yaml:"id"`
	Pattern string `json:"pattern" yaml:"pattern"`
	Total   int    `json:"total" yaml:"total"`
	Counts  []int  `json:"counts" yaml:"counts"`
}

// TemplateListing is the output of the templates command.
type TemplateListing struct {
	Files     []string      `json:"files" yaml:"files"`
	Templates []TemplateRow `json:"templates" yaml:"templates"`
}

// WriteTemplates outputs a template listing in the configured format.
func (wr *Writer) WriteTemplates(l TemplateListing) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(l)
	case FormatYAML:
		return wr.WriteYAML(l)
	}

	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	header := []string{"ID", "TOTAL"}
	for i := range l.Files {
		header = append(header, fmt.Sprintf("F%d", i+1))
	}
	header = append(header, "PATTERN")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, t := range l.Templates {
		cols := []string{fmt.Sprint(t.ID), fmt.Sprint(t.Total)}
		for _, c := range t.Counts {
			cols = append(cols, fmt.Sprint(c))
		}
		cols = append(cols, truncate(t.Pattern, 100))
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for i, f := range l.Files {
		fmt.Fprintf(wr.w, "F%d = %s\n", i+1, f)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
