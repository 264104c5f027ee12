package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts "auto", "always" or "never" to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (must be auto, always or never)", s)
	}
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// Importance thresholds for coloring scores.
const (
	scoreHigh   = 0.8
	scoreMedium = 0.5
)

// palette holds the styles used for text output. Without color every
// style renders its input unchanged.
type palette struct {
	high   lipgloss.Style
	medium lipgloss.Style
	low    lipgloss.Style
	detail lipgloss.Style
	label  lipgloss.Style
}

func newPalette(w io.Writer, colorize bool) palette {
	r := lipgloss.NewRenderer(w)
	if colorize {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return palette{
		high:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // red bold
		medium: r.NewStyle().Foreground(lipgloss.Color("220")),            // yellow
		low:    r.NewStyle().Foreground(lipgloss.Color("245")),            // gray
		detail: r.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
		label:  r.NewStyle().Foreground(lipgloss.Color("39")), // cyan
	}
}

// forScore picks the style for an importance value.
func (p palette) forScore(v float64) lipgloss.Style {
	switch {
	case v >= scoreHigh:
		return p.high
	case v >= scoreMedium:
		return p.medium
	default:
		return p.low
	}
}
