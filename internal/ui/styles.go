package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docsift/docsift/internal/highlight"
)

// Color palette - single lime accent for a professional, distinctive look
const (
	ColorLime     = "154" // Primary accent (#AFFF00) - bright lime green
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Separators, de-emphasized text
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings, highlighted terms
)

// Styles holds the styles for rendering search results.
type Styles struct {
	// Header styles the result-count line.
	Header lipgloss.Style

	// Source styles the "Source (Location)" line of each result.
	Source lipgloss.Style

	// Score styles the per-result score suffix.
	Score lipgloss.Style

	// Highlight styles matched query terms inside passage text.
	Highlight lipgloss.Style

	// Link styles the passage link line.
	Link lipgloss.Style

	// Dim de-emphasizes separators and secondary text.
	Dim lipgloss.Style
}

// DefaultStyles returns the styled components for TTY output.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Source:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Score:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorYellow)),
		Link:      lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color(ColorGray)),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle(),
		Source:    lipgloss.NewStyle(),
		Score:     lipgloss.NewStyle(),
		Highlight: lipgloss.NewStyle(),
		Link:      lipgloss.NewStyle(),
		Dim:       lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// RenderHighlights converts marker-tagged passage text into terminal output,
// replacing each marker pair with the given style. Unpaired markers are left
// in place.
func RenderHighlights(text string, style lipgloss.Style) string {
	var b strings.Builder
	b.Grow(len(text))

	for {
		start := strings.Index(text, highlight.DefaultOpen)
		if start < 0 {
			break
		}
		rest := text[start+len(highlight.DefaultOpen):]
		end := strings.Index(rest, highlight.DefaultClose)
		if end < 0 {
			break
		}
		b.WriteString(text[:start])
		b.WriteString(style.Render(rest[:end]))
		text = rest[end+len(highlight.DefaultClose):]
	}

	b.WriteString(text)
	return b.String()
}
