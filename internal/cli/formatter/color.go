package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// PinStatusStyle colors a student pin status.
func PinStatusStyle(status string) lipgloss.Style {
	switch status {
	case "PASSED", "COMPLETED":
		return StyleGreen
	case "IN_PROGRESS":
		return StyleYellow
	case "UNLOCKED":
		return StyleBlue
	case "FAILED":
		return StyleRed
	default:
		return StyleDim
	}
}

// PinStatusIndicator returns a glyph and label such as "✔ PASSED".
func PinStatusIndicator(status string) string {
	glyph := "·"
	switch status {
	case "PASSED", "COMPLETED":
		glyph = "✔"
	case "IN_PROGRESS":
		glyph = "▶"
	case "UNLOCKED":
		glyph = "○"
	case "FAILED":
		glyph = "✖"
	case "LOCKED":
		glyph = "🔒"
	}
	return PinStatusStyle(status).Render(glyph + " " + status)
}

// ExpeditionStatusPill colors an expedition lifecycle status.
func ExpeditionStatusPill(status string) string {
	switch status {
	case "PUBLISHED":
		return StyleGreen.Render("● Published")
	case "DRAFT":
		return StyleYellow.Render("○ Draft")
	case "ARCHIVED":
		return StyleDim.Render("✖ Archived")
	default:
		return StyleDim.Render(status)
	}
}

// PinTypeBadge renders INTRO/OBJECTIVE/FINAL in a fixed color.
func PinTypeBadge(pinType string) string {
	switch pinType {
	case "INTRO":
		return StyleBlue.Render(pinType)
	case "FINAL":
		return StylePurple.Render(pinType)
	default:
		return StyleFg.Render(pinType)
	}
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
