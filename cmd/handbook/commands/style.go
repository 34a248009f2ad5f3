package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent  lipgloss.Color = "#f5c2e7"
	colorMuted   lipgloss.Color = "#7f849c"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorWarning lipgloss.Color = "#f9e2af"
	colorError   lipgloss.Color = "#f38ba8"
)

var (
	headingStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

const progressWidth = 30

// progressBar draws percent (0-100) as a fixed-width bar
func progressBar(percent float64) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * progressWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressWidth-filled)

	style := successStyle
	switch {
	case percent >= 100:
		style = errorStyle
	case percent >= 80:
		style = warningStyle
	}
	return style.Render(bar) + fmt.Sprintf(" %.0f%%", percent)
}

// checkbox renders a done marker
func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
