package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/scribe/internal/styles"
)

// RenderDivider draws the one-column draggable bar between two panes.
func RenderDivider(height int) string {
	height = max(height, 1)
	bar := strings.TrimSuffix(strings.Repeat("│\n", height), "\n")
	return lipgloss.NewStyle().Foreground(styles.BorderNormal).Render(bar)
}
