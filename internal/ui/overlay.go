// Package ui provides modal, popup and compositing helpers.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DimStyle grays out the content behind a modal. Existing colors are
// stripped first; faint does not combine with them in most terminals.
var DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

// maxLineWidth returns the maximum visual width of the given lines.
func maxLineWidth(lines []string) int {
	w := 0
	for _, line := range lines {
		w = max(w, ansi.StringWidth(line))
	}
	return w
}

// dimLine strips ANSI codes and applies dim gray styling.
func dimLine(s string) string {
	return DimStyle.Render(ansi.Strip(s))
}

// OverlayModal centers modal over a dimmed copy of background, padded
// or cut to height rows.
func OverlayModal(background, modal string, width, height int) string {
	bgLines := strings.Split(background, "\n")
	dimmed := make([]string, height)
	for y := range dimmed {
		if y < len(bgLines) {
			dimmed[y] = dimLine(bgLines[y])
		}
	}

	modalLines := strings.Split(modal, "\n")
	x := max((width-maxLineWidth(modalLines))/2, 0)
	y := max((height-len(modalLines))/2, 0)
	out := strings.Split(OverlayAt(strings.Join(dimmed, "\n"), modal, x, y), "\n")
	if len(out) > height {
		out = out[:height]
	}
	return strings.Join(out, "\n")
}

// OverlayAt draws popup over background with its top-left cell at (x, y).
// Unlike OverlayModal the background keeps its styling. Popup rows that
// fall past the last background line extend the output.
func OverlayAt(background, popup string, x, y int) string {
	bgLines := strings.Split(background, "\n")
	popLines := strings.Split(popup, "\n")
	popWidth := maxLineWidth(popLines)
	x = max(x, 0)
	y = max(y, 0)

	for len(bgLines) < y+len(popLines) {
		bgLines = append(bgLines, "")
	}

	for i, pl := range popLines {
		row := y + i
		bg := bgLines[row]
		bgWidth := ansi.StringWidth(bg)

		var b strings.Builder
		left := ansi.Truncate(bg, x, "")
		b.WriteString(left)
		if w := ansi.StringWidth(left); w < x {
			b.WriteString(strings.Repeat(" ", x-w))
		}
		b.WriteString(pl)
		if pw := ansi.StringWidth(pl); pw < popWidth {
			b.WriteString(strings.Repeat(" ", popWidth-pw))
		}
		if right := x + popWidth; bgWidth > right {
			b.WriteString(ansi.Cut(bg, right, bgWidth))
		}
		bgLines[row] = b.String()
	}
	return strings.Join(bgLines, "\n")
}
