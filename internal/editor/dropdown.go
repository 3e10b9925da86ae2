package editor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/scribe/internal/mention"
	"github.com/marcus/scribe/internal/mouse"
	"github.com/marcus/scribe/internal/styles"
	"github.com/mattn/go-runewidth"
)

// Dropdown messages.
const (
	LoadingText     = "Loading users..."
	FailedText      = "Oops, users went for coffee"
	FailedRetryText = "Try typing " + string(mention.Trigger) + " again"
	EmptyText       = "No users found"
)

const (
	dropdownWidth = 32 // outer width including border
	rowsPerUser   = 2
)

// dropdownView is a rendered dropdown plus the geometry needed for hit
// testing. Rects are relative to the editor content origin.
type dropdownView struct {
	box  string
	rect mouse.Rect
	rows []mouse.Rect
}

// renderDropdown draws dd with its top-left corner at (x, y) and returns
// the candidate row rectangles in the same coordinate space.
func renderDropdown(dd mention.Dropdown, x, y, maxWidth int) dropdownView {
	outer := min(dropdownWidth, max(maxWidth, 8))
	inner := outer - 2

	var lines []string
	hint := func(s string) {
		lines = append(lines, styles.DropdownHint.Width(inner).Render(fit(s, inner-2)))
	}

	switch dd.Status {
	case mention.DropdownLoading:
		hint(LoadingText)
	case mention.DropdownFailed:
		hint(FailedText)
		hint(FailedRetryText)
	case mention.DropdownEmpty:
		hint(EmptyText)
	case mention.DropdownPopulated:
		for i, u := range dd.Candidates {
			style := styles.DropdownItem
			if i == dd.Highlighted {
				style = styles.DropdownSelected
			}
			name := u.FullName()
			lines = append(lines,
				style.Width(inner).Render(fit("@"+u.Username, inner-2)),
				style.Width(inner).Foreground(styles.TextMuted).Render(fit(name, inner-2)),
			)
		}
	}

	box := styles.Dropdown.Width(inner).Render(strings.Join(lines, "\n"))
	v := dropdownView{
		box:  box,
		rect: mouse.Rect{X: x, Y: y, W: lipgloss.Width(box), H: lipgloss.Height(box)},
	}
	if dd.Status == mention.DropdownPopulated {
		for i := range dd.Candidates {
			v.rows = append(v.rows, mouse.Rect{X: x + 1, Y: y + 1 + i*rowsPerUser, W: inner, H: rowsPerUser})
		}
	}
	return v
}

// dropdownHeight is the outer height of the box for dd.
func dropdownHeight(dd mention.Dropdown) int {
	switch dd.Status {
	case mention.DropdownFailed:
		return 4
	case mention.DropdownPopulated:
		return 2 + rowsPerUser*len(dd.Candidates)
	default:
		return 3
	}
}

// placeDropdown positions a box of size w x h one row below the anchor
// cell, shifted left and then above the anchor to fit inside the area.
func placeDropdown(anchorX, anchorY, w, h, areaW, areaH int) (int, int) {
	x := anchorX
	if x+w > areaW {
		x = max(areaW-w, 0)
	}
	y := anchorY + 1
	if y+h > areaH {
		if above := anchorY - h; above >= 0 {
			y = above
		} else {
			y = max(areaH-h, 0)
		}
	}
	return x, y
}

// fit truncates s to width cells.
func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
