package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/scribe/internal/mouse"
	"github.com/marcus/scribe/internal/styles"
)

// Modal widths.
const (
	ModalWidthSmall  = 40
	ModalWidthMedium = 50
	ModalWidthLarge  = 70
)

// Dialog actions returned by HandleKey and HitTest.
const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// ConfirmDialog is a yes/no modal with two buttons.
type ConfirmDialog struct {
	Title        string
	Message      string
	ConfirmLabel string // e.g., " Quit ", " Delete "
	CancelLabel  string
	Danger       bool // red confirm button
	Width        int

	// Focus is 0 for confirm, 1 for cancel.
	Focus int
}

// NewConfirmDialog creates a dialog with default labels.
func NewConfirmDialog(title, message string) *ConfirmDialog {
	return &ConfirmDialog{
		Title:        title,
		Message:      message,
		ConfirmLabel: " Confirm ",
		CancelLabel:  " Cancel ",
		Width:        ModalWidthMedium,
	}
}

// HandleKey maps a key to an action. Tab and arrows move focus; enter
// activates the focused button; y and n are shortcuts; esc cancels.
func (d *ConfirmDialog) HandleKey(msg tea.KeyMsg) string {
	switch msg.String() {
	case "tab", "shift+tab", "left", "right", "h", "l":
		d.Focus = 1 - d.Focus
	case "enter":
		if d.Focus == 0 {
			return ActionConfirm
		}
		return ActionCancel
	case "y":
		return ActionConfirm
	case "n", "esc":
		return ActionCancel
	}
	return ""
}

func (d *ConfirmDialog) buttons() (string, string) {
	confirm, cancel := styles.Button, styles.Button
	if d.Focus == 0 {
		confirm = styles.ButtonFocused
		if d.Danger {
			confirm = styles.ButtonDangerFocused
		}
	} else {
		cancel = styles.ButtonFocused
	}
	return confirm.Render(d.ConfirmLabel), cancel.Render(d.CancelLabel)
}

// Render draws the dialog box.
func (d *ConfirmDialog) Render() string {
	confirm, cancel := d.buttons()
	inner := max(d.Width-6, 10) // border and padding

	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render(d.Title))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(inner).Render(d.Message))
	b.WriteString("\n\n")
	b.WriteString(confirm + " " + cancel)
	return styles.ModalBox.Render(b.String())
}

// ButtonRects returns the screen rectangles of the confirm and cancel
// buttons when the dialog is centered in a width x height screen.
func (d *ConfirmDialog) ButtonRects(width, height int) (mouse.Rect, mouse.Rect) {
	box := d.Render()
	lines := strings.Split(box, "\n")
	boxW := maxLineWidth(lines)
	boxH := len(lines)
	x := max((width-boxW)/2, 0)
	y := max((height-boxH)/2, 0)

	// Buttons sit on the last content row, inside border (1) and padding (2x1).
	row := y + boxH - 3
	confirm, cancel := d.buttons()
	cw := lipgloss.Width(confirm)
	left := x + 1 + 2
	return mouse.Rect{X: left, Y: row, W: cw, H: 1},
		mouse.Rect{X: left + cw + 1, Y: row, W: lipgloss.Width(cancel), H: 1}
}

// HitTest returns the action for a click at (x, y), or "".
func (d *ConfirmDialog) HitTest(x, y, width, height int) string {
	confirm, cancel := d.ButtonRects(width, height)
	switch {
	case confirm.Contains(x, y):
		return ActionConfirm
	case cancel.Contains(x, y):
		return ActionCancel
	}
	return ""
}
