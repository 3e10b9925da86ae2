// Package styles holds the lipgloss palette and shared styles.
package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#3B82F6") // Blue
	Accent    = lipgloss.Color("#F59E0B") // Amber

	Success = lipgloss.Color("#10B981")
	Warning = lipgloss.Color("#F59E0B")
	Error   = lipgloss.Color("#EF4444")
	Info    = lipgloss.Color("#3B82F6")

	TextPrimary   = lipgloss.Color("#F9FAFB")
	TextSecondary = lipgloss.Color("#9CA3AF")
	TextMuted     = lipgloss.Color("#6B7280")
	TextSubtle    = lipgloss.Color("#4B5563")

	BgPrimary   = lipgloss.Color("#111827")
	BgSecondary = lipgloss.Color("#1F2937")
	BgTertiary  = lipgloss.Color("#374151")

	BorderNormal = lipgloss.Color("#374151")
	BorderActive = lipgloss.Color("#7C3AED")

	ToastSuccessTextColor = lipgloss.Color("#000000")
	ToastErrorTextColor   = lipgloss.Color("#FFFFFF")

	// Glamour style used by the markdown preview.
	MarkdownTheme = "dark"
)

// Panels
var (
	PanelActive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderActive).
			Padding(0, 1)

	PanelInactive = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderNormal).
			Padding(0, 1)

	PanelHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextPrimary).
			MarginBottom(1)
)

// Text
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	Body = lipgloss.NewStyle().
		Foreground(TextPrimary)

	Muted = lipgloss.NewStyle().
		Foreground(TextMuted)

	Subtle = lipgloss.NewStyle().
		Foreground(TextSubtle)

	KeyHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgTertiary).
		Padding(0, 1)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)
)

// Toasts
var (
	ToastSuccess = lipgloss.NewStyle().
			Background(Success).
			Foreground(ToastSuccessTextColor).
			Bold(true).
			Padding(0, 1)

	ToastError = lipgloss.NewStyle().
			Background(Error).
			Foreground(ToastErrorTextColor).
			Bold(true).
			Padding(0, 1)
)

// Lists
var (
	ListItemNormal = lipgloss.NewStyle().
			Foreground(TextPrimary)

	ListItemSelected = lipgloss.NewStyle().
				Foreground(TextPrimary).
				Background(BgTertiary)

	ListCursor = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)
)

// Mention tokens and the candidate dropdown
var (
	// Mention renders a committed @username token inside the editor.
	Mention = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Caret = lipgloss.NewStyle().
		Reverse(true)

	Dropdown = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderActive).
			Background(BgSecondary)

	DropdownItem = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Padding(0, 1)

	DropdownSelected = lipgloss.NewStyle().
				Foreground(TextPrimary).
				Background(Primary).
				Padding(0, 1)

	DropdownHint = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1)
)

// Bars
var (
	Header = lipgloss.NewStyle().
		Background(BgSecondary)

	Footer = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(BgSecondary)

	TabActive = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(Primary).
			Bold(true).
			Padding(0, 1)

	TabInactive = lipgloss.NewStyle().
			Foreground(TextSecondary).
			Padding(0, 1)
)

// Modals and buttons
var (
	ModalBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Background(BgSecondary).
			Padding(1, 2)

	ModalTitle = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Bold(true).
			MarginBottom(1)

	Button = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(BgTertiary).
		Padding(0, 2)

	ButtonFocused = lipgloss.NewStyle().
			Foreground(TextPrimary).
			Background(Primary).
			Padding(0, 2).
			Bold(true)

	ButtonDangerFocused = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#DC2626")).
				Padding(0, 2).
				Bold(true)
)

// RenderTab renders a tab label.
func RenderTab(label string, active bool) string {
	if active {
		return TabActive.Render(label)
	}
	return TabInactive.Render(label)
}

// RenderPanel draws content inside a bordered box of the given outer size.
func RenderPanel(content string, width, height int, active bool) string {
	style := PanelInactive
	if active {
		style = PanelActive
	}
	// Border takes one cell on each side.
	innerW := max(width-2, 0)
	innerH := max(height-2, 0)
	return style.Width(innerW).Height(innerH).MaxHeight(height).Render(content)
}
