package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/plugin"
)

// Message types for tea.Cmd
type (
	// TickMsg is sent on each clock tick.
	TickMsg time.Time

	// ErrorMsg represents an error condition.
	ErrorMsg struct {
		Err error
	}

	// FocusPluginByIDMsg requests focusing a specific plugin by ID.
	FocusPluginByIDMsg struct {
		PluginID string
	}
)

// tickCmd returns a command that ticks every second.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// ReportError returns a command to report an error.
func ReportError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Err: err}
	}
}

// PluginFocused returns a command that sends plugin.PluginFocusedMsg.
func PluginFocused() tea.Cmd {
	return func() tea.Msg {
		return plugin.PluginFocusedMsg{}
	}
}

// FocusPlugin returns a command that requests focusing a plugin by ID.
func FocusPlugin(pluginID string) tea.Cmd {
	return func() tea.Msg {
		return FocusPluginByIDMsg{PluginID: pluginID}
	}
}
