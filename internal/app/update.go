package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/config"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/msg"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/marcus/scribe/internal/ui"
)

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(message)

	case tea.MouseMsg:
		return m.handleMouseMsg(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		// Plugins lay out against the content area, not the full window.
		return m.broadcast(tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()})

	case TickMsg:
		m.clock = time.Time(message)
		m.ClearToast()
		return m, tickCmd()

	case msg.ToastMsg:
		m.ShowToast(message.Message, message.Duration, message.IsError)
		return m, nil

	case ErrorMsg:
		m.registry.Context().Logger.Error("app: error", "error", message.Err)
		m.ShowToast("Error: "+message.Err.Error(), 5*time.Second, true)
		return m, nil

	case FocusPluginByIDMsg:
		return m, m.FocusPluginByID(message.PluginID)

	case directory.FetchedMsg:
		// Apply once to the shared cache; every editor then reads the
		// same snapshot.
		if m.directory != nil {
			m.directory.Apply(message)
		}
	}

	// Forward other messages to ALL plugins (not just active) so async
	// results reach their owner even when another tab is focused.
	return m.broadcast(message)
}

// broadcast forwards message to every plugin.
func (m Model) broadcast(message tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	plugins := m.registry.Plugins()
	for i, p := range plugins {
		updated, cmd := p.Update(message)
		plugins[i] = updated
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if !m.hasModal() {
		m.updateContext()
	}
	return m, tea.Batch(cmds...)
}

// forwardToActive sends message to the focused plugin only.
func (m Model) forwardToActive(message tea.Msg) (tea.Model, tea.Cmd) {
	p := m.ActivePlugin()
	if p == nil {
		return m, nil
	}
	updated, cmd := p.Update(message)
	plugins := m.registry.Plugins()
	if m.activePlugin < len(plugins) {
		plugins[m.activePlugin] = updated
	}
	m.updateContext()
	return m, cmd
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.activeModal() {
	case ModalQuitConfirm:
		switch m.quitDialog.HandleKey(key) {
		case ui.ActionConfirm:
			return m, m.quit()
		case ui.ActionCancel:
			m.quitDialog = nil
			m.updateContext()
		}
		return m, nil
	case ModalHelp:
		if cmd, ok := m.keymap.Lookup(key.String(), "global"); key.Type == tea.KeyEsc || (ok && cmd == "toggle-help") {
			m.showHelp = false
			m.updateContext()
		}
		return m, nil
	}

	// ctrl+c always asks, even while typing.
	if key.String() == "ctrl+c" {
		m.openQuitConfirm()
		return m, nil
	}

	// Text input contexts get every other key, including q and ?.
	if p := m.ActivePlugin(); p != nil {
		if tc, ok := p.(plugin.TextInputConsumer); ok && tc.ConsumesTextInput() {
			return m.forwardToActive(key)
		}
	}

	if cmd, ok := m.keymap.Lookup(key.String(), m.activeContext); ok {
		switch cmd {
		case "quit":
			m.openQuitConfirm()
			return m, nil
		case "next-plugin":
			return m, m.NextPlugin()
		case "prev-plugin":
			return m, m.PrevPlugin()
		case "focus-plugin-1":
			return m, m.SetActivePlugin(0)
		case "focus-plugin-2":
			return m, m.SetActivePlugin(1)
		case "toggle-help":
			m.showHelp = true
			return m, nil
		case "toggle-footer":
			m.showFooter = !m.showFooter
			if m.cfg != nil {
				m.cfg.UI.ShowFooter = m.showFooter
				if err := config.Save(m.cfg); err != nil {
					m.registry.Context().Logger.Debug("app: save config failed", "error", err)
				}
			}
			// Content height changed.
			return m.broadcast(tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()})
		}
	}

	return m.forwardToActive(key)
}

// handleMouseMsg routes mouse input to the header, modals or the active
// plugin. Plugins receive coordinates relative to the content area.
func (m Model) handleMouseMsg(mm tea.MouseMsg) (tea.Model, tea.Cmd) {
	leftPress := mm.Action == tea.MouseActionPress && mm.Button == tea.MouseButtonLeft

	switch m.activeModal() {
	case ModalQuitConfirm:
		if leftPress {
			switch m.quitDialog.HitTest(mm.X, mm.Y, m.width, m.height) {
			case ui.ActionConfirm:
				return m, m.quit()
			case ui.ActionCancel:
				m.quitDialog = nil
				m.updateContext()
			}
		}
		return m, nil
	case ModalHelp:
		return m, nil
	}

	// Motion and release always reach the plugin so drags that leave the
	// content area still end.
	if mm.Action == tea.MouseActionPress {
		if mm.Y < headerHeight {
			if leftPress && mm.Y == 0 {
				for i, b := range m.getTabBounds() {
					if mm.X >= b.Start && mm.X < b.End {
						return m, m.SetActivePlugin(i)
					}
				}
			}
			return m, nil
		}
		if mm.Y-headerHeight >= m.contentHeight() {
			return m, nil
		}
	}
	mm.Y -= headerHeight
	return m.forwardToActive(mm)
}

// updateContext sets activeContext based on current state.
func (m *Model) updateContext() {
	if p := m.ActivePlugin(); p != nil {
		m.activeContext = p.FocusContext()
	} else {
		m.activeContext = "global"
	}
}
