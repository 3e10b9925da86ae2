package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/config"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/keymap"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/marcus/scribe/internal/state"
	"github.com/marcus/scribe/internal/ui"
)

// ModalKind identifies an app-level modal with explicit priority ordering.
// Lower values = higher priority (checked first for rendering and input routing).
type ModalKind int

const (
	ModalNone        ModalKind = iota // No modal open
	ModalQuitConfirm                  // Quit confirmation dialog
	ModalHelp                         // Help overlay
)

// activeModal returns the highest-priority open modal.
func (m *Model) activeModal() ModalKind {
	switch {
	case m.quitDialog != nil:
		return ModalQuitConfirm
	case m.showHelp:
		return ModalHelp
	default:
		return ModalNone
	}
}

// hasModal returns true if any app-level modal is open.
func (m *Model) hasModal() bool {
	return m.activeModal() != ModalNone
}

// TabBounds represents the X position range of a tab for mouse hit testing.
type TabBounds struct {
	Start, End int
}

// Model is the root Bubble Tea model for scribe.
type Model struct {
	cfg *config.Config

	// Plugin management
	registry     *plugin.Registry
	activePlugin int

	// Keymap
	keymap        *keymap.Registry
	activeContext string

	// Shared user directory; fetch results are applied here once before
	// plugins see them.
	directory *directory.Cache

	// UI state
	width, height int
	showHelp      bool
	showFooter    bool
	quitDialog    *ui.ConfirmDialog
	clock         time.Time

	// Status/toast messages
	statusMsg     string
	statusExpiry  time.Time
	statusIsError bool

	ready          bool
	currentVersion string
}

// New creates a new application model.
// initialPluginID optionally specifies which plugin to focus on startup (empty = first plugin).
func New(reg *plugin.Registry, km *keymap.Registry, cfg *config.Config, dir *directory.Cache, currentVersion, initialPluginID string) Model {
	activeIdx := 0
	if initialPluginID != "" {
		for i, p := range reg.Plugins() {
			if p.ID() == initialPluginID {
				activeIdx = i
				break
			}
		}
	}

	showFooter := true
	if cfg != nil {
		showFooter = cfg.UI.ShowFooter
	}

	m := Model{
		cfg:            cfg,
		registry:       reg,
		keymap:         km,
		directory:      dir,
		activePlugin:   activeIdx,
		activeContext:  "global",
		showFooter:     showFooter,
		clock:          time.Now(),
		currentVersion: currentVersion,
	}
	if p := m.ActivePlugin(); p != nil {
		p.SetFocused(true)
		m.activeContext = p.FocusContext()
	}
	return m
}

// Init initializes the model and returns initial commands.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}

	// Start all registered plugins
	cmds = append(cmds, m.registry.Start()...)
	return tea.Batch(cmds...)
}

// ActivePlugin returns the currently active plugin.
func (m Model) ActivePlugin() plugin.Plugin {
	plugins := m.registry.Plugins()
	if len(plugins) == 0 {
		return nil
	}
	if m.activePlugin >= len(plugins) {
		return plugins[0]
	}
	return plugins[m.activePlugin]
}

// SetActivePlugin sets the active plugin by index and returns a command
// to notify the plugin it has been focused.
func (m *Model) SetActivePlugin(idx int) tea.Cmd {
	plugins := m.registry.Plugins()
	if idx < 0 || idx >= len(plugins) {
		return nil
	}
	if current := m.ActivePlugin(); current != nil {
		current.SetFocused(false)
	}
	m.activePlugin = idx
	next := m.ActivePlugin()
	next.SetFocused(true)
	m.activeContext = next.FocusContext()

	if err := state.SetActivePlugin(next.ID()); err != nil {
		m.registry.Context().Logger.Debug("app: save state failed", "error", err)
	}
	return PluginFocused()
}

// NextPlugin switches to the next plugin.
func (m *Model) NextPlugin() tea.Cmd {
	plugins := m.registry.Plugins()
	if len(plugins) == 0 {
		return nil
	}
	return m.SetActivePlugin((m.activePlugin + 1) % len(plugins))
}

// PrevPlugin switches to the previous plugin.
func (m *Model) PrevPlugin() tea.Cmd {
	plugins := m.registry.Plugins()
	if len(plugins) == 0 {
		return nil
	}
	idx := m.activePlugin - 1
	if idx < 0 {
		idx = len(plugins) - 1
	}
	return m.SetActivePlugin(idx)
}

// FocusPluginByID switches to a plugin by its ID.
func (m *Model) FocusPluginByID(id string) tea.Cmd {
	for i, p := range m.registry.Plugins() {
		if p.ID() == id {
			return m.SetActivePlugin(i)
		}
	}
	return nil
}

// ShowToast displays a temporary status message.
func (m *Model) ShowToast(msg string, duration time.Duration, isError bool) {
	m.statusMsg = msg
	m.statusIsError = isError
	m.statusExpiry = time.Now().Add(duration)
}

// ClearToast clears any expired toast message.
func (m *Model) ClearToast() {
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
		m.statusIsError = false
	}
}

// openQuitConfirm shows the quit dialog.
func (m *Model) openQuitConfirm() {
	d := ui.NewConfirmDialog("Quit scribe?", "Unsaved edits are saved on the way out.")
	d.ConfirmLabel = " Quit "
	d.Danger = true
	d.Width = ui.ModalWidthSmall
	m.quitDialog = d
}

// quit stops plugins, which flush their state, and exits.
func (m *Model) quit() tea.Cmd {
	m.quitDialog = nil
	m.registry.Stop()
	return tea.Quit
}

// contentHeight is the height available to the active plugin.
func (m Model) contentHeight() int {
	h := m.height - headerHeight
	if m.showFooter {
		h -= footerHeight
	}
	return max(h, 0)
}
