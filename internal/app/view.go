package app

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/scribe/internal/keymap"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/marcus/scribe/internal/styles"
	"github.com/marcus/scribe/internal/ui"
)

const (
	headerHeight = 2 // header line + spacing
	footerHeight = 1
	minWidth     = 60
	minHeight    = 16
)

const appTitle = " scribe"

// View renders the entire application UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		text := fmt.Sprintf("Terminal too small (%dx%d)\nMinimum: %dx%d",
			m.width, m.height, minWidth, minHeight)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			styles.ErrorText.Render(text))
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderContent(m.width, m.contentHeight()))
	if m.showFooter {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	bg := b.String()
	switch m.activeModal() {
	case ModalQuitConfirm:
		return ui.OverlayModal(bg, m.quitDialog.Render(), m.width, m.height)
	case ModalHelp:
		return ui.OverlayModal(bg, styles.ModalBox.Render(m.buildHelpContent()), m.width, m.height)
	}
	return bg
}

func (m Model) renderTabs() []string {
	plugins := m.registry.Plugins()
	tabs := make([]string, len(plugins))
	for i, p := range plugins {
		label := p.Name()
		if icon := p.Icon(); icon != "" {
			label = icon + " " + label
		}
		tabs[i] = styles.RenderTab(label, i == m.activePlugin)
	}
	return tabs
}

// headerSpacing returns the gap split around the centered tab bar.
func (m Model) headerSpacing(tabs []string) (title, clock string, spacing int) {
	title = styles.Title.Render(appTitle) + " "
	clock = styles.Muted.Render(m.clock.Format("15:04")) + " "
	spacing = m.width - lipgloss.Width(title) - lipgloss.Width(strings.Join(tabs, " ")) - lipgloss.Width(clock)
	return title, clock, max(spacing, 0)
}

func (m Model) renderHeader() string {
	tabs := m.renderTabs()
	title, clock, spacing := m.headerSpacing(tabs)
	header := title + strings.Repeat(" ", spacing/2) + strings.Join(tabs, " ") +
		strings.Repeat(" ", spacing-spacing/2) + clock
	return styles.Header.Width(m.width).MaxWidth(m.width).Render(header)
}

// getTabBounds calculates the X position bounds for each tab in the header.
// Must match renderHeader.
func (m Model) getTabBounds() []TabBounds {
	tabs := m.renderTabs()
	title, _, spacing := m.headerSpacing(tabs)
	x := lipgloss.Width(title) + spacing/2
	bounds := make([]TabBounds, len(tabs))
	for i, t := range tabs {
		w := lipgloss.Width(t)
		bounds[i] = TabBounds{Start: x, End: x + w}
		x += w + 1
	}
	return bounds
}

// renderContent renders the main content area.
func (m Model) renderContent(width, height int) string {
	if height == 0 {
		return ""
	}
	p := m.ActivePlugin()
	if p == nil {
		text := "No plugins loaded"
		for id, reason := range m.registry.Unavailable() {
			text += fmt.Sprintf("\n%s: %s", id, reason)
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styles.Muted.Render(text))
	}
	// MaxHeight truncates tall content so it cannot push the header off-screen.
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(p.View(width, height))
}

// renderFooter renders the bottom bar with key hints and status.
func (m Model) renderFooter() string {
	var status string
	if m.statusMsg != "" {
		toastStyle := styles.ToastSuccess
		if m.statusIsError {
			toastStyle = styles.ToastError
		}
		status = toastStyle.Render(m.statusMsg)
	}

	statusWidth := lipgloss.Width(status)
	hints := renderHintLineTruncated(m.footerHints(), m.width-statusWidth-2)
	spacing := max(m.width-lipgloss.Width(hints)-statusWidth, 0)

	footer := hints + strings.Repeat(" ", spacing) + status
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(footer)
}

type footerHint struct {
	keys  string
	label string
}

func (m Model) footerHints() []footerHint {
	// Plugin hints first; they are the contextually relevant ones.
	var hints []footerHint
	if p := m.ActivePlugin(); p != nil {
		hints = m.pluginFooterHints(p, m.activeContext)
	}
	return append(hints, m.globalFooterHints()...)
}

func (m Model) globalFooterHints() []footerHint {
	keysByCmd := bindingKeysByCommand(m.keymap.BindingsForContext("global"))
	specs := []struct {
		id    string
		label string
	}{
		{id: "next-plugin", label: "tabs"},
		{id: "toggle-help", label: "help"},
		{id: "quit", label: "quit"},
	}

	var hints []footerHint
	for _, spec := range specs {
		if keys := keysByCmd[spec.id]; len(keys) > 0 {
			hints = append(hints, footerHint{keys: keys[0], label: spec.label})
		}
	}
	return hints
}

func (m Model) pluginFooterHints(p plugin.Plugin, context string) []footerHint {
	if context == "" || context == "global" {
		return nil
	}
	keysByCmd := bindingKeysByCommand(m.keymap.BindingsForContext(context))

	type cmdWithPriority struct {
		cmd      plugin.Command
		keys     []string
		priority int
	}
	var cmds []cmdWithPriority
	for _, cmd := range p.Commands() {
		if cmd.Context != context {
			continue
		}
		keys := keysByCmd[cmd.ID]
		if len(keys) == 0 {
			continue
		}
		priority := cmd.Priority
		if priority == 0 {
			priority = 99
		}
		cmds = append(cmds, cmdWithPriority{cmd, keys, priority})
	}
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].priority < cmds[j].priority
	})

	hints := make([]footerHint, 0, len(cmds))
	for _, c := range cmds {
		hints = append(hints, footerHint{keys: formatBindingKeys(c.keys), label: c.cmd.Name})
	}
	return hints
}

func bindingKeysByCommand(bindings []keymap.Binding) map[string][]string {
	keysByCmd := make(map[string][]string, len(bindings))
	for _, b := range bindings {
		keysByCmd[b.Command] = append(keysByCmd[b.Command], b.Key)
	}
	return keysByCmd
}

// renderHintLineTruncated renders hints but stops adding when maxWidth is exceeded.
func renderHintLineTruncated(hints []footerHint, maxWidth int) string {
	if len(hints) == 0 || maxWidth <= 0 {
		return ""
	}
	var result string
	for _, hint := range hints {
		if hint.keys == "" || hint.label == "" {
			continue
		}
		part := fmt.Sprintf("%s %s", styles.KeyHint.Render(hint.keys), hint.label)
		candidate := part
		if result != "" {
			candidate = result + "  " + part
		}
		if lipgloss.Width(candidate) > maxWidth {
			break
		}
		result = candidate
	}
	return result
}

// buildHelpContent creates the help modal content.
func (m Model) buildHelpContent() string {
	var b strings.Builder
	b.WriteString(styles.ModalTitle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")

	b.WriteString(styles.Title.Render("Global"))
	b.WriteString("\n")
	m.renderBindingSection(&b, "global")
	b.WriteString("\n")

	if p := m.ActivePlugin(); p != nil {
		m.renderPluginSection(&b, p)
	}

	footer := "Press ? or esc to close"
	if m.currentVersion != "" {
		footer = "scribe " + m.currentVersion + "  " + footer
	}
	b.WriteString(styles.Subtle.Render(footer))
	return b.String()
}

// renderBindingSection renders bindings for a context, one line per command.
func (m Model) renderBindingSection(b *strings.Builder, context string) {
	bindings := m.keymap.BindingsForContext(context)
	keysByCmd := bindingKeysByCommand(bindings)
	seen := make(map[string]bool)
	for _, binding := range bindings {
		if seen[binding.Command] {
			continue
		}
		seen[binding.Command] = true
		padded := fmt.Sprintf("%-11s", formatBindingKeys(keysByCmd[binding.Command]))
		fmt.Fprintf(b, "  %s %s\n", styles.Muted.Render(padded), formatCommandName(binding.Command))
	}
}

// renderPluginSection lists the active context's commands grouped by
// category, in the order the plugin declares them.
func (m Model) renderPluginSection(b *strings.Builder, p plugin.Plugin) {
	ctx := p.FocusContext()
	if ctx == "" || ctx == "global" {
		return
	}
	keysByCmd := bindingKeysByCommand(m.keymap.BindingsForContext(ctx))

	var order []plugin.Category
	lines := make(map[plugin.Category][]string)
	for _, c := range p.Commands() {
		keys := keysByCmd[c.ID]
		if c.Context != ctx || len(keys) == 0 {
			continue
		}
		desc := c.Description
		if desc == "" {
			desc = formatCommandName(c.ID)
		}
		if _, ok := lines[c.Category]; !ok {
			order = append(order, c.Category)
		}
		padded := fmt.Sprintf("%-11s", formatBindingKeys(keys))
		lines[c.Category] = append(lines[c.Category], fmt.Sprintf("  %s %s\n", styles.Muted.Render(padded), desc))
	}

	for _, cat := range order {
		title := p.Name()
		if cat != "" {
			title += " / " + string(cat)
		}
		b.WriteString(styles.Title.Render(title))
		b.WriteString("\n")
		for _, l := range lines[cat] {
			b.WriteString(l)
		}
		b.WriteString("\n")
	}
}

// formatBindingKeys shows up to two keys.
func formatBindingKeys(keys []string) string {
	if len(keys) > 2 {
		keys = keys[:2]
	}
	return strings.Join(keys, ", ")
}

// formatCommandName converts a kebab-case command ID to a display name.
func formatCommandName(cmd string) string {
	return strings.ReplaceAll(cmd, "-", " ")
}
