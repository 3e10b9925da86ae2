// Package people shows the shared user directory that mention candidates
// come from.
package people

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/mention"
	"github.com/marcus/scribe/internal/mouse"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/marcus/scribe/internal/styles"
)

const (
	pluginID   = "people"
	pluginName = "people"
	pluginIcon = "@"

	headerRows = 2 // title and column rule

	regionRow  = "person-row"
	regionList = "person-list"
)

var errNoDirectory = errors.New("no user directory configured")

// Plugin lists the users in the directory cache.
type Plugin struct {
	ctx     *plugin.Context
	focused bool
	dir     *directory.Cache

	width  int
	height int

	cursor    int
	scrollOff int

	filterMode  bool
	filterInput textinput.Model
	filter      string

	mouseHandler *mouse.Handler
}

// New creates a new people plugin.
func New() *Plugin {
	return &Plugin{mouseHandler: mouse.NewHandler()}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the plugin display name.
func (p *Plugin) Name() string { return pluginName }

// Icon returns the plugin icon character.
func (p *Plugin) Icon() string { return pluginIcon }

// Init initializes the plugin with context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	if ctx.Directory == nil {
		return errNoDirectory
	}
	p.ctx = ctx
	p.dir = ctx.Directory
	p.cursor = 0
	p.scrollOff = 0

	p.filterInput = textinput.New()
	p.filterInput.Prompt = "/ "
	p.filterInput.Placeholder = "filter people"
	return nil
}

// Start fetches the directory if nobody has yet.
func (p *Plugin) Start() tea.Cmd {
	return p.dir.EnsureLoaded()
}

// Stop is a no-op; the cache outlives the plugin.
func (p *Plugin) Stop() {}

// Update handles messages.
func (p *Plugin) Update(msg tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch msg := msg.(type) {
	case directory.FetchedMsg:
		// The app has already applied it to the cache.
		if msg.Err != nil {
			p.ctx.Logger.Debug("people: directory fetch failed", "error", msg.Err)
		}
		p.clampCursor()
		return p, nil

	case plugin.PluginFocusedMsg:
		return p, p.dir.EnsureLoaded()

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.clampCursor()
		return p, nil

	case tea.KeyMsg:
		return p, p.handleKey(msg)

	case tea.MouseMsg:
		p.handleMouse(msg)
		return p, nil
	}

	if p.filterMode {
		var cmd tea.Cmd
		p.filterInput, cmd = p.filterInput.Update(msg)
		return p, cmd
	}
	return p, nil
}

func (p *Plugin) command(msg tea.KeyMsg) string {
	if p.ctx.Keymap == nil {
		return ""
	}
	cmd, _ := p.ctx.Keymap.Lookup(msg.String(), p.FocusContext())
	return cmd
}

func (p *Plugin) handleKey(msg tea.KeyMsg) tea.Cmd {
	if p.filterMode {
		switch {
		case p.command(msg) == "clear-filter":
			p.filterMode = false
			p.filter = ""
			p.filterInput.SetValue("")
			p.filterInput.Blur()
			p.cursor, p.scrollOff = 0, 0
			return nil
		case msg.Type == tea.KeyEnter:
			p.filterMode = false
			p.filterInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		p.filterInput, cmd = p.filterInput.Update(msg)
		if v := p.filterInput.Value(); v != p.filter {
			p.filter = v
			p.cursor, p.scrollOff = 0, 0
		}
		return cmd
	}

	switch p.command(msg) {
	case "cursor-down":
		p.moveCursor(1)
	case "cursor-up":
		p.moveCursor(-1)
	case "filter":
		p.filterMode = true
		p.filterInput.SetValue(p.filter)
		p.filterInput.CursorEnd()
		return p.filterInput.Focus()
	case "refresh":
		return p.dir.ForceRefresh()
	}
	return nil
}

func (p *Plugin) handleMouse(msg tea.MouseMsg) {
	action := p.mouseHandler.HandleMouse(msg)
	switch action.Type {
	case mouse.ActionClick, mouse.ActionDoubleClick:
		if action.Region.ID == regionRow {
			if idx, ok := action.Region.Data.(int); ok {
				p.cursor = idx
			}
		}
	case mouse.ActionScrollUp, mouse.ActionScrollDown:
		if action.Region != nil {
			p.scrollOff = min(max(p.scrollOff+action.Delta, 0), max(len(p.users())-p.listHeight(), 0))
			p.cursor = min(max(p.cursor, p.scrollOff), p.scrollOff+max(p.listHeight()-1, 0))
			p.clampCursor()
		}
	}
}

// users returns the directory users matching the filter, in directory
// order when unfiltered.
func (p *Plugin) users() []directory.User {
	snap := p.dir.Snapshot()
	if p.filter == "" {
		return snap.Users
	}
	return mention.FilterCandidatesN(snap.Users, p.filter, 0)
}

func (p *Plugin) listHeight() int {
	return max(p.height-headerRows, 0)
}

func (p *Plugin) moveCursor(delta int) {
	p.cursor += delta
	p.clampCursor()
}

func (p *Plugin) clampCursor() {
	n := len(p.users())
	p.cursor = min(max(p.cursor, 0), max(n-1, 0))
	h := p.listHeight()
	if h <= 0 {
		return
	}
	if p.cursor < p.scrollOff {
		p.scrollOff = p.cursor
	}
	if p.cursor >= p.scrollOff+h {
		p.scrollOff = p.cursor - h + 1
	}
}

// View renders the directory.
func (p *Plugin) View(width, height int) string {
	p.width = width
	p.height = height
	p.clampCursor()
	p.mouseHandler.Clear()

	line := lipgloss.NewStyle().Width(width).MaxWidth(width)
	snap := p.dir.Snapshot()
	users := p.users()

	var rows []string
	switch {
	case p.filterMode:
		rows = append(rows, line.Render(p.filterInput.View()))
	case p.filter != "":
		rows = append(rows, line.Render(styles.Title.Render("People ")+styles.Muted.Render(fmt.Sprintf("%s matching /%s", formatCount(len(users), "user", "users"), p.filter))))
	default:
		rows = append(rows, line.Render(styles.Title.Render("People ")+styles.Muted.Render(formatCount(len(snap.Users), "user", "users"))))
	}
	rows = append(rows, styles.Subtle.Render(strings.Repeat("─", max(width, 0))))

	switch {
	case snap.Status == directory.StatusLoading && len(snap.Users) == 0,
		snap.Status == directory.StatusUnfetched:
		rows = append(rows, line.Render(styles.Muted.Render("Loading users...")))
	case snap.Status == directory.StatusFailed:
		rows = append(rows,
			line.Render(styles.ErrorText.Render("Oops, users went for coffee")),
			line.Render(styles.Muted.Render("Press r to retry")))
	case len(users) == 0:
		rows = append(rows, line.Render(styles.Muted.Render("No users found")))
	}

	p.mouseHandler.HitMap.AddRect(regionList, 0, headerRows, width, p.listHeight(), nil)
	nameW := 0
	for _, u := range users {
		nameW = max(nameW, runewidth.StringWidth(u.Username)+1)
	}
	nameW = min(nameW, max(width/3, 8))

	for i := p.scrollOff; i < len(users) && len(rows) < height; i++ {
		u := users[i]
		p.mouseHandler.HitMap.AddRect(regionRow, 0, len(rows), width, 1, i)

		prefix := "  "
		style := styles.ListItemNormal
		if i == p.cursor {
			prefix = styles.ListCursor.Render("> ")
			style = styles.ListItemSelected
		}
		name := runewidth.FillRight(runewidth.Truncate("@"+u.Username, nameW, "…"), nameW)
		text := prefix + styles.Mention.Render(name) + "  " + u.FullName()
		if u.Email != "" {
			text += "  " + styles.Muted.Render(u.Email)
		}
		rows = append(rows, style.Width(width).MaxWidth(width).Render(text))
	}

	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(strings.Join(rows, "\n"))
}

// IsFocused returns whether the plugin is focused.
func (p *Plugin) IsFocused() bool { return p.focused }

// SetFocused sets the focus state.
func (p *Plugin) SetFocused(f bool) { p.focused = f }

// Commands returns the footer commands.
func (p *Plugin) Commands() []plugin.Command {
	if p.filterMode {
		return []plugin.Command{
			{ID: "clear-filter", Name: "Clear", Description: "Clear the filter", Category: plugin.CategorySearch, Context: "people-filter", Priority: 1},
		}
	}
	return []plugin.Command{
		{ID: "filter", Name: "Filter", Description: "Filter people", Category: plugin.CategorySearch, Context: "people", Priority: 1},
		{ID: "refresh", Name: "Refresh", Description: "Fetch the directory again", Category: plugin.CategoryActions, Context: "people", Priority: 2},
	}
}

// FocusContext returns the current focus context.
func (p *Plugin) FocusContext() string {
	if p.filterMode {
		return "people-filter"
	}
	return "people"
}

// ConsumesTextInput reports whether the filter input has focus.
func (p *Plugin) ConsumesTextInput() bool { return p.filterMode }

// formatCount formats a count with singular/plural forms.
func formatCount(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
