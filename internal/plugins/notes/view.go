package notes

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/marcus/scribe/internal/mouse"
	"github.com/marcus/scribe/internal/styles"
	"github.com/marcus/scribe/internal/ui"
)

const (
	defaultListPercent = 30
	minListWidth       = 16
	minEditorWidth     = 24

	listHeaderRows = 1
	titleRows      = 2 // title line and rule
)

// Mouse regions
const (
	regionNoteList = "note-list"
	regionNoteRow  = "note-row"
	regionDivider  = "divider"
	regionSearch   = "search"
	regionTitle    = "title"
	regionEditor   = "editor"
)

// clampListWidth keeps both panes usable.
func clampListWidth(w, total int) int {
	hi := max(total-dividerWidth-minEditorWidth, minListWidth)
	return min(max(w, minListWidth), hi)
}

func (p *Plugin) listPaneWidth() int {
	w := p.listWidth
	if w <= 0 {
		w = p.width * defaultListPercent / 100
	}
	return clampListWidth(w, p.width)
}

func (p *Plugin) listHeight() int {
	return p.height - listHeaderRows
}

// editorRect is the editor's area in plugin coordinates. One column of
// padding separates it from the divider.
func (p *Plugin) editorRect() mouse.Rect {
	x := p.listPaneWidth() + dividerWidth + 1
	return mouse.Rect{
		X: x,
		Y: titleRows,
		W: max(p.width-x, 1),
		H: max(p.height-titleRows, 1),
	}
}

func (p *Plugin) layoutEditor() {
	if p.editor == nil {
		return
	}
	r := p.editorRect()
	p.editor.SetSize(r.W, r.H)
	p.titleInput.Width = max(r.W-1, 1)
	p.searchInput.Width = max(p.listPaneWidth()-3, 1)
}

// View renders the plugin.
func (p *Plugin) View(width, height int) string {
	p.width = width
	p.height = height
	p.layoutEditor()
	p.ensureCursorVisible()

	lw := p.listPaneWidth()
	rw := max(width-lw-dividerWidth, 0)

	list := p.renderList(lw, height)
	right := p.renderRightPane(rw, height)
	content := lipgloss.JoinHorizontal(lipgloss.Top, list, ui.RenderDivider(height), right)

	if p.deleteDialog != nil {
		content = ui.OverlayModal(content, p.deleteDialog.Render(), width, height)
	}
	p.registerRegions(lw)

	// Constrain output to allocated height
	return lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(content)
}

func (p *Plugin) registerRegions(lw int) {
	p.mouseHandler.Clear()
	hm := p.mouseHandler.HitMap

	hm.AddRect(regionNoteList, 0, listHeaderRows, lw, p.listHeight(), nil)
	list := p.displayNotes()
	for row := 0; row < p.listHeight(); row++ {
		idx := p.scrollOff + row
		if idx >= len(list) {
			break
		}
		hm.AddRect(regionNoteRow, 0, listHeaderRows+row, lw, 1, idx)
	}
	hm.AddRect(regionSearch, 0, 0, lw, listHeaderRows, nil)
	hm.AddRect(regionDivider, lw, 0, dividerWidth, p.height, nil)

	if p.activePane == PaneEditor && p.editorNote != nil {
		r := p.editorRect()
		hm.AddRect(regionTitle, r.X, 0, r.W, 1, nil)
		hm.Add(regionEditor, r, nil)
	}
}

func (p *Plugin) renderList(width, height int) string {
	line := lipgloss.NewStyle().Width(width).MaxWidth(width)
	rows := make([]string, 0, height)

	switch {
	case p.searchMode:
		rows = append(rows, line.Render(p.searchInput.View()))
	case p.searchQuery != "":
		rows = append(rows, line.Render(styles.Title.Render("Notes ")+styles.Muted.Render(fit("/"+p.searchQuery, width-6))))
	default:
		rows = append(rows, line.Render(styles.Title.Render("Notes ")+styles.Muted.Render(fmt.Sprintf("(%d)", len(p.notes)))))
	}

	list := p.displayNotes()
	switch {
	case p.loadErr != nil:
		rows = append(rows, line.Render(styles.ErrorText.Render(fit("Load failed: "+p.loadErr.Error(), width))))
	case p.loading && p.notes == nil:
		rows = append(rows, line.Render(styles.Muted.Render("Loading...")))
	case len(list) == 0 && p.searchQuery != "":
		rows = append(rows, line.Render(styles.Muted.Render("No matches")))
	case len(list) == 0:
		rows = append(rows, line.Render(styles.Muted.Render(fit("No notes yet. Press n to create one.", width))))
	}

	now := time.Now()
	for i := p.scrollOff; i < len(list) && len(rows) < height; i++ {
		n := list[i]
		selected := i == p.cursor
		open := p.editorNote != nil && p.editorNote.ID == n.ID

		prefix := "  "
		if selected {
			prefix = styles.ListCursor.Render("> ")
		}
		age := ""
		if !n.LastUpdatedAt.IsZero() {
			age = formatAge(now.Sub(n.LastUpdatedAt))
		}
		titleW := max(width-2-runewidth.StringWidth(age)-1, 1)
		title := fit(n.DisplayTitle(), titleW)
		if open {
			title = styles.Mention.Render(title)
		}
		pad := max(width-2-lipgloss.Width(title)-runewidth.StringWidth(age), 1)
		text := prefix + title + strings.Repeat(" ", pad) + styles.Muted.Render(age)

		style := styles.ListItemNormal
		if selected && p.activePane == PaneList {
			style = styles.ListItemSelected
		}
		rows = append(rows, style.Width(width).MaxWidth(width).Render(text))
	}

	for len(rows) < height {
		rows = append(rows, line.Render(""))
	}
	return strings.Join(rows[:height], "\n")
}

func (p *Plugin) renderRightPane(width, height int) string {
	if width <= 0 {
		return ""
	}
	box := lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).MaxWidth(width)
	rule := styles.Subtle.Render(strings.Repeat("─", width))
	pad := lipgloss.NewStyle().PaddingLeft(1)

	if p.activePane == PaneEditor && p.editorNote != nil {
		title := p.titleInput.View()
		if p.field != fieldTitle && p.titleInput.Value() != "" {
			title = styles.Title.Render(fit(p.titleInput.Value(), width-1))
		}
		body := pad.Render(p.editor.View())
		return box.Render(pad.Render(title) + "\n" + rule + "\n" + body)
	}

	n := p.selectedNote()
	if n == nil {
		return box.Render(pad.Render(styles.Muted.Render("No note selected")))
	}
	header := pad.Render(styles.Title.Render(fit(n.DisplayTitle(), width-1)))
	md := n.Document().Markdown()
	if strings.TrimSpace(md) == "" {
		return box.Render(header + "\n" + rule + "\n" + pad.Render(styles.Muted.Render("Empty note")))
	}
	return box.Render(header + "\n" + rule + "\n" + p.renderMarkdown(md, width, height-titleRows))
}

// renderMarkdown renders the preview with glamour, falling back to plain
// text if the renderer cannot be built.
func (p *Plugin) renderMarkdown(md string, width, height int) string {
	if p.renderer == nil || p.rendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(styles.MarkdownTheme),
			glamour.WithWordWrap(max(width-2, 10)),
		)
		if err != nil {
			p.ctx.Logger.Warn("notes: glamour init failed", "error", err)
			p.renderer = nil
		} else {
			p.renderer = r
			p.rendererWidth = width
		}
	}

	out := md
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(md); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	lines := strings.Split(out, "\n")
	if len(lines) > height {
		lines = lines[:max(height, 0)]
	}
	return strings.Join(lines, "\n")
}

// formatAge formats how long ago a note changed.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
