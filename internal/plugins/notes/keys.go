package notes

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/ui"
)

// command resolves key to a command id in the current focus context.
func (p *Plugin) command(key tea.KeyMsg) string {
	if p.ctx == nil || p.ctx.Keymap == nil {
		return ""
	}
	cmd, _ := p.ctx.Keymap.Lookup(key.String(), p.FocusContext())
	return cmd
}

func (p *Plugin) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case p.searchMode:
		return p.handleSearchKey(msg)
	case p.activePane == PaneEditor && p.editorNote != nil:
		return p.handleEditorKey(msg)
	}
	return p.handleListKey(msg)
}

func (p *Plugin) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch p.command(msg) {
	case "cursor-down":
		p.moveCursor(1)
	case "cursor-up":
		p.moveCursor(-1)
	case "new-note":
		return p.createNote()
	case "edit-note":
		p.openSelected()
	case "delete-note":
		p.confirmDelete()
	case "undo":
		return p.undo()
	case "yank":
		return p.yankSelected()
	case "search":
		p.searchMode = true
		p.searchInput.SetValue(p.searchQuery)
		p.searchInput.CursorEnd()
		return p.searchInput.Focus()
	case "refresh":
		return p.loadNotes()
	}
	return nil
}

func (p *Plugin) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch p.command(msg) {
	case "search-confirm":
		p.searchMode = false
		p.searchInput.Blur()
		return nil
	case "search-cancel":
		p.searchMode = false
		p.searchQuery = ""
		p.searchInput.SetValue("")
		p.searchInput.Blur()
		p.cursor = 0
		p.scrollOff = 0
		return nil
	}

	var cmd tea.Cmd
	p.searchInput, cmd = p.searchInput.Update(msg)
	if q := p.searchInput.Value(); q != p.searchQuery {
		p.searchQuery = q
		p.cursor = 0
		p.scrollOff = 0
	}
	return cmd
}

func (p *Plugin) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	// While the dropdown is open every key goes to the editor, which owns
	// navigation, selection and dismissal.
	if p.field == fieldBody && p.editor.SessionOpen() {
		return p.editBody(msg)
	}

	switch p.command(msg) {
	case "back":
		return p.leaveEditor()
	case "save":
		return p.saveEditorContent()
	case "switch-field":
		if p.field == fieldBody {
			p.setField(fieldTitle)
		} else {
			p.setField(fieldBody)
		}
		return nil
	}

	if p.field == fieldTitle {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyDown:
			p.setField(fieldBody)
			return nil
		}
		before := p.titleInput.Value()
		var cmd tea.Cmd
		p.titleInput, cmd = p.titleInput.Update(msg)
		if p.titleInput.Value() != before {
			return tea.Batch(cmd, p.startAutoSaveTimer())
		}
		return cmd
	}
	return p.editBody(msg)
}

// editBody forwards a key to the mention editor and schedules an autosave
// when the document changed.
func (p *Plugin) editBody(msg tea.KeyMsg) tea.Cmd {
	cmd := p.editor.Update(msg)
	if v := p.editor.Version(); v != p.lastVer {
		p.lastVer = v
		return tea.Batch(cmd, p.startAutoSaveTimer())
	}
	return cmd
}

// confirmDelete opens the delete confirmation for the selected note.
func (p *Plugin) confirmDelete() {
	n := p.selectedNote()
	if n == nil {
		return
	}
	d := ui.NewConfirmDialog("Delete note?", "\""+truncateTitle(n.DisplayTitle(), 30)+"\" will be deleted.")
	d.ConfirmLabel = " Delete "
	d.Danger = true
	d.Width = ui.ModalWidthSmall
	p.deleteDialog = d
	p.deleteTarget = n
}

func (p *Plugin) handleDeleteDialogKey(msg tea.KeyMsg) tea.Cmd {
	return p.resolveDelete(p.deleteDialog.HandleKey(msg))
}

// resolveDelete applies a dialog action.
func (p *Plugin) resolveDelete(action string) tea.Cmd {
	switch action {
	case ui.ActionConfirm:
		n := p.deleteTarget
		p.deleteDialog = nil
		p.deleteTarget = nil
		if n == nil {
			return nil
		}
		return p.deleteNote(*n)
	case ui.ActionCancel:
		p.deleteDialog = nil
		p.deleteTarget = nil
	}
	return nil
}

func (p *Plugin) moveCursor(delta int) {
	n := len(p.displayNotes())
	if n == 0 {
		p.cursor = 0
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), n-1)
	p.ensureCursorVisible()
}

func (p *Plugin) ensureCursorVisible() {
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
	maxOff := max(len(p.displayNotes())-h, 0)
	p.scrollOff = min(max(p.scrollOff, 0), maxOff)
}
