package notes

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/mouse"
	"github.com/marcus/scribe/internal/state"
)

func (p *Plugin) handleMouse(msg tea.MouseMsg) tea.Cmd {
	leftPress := msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft

	if p.deleteDialog != nil {
		if leftPress {
			return p.resolveDelete(p.deleteDialog.HitTest(msg.X, msg.Y, p.width, p.height))
		}
		return nil
	}

	editorOpen := p.activePane == PaneEditor && p.editorNote != nil
	if editorOpen && !p.mouseHandler.IsDragging() {
		r := p.editorRect()
		if r.Contains(msg.X, msg.Y) {
			if leftPress && p.field != fieldBody {
				p.setField(fieldBody)
			}
			return p.forwardToEditor(msg, r)
		}
		// A click anywhere else closes the dropdown before it is handled.
		if leftPress && p.editor.SessionOpen() {
			p.forwardToEditor(msg, r)
		}
	}

	action := p.mouseHandler.HandleMouse(msg)
	switch action.Type {
	case mouse.ActionClick, mouse.ActionDoubleClick:
		return p.handleClick(action)

	case mouse.ActionScrollUp, mouse.ActionScrollDown:
		if action.Region != nil && (action.Region.ID == regionNoteList || action.Region.ID == regionNoteRow) {
			p.scrollList(action.Delta)
		}

	case mouse.ActionDrag:
		if p.mouseHandler.DragRegion() == regionDivider {
			p.listWidth = clampListWidth(p.mouseHandler.DragStartValue()+action.DragDX, p.width)
			p.layoutEditor()
		}

	case mouse.ActionDragEnd:
		if err := state.SetNotesListWidth(p.listWidth); err != nil && p.ctx != nil {
			p.ctx.Logger.Debug("notes: save state failed", "error", err)
		}
	}
	return nil
}

func (p *Plugin) handleClick(action mouse.MouseAction) tea.Cmd {
	switch action.Region.ID {
	case regionNoteRow:
		idx, ok := action.Region.Data.(int)
		if !ok {
			return nil
		}
		var cmd tea.Cmd
		if p.editorNote != nil {
			cmd = p.leaveEditor()
		}
		// Rows share one region id, so a double click must land on the
		// row the first click selected.
		again := idx == p.cursor
		p.searchMode = false
		p.cursor = idx
		p.ensureCursorVisible()
		if action.Type == mouse.ActionDoubleClick && again {
			p.openSelected()
		}
		return cmd

	case regionDivider:
		p.mouseHandler.StartDrag(action.X, action.Y, regionDivider, p.listPaneWidth())

	case regionSearch:
		if p.activePane == PaneEditor {
			return nil
		}
		p.searchMode = true
		p.searchInput.SetValue(p.searchQuery)
		p.searchInput.CursorEnd()
		return p.searchInput.Focus()

	case regionTitle:
		p.setField(fieldTitle)
	}
	return nil
}

// forwardToEditor translates msg into editor coordinates.
func (p *Plugin) forwardToEditor(msg tea.MouseMsg, r mouse.Rect) tea.Cmd {
	msg.X -= r.X
	msg.Y -= r.Y
	return p.editor.Update(msg)
}

// scrollList scrolls the list and keeps the cursor on screen.
func (p *Plugin) scrollList(delta int) {
	h := p.listHeight()
	maxOff := max(len(p.displayNotes())-h, 0)
	p.scrollOff = min(max(p.scrollOff+delta, 0), maxOff)
	if p.cursor < p.scrollOff {
		p.cursor = p.scrollOff
	}
	if h > 0 && p.cursor >= p.scrollOff+h {
		p.cursor = p.scrollOff + h - 1
	}
}
