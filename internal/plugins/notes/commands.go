package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/msg"
	"github.com/marcus/scribe/internal/notes"
	"github.com/marcus/scribe/internal/state"
)

// fingerprint identifies note content so unchanged notes are never
// rewritten.
func fingerprint(title, text string) uint64 {
	return xxhash.Sum64String(title + "\x00" + text)
}

func (p *Plugin) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ioTimeout)
}

// loadNotes lists notes from the backend.
func (p *Plugin) loadNotes() tea.Cmd {
	repo := p.repo
	epoch := p.ctx.Epoch
	p.loading = true
	return func() tea.Msg {
		ctx, cancel := p.opContext()
		defer cancel()
		list, err := repo.List(ctx)
		return NotesLoadedMsg{Notes: list, Err: err, Epoch: epoch}
	}
}

// createNote creates an empty note. It opens in the editor once the list
// reloads.
func (p *Plugin) createNote() tea.Cmd {
	repo := p.repo
	epoch := p.ctx.Epoch
	return func() tea.Msg {
		ctx, cancel := p.opContext()
		defer cancel()
		n, err := repo.Create(ctx, notes.Note{})
		return NoteCreatedMsg{Note: n, Err: err, Epoch: epoch}
	}
}

// saveEditorContent writes the open note if its content changed since the
// last save.
func (p *Plugin) saveEditorContent() tea.Cmd {
	if p.editorNote == nil {
		return nil
	}
	title := p.titleInput.Value()
	text := p.editor.Value()
	hash := fingerprint(title, text)
	if hash == p.savedHash {
		return nil
	}
	// A newer keystroke must not fire a second save of the same content.
	p.autoSaveID++

	n := *p.editorNote
	n.Title = title
	n.Text = text
	repo := p.repo
	epoch := p.ctx.Epoch
	return func() tea.Msg {
		ctx, cancel := p.opContext()
		defer cancel()
		saved, err := repo.Update(ctx, n)
		return NoteSavedMsg{Note: saved, Hash: hash, Err: err, Epoch: epoch}
	}
}

// startAutoSaveTimer restarts the debounce. Only the latest tick saves.
func (p *Plugin) startAutoSaveTimer() tea.Cmd {
	p.autoSaveID++
	id := p.autoSaveID
	return tea.Tick(p.autoSaveDelay, func(time.Time) tea.Msg {
		return AutoSaveTickMsg{ID: id}
	})
}

// dirty reports whether the open note has unsaved changes.
func (p *Plugin) dirty() bool {
	if p.editorNote == nil {
		return false
	}
	return fingerprint(p.titleInput.Value(), p.editor.Value()) != p.savedHash
}

// deleteNote soft-deletes n and records it for undo.
func (p *Plugin) deleteNote(n notes.Note) tea.Cmd {
	if p.editorNote != nil && p.editorNote.ID == n.ID {
		p.closeEditor()
	}
	p.pushUndo(UndoAction{NoteID: n.ID, Title: n.DisplayTitle()})

	repo := p.repo
	epoch := p.ctx.Epoch
	return func() tea.Msg {
		ctx, cancel := p.opContext()
		defer cancel()
		err := repo.Delete(ctx, n)
		return NoteDeletedMsg{ID: n.ID, Title: n.DisplayTitle(), Err: err, Epoch: epoch}
	}
}

func (p *Plugin) pushUndo(a UndoAction) {
	p.undoStack = append(p.undoStack, a)
	if len(p.undoStack) > maxUndoStack {
		p.undoStack = p.undoStack[len(p.undoStack)-maxUndoStack:]
	}
}

func (p *Plugin) popUndo() (UndoAction, bool) {
	if len(p.undoStack) == 0 {
		return UndoAction{}, false
	}
	a := p.undoStack[len(p.undoStack)-1]
	p.undoStack = p.undoStack[:len(p.undoStack)-1]
	return a, true
}

// canUndo reports whether a delete can be reverted on this backend.
func (p *Plugin) canUndo() bool {
	_, ok := p.repo.(notes.Restorer)
	return ok && len(p.undoStack) > 0
}

// undo restores the most recently deleted note.
func (p *Plugin) undo() tea.Cmd {
	restorer, ok := p.repo.(notes.Restorer)
	if !ok {
		return msg.ShowToast("Undo is not available for this backend", 2*time.Second)
	}
	a, ok := p.popUndo()
	if !ok {
		return msg.ShowToast("Nothing to undo", 2*time.Second)
	}
	epoch := p.ctx.Epoch
	return func() tea.Msg {
		ctx, cancel := p.opContext()
		defer cancel()
		err := restorer.Restore(ctx, a.NoteID)
		return NoteRestoredMsg{ID: a.NoteID, Title: a.Title, Err: err, Epoch: epoch}
	}
}

// yankSelected copies the plain text of the selected note.
func (p *Plugin) yankSelected() tea.Cmd {
	n := p.selectedNote()
	if n == nil {
		return nil
	}
	if err := writeClipboard(n.Document().PlainText()); err != nil {
		return msg.ShowErrorToast("Copy failed", err)
	}
	return msg.ShowToast("Copied note text", 2*time.Second)
}

// openSelected loads the selected note into the editor.
func (p *Plugin) openSelected() {
	n := p.selectedNote()
	if n == nil {
		return
	}
	p.editorNote = n
	p.titleInput.SetValue(n.Title)
	p.titleInput.CursorEnd()
	p.editor.SetValue(n.Text)
	// Hash the re-serialized body so normalization alone is not an edit.
	p.savedHash = fingerprint(n.Title, p.editor.Value())
	p.lastVer = p.editor.Version()
	p.activePane = PaneEditor
	p.setField(fieldBody)
	p.layoutEditor()

	if err := state.SetLastNoteID(n.ID); err != nil {
		p.ctx.Logger.Debug("notes: save state failed", "error", err)
	}
}

// leaveEditor saves pending changes and returns to the list.
func (p *Plugin) leaveEditor() tea.Cmd {
	cmd := p.saveEditorContent()
	p.closeEditor()
	return cmd
}

func (p *Plugin) closeEditor() {
	p.editorNote = nil
	p.editor.Blur()
	p.titleInput.Blur()
	p.activePane = PaneList
	p.field = fieldBody
}

// setField moves focus between the title and the body.
func (p *Plugin) setField(f editField) {
	p.field = f
	if f == fieldTitle {
		p.editor.Blur()
		p.titleInput.Focus()
		return
	}
	p.titleInput.Blur()
	p.editor.Focus()
}

func showSavedToast() tea.Cmd {
	return msg.ShowToast("Saved", 1500*time.Millisecond)
}

func showDeletedToast() tea.Cmd {
	return msg.ShowToast("Deleted", 2*time.Second)
}

func showRestoredToast(title string) tea.Cmd {
	return msg.ShowToast(fmt.Sprintf("Restored: %s", truncateTitle(title, 30)), 2*time.Second)
}

func showErrorToast(prefix string, err error) tea.Cmd {
	return msg.ShowErrorToast(prefix, err)
}

// truncateTitle shortens title to maxLen runes with an ellipsis.
func truncateTitle(title string, maxLen int) string {
	r := []rune(title)
	if len(r) <= maxLen {
		return title
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
