package notes

import (
	"errors"
	"io"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/marcus/scribe/internal/config"
	"github.com/marcus/scribe/internal/editor"
	"github.com/marcus/scribe/internal/mouse"
	"github.com/marcus/scribe/internal/notes"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/marcus/scribe/internal/state"
	"github.com/marcus/scribe/internal/ui"
)

const (
	pluginID   = "notes"
	pluginName = "notes"
	pluginIcon = "✎"

	// Pane layout
	dividerWidth = 1

	maxUndoStack = 20
	ioTimeout    = 15 * time.Second
)

var errNoBackend = errors.New("no notes backend configured")

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// FocusPane represents which pane is active.
type FocusPane int

const (
	PaneList FocusPane = iota
	PaneEditor
)

// editField is the input with focus inside the editor pane.
type editField int

const (
	fieldBody editField = iota
	fieldTitle
)

// UndoAction is a delete that can be reverted.
type UndoAction struct {
	NoteID string
	Title  string
}

// Plugin implements the notes plugin.
type Plugin struct {
	ctx     *plugin.Context
	focused bool
	repo    notes.Repository

	width  int
	height int

	activePane FocusPane
	listWidth  int // 0 = default

	// List state
	notes     []notes.Note
	cursor    int
	scrollOff int
	loading   bool
	loadErr   error

	// Search state
	searchMode  bool
	searchInput textinput.Model
	searchQuery string

	// Editor state
	editorNote *notes.Note
	titleInput textinput.Model
	editor     *editor.Model
	field      editField
	savedHash  uint64 // fingerprint of the content last written
	lastVer    uint64 // editor version already scheduled for save

	// Selection to apply after the next load
	pendingSelectID string
	pendingEdit     bool

	autoSaveID    int
	autoSaveDelay time.Duration

	undoStack []UndoAction

	// Delete confirmation
	deleteDialog *ui.ConfirmDialog
	deleteTarget *notes.Note

	// Preview rendering
	renderer      *glamour.TermRenderer
	rendererWidth int

	// Database watcher, local backend only
	watchCh     <-chan struct{}
	watchCloser io.Closer

	mouseHandler *mouse.Handler
}

// New creates a new notes plugin.
func New() *Plugin {
	return &Plugin{
		mouseHandler: mouse.NewHandler(),
	}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the plugin display name.
func (p *Plugin) Name() string { return pluginName }

// Icon returns the plugin icon character.
func (p *Plugin) Icon() string { return pluginIcon }

// Init initializes the plugin with context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	if ctx.Notes == nil {
		return errNoBackend
	}
	if p.repo != nil && p.repo != ctx.Notes {
		ctx.Epoch++
	}
	p.ctx = ctx
	p.repo = ctx.Notes
	p.notes = nil
	p.cursor = 0
	p.scrollOff = 0
	p.loadErr = nil
	p.activePane = PaneList
	p.undoStack = nil
	p.editorNote = nil
	p.deleteDialog = nil

	p.autoSaveDelay = time.Second
	limit := 0
	if ctx.Config != nil {
		p.autoSaveDelay = ctx.Config.Notes.AutosaveDelay
		limit = ctx.Config.Mention.MaxCandidates
	}

	ns := state.GetNotesState()
	p.listWidth = ns.ListWidth
	p.pendingSelectID = ns.LastNoteID

	p.searchInput = textinput.New()
	p.searchInput.Prompt = "/ "
	p.searchInput.Placeholder = "filter notes"

	p.titleInput = textinput.New()
	p.titleInput.Prompt = ""
	p.titleInput.Placeholder = "Untitled"
	p.titleInput.CharLimit = 200

	// A nil *directory.Cache must not become a non-nil interface.
	var dir editor.Directory
	if ctx.Directory != nil {
		dir = ctx.Directory
	}
	p.editor = editor.New(dir)
	if limit > 0 {
		p.editor.SetLimit(limit)
	}

	if p.mouseHandler == nil {
		p.mouseHandler = mouse.NewHandler()
	}
	return nil
}

// Start loads notes and, for the local backend, watches the database.
func (p *Plugin) Start() tea.Cmd {
	cmds := []tea.Cmd{p.loadNotes()}
	if cmd := p.startWatcher(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (p *Plugin) startWatcher() tea.Cmd {
	cfg := p.ctx.Config
	if cfg == nil || cfg.Notes.Backend != config.BackendLocal || !cfg.Notes.Watch {
		return nil
	}
	store, ok := p.repo.(*notes.Store)
	if !ok {
		return nil
	}
	ch, closer, err := notes.Watch(store.Path())
	if err != nil {
		p.ctx.Logger.Warn("notes: watch failed", "error", err)
		return nil
	}
	p.watchCh = ch
	p.watchCloser = closer
	return p.listenForWatchEvents()
}

// listenForWatchEvents waits for the next database change.
func (p *Plugin) listenForWatchEvents() tea.Cmd {
	ch := p.watchCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return WatchEventMsg{}
	}
}

// Stop flushes unsaved edits, releases the watcher and remembers the open
// note.
func (p *Plugin) Stop() {
	if cmd := p.saveEditorContent(); cmd != nil {
		if saved, ok := cmd().(NoteSavedMsg); ok && saved.Err != nil {
			p.ctx.Logger.Error("notes: final save failed", "error", saved.Err)
		}
	}
	if p.watchCloser != nil {
		_ = p.watchCloser.Close()
		p.watchCloser = nil
		p.watchCh = nil
	}
	if p.editorNote != nil {
		if err := state.SetLastNoteID(p.editorNote.ID); err != nil {
			p.ctx.Logger.Debug("notes: save state failed", "error", err)
		}
	}
}

// Update handles messages.
func (p *Plugin) Update(msg tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch msg := msg.(type) {
	case NotesLoadedMsg:
		if plugin.IsStale(p.ctx, msg) {
			return p, nil
		}
		p.handleLoaded(msg)
		return p, nil

	case NoteCreatedMsg:
		if plugin.IsStale(p.ctx, msg) {
			return p, nil
		}
		if msg.Err != nil {
			p.ctx.Logger.Error("notes: create failed", "error", msg.Err)
			return p, showErrorToast("Create failed", msg.Err)
		}
		p.pendingSelectID = msg.Note.ID
		p.pendingEdit = true
		return p, p.loadNotes()

	case NoteSavedMsg:
		if plugin.IsStale(p.ctx, msg) {
			return p, nil
		}
		if msg.Err != nil {
			p.ctx.Logger.Error("notes: save failed", "error", msg.Err)
			return p, showErrorToast("Save failed", msg.Err)
		}
		if p.editorNote != nil && p.editorNote.ID == msg.Note.ID {
			p.savedHash = msg.Hash
			p.editorNote.LastUpdatedAt = msg.Note.LastUpdatedAt
		}
		p.replaceNote(*msg.Note)
		return p, showSavedToast()

	case NoteDeletedMsg:
		if plugin.IsStale(p.ctx, msg) {
			return p, nil
		}
		if msg.Err != nil {
			p.ctx.Logger.Error("notes: delete failed", "error", msg.Err)
			return p, showErrorToast("Delete failed", msg.Err)
		}
		return p, tea.Batch(showDeletedToast(), p.loadNotes())

	case NoteRestoredMsg:
		if plugin.IsStale(p.ctx, msg) {
			return p, nil
		}
		if msg.Err != nil {
			p.ctx.Logger.Error("notes: restore failed", "error", msg.Err)
			return p, showErrorToast("Restore failed", msg.Err)
		}
		p.pendingSelectID = msg.ID
		return p, tea.Batch(showRestoredToast(msg.Title), p.loadNotes())

	case AutoSaveTickMsg:
		if msg.ID == p.autoSaveID {
			return p, p.saveEditorContent()
		}
		return p, nil

	case WatchEventMsg:
		return p, tea.Batch(p.loadNotes(), p.listenForWatchEvents())

	case plugin.PluginFocusedMsg:
		if p.focused && p.activePane == PaneList {
			return p, p.loadNotes()
		}
		return p, nil

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.layoutEditor()
		return p, nil

	case tea.KeyMsg:
		if p.deleteDialog != nil {
			return p, p.handleDeleteDialogKey(msg)
		}
		return p, p.handleKey(msg)

	case tea.MouseMsg:
		return p, p.handleMouse(msg)
	}

	// Cursor blink and other internals for the focused text input.
	var cmd tea.Cmd
	switch {
	case p.searchMode:
		p.searchInput, cmd = p.searchInput.Update(msg)
	case p.activePane == PaneEditor && p.field == fieldTitle:
		p.titleInput, cmd = p.titleInput.Update(msg)
	}
	return p, cmd
}

func (p *Plugin) handleLoaded(msg NotesLoadedMsg) {
	p.loading = false
	if msg.Err != nil {
		p.loadErr = msg.Err
		p.ctx.Logger.Error("notes: load failed", "error", msg.Err)
		return
	}
	p.loadErr = nil
	p.notes = msg.Notes
	notes.SortByDate(p.notes)

	if p.pendingSelectID != "" {
		for i, n := range p.displayNotes() {
			if n.ID == p.pendingSelectID {
				p.cursor = i
				if p.pendingEdit {
					p.openSelected()
					p.setField(fieldTitle)
				}
				break
			}
		}
		p.pendingSelectID = ""
		p.pendingEdit = false
	}

	// The open note was deleted elsewhere.
	if p.editorNote != nil && p.findNote(p.editorNote.ID) < 0 {
		p.closeEditor()
	}

	if n := len(p.displayNotes()); p.cursor >= n {
		p.cursor = max(n-1, 0)
	}
	p.ensureCursorVisible()
}

// replaceNote swaps in a saved copy and keeps the list ordered while the
// cursor stays on the same note.
func (p *Plugin) replaceNote(n notes.Note) {
	var selectedID string
	if sel := p.selectedNote(); sel != nil {
		selectedID = sel.ID
	}
	if i := p.findNote(n.ID); i >= 0 {
		p.notes[i] = n
	}
	notes.SortByDate(p.notes)
	for i, x := range p.displayNotes() {
		if x.ID == selectedID {
			p.cursor = i
			break
		}
	}
	p.ensureCursorVisible()
}

func (p *Plugin) findNote(id string) int {
	for i := range p.notes {
		if p.notes[i].ID == id {
			return i
		}
	}
	return -1
}

// displayNotes returns the notes visible under the current filter.
func (p *Plugin) displayNotes() []notes.Note {
	return notes.Filter(p.notes, p.searchQuery)
}

func (p *Plugin) selectedNote() *notes.Note {
	list := p.displayNotes()
	if p.cursor < 0 || p.cursor >= len(list) {
		return nil
	}
	n := list[p.cursor]
	return &n
}

// IsFocused returns whether the plugin is focused.
func (p *Plugin) IsFocused() bool { return p.focused }

// SetFocused sets the focus state. Losing focus closes the mention dropdown.
func (p *Plugin) SetFocused(f bool) {
	p.focused = f
	if !f && p.editor != nil && p.editor.SessionOpen() {
		p.editor.Blur()
		if p.activePane == PaneEditor && p.field == fieldBody {
			p.editor.Focus()
		}
	}
}

// Commands returns the commands shown in the footer.
func (p *Plugin) Commands() []plugin.Command {
	if p.deleteDialog != nil {
		return []plugin.Command{
			{ID: "confirm", Name: "Delete", Description: "Confirm delete", Category: plugin.CategoryActions, Context: "notes-delete", Priority: 1},
			{ID: "cancel", Name: "Cancel", Description: "Keep the note", Category: plugin.CategoryActions, Context: "notes-delete", Priority: 2},
		}
	}
	if p.searchMode {
		return []plugin.Command{
			{ID: "search-confirm", Name: "Open", Description: "Keep filter", Category: plugin.CategorySearch, Context: "notes-search", Priority: 1},
			{ID: "search-cancel", Name: "Cancel", Description: "Clear filter", Category: plugin.CategorySearch, Context: "notes-search", Priority: 2},
		}
	}
	if p.activePane == PaneEditor && p.editorNote != nil {
		if p.editor.SessionOpen() {
			return []plugin.Command{
				{ID: "mention-select", Name: "Insert", Description: "Insert highlighted user", Category: plugin.CategoryEdit, Context: "notes-mention", Priority: 1},
				{ID: "mention-next", Name: "Next", Description: "Highlight next user", Category: plugin.CategoryNavigation, Context: "notes-mention", Priority: 2},
				{ID: "mention-prev", Name: "Prev", Description: "Highlight previous user", Category: plugin.CategoryNavigation, Context: "notes-mention", Priority: 3},
				{ID: "mention-close", Name: "Close", Description: "Close the user list", Category: plugin.CategoryEdit, Context: "notes-mention", Priority: 4},
			}
		}
		save := plugin.Command{ID: "save", Name: "Save", Description: "Save note now", Category: plugin.CategoryActions, Context: "notes-editor", Priority: 2}
		if p.dirty() {
			save.Name = "Save*"
		}
		return []plugin.Command{
			{ID: "back", Name: "List", Description: "Save and return to list", Category: plugin.CategoryNavigation, Context: "notes-editor", Priority: 1},
			save,
			{ID: "switch-field", Name: "Title/Body", Description: "Switch between title and body", Category: plugin.CategoryEdit, Context: "notes-editor", Priority: 3},
		}
	}

	cmds := []plugin.Command{
		{ID: "new-note", Name: "New", Description: "Create note", Category: plugin.CategoryActions, Context: "notes-list", Priority: 1},
		{ID: "edit-note", Name: "Edit", Description: "Edit selected note", Category: plugin.CategoryActions, Context: "notes-list", Priority: 2},
		{ID: "search", Name: "Filter", Description: "Filter notes", Category: plugin.CategorySearch, Context: "notes-list", Priority: 3},
		{ID: "delete-note", Name: "Delete", Description: "Delete selected note", Category: plugin.CategoryActions, Context: "notes-list", Priority: 4},
		{ID: "yank", Name: "Yank", Description: "Copy note text", Category: plugin.CategoryActions, Context: "notes-list", Priority: 5},
		{ID: "refresh", Name: "Refresh", Description: "Reload notes", Category: plugin.CategoryActions, Context: "notes-list", Priority: 6},
	}
	if p.canUndo() {
		cmds = append(cmds, plugin.Command{ID: "undo", Name: "Undo", Description: "Restore last deleted note", Category: plugin.CategoryActions, Context: "notes-list", Priority: 3})
	}
	return cmds
}

// FocusContext returns the current focus context.
func (p *Plugin) FocusContext() string {
	switch {
	case p.deleteDialog != nil:
		return "notes-delete"
	case p.searchMode:
		return "notes-search"
	case p.activePane == PaneEditor && p.editorNote != nil:
		if p.editor.SessionOpen() {
			return "notes-mention"
		}
		return "notes-editor"
	}
	return "notes-list"
}

// ConsumesTextInput reports whether printable keys belong to an input.
func (p *Plugin) ConsumesTextInput() bool {
	return p.searchMode || p.deleteDialog != nil || (p.activePane == PaneEditor && p.editorNote != nil)
}
