package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/config"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/keymap"
	"github.com/marcus/scribe/internal/mention"
	"github.com/marcus/scribe/internal/msg"
	"github.com/marcus/scribe/internal/notes"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/marcus/scribe/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory backend that supports restore.
type memRepo struct {
	mu         sync.Mutex
	order      []string
	byID       map[string]*notes.Note
	seq        int
	updates    int
	failUpdate error
}

func newMemRepo(seed ...notes.Note) *memRepo {
	r := &memRepo{byID: make(map[string]*notes.Note)}
	for i := range seed {
		n := seed[i]
		r.order = append(r.order, n.ID)
		r.byID[n.ID] = &n
	}
	return r
}

func (r *memRepo) List(ctx context.Context) ([]notes.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notes.Note
	for _, id := range r.order {
		if n := r.byID[id]; !n.IsDeleted {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *memRepo) Get(ctx context.Context, id string) (*notes.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok || n.IsDeleted {
		return nil, notes.ErrNotFound
	}
	c := *n
	return &c, nil
}

func (r *memRepo) Create(ctx context.Context, n notes.Note) (*notes.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	n.ID = fmt.Sprintf("new-%d", r.seq)
	n.CreatedAt = time.Now()
	n.LastUpdatedAt = n.CreatedAt
	r.order = append(r.order, n.ID)
	r.byID[n.ID] = &n
	c := n
	return &c, nil
}

func (r *memRepo) Update(ctx context.Context, n notes.Note) (*notes.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	cur, ok := r.byID[n.ID]
	if !ok {
		return nil, notes.ErrNotFound
	}
	r.updates++
	cur.Title = n.Title
	cur.Text = n.Text
	cur.LastUpdatedAt = time.Now()
	c := *cur
	return &c, nil
}

func (r *memRepo) Delete(ctx context.Context, n notes.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[n.ID]
	if !ok {
		return notes.ErrNotFound
	}
	cur.IsDeleted = true
	return nil
}

func (r *memRepo) Restore(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return notes.ErrNotFound
	}
	cur.IsDeleted = false
	return nil
}

// plainRepo hides Restore, like the remote backend.
type plainRepo struct{ notes.Repository }

var people = []directory.User{
	{Username: "johndoe", FirstName: "John", LastName: "Doe"},
	{Username: "janedoe", FirstName: "Jane", LastName: "Doe"},
}

func seedNotes() []notes.Note {
	now := time.Now()
	return []notes.Note{
		{ID: "a", Title: "Groceries", Text: "milk", LastUpdatedAt: now.Add(-2 * time.Hour)},
		{ID: "b", Title: "Standup", Text: "talk to team", LastUpdatedAt: now.Add(-time.Minute)},
		{ID: "c", Title: "Ideas", Text: "", LastUpdatedAt: now.Add(-48 * time.Hour)},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadedCache(t *testing.T) *directory.Cache {
	t.Helper()
	c := directory.NewCache(directory.FetcherFunc(func(ctx context.Context) ([]directory.User, error) {
		return people, nil
	}), time.Second, quietLogger())
	fetched, ok := c.EnsureLoaded()().(directory.FetchedMsg)
	require.True(t, ok)
	require.True(t, c.Apply(fetched))
	return c
}

func newTestContext(t *testing.T, repo notes.Repository) *plugin.Context {
	t.Helper()
	require.NoError(t, state.InitWithDir(t.TempDir()))

	cfg := config.Default()
	cfg.Notes.AutosaveDelay = time.Millisecond
	cfg.Notes.Watch = false

	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)

	return &plugin.Context{
		Config:    cfg,
		Logger:    quietLogger(),
		Keymap:    km,
		Directory: loadedCache(t),
		Notes:     repo,
	}
}

// newLoadedPlugin returns a started plugin with the seed notes loaded.
func newLoadedPlugin(t *testing.T, repo notes.Repository) *Plugin {
	t.Helper()
	p := New()
	require.NoError(t, p.Init(newTestContext(t, repo)))
	p.SetFocused(true)
	drive(p, p.Start())
	p.View(100, 20)
	return p
}

// runCmd executes cmd and flattens batches. Commands that block, such as
// cursor blinks, are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case m := <-ch:
		if batch, ok := m.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, runCmd(c)...)
			}
			return out
		}
		if m == nil {
			return nil
		}
		return []tea.Msg{m}
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// drive runs cmd and feeds the plugin's own messages back until idle. It
// returns the toasts raised on the way.
func drive(p *Plugin, cmd tea.Cmd) []msg.ToastMsg {
	var toasts []msg.ToastMsg
	queue := runCmd(cmd)
	for i := 0; len(queue) > 0 && i < 100; i++ {
		m := queue[0]
		queue = queue[1:]
		switch m := m.(type) {
		case msg.ToastMsg:
			toasts = append(toasts, m)
		case NotesLoadedMsg, NoteCreatedMsg, NoteSavedMsg, NoteDeletedMsg, NoteRestoredMsg, AutoSaveTickMsg:
			_, next := p.Update(m)
			queue = append(queue, runCmd(next)...)
		}
	}
	return toasts
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(p *Plugin, s string) tea.Cmd {
	_, cmd := p.Update(key(s))
	return cmd
}

// typeText sends each rune as its own key and returns the commands.
func typeText(p *Plugin, s string) []tea.Cmd {
	var cmds []tea.Cmd
	for _, r := range s {
		cmds = append(cmds, press(p, string(r)))
	}
	return cmds
}

func click(p *Plugin, x, y int) tea.Cmd {
	_, cmd := p.Update(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	return cmd
}

func toastTexts(toasts []msg.ToastMsg) []string {
	var out []string
	for _, t := range toasts {
		out = append(out, t.Message)
	}
	return out
}

func TestInit_RequiresBackend(t *testing.T) {
	p := New()
	ctx := newTestContext(t, nil)
	ctx.Notes = nil
	assert.ErrorIs(t, p.Init(ctx), errNoBackend)
}

func TestLoad_SortsNewestFirst(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))

	require.Len(t, p.notes, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{p.notes[0].ID, p.notes[1].ID, p.notes[2].ID})
	assert.Equal(t, 0, p.cursor)
	assert.Equal(t, "notes-list", p.FocusContext())
	assert.False(t, p.ConsumesTextInput())
}

func TestLoad_SelectsLastOpenNote(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	ctx := newTestContext(t, repo)
	require.NoError(t, state.SetLastNoteID("c"))

	p := New()
	require.NoError(t, p.Init(ctx))
	drive(p, p.Start())

	require.NotNil(t, p.selectedNote())
	assert.Equal(t, "c", p.selectedNote().ID)
	assert.Nil(t, p.editorNote, "restoring the selection does not open the editor")
}

func TestLoad_StaleEpochIgnored(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	p.ctx.Epoch = 2

	p.Update(NotesLoadedMsg{Notes: nil, Epoch: 1})
	assert.Len(t, p.notes, 3)
}

func TestInit_BackendSwapDropsPendingResults(t *testing.T) {
	old := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, old)
	pending := p.loadNotes()

	ctx := newTestContext(t, newMemRepo(notes.Note{ID: "z", Title: "fresh", LastUpdatedAt: time.Now()}))
	ctx.Epoch = p.ctx.Epoch
	require.NoError(t, p.Init(ctx))
	assert.Equal(t, uint64(1), ctx.Epoch)

	drive(p, p.loadNotes())
	require.Len(t, p.notes, 1)

	p.Update(pending())
	require.Len(t, p.notes, 1, "result from the previous backend is dropped")
	assert.Equal(t, "z", p.notes[0].ID)
}

func TestInit_SameBackendKeepsEpoch(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)
	require.NoError(t, p.Init(p.ctx))
	assert.Zero(t, p.ctx.Epoch)
}

func TestLoad_ErrorShown(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo())
	p.Update(NotesLoadedMsg{Err: errors.New("disk on fire")})

	assert.Contains(t, p.View(100, 20), "Load failed")
}

func TestCreate_OpensEditorWithTitleFocused(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)

	drive(p, press(p, "n"))

	require.NotNil(t, p.editorNote)
	assert.Equal(t, "new-1", p.editorNote.ID)
	assert.Equal(t, PaneEditor, p.activePane)
	assert.Equal(t, fieldTitle, p.field)
	assert.Equal(t, "notes-editor", p.FocusContext())
	assert.True(t, p.ConsumesTextInput())
	assert.Equal(t, "new-1", state.GetNotesState().LastNoteID)
}

func TestAutosave_DebouncesToLatestEdit(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)
	press(p, "enter")
	require.Equal(t, fieldBody, p.field)

	cmds := typeText(p, "!!")
	require.Len(t, cmds, 2)

	// The first tick is superseded by the second keystroke.
	assert.Empty(t, drive(p, cmds[0]))
	assert.Equal(t, 0, repo.updates)

	toasts := drive(p, cmds[1])
	assert.Equal(t, []string{"Saved"}, toastTexts(toasts))
	assert.Equal(t, 1, repo.updates)

	saved, err := repo.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "talk to team!!", saved.Text)
	assert.False(t, p.dirty())
}

func TestSave_SkipsUnchangedContent(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)
	press(p, "enter")

	assert.Nil(t, press(p, "ctrl+s"))
	_, cmd := p.Update(AutoSaveTickMsg{ID: p.autoSaveID})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, repo.updates)
}

func TestSave_FailureRaisesErrorToast(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	repo.failUpdate = errors.New("offline")
	p := newLoadedPlugin(t, repo)
	press(p, "enter")
	typeText(p, "x")

	toasts := drive(p, press(p, "ctrl+s"))
	require.Len(t, toasts, 1)
	assert.True(t, toasts[0].IsError)
	assert.Equal(t, "Save failed: offline", toasts[0].Message)
	assert.True(t, p.dirty())
}

func TestEditor_EscSavesAndReturnsToList(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)
	press(p, "enter")
	typeText(p, "?")

	drive(p, press(p, "esc"))

	assert.Equal(t, PaneList, p.activePane)
	assert.Nil(t, p.editorNote)
	assert.Equal(t, 1, repo.updates)
}

func TestEditor_TabSwitchesFields(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	press(p, "enter")

	press(p, "tab")
	assert.Equal(t, fieldTitle, p.field)
	typeText(p, "!")
	assert.Equal(t, "Standup!", p.titleInput.Value())

	press(p, "tab")
	assert.Equal(t, fieldBody, p.field)
}

func TestEditor_MentionCommitThroughPlugin(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)
	press(p, "enter")

	typeText(p, " @jo")
	assert.Equal(t, "notes-mention", p.FocusContext())
	require.NotEmpty(t, p.Commands())
	assert.Equal(t, "mention-select", p.Commands()[0].ID)

	// Enter commits instead of inserting a newline.
	drive(p, press(p, "enter"))
	assert.Equal(t, "notes-editor", p.FocusContext())
	assert.Equal(t, []string{"johndoe"}, p.editor.Document().Mentions())
	assert.Contains(t, p.editor.Value(), `data-username="johndoe"`)
	assert.Equal(t, PaneEditor, p.activePane)
}

func TestEditor_EscClosesDropdownBeforeLeaving(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	press(p, "enter")
	typeText(p, " @j")
	require.True(t, p.editor.SessionOpen())

	press(p, "esc")
	assert.False(t, p.editor.SessionOpen())
	assert.Equal(t, PaneEditor, p.activePane)

	press(p, "esc")
	assert.Equal(t, PaneList, p.activePane)
}

func TestEditor_ClickOutsideDismissesDropdown(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	press(p, "enter")
	typeText(p, " @j")
	p.View(100, 20)
	require.True(t, p.editor.SessionOpen())

	click(p, 1, 0) // list header
	assert.False(t, p.editor.SessionOpen())
	assert.Equal(t, PaneEditor, p.activePane)
	assert.False(t, p.searchMode)
}

func TestEditor_BlurOnFocusLossClosesDropdown(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	press(p, "enter")
	typeText(p, " @j")

	p.SetFocused(false)
	assert.False(t, p.editor.SessionOpen())
	assert.True(t, p.editor.Focused())
}

func TestDelete_ConfirmAndUndo(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)

	press(p, "X")
	require.NotNil(t, p.deleteDialog)
	assert.Equal(t, "notes-delete", p.FocusContext())
	press(p, "n")
	assert.Nil(t, p.deleteDialog)
	assert.Len(t, p.notes, 3)

	press(p, "X")
	toasts := drive(p, press(p, "y"))
	assert.Equal(t, []string{"Deleted"}, toastTexts(toasts))
	assert.Len(t, p.notes, 2)
	assert.True(t, p.canUndo())

	toasts = drive(p, press(p, "u"))
	assert.Equal(t, []string{"Restored: Standup"}, toastTexts(toasts))
	assert.Len(t, p.notes, 3)
	assert.Equal(t, "b", p.selectedNote().ID)
	assert.False(t, p.canUndo())
}

func TestDelete_DialogButtonsClickable(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	press(p, "X")
	p.View(100, 20)

	_, cancel := p.deleteDialog.ButtonRects(100, 20)
	click(p, cancel.X, cancel.Y)
	assert.Nil(t, p.deleteDialog)
	assert.Len(t, p.notes, 3)
}

func TestUndo_UnsupportedBackend(t *testing.T) {
	p := newLoadedPlugin(t, plainRepo{newMemRepo(seedNotes()...)})

	press(p, "X")
	drive(p, press(p, "y"))
	assert.False(t, p.canUndo())

	toasts := drive(p, press(p, "u"))
	assert.Equal(t, []string{"Undo is not available for this backend"}, toastTexts(toasts))
}

func TestUndo_StackIsBounded(t *testing.T) {
	p := New()
	for i := 0; i < maxUndoStack+5; i++ {
		p.pushUndo(UndoAction{NoteID: fmt.Sprint(i)})
	}
	require.Len(t, p.undoStack, maxUndoStack)
	a, ok := p.popUndo()
	require.True(t, ok)
	assert.Equal(t, fmt.Sprint(maxUndoStack+4), a.NoteID)
}

func TestYank_CopiesPlainText(t *testing.T) {
	doc := mention.FromSegments([]mention.Segment{mention.TextRun("ping "), mention.TokenOf("johndoe")})
	repo := newMemRepo(notes.Note{ID: "m", Title: "Ping", Text: mention.Serialize(doc), LastUpdatedAt: time.Now()})
	p := newLoadedPlugin(t, repo)

	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { writeClipboard = orig })

	toasts := drive(p, press(p, "y"))
	assert.Equal(t, "ping @johndoe", copied)
	assert.Equal(t, []string{"Copied note text"}, toastTexts(toasts))
}

func TestSearch_FiltersAndClears(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))

	press(p, "/")
	assert.Equal(t, "notes-search", p.FocusContext())
	typeText(p, "groc")
	require.Len(t, p.displayNotes(), 1)
	assert.Equal(t, "a", p.displayNotes()[0].ID)

	press(p, "enter")
	assert.False(t, p.searchMode)
	assert.Len(t, p.displayNotes(), 1)

	press(p, "/")
	press(p, "esc")
	assert.Len(t, p.displayNotes(), 3)
}

func TestCursor_Movement(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))

	press(p, "j")
	press(p, "j")
	press(p, "j")
	assert.Equal(t, 2, p.cursor)
	press(p, "k")
	assert.Equal(t, 1, p.cursor)
}

func TestMouse_ClickSelectsAndDoubleClickOpens(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))

	click(p, 2, listHeaderRows+2)
	assert.Equal(t, 2, p.cursor)
	assert.Nil(t, p.editorNote)

	click(p, 2, listHeaderRows+2)
	require.NotNil(t, p.editorNote)
	assert.Equal(t, "c", p.editorNote.ID)
}

func TestMouse_DividerDragPersistsWidth(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	lw := p.listPaneWidth()

	click(p, lw, 5)
	p.Update(tea.MouseMsg{X: lw + 10, Y: 5, Action: tea.MouseActionMotion})
	assert.Equal(t, lw+10, p.listPaneWidth())

	p.Update(tea.MouseMsg{X: lw + 10, Y: 5, Action: tea.MouseActionRelease})
	assert.Equal(t, lw+10, state.GetNotesState().ListWidth)
}

func TestView_ShowsListAndPreview(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))

	out := p.View(100, 20)
	assert.Contains(t, out, "Groceries")
	assert.Contains(t, out, "Standup")
	assert.Equal(t, 20, len(strings.Split(out, "\n")))
}

func TestCommands_FollowFocus(t *testing.T) {
	p := newLoadedPlugin(t, newMemRepo(seedNotes()...))
	assert.Equal(t, "new-note", p.Commands()[0].ID)

	press(p, "enter")
	ids := []string{}
	for _, c := range p.Commands() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"back", "save", "switch-field"}, ids)

	typeText(p, "x")
	assert.Equal(t, "Save*", p.Commands()[1].Name)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 30))
	assert.Equal(t, "abcdefg...", truncateTitle("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncateTitle("abcdef", 2))
}

func TestFormatAge(t *testing.T) {
	assert.Equal(t, "now", formatAge(10*time.Second))
	assert.Equal(t, "5m", formatAge(5*time.Minute))
	assert.Equal(t, "3h", formatAge(3*time.Hour))
	assert.Equal(t, "2d", formatAge(50*time.Hour))
}

func TestStop_FlushesUnsavedEdits(t *testing.T) {
	repo := newMemRepo(seedNotes()...)
	p := newLoadedPlugin(t, repo)
	press(p, "enter")
	typeText(p, "!")

	p.Stop()
	assert.Equal(t, 1, repo.updates)
	assert.Equal(t, "b", state.GetNotesState().LastNoteID)
}
