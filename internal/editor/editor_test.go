package editor

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/mention"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var people = []directory.User{
	{Username: "johndoe", FirstName: "John", LastName: "Doe"},
	{Username: "janedoe", FirstName: "Jane", LastName: "Doe"},
	{Username: "bobsmith", FirstName: "Bob", LastName: "Smith"},
	{Username: "alicedoe", FirstName: "Alice", LastName: "Doe"},
}

type fetchMsg string

type fakeDirectory struct {
	snap     directory.Snapshot
	ensures  int
	refreshs int
}

func (f *fakeDirectory) Snapshot() directory.Snapshot { return f.snap }

func (f *fakeDirectory) EnsureLoaded() tea.Cmd {
	f.ensures++
	return func() tea.Msg { return fetchMsg("ensure") }
}

func (f *fakeDirectory) ForceRefresh() tea.Cmd {
	f.refreshs++
	return func() tea.Msg { return fetchMsg("refresh") }
}

func loadedDir() *fakeDirectory {
	return &fakeDirectory{snap: directory.Snapshot{Status: directory.StatusLoaded, Users: people}}
}

func newEditor(dir *fakeDirectory) *Model {
	m := New(dir)
	m.SetSize(40, 12)
	m.Focus()
	return m
}

func typeKeys(m *Model, s string) tea.Cmd {
	var last tea.Cmd
	for _, r := range s {
		var cmd tea.Cmd
		if r == ' ' {
			cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		} else {
			cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
		if cmd != nil {
			last = cmd
		}
	}
	return last
}

func press(m *Model, k tea.KeyType) tea.Cmd {
	return m.Update(tea.KeyMsg{Type: k})
}

func click(m *Model, x, y int) tea.Cmd {
	return m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: x, Y: y})
}

func plainView(m *Model) string {
	return ansi.Strip(m.View())
}

func TestEditor_TriggerOpensAndRequestsFetch(t *testing.T) {
	dir := &fakeDirectory{snap: directory.Snapshot{Status: directory.StatusLoading}}
	m := newEditor(dir)

	cmd := typeKeys(m, "@")
	require.NotNil(t, cmd)
	assert.Equal(t, fetchMsg("ensure"), cmd())
	assert.True(t, m.SessionOpen())
	assert.Contains(t, plainView(m), LoadingText)
}

func TestEditor_FailedDirectoryForcesRefresh(t *testing.T) {
	dir := &fakeDirectory{snap: directory.Snapshot{Status: directory.StatusFailed, Err: errors.New("500")}}
	m := newEditor(dir)

	cmd := typeKeys(m, "@")
	require.NotNil(t, cmd)
	assert.Equal(t, fetchMsg("refresh"), cmd())
	assert.Equal(t, 1, dir.refreshs)
	assert.Equal(t, 0, dir.ensures)

	view := plainView(m)
	assert.Contains(t, view, FailedText)
	assert.Contains(t, view, FailedRetryText)
	assert.True(t, m.SessionOpen(), "failure keeps the session open")
}

func TestEditor_EmptyResults(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@zzz")
	assert.Contains(t, plainView(m), EmptyText)
}

func TestEditor_CommitWithEnter(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "hi @jo")

	view := plainView(m)
	assert.Contains(t, view, "@johndoe")
	assert.Contains(t, view, "John Doe")
	assert.NotContains(t, view, "@janedoe")

	before := m.Version()
	press(m, tea.KeyEnter)
	assert.False(t, m.SessionOpen())
	assert.Greater(t, m.Version(), before)

	segs := m.Document().Segments()
	assert.Equal(t, []mention.Segment{
		mention.TextRun("hi "),
		mention.TokenOf("johndoe"),
		mention.TextRun("\u00a0"),
	}, segs)
	assert.Contains(t, m.Value(), `data-username="johndoe"`)
}

func TestEditor_ArrowsThenTab(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@")
	press(m, tea.KeyDown)
	press(m, tea.KeyDown)
	press(m, tea.KeyUp)
	press(m, tea.KeyTab)

	assert.Equal(t, []string{"janedoe"}, m.Document().Mentions())
}

func TestEditor_EnterWithNoCandidateDoesNothing(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@zzz")
	press(m, tea.KeyEnter)

	assert.True(t, m.SessionOpen())
	assert.Equal(t, "@zzz", m.Document().PlainText())
}

func TestEditor_EnterWhenClosedInsertsNewline(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "one")
	press(m, tea.KeyEnter)
	typeKeys(m, "two")
	assert.Equal(t, "one\ntwo", m.Document().PlainText())
}

func TestEditor_CustomKeyMap(t *testing.T) {
	m := newEditor(loadedDir())
	m.KeyMap.Complete = key.NewBinding(key.WithKeys("ctrl+n"))
	typeKeys(m, "@bob")

	press(m, tea.KeyTab)
	assert.True(t, m.SessionOpen(), "tab is no longer bound")

	press(m, tea.KeyCtrlN)
	assert.False(t, m.SessionOpen())
	assert.Equal(t, []string{"bobsmith"}, m.Document().Mentions())
}

func TestEditor_EscapeClosesWithoutCommit(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@jo")
	press(m, tea.KeyEsc)

	assert.False(t, m.SessionOpen())
	assert.Equal(t, "@jo", m.Document().PlainText())
	assert.NotContains(t, plainView(m), "John Doe")
}

func TestEditor_BackspaceRemovesWholeToken(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@jo")
	press(m, tea.KeyEnter)

	press(m, tea.KeyBackspace) // the trailing NBSP
	press(m, tea.KeyBackspace) // the token
	assert.Empty(t, m.Document().Mentions())
	assert.Equal(t, "", m.Document().PlainText())
}

func TestEditor_ClickRowCommits(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@")

	dv, ok := m.dropdown()
	require.True(t, ok)
	require.Len(t, dv.rows, 4)

	row := dv.rows[1]
	click(m, row.X+1, row.Y)
	assert.False(t, m.SessionOpen())
	assert.Equal(t, []string{"janedoe"}, m.Document().Mentions())
}

func TestEditor_HoverHighlights(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@")

	dv, _ := m.dropdown()
	m.Update(tea.MouseMsg{Action: tea.MouseActionMotion, X: dv.rows[2].X, Y: dv.rows[2].Y})
	press(m, tea.KeyEnter)
	assert.Equal(t, []string{"bobsmith"}, m.Document().Mentions())
}

func TestEditor_ClickOutsideDismissesAndMovesCaret(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "abc @")
	require.True(t, m.SessionOpen())

	dv, _ := m.dropdown()
	require.False(t, dv.rect.Contains(1, 0))
	click(m, 1, 0)

	assert.False(t, m.SessionOpen())
	assert.Equal(t, 1, m.Document().Caret())
	assert.Equal(t, "abc @", m.Document().PlainText())
}

func TestEditor_CaretKeysCloseSession(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@jo")
	press(m, tea.KeyLeft)

	assert.False(t, m.SessionOpen())
	assert.Equal(t, 2, m.Document().Caret())
}

func TestEditor_SpaceClosesSession(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@jo ")
	assert.False(t, m.SessionOpen())
}

func TestEditor_BlurDismisses(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "@")
	m.Blur()
	assert.False(t, m.SessionOpen())
	assert.False(t, m.Focused())

	// Keys are ignored without focus.
	typeKeys(m, "x")
	assert.Equal(t, "@", m.Document().PlainText())
}

func TestEditor_SetValueIsNotAnEdit(t *testing.T) {
	m := newEditor(loadedDir())
	markup := `Hi <span class="mention" contenteditable="false" data-username="bobsmith">@bobsmith</span>&nbsp;there`
	m.SetValue(markup)

	assert.Zero(t, m.Version())
	assert.Equal(t, []string{"bobsmith"}, m.Document().Mentions())
	assert.Equal(t, markup, m.Value())
	assert.Equal(t, m.Document().Len(), m.Document().Caret())
}

func TestEditor_VerticalMovementKeepsColumn(t *testing.T) {
	m := newEditor(loadedDir())
	m.SetValue("abcdef\nxy\nlmnopq")
	m.Document().SetCaret(5) // "abcde|f"

	press(m, tea.KeyDown)
	assert.Equal(t, 9, m.Document().Caret(), "clamped to end of short line")
	press(m, tea.KeyDown)
	assert.Equal(t, 15, m.Document().Caret(), "column 5 restored on the long line")
	press(m, tea.KeyUp)
	press(m, tea.KeyUp)
	assert.Equal(t, 5, m.Document().Caret())
}

func TestEditor_ShiftSelectionReplacedByInput(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "hello")
	press(m, tea.KeyShiftLeft)
	press(m, tea.KeyShiftLeft)
	typeKeys(m, "p!")
	assert.Equal(t, "help!", m.Document().PlainText())
}

func TestEditor_ViewSize(t *testing.T) {
	m := newEditor(loadedDir())
	typeKeys(m, "some text")
	lines := strings.Split(m.View(), "\n")
	require.Len(t, lines, 12)
	for i, l := range lines {
		assert.Equal(t, 40, ansi.StringWidth(l), "line %d", i)
	}
}

func TestEditor_Placeholder(t *testing.T) {
	m := New(loadedDir())
	m.SetSize(40, 3)
	assert.Contains(t, plainView(m), "Type @ to mention someone")
}

func TestEditor_ScrollsToCaret(t *testing.T) {
	m := newEditor(loadedDir())
	m.SetSize(20, 2)
	typeKeys(m, "a")
	for i := 0; i < 5; i++ {
		press(m, tea.KeyEnter)
		typeKeys(m, "b")
	}
	view := plainView(m)
	assert.NotContains(t, view, "a")
	assert.Equal(t, 4, m.top)
}
