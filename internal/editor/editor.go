// Package editor is the terminal mention editor: a bubbletea component that
// edits a mention.Document and shows the candidate dropdown.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/scribe/internal/mention"
	"github.com/marcus/scribe/internal/styles"
	"github.com/marcus/scribe/internal/ui"
)

// Directory is the shared user directory the editor reads candidates from
// and asks to fetch. *directory.Cache implements it.
type Directory interface {
	mention.Directory
	EnsureLoaded() tea.Cmd
	ForceRefresh() tea.Cmd
}

// KeyMap is the set of editing bindings. Printable keys are always inserted
// as text and are not part of it.
type KeyMap struct {
	Accept         key.Binding
	Complete       key.Binding
	Dismiss        key.Binding
	DeleteBackward key.Binding
	DeleteForward  key.Binding
	Up             key.Binding
	Down           key.Binding
	Left           key.Binding
	Right          key.Binding
	LineStart      key.Binding
	LineEnd        key.Binding
	SelectLeft     key.Binding
	SelectRight    key.Binding
}

// DefaultKeyMap is the default set of editing bindings.
var DefaultKeyMap = KeyMap{
	Accept:         key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "insert mention or newline")),
	Complete:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "insert mention")),
	Dismiss:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close user list")),
	DeleteBackward: key.NewBinding(key.WithKeys("backspace", "ctrl+h")),
	DeleteForward:  key.NewBinding(key.WithKeys("delete", "ctrl+d")),
	Up:             key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "previous user or line")),
	Down:           key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next user or line")),
	Left:           key.NewBinding(key.WithKeys("left")),
	Right:          key.NewBinding(key.WithKeys("right")),
	LineStart:      key.NewBinding(key.WithKeys("home", "ctrl+a")),
	LineEnd:        key.NewBinding(key.WithKeys("end", "ctrl+e")),
	SelectLeft:     key.NewBinding(key.WithKeys("shift+left")),
	SelectRight:    key.NewBinding(key.WithKeys("shift+right")),
}

// Model is the editor component. Unlike most bubbletea models it is used
// through a pointer and updated in place.
type Model struct {
	machine *mention.Machine
	dir     Directory

	width, height int
	top           int // first visible row
	focused       bool
	version       uint64
	wantCol       int // sticky column for up/down, -1 when unset

	KeyMap      KeyMap
	Placeholder string
}

// New creates an empty editor reading from dir.
func New(dir Directory) *Model {
	return &Model{
		machine:     mention.NewMachine(nil, dir),
		dir:         dir,
		wantCol:     -1,
		KeyMap:      DefaultKeyMap,
		Placeholder: "Type @ to mention someone",
	}
}

// SetLimit sets the dropdown candidate cap.
func (m *Model) SetLimit(n int) { m.machine.SetLimit(n) }

// SetSize sets the content area in cells.
func (m *Model) SetSize(width, height int) {
	m.width = max(width, 1)
	m.height = max(height, 1)
	m.scrollToCaret()
}

// Focus gives the editor keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes focus. An open session closes as if the user clicked away.
func (m *Model) Blur() {
	m.focused = false
	m.machine.Dismiss()
}

// Focused reports whether the editor has focus.
func (m *Model) Focused() bool { return m.focused }

// SessionOpen reports whether a mention session is active.
func (m *Model) SessionOpen() bool { return m.machine.IsOpen() }

// Document returns the edited document.
func (m *Model) Document() *mention.Document { return m.machine.Document() }

// Version increments on every user edit.
func (m *Model) Version() uint64 { return m.version }

// Value returns the document as markup.
func (m *Model) Value() string { return mention.Serialize(m.machine.Document()) }

// SetValue loads markup, placing the caret at the end. It is not counted
// as an edit.
func (m *Model) SetValue(markup string) {
	m.machine.SetDocument(mention.Parse(markup))
	m.top = 0
	m.wantCol = -1
	m.scrollToCaret()
}

// Update handles key and mouse input. Mouse coordinates must be relative
// to the editor's top-left cell.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			return nil
		}
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return nil
}

func (m *Model) lines() []visualLine {
	return layout(m.machine.Document(), m.wrapWidth())
}

// wrapWidth leaves one column for the caret at the end of a full row.
func (m *Model) wrapWidth() int {
	return max(m.width-1, 1)
}

func (m *Model) caretPosition() mention.Position {
	row, col := caretCell(m.lines(), m.machine.Document().Caret())
	return mention.Position{X: col, Y: row}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	doc := m.machine.Document()
	var res mention.Result
	keepCol := false

	km := m.KeyMap
	switch {
	case msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace:
		text := string(msg.Runes)
		if msg.Type == tea.KeySpace {
			text = " "
		}
		res = m.machine.Input(text, m.caretPosition())

	case key.Matches(msg, km.Accept):
		if res = m.machine.Key(mention.KeyEnter); !res.Handled {
			res = m.machine.Input("\n", m.caretPosition())
		}

	case key.Matches(msg, km.Complete):
		res = m.machine.Key(mention.KeyTab)

	case key.Matches(msg, km.Dismiss):
		res = m.machine.Key(mention.KeyEscape)

	case key.Matches(msg, km.DeleteBackward):
		if res = m.machine.Key(mention.KeyBackspace); !res.Handled {
			res.Changed = doc.DeleteBackward()
		}

	case key.Matches(msg, km.DeleteForward):
		if res = m.machine.Key(mention.KeyDelete); !res.Handled {
			res.Changed = doc.DeleteForward()
		}

	case key.Matches(msg, km.Up):
		if res = m.machine.Key(mention.KeyUp); !res.Handled {
			m.moveVertical(-1)
			keepCol = true
		}

	case key.Matches(msg, km.Down):
		if res = m.machine.Key(mention.KeyDown); !res.Handled {
			m.moveVertical(1)
			keepCol = true
		}

	case key.Matches(msg, km.Left):
		m.machine.Key(mention.KeyLeft)
		doc.MoveLeft()
	case key.Matches(msg, km.Right):
		m.machine.Key(mention.KeyRight)
		doc.MoveRight()
	case key.Matches(msg, km.LineStart):
		m.machine.Key(mention.KeyHome)
		doc.LineStart()
	case key.Matches(msg, km.LineEnd):
		m.machine.Key(mention.KeyEnd)
		doc.LineEnd()

	case key.Matches(msg, km.SelectLeft):
		m.machine.Dismiss()
		doc.Select(doc.Anchor(), doc.Caret()-1)
	case key.Matches(msg, km.SelectRight):
		m.machine.Dismiss()
		doc.Select(doc.Anchor(), doc.Caret()+1)
	}

	if !keepCol {
		m.wantCol = -1
	}
	return m.finish(res)
}

// finish applies the bookkeeping shared by key and mouse results.
func (m *Model) finish(res mention.Result) tea.Cmd {
	if res.Changed {
		m.version++
	}
	m.scrollToCaret()

	if m.dir == nil {
		return nil
	}
	switch res.Fetch {
	case mention.FetchEnsure:
		return m.dir.EnsureLoaded()
	case mention.FetchRefresh:
		return m.dir.ForceRefresh()
	}
	return nil
}

func (m *Model) moveVertical(delta int) {
	doc := m.machine.Document()
	lines := m.lines()
	row, col := caretCell(lines, doc.Caret())
	if m.wantCol < 0 {
		m.wantCol = col
	}
	target := row + delta
	switch {
	case target < 0:
		doc.SetCaret(0)
	case target >= len(lines):
		doc.SetCaret(doc.Len())
	default:
		doc.SetCaret(positionAt(doc, lines, target, m.wantCol))
	}
}

func (m *Model) scrollToCaret() {
	if m.height <= 0 {
		return
	}
	row, _ := caretCell(m.lines(), m.machine.Document().Caret())
	if row < m.top {
		m.top = row
	}
	if row >= m.top+m.height {
		m.top = row - m.height + 1
	}
}

// dropdown lays out the dropdown for the open session, or reports false.
func (m *Model) dropdown() (dropdownView, bool) {
	dd := m.machine.Dropdown()
	if dd.Status == mention.DropdownHidden {
		return dropdownView{}, false
	}
	w := min(dropdownWidth, max(m.width, 8))
	x, y := placeDropdown(dd.Anchor.X, dd.Anchor.Y-m.top, w, dropdownHeight(dd), m.width, m.height)
	return renderDropdown(dd, x, y, m.width), true
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	dv, open := m.dropdown()

	switch msg.Action {
	case tea.MouseActionMotion:
		if open {
			for i, r := range dv.rows {
				if r.Contains(msg.X, msg.Y) {
					m.machine.Highlight(i)
				}
			}
		}
		return nil
	case tea.MouseActionRelease:
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.top = max(m.top-1, 0)
		return nil
	case tea.MouseButtonWheelDown:
		m.top = min(m.top+1, max(len(m.lines())-m.height, 0))
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}

	if open {
		for i, r := range dv.rows {
			if r.Contains(msg.X, msg.Y) {
				return m.finish(m.machine.Select(i))
			}
		}
		if dv.rect.Contains(msg.X, msg.Y) {
			return nil
		}
		m.machine.Dismiss()
	}

	if msg.X < 0 || msg.Y < 0 || msg.X >= m.width || msg.Y >= m.height {
		return nil
	}
	doc := m.machine.Document()
	doc.SetCaret(positionAt(doc, m.lines(), msg.Y+m.top, msg.X))
	m.wantCol = -1
	return nil
}

// View renders exactly width x height cells.
func (m *Model) View() string {
	doc := m.machine.Document()
	lineStyle := lipgloss.NewStyle().Width(m.width).MaxWidth(m.width)

	if doc.IsEmpty() && !m.focused && m.Placeholder != "" {
		body := styles.Muted.Render(fit(m.Placeholder, m.width))
		return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(body)
	}

	lines := m.lines()
	selStart, selEnd := doc.Selection()
	caret := -1
	if m.focused && doc.Collapsed() {
		caret = doc.Caret()
	}

	rows := make([]string, 0, m.height)
	for r := m.top; r < m.top+m.height; r++ {
		if r >= len(lines) {
			rows = append(rows, lineStyle.Render(""))
			continue
		}
		rows = append(rows, lineStyle.Render(m.renderLine(lines[r], caret, selStart, selEnd)))
	}
	out := strings.Join(rows, "\n")

	if dv, ok := m.dropdown(); ok {
		out = ui.OverlayAt(out, dv.box, dv.rect.X, dv.rect.Y)
	}
	return out
}

func (m *Model) renderLine(l visualLine, caret, selStart, selEnd int) string {
	doc := m.machine.Document()
	selected := lipgloss.NewStyle().Background(styles.BgTertiary)

	var b strings.Builder
	for i := l.start; i < l.end; i++ {
		u := doc.Unit(i)
		text := u.Text()
		if !u.IsToken() && (u.Rune == mention.NBSP || u.Rune == '\t') {
			text = " "
		}

		switch {
		case i == caret && u.IsToken():
			// Block caret on the trigger, rest of the token styled.
			b.WriteString(styles.Caret.Render(text[:1]))
			b.WriteString(styles.Mention.Render(text[1:]))
		case i == caret:
			b.WriteString(styles.Caret.Render(text))
		case i >= selStart && i < selEnd:
			b.WriteString(selected.Render(text))
		case u.IsToken():
			b.WriteString(styles.Mention.Render(text))
		default:
			b.WriteString(text)
		}
	}
	if caret == l.end && !isSoftWrap(doc, l) {
		b.WriteString(styles.Caret.Render(" "))
	}
	return b.String()
}

// isSoftWrap reports whether l ends because the row filled up rather than
// at a newline.
func isSoftWrap(doc *mention.Document, l visualLine) bool {
	if l.end >= doc.Len() {
		return false
	}
	u := doc.Unit(l.end)
	return u.IsToken() || u.Rune != '\n'
}
