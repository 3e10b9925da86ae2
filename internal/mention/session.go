package mention

import (
	"strings"

	"github.com/marcus/scribe/internal/directory"
)

// Key is an editing key the state machine reacts to.
type Key int

const (
	KeyUp Key = iota + 1
	KeyDown
	KeyEnter
	KeyTab
	KeyEscape
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
)

// Position is a cell position relative to the editor content.
type Position struct {
	X, Y int
}

// FetchAction asks the owner to start a directory fetch.
type FetchAction int

const (
	FetchNone FetchAction = iota
	FetchEnsure
	FetchRefresh
)

// Result describes what handling an event did.
type Result struct {
	// Handled means the machine consumed the event and the default editing
	// behavior must not run.
	Handled bool
	// Changed means the document content changed.
	Changed bool
	// Fetch requests a directory fetch.
	Fetch FetchAction
	// Committed is the username of a token inserted by this event.
	Committed string
}

// Directory is the read side of the directory cache.
type Directory interface {
	Snapshot() directory.Snapshot
}

// Session is an open mention interaction. Anchor is captured when the
// session opens and does not move while typing.
type Session struct {
	Query       string
	Highlighted int
	Anchor      Position
}

// DropdownStatus is the presentation state of the candidate list.
type DropdownStatus int

const (
	DropdownHidden DropdownStatus = iota
	DropdownLoading
	DropdownFailed
	DropdownEmpty
	DropdownPopulated
)

// Dropdown is everything the dropdown view needs to render.
type Dropdown struct {
	Status      DropdownStatus
	Query       string
	Candidates  []directory.User
	Highlighted int
	Anchor      Position
	Err         error
}

// Machine is the mention session state machine. It owns the document it
// edits and reads candidates from a shared directory.
type Machine struct {
	doc     *Document
	dir     Directory
	limit   int
	session *Session
}

// NewMachine creates a closed machine over doc. A nil doc starts empty.
func NewMachine(doc *Document, dir Directory) *Machine {
	if doc == nil {
		doc = NewDocument()
	}
	return &Machine{doc: doc, dir: dir, limit: DefaultMaxCandidates}
}

// SetLimit sets the candidate cap.
func (m *Machine) SetLimit(n int) {
	if n > 0 {
		m.limit = n
	}
}

// Document returns the edited document.
func (m *Machine) Document() *Document { return m.doc }

// SetDocument replaces the document and closes any session.
func (m *Machine) SetDocument(d *Document) {
	if d == nil {
		d = NewDocument()
	}
	m.doc = d
	m.session = nil
}

// IsOpen reports whether a session is active.
func (m *Machine) IsOpen() bool { return m.session != nil }

// Session returns a copy of the active session.
func (m *Machine) Session() (Session, bool) {
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

func (m *Machine) snapshot() directory.Snapshot {
	if m.dir == nil {
		return directory.Snapshot{}
	}
	return m.dir.Snapshot()
}

// Candidates returns the filtered users for the open session, or nil when
// closed or the directory is not loaded.
func (m *Machine) Candidates() []directory.User {
	if m.session == nil {
		return nil
	}
	snap := m.snapshot()
	if snap.Status != directory.StatusLoaded {
		return nil
	}
	return FilterCandidatesN(snap.Users, m.session.Query, m.limit)
}

// Dropdown returns the view state for the candidate list.
func (m *Machine) Dropdown() Dropdown {
	if m.session == nil {
		return Dropdown{Status: DropdownHidden}
	}
	dd := Dropdown{Query: m.session.Query, Anchor: m.session.Anchor}

	snap := m.snapshot()
	switch snap.Status {
	case directory.StatusFailed:
		dd.Status = DropdownFailed
		dd.Err = snap.Err
	case directory.StatusLoaded:
		dd.Candidates = m.Candidates()
		if len(dd.Candidates) == 0 {
			dd.Status = DropdownEmpty
		} else {
			dd.Status = DropdownPopulated
			dd.Highlighted = clamp(m.session.Highlighted, 0, len(dd.Candidates)-1)
		}
	default:
		dd.Status = DropdownLoading
	}
	return dd
}

// Input is the pre-commit interception point for typed text. It sees text
// before it reaches the document, inserts it, and moves the session.
// caret is the caret cell before insertion; it becomes the dropdown anchor
// if this input opens a session.
func (m *Machine) Input(text string, caret Position) Result {
	if text == "" {
		return Result{}
	}
	done := Result{Handled: true, Changed: true}

	if text != string(Trigger) {
		m.doc.InsertText(text)
		if m.session != nil {
			m.refreshQuery()
		}
		return done
	}

	if m.session != nil {
		m.close()
		m.doc.InsertText(text)
		return done
	}

	m.doc.DeleteSelection()
	eligible := IsTriggerEligible(m.doc.TextBeforeCaret())
	m.doc.InsertText(text)
	if !eligible {
		return done
	}

	m.session = &Session{Anchor: caret}
	done.Fetch = FetchEnsure
	if m.snapshot().Status == directory.StatusFailed {
		done.Fetch = FetchRefresh
	}
	return done
}

// Key handles an editing key. When the result is not Handled the caller
// applies its default behavior for the key.
func (m *Machine) Key(k Key) Result {
	if m.session == nil {
		if k == KeyBackspace && DeleteBoundary(m.doc) {
			return Result{Handled: true, Changed: true}
		}
		return Result{}
	}

	// The candidate list may have shrunk since the last key.
	if n := len(m.Candidates()); n > 0 {
		m.session.Highlighted = clamp(m.session.Highlighted, 0, n-1)
	}

	switch k {
	case KeyDown:
		if n := len(m.Candidates()); n > 0 {
			m.session.Highlighted = clamp(m.session.Highlighted+1, 0, n-1)
		}
		return Result{Handled: true}

	case KeyUp:
		m.session.Highlighted = max(m.session.Highlighted-1, 0)
		return Result{Handled: true}

	case KeyEnter, KeyTab:
		cands := m.Candidates()
		i := m.session.Highlighted
		if i < 0 || i >= len(cands) {
			return Result{Handled: true}
		}
		return m.commit(cands[i])

	case KeyEscape:
		m.close()
		return Result{Handled: true}

	case KeyBackspace:
		removesTrigger := m.doc.Collapsed() &&
			strings.HasSuffix(m.doc.TextBeforeCaret(), string(Trigger))
		changed := m.doc.DeleteBackward()
		if removesTrigger {
			m.close()
		} else {
			m.refreshQuery()
		}
		return Result{Handled: true, Changed: changed}

	case KeyLeft, KeyRight, KeyHome, KeyEnd:
		m.close()
	}
	return Result{}
}

// Select commits the candidate at index i, as a pointer click would.
func (m *Machine) Select(i int) Result {
	if m.session == nil {
		return Result{}
	}
	cands := m.Candidates()
	if i < 0 || i >= len(cands) {
		return Result{Handled: true}
	}
	return m.commit(cands[i])
}

// Highlight moves the highlight to index i when it is a valid candidate.
func (m *Machine) Highlight(i int) {
	if m.session == nil {
		return
	}
	if i >= 0 && i < len(m.Candidates()) {
		m.session.Highlighted = i
	}
}

// Dismiss closes the session without committing, as a click outside the
// dropdown or loss of focus does. It reports whether a session was open.
func (m *Machine) Dismiss() bool {
	open := m.session != nil
	m.close()
	return open
}

func (m *Machine) commit(u directory.User) Result {
	if u.Username == "" {
		return Result{Handled: true}
	}
	ok := Commit(m.doc, u.Username)
	m.close()
	if !ok {
		return Result{Handled: true}
	}
	return Result{Handled: true, Changed: true, Committed: u.Username}
}

func (m *Machine) refreshQuery() {
	before := m.doc.TextBeforeCaret()
	if !ShouldKeepSessionOpen(before) {
		m.close()
		return
	}
	m.session.Query = ExtractQuery(before)
	m.session.Highlighted = 0
}

func (m *Machine) close() {
	m.session = nil
}
