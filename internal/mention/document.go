package mention

import (
	"strings"
)

// Unit is one indivisible element of a document: a single rune of text or
// a mention token. A unit with a non-empty Username is a token.
type Unit struct {
	Rune     rune
	Username string
}

// IsToken reports whether u is a mention token.
func (u Unit) IsToken() bool { return u.Username != "" }

// Text returns the text the unit renders as.
func (u Unit) Text() string {
	if u.IsToken() {
		return string(Trigger) + u.Username
	}
	return string(u.Rune)
}

// SegmentKind distinguishes text runs from tokens.
type SegmentKind int

const (
	TextSegment SegmentKind = iota
	TokenSegment
)

// Segment is a maximal run of text or a single token.
type Segment struct {
	Kind     SegmentKind
	Text     string
	Username string
}

// TextRun returns a text segment.
func TextRun(s string) Segment { return Segment{Kind: TextSegment, Text: s} }

// TokenOf returns a token segment for username.
func TokenOf(username string) Segment { return Segment{Kind: TokenSegment, Username: username} }

// DisplayText is the rendered text of the segment.
func (s Segment) DisplayText() string {
	if s.Kind == TokenSegment {
		return string(Trigger) + s.Username
	}
	return s.Text
}

// Document is the editable body: a sequence of units with a caret and an
// optional selection. Positions are unit offsets in [0, Len()], so the
// caret can never sit inside a token.
type Document struct {
	units  []Unit
	caret  int
	anchor int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// FromSegments builds a document with the caret at the end.
// Token segments with an empty username are kept as their display text.
func FromSegments(segs []Segment) *Document {
	d := &Document{}
	for _, s := range segs {
		if s.Kind == TokenSegment && s.Username != "" {
			d.units = append(d.units, Unit{Username: s.Username})
			continue
		}
		d.units = appendText(d.units, s.DisplayText())
	}
	d.caret = len(d.units)
	d.anchor = d.caret
	return d
}

func appendText(units []Unit, s string) []Unit {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, r := range s {
		if r == '\r' {
			r = '\n'
		}
		units = append(units, Unit{Rune: r})
	}
	return units
}

// Clone returns an independent copy.
func (d *Document) Clone() *Document {
	c := *d
	c.units = append([]Unit(nil), d.units...)
	return &c
}

// Len returns the number of units.
func (d *Document) Len() int { return len(d.units) }

// Unit returns the unit at i.
func (d *Document) Unit(i int) Unit { return d.units[i] }

// IsEmpty reports whether the document has no units.
func (d *Document) IsEmpty() bool { return len(d.units) == 0 }

// Caret returns the caret position.
func (d *Document) Caret() int { return d.caret }

// SetCaret moves the caret, clamped to the document, and collapses the
// selection.
func (d *Document) SetCaret(pos int) {
	d.caret = clamp(pos, 0, len(d.units))
	d.anchor = d.caret
}

// Anchor returns the fixed end of the selection. It equals Caret when the
// selection is collapsed.
func (d *Document) Anchor() int { return d.anchor }

// Select sets a selection from anchor to caret.
func (d *Document) Select(anchor, caret int) {
	d.anchor = clamp(anchor, 0, len(d.units))
	d.caret = clamp(caret, 0, len(d.units))
}

// Selection returns the ordered selection bounds.
func (d *Document) Selection() (start, end int) {
	if d.anchor < d.caret {
		return d.anchor, d.caret
	}
	return d.caret, d.anchor
}

// Collapsed reports whether the selection is empty.
func (d *Document) Collapsed() bool { return d.anchor == d.caret }

// DeleteSelection removes the selected units. It reports whether anything
// was removed.
func (d *Document) DeleteSelection() bool {
	if d.Collapsed() {
		return false
	}
	start, end := d.Selection()
	d.units = append(d.units[:start], d.units[end:]...)
	d.SetCaret(start)
	return true
}

// InsertText inserts s at the caret, replacing any selection.
func (d *Document) InsertText(s string) {
	d.DeleteSelection()
	ins := appendText(nil, s)
	if len(ins) == 0 {
		return
	}
	d.splice(d.caret, d.caret, ins...)
	d.SetCaret(d.caret + len(ins))
}

// DeleteBackward removes the unit before the caret, or the selection.
// A token is removed whole.
func (d *Document) DeleteBackward() bool {
	if d.DeleteSelection() {
		return true
	}
	if d.caret == 0 {
		return false
	}
	d.splice(d.caret-1, d.caret)
	d.SetCaret(d.caret - 1)
	return true
}

// DeleteForward removes the unit after the caret, or the selection.
func (d *Document) DeleteForward() bool {
	if d.DeleteSelection() {
		return true
	}
	if d.caret >= len(d.units) {
		return false
	}
	d.splice(d.caret, d.caret+1)
	return true
}

// splice replaces units[from:to] with ins.
func (d *Document) splice(from, to int, ins ...Unit) {
	tail := append([]Unit(nil), d.units[to:]...)
	d.units = append(append(d.units[:from], ins...), tail...)
}

// MoveLeft moves the caret one unit left.
func (d *Document) MoveLeft() { d.SetCaret(d.caret - 1) }

// MoveRight moves the caret one unit right.
func (d *Document) MoveRight() { d.SetCaret(d.caret + 1) }

// LineStart moves the caret to the start of its line.
func (d *Document) LineStart() { d.SetCaret(d.lineStart(d.caret)) }

// LineEnd moves the caret to the end of its line.
func (d *Document) LineEnd() {
	i := d.caret
	for i < len(d.units) && !isNewline(d.units[i]) {
		i++
	}
	d.SetCaret(i)
}

func (d *Document) lineStart(pos int) int {
	i := pos
	for i > 0 && !isNewline(d.units[i-1]) {
		i--
	}
	return i
}

func isNewline(u Unit) bool { return !u.IsToken() && u.Rune == '\n' }

// TextBeforeCaret returns the text between the caret and the closest
// preceding token or line start. It is "" when the selection is not
// collapsed, or when a token sits directly before the caret.
func (d *Document) TextBeforeCaret() string {
	if !d.Collapsed() {
		return ""
	}
	start := d.caret
	for start > 0 {
		u := d.units[start-1]
		if u.IsToken() || isNewline(u) {
			break
		}
		start--
	}
	var b strings.Builder
	for _, u := range d.units[start:d.caret] {
		b.WriteRune(u.Rune)
	}
	return b.String()
}

// TokenBeforeCaret returns the token directly before a collapsed caret.
func (d *Document) TokenBeforeCaret() (Unit, bool) {
	if !d.Collapsed() || d.caret == 0 {
		return Unit{}, false
	}
	u := d.units[d.caret-1]
	return u, u.IsToken()
}

// Segments returns the content in canonical form: text runs and tokens
// alternating, starting and ending with a (possibly empty) text run.
func (d *Document) Segments() []Segment {
	segs := make([]Segment, 0, 1)
	var b strings.Builder
	for _, u := range d.units {
		if u.IsToken() {
			segs = append(segs, TextRun(b.String()), TokenOf(u.Username))
			b.Reset()
			continue
		}
		b.WriteRune(u.Rune)
	}
	return append(segs, TextRun(b.String()))
}

// Mentions returns the usernames of all tokens in document order.
func (d *Document) Mentions() []string {
	var names []string
	for _, u := range d.units {
		if u.IsToken() {
			names = append(names, u.Username)
		}
	}
	return names
}

// PlainText renders tokens as "@username" and non-breaking spaces as
// regular spaces.
func (d *Document) PlainText() string {
	var b strings.Builder
	for _, u := range d.units {
		if !u.IsToken() && u.Rune == NBSP {
			b.WriteByte(' ')
			continue
		}
		b.WriteString(u.Text())
	}
	return b.String()
}

// Markdown renders the document for display, with mentions in bold and
// hard line breaks.
func (d *Document) Markdown() string {
	var b strings.Builder
	for _, u := range d.units {
		switch {
		case u.IsToken():
			b.WriteString("**" + u.Text() + "**")
		case u.Rune == NBSP:
			b.WriteByte(' ')
		case u.Rune == '\n':
			b.WriteString("  \n")
		default:
			b.WriteRune(u.Rune)
		}
	}
	return b.String()
}

// Title returns the first non-blank line of the plain text, trimmed.
func (d *Document) Title() string {
	for _, line := range strings.Split(d.PlainText(), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
