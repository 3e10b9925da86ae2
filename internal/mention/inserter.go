package mention

import (
	"strings"
	"unicode/utf8"
)

// Commit replaces the trigger and query directly before the caret with a
// token for username, followed by one non-breaking space, and leaves the
// caret after that space. It is a no-op returning false when username is
// empty, the selection is not collapsed, or no trigger precedes the caret.
func Commit(d *Document, username string) bool {
	if username == "" || !d.Collapsed() {
		return false
	}
	before := d.TextBeforeCaret()
	i := strings.LastIndexByte(before, Trigger)
	if i < 0 {
		return false
	}
	n := utf8.RuneCountInString(before[i:])

	start := d.caret - n
	d.splice(start, d.caret, Unit{Username: username}, Unit{Rune: NBSP})
	d.SetCaret(start + 2)
	return true
}

// DeleteBoundary removes the token directly before a collapsed caret as a
// single unit. It returns false, leaving the document untouched, when the
// caret is not collapsed or the preceding unit is not a token.
func DeleteBoundary(d *Document) bool {
	if _, ok := d.TokenBeforeCaret(); !ok {
		return false
	}
	d.splice(d.caret-1, d.caret)
	d.SetCaret(d.caret - 1)
	return true
}
