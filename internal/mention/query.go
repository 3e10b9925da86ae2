// Package mention implements @mention editing on top of an abstract
// document: trigger detection, query extraction, candidate filtering,
// atomic mention tokens, the markup codec and the session state machine.
package mention

import (
	"strings"
	"unicode/utf8"
)

const (
	// Trigger starts a mention session.
	Trigger = '@'

	// NBSP follows every committed token.
	NBSP = '\u00A0'

	// DefaultMaxCandidates caps the candidate list.
	DefaultMaxCandidates = 5
)

// IsTriggerEligible reports whether typing the trigger after before would
// start a new word: before is empty (start of line) or ends in a space,
// non-breaking space or newline.
func IsTriggerEligible(before string) bool {
	if before == "" {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	return r == ' ' || r == NBSP || r == '\n'
}

// ExtractQuery returns the text after the last trigger in before, or ""
// when before has no trigger. The result may contain spaces.
func ExtractQuery(before string) string {
	i := strings.LastIndexByte(before, Trigger)
	if i < 0 {
		return ""
	}
	return before[i+1:]
}

// ShouldKeepSessionOpen reports whether an open session is still valid for
// before: a trigger must precede the caret with no whitespace after it.
func ShouldKeepSessionOpen(before string) bool {
	i := strings.LastIndexByte(before, Trigger)
	if i < 0 {
		return false
	}
	return !strings.ContainsAny(before[i+1:], " \n\u00A0")
}
