package mention

import (
	"strings"

	"github.com/marcus/scribe/internal/directory"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FilterCandidates returns at most DefaultMaxCandidates users matching query.
func FilterCandidates(users []directory.User, query string) []directory.User {
	return FilterCandidatesN(users, query, DefaultMaxCandidates)
}

// FilterCandidatesN matches query case-insensitively as a substring of the
// username, first name or last name. Users whose username starts with the
// query come first; both groups keep directory order. limit <= 0 means no cap.
func FilterCandidatesN(users []directory.User, query string, limit int) []directory.User {
	if users == nil {
		return nil
	}

	fold := cases.Fold()
	normalize := func(s string) string {
		return fold.String(norm.NFC.String(s))
	}
	q := normalize(query)

	var prefix, rest []directory.User
	for _, u := range users {
		name := normalize(u.Username)
		switch {
		case strings.HasPrefix(name, q):
			prefix = append(prefix, u)
		case strings.Contains(name, q),
			strings.Contains(normalize(u.FirstName), q),
			strings.Contains(normalize(u.LastName), q):
			rest = append(rest, u)
		}
	}

	out := make([]directory.User, 0, len(prefix)+len(rest))
	out = append(out, prefix...)
	out = append(out, rest...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
