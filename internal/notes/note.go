// Package notes holds the note model and its persistence backends.
package notes

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/marcus/scribe/internal/mention"
)

// ErrNotFound is returned when a note does not exist or was deleted.
var ErrNotFound = errors.New("note not found")

// Note is a single note. Text holds the body as mention markup.
type Note struct {
	ID            string
	Title         string
	Text          string
	CreatedAt     time.Time
	LastUpdatedAt time.Time
	IsDeleted     bool
}

// Document parses the note body.
func (n Note) Document() *mention.Document {
	return mention.Parse(n.Text)
}

// DisplayTitle returns the title, falling back to the first line of the
// body and then to "Untitled".
func (n Note) DisplayTitle() string {
	if t := strings.TrimSpace(n.Title); t != "" {
		return t
	}
	if t := n.Document().Title(); t != "" {
		return t
	}
	return "Untitled"
}

// Repository is a notes backend.
type Repository interface {
	List(ctx context.Context) ([]Note, error)
	Get(ctx context.Context, id string) (*Note, error)
	Create(ctx context.Context, n Note) (*Note, error)
	Update(ctx context.Context, n Note) (*Note, error)
	Delete(ctx context.Context, n Note) error
}

// Restorer is implemented by backends that can undo a delete.
type Restorer interface {
	Restore(ctx context.Context, id string) error
}

// SortByDate orders notes newest first. Notes without an update time go
// last, keeping their relative order.
func SortByDate(notes []Note) {
	slices.SortStableFunc(notes, func(a, b Note) int {
		switch {
		case a.LastUpdatedAt.IsZero() && b.LastUpdatedAt.IsZero():
			return 0
		case a.LastUpdatedAt.IsZero():
			return 1
		case b.LastUpdatedAt.IsZero():
			return -1
		}
		return b.LastUpdatedAt.Compare(a.LastUpdatedAt)
	})
}

// Filter returns the notes whose title or plain text contains query,
// ignoring case. An empty query returns notes unchanged.
func Filter(notes []Note, query string) []Note {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return notes
	}
	var out []Note
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.DisplayTitle()), q) ||
			strings.Contains(strings.ToLower(n.Document().PlainText()), q) {
			out = append(out, n)
		}
	}
	return out
}
