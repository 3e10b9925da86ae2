package notes

import (
	"testing"
	"time"
)

func TestSortByDate(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	notes := []Note{
		{ID: "undated-1"},
		{ID: "old", LastUpdatedAt: base},
		{ID: "undated-2"},
		{ID: "new", LastUpdatedAt: base.Add(time.Hour)},
	}
	SortByDate(notes)

	want := []string{"new", "old", "undated-1", "undated-2"}
	for i, id := range want {
		if notes[i].ID != id {
			t.Errorf("position %d: got %q, want %q", i, notes[i].ID, id)
		}
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := []struct {
		name string
		note Note
		want string
	}{
		{"explicit", Note{Title: "  Plan  ", Text: "body"}, "Plan"},
		{"from body", Note{Text: "<br>first line<br>second"}, "first line"},
		{"with mention", Note{Text: `hi <span class="mention" data-username="bob">@bob</span>`}, "hi @bob"},
		{"empty", Note{}, "Untitled"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.note.DisplayTitle(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	notes := []Note{
		{ID: "a", Title: "Groceries", Text: "milk"},
		{ID: "b", Title: "Standup", Text: `ask <span class="mention" data-username="janedoe">@janedoe</span>`},
		{ID: "c", Title: "Ideas", Text: "GROCERY app"},
	}

	if got := Filter(notes, ""); len(got) != 3 {
		t.Errorf("empty query: got %d notes, want 3", len(got))
	}

	got := Filter(notes, "grocer")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("grocer: got %+v", got)
	}

	got = Filter(notes, "@jane")
	if len(got) != 1 || got[0].ID != "b" {
		t.Errorf("@jane: got %+v", got)
	}
}
