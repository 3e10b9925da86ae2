package keymap

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global bindings
		{Key: "q", Command: "quit", Context: "global"},
		{Key: "ctrl+c", Command: "quit", Context: "global"},
		{Key: "`", Command: "next-plugin", Context: "global"},
		{Key: "~", Command: "prev-plugin", Context: "global"},
		{Key: "1", Command: "focus-plugin-1", Context: "global"},
		{Key: "2", Command: "focus-plugin-2", Context: "global"},
		{Key: "?", Command: "toggle-help", Context: "global"},
		{Key: "ctrl+f", Command: "toggle-footer", Context: "global"},

		// Notes list
		{Key: "j", Command: "cursor-down", Context: "notes-list"},
		{Key: "down", Command: "cursor-down", Context: "notes-list"},
		{Key: "k", Command: "cursor-up", Context: "notes-list"},
		{Key: "up", Command: "cursor-up", Context: "notes-list"},
		{Key: "n", Command: "new-note", Context: "notes-list"},
		{Key: "enter", Command: "edit-note", Context: "notes-list"},
		{Key: "X", Command: "delete-note", Context: "notes-list"},
		{Key: "u", Command: "undo", Context: "notes-list"},
		{Key: "y", Command: "yank", Context: "notes-list"},
		{Key: "/", Command: "search", Context: "notes-list"},
		{Key: "r", Command: "refresh", Context: "notes-list"},

		// Notes search
		{Key: "enter", Command: "search-confirm", Context: "notes-search"},
		{Key: "esc", Command: "search-cancel", Context: "notes-search"},

		// Notes editor (title input and mention editor)
		{Key: "tab", Command: "switch-field", Context: "notes-editor"},
		{Key: "esc", Command: "back", Context: "notes-editor"},
		{Key: "ctrl+s", Command: "save", Context: "notes-editor"},

		// Mention dropdown
		{Key: "up", Command: "mention-prev", Context: "notes-mention"},
		{Key: "down", Command: "mention-next", Context: "notes-mention"},
		{Key: "enter", Command: "mention-select", Context: "notes-mention"},
		{Key: "tab", Command: "mention-select", Context: "notes-mention"},
		{Key: "esc", Command: "mention-close", Context: "notes-mention"},

		// Delete confirmation
		{Key: "y", Command: "confirm", Context: "notes-delete"},
		{Key: "n", Command: "cancel", Context: "notes-delete"},
		{Key: "esc", Command: "cancel", Context: "notes-delete"},

		// People
		{Key: "j", Command: "cursor-down", Context: "people"},
		{Key: "down", Command: "cursor-down", Context: "people"},
		{Key: "k", Command: "cursor-up", Context: "people"},
		{Key: "up", Command: "cursor-up", Context: "people"},
		{Key: "/", Command: "filter", Context: "people"},
		{Key: "r", Command: "refresh", Context: "people"},
		{Key: "esc", Command: "clear-filter", Context: "people-filter"},
	}
}
