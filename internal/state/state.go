package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// State holds persistent user preferences.
type State struct {
	ActivePlugin string `json:"activePlugin,omitempty"`

	// Plugin-specific state
	Notes NotesState `json:"notes,omitempty"`
}

// NotesState holds persistent notes plugin state.
type NotesState struct {
	LastNoteID string `json:"lastNoteId,omitempty"` // Note open when scribe last exited
	ListWidth  int    `json:"listWidth,omitempty"`  // List pane width (0 = default)
}

var (
	current *State
	mu      sync.RWMutex
	path    string
)

// Init loads state from the default location.
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return InitWithDir(filepath.Join(home, ".config", "scribe"))
}

// InitWithDir loads state from a specified directory.
// This is primarily for testing to avoid reading real user state.
func InitWithDir(dir string) error {
	path = filepath.Join(dir, "state.json")
	return Load()
}

// Load reads state from disk.
func Load() error {
	mu.Lock()
	defer mu.Unlock()

	current = &State{}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil // no state file yet, use defaults
	}
	if err != nil {
		return err
	}

	return json.Unmarshal(data, current)
}

// Save writes state to disk.
func Save() error {
	mu.RLock()
	defer mu.RUnlock()

	if current == nil || path == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetActivePlugin returns the id of the last active plugin.
func GetActivePlugin() string {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return ""
	}
	return current.ActivePlugin
}

// SetActivePlugin saves the active plugin id.
func SetActivePlugin(id string) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.ActivePlugin = id
	mu.Unlock()
	return Save()
}

// GetNotesState returns the saved notes plugin state.
func GetNotesState() NotesState {
	mu.RLock()
	defer mu.RUnlock()
	if current == nil {
		return NotesState{}
	}
	return current.Notes
}

// SetLastNoteID saves the id of the open note.
func SetLastNoteID(id string) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.Notes.LastNoteID = id
	mu.Unlock()
	return Save()
}

// SetNotesListWidth saves the notes list pane width.
func SetNotesListWidth(width int) error {
	mu.Lock()
	if current == nil {
		current = &State{}
	}
	current.Notes.ListWidth = width
	mu.Unlock()
	return Save()
}
