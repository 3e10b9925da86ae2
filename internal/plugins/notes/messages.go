package notes

import "github.com/marcus/scribe/internal/notes"

// NotesLoadedMsg carries the result of listing notes.
type NotesLoadedMsg struct {
	Notes []notes.Note
	Err   error
	Epoch uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NotesLoadedMsg) GetEpoch() uint64 { return m.Epoch }

// NoteCreatedMsg reports a new note.
type NoteCreatedMsg struct {
	Note  *notes.Note
	Err   error
	Epoch uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NoteCreatedMsg) GetEpoch() uint64 { return m.Epoch }

// NoteSavedMsg reports a save. Hash is the fingerprint of what was written.
type NoteSavedMsg struct {
	Note  *notes.Note
	Hash  uint64
	Err   error
	Epoch uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NoteSavedMsg) GetEpoch() uint64 { return m.Epoch }

// NoteDeletedMsg reports a delete.
type NoteDeletedMsg struct {
	ID    string
	Title string
	Err   error
	Epoch uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NoteDeletedMsg) GetEpoch() uint64 { return m.Epoch }

// NoteRestoredMsg reports an undone delete.
type NoteRestoredMsg struct {
	ID    string
	Title string
	Err   error
	Epoch uint64
}

// GetEpoch implements plugin.EpochMessage.
func (m NoteRestoredMsg) GetEpoch() uint64 { return m.Epoch }

// AutoSaveTickMsg fires after the autosave debounce. Only the tick whose
// ID matches the latest edit saves.
type AutoSaveTickMsg struct {
	ID int
}

// WatchEventMsg reports that the database changed on disk.
type WatchEventMsg struct{}
