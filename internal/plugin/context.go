package plugin

import (
	"log/slog"

	"github.com/marcus/scribe/internal/config"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/keymap"
	"github.com/marcus/scribe/internal/notes"
)

// Context carries the shared services handed to every plugin on Init.
type Context struct {
	WorkDir   string
	ConfigDir string
	Config    *config.Config
	Logger    *slog.Logger
	Keymap    *keymap.Registry

	// Directory is the single user directory cache shared by all editors.
	Directory *directory.Cache
	// Notes is the configured notes backend.
	Notes notes.Repository

	// Epoch increments when the notes plugin is re-initialized against a
	// different backend; async results carrying an older epoch are dropped.
	Epoch uint64
}
