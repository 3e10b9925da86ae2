package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Notes     NotesConfig     `json:"notes"`
	API       APIConfig       `json:"api"`
	Directory DirectoryConfig `json:"directory"`
	Mention   MentionConfig   `json:"mention"`
	Keymap    KeymapConfig    `json:"keymap"`
	UI        UIConfig        `json:"ui"`
}

// Notes backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// NotesConfig configures note persistence.
type NotesConfig struct {
	Backend       string        `json:"backend"` // "local" or "remote"
	DBPath        string        `json:"dbPath"`
	Driver        string        `json:"driver"` // "sqlite3" or "sqlite"
	AutosaveDelay time.Duration `json:"autosaveDelay"`
	Watch         bool          `json:"watch"`
}

// APIConfig configures the remote notes API.
type APIConfig struct {
	BaseURL   string        `json:"baseURL"`
	SessionID string        `json:"sessionID"`
	Timeout   time.Duration `json:"timeout"`
}

// DirectoryConfig configures the user directory.
type DirectoryConfig struct {
	UsersURL string        `json:"usersURL"`
	Timeout  time.Duration `json:"timeout"`
}

// MentionConfig configures the mention dropdown.
type MentionConfig struct {
	MaxCandidates int `json:"maxCandidates"`
}

// KeymapConfig holds key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter bool `json:"showFooter"`
}

const (
	defaultAutosaveDelay = time.Second
	defaultTimeout       = 10 * time.Second
	defaultMaxCandidates = 5
	maxMaxCandidates     = 20
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Notes: NotesConfig{
			Backend:       BackendLocal,
			DBPath:        "~/.config/scribe/notes.db",
			Driver:        "sqlite3",
			AutosaveDelay: defaultAutosaveDelay,
			Watch:         true,
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8080",
			SessionID: "scribe",
			Timeout:   defaultTimeout,
		},
		Directory: DirectoryConfig{
			UsersURL: "http://localhost:8080/users",
			Timeout:  defaultTimeout,
		},
		Mention: MentionConfig{
			MaxCandidates: defaultMaxCandidates,
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			ShowFooter: true,
		},
	}
}

// Validate corrects out-of-range values.
func (c *Config) Validate() error {
	if c.Notes.Backend != BackendLocal && c.Notes.Backend != BackendRemote {
		c.Notes.Backend = BackendLocal
	}
	if c.Notes.Driver != "sqlite3" && c.Notes.Driver != "sqlite" {
		c.Notes.Driver = "sqlite3"
	}
	if c.Notes.AutosaveDelay <= 0 {
		c.Notes.AutosaveDelay = defaultAutosaveDelay
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = defaultTimeout
	}
	if c.Directory.Timeout <= 0 {
		c.Directory.Timeout = defaultTimeout
	}
	switch {
	case c.Mention.MaxCandidates < 1:
		c.Mention.MaxCandidates = defaultMaxCandidates
	case c.Mention.MaxCandidates > maxMaxCandidates:
		c.Mention.MaxCandidates = maxMaxCandidates
	}
	return nil
}
