package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// testConfigPath redirects ConfigPath in tests.
var testConfigPath string

// SetTestConfigPath points Load and Save at path.
func SetTestConfigPath(path string) { testConfigPath = path }

// ResetTestConfigPath restores the default config location.
func ResetTestConfigPath() { testConfigPath = "" }

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Notes     saveNotesConfig     `json:"notes"`
	API       saveAPIConfig       `json:"api"`
	Directory saveDirectoryConfig `json:"directory"`
	Mention   MentionConfig       `json:"mention"`
	Keymap    KeymapConfig        `json:"keymap"`
	UI        UIConfig            `json:"ui"`
}

type saveNotesConfig struct {
	Backend       string `json:"backend,omitempty"`
	DBPath        string `json:"dbPath,omitempty"`
	Driver        string `json:"driver,omitempty"`
	AutosaveDelay string `json:"autosaveDelay,omitempty"`
	Watch         *bool  `json:"watch,omitempty"`
}

type saveAPIConfig struct {
	BaseURL   string `json:"baseURL,omitempty"`
	SessionID string `json:"sessionID,omitempty"`
	Timeout   string `json:"timeout,omitempty"`
}

type saveDirectoryConfig struct {
	UsersURL string `json:"usersURL,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

// toSaveConfig converts Config to the JSON-serializable format.
func toSaveConfig(cfg *Config) saveConfig {
	return saveConfig{
		Notes: saveNotesConfig{
			Backend:       cfg.Notes.Backend,
			DBPath:        cfg.Notes.DBPath,
			Driver:        cfg.Notes.Driver,
			AutosaveDelay: cfg.Notes.AutosaveDelay.String(),
			Watch:         &cfg.Notes.Watch,
		},
		API: saveAPIConfig{
			BaseURL:   cfg.API.BaseURL,
			SessionID: cfg.API.SessionID,
			Timeout:   cfg.API.Timeout.String(),
		},
		Directory: saveDirectoryConfig{
			UsersURL: cfg.Directory.UsersURL,
			Timeout:  cfg.Directory.Timeout.String(),
		},
		Mention: cfg.Mention,
		Keymap:  cfg.Keymap,
		UI:      cfg.UI,
	}
}

// Save writes the config to ~/.config/scribe/config.json. Top-level keys
// it does not manage are preserved.
func Save(cfg *Config) error {
	path := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	merged := make(map[string]json.RawMessage)
	if existing, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(existing, &merged)
	}

	data, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	var managed map[string]json.RawMessage
	if err := json.Unmarshal(data, &managed); err != nil {
		return err
	}
	for k, v := range managed {
		merged[k] = v
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}
