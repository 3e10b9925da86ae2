package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/scribe"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	Notes     rawNotesConfig     `json:"notes"`
	API       rawAPIConfig       `json:"api"`
	Directory rawDirectoryConfig `json:"directory"`
	Mention   rawMentionConfig   `json:"mention"`
	Keymap    KeymapConfig       `json:"keymap"`
	UI        rawUIConfig        `json:"ui"`
}

type rawNotesConfig struct {
	Backend       string `json:"backend"`
	DBPath        string `json:"dbPath"`
	Driver        string `json:"driver"`
	AutosaveDelay string `json:"autosaveDelay"`
	Watch         *bool  `json:"watch"`
}

type rawAPIConfig struct {
	BaseURL   string `json:"baseURL"`
	SessionID string `json:"sessionID"`
	Timeout   string `json:"timeout"`
}

type rawDirectoryConfig struct {
	UsersURL string `json:"usersURL"`
	Timeout  string `json:"timeout"`
}

type rawMentionConfig struct {
	MaxCandidates *int `json:"maxCandidates"`
}

type rawUIConfig struct {
	ShowFooter *bool `json:"showFooter"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/scribe/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			cfg.Notes.DBPath = ExpandPath(cfg.Notes.DBPath)
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.Notes.DBPath = ExpandPath(cfg.Notes.DBPath)
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	mergeConfig(cfg, &raw)
	cfg.Notes.DBPath = ExpandPath(cfg.Notes.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	// Notes
	if raw.Notes.Backend != "" {
		cfg.Notes.Backend = raw.Notes.Backend
	}
	if raw.Notes.DBPath != "" {
		cfg.Notes.DBPath = raw.Notes.DBPath
	}
	if raw.Notes.Driver != "" {
		cfg.Notes.Driver = raw.Notes.Driver
	}
	mergeDuration(&cfg.Notes.AutosaveDelay, raw.Notes.AutosaveDelay)
	if raw.Notes.Watch != nil {
		cfg.Notes.Watch = *raw.Notes.Watch
	}

	// API
	if raw.API.BaseURL != "" {
		cfg.API.BaseURL = raw.API.BaseURL
	}
	if raw.API.SessionID != "" {
		cfg.API.SessionID = raw.API.SessionID
	}
	mergeDuration(&cfg.API.Timeout, raw.API.Timeout)

	// Directory
	if raw.Directory.UsersURL != "" {
		cfg.Directory.UsersURL = raw.Directory.UsersURL
	}
	mergeDuration(&cfg.Directory.Timeout, raw.Directory.Timeout)

	// Mention
	if raw.Mention.MaxCandidates != nil {
		cfg.Mention.MaxCandidates = *raw.Mention.MaxCandidates
	}

	// Keymap
	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}

	// UI
	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
}

// mergeDuration overwrites dst when s parses as a duration.
func mergeDuration(dst *time.Duration, s string) {
	if s == "" {
		return
	}
	if d, err := time.ParseDuration(s); err == nil {
		*dst = d
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Dir returns the scribe configuration directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir)
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	if testConfigPath != "" {
		return testConfigPath
	}
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, configFile)
}
