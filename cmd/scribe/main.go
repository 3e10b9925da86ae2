package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/app"
	"github.com/marcus/scribe/internal/config"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/keymap"
	"github.com/marcus/scribe/internal/notes"
	"github.com/marcus/scribe/internal/plugin"
	notesplugin "github.com/marcus/scribe/internal/plugins/notes"
	"github.com/marcus/scribe/internal/plugins/people"
	"github.com/marcus/scribe/internal/state"
)

// Version is set at build time via ldflags
var Version = ""

var (
	configPath   = flag.String("config", "", "path to config file")
	logPath      = flag.String("log", "", "log file (default ~/.config/scribe/scribe.log)")
	debugFlag    = flag.Bool("debug", false, "enable debug logging")
	versionFlag  = flag.Bool("version", false, "print version and exit")
	shortVersion = flag.Bool("v", false, "print version and exit (short)")
)

func main() {
	flag.Parse()

	if *versionFlag || *shortVersion {
		fmt.Printf("scribe version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	// The TUI owns the terminal, so logs go to a file.
	logger, closeLog, err := newLogger(*logPath, *debugFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Load persistent state (ignore errors - state is optional)
	if err := state.Init(); err != nil {
		logger.Debug("state unavailable", "error", err)
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open notes: %v\n", err)
		os.Exit(1)
	}
	defer closeRepo()

	dir := directory.NewCache(
		directory.NewHTTPFetcher(cfg.Directory.UsersURL, &http.Client{Timeout: cfg.Directory.Timeout}),
		cfg.Directory.Timeout,
		logger,
	)

	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)
	for key, cmdID := range cfg.Keymap.Overrides {
		km.SetUserOverride(key, cmdID)
	}

	workDir, _ := os.Getwd()
	registry := plugin.NewRegistry(&plugin.Context{
		WorkDir:   workDir,
		ConfigDir: filepath.Dir(config.ConfigPath()),
		Config:    cfg,
		Logger:    logger,
		Keymap:    km,
		Directory: dir,
		Notes:     repo,
	})

	// Registration order is tab order. Failures are logged by the registry.
	_ = registry.Register(notesplugin.New())
	_ = registry.Register(people.New())

	model := app.New(registry, km, cfg, dir, effectiveVersion(Version), state.GetActivePlugin())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(path string, debugLog bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debugLog {
		level = slog.LevelDebug
	}
	if path == "" && config.Dir() != "" {
		path = filepath.Join(config.Dir(), "scribe.log")
	}
	var w io.Writer = io.Discard
	closeFn := func() {}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		w = f
		closeFn = func() { f.Close() }
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closeFn, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// openRepository builds the configured notes backend.
func openRepository(cfg *config.Config) (notes.Repository, func(), error) {
	if cfg.Notes.Backend == config.BackendRemote {
		client := notes.NewClient(cfg.API.BaseURL, cfg.API.SessionID, &http.Client{Timeout: cfg.API.Timeout})
		return client, func() {}, nil
	}
	store, err := notes.NewStore(cfg.Notes.DBPath, cfg.Notes.Driver)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// effectiveVersion returns the version string, with fallback to build info.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var revision string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if revision == "" {
		return "devel"
	}
	ver := "devel+" + revision
	if len(ver) > 20 {
		ver = ver[:20]
	}
	if dirty {
		ver += "+dirty"
	}
	return ver
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: scribe [options]\n\n")
		fmt.Fprintf(os.Stderr, "A terminal notes editor with @mentions.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}
