package directory

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FetchedMsg carries the result of a fetch started by the cache.
// Generation identifies the fetch so superseded results can be dropped.
type FetchedMsg struct {
	Generation uint64
	Users      []User
	Err        error
}

// Cache owns the directory snapshot shared by every editor in the program.
//
// It is only touched from the bubbletea update loop, so it needs no lock:
// fetches run inside tea.Cmds and report back through FetchedMsg, and
// Apply discards any result whose generation is no longer current.
type Cache struct {
	fetcher    Fetcher
	timeout    time.Duration
	logger     *slog.Logger
	snap       Snapshot
	generation uint64
	cancel     context.CancelFunc
}

// NewCache creates an unfetched cache. A zero timeout means no deadline.
func NewCache(fetcher Fetcher, timeout time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logger,
	}
}

// Snapshot returns the current snapshot.
func (c *Cache) Snapshot() Snapshot {
	return c.snap
}

// Generation returns the id of the most recent fetch.
func (c *Cache) Generation() uint64 {
	return c.generation
}

// EnsureLoaded starts a fetch unless one is in flight or users are loaded.
// Callers arriving while a fetch is in flight get nil and observe the same
// eventual snapshot.
func (c *Cache) EnsureLoaded() tea.Cmd {
	switch c.snap.Status {
	case StatusLoading, StatusLoaded:
		return nil
	}
	return c.start()
}

// ForceRefresh drops the current snapshot, cancels any in-flight fetch and
// starts a new one.
func (c *Cache) ForceRefresh() tea.Cmd {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.snap = Snapshot{}
	return c.start()
}

func (c *Cache) start() tea.Cmd {
	c.generation++
	gen := c.generation

	var ctx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), c.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	c.cancel = cancel
	c.snap = Snapshot{Status: StatusLoading}

	fetcher := c.fetcher
	c.logger.Debug("directory: fetch started", "generation", gen)

	return func() tea.Msg {
		defer cancel()
		users, err := fetcher.FetchUsers(ctx)
		return FetchedMsg{Generation: gen, Users: users, Err: err}
	}
}

// Apply folds a fetch result into the cache. It reports whether the result
// was current; results from superseded fetches are ignored.
func (c *Cache) Apply(msg FetchedMsg) bool {
	if msg.Generation != c.generation || c.snap.Status != StatusLoading {
		c.logger.Debug("directory: stale fetch dropped", "generation", msg.Generation, "current", c.generation)
		return false
	}
	c.cancel = nil

	if msg.Err != nil {
		c.logger.Error("directory: fetch failed", "error", msg.Err)
		c.snap = Snapshot{Status: StatusFailed, Err: msg.Err}
		return true
	}

	users := msg.Users
	if users == nil {
		users = []User{}
	}
	c.snap = Snapshot{Status: StatusLoaded, Users: users}
	c.logger.Debug("directory: loaded", "users", len(users))
	return true
}
