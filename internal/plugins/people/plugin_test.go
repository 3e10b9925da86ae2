package people

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/scribe/internal/directory"
	"github.com/marcus/scribe/internal/keymap"
	"github.com/marcus/scribe/internal/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var team = []directory.User{
	{Username: "johndoe", FirstName: "John", LastName: "Doe", Email: "john@example.com"},
	{Username: "janedoe", FirstName: "Jane", LastName: "Doe"},
	{Username: "bobsmith", FirstName: "Bob", LastName: "Smith"},
}

type fetchResult struct {
	users []directory.User
	err   error
}

// newPlugin returns an initialized plugin whose fetcher returns results
// in order, repeating the last one.
func newPlugin(t *testing.T, results ...fetchResult) (*Plugin, *int32) {
	t.Helper()
	var calls int32
	fetcher := directory.FetcherFunc(func(ctx context.Context) ([]directory.User, error) {
		i := int(atomic.AddInt32(&calls, 1)) - 1
		r := results[min(i, len(results)-1)]
		return r.users, r.err
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	km := keymap.NewRegistry()
	keymap.RegisterDefaults(km)

	p := New()
	require.NoError(t, p.Init(&plugin.Context{
		Logger:    logger,
		Keymap:    km,
		Directory: directory.NewCache(fetcher, time.Second, logger),
	}))
	return p, &calls
}

// fetch runs a cache command and applies its result the way the app does.
func fetch(t *testing.T, p *Plugin, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(directory.FetchedMsg)
	require.True(t, ok)
	p.dir.Apply(msg)
	p.Update(msg)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(p *Plugin, s string) tea.Cmd {
	_, cmd := p.Update(key(s))
	return cmd
}

func TestInit_RequiresDirectory(t *testing.T) {
	assert.ErrorIs(t, New().Init(&plugin.Context{}), errNoDirectory)
}

func TestStart_LoadsOnce(t *testing.T) {
	p, calls := newPlugin(t, fetchResult{users: team})

	assert.Contains(t, p.View(80, 10), "Loading users...")
	fetch(t, p, p.Start())

	out := p.View(80, 10)
	assert.Contains(t, out, "3 users")
	assert.Contains(t, out, "@johndoe")
	assert.Contains(t, out, "John Doe")
	assert.Contains(t, out, "john@example.com")

	// Already loaded: focusing the tab does not fetch again.
	_, cmd := p.Update(plugin.PluginFocusedMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFailure_ShowsRetryAndRefreshRecovers(t *testing.T) {
	p, calls := newPlugin(t, fetchResult{err: errors.New("boom")}, fetchResult{users: team})

	fetch(t, p, p.Start())
	out := p.View(80, 10)
	assert.Contains(t, out, "Oops, users went for coffee")
	assert.Contains(t, out, "Press r to retry")

	fetch(t, p, press(p, "r"))
	assert.Contains(t, p.View(80, 10), "@bobsmith")
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestEmptyDirectory(t *testing.T) {
	p, _ := newPlugin(t, fetchResult{users: []directory.User{}})
	fetch(t, p, p.Start())
	assert.Contains(t, p.View(80, 10), "No users found")
}

func TestFilter(t *testing.T) {
	p, _ := newPlugin(t, fetchResult{users: team})
	fetch(t, p, p.Start())

	press(p, "/")
	assert.Equal(t, "people-filter", p.FocusContext())
	assert.True(t, p.ConsumesTextInput())
	for _, r := range "doe" {
		press(p, string(r))
	}
	require.Len(t, p.users(), 2)
	assert.NotContains(t, p.View(80, 10), "@bobsmith")

	press(p, "enter")
	assert.Equal(t, "people", p.FocusContext())
	assert.Len(t, p.users(), 2)

	press(p, "/")
	press(p, "esc")
	assert.Len(t, p.users(), 3)
	assert.False(t, p.ConsumesTextInput())
}

func TestCursorAndMouse(t *testing.T) {
	p, _ := newPlugin(t, fetchResult{users: team})
	fetch(t, p, p.Start())
	p.View(80, 10)

	press(p, "j")
	press(p, "j")
	press(p, "j")
	assert.Equal(t, 2, p.cursor)
	press(p, "k")
	assert.Equal(t, 1, p.cursor)

	p.Update(tea.MouseMsg{X: 3, Y: headerRows, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, 0, p.cursor)
}

func TestCommands(t *testing.T) {
	p, _ := newPlugin(t, fetchResult{users: team})
	assert.Equal(t, "filter", p.Commands()[0].ID)
	press(p, "/")
	assert.Equal(t, "clear-filter", p.Commands()[0].ID)
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1 user", formatCount(1, "user", "users"))
	assert.Equal(t, "5 users", formatCount(5, "user", "users"))
}
