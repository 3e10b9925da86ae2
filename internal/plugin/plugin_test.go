package plugin

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type fakePlugin struct {
	id      string
	initErr error
	panics  bool
	started bool
	stopped *[]string
	focused bool
}

func (f *fakePlugin) ID() string   { return f.id }
func (f *fakePlugin) Name() string { return f.id }
func (f *fakePlugin) Icon() string { return "" }
func (f *fakePlugin) Init(*Context) error {
	if f.panics {
		panic("boom")
	}
	return f.initErr
}
func (f *fakePlugin) Start() tea.Cmd {
	f.started = true
	return func() tea.Msg { return f.id }
}
func (f *fakePlugin) Stop() {
	if f.stopped != nil {
		*f.stopped = append(*f.stopped, f.id)
	}
}
func (f *fakePlugin) Update(tea.Msg) (Plugin, tea.Cmd) { return f, nil }
func (f *fakePlugin) View(int, int) string             { return "" }
func (f *fakePlugin) IsFocused() bool                  { return f.focused }
func (f *fakePlugin) SetFocused(b bool)                { f.focused = b }
func (f *fakePlugin) Commands() []Command              { return nil }
func (f *fakePlugin) FocusContext() string             { return f.id }

type epochMsg uint64

func (e epochMsg) GetEpoch() uint64 { return uint64(e) }

func TestRegistry_Lifecycle(t *testing.T) {
	var stopped []string
	r := NewRegistry(&Context{})
	a := &fakePlugin{id: "a", stopped: &stopped}
	b := &fakePlugin{id: "b", stopped: &stopped}
	if err := r.Register(a); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(b); err != nil {
		t.Fatal(err)
	}

	if got := len(r.Plugins()); got != 2 {
		t.Fatalf("got %d plugins, want 2", got)
	}
	if r.Get("b") != b || r.Get("zzz") != nil {
		t.Error("Get returned the wrong plugin")
	}

	cmds := r.Start()
	if len(cmds) != 2 || !a.started || !b.started {
		t.Fatalf("Start: %d cmds, started a=%v b=%v", len(cmds), a.started, b.started)
	}
	if got := cmds[0](); got != "a" {
		t.Errorf("first cmd = %v, want a", got)
	}

	r.Stop()
	if len(stopped) != 2 || stopped[0] != "b" || stopped[1] != "a" {
		t.Errorf("stop order = %v, want [b a]", stopped)
	}
}

func TestRegistry_InitFailureMarksUnavailable(t *testing.T) {
	r := NewRegistry(&Context{})
	if err := r.Register(&fakePlugin{id: "broken", initErr: errors.New("no db")}); err == nil {
		t.Fatal("expected error")
	}
	if err := r.Register(&fakePlugin{id: "panicky", panics: true}); err == nil {
		t.Fatal("expected panic to surface as error")
	}

	if len(r.Plugins()) != 0 {
		t.Errorf("failed plugins should not be active: %v", r.Plugins())
	}
	un := r.Unavailable()
	if un["broken"] != "no db" {
		t.Errorf("broken reason = %q", un["broken"])
	}
	if _, ok := un["panicky"]; !ok {
		t.Error("panicky should be unavailable")
	}
}

func TestIsStale(t *testing.T) {
	ctx := &Context{Epoch: 3}
	if IsStale(ctx, epochMsg(3)) {
		t.Error("current epoch should not be stale")
	}
	if !IsStale(ctx, epochMsg(2)) {
		t.Error("old epoch should be stale")
	}
	if IsStale(nil, epochMsg(9)) {
		t.Error("nil context never marks stale")
	}
}
