package plugin

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Registry manages plugin lifecycle. A plugin whose Init fails is kept
// out of the active set and reported through Unavailable.
type Registry struct {
	ctx         *Context
	plugins     []Plugin
	unavailable map[string]string
	mu          sync.RWMutex
}

// NewRegistry creates a registry bound to ctx.
func NewRegistry(ctx *Context) *Registry {
	return &Registry{
		ctx:         ctx,
		unavailable: make(map[string]string),
	}
}

// Context returns the shared plugin context.
func (r *Registry) Context() *Context { return r.ctx }

// Register initializes p and adds it to the active set. Init errors and
// panics mark the plugin unavailable instead of failing the program.
func (r *Registry) Register(p Plugin) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin %s: init panic: %v", p.ID(), rec)
		}
		if err != nil {
			r.unavailable[p.ID()] = err.Error()
			if r.ctx != nil && r.ctx.Logger != nil {
				r.ctx.Logger.Warn("plugin unavailable", "id", p.ID(), "error", err)
			}
		}
	}()

	if err := p.Init(r.ctx); err != nil {
		return err
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Plugins returns the active plugins in registration order. The slice is
// shared so the app can store updated plugin values in place.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins
}

// Get returns the active plugin with id.
func (r *Registry) Get(id string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.plugins {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// Unavailable maps plugin id to the reason it failed to start.
func (r *Registry) Unavailable() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.unavailable))
	for k, v := range r.unavailable {
		out[k] = v
	}
	return out
}

// Start calls Start on every plugin and collects their commands.
func (r *Registry) Start() []tea.Cmd {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cmds []tea.Cmd
	for _, p := range r.plugins {
		if cmd := p.Start(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// Stop stops plugins in reverse registration order.
func (r *Registry) Stop() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.plugins) - 1; i >= 0; i-- {
		r.plugins[i].Stop()
	}
}
