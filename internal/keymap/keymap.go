// Package keymap maps keys to command ids per focus context.
package keymap

import "sync"

// Binding maps a key to a command within a context.
type Binding struct {
	Key     string
	Command string
	Context string
}

// Registry holds bindings and user overrides.
type Registry struct {
	mu        sync.RWMutex
	bindings  []Binding
	overrides map[string]string // key -> command, applied in every context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{overrides: make(map[string]string)}
}

// RegisterDefaults adds DefaultBindings to r.
func RegisterDefaults(r *Registry) {
	for _, b := range DefaultBindings() {
		r.Register(b)
	}
}

// Register adds a binding.
func (r *Registry) Register(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = append(r.bindings, b)
}

// SetUserOverride binds key to command ahead of any default.
func (r *Registry) SetUserOverride(key, command string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[key] = command
}

// Lookup returns the command for key in context, falling back to the
// global context. User overrides win.
func (r *Registry) Lookup(key, context string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.overrides[key]; ok {
		return cmd, true
	}
	for _, ctx := range []string{context, "global"} {
		for _, b := range r.bindings {
			if b.Key == key && b.Context == ctx {
				return b.Command, true
			}
		}
	}
	return "", false
}

// BindingsForContext returns the bindings registered for context.
func (r *Registry) BindingsForContext(context string) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Binding
	for _, b := range r.bindings {
		if b.Context == context {
			out = append(out, b)
		}
	}
	return out
}

// KeysForCommand returns every key bound to command in context, overrides
// first.
func (r *Registry) KeysForCommand(command, context string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for k, c := range r.overrides {
		if c == command {
			keys = append(keys, k)
		}
	}
	for _, b := range r.bindings {
		if b.Command == command && b.Context == context {
			keys = append(keys, b.Key)
		}
	}
	return keys
}
