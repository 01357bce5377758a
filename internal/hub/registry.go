package hub

import (
	"sync"

	"github.com/rzbill/calhub/internal/eventstore"
)

// Window is a client-declared inclusive date range of current interest.
// Ordering of Start and End is deliberately not validated: a window stored
// backwards simply matches nothing.
type Window struct {
	Start eventstore.Date
	End   eventstore.Date
}

// Contains reports whether the window covers the given date (inclusive).
func (w Window) Contains(d eventstore.Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Registry tracks live connections and each one's declared window and
// optional event filter. One mutex guards all three maps and is also held
// for whole broadcast passes (see Router), which serializes delivery order
// per connection across successive broadcasts.
type Registry struct {
	mu      sync.Mutex
	conns   map[*Conn]struct{}
	windows map[*Conn]Window
	filters map[*Conn]eventFilter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:   make(map[*Conn]struct{}),
		windows: make(map[*Conn]Window),
		filters: make(map[*Conn]eventFilter),
	}
}

// Register adds a connection with no window. Idempotent.
func (r *Registry) Register(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c] = struct{}{}
}

// SetWindow inserts or replaces the window for a registered connection.
func (r *Registry) SetWindow(c *Conn, w Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return
	}
	r.windows[c] = w
}

// setFilter installs (or clears, when disabled) the connection's event filter.
func (r *Registry) setFilter(c *Conn, f eventFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c]; !ok {
		return
	}
	if !f.enabled {
		delete(r.filters, c)
		return
	}
	r.filters[c] = f
}

// Unregister removes the connection and its window, if present.
func (r *Registry) Unregister(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
	delete(r.windows, c)
	delete(r.filters, c)
}

// WindowOf returns the connection's window, if one was declared.
func (r *Registry) WindowOf(c *Conn) (Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[c]
	return w, ok
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}
