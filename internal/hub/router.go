package hub

import (
	"github.com/rzbill/calhub/internal/eventstore"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// Router fans payloads out to registered connections. Delivery runs inside
// the registry's critical section; failed connections are handed to the
// failure handler only after the pass completes, so one dead client never
// blocks delivery to the rest.
type Router struct {
	reg      *Registry
	logger   logpkg.Logger
	onFailed func(*Conn)
}

// NewRouter creates a router over the given registry.
func NewRouter(reg *Registry, logger logpkg.Logger) *Router {
	if logger == nil {
		logger = logpkg.NewTestLogger()
	}
	return &Router{reg: reg, logger: logger.With(logpkg.Component("router"))}
}

// SetFailureHandler wires the callback invoked for each connection whose
// send failed during a pass. The Lifecycle routes this into its close path.
func (r *Router) SetFailureHandler(fn func(*Conn)) { r.onFailed = fn }

// NotifyInterested delivers payload to every connection whose window
// contains the event's date, except the excluded one. Connections with no
// declared window are never matched; a declared CEL filter must also accept
// the event.
func (r *Router) NotifyInterested(payload []byte, ev *eventstore.Event, exclude *Conn) {
	day, err := ev.Day()
	if err != nil {
		// Events reach the router only after store normalization.
		r.logger.Error("broadcast skipped: unparseable event date",
			logpkg.Str("id", ev.ID), logpkg.Str("date", ev.Date))
		return
	}

	failed := r.deliver(payload, exclude, func(c *Conn) bool {
		w, ok := r.reg.windows[c]
		if !ok || !w.Contains(day) {
			return false
		}
		if f, ok := r.reg.filters[c]; ok && !f.Eval(ev) {
			return false
		}
		return true
	})
	r.dropFailed(failed)
}

// NotifyAll delivers payload to every registered connection except the
// excluded one, regardless of window.
func (r *Router) NotifyAll(payload []byte, exclude *Conn) {
	failed := r.deliver(payload, exclude, func(*Conn) bool { return true })
	r.dropFailed(failed)
}

// NotifyOne delivers payload directly to a single connection (ack path).
func (r *Router) NotifyOne(payload []byte, c *Conn) {
	r.reg.mu.Lock()
	_, registered := r.reg.conns[c]
	var err error
	if registered {
		err = c.sink.Send(payload)
	}
	r.reg.mu.Unlock()
	if err != nil {
		r.logger.Warn("direct send failed", logpkg.Str("conn", c.ID()), logpkg.Err(err))
		r.dropFailed([]*Conn{c})
	}
}

// deliver runs one broadcast pass under the registry lock and returns the
// connections whose send failed.
func (r *Router) deliver(payload []byte, exclude *Conn, match func(*Conn) bool) []*Conn {
	r.reg.mu.Lock()
	defer r.reg.mu.Unlock()

	var failed []*Conn
	for c := range r.reg.conns {
		if c == exclude || !match(c) {
			continue
		}
		if err := c.sink.Send(payload); err != nil {
			r.logger.Warn("broadcast send failed", logpkg.Str("conn", c.ID()), logpkg.Err(err))
			failed = append(failed, c)
		}
	}
	return failed
}

func (r *Router) dropFailed(failed []*Conn) {
	if r.onFailed == nil {
		return
	}
	for _, c := range failed {
		r.onFailed(c)
	}
}
