package hub

import (
	"context"
	"errors"
	"fmt"

	"github.com/rzbill/calhub/internal/eventstore"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// Lifecycle funnels connection opens, closes, and inbound messages through
// one place. Every close path (explicit disconnect, read error, send
// failure during broadcast) converges on OnClose, which runs at most once
// per connection.
type Lifecycle struct {
	reg    *Registry
	router *Router
	store  EventStore
	logger logpkg.Logger
}

// NewLifecycle wires the lifecycle over registry, router, and store, and
// installs itself as the router's failure handler.
func NewLifecycle(reg *Registry, router *Router, store EventStore, logger logpkg.Logger) *Lifecycle {
	if logger == nil {
		logger = logpkg.NewTestLogger()
	}
	l := &Lifecycle{
		reg:    reg,
		router: router,
		store:  store,
		logger: logger.With(logpkg.Component("hub")),
	}
	router.SetFailureHandler(l.OnClose)
	return l
}

// OnOpen registers the connection and broadcasts the new presence count.
func (l *Lifecycle) OnOpen(c *Conn) {
	l.reg.Register(c)
	online := l.reg.Count()
	l.logger.Info("client connected", logpkg.Str("conn", c.ID()), logpkg.Int("online", online))
	l.router.NotifyAll(EncodeOnlineUsers(online), nil)
}

// OnClose unregisters the connection and broadcasts the new presence count.
// Safe to call from multiple paths concurrently; only the first call acts.
func (l *Lifecycle) OnClose(c *Conn) {
	if !c.markClosed() {
		return
	}
	l.reg.Unregister(c)
	_ = c.sink.Close()
	online := l.reg.Count()
	l.logger.Info("client disconnected", logpkg.Str("conn", c.ID()), logpkg.Int("online", online))
	l.router.NotifyAll(EncodeOnlineUsers(online), nil)
}

// CloseAll tears down every live connection. Called at shutdown before the
// store closes.
func (l *Lifecycle) CloseAll() {
	l.reg.mu.Lock()
	conns := make([]*Conn, 0, len(l.reg.conns))
	for c := range l.reg.conns {
		conns = append(conns, c)
	}
	l.reg.mu.Unlock()
	for _, c := range conns {
		l.OnClose(c)
	}
}

// OnMessage parses one inbound envelope and dispatches it. All failures,
// including panics in a handler, become a sender-directed error payload and
// never touch other connections.
func (l *Lifecycle) OnMessage(ctx context.Context, c *Conn, raw []byte) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error("message handler panic",
				logpkg.Str("conn", c.ID()), logpkg.Any("panic", p))
			l.router.NotifyOne(EncodeError("internal error"), c)
		}
	}()

	msg, err := ParseInbound(raw)
	if err != nil {
		l.router.NotifyOne(EncodeError(err.Error()), c)
		return
	}

	switch msg.Kind {
	case KindViewRange:
		l.handleViewRange(ctx, c, msg)
	case KindGetEvents:
		l.handleGetEvents(ctx, c)
	case KindCreateEvent:
		l.handleCreate(ctx, c, msg)
	case KindUpdateEvent:
		l.handleUpdate(ctx, c, msg)
	case KindDeleteEvent:
		l.handleDelete(ctx, c, msg)
	case KindUnknown:
		l.router.NotifyOne(EncodeError("unknown message type"), c)
	}
}

// handleViewRange stores the declared window (and optional filter) and
// responds with the events inside it. Window ordering is not validated; a
// backwards window is stored as given and matches nothing.
func (l *Lifecycle) handleViewRange(ctx context.Context, c *Conn, msg Inbound) {
	start, err := eventstore.ParseDate(msg.StartDate)
	if err != nil {
		l.router.NotifyOne(EncodeError(fmt.Sprintf("invalid view range: %v", err)), c)
		return
	}
	end, err := eventstore.ParseDate(msg.EndDate)
	if err != nil {
		l.router.NotifyOne(EncodeError(fmt.Sprintf("invalid view range: %v", err)), c)
		return
	}
	if err := l.SetView(c, start, end, msg.Filter); err != nil {
		l.router.NotifyOne(EncodeError(err.Error()), c)
		return
	}
	events, err := l.QueryEvents(ctx, start, end, true, msg.Filter)
	if err != nil {
		l.router.NotifyOne(EncodeError("failed to load events"), c)
		return
	}
	l.router.NotifyOne(EncodeEventsList(events), c)
}

// SetView declares the connection's visible window and optional filter
// without replying. The duplex view_range path and the SSE query-param
// path both go through here.
func (l *Lifecycle) SetView(c *Conn, start, end eventstore.Date, filterExpr string) error {
	f, err := newEventFilter(filterExpr)
	if err != nil {
		return fmt.Errorf("invalid filter: %v", err)
	}
	l.reg.SetWindow(c, Window{Start: start, End: end})
	l.reg.setFilter(c, f)
	return nil
}

// QueryEvents returns events within [start, end] (all events when hasRange
// is false), narrowed by an optional filter expression.
func (l *Lifecycle) QueryEvents(ctx context.Context, start, end eventstore.Date, hasRange bool, filterExpr string) ([]*eventstore.Event, error) {
	f, err := newEventFilter(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %v", err)
	}
	var events []*eventstore.Event
	if hasRange {
		events, err = l.store.FindInRange(ctx, start, end)
	} else {
		events, err = l.store.FindAll(ctx)
	}
	if err != nil {
		return nil, err
	}
	if f.enabled {
		kept := events[:0]
		for _, ev := range events {
			if f.Eval(ev) {
				kept = append(kept, ev)
			}
		}
		events = kept
	}
	return events, nil
}

func (l *Lifecycle) handleGetEvents(ctx context.Context, c *Conn) {
	events, err := l.store.FindAll(ctx)
	if err != nil {
		l.router.NotifyOne(EncodeError("failed to load events"), c)
		return
	}
	l.router.NotifyOne(EncodeEventsList(events), c)
}

func (l *Lifecycle) handleCreate(ctx context.Context, c *Conn, msg Inbound) {
	if msg.Event == nil {
		l.router.NotifyOne(EncodeError("create_event requires an event"), c)
		return
	}
	created, err := l.CreateEvent(ctx, msg.Event, c)
	if err != nil {
		l.router.NotifyOne(EncodeError(fmt.Sprintf("failed to create event: %v", err)), c)
		return
	}
	l.router.NotifyOne(EncodeEvent(TypeEventCreated, created), c)
}

func (l *Lifecycle) handleUpdate(ctx context.Context, c *Conn, msg Inbound) {
	if msg.Event == nil {
		l.router.NotifyOne(EncodeError("update_event requires an event"), c)
		return
	}
	updated, err := l.UpdateEvent(ctx, msg.Event, c)
	if errors.Is(err, eventstore.ErrNotFound) {
		l.router.NotifyOne(EncodeError("event not found"), c)
		return
	}
	if err != nil {
		l.router.NotifyOne(EncodeError(fmt.Sprintf("failed to update event: %v", err)), c)
		return
	}
	l.router.NotifyOne(EncodeEvent(TypeEventUpdated, updated), c)
}

func (l *Lifecycle) handleDelete(ctx context.Context, c *Conn, msg Inbound) {
	if msg.EventID == "" {
		l.router.NotifyOne(EncodeError("delete_event requires an event_id"), c)
		return
	}
	err := l.DeleteEvent(ctx, msg.EventID, c)
	if errors.Is(err, eventstore.ErrNotFound) {
		l.router.NotifyOne(EncodeError("event not found"), c)
		return
	}
	if err != nil {
		l.router.NotifyOne(EncodeError(fmt.Sprintf("failed to delete event: %v", err)), c)
		return
	}
	l.router.NotifyOne(EncodeEventDeleted(msg.EventID), c)
}

// CreateEvent persists a new event and broadcasts it to interested
// connections, excluding the originating one (which acks directly). Both the
// duplex path and the REST facade go through here so broadcast semantics
// stay identical. No broadcast is issued when the store fails.
func (l *Lifecycle) CreateEvent(ctx context.Context, ev *eventstore.Event, origin *Conn) (*eventstore.Event, error) {
	created, err := l.store.Insert(ctx, ev)
	if err != nil {
		return nil, err
	}
	l.router.NotifyInterested(EncodeEvent(TypeEventCreated, created), created, origin)
	return created, nil
}

// UpdateEvent persists an update and broadcasts it to interested
// connections. Returns eventstore.ErrNotFound for unknown ids.
func (l *Lifecycle) UpdateEvent(ctx context.Context, ev *eventstore.Event, origin *Conn) (*eventstore.Event, error) {
	updated, err := l.store.UpdateByID(ctx, ev)
	if err != nil {
		return nil, err
	}
	l.router.NotifyInterested(EncodeEvent(TypeEventUpdated, updated), updated, origin)
	return updated, nil
}

// DeleteEvent removes an event and broadcasts the deletion to connections
// whose window covered the event's date. Returns eventstore.ErrNotFound for
// unknown ids; no broadcast is issued in that case.
func (l *Lifecycle) DeleteEvent(ctx context.Context, id string, origin *Conn) error {
	prev, err := l.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	ok, err := l.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return eventstore.ErrNotFound
	}
	l.router.NotifyInterested(EncodeEventDeleted(id), prev, origin)
	return nil
}

// Online returns the current live connection count for presence reporting.
func (l *Lifecycle) Online() int { return l.reg.Count() }
