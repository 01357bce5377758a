package controllers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rzbill/calhub/internal/eventstore"
	"github.com/rzbill/calhub/internal/hub"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// StreamController hosts the push surfaces: the websocket duplex endpoint
// and the SSE mirror. Both register a hub connection so presence counting
// and targeted broadcasts treat them alike.
type StreamController struct {
	lc          *hub.Lifecycle
	logger      logpkg.Logger
	upgrader    websocket.Upgrader
	maxMsgBytes int64
	sendTimeout time.Duration
}

// NewStreamController creates a new stream controller.
func NewStreamController(lc *hub.Lifecycle, maxMsgBytes int64, sendTimeout time.Duration, logger logpkg.Logger) *StreamController {
	return &StreamController{
		lc:     lc,
		logger: logger.With(logpkg.Component("http.stream")),
		upgrader: websocket.Upgrader{
			// Cross-origin clients are allowed, matching the REST CORS policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		maxMsgBytes: maxMsgBytes,
		sendTimeout: sendTimeout,
	}
}

// RegisterRoutes registers stream routes with the given router.
func (c *StreamController) RegisterRoutes(r chi.Router) {
	r.Get("/ws", c.handleWS)
	r.Get("/api/events/stream", c.handleSSE)
}

// wsSink adapts a websocket connection to the hub's Sink. Sends are already
// serialized by the hub, so no extra write lock is needed; the deadline
// bounds how long a stalled peer can block a broadcast pass.
type wsSink struct {
	ws      *websocket.Conn
	timeout time.Duration
}

func (s *wsSink) Send(p []byte) error {
	_ = s.ws.SetWriteDeadline(time.Now().Add(s.timeout))
	return s.ws.WriteMessage(websocket.TextMessage, p)
}

func (s *wsSink) Close() error { return s.ws.Close() }

// handleWS upgrades to a websocket and runs the read loop. Any read error,
// including a normal client close, funnels into OnClose.
func (c *StreamController) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	if c.maxMsgBytes > 0 {
		ws.SetReadLimit(c.maxMsgBytes)
	}

	conn := hub.NewConn(&wsSink{ws: ws, timeout: c.sendTimeout})
	c.lc.OnOpen(conn)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.lc.OnClose(conn)
			return
		}
		c.lc.OnMessage(r.Context(), conn, data)
	}
}

// sseSink adapts the HTTP response stream to the hub's Sink. Close only
// signals the handler; the response itself ends when the handler returns.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
	once    sync.Once
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher) *sseSink {
	return &sseSink{w: w, flusher: flusher, done: make(chan struct{})}
}

func (s *sseSink) Send(p []byte) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", p); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// handleSSE streams the push channel over server-sent events. Optional
// start_date/end_date/filter query parameters declare the connection's
// window the same way a duplex view_range does.
func (c *StreamController) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	q := r.URL.Query()
	startStr := q.Get("start_date")
	endStr := q.Get("end_date")
	filter := q.Get("filter")

	var start, end eventstore.Date
	hasRange := startStr != "" || endStr != ""
	if hasRange {
		if startStr == "" || endStr == "" {
			writeError(w, http.StatusBadRequest, "start_date and end_date must be provided together")
			return
		}
		var err error
		if start, err = eventstore.ParseDate(startStr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		if end, err = eventstore.ParseDate(endStr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
	}
	if err := hub.ValidateFilter(filter); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid filter: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	sink := newSSESink(w, flusher)
	conn := hub.NewConn(sink)
	c.lc.OnOpen(conn)
	if hasRange {
		if err := c.lc.SetView(conn, start, end, filter); err != nil {
			c.lc.OnClose(conn)
			return
		}
	}

	select {
	case <-r.Context().Done():
	case <-sink.done:
	}
	c.lc.OnClose(conn)
}
