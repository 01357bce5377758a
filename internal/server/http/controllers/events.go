package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/calhub/internal/eventstore"
	"github.com/rzbill/calhub/internal/hub"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// EventsController handles the REST CRUD surface for calendar events.
//
// Mutations go through the hub lifecycle rather than the store directly, so
// every successful REST write triggers the same targeted broadcast as a
// duplex mutation. REST callers have no connection to exclude, so all
// interested connections receive the push.
type EventsController struct {
	lc     *hub.Lifecycle
	logger logpkg.Logger
}

// NewEventsController creates a new events controller.
func NewEventsController(lc *hub.Lifecycle, logger logpkg.Logger) *EventsController {
	return &EventsController{lc: lc, logger: logger.With(logpkg.Component("http.events"))}
}

// RegisterRoutes registers event routes with the given router.
func (c *EventsController) RegisterRoutes(r chi.Router) {
	r.Get("/api/events", c.handleList)
	r.Post("/api/events", c.handleCreate)
	r.Put("/api/events/{id}", c.handleUpdate)
	r.Delete("/api/events/{id}", c.handleDelete)
}

// handleList returns events, optionally narrowed to a date range and a
// filter expression via start_date/end_date/filter query parameters.
func (c *EventsController) handleList(w http.ResponseWriter, r *http.Request) {
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

	events, err := c.lc.QueryEvents(r.Context(), start, end, hasRange, filter)
	if err != nil {
		if strings.HasPrefix(err.Error(), "invalid filter") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		c.logger.Error("list events failed", logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to load events")
		return
	}
	if events == nil {
		events = []*eventstore.Event{}
	}
	writeJSON(w, events)
}

func (c *EventsController) handleCreate(w http.ResponseWriter, r *http.Request) {
	var ev eventstore.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := c.lc.CreateEvent(r.Context(), &ev, nil)
	if err != nil {
		if status := statusFor(err); status == http.StatusInternalServerError {
			c.logger.Error("create event failed", logpkg.Err(err))
			writeError(w, status, "failed to create event")
		} else {
			writeError(w, status, err.Error())
		}
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (c *EventsController) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var ev eventstore.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The path is authoritative for the id.
	ev.ID = chi.URLParam(r, "id")

	updated, err := c.lc.UpdateEvent(r.Context(), &ev, nil)
	if errors.Is(err, eventstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		if status := statusFor(err); status == http.StatusInternalServerError {
			c.logger.Error("update event failed", logpkg.Err(err), logpkg.Str("id", ev.ID))
			writeError(w, status, "failed to update event")
		} else {
			writeError(w, status, err.Error())
		}
		return
	}
	writeJSON(w, updated)
}

func (c *EventsController) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := c.lc.DeleteEvent(r.Context(), id, nil)
	if errors.Is(err, eventstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	if err != nil {
		c.logger.Error("delete event failed", logpkg.Err(err), logpkg.Str("id", id))
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
