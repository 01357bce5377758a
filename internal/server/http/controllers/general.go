package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/calhub/internal/hub"
	"github.com/rzbill/calhub/internal/runtime"
)

// GeneralController handles the health endpoint.
type GeneralController struct {
	rt *runtime.Runtime
	lc *hub.Lifecycle
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime, lc *hub.Lifecycle) *GeneralController {
	return &GeneralController{rt: rt, lc: lc}
}

// RegisterRoutes registers general routes with the given router.
func (c *GeneralController) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", c.handleHealth)
}

// handleHealth reports service status, the live connection count, and the
// current time in the configured zone.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	loc := c.rt.Location()
	body := map[string]any{
		"status":       "ok",
		"online_users": c.lc.Online(),
		"timestamp":    time.Now().In(loc).Format(time.RFC3339Nano),
		"timezone":     loc.String(),
	}
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		body["status"] = "not_serving"
		writeJSONStatus(w, http.StatusServiceUnavailable, body)
		return
	}
	writeJSON(w, body)
}
