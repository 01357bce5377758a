package controllers

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/calhub/internal/hub"
	"github.com/rzbill/calhub/internal/runtime"
	logpkg "github.com/rzbill/calhub/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	events  *EventsController
	stream  *StreamController
}

// NewControllerRegistry initializes all controllers over the runtime and
// hub lifecycle.
func NewControllerRegistry(rt *runtime.Runtime, lc *hub.Lifecycle, logger logpkg.Logger) *ControllerRegistry {
	limits := rt.Config().Limits
	sendTimeout := time.Duration(limits.SendTimeoutMS) * time.Millisecond
	return &ControllerRegistry{
		general: NewGeneralController(rt, lc),
		events:  NewEventsController(lc, logger),
		stream:  NewStreamController(lc, limits.MaxMessageBytes, sendTimeout, logger),
	}
}

// RegisterAllRoutes registers every controller's routes with the router.
func (r *ControllerRegistry) RegisterAllRoutes(router chi.Router) {
	r.general.RegisterRoutes(router)
	r.events.RegisterRoutes(router)
	r.stream.RegisterRoutes(router)
}
