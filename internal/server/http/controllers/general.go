package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rzbill/feedsync/internal/runtime"
)

// GeneralController handles endpoints that are not scoped to a chain.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers the unauthenticated health check.
func (c *GeneralController) RegisterRoutes(r *mux.Router) {
	r.Methods(http.MethodGet).Path("/v1/healthz").HandlerFunc(c.handleHealth)
}

// handleHealth returns 200 OK with {"status": "ok"} if the store answers,
// 503 Service Unavailable otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
