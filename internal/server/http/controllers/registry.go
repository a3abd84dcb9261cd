package controllers

import (
	"github.com/gorilla/mux"
	"github.com/rzbill/feedsync/internal/runtime"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// Routers are the mount points handed out by the HTTP server. API and
// Admin carry their own auth middleware.
type Routers struct {
	Root  *mux.Router
	API   *mux.Router
	Admin *mux.Router
}

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	chains  *ChainController
	admin   *AdminController
}

// NewControllerRegistry creates a new controller registry.
//
// It initializes all controllers with the provided runtime and logger.
func NewControllerRegistry(rt *runtime.Runtime, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		chains:  NewChainController(rt, logger),
		admin:   NewAdminController(rt, logger),
	}
}

// RegisterAllRoutes registers all controller routes.
func (r *ControllerRegistry) RegisterAllRoutes(routers Routers) {
	r.general.RegisterRoutes(routers.Root)
	r.chains.RegisterRoutes(routers.API)
	r.admin.RegisterRoutes(routers.Admin)
}
