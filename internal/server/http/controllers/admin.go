package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rzbill/feedsync/internal/chain"
	"github.com/rzbill/feedsync/internal/runtime"
	"github.com/rzbill/feedsync/pkg/id"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// AdminController serves operator endpoints under /api/admin.
type AdminController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// NewAdminController creates a new admin controller.
func NewAdminController(rt *runtime.Runtime, logger logpkg.Logger) *AdminController {
	return &AdminController{rt: rt, logger: logger}
}

// RegisterRoutes registers admin routes on the /api/admin subrouter.
func (c *AdminController) RegisterRoutes(admin *mux.Router) {
	admin.Methods(http.MethodPost).Path("/gc-sweep").HandlerFunc(c.handleSweep)
	admin.Methods(http.MethodGet).Path("/chains/{syncCode}").HandlerFunc(c.handleChainInfo)
}

// handleSweep runs one garbage collection pass over every indexed chain.
func (c *AdminController) handleSweep(w http.ResponseWriter, r *http.Request) {
	res, err := c.rt.Registry().Sweep(r.Context())
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	writeJSON(w, sweepResp{Checked: res.Checked, Deleted: res.Deleted, Failed: res.Failed})
}

// handleChainInfo reports device count and deletion eligibility.
func (c *AdminController) handleChainInfo(w http.ResponseWriter, r *http.Request) {
	cid, err := id.Parse(mux.Vars(r)["syncCode"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sync code")
		return
	}
	var info chain.DeviceCount
	err = c.rt.Registry().Do(r.Context(), cid, func(ch *chain.Chain) error {
		var err error
		info, err = ch.DeviceCount(r.Context())
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	writeJSON(w, chainInfoResp{
		SyncCode:            cid.String(),
		Devices:             info.Count,
		EligibleForDeletion: info.EligibleForDeletion,
	})
}
