package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rzbill/feedsync/internal/chain"
	"github.com/rzbill/feedsync/internal/runtime"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// ChainController serves the per-chain sync surface under /api.
//
// Every route except create and join requires X-FEEDER-ID and a registered
// X-FEEDER-DEVICE-ID. Chain work runs inside Registry.Do so requests for
// one chain are applied one at a time.
type ChainController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// NewChainController creates a new chain controller.
func NewChainController(rt *runtime.Runtime, logger logpkg.Logger) *ChainController {
	return &ChainController{rt: rt, logger: logger}
}

// RegisterRoutes registers chain routes on the /api subrouter.
func (c *ChainController) RegisterRoutes(api *mux.Router) {
	api.Methods(http.MethodPost).Path("/create").HandlerFunc(c.handleCreate)
	api.Methods(http.MethodPost).Path("/join").HandlerFunc(c.handleJoin)

	api.Methods(http.MethodGet).Path("/devices").HandlerFunc(c.handleListDevices)
	api.Methods(http.MethodDelete).Path("/devices/{deviceId}").HandlerFunc(c.handleRemoveDevice)

	api.Methods(http.MethodGet).Path("/readmark").HandlerFunc(c.handleListReadMarks(false))
	api.Methods(http.MethodPost).Path("/readmark").HandlerFunc(c.handleAppendReadMarks)
	api.Methods(http.MethodGet).Path("/ereadmark").HandlerFunc(c.handleListReadMarks(true))
	api.Methods(http.MethodPost).Path("/ereadmark").HandlerFunc(c.handleAppendEncryptedReadMarks)

	api.Methods(http.MethodGet).Path("/feeds").HandlerFunc(c.handleGetFeeds)
	api.Methods(http.MethodPost).Path("/feeds").HandlerFunc(c.handleUpdateFeeds)
}

// do resolves the caller's chain and runs fn once the calling device is
// known to be registered.
func (c *ChainController) do(r *http.Request, fn func(ctx context.Context, ch *chain.Chain) error) error {
	cid, err := chainIDFrom(r)
	if err != nil {
		return err
	}
	deviceID, err := deviceIDFrom(r)
	if err != nil {
		return err
	}
	ctx := r.Context()
	return c.rt.Registry().Do(ctx, cid, func(ch *chain.Chain) error {
		if err := ch.Authorize(ctx, deviceID); err != nil {
			return err
		}
		return fn(ctx, ch)
	})
}

func (c *ChainController) decodeJoin(w http.ResponseWriter, r *http.Request) (joinReq, bool) {
	var req joinReq
	if err := decodeBody(w, r, &req); err != nil {
		writeChainError(w, r, c.logger, err)
		return req, false
	}
	if req.DeviceName == "" {
		writeError(w, http.StatusBadRequest, "deviceName is required")
		return req, false
	}
	return req, true
}

// handleCreate allocates a fresh chain and joins the caller to it.
func (c *ChainController) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeJoin(w, r)
	if !ok {
		return
	}
	res, err := c.rt.Registry().Create(r.Context(), req.DeviceName)
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	writeJSON(w, joinResp{SyncCode: res.SyncCode, DeviceID: res.DeviceID})
}

// handleJoin registers a new device on the chain named by X-FEEDER-ID.
func (c *ChainController) handleJoin(w http.ResponseWriter, r *http.Request) {
	cid, err := chainIDFrom(r)
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	req, ok := c.decodeJoin(w, r)
	if !ok {
		return
	}
	var res chain.JoinResult
	err = c.rt.Registry().Do(r.Context(), cid, func(ch *chain.Chain) error {
		var err error
		res, err = ch.Join(r.Context(), req.DeviceName)
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	writeJSON(w, joinResp{SyncCode: res.SyncCode, DeviceID: res.DeviceID})
}

func (c *ChainController) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var list chain.DeviceList
	err := c.do(r, func(ctx context.Context, ch *chain.Chain) error {
		var err error
		list, err = ch.ListDevices(ctx, r.Header.Get("If-None-Match"))
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	if list.NotModified {
		writeNotModified(w, list.ETag)
		return
	}
	w.Header().Set("ETag", list.ETag)
	w.Header().Set("Cache-Control", "private, max-age=60")
	writeJSON(w, toDeviceList(list.Devices))
}

// handleRemoveDevice unregisters a device and answers with the remaining
// devices, or 404 when the device is unknown.
func (c *ChainController) handleRemoveDevice(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.ParseInt(mux.Vars(r)["deviceId"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid device id")
		return
	}
	var list chain.DeviceList
	err = c.do(r, func(ctx context.Context, ch *chain.Chain) error {
		removed, err := ch.RemoveDevice(ctx, target)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: no such device registered: %d", chain.ErrNotFound, target)
		}
		list, err = ch.ListDevices(ctx, "")
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	w.Header().Set("ETag", list.ETag)
	writeJSON(w, toDeviceList(list.Devices))
}

// handleListReadMarks serves GET readmark and ereadmark. Both read the same
// log and differ only in the projected shape.
func (c *ChainController) handleListReadMarks(encrypted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, err := parseSince(r)
		if err != nil {
			writeChainError(w, r, c.logger, err)
			return
		}
		var list chain.ReadMarkList
		err = c.do(r, func(ctx context.Context, ch *chain.Chain) error {
			var err error
			list, err = ch.ListReadMarksSince(ctx, since, r.Header.Get("If-None-Match"))
			return err
		})
		if err != nil {
			writeChainError(w, r, c.logger, err)
			return
		}
		if list.NotModified {
			writeNotModified(w, list.ETag)
			return
		}
		w.Header().Set("ETag", list.ETag)
		// Empty answers may be cached briefly, answers with content not at all.
		if len(list.Marks) == 0 {
			w.Header().Set("Cache-Control", "private, max-age=10")
		} else {
			w.Header().Set("Cache-Control", "private, max-age=0")
		}
		if encrypted {
			writeJSON(w, toEncryptedReadMarks(list.Encrypted()))
			return
		}
		writeJSON(w, toReadMarks(list.Plain()))
	}
}

func (c *ChainController) handleAppendReadMarks(w http.ResponseWriter, r *http.Request) {
	var req sendReadMarksReq
	if err := decodeBody(w, r, &req); err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	marks := make([]chain.ReadMarkInput, len(req.Items))
	for i, it := range req.Items {
		marks[i] = chain.PlainMark{FeedURL: it.FeedURL, ArticleGUID: it.ArticleGUID}
	}
	c.appendReadMarks(w, r, marks)
}

func (c *ChainController) handleAppendEncryptedReadMarks(w http.ResponseWriter, r *http.Request) {
	var req sendEncryptedReadMarksReq
	if err := decodeBody(w, r, &req); err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	marks := make([]chain.ReadMarkInput, len(req.Items))
	for i, it := range req.Items {
		marks[i] = chain.EncryptedMark{Encrypted: it.Encrypted}
	}
	c.appendReadMarks(w, r, marks)
}

func (c *ChainController) appendReadMarks(w http.ResponseWriter, r *http.Request, marks []chain.ReadMarkInput) {
	var ts int64
	err := c.do(r, func(ctx context.Context, ch *chain.Chain) error {
		var err error
		ts, err = ch.AppendReadMarks(ctx, marks)
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	writeJSON(w, timestampResp{Timestamp: ts})
}

// handleGetFeeds answers 200 with the blob, 204 before the first upload
// and 304 when If-None-Match matches.
func (c *ChainController) handleGetFeeds(w http.ResponseWriter, r *http.Request) {
	var res chain.FeedsResult
	err := c.do(r, func(ctx context.Context, ch *chain.Chain) error {
		var err error
		res, err = ch.GetFeeds(ctx, r.Header.Get("If-None-Match"))
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	w.Header().Set("Vary", HeaderChainID+", "+HeaderDeviceID)
	if res.Status == chain.FeedsNotModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Cache-Control", "private, must-revalidate")
	w.Header().Set("ETag", res.ETag)
	if res.Status == chain.FeedsEmpty {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, feedsResp{Hash: res.Feeds.ContentHash, Encrypted: res.Feeds.Encrypted})
}

// handleUpdateFeeds replaces the blob, guarded by If-Match once one exists.
func (c *ChainController) handleUpdateFeeds(w http.ResponseWriter, r *http.Request) {
	var req updateFeedsReq
	if err := decodeBody(w, r, &req); err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	var stored chain.Feeds
	err := c.do(r, func(ctx context.Context, ch *chain.Chain) error {
		var err error
		stored, err = ch.UpdateFeeds(ctx, r.Header.Get("If-Match"), chain.Feeds{
			ContentHash: req.ContentHash,
			Encrypted:   req.Encrypted,
		})
		return err
	})
	if err != nil {
		writeChainError(w, r, c.logger, err)
		return
	}
	w.Header().Set("ETag", chain.FeedsETag(stored.ContentHash))
	writeJSON(w, updateFeedsResp{Hash: stored.ContentHash})
}

func toDeviceList(devices []chain.Device) deviceListResp {
	out := make([]deviceJSON, len(devices))
	for i, d := range devices {
		out[i] = deviceJSON{DeviceID: d.ID, DeviceName: d.Name}
	}
	return deviceListResp{Devices: out}
}

func toReadMarks(marks []chain.PlainReadMark) readMarksResp {
	out := make([]readMarkJSON, len(marks))
	for i, m := range marks {
		out[i] = readMarkJSON{Timestamp: m.Timestamp, FeedURL: m.FeedURL, ArticleGUID: m.ArticleGUID}
	}
	return readMarksResp{ReadMarks: out}
}

func toEncryptedReadMarks(marks []chain.EncryptedReadMark) encryptedReadMarksResp {
	out := make([]encryptedReadMarkJSON, len(marks))
	for i, m := range marks {
		out[i] = encryptedReadMarkJSON{Timestamp: m.Timestamp, Encrypted: m.Encrypted}
	}
	return encryptedReadMarksResp{ReadMarks: out}
}
