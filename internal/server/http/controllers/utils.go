package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rzbill/feedsync/internal/chain"
	"github.com/rzbill/feedsync/pkg/id"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// Header names understood by the gateway.
const (
	HeaderChainID  = "X-FEEDER-ID"
	HeaderDeviceID = "X-FEEDER-DEVICE-ID"
	HeaderAdminKey = "X-FEEDER-ADMIN-KEY"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 4 << 20

// errBadRequest marks header and body problems found before reaching a chain.
var errBadRequest = errors.New("bad request")

// Helper functions for common HTTP responses

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a 200 JSON response with the given data.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

// writeNotModified writes a 304 carrying etag when set.
func writeNotModified(w http.ResponseWriter, etag string) {
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.WriteHeader(http.StatusNotModified)
}

// writeChainError maps chain sentinels onto status codes. Anything else is
// a store failure and is logged.
func writeChainError(w http.ResponseWriter, r *http.Request, logger logpkg.Logger, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, chain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chain.ErrNotRegistered):
		writeError(w, http.StatusBadRequest, "Device not registered")
	case errors.Is(err, chain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chain.ErrConflict):
		writeError(w, http.StatusPreconditionFailed, "You're out of date")
	case errors.Is(err, chain.ErrPreconditionRequired):
		writeError(w, http.StatusPreconditionRequired, "Missing If-Match header")
	default:
		logger.WithContext(r.Context()).Error("request failed",
			logpkg.Str("method", r.Method),
			logpkg.Str("path", r.URL.Path),
			logpkg.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody reads a JSON body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}

// chainIDFrom parses the sync code header.
func chainIDFrom(r *http.Request) (id.ChainID, error) {
	raw := r.Header.Get(HeaderChainID)
	if raw == "" {
		return id.ChainID{}, fmt.Errorf("%w: missing %s", errBadRequest, HeaderChainID)
	}
	cid, err := id.Parse(raw)
	if err != nil {
		return id.ChainID{}, fmt.Errorf("%w: invalid %s", errBadRequest, HeaderChainID)
	}
	return cid, nil
}

// deviceIDFrom parses the device id header.
func deviceIDFrom(r *http.Request) (int64, error) {
	raw := r.Header.Get(HeaderDeviceID)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", errBadRequest, HeaderDeviceID)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, HeaderDeviceID)
	}
	return v, nil
}

// parseSince parses the mandatory since query parameter.
func parseSince(r *http.Request) (int64, error) {
	q := r.URL.Query()
	if !q.Has("since") {
		return 0, fmt.Errorf("%w: missing since", errBadRequest)
	}
	v, err := strconv.ParseInt(q.Get("since"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid since", errBadRequest)
	}
	return v, nil
}
