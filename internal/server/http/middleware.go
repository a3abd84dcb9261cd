package httpserver

import (
	"crypto/subtle"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/rzbill/feedsync/internal/config"
	"github.com/rzbill/feedsync/internal/server/http/controllers"
	logpkg "github.com/rzbill/feedsync/pkg/log"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// requestID tags the request context with the caller's request id, or a
// fresh one, and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(HeaderRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		next.ServeHTTP(w, r.WithContext(logpkg.ContextWithRequestID(r.Context(), rid)))
	})
}

// accessLog logs one line per request.
func accessLog(logger logpkg.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			logger.WithContext(r.Context()).Info("handled",
				logpkg.Str("method", r.Method),
				logpkg.Str("path", r.URL.Path),
				logpkg.Int("status", m.Code),
				logpkg.Int64("bytes", m.Written),
				logpkg.Duration("duration", m.Duration))
		})
	}
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Authorization, If-Match, If-None-Match, "+
				controllers.HeaderChainID+", "+controllers.HeaderDeviceID)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Expose-Headers", "ETag, "+HeaderRequestID)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// basicAuth checks the configured credentials. Empty credentials disable
// the check.
func basicAuth(auth config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if auth.User == "" && auth.Password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if !ok || !equal(user, auth.User) || !equal(password, auth.Password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="feedsync"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// adminKey guards operator routes. An empty key disables them.
func adminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(controllers.HeaderAdminKey)
			if key == "" || presented == "" || !equal(presented, key) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
