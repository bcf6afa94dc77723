package httpapi

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// requestInfo lets inner handlers report the authenticated user back to
// the logging middleware.
type requestInfo struct {
	userID string
}

type requestInfoKey struct{}

func setRequestUser(ctx context.Context, userID string) {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		info.userID = userID
	}
}

// NewLoggingMiddleware logs one line per request and feeds the HTTP metrics.
func NewLoggingMiddleware(logger logging.Logger, rec metrics.Recorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{}
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			ctx := context.WithValue(r.Context(), requestInfoKey{}, info)
			ctx = logging.ContextWith(ctx, "request_id", middleware.GetReqID(r.Context()))
			next.ServeHTTP(sr, r.WithContext(ctx))

			duration := time.Since(start)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			rec.RecordHTTPRequest(route, sr.statusCode, duration)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", float64(duration.Nanoseconds()) / float64(time.Millisecond),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if info.userID != "" {
				args = append(args, "user_id", info.userID)
			}

			switch {
			case sr.statusCode >= 500:
				logger.Error(r.Context(), "http_request", args...)
			case sr.statusCode >= 400:
				logger.Warn(r.Context(), "http_request", args...)
			default:
				logger.Info(r.Context(), "http_request", args...)
			}
		})
	}
}

// NewRecoveryMiddleware turns a handler panic into a 500.
func NewRecoveryMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Error(r.Context(), "panic recovered",
						"panic", p,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeJSON(w, http.StatusInternalServerError, Envelope{Message: "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewBearerMiddleware rejects requests without a valid access token and
// stores the user in the request context.
func NewBearerMiddleware(authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.BearerToken(r.Header.Get(common.AuthorizationHeaderName))

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				writeError(w, err)
				return
			}

			setRequestUser(r.Context(), user.ID)
			ctx := logging.ContextWith(auth.WithUser(r.Context(), user), "user_id", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
