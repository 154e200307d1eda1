package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/transvepo/evidencias-stack/common/httputil"
	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/metrics"
)

// unmatchedRoute labels requests that no route handled, keeping metric
// cardinality bounded.
const unmatchedRoute = "unmatched"

// AccessLog logs every request and records HTTP metrics labelled by the chi
// route pattern.
func AccessLog(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			route := routePattern(r)

			metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

			if route == "/healthz" || route == "/readyz" || route == "/metrics" {
				return
			}
			logger.WithContext(r.Context()).Info("http request",
				logging.Method(r.Method),
				logging.Path(r.URL.Path),
				logging.Status(status),
				logging.Duration(elapsed.Milliseconds()),
				logging.IP(httputil.GetClientIP(r)),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
