package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/common/middleware"
	"github.com/transvepo/evidencias-stack/evidencias/internal/auth"
	"github.com/transvepo/evidencias-stack/evidencias/internal/handlers"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins lists dashboard origins allowed to call /api. Empty
	// disables CORS headers.
	AllowedOrigins []string

	// Auth protects /api when set.
	Auth auth.Validator

	Logger *logging.Logger
}

// NewRouter constructs a chi router with the webhook, operator API and
// operational routes registered.
func NewRouter(h *handlers.Handler, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(AccessLog(logger))

	// Health endpoints
	r.Get("/healthz", h.HealthCheck)
	r.Get("/readyz", h.Ready)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Messaging provider webhook
	r.Post("/whatsapp", h.Webhook)

	// Operator dashboard API
	r.Route("/api", func(api chi.Router) {
		if len(opts.AllowedOrigins) > 0 {
			api.Use(cors.New(cors.Options{
				AllowedOrigins: opts.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPatch, http.MethodOptions},
				AllowedHeaders: []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
				ExposedHeaders: []string{middleware.HeaderRequestID},
			}).Handler)
		}
		if opts.Auth != nil {
			api.Use(auth.RequireBearer(opts.Auth))
		}

		api.Get("/ordenes", h.ListOrders)
		api.Get("/ordenes/{id}", h.GetOrder)
		api.Patch("/ordenes/{id}", h.UpdateStatus)
	})

	return r
}
