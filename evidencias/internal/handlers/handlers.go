package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/transvepo/evidencias-stack/common/httputil"
	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/ratelimit"
	"github.com/transvepo/evidencias-stack/evidencias/internal/service"
)

// Ingester records inbound webhook messages.
type Ingester interface {
	Ingest(ctx context.Context, raw string) (service.Outcome, error)
}

// Orders serves the operator dashboard.
type Orders interface {
	ListOrders(ctx context.Context, filter string) ([]models.Orden, error)
	GetOrder(ctx context.Context, id int64) (*models.Orden, error)
	UpdateStatus(ctx context.Context, id int64, newStatus string) error
	Ping(ctx context.Context) error
}

// BusStatus reports whether the lifecycle event bus is connected.
type BusStatus interface {
	IsConnected() bool
}

// DefaultMaxBodyBytes caps webhook and API request bodies.
const DefaultMaxBodyBytes = 64 << 10

const readyTimeout = 2 * time.Second

type Handler struct {
	ingest       Ingester
	orders       Orders
	limiter      ratelimit.RateLimiter
	bus          BusStatus
	logger       *logging.Logger
	maxBodyBytes int64
}

// Option customises a Handler.
type Option func(*Handler)

// WithRateLimiter enables per-sender limiting on the webhook.
func WithRateLimiter(l ratelimit.RateLimiter) Option {
	return func(h *Handler) { h.limiter = l }
}

// WithEventBus adds the event bus connection state to /readyz.
func WithEventBus(b BusStatus) Option {
	return func(h *Handler) { h.bus = b }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithMaxBodyBytes caps request bodies. Non-positive values keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodyBytes = n
		}
	}
}

func NewHandler(ingest Ingester, orders Orders, opts ...Option) *Handler {
	h := &Handler{
		ingest:       ingest,
		orders:       orders,
		limiter:      &ratelimit.NoOpRateLimiter{},
		logger:       logging.Default(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck handles GET /healthz
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /readyz. It fails while the record store is unreachable.
// A disconnected event bus is reported but does not fail the check.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	body := map[string]string{"status": "ready"}
	if h.bus != nil {
		body["events"] = "connected"
		if !h.bus.IsConnected() {
			body["events"] = "disconnected"
		}
	}

	if err := h.orders.Ping(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", logging.Error(err))
		body["status"] = "unavailable"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}
