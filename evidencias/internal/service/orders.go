package service

import (
	"context"
	"errors"
	"time"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/alert"
	"github.com/transvepo/evidencias-stack/evidencias/internal/events"
	"github.com/transvepo/evidencias-stack/evidencias/internal/metrics"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/repository"
)

// OrderService serves the operator dashboard: listing with alert
// enrichment and lifecycle status changes.
type OrderService struct {
	repo   repository.Repository
	policy alert.Policy
	now    func() time.Time
	events events.Publisher
	logger *logging.Logger
}

// OrderOption customises an OrderService.
type OrderOption func(*OrderService)

// WithPolicy sets the alert policy. Default is alert.DefaultPolicy().
func WithPolicy(p alert.Policy) OrderOption {
	return func(s *OrderService) { s.policy = p }
}

// WithClock overrides time.Now for alert computation.
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

// WithOrderPublisher sets the lifecycle event publisher.
func WithOrderPublisher(p events.Publisher) OrderOption {
	return func(s *OrderService) { s.events = p }
}

// WithOrderLogger sets the logger.
func WithOrderLogger(l *logging.Logger) OrderOption {
	return func(s *OrderService) { s.logger = l }
}

// NewOrderService creates an order service over repo.
func NewOrderService(repo repository.Repository, opts ...OrderOption) *OrderService {
	s := &OrderService{
		repo:   repo,
		policy: alert.DefaultPolicy(),
		now:    time.Now,
		events: events.NoopPublisher{},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListOrders returns records in ascending ID order, each enriched with its
// age and alert flag computed against a single "now". An empty filter
// returns every record; any other value must be a lifecycle status.
func (s *OrderService) ListOrders(ctx context.Context, filter string) ([]models.Orden, error) {
	var status models.Status
	if filter != "" {
		parsed, ok := models.ParseStatus(filter)
		if !ok {
			return nil, ErrInvalidStatus
		}
		status = parsed
	}

	evidencias, err := s.repo.ListEvidencias(ctx, status)
	if err != nil {
		return nil, storeError("list evidencias", err)
	}

	now := s.now()
	ordenes := make([]models.Orden, 0, len(evidencias))
	alerts := 0
	for _, e := range evidencias {
		orden := s.policy.Enrich(e, now)
		if orden.RequiereAlerta {
			alerts++
		}
		ordenes = append(ordenes, orden)
	}

	if status == "" || status == models.StatusPendiente {
		metrics.PendingAlerts.Set(float64(alerts))
	}

	return ordenes, nil
}

// GetOrder returns one enriched record.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Orden, error) {
	e, err := s.repo.GetEvidenciaByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEvidenciaNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("get evidencia", err)
	}

	orden := s.policy.Enrich(e, s.now())
	return &orden, nil
}

// UpdateStatus moves a record to newStatus. Any status may follow any other,
// including itself. The status is validated before the store is touched.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, newStatus string) error {
	status, ok := models.ParseStatus(newStatus)
	if !ok {
		metrics.StatusUpdatesTotal.WithLabelValues(metrics.ResultInvalidStatus).Inc()
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrEvidenciaNotFound) {
			metrics.StatusUpdatesTotal.WithLabelValues(metrics.ResultNotFound).Inc()
			return ErrNotFound
		}
		metrics.StatusUpdatesTotal.WithLabelValues(metrics.ResultError).Inc()
		return storeError("update evidencia status", err)
	}

	metrics.StatusUpdatesTotal.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.InfoContext(ctx, "evidencia status updated",
		logging.EvidenciaID(id),
		logging.EvidenciaStatus(string(status)))

	s.events.StatusUpdated(ctx, id, status)

	return nil
}

// Ping reports whether the record store is reachable.
func (s *OrderService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
