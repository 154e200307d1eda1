package repository

import (
	"context"
	"errors"
	"time"

	"github.com/transvepo/evidencias-stack/evidencias/internal/metrics"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// InstrumentedRepository records latency and failures of every store call.
type InstrumentedRepository struct {
	next Repository
}

// NewInstrumentedRepository wraps next with Prometheus instrumentation.
func NewInstrumentedRepository(next Repository) *InstrumentedRepository {
	return &InstrumentedRepository{next: next}
}

func (r *InstrumentedRepository) CreateEvidencia(ctx context.Context, e *models.Evidencia) error {
	defer observe("create", time.Now())
	return record("create", r.next.CreateEvidencia(ctx, e))
}

func (r *InstrumentedRepository) GetEvidenciaByID(ctx context.Context, id int64) (*models.Evidencia, error) {
	defer observe("get", time.Now())
	e, err := r.next.GetEvidenciaByID(ctx, id)
	return e, record("get", err)
}

func (r *InstrumentedRepository) ListEvidencias(ctx context.Context, status models.Status) ([]*models.Evidencia, error) {
	defer observe("list", time.Now())
	evidencias, err := r.next.ListEvidencias(ctx, status)
	return evidencias, record("list", err)
}

func (r *InstrumentedRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	defer observe("update_status", time.Now())
	return record("update_status", r.next.UpdateStatus(ctx, id, status))
}

func (r *InstrumentedRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

func (r *InstrumentedRepository) Close() error {
	return r.next.Close()
}

func observe(operation string, start time.Time) {
	metrics.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// record counts real failures. A missing row is an answer, not a failure.
func record(operation string, err error) error {
	if err != nil && !errors.Is(err, ErrEvidenciaNotFound) {
		metrics.StoreErrors.WithLabelValues(operation).Inc()
	}
	return err
}
