// Package events publishes evidencia lifecycle events to the message bus.
// Publishing is best effort: failures are logged and counted, never returned
// to the caller, so the record store stays the only source of truth.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/common/messaging"
	"github.com/transvepo/evidencias-stack/common/middleware"
	"github.com/transvepo/evidencias-stack/evidencias/internal/metrics"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// Event types carried in the X-Event-Type header and the payload.
const (
	TypeCreated       = "created"
	TypeStatusUpdated = "status_updated"
)

// Event is the JSON payload of every lifecycle message.
type Event struct {
	Type            string            `json:"type"`
	EvidenciaID     int64             `json:"id"`
	EvidenciaStatus models.Status     `json:"evidencia_status"`
	Evidencia       *models.Evidencia `json:"evidencia,omitempty"`
	OccurredAt      time.Time         `json:"occurred_at"`
}

// Publisher announces lifecycle changes.
type Publisher interface {
	EvidenciaCreated(ctx context.Context, e *models.Evidencia)
	StatusUpdated(ctx context.Context, id int64, status models.Status)
}

// BusPublisher publishes events through a messaging.Publisher.
type BusPublisher struct {
	bus    messaging.Publisher
	logger *logging.Logger
	now    func() time.Time
}

// NewBusPublisher creates a publisher on bus.
func NewBusPublisher(bus messaging.Publisher, logger *logging.Logger) *BusPublisher {
	return &BusPublisher{bus: bus, logger: logger, now: time.Now}
}

func (p *BusPublisher) EvidenciaCreated(ctx context.Context, e *models.Evidencia) {
	p.publish(ctx, messaging.SubjectEvidenciasCreated, Event{
		Type:            TypeCreated,
		EvidenciaID:     e.ID,
		EvidenciaStatus: e.EvidenciaStatus,
		Evidencia:       e,
		OccurredAt:      e.CreatedAt,
	})
}

func (p *BusPublisher) StatusUpdated(ctx context.Context, id int64, status models.Status) {
	p.publish(ctx, messaging.SubjectEvidenciasStatusUpdated, Event{
		Type:            TypeStatusUpdated,
		EvidenciaID:     id,
		EvidenciaStatus: status,
		OccurredAt:      p.now().UTC(),
	})
}

func (p *BusPublisher) publish(ctx context.Context, subject string, ev Event) {
	opts := []messaging.PublishOption{messaging.WithHeader(messaging.HeaderEventType, ev.Type)}
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		opts = append(opts, messaging.WithHeader(messaging.HeaderRequestID, reqID))
	}

	if err := p.bus.PublishJSON(ctx, subject, ev, opts...); err != nil {
		p.fail(ctx, subject, ev, err)
		return
	}

	metrics.EventsPublished.WithLabelValues(subject, metrics.ResultOK).Inc()
}

func (p *BusPublisher) fail(ctx context.Context, subject string, ev Event, err error) {
	metrics.EventsPublished.WithLabelValues(subject, metrics.ResultError).Inc()
	p.logger.WarnContext(ctx, "failed to publish lifecycle event",
		logging.Subject(subject),
		logging.EvidenciaID(ev.EvidenciaID),
		logging.Error(err))
}

// Decode parses a lifecycle message payload.
func Decode(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// NoopPublisher discards events. Used when the bus is disabled.
type NoopPublisher struct{}

func (NoopPublisher) EvidenciaCreated(context.Context, *models.Evidencia) {}

func (NoopPublisher) StatusUpdated(context.Context, int64, models.Status) {}
