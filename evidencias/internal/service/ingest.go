package service

import (
	"context"
	"strings"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/carrier"
	"github.com/transvepo/evidencias-stack/evidencias/internal/events"
	"github.com/transvepo/evidencias-stack/evidencias/internal/metrics"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/parser"
	"github.com/transvepo/evidencias-stack/evidencias/internal/repository"
)

// DefaultMarker is the text a message must contain to be recorded.
const DefaultMarker = "STATUS: ENTREGADO"

// Result classifies what happened to one inbound message.
type Result string

const (
	Accepted Result = "accepted"
	Ignored  Result = "ignored"
	Failed   Result = "failed"
)

// Outcome of one ingestion. Evidencia is set only when Result is Accepted.
type Outcome struct {
	Result    Result
	Evidencia *models.Evidencia
}

// Gate decides whether a raw message is actionable.
type Gate interface {
	Accepts(raw string) bool
}

// MarkerGate accepts messages containing any of its markers. Matching is an
// exact substring test: case and spacing matter.
type MarkerGate struct {
	markers []string
}

// NewMarkerGate builds a gate from markers, ignoring empty ones. With no
// usable markers it falls back to DefaultMarker.
func NewMarkerGate(markers ...string) MarkerGate {
	var kept []string
	for _, m := range markers {
		if m != "" {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		kept = []string{DefaultMarker}
	}
	return MarkerGate{markers: kept}
}

func (g MarkerGate) Accepts(raw string) bool {
	for _, m := range g.markers {
		if strings.Contains(raw, m) {
			return true
		}
	}
	return false
}

// Markers returns a copy of the configured markers.
func (g MarkerGate) Markers() []string {
	return append([]string(nil), g.markers...)
}

// IngestService turns inbound message text into stored evidencias.
type IngestService struct {
	repo     repository.Repository
	carriers *carrier.Resolver
	gate     Gate
	events   events.Publisher
	logger   *logging.Logger
}

// IngestOption customises an IngestService.
type IngestOption func(*IngestService)

// WithGate replaces the default STATUS: ENTREGADO gate.
func WithGate(g Gate) IngestOption {
	return func(s *IngestService) { s.gate = g }
}

// WithIngestPublisher sets the lifecycle event publisher.
func WithIngestPublisher(p events.Publisher) IngestOption {
	return func(s *IngestService) { s.events = p }
}

// WithIngestLogger sets the logger.
func WithIngestLogger(l *logging.Logger) IngestOption {
	return func(s *IngestService) { s.logger = l }
}

// NewIngestService creates an ingestion pipeline over repo and carriers.
func NewIngestService(repo repository.Repository, carriers *carrier.Resolver, opts ...IngestOption) *IngestService {
	s := &IngestService{
		repo:     repo,
		carriers: carriers,
		gate:     NewMarkerGate(),
		events:   events.NoopPublisher{},
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest records raw when it passes the gate. Non-actionable messages yield
// Ignored with a nil error. A store failure yields Failed and an error
// wrapping ErrStore; nothing is retried.
func (s *IngestService) Ingest(ctx context.Context, raw string) (Outcome, error) {
	metrics.MessageBytesTotal.Add(float64(len(raw)))

	if !s.gate.Accepts(raw) {
		metrics.IngestionsTotal.WithLabelValues(metrics.OutcomeIgnored).Inc()
		s.logger.DebugContext(ctx, "message ignored", logging.Outcome(string(Ignored)))
		return Outcome{Result: Ignored}, nil
	}

	fields := parser.Parse(raw)

	operador := ""
	if fields.Operador != nil {
		operador = *fields.Operador
	}
	permisionario := s.carriers.Resolve(operador)
	if permisionario == carrier.Unknown {
		metrics.CarrierUnknownTotal.Inc()
	}

	e := &models.Evidencia{
		Fields:          fields,
		Permisionario:   permisionario,
		EvidenciaStatus: models.StatusPendiente,
	}

	if err := s.repo.CreateEvidencia(ctx, e); err != nil {
		metrics.IngestionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		s.logger.ErrorContext(ctx, "failed to store evidencia",
			logging.Outcome(string(Failed)),
			logging.Operador(operador),
			logging.Error(err))
		return Outcome{Result: Failed}, storeError("create evidencia", err)
	}

	metrics.IngestionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()
	s.logger.InfoContext(ctx, "evidencia recorded",
		logging.Outcome(string(Accepted)),
		logging.EvidenciaID(e.ID),
		logging.Operador(operador),
		logging.Carrier(permisionario))

	s.events.EvidenciaCreated(ctx, e)

	return Outcome{Result: Accepted, Evidencia: e}, nil
}
