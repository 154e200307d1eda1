package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/carrier"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

const acmeMessage = "[09/11/2025 10:15] Pedro: CLIENTE: Acme\n" +
	"DESTINO: Monterrey\n" +
	"OC_PEDIDO: 123\n" +
	"OPERADOR: Juan\n" +
	"STATUS: ENTREGADO"

func newTestIngest(repo *mockRepository, opts ...IngestOption) *IngestService {
	resolver := carrier.NewResolver(map[string]string{"Juan": "TransJuan"})
	opts = append([]IngestOption{WithIngestLogger(logging.Discard())}, opts...)
	return NewIngestService(repo, resolver, opts...)
}

func TestMarkerGate(t *testing.T) {
	tests := []struct {
		name     string
		markers  []string
		raw      string
		expected bool
	}{
		{name: "default marker present", raw: "OPERADOR: Juan\nSTATUS: ENTREGADO", expected: true},
		{name: "default marker mid line", raw: "nota STATUS: ENTREGADO hoy", expected: true},
		{name: "lowercase does not match", raw: "status: entregado", expected: false},
		{name: "extra space does not match", raw: "STATUS:  ENTREGADO", expected: false},
		{name: "other status", raw: "STATUS: EN RUTA", expected: false},
		{name: "empty message", raw: "", expected: false},
		{name: "empty markers fall back to default", markers: []string{""}, raw: "STATUS: ENTREGADO", expected: true},
		{name: "custom marker", markers: []string{"STATUS: RECOLECTADO"}, raw: "STATUS: RECOLECTADO", expected: true},
		{name: "custom marker replaces default", markers: []string{"STATUS: RECOLECTADO"}, raw: "STATUS: ENTREGADO", expected: false},
		{name: "any of several markers", markers: []string{"A", "STATUS: ENTREGADO"}, raw: "STATUS: ENTREGADO", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := NewMarkerGate(tt.markers...)
			assert.Equal(t, tt.expected, gate.Accepts(tt.raw))
		})
	}
}

func TestMarkerGate_MarkersIsCopy(t *testing.T) {
	gate := NewMarkerGate("X")
	markers := gate.Markers()
	markers[0] = "Y"
	assert.Equal(t, []string{"X"}, gate.Markers())
}

func TestIngest(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		setupMock      func(*mockRepository)
		expectedResult Result
		expectError    bool
		expectStore    bool
	}{
		{
			name: "actionable message is stored as PENDIENTE",
			raw:  acmeMessage,
			setupMock: func(m *mockRepository) {
				m.createEvidenciaFunc = func(ctx context.Context, e *models.Evidencia) error {
					assert.Equal(t, "Acme", *e.Cliente)
					assert.Equal(t, "Monterrey", *e.Destino)
					assert.Equal(t, "123", *e.OCPedido)
					assert.Equal(t, "Juan", *e.Operador)
					assert.Equal(t, "ENTREGADO", *e.StatusEntrega)
					assert.Nil(t, e.Equipo)
					assert.Nil(t, e.HrEntrega)
					assert.Nil(t, e.Observaciones)
					assert.Equal(t, "TransJuan", e.Permisionario)
					assert.Equal(t, models.StatusPendiente, e.EvidenciaStatus)
					e.ID = 1
					return nil
				}
			},
			expectedResult: Accepted,
			expectStore:    true,
		},
		{
			name:           "message without marker is ignored",
			raw:            "CLIENTE: Acme\nSTATUS: EN RUTA",
			expectedResult: Ignored,
		},
		{
			name:           "case variant of marker is ignored",
			raw:            "CLIENTE: Acme\nstatus: entregado",
			expectedResult: Ignored,
		},
		{
			name: "unknown operator resolves to UNKNOWN",
			raw:  "OPERADOR: Zed\nSTATUS: ENTREGADO",
			setupMock: func(m *mockRepository) {
				m.createEvidenciaFunc = func(ctx context.Context, e *models.Evidencia) error {
					assert.Equal(t, carrier.Unknown, e.Permisionario)
					return nil
				}
			},
			expectedResult: Accepted,
			expectStore:    true,
		},
		{
			name: "absent operator resolves to UNKNOWN",
			raw:  "CLIENTE: Acme\nSTATUS: ENTREGADO",
			setupMock: func(m *mockRepository) {
				m.createEvidenciaFunc = func(ctx context.Context, e *models.Evidencia) error {
					assert.Nil(t, e.Operador)
					assert.Equal(t, carrier.Unknown, e.Permisionario)
					return nil
				}
			},
			expectedResult: Accepted,
			expectStore:    true,
		},
		{
			name: "store failure is reported, not panicked",
			raw:  acmeMessage,
			setupMock: func(m *mockRepository) {
				m.createEvidenciaFunc = func(ctx context.Context, e *models.Evidencia) error {
					return errors.New("connection refused")
				}
			},
			expectedResult: Failed,
			expectError:    true,
			expectStore:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{}
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}
			svc := newTestIngest(repo)

			outcome, err := svc.Ingest(context.Background(), tt.raw)

			assert.Equal(t, tt.expectedResult, outcome.Result)
			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrStore)
				assert.Contains(t, err.Error(), "connection refused")
				assert.Nil(t, outcome.Evidencia)
			} else {
				require.NoError(t, err)
			}
			if tt.expectedResult == Accepted {
				assert.NotNil(t, outcome.Evidencia)
			}

			if tt.expectStore {
				assert.Equal(t, 1, repo.callCount())
			} else {
				assert.Equal(t, 0, repo.callCount(), "store must not be touched")
			}
		})
	}
}

func TestIngest_HeaderIsStripped(t *testing.T) {
	var stored *models.Evidencia
	repo := &mockRepository{
		createEvidenciaFunc: func(ctx context.Context, e *models.Evidencia) error {
			stored = e
			return nil
		},
	}
	svc := newTestIngest(repo)

	_, err := svc.Ingest(context.Background(), "[09/11/2025 10:15] Pedro: CLIENTE: Acme\nSTATUS: ENTREGADO")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Acme", *stored.Cliente)
}

func TestIngest_EveryAcceptanceCreatesNewRecord(t *testing.T) {
	var nextID int64
	repo := &mockRepository{
		createEvidenciaFunc: func(ctx context.Context, e *models.Evidencia) error {
			nextID++
			e.ID = nextID
			return nil
		},
	}
	svc := newTestIngest(repo)

	first, err := svc.Ingest(context.Background(), acmeMessage)
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background(), acmeMessage)
	require.NoError(t, err)

	assert.NotEqual(t, first.Evidencia.ID, second.Evidencia.ID)
	assert.Equal(t, 2, repo.callCount())
}

func TestIngest_PublishesOnlyAcceptedRecords(t *testing.T) {
	pub := &recordingPublisher{}
	fail := false
	repo := &mockRepository{
		createEvidenciaFunc: func(ctx context.Context, e *models.Evidencia) error {
			if fail {
				return errors.New("disk full")
			}
			e.ID = 11
			return nil
		},
	}
	svc := newTestIngest(repo, WithIngestPublisher(pub))

	_, _ = svc.Ingest(context.Background(), acmeMessage)
	_, _ = svc.Ingest(context.Background(), "hola")
	fail = true
	_, _ = svc.Ingest(context.Background(), acmeMessage)

	assert.Equal(t, []int64{11}, pub.created)
}

func TestIngest_CustomGate(t *testing.T) {
	repo := &mockRepository{}
	svc := newTestIngest(repo, WithGate(NewMarkerGate("STATUS: RECOLECTADO")))

	outcome, err := svc.Ingest(context.Background(), "STATUS: RECOLECTADO")
	require.NoError(t, err)
	assert.Equal(t, Accepted, outcome.Result)

	outcome, err = svc.Ingest(context.Background(), acmeMessage)
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome.Result)
}
