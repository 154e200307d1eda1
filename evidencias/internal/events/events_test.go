package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/common/messaging"
	"github.com/transvepo/evidencias-stack/common/middleware"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

type published struct {
	subject string
	data    []byte
	headers map[string]string
}

// mockBus is a mock implementation of messaging.Publisher
type mockBus struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (m *mockBus) Publish(ctx context.Context, subject string, data []byte, opts ...messaging.PublishOption) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{
		subject: subject,
		data:    data,
		headers: messaging.ApplyPublishOptions(opts...).Headers,
	})
	return nil
}

func (m *mockBus) PublishJSON(ctx context.Context, subject string, v interface{}, opts ...messaging.PublishOption) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.Publish(ctx, subject, data, opts...)
}

func (m *mockBus) Close() error { return nil }

func TestBusPublisher_EvidenciaCreated(t *testing.T) {
	bus := &mockBus{}
	p := NewBusPublisher(bus, logging.Discard())

	cliente := "Acme"
	created := time.Date(2025, 11, 9, 12, 0, 0, 0, time.UTC)
	e := &models.Evidencia{
		ID:              7,
		Fields:          models.Fields{Cliente: &cliente},
		Permisionario:   "TransJuan",
		EvidenciaStatus: models.StatusPendiente,
		CreatedAt:       created,
		UpdatedAt:       created,
	}

	ctx := middleware.WithRequestID(context.Background(), "req-9")
	p.EvidenciaCreated(ctx, e)

	require.Len(t, bus.messages, 1)
	msg := bus.messages[0]
	assert.Equal(t, messaging.SubjectEvidenciasCreated, msg.subject)
	assert.Equal(t, TypeCreated, msg.headers[messaging.HeaderEventType])
	assert.Equal(t, "req-9", msg.headers[messaging.HeaderRequestID])

	ev, err := Decode(msg.data)
	require.NoError(t, err)
	assert.Equal(t, TypeCreated, ev.Type)
	assert.Equal(t, int64(7), ev.EvidenciaID)
	assert.Equal(t, models.StatusPendiente, ev.EvidenciaStatus)
	assert.True(t, created.Equal(ev.OccurredAt))
	require.NotNil(t, ev.Evidencia)
	assert.Equal(t, "Acme", *ev.Evidencia.Cliente)
	assert.Equal(t, "TransJuan", ev.Evidencia.Permisionario)
}

func TestBusPublisher_StatusUpdated(t *testing.T) {
	bus := &mockBus{}
	p := NewBusPublisher(bus, logging.Discard())
	now := time.Date(2025, 11, 12, 8, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	p.StatusUpdated(context.Background(), 3, models.StatusEntregado)

	require.Len(t, bus.messages, 1)
	msg := bus.messages[0]
	assert.Equal(t, messaging.SubjectEvidenciasStatusUpdated, msg.subject)
	_, hasReqID := msg.headers[messaging.HeaderRequestID]
	assert.False(t, hasReqID)

	ev, err := Decode(msg.data)
	require.NoError(t, err)
	assert.Equal(t, TypeStatusUpdated, ev.Type)
	assert.Equal(t, int64(3), ev.EvidenciaID)
	assert.Equal(t, models.StatusEntregado, ev.EvidenciaStatus)
	assert.Nil(t, ev.Evidencia)
	assert.True(t, now.Equal(ev.OccurredAt))
}

func TestBusPublisher_FailureIsLoggedNotReturned(t *testing.T) {
	var buf bytes.Buffer
	bus := &mockBus{err: errors.New("nats: connection closed")}
	p := NewBusPublisher(bus, logging.NewWithWriter(&buf, slog.LevelInfo, "json"))

	assert.NotPanics(t, func() {
		p.StatusUpdated(context.Background(), 1, models.StatusRecolectado)
	})
	assert.Contains(t, buf.String(), "failed to publish lifecycle event")
	assert.Contains(t, buf.String(), "connection closed")
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NotPanics(t, func() {
		p.EvidenciaCreated(context.Background(), &models.Evidencia{})
		p.StatusUpdated(context.Background(), 1, models.StatusEntregado)
	})
}
