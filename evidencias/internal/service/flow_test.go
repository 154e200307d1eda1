package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transvepo/evidencias-stack/common/logging"
	"github.com/transvepo/evidencias-stack/evidencias/internal/carrier"
	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/repository"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time { return c.t }

func newFlow(t *testing.T) (*IngestService, *OrderService, *stepClock) {
	t.Helper()
	clock := &stepClock{t: time.Date(2025, 11, 9, 10, 15, 0, 0, time.UTC)}
	repo := repository.NewMemoryRepository(clock.Now)
	resolver := carrier.NewResolver(map[string]string{"Juan": "TransJuan"})

	ingest := NewIngestService(repo, resolver, WithIngestLogger(logging.Discard()))
	orders := NewOrderService(repo, WithClock(clock.Now), WithOrderLogger(logging.Discard()))
	return ingest, orders, clock
}

func TestFlow_AcmeDelivery(t *testing.T) {
	ingest, orders, clock := newFlow(t)
	ctx := context.Background()

	outcome, err := ingest.Ingest(ctx, acmeMessage)
	require.NoError(t, err)
	require.Equal(t, Accepted, outcome.Result)

	ordenes, err := orders.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, ordenes, 1)

	o := ordenes[0]
	assert.Equal(t, "Acme", *o.Cliente)
	assert.Equal(t, "Monterrey", *o.Destino)
	assert.Equal(t, "123", *o.OCPedido)
	assert.Equal(t, "Juan", *o.Operador)
	assert.Equal(t, "ENTREGADO", *o.StatusEntrega)
	assert.Nil(t, o.Equipo)
	assert.Nil(t, o.HrEntrega)
	assert.Nil(t, o.Observaciones)
	assert.Equal(t, "TransJuan", o.Permisionario)
	assert.Equal(t, models.StatusPendiente, o.EvidenciaStatus)
	assert.Equal(t, 0, o.DiasDesdeCreacion)
	assert.False(t, o.RequiereAlerta)

	clock.t = clock.t.Add(4 * 24 * time.Hour)
	ordenes, err = orders.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 4, ordenes[0].DiasDesdeCreacion)
	assert.True(t, ordenes[0].RequiereAlerta)

	require.NoError(t, orders.UpdateStatus(ctx, o.ID, "ENTREGADO"))
	ordenes, err = orders.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusEntregado, ordenes[0].EvidenciaStatus)
	assert.False(t, ordenes[0].RequiereAlerta)
	assert.True(t, ordenes[0].UpdatedAt.After(ordenes[0].CreatedAt))
}

func TestFlow_FilterRoundTrip(t *testing.T) {
	ingest, orders, _ := newFlow(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ingest.Ingest(ctx, acmeMessage)
		require.NoError(t, err)
	}
	require.NoError(t, orders.UpdateStatus(ctx, 2, "RECOLECTADO"))

	for _, status := range models.Statuses() {
		ordenes, err := orders.ListOrders(ctx, string(status))
		require.NoError(t, err)
		for _, o := range ordenes {
			assert.Equal(t, status, o.EvidenciaStatus)
		}
	}

	recolectados, err := orders.ListOrders(ctx, "RECOLECTADO")
	require.NoError(t, err)
	require.Len(t, recolectados, 1)
	assert.Equal(t, int64(2), recolectados[0].ID)

	pendientes, err := orders.ListOrders(ctx, "PENDIENTE")
	require.NoError(t, err)
	assert.Len(t, pendientes, 2)
}

func TestFlow_InvalidStatusLeavesRecordUnchanged(t *testing.T) {
	ingest, orders, clock := newFlow(t)
	ctx := context.Background()

	outcome, err := ingest.Ingest(ctx, acmeMessage)
	require.NoError(t, err)
	id := outcome.Evidencia.ID

	before, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)

	clock.t = clock.t.Add(time.Hour)
	assert.ErrorIs(t, orders.UpdateStatus(ctx, id, "CANCELADO"), ErrInvalidStatus)

	after, err := orders.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.EvidenciaStatus, after.EvidenciaStatus)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestFlow_NotFound(t *testing.T) {
	_, orders, _ := newFlow(t)

	assert.ErrorIs(t, orders.UpdateStatus(context.Background(), 999, "ENTREGADO"), ErrNotFound)

	_, err := orders.GetOrder(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFlow_IgnoredMessageStoresNothing(t *testing.T) {
	ingest, orders, _ := newFlow(t)
	ctx := context.Background()

	outcome, err := ingest.Ingest(ctx, "CLIENTE: Acme\nSTATUS: EN RUTA")
	require.NoError(t, err)
	assert.Equal(t, Ignored, outcome.Result)

	ordenes, err := orders.ListOrders(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, ordenes)
}
