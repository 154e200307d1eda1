package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

var now = time.Date(2025, 11, 12, 10, 30, 0, 0, time.UTC)

func evidencia(status models.Status, age time.Duration) *models.Evidencia {
	return &models.Evidencia{
		ID:              1,
		Permisionario:   "UNKNOWN",
		EvidenciaStatus: status,
		CreatedAt:       now.Add(-age),
		UpdatedAt:       now.Add(-age),
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name          string
		status        models.Status
		age           time.Duration
		expectedDays  int
		expectedAlert bool
	}{
		{
			name:         "created just now",
			status:       models.StatusPendiente,
			age:          0,
			expectedDays: 0,
		},
		{
			name:         "same calendar day later hours",
			status:       models.StatusPendiente,
			age:          23*time.Hour + 59*time.Minute,
			expectedDays: 0,
		},
		{
			name:         "crossing midnight is not a day",
			status:       models.StatusPendiente,
			age:          11 * time.Hour,
			expectedDays: 0,
		},
		{
			name:         "one full day",
			status:       models.StatusPendiente,
			age:          24 * time.Hour,
			expectedDays: 1,
		},
		{
			name:         "pending just under three days",
			status:       models.StatusPendiente,
			age:          3*24*time.Hour - time.Millisecond,
			expectedDays: 2,
		},
		{
			name:          "pending exactly three days",
			status:        models.StatusPendiente,
			age:           3 * 24 * time.Hour,
			expectedDays:  3,
			expectedAlert: true,
		},
		{
			name:          "pending ten days",
			status:        models.StatusPendiente,
			age:           10*24*time.Hour + 5*time.Hour,
			expectedDays:  10,
			expectedAlert: true,
		},
		{
			name:         "recolectado never alerts",
			status:       models.StatusRecolectado,
			age:          30 * 24 * time.Hour,
			expectedDays: 30,
		},
		{
			name:         "entregado never alerts",
			status:       models.StatusEntregado,
			age:          3 * 24 * time.Hour,
			expectedDays: 3,
		},
		{
			name:         "created in the future clamps to zero",
			status:       models.StatusPendiente,
			age:          -2 * time.Hour,
			expectedDays: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(evidencia(tt.status, tt.age), now)
			assert.Equal(t, tt.expectedDays, got.AgeDays)
			assert.Equal(t, tt.expectedAlert, got.RequiresAlert)
		})
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	e := evidencia(models.StatusPendiente, 4*24*time.Hour)
	assert.Equal(t, Compute(e, now), Compute(e, now))
}

func TestPolicy_CustomThreshold(t *testing.T) {
	p := Policy{PendingDays: 1}

	assert.False(t, p.Compute(evidencia(models.StatusPendiente, 23*time.Hour), now).RequiresAlert)
	assert.True(t, p.Compute(evidencia(models.StatusPendiente, 24*time.Hour), now).RequiresAlert)
}

func TestPolicy_Enrich(t *testing.T) {
	cliente := "Acme"
	e := evidencia(models.StatusPendiente, 5*24*time.Hour)
	e.Cliente = &cliente

	orden := DefaultPolicy().Enrich(e, now)

	assert.Equal(t, *e, orden.Evidencia)
	assert.Equal(t, 5, orden.DiasDesdeCreacion)
	assert.True(t, orden.RequiereAlerta)
}

func TestAgeDays_IgnoresTimezone(t *testing.T) {
	created := time.Date(2025, 11, 10, 23, 0, 0, 0, time.FixedZone("CST", -6*3600))
	later := created.Add(48 * time.Hour).UTC()

	assert.Equal(t, 2, AgeDays(created, later))
}
