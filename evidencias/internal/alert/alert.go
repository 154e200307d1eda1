// Package alert flags evidencias that have stayed PENDIENTE for too long.
package alert

import (
	"time"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// DefaultPendingDays is the age in full days at which a PENDIENTE record
// needs operator attention.
const DefaultPendingDays = 3

const day = 24 * time.Hour

// Result holds the computed, never persisted alert fields.
type Result struct {
	AgeDays       int
	RequiresAlert bool
}

// Policy computes alerts with a configurable threshold.
type Policy struct {
	PendingDays int
}

// DefaultPolicy returns the policy used by the dashboard.
func DefaultPolicy() Policy {
	return Policy{PendingDays: DefaultPendingDays}
}

// Compute evaluates e against now with the default policy.
func Compute(e *models.Evidencia, now time.Time) Result {
	return DefaultPolicy().Compute(e, now)
}

// Compute returns the age of e in whole elapsed 24h periods and whether it is
// PENDIENTE at or past the threshold. Ages are never negative.
func (p Policy) Compute(e *models.Evidencia, now time.Time) Result {
	age := AgeDays(e.CreatedAt, now)
	return Result{
		AgeDays:       age,
		RequiresAlert: e.EvidenciaStatus == models.StatusPendiente && age >= p.PendingDays,
	}
}

// Enrich wraps e with the computed alert fields.
func (p Policy) Enrich(e *models.Evidencia, now time.Time) models.Orden {
	r := p.Compute(e, now)
	return models.Orden{
		Evidencia:         *e,
		DiasDesdeCreacion: r.AgeDays,
		RequiereAlerta:    r.RequiresAlert,
	}
}

// AgeDays counts full days elapsed between createdAt and now.
func AgeDays(createdAt, now time.Time) int {
	elapsed := now.Sub(createdAt)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / day)
}
