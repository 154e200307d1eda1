package repository

import (
	"context"
	"errors"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

var (
	ErrEvidenciaNotFound = errors.New("evidencia not found")
)

// Repository defines the interface for evidencia persistence
type Repository interface {
	// CreateEvidencia inserts e and fills in ID, CreatedAt and UpdatedAt.
	CreateEvidencia(ctx context.Context, e *models.Evidencia) error
	GetEvidenciaByID(ctx context.Context, id int64) (*models.Evidencia, error)
	// ListEvidencias returns records ordered by ID. An empty status returns all.
	ListEvidencias(ctx context.Context, status models.Status) ([]*models.Evidencia, error)
	// UpdateStatus sets the lifecycle status and refreshes UpdatedAt in one
	// atomic write. Returns ErrEvidenciaNotFound when no row matches.
	UpdateStatus(ctx context.Context, id int64, status models.Status) error

	// Utility
	Ping(ctx context.Context) error
	Close() error
}
