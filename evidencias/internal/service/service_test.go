package service

import (
	"context"
	"sync"
	"time"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
	"github.com/transvepo/evidencias-stack/evidencias/internal/repository"
)

// mockRepository is a mock implementation of repository.Repository
type mockRepository struct {
	createEvidenciaFunc  func(ctx context.Context, e *models.Evidencia) error
	getEvidenciaByIDFunc func(ctx context.Context, id int64) (*models.Evidencia, error)
	listEvidenciasFunc   func(ctx context.Context, status models.Status) ([]*models.Evidencia, error)
	updateStatusFunc     func(ctx context.Context, id int64, status models.Status) error
	pingFunc             func(ctx context.Context) error

	mu    sync.Mutex
	calls int
}

func (m *mockRepository) called() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *mockRepository) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockRepository) CreateEvidencia(ctx context.Context, e *models.Evidencia) error {
	m.called()
	if m.createEvidenciaFunc != nil {
		return m.createEvidenciaFunc(ctx, e)
	}
	return nil
}

func (m *mockRepository) GetEvidenciaByID(ctx context.Context, id int64) (*models.Evidencia, error) {
	m.called()
	if m.getEvidenciaByIDFunc != nil {
		return m.getEvidenciaByIDFunc(ctx, id)
	}
	return nil, repository.ErrEvidenciaNotFound
}

func (m *mockRepository) ListEvidencias(ctx context.Context, status models.Status) ([]*models.Evidencia, error) {
	m.called()
	if m.listEvidenciasFunc != nil {
		return m.listEvidenciasFunc(ctx, status)
	}
	return []*models.Evidencia{}, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	m.called()
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockRepository) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func (m *mockRepository) Close() error {
	return nil
}

// recordingPublisher is a mock implementation of events.Publisher
type recordingPublisher struct {
	mu      sync.Mutex
	created []int64
	updated []models.Status
}

func (p *recordingPublisher) EvidenciaCreated(ctx context.Context, e *models.Evidencia) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e.ID)
}

func (p *recordingPublisher) StatusUpdated(ctx context.Context, id int64, status models.Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, status)
}

func stringPtr(s string) *string {
	return &s
}

var testNow = time.Date(2025, 11, 12, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testNow
}
