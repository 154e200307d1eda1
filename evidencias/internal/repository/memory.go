package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// MemoryRepository implements Repository in process memory. Used for local
// runs without PostgreSQL and in tests. Contents are lost on restart.
type MemoryRepository struct {
	mu         sync.Mutex
	now        func() time.Time
	nextID     int64
	evidencias map[int64]models.Evidencia
}

// NewMemoryRepository creates an empty in-memory repository. A nil clock
// defaults to time.Now.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{
		now:        now,
		evidencias: make(map[int64]models.Evidencia),
	}
}

func (r *MemoryRepository) CreateEvidencia(ctx context.Context, e *models.Evidencia) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	ts := r.now()
	e.ID = r.nextID
	e.CreatedAt = ts
	e.UpdatedAt = ts
	r.evidencias[e.ID] = cloneEvidencia(*e)

	return nil
}

func (r *MemoryRepository) GetEvidenciaByID(ctx context.Context, id int64) (*models.Evidencia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.evidencias[id]
	if !ok {
		return nil, ErrEvidenciaNotFound
	}
	out := cloneEvidencia(e)
	return &out, nil
}

func (r *MemoryRepository) ListEvidencias(ctx context.Context, status models.Status) ([]*models.Evidencia, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	evidencias := []*models.Evidencia{}
	for _, e := range r.evidencias {
		if status != "" && e.EvidenciaStatus != status {
			continue
		}
		out := cloneEvidencia(e)
		evidencias = append(evidencias, &out)
	}
	sort.Slice(evidencias, func(i, j int) bool {
		return evidencias[i].ID < evidencias[j].ID
	})

	return evidencias, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.evidencias[id]
	if !ok {
		return ErrEvidenciaNotFound
	}
	e.EvidenciaStatus = status
	if ts := r.now(); ts.After(e.CreatedAt) {
		e.UpdatedAt = ts
	} else {
		e.UpdatedAt = e.CreatedAt
	}
	r.evidencias[id] = e

	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryRepository) Close() error {
	return nil
}

// cloneEvidencia copies the optional string fields so callers cannot mutate
// stored state through shared pointers.
func cloneEvidencia(e models.Evidencia) models.Evidencia {
	for _, p := range []**string{
		&e.Cliente, &e.Destino, &e.OCPedido, &e.Equipo,
		&e.Operador, &e.StatusEntrega, &e.HrEntrega, &e.Observaciones,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return e
}
