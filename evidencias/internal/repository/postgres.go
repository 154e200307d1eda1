package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/transvepo/evidencias-stack/evidencias/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PoolOptions tunes the pgx connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

const evidenciaColumns = `
	id, cliente, destino, oc_pedido, equipo, operador,
	permisionario, status_entrega, hr_entrega, observaciones,
	evidencia_status, created_at, updated_at`

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string, opts PoolOptions) (*PostgresRepository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}
	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}
	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// CreateEvidencia inserts a new evidencia. Timestamps come from the database.
func (r *PostgresRepository) CreateEvidencia(ctx context.Context, e *models.Evidencia) error {
	query := `
		INSERT INTO evidencias (
			cliente, destino, oc_pedido, equipo, operador,
			permisionario, status_entrega, hr_entrega, observaciones,
			evidencia_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		e.Cliente, e.Destino, e.OCPedido, e.Equipo, e.Operador,
		e.Permisionario, e.StatusEntrega, e.HrEntrega, e.Observaciones,
		string(e.EvidenciaStatus),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evidencia: %w", err)
	}

	return nil
}

// GetEvidenciaByID retrieves an evidencia by ID
func (r *PostgresRepository) GetEvidenciaByID(ctx context.Context, id int64) (*models.Evidencia, error) {
	query := `SELECT ` + evidenciaColumns + ` FROM evidencias WHERE id = $1`

	e, err := scanEvidencia(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEvidenciaNotFound
		}
		return nil, fmt.Errorf("failed to get evidencia: %w", err)
	}

	return e, nil
}

// ListEvidencias retrieves evidencias, optionally restricted to one status
func (r *PostgresRepository) ListEvidencias(ctx context.Context, status models.Status) ([]*models.Evidencia, error) {
	query := `SELECT ` + evidenciaColumns + ` FROM evidencias`
	args := []interface{}{}

	if status != "" {
		query += ` WHERE evidencia_status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidencias: %w", err)
	}
	defer rows.Close()

	evidencias := []*models.Evidencia{}
	for rows.Next() {
		e, err := scanEvidencia(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidencia: %w", err)
		}
		evidencias = append(evidencias, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return evidencias, nil
}

// UpdateStatus changes the lifecycle status of an evidencia
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int64, status models.Status) error {
	query := `
		UPDATE evidencias
		SET evidencia_status = $1, updated_at = GREATEST(now(), created_at)
		WHERE id = $2
	`

	result, err := r.pool.Exec(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update evidencia status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrEvidenciaNotFound
	}

	return nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanEvidencia(row pgx.Row) (*models.Evidencia, error) {
	e := &models.Evidencia{}
	var status string
	err := row.Scan(
		&e.ID, &e.Cliente, &e.Destino, &e.OCPedido, &e.Equipo, &e.Operador,
		&e.Permisionario, &e.StatusEntrega, &e.HrEntrega, &e.Observaciones,
		&status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.EvidenciaStatus = models.Status(status)
	return e, nil
}
