package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lunes-platform/lunex-cli/internal/domain"
	"github.com/lunes-platform/lunex-cli/internal/domain/models"
	"github.com/lunes-platform/lunex-cli/internal/usecase"
)

const schema = `
	CREATE TABLE IF NOT EXISTS deployment_records (
		network    TEXT PRIMARY KEY,
		chain_id   BIGINT NOT NULL,
		record     JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// PostgresRepository stores deployment records in PostgreSQL so several
// operators can share one record per network
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresRepository creates a new PostgreSQL record store
func NewPostgresRepository(ctx context.Context, databaseURL string, log *slog.Logger) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.ConnectionError{Endpoint: "postgres", Err: err}
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresRepository{
		pool: pool,
		log:  log.With("component", "PostgresRepository"),
	}, nil
}

// Close releases the connection pool
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// Load returns the record of a network, or an empty record
func (r *PostgresRepository) Load(ctx context.Context, network string) (*models.DeploymentRecord, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT record FROM deployment_records WHERE network = $1`, network).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewDeploymentRecord(network, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}

	var record models.DeploymentRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	record.Normalize()
	return &record, nil
}

// Save upserts the record of a network
func (r *PostgresRepository) Save(ctx context.Context, record *models.DeploymentRecord) error {
	record.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO deployment_records (network, chain_id, record, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (network) DO UPDATE SET
			chain_id = EXCLUDED.chain_id,
			record = EXCLUDED.record,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.pool.Exec(ctx, query, record.Network, int64(record.ChainID), raw, record.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save record: %w", err)
	}
	r.log.Debug("record saved", "network", record.Network, "contracts", len(record.Contracts))
	return nil
}

// Lock takes a session-level advisory lock keyed by the network name. The
// lock lives on a dedicated connection until unlock is called.
func (r *PostgresRepository) Lock(ctx context.Context, network string) (func(), error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtext($1))`, network).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to lock record: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordLocked, network)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, network); err != nil {
			r.log.Warn("failed to release record lock", "network", network, "error", err)
		}
		conn.Release()
	}, nil
}

var _ usecase.RecordStore = (*PostgresRepository)(nil)
