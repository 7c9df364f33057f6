package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// PostgresStore keeps the snapshot as one JSONB value in a single-row
// table. This is still whole-snapshot replacement, not per-entity
// persistence: every Save overwrites the row.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	cfg.MaxConns = 5
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (p *PostgresStore) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS snapshot (
  id INT PRIMARY KEY DEFAULT 1,
  state JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)
`)
	return err
}

func (p *PostgresStore) Load(ctx context.Context) (*types.AppState, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT state FROM snapshot WHERE id=1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.NewState(), nil
		}
		return nil, err
	}
	return decodeState(raw, "postgres:snapshot"), nil
}

func (p *PostgresStore) Save(ctx context.Context, state *types.AppState) error {
	raw, err := encodeState(state)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO snapshot (id, state, updated_at)
VALUES (1, $1, now())
ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()
`, raw)
	return err
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
