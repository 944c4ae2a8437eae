package batch

// pgstore.go is the Postgres-backed Store, used when DATABASE_URL is set.
// Each batch result is stored as a single JSONB row keyed by batch ID, so
// status lookups survive process restarts and can be served by any node
// sharing the database.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createBatchesTable = `
CREATE TABLE IF NOT EXISTS batches (
	batch_id   TEXT PRIMARY KEY,
	result     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGStore persists batch results in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates the store and ensures the batches table exists.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool) (*PGStore, error) {
	if _, err := pool.Exec(ctx, createBatchesTable); err != nil {
		return nil, fmt.Errorf("ensure batches table: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Put stores a batch result, replacing any previous entry for the same ID.
func (s *PGStore) Put(ctx context.Context, res *Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal batch result: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO batches (batch_id, result) VALUES ($1, $2)
		 ON CONFLICT (batch_id) DO UPDATE SET result = EXCLUDED.result`,
		res.BatchID, payload,
	)
	if err != nil {
		return fmt.Errorf("store batch %s: %w", res.BatchID, err)
	}
	return nil
}

// Get retrieves a previously stored batch result.
func (s *PGStore) Get(ctx context.Context, batchID string) (*Result, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT result FROM batches WHERE batch_id = $1`, batchID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load batch %s: %w", batchID, err)
	}

	var res Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("unmarshal batch %s: %w", batchID, err)
	}
	return &res, nil
}
