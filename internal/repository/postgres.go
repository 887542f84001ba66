package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SnapshotSchema creates the table used by PostgresStore.
const SnapshotSchema = `
	CREATE TABLE IF NOT EXISTS ledger_snapshots (
		name VARCHAR(64) PRIMARY KEY,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore keeps the snapshot as one JSONB row in ledger_snapshots.
type PostgresStore struct {
	pool *pgxpool.Pool
	name string
}

// NewPostgresStore creates a PostgresStore that reads and writes the row called name.
func NewPostgresStore(pool *pgxpool.Pool, name string) *PostgresStore {
	if name == "" {
		name = "default"
	}
	return &PostgresStore{pool: pool, name: name}
}

// Load fetches the snapshot row.
// Returns ErrNoSnapshot if the row does not exist.
func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	const query = `
		SELECT document
		FROM ledger_snapshots
		WHERE name = $1
	`

	var doc []byte
	err := s.pool.QueryRow(ctx, query, s.name).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return doc, nil
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, doc []byte) error {
	const query = `
		INSERT INTO ledger_snapshots (name, document, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name)
		DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, s.name, doc); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
