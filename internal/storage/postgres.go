package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

// PostgresCollection stores a whole serialized collection as one row in
// a shared collections table, keyed by collection name. Load selects
// the blob, Save upserts it in a single statement, so the replace stays
// atomic and the Collection contract is unchanged over a database
// medium. Open the *sql.DB with the pgx stdlib driver.
type PostgresCollection[T Record] struct {
	db   *sql.DB
	name string
	seed []T
}

func NewPostgresCollection[T Record](db *sql.DB, name string, seed []T) *PostgresCollection[T] {
	return &PostgresCollection[T]{db: db, name: name, seed: seed}
}

// EnsureSchema creates the collections table if it is missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS collections (
				name       TEXT PRIMARY KEY,
				data       JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`)
		if err != nil {
			return fmt.Errorf("%w: ensure schema: %v", ErrUnavailable, err)
		}
		return nil
	})
}

func (c *PostgresCollection[T]) Ping(ctx context.Context) error {
	err := withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return c.db.PingContext(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *PostgresCollection[T]) Load(ctx context.Context) ([]T, error) {
	var data []byte

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return c.db.QueryRowContext(ctx, `
			SELECT data
			FROM collections
			WHERE name = $1
		`, c.name).Scan(&data)
	})
	if err == sql.ErrNoRows {
		return c.initialize(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrUnavailable, c.name, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, c.name, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func (c *PostgresCollection[T]) Save(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrUnavailable, c.name, err)
	}

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := c.db.ExecContext(ctx, `
			INSERT INTO collections (name, data, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (name) DO UPDATE
			SET data = EXCLUDED.data, updated_at = now()
		`, c.name, data)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrUnavailable, c.name, err)
	}
	return nil
}

func (c *PostgresCollection[T]) initialize(ctx context.Context) ([]T, error) {
	seed := c.seed
	if seed == nil {
		seed = []T{}
	}

	if err := c.Save(ctx, seed); err != nil {
		return nil, err
	}
	return append(make([]T, 0, len(seed)), seed...), nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
