// Package postgres implements tabular.Store on PostgreSQL. Every table is kept
// as an ordered row log in a single relation.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/tabular"
)

const insertRowSQL = `
	INSERT INTO tabular_rows (table_name, row_index, cells)
	VALUES ($1, $2, $3)
`

// Store provides PostgreSQL-backed table storage
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ tabular.Store = (*Store)(nil)

// NewStore creates a connection pool and verifies connectivity
func NewStore(ctx context.Context, cfg *config.PostgresConfig, logger *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Store{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunMigrations creates the row table and seeds the header row of each table
func (s *Store) RunMigrations(ctx context.Context, tables ...tabular.Table) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tabular_rows (
			table_name VARCHAR(64) NOT NULL,
			row_index INT NOT NULL,
			cells TEXT[] NOT NULL,
			written_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (table_name, row_index)
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	for _, t := range tables {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO tabular_rows (table_name, row_index, cells)
			SELECT $1, 0, $2
			WHERE NOT EXISTS (SELECT 1 FROM tabular_rows WHERE table_name = $1)
			ON CONFLICT DO NOTHING
		`, t.Name, t.Header)
		if err != nil {
			return fmt.Errorf("seeding header for %s: %w", t.Name, err)
		}
	}

	s.logger.Info("database migrations completed")
	return nil
}

// ReadRange returns the rows of table in insertion order
func (s *Store) ReadRange(ctx context.Context, table tabular.Table) ([][]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT cells FROM tabular_rows
		WHERE table_name = $1
		ORDER BY row_index
	`, table.Name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table.Name, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[[]string])
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", table.Name, err)
	}
	return out, nil
}

// AppendRows adds rows after the last row of table in one transaction.
// Concurrent appends to the same table are serialized by an advisory lock.
func (s *Store) AppendRows(ctx context.Context, table tabular.Table, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, table.Name); err != nil {
			return fmt.Errorf("locking %s: %w", table.Name, err)
		}

		var next int
		err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(row_index) + 1, 0) FROM tabular_rows WHERE table_name = $1
		`, table.Name).Scan(&next)
		if err != nil {
			return fmt.Errorf("finding end of %s: %w", table.Name, err)
		}

		return insertRows(ctx, tx, table, next, rows)
	})
}

// OverwriteRange replaces every row of table in one transaction
func (s *Store) OverwriteRange(ctx context.Context, table tabular.Table, rows [][]string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, table.Name); err != nil {
			return fmt.Errorf("locking %s: %w", table.Name, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tabular_rows WHERE table_name = $1`, table.Name); err != nil {
			return fmt.Errorf("clearing %s: %w", table.Name, err)
		}
		return insertRows(ctx, tx, table, 0, rows)
	})
}

// insertRows queues one insert per row starting at index first
func insertRows(ctx context.Context, tx pgx.Tx, table tabular.Table, first int, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, row := range rows {
		batch.Queue(insertRowSQL, table.Name, first+i, row)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("inserting into %s: %w", table.Name, err)
		}
	}
	return nil
}
