// Package store is tradectl's sole persistence layer. It talks to
// PostgreSQL through database/sql and github.com/lib/pq with
// hand-written SQL rather than an ORM, so that insert-ignore,
// single-statement write units, and batch-update-by-id are literal
// SQL, not framework inference.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"tradectl/config"
)

// Store wraps a connection pool to the relational store backing
// transactions, orders, portfolio, used volume, and budget.
type Store struct {
	db *sql.DB
}

// Open opens and verifies a PostgreSQL connection pool per cfg.
func Open(cfg config.DBConfig) (*Store, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database,
	)

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying pool for callers that need direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// WithTx runs fn inside a single transaction and commits only if fn
// returns nil: all of its writes land, or none do.
func (s *Store) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// WithSnapshot runs fn inside a REPEATABLE READ transaction, giving
// the Query worker a single consistent view across every table it
// reads.
func (s *Store) WithSnapshot(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("store: begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Queryer is satisfied by both *sql.DB and *sql.Tx. Read functions take
// one so the Query worker can run them inside its snapshot transaction
// and the broker inside its write transaction, while the Store methods
// of the same name use the pool directly.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
