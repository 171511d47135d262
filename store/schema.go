package store

import (
	"context"
	"fmt"
)

// InitSchema creates the transactions, orders, portfolio, used, and
// budget tables if they do not already exist, as plain indexed tables
// with the unique constraints the rest of this package relies on.
func (s *Store) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			price DOUBLE PRECISION NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			time BIGINT NOT NULL,
			stamp BIGINT NOT NULL,
			volume DOUBLE PRECISION NOT NULL CHECK (volume > 0),
			UNIQUE (symbol, stamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_symbol_stamp ON transactions (symbol, stamp)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_stamp ON transactions (stamp)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id BIGSERIAL PRIMARY KEY,
			price DOUBLE PRECISION NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			time BIGINT NOT NULL,
			stamp BIGINT NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			status SMALLINT NOT NULL DEFAULT 0,
			UNIQUE (symbol, stamp)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status_stamp ON orders (status, stamp)`,

		`CREATE TABLE IF NOT EXISTS portfolio (
			id BIGSERIAL PRIMARY KEY,
			transaction BIGINT NOT NULL REFERENCES transactions(id),
			price DOUBLE PRECISION NOT NULL,
			commission DOUBLE PRECISION NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			time BIGINT NOT NULL,
			stamp BIGINT NOT NULL,
			volume DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_portfolio_symbol ON portfolio (symbol)`,

		`CREATE TABLE IF NOT EXISTS used (
			id BIGSERIAL PRIMARY KEY,
			transaction BIGINT NOT NULL REFERENCES transactions(id),
			stamp BIGINT NOT NULL,
			volume DOUBLE PRECISION NOT NULL CHECK (volume > 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_used_transaction ON used (transaction)`,

		`CREATE TABLE IF NOT EXISTS budget (
			id BIGSERIAL PRIMARY KEY,
			amount DOUBLE PRECISION NOT NULL,
			time BIGINT NOT NULL,
			stamp BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budget_stamp ON budget (stamp DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: schema init: %w", err)
		}
	}
	return nil
}
