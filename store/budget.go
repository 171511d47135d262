package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradectl/internal/model"
)

// LatestBudget returns the budget row with the maximum stamp (the
// append-only log's current value), or ok=false if the table is
// empty.
func (s *Store) LatestBudget(ctx context.Context) (model.Budget, bool, error) {
	return LatestBudget(ctx, s.db)
}

// LatestBudget is the Queryer-parameterized form; see
// TransactionsInWindow.
func LatestBudget(ctx context.Context, q Queryer) (model.Budget, bool, error) {
	var b model.Budget
	err := q.QueryRowContext(ctx,
		`SELECT id, amount, time, stamp FROM budget ORDER BY stamp DESC LIMIT 1`,
	).Scan(&b.ID, &b.Amount, &b.Time, &b.Stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Budget{}, false, nil
	}
	if err != nil {
		return model.Budget{}, false, fmt.Errorf("store: latest budget: %w", err)
	}
	return b, true, nil
}

// SeedBudget inserts the initial budget row from a configured default
// when the table is empty.
func (s *Store) SeedBudget(ctx context.Context, amount float64, now int64) (model.Budget, error) {
	b := model.Budget{Amount: amount, Time: now / 1000, Stamp: now}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO budget (amount, time, stamp) VALUES ($1, $2, $3) RETURNING id`,
		b.Amount, b.Time, b.Stamp,
	).Scan(&b.ID)
	if err != nil {
		return model.Budget{}, fmt.Errorf("store: seed budget: %w", err)
	}
	return b, nil
}

// InsertBudget appends a new budget snapshot inside the caller's
// transaction. The budget log is append-only; this never updates an
// existing row.
func (s *Store) InsertBudget(ctx context.Context, tx *sql.Tx, amount float64, now, stamp int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO budget (amount, time, stamp) VALUES ($1, $2, $3)`,
		amount, now/1000, stamp)
	if err != nil {
		return fmt.Errorf("store: insert budget: %w", err)
	}
	return nil
}
