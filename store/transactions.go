package store

import (
	"context"
	"fmt"
	"strings"

	"tradectl/internal/model"
)

// InsertTransactionsIgnore appends txs, silently dropping rows whose
// (symbol, stamp) already exists — the feed can redeliver the same
// trade and the ingest worker must stay idempotent. time is derived
// from stamp // 1000 when the caller leaves it zero.
func (s *Store) InsertTransactionsIgnore(ctx context.Context, txs []model.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO transactions (price, symbol, time, stamp, volume) VALUES `)
	args := make([]any, 0, len(txs)*5)
	for i, t := range txs {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		tm := t.Time
		if tm == 0 {
			tm = t.Stamp / 1000
		}
		args = append(args, t.Price, t.Symbol, tm, t.Stamp, t.Volume)
	}
	sb.WriteString(` ON CONFLICT (symbol, stamp) DO NOTHING`)

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("store: insert transactions: %w", err)
	}
	return nil
}

// TransactionsInWindow returns transactions with stamp in
// (startExclusive, endInclusive], sorted by stamp ascending, as the
// broker needs them for matching.
func (s *Store) TransactionsInWindow(ctx context.Context, startExclusive, endInclusive int64) ([]model.Transaction, error) {
	return TransactionsInWindow(ctx, s.db, startExclusive, endInclusive)
}

// TransactionsInWindow is the Queryer-parameterized form, so a caller
// can run it inside its own transaction (the broker runs it inside its
// write unit).
func TransactionsInWindow(ctx context.Context, q Queryer, startExclusive, endInclusive int64) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, price, symbol, time, stamp, volume FROM transactions
		 WHERE stamp > $1 AND stamp <= $2 ORDER BY stamp ASC`,
		startExclusive, endInclusive)
	if err != nil {
		return nil, fmt.Errorf("store: transactions in window: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

// TransactionsInRange returns transactions with stamp in
// [startInclusive, endExclusive), the trend evaluator's lookbehind
// window.
func (s *Store) TransactionsInRange(ctx context.Context, startInclusive, endExclusive int64) ([]model.Transaction, error) {
	return TransactionsInRange(ctx, s.db, startInclusive, endExclusive)
}

// TransactionsInRange is the Queryer-parameterized form; see
// TransactionsInWindow.
func TransactionsInRange(ctx context.Context, q Queryer, startInclusive, endExclusive int64) ([]model.Transaction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, price, symbol, time, stamp, volume FROM transactions
		 WHERE stamp >= $1 AND stamp < $2 ORDER BY stamp ASC`,
		startInclusive, endExclusive)
	if err != nil {
		return nil, fmt.Errorf("store: transactions in range: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]model.Transaction, error) {
	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Price, &t.Symbol, &t.Time, &t.Stamp, &t.Volume); err != nil {
			return nil, fmt.Errorf("store: scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
