package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tradectl/internal/model"
)

// InsertPortfolioEntries writes fills as a single batched INSERT
// inside the caller's transaction.
func (s *Store) InsertPortfolioEntries(ctx context.Context, tx *sql.Tx, entries []model.PortfolioEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO portfolio (transaction, price, commission, symbol, time, stamp, volume) VALUES `)
	args := make([]any, 0, len(entries)*7)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		tm := e.Time
		if tm == 0 {
			tm = e.Stamp / 1000
		}
		args = append(args, e.Transaction, e.Price, e.Commission, e.Symbol, tm, e.Stamp, e.Volume)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("store: insert portfolio entries: %w", err)
	}
	return nil
}

// PortfolioAggregates rolls portfolio rows up per symbol as the Query
// worker's profit snapshot needs them: summed commission, inverted
// cost basis and held quantity (buy fills carry negative volume), and
// the most recent fill stamp.
func (s *Store) PortfolioAggregates(ctx context.Context) ([]model.PortfolioAggregate, error) {
	return PortfolioAggregates(ctx, s.db)
}

// PortfolioAggregates is the Queryer-parameterized form; see
// TransactionsInWindow.
func PortfolioAggregates(ctx context.Context, q Queryer) ([]model.PortfolioAggregate, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT symbol,
		       SUM(commission) AS commission,
		       -SUM(price * volume) AS buy_value,
		       -SUM(volume) AS volume,
		       MAX(stamp) AS last_stamp
		FROM portfolio
		GROUP BY symbol
		HAVING -SUM(volume) <> 0
	`)
	if err != nil {
		return nil, fmt.Errorf("store: portfolio aggregates: %w", err)
	}
	defer rows.Close()

	var out []model.PortfolioAggregate
	for rows.Next() {
		var p model.PortfolioAggregate
		if err := rows.Scan(&p.Symbol, &p.Commission, &p.BuyValue, &p.Volume, &p.LastStamp); err != nil {
			return nil, fmt.Errorf("store: scan portfolio aggregate: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
