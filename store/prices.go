package store

import (
	"context"
	"fmt"

	"tradectl/internal/model"
)

// LatestPrices returns each symbol's most recently transacted price,
// an inner join on (symbol, max(stamp)).
func (s *Store) LatestPrices(ctx context.Context) ([]model.PriceQuote, error) {
	return LatestPrices(ctx, s.db)
}

// LatestPrices is the Queryer-parameterized form; see
// TransactionsInWindow.
func LatestPrices(ctx context.Context, q Queryer) ([]model.PriceQuote, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.symbol, t.price, t.stamp
		FROM transactions t
		INNER JOIN (
			SELECT symbol, MAX(stamp) AS stamp
			FROM transactions
			GROUP BY symbol
		) latest ON latest.symbol = t.symbol AND latest.stamp = t.stamp
	`)
	if err != nil {
		return nil, fmt.Errorf("store: latest prices: %w", err)
	}
	defer rows.Close()

	var out []model.PriceQuote
	for rows.Next() {
		var pq model.PriceQuote
		if err := rows.Scan(&pq.Symbol, &pq.Price, &pq.Stamp); err != nil {
			return nil, fmt.Errorf("store: scan price quote: %w", err)
		}
		out = append(out, pq)
	}
	return out, rows.Err()
}
