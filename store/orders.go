package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tradectl/internal/model"
)

// InsertOrdersIgnore inserts one or more PENDING order proposals,
// dropping duplicates on (symbol, stamp) the same way transactions do.
// time is derived from stamp when the caller leaves it zero.
func (s *Store) InsertOrdersIgnore(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO orders (price, symbol, time, stamp, volume, status) VALUES `)
	args := make([]any, 0, len(orders)*6)
	for i, o := range orders {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		tm := o.Time
		if tm == 0 {
			tm = o.Stamp / 1000
		}
		args = append(args, o.Price, o.Symbol, tm, o.Stamp, o.Volume, int(model.StatusPending))
	}
	sb.WriteString(` ON CONFLICT (symbol, stamp) DO NOTHING`)

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("store: insert orders: %w", err)
	}
	return nil
}

// ActiveOrderCount counts PENDING/PARTIAL orders due at or before asOf,
// the gating check the evaluators rely on (via the Query worker's
// snapshots).
func (s *Store) ActiveOrderCount(ctx context.Context, asOf int64) (int, error) {
	return ActiveOrderCount(ctx, s.db, asOf)
}

// ActiveOrderCount is the Queryer-parameterized form; see
// TransactionsInWindow.
func ActiveOrderCount(ctx context.Context, q Queryer, asOf int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE stamp <= $1 AND status IN ($2, $3)`,
		asOf, int(model.StatusPending), int(model.StatusPartial)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: active order count: %w", err)
	}
	return n, nil
}

// ActiveOrders returns PENDING/PARTIAL orders due at or before asOf,
// for the broker to attempt to fill.
func (s *Store) ActiveOrders(ctx context.Context, asOf int64) ([]model.Order, error) {
	return ActiveOrders(ctx, s.db, asOf)
}

// ActiveOrders is the Queryer-parameterized form; see
// TransactionsInWindow.
func ActiveOrders(ctx context.Context, q Queryer, asOf int64) ([]model.Order, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, price, symbol, time, stamp, volume, status FROM orders
		 WHERE stamp <= $1 AND status IN ($2, $3) ORDER BY stamp ASC`,
		asOf, int(model.StatusPending), int(model.StatusPartial))
	if err != nil {
		return nil, fmt.Errorf("store: active orders: %w", err)
	}
	defer rows.Close()

	var out []model.Order
	for rows.Next() {
		var o model.Order
		var status int
		if err := rows.Scan(&o.ID, &o.Price, &o.Symbol, &o.Time, &o.Stamp, &o.Volume, &status); err != nil {
			return nil, fmt.Errorf("store: scan order: %w", err)
		}
		o.Status = model.OrderStatus(status)
		out = append(out, o)
	}
	return out, rows.Err()
}

// OrderUpdate is one broker-produced status/volume mutation to apply
// to an existing order row.
type OrderUpdate struct {
	ID     int64
	Status model.OrderStatus
	Volume float64
}

// UpdateOrderStatuses batch-updates orders by id with the broker's
// fill plan as a single UPDATE ... FROM (VALUES ...) statement, inside
// the caller's transaction.
func (s *Store) UpdateOrderStatuses(ctx context.Context, tx *sql.Tx, updates []OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`UPDATE orders SET status = v.status, volume = v.volume FROM (VALUES `)
	args := make([]any, 0, len(updates)*3)
	for i, u := range updates {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 3
		fmt.Fprintf(&sb, "($%d::bigint, $%d::smallint, $%d::double precision)", base+1, base+2, base+3)
		args = append(args, u.ID, int(u.Status), u.Volume)
	}
	sb.WriteString(`) AS v(id, status, volume) WHERE orders.id = v.id`)

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("store: batch update orders: %w", err)
	}
	return nil
}
