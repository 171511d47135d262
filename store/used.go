package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tradectl/internal/model"
)

// InsertUsed writes newly-consumed transaction volume as a single
// batched INSERT inside the caller's transaction.
func (s *Store) InsertUsed(ctx context.Context, tx *sql.Tx, used []model.Used) error {
	if len(used) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO used (transaction, stamp, volume) VALUES `)
	args := make([]any, 0, len(used)*3)
	for i, u := range used {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 3
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", base+1, base+2, base+3)
		args = append(args, u.Transaction, u.Stamp, u.Volume)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("store: insert used: %w", err)
	}
	return nil
}

// UsedVolumeByTransaction sums prior Used.Volume per transaction for
// transactions whose stamp falls in (startExclusive, endInclusive],
// giving the broker each transaction's already-consumed volume within
// the window it's matching against.
func (s *Store) UsedVolumeByTransaction(ctx context.Context, startExclusive, endInclusive int64) (map[int64]float64, error) {
	return UsedVolumeByTransaction(ctx, s.db, startExclusive, endInclusive)
}

// UsedVolumeByTransaction is the Queryer-parameterized form; see
// TransactionsInWindow.
func UsedVolumeByTransaction(ctx context.Context, q Queryer, startExclusive, endInclusive int64) (map[int64]float64, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT u.transaction, SUM(u.volume)
		FROM used u
		WHERE u.stamp > $1 AND u.stamp <= $2
		GROUP BY u.transaction
	`, startExclusive, endInclusive)
	if err != nil {
		return nil, fmt.Errorf("store: used volume by transaction: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]float64)
	for rows.Next() {
		var txID int64
		var vol float64
		if err := rows.Scan(&txID, &vol); err != nil {
			return nil, fmt.Errorf("store: scan used volume: %w", err)
		}
		out[txID] = vol
	}
	return out, rows.Err()
}
