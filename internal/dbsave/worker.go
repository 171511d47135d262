package dbsave

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"tradectl/internal/snapshot"
	"tradectl/store"
)

// Worker consumes database.save requests and inserts the described
// rows, ignoring duplicates on the table's unique key.
type Worker struct {
	store *store.Store
	log   zerolog.Logger
}

func New(st *store.Store, log zerolog.Logger) *Worker {
	return &Worker{store: st, log: log}
}

// Handle is the bus.Handler for the database_save queue.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var req snapshot.DatabaseSaveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		w.log.Warn().Err(err).Msg("database.save: malformed payload, dropping")
		return nil
	}

	switch req.TableName {
	case "transactions":
		txs, err := decodeTransactions(req.TableDesc)
		if err != nil {
			w.log.Warn().Err(err).Msg("database.save: malformed transactions, dropping")
			return nil
		}
		if err := w.store.InsertTransactionsIgnore(ctx, txs); err != nil {
			return fmt.Errorf("dbsave: insert transactions: %w", err)
		}
	case "orders":
		orders, err := decodeOrders(req.TableDesc)
		if err != nil {
			w.log.Warn().Err(err).Msg("database.save: malformed orders, dropping")
			return nil
		}
		if err := w.store.InsertOrdersIgnore(ctx, orders); err != nil {
			return fmt.Errorf("dbsave: insert orders: %w", err)
		}
	default:
		w.log.Warn().Str("table", req.TableName).Msg("database.save: unknown table, dropping")
	}
	return nil
}
