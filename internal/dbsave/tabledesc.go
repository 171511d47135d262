// Package dbsave consumes database.save requests and performs the
// actual insert-ignore write, acting as the generic save sink that the
// ingest worker and the evaluators publish to rather than writing
// directly.
package dbsave

import (
	"fmt"
	"strconv"

	"tradectl/internal/model"
	"tradectl/internal/snapshot"
)

// rowCount returns the number of rows encoded in desc, taken from the
// first column (all columns are expected to share the same length).
func rowCount(desc map[string]map[string]any) int {
	for _, col := range desc {
		return len(col)
	}
	return 0
}

func encodeColumn[T any](rows []T, get func(T) any) map[string]any {
	col := make(map[string]any, len(rows))
	for i, row := range rows {
		col[strconv.Itoa(i)] = get(row)
	}
	return col
}

// EncodeTransactions builds the database.save columnar payload for a
// batch of ingested trades.
func EncodeTransactions(txs []model.Transaction) snapshot.DatabaseSaveRequest {
	desc := map[string]map[string]any{
		"price":  encodeColumn(txs, func(t model.Transaction) any { return t.Price }),
		"symbol": encodeColumn(txs, func(t model.Transaction) any { return t.Symbol }),
		"stamp":  encodeColumn(txs, func(t model.Transaction) any { return t.Stamp }),
		"volume": encodeColumn(txs, func(t model.Transaction) any { return t.Volume }),
	}
	return snapshot.DatabaseSaveRequest{TableName: "transactions", TableDesc: desc}
}

// EncodeOrders builds the database.save columnar payload for a batch
// of proposed orders.
func EncodeOrders(orders []model.Order) snapshot.DatabaseSaveRequest {
	desc := map[string]map[string]any{
		"price":  encodeColumn(orders, func(o model.Order) any { return o.Price }),
		"symbol": encodeColumn(orders, func(o model.Order) any { return o.Symbol }),
		"stamp":  encodeColumn(orders, func(o model.Order) any { return o.Stamp }),
		"volume": encodeColumn(orders, func(o model.Order) any { return o.Volume }),
		"status": encodeColumn(orders, func(o model.Order) any { return int(o.Status) }),
	}
	return snapshot.DatabaseSaveRequest{TableName: "orders", TableDesc: desc}
}

func decodeTransactions(desc map[string]map[string]any) ([]model.Transaction, error) {
	n := rowCount(desc)
	out := make([]model.Transaction, 0, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		price, err := floatAt(desc, "price", idx)
		if err != nil {
			return nil, err
		}
		symbol, err := stringAt(desc, "symbol", idx)
		if err != nil {
			return nil, err
		}
		stamp, err := intAt(desc, "stamp", idx)
		if err != nil {
			return nil, err
		}
		volume, err := floatAt(desc, "volume", idx)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Transaction{Price: price, Symbol: symbol, Stamp: stamp, Volume: volume})
	}
	return out, nil
}

func decodeOrders(desc map[string]map[string]any) ([]model.Order, error) {
	n := rowCount(desc)
	out := make([]model.Order, 0, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		price, err := floatAt(desc, "price", idx)
		if err != nil {
			return nil, err
		}
		symbol, err := stringAt(desc, "symbol", idx)
		if err != nil {
			return nil, err
		}
		stamp, err := intAt(desc, "stamp", idx)
		if err != nil {
			return nil, err
		}
		volume, err := floatAt(desc, "volume", idx)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Order{Price: price, Symbol: symbol, Stamp: stamp, Volume: volume})
	}
	return out, nil
}

func floatAt(desc map[string]map[string]any, col, idx string) (float64, error) {
	v, ok := desc[col][idx]
	if !ok {
		return 0, fmt.Errorf("dbsave: missing %s[%s]", col, idx)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("dbsave: %s[%s] is not numeric", col, idx)
}

func intAt(desc map[string]map[string]any, col, idx string) (int64, error) {
	f, err := floatAt(desc, col, idx)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func stringAt(desc map[string]map[string]any, col, idx string) (string, error) {
	v, ok := desc[col][idx]
	if !ok {
		return "", fmt.Errorf("dbsave: missing %s[%s]", col, idx)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("dbsave: %s[%s] is not a string", col, idx)
	}
	return s, nil
}
