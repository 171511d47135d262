package dbsave

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tradectl/internal/model"
)

func TestEncodeDecodeTransactionsRoundTrip(t *testing.T) {
	txs := []model.Transaction{
		{Price: 100, Symbol: "AAA", Stamp: 1000, Volume: 10},
		{Price: 110, Symbol: "BBB", Stamp: 2000, Volume: 5},
	}

	req := EncodeTransactions(txs)
	require.Equal(t, "transactions", req.TableName)

	decoded, err := decodeTransactions(req.TableDesc)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, "AAA", decoded[0].Symbol)
	require.Equal(t, 100.0, decoded[0].Price)
	require.Equal(t, int64(2000), decoded[1].Stamp)
}

func TestEncodeDecodeOrdersRoundTrip(t *testing.T) {
	orders := []model.Order{
		{Price: 100, Symbol: "AAA", Stamp: 1000, Volume: -5, Status: model.StatusPending},
	}

	req := EncodeOrders(orders)
	require.Equal(t, "orders", req.TableName)

	decoded, err := decodeOrders(req.TableDesc)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.Equal(t, -5.0, decoded[0].Volume)
}

func TestDecodeTransactionsMissingColumnErrors(t *testing.T) {
	desc := map[string]map[string]any{
		"price": {"0": 100.0},
	}
	_, err := decodeTransactions(desc)
	require.Error(t, err)
}

func TestRowCountEmpty(t *testing.T) {
	require.Equal(t, 0, rowCount(map[string]map[string]any{}))
}
