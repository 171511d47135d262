package broker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tradectl/internal/model"
	"tradectl/internal/threshold"
)

func TestMatchFillsFully(t *testing.T) {
	in := Input{
		Orders: []model.Order{
			{ID: 1, Symbol: "AAA", Price: 100, Volume: -5, Status: model.StatusPending},
		},
		Transactions: []model.Transaction{
			{ID: 10, Symbol: "AAA", Price: 100, Volume: 10, Stamp: 59_000},
		},
		PriorUsed:    map[int64]float64{},
		BudgetAmount: 1000,
		Reserve:      0,
		Commission:   threshold.Value{Kind: threshold.Fixed, Number: 0},
		Now:          60_000,
	}

	plan := Match(in)

	require.Len(t, plan.Portfolio, 1)
	require.Equal(t, model.PortfolioEntry{
		Transaction: 10,
		Price:       100,
		Commission:  0,
		Symbol:      "AAA",
		Stamp:       60_000,
		Volume:      -5,
	}, plan.Portfolio[0])

	require.Len(t, plan.Used, 1)
	require.Equal(t, 5.0, plan.Used[0].Volume)
	require.Equal(t, int64(10), plan.Used[0].Transaction)

	require.InDelta(t, -500.0, plan.DeltaBudget, 1e-9)

	require.Len(t, plan.OrderUpdates, 1)
	require.Equal(t, OrderUpdate{OrderID: 1, Status: model.StatusFulfilled, Volume: 0}, plan.OrderUpdates[0])
}

func TestMatchReserveBlocksAbandonsOrder(t *testing.T) {
	in := Input{
		Orders: []model.Order{
			{ID: 1, Symbol: "AAA", Price: 100, Volume: -5, Status: model.StatusPending},
		},
		Transactions: []model.Transaction{
			{ID: 10, Symbol: "AAA", Price: 100, Volume: 10, Stamp: 59_000},
		},
		PriorUsed:    map[int64]float64{},
		BudgetAmount: 400,
		Reserve:      0,
		Commission:   threshold.Value{Kind: threshold.Fixed, Number: 0},
		Now:          60_000,
	}

	plan := Match(in)

	require.Empty(t, plan.Portfolio)
	require.Empty(t, plan.Used)
	require.Empty(t, plan.OrderUpdates)
	require.Equal(t, 0.0, plan.DeltaBudget)
}

func TestMatchPartialFill(t *testing.T) {
	in := Input{
		Orders: []model.Order{
			{ID: 1, Symbol: "AAA", Price: 100, Volume: -10, Status: model.StatusPending},
		},
		Transactions: []model.Transaction{
			{ID: 10, Symbol: "AAA", Price: 100, Volume: 7, Stamp: 59_000},
		},
		PriorUsed:    map[int64]float64{},
		BudgetAmount: 100000,
		Reserve:      0,
		Commission:   threshold.Value{Kind: threshold.Fixed, Number: 0},
		Now:          60_000,
	}

	plan := Match(in)

	require.Len(t, plan.Portfolio, 1)
	require.Equal(t, -7.0, plan.Portfolio[0].Volume)

	require.Len(t, plan.OrderUpdates, 1)
	require.Equal(t, OrderUpdate{OrderID: 1, Status: model.StatusPartial, Volume: -3}, plan.OrderUpdates[0])
}

func TestMatchNoPendingOrdersWritesNothing(t *testing.T) {
	in := Input{
		Orders: nil,
		Transactions: []model.Transaction{
			{ID: 10, Symbol: "AAA", Price: 100, Volume: 7, Stamp: 59_000},
		},
		BudgetAmount: 1000,
		Commission:   threshold.Value{Kind: threshold.Fixed, Number: 0},
		Now:          60_000,
	}

	plan := Match(in)

	require.Empty(t, plan.Portfolio)
	require.Empty(t, plan.Used)
	require.Empty(t, plan.OrderUpdates)
}

func TestMatchPercentCommissionAppliesParsedFraction(t *testing.T) {
	// "2%" parses to threshold.Value{Number: 0.02}; the commission
	// charged on a 500-value fill should be 10, not 0.1 (which would
	// result from re-applying the 0.01 scale a second time).
	in := Input{
		Orders: []model.Order{
			{ID: 1, Symbol: "AAA", Price: 100, Volume: -5, Status: model.StatusPending},
		},
		Transactions: []model.Transaction{
			{ID: 10, Symbol: "AAA", Price: 100, Volume: 10, Stamp: 59_000},
		},
		PriorUsed:    map[int64]float64{},
		BudgetAmount: 1000,
		Reserve:      0,
		Commission:   threshold.Value{Kind: threshold.Percent, Number: 0.02},
		Now:          60_000,
	}

	plan := Match(in)

	require.Len(t, plan.Portfolio, 1)
	require.InDelta(t, 10.0, plan.Portfolio[0].Commission, 1e-9)
	require.InDelta(t, -510.0, plan.DeltaBudget, 1e-9)
}

func TestMatchRespectsPriorUsedVolume(t *testing.T) {
	in := Input{
		Orders: []model.Order{
			{ID: 1, Symbol: "AAA", Price: 100, Volume: -5, Status: model.StatusPending},
		},
		Transactions: []model.Transaction{
			{ID: 10, Symbol: "AAA", Price: 100, Volume: 10, Stamp: 59_000},
		},
		PriorUsed:    map[int64]float64{10: 8},
		BudgetAmount: 100000,
		Commission:   threshold.Value{Kind: threshold.Fixed, Number: 0},
		Now:          60_000,
	}

	plan := Match(in)

	require.Len(t, plan.Portfolio, 1)
	require.Equal(t, -2.0, plan.Portfolio[0].Volume)
	require.Equal(t, OrderUpdate{OrderID: 1, Status: model.StatusPartial, Volume: -3}, plan.OrderUpdates[0])
}
