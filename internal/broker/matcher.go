// Package broker is the fulfilment engine: it serially matches
// pending orders against observed transactions, respects per-
// transaction residual volume, enforces a budget reserve, and emits
// portfolio entries with commissions. On a reserve breach, any partial
// fills already accumulated for that order in this pass are discarded
// rather than committed. An order that runs out of available volume
// without a breach keeps its fills and becomes PARTIAL.
package broker

import (
	"sort"

	"tradectl/internal/model"
	"tradectl/internal/threshold"
)

// Plan is the result of one matching pass: the fills to record, the
// transaction volume they consume, the resulting budget delta, and
// the order status/volume updates to apply.
type Plan struct {
	Portfolio    []model.PortfolioEntry
	Used         []model.Used
	DeltaBudget  float64
	OrderUpdates []OrderUpdate
}

// OrderUpdate is one order's new status and stored volume.
type OrderUpdate struct {
	OrderID int64
	Status  model.OrderStatus
	Volume  float64
}

// Input bundles everything one matching invocation needs.
type Input struct {
	Orders       []model.Order
	Transactions []model.Transaction
	PriorUsed    map[int64]float64 // transaction id -> volume already used
	BudgetAmount float64
	Reserve      float64
	Commission   threshold.Value
	Now          int64
}

// Match runs the order-fulfilment algorithm over in, returning the
// write plan. It is a pure function over its inputs so the algorithm
// is testable without a database.
func Match(in Input) Plan {
	var plan Plan

	byySymbol := groupTransactionsBySymbol(in.Transactions)
	currentlyUsed := make(map[int64]float64)
	deltaBudget := 0.0

	for _, order := range in.Orders {
		if order.Volume == 0 {
			continue
		}

		sign := 1.0
		if order.IsBuy() {
			sign = -1.0
		}
		initial := abs(order.Volume)
		remaining := initial

		candidates := byySymbol[order.Symbol]

		// Tentative records for this order only, so a reserve breach
		// can discard exactly this order's in-progress match without
		// touching prior orders' committed fills.
		var tentativePortfolio []model.PortfolioEntry
		var tentativeUsed []model.Used
		tentativeDelta := 0.0
		abandoned := false

		for _, tx := range candidates {
			unavailable := in.PriorUsed[tx.ID] + currentlyUsed[tx.ID] + usedSoFar(tentativeUsed, tx.ID)
			available := tx.Volume - unavailable
			if available <= 0 {
				continue
			}

			use := min(available, remaining)
			value := tx.Price * use
			commission := commissionFor(in.Commission, value)

			if in.BudgetAmount+deltaBudget+tentativeDelta+sign*value-commission < in.Reserve {
				// Reserve would be breached: abandon this order's
				// progress entirely and move to the next order.
				remaining = initial
				abandoned = true
				break
			}

			tentativeDelta += sign*value - commission
			tentativeUsed = append(tentativeUsed, model.Used{Transaction: tx.ID, Stamp: tx.Stamp, Volume: use})
			tentativePortfolio = append(tentativePortfolio, model.PortfolioEntry{
				Transaction: tx.ID,
				Price:       tx.Price,
				Commission:  commission,
				Symbol:      order.Symbol,
				Stamp:       in.Now,
				Volume:      sign * use,
			})
			remaining -= use
			if remaining <= 0 {
				break
			}
		}

		if abandoned {
			continue
		}
		if len(tentativePortfolio) == 0 {
			// No transaction was available at all; order unchanged.
			continue
		}

		for _, u := range tentativeUsed {
			currentlyUsed[u.Transaction] += u.Volume
		}
		plan.Used = append(plan.Used, tentativeUsed...)
		plan.Portfolio = append(plan.Portfolio, tentativePortfolio...)
		deltaBudget += tentativeDelta

		switch {
		case remaining == 0:
			plan.OrderUpdates = append(plan.OrderUpdates, OrderUpdate{OrderID: order.ID, Status: model.StatusFulfilled, Volume: 0})
		case remaining < initial:
			plan.OrderUpdates = append(plan.OrderUpdates, OrderUpdate{OrderID: order.ID, Status: model.StatusPartial, Volume: sign * remaining})
		}
	}

	plan.DeltaBudget = deltaBudget
	return plan
}

func usedSoFar(used []model.Used, txID int64) float64 {
	var total float64
	for _, u := range used {
		if u.Transaction == txID {
			total += u.Volume
		}
	}
	return total
}

// commissionFor applies a fixed commission per fill, or a percentage
// of the fill's value. commission.Number is already a fraction (e.g.
// "2.5%" parses to 0.025), so the percent case needs no further
// scaling.
func commissionFor(commission threshold.Value, value float64) float64 {
	if commission.Kind == threshold.Percent {
		return commission.Number * value
	}
	return commission.Number
}

func groupTransactionsBySymbol(txs []model.Transaction) map[string][]model.Transaction {
	sorted := make([]model.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Stamp < sorted[j].Stamp })

	grouped := make(map[string][]model.Transaction)
	for _, t := range sorted {
		grouped[t.Symbol] = append(grouped[t.Symbol], t)
	}
	return grouped
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
