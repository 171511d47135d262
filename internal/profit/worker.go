// Package profit proposes sell orders for portfolio holdings whose
// current price clears a configured margin after a cooldown.
package profit

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"tradectl/bus"
	"tradectl/internal/dbsave"
	"tradectl/internal/model"
	"tradectl/internal/snapshot"
	"tradectl/internal/threshold"
)

// Publisher is the subset of *bus.Bus the worker needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Worker consumes requested.profit and proposes sell orders.
type Worker struct {
	bus             Publisher
	log             zerolog.Logger
	margin          threshold.Value
	cooldownMillis  int64
	now             func() int64
}

func New(b Publisher, log zerolog.Logger, margin threshold.Value, cooldownSeconds int64, now func() int64) *Worker {
	return &Worker{bus: b, log: log, margin: margin, cooldownMillis: cooldownSeconds * 1000, now: now}
}

// Handle is the bus.Handler for the requested_profit queue.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var snap snapshot.ProfitSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		w.log.Warn().Err(err).Msg("requested.profit: malformed payload, dropping")
		return nil
	}

	if snap.ActiveOrders > 0 {
		w.log.Debug().Int("active_orders", snap.ActiveOrders).Msg("profit: orders in flight, skipping")
		return nil
	}
	if len(snap.Portfolio) == 0 {
		w.log.Debug().Msg("profit: empty portfolio, skipping")
		return nil
	}

	prices := make(map[string]model.PriceQuote, len(snap.Prices))
	for _, p := range snap.Prices {
		prices[p.Symbol] = p
	}

	sellStamp := snap.Stamp
	if sellStamp == 0 {
		sellStamp = w.now()
	}

	var orders []model.Order
	for _, entry := range snap.Portfolio {
		quote, ok := prices[entry.Symbol]
		if !ok {
			w.log.Debug().Str("symbol", entry.Symbol).Msg("profit: no recent price, skipping")
			continue
		}

		if entry.LastStamp+w.cooldownMillis >= quote.Stamp {
			w.log.Debug().Str("symbol", entry.Symbol).Msg("profit: cooldown not elapsed, skipping")
			continue
		}

		cogs := entry.BuyValue + entry.Commission
		sales := quote.Price * entry.Volume
		if sales == 0 {
			continue
		}
		margin := (sales - cogs) / sales

		var clears bool
		switch w.margin.Kind {
		case threshold.Percent:
			clears = margin >= w.margin.Number
		default:
			clears = sales-cogs >= w.margin.Number
		}
		if !clears {
			continue
		}

		orders = append(orders, model.Order{
			Symbol: entry.Symbol,
			Price:  quote.Price,
			Volume: entry.Volume,
			Stamp:  sellStamp,
			Status: model.StatusPending,
		})
	}

	if len(orders) == 0 {
		return nil
	}

	req := dbsave.EncodeOrders(orders)
	return w.bus.Publish(ctx, bus.TopicDatabaseSave, req)
}
