// Package trend evaluates a buy signal from a trends snapshot and
// proposes at most one buy order per cycle, allocating the whole
// budget to whichever symbol shows the strongest price trend.
package trend

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"tradectl/bus"
	"tradectl/internal/dbsave"
	"tradectl/internal/model"
	"tradectl/internal/snapshot"
	"tradectl/internal/threshold"
)

const msPerHour = 3_600_000.0

// Publisher is the subset of *bus.Bus the worker needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Worker consumes requested.trends and proposes at most one buy
// order per snapshot.
type Worker struct {
	bus       Publisher
	log       zerolog.Logger
	threshold threshold.Value
	now       func() int64
}

func New(b Publisher, log zerolog.Logger, buyThreshold threshold.Value, now func() int64) *Worker {
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Worker{bus: b, log: log, threshold: buyThreshold, now: now}
}

// Handle is the bus.Handler for the requested_trends queue.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var snap snapshot.TrendsSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		w.log.Warn().Err(err).Msg("requested.trends: malformed payload, dropping")
		return nil
	}

	if snap.ActiveOrders > 0 {
		w.log.Debug().Int("active_orders", snap.ActiveOrders).Msg("trend: orders in flight, skipping")
		return nil
	}
	if snap.Budget.Amount <= 0 {
		w.log.Debug().Msg("trend: no budget, skipping")
		return nil
	}
	if len(snap.Transactions) == 0 {
		w.log.Debug().Msg("trend: no transactions in window, skipping")
		return nil
	}

	candidate, ok := bestCandidate(snap.Transactions, w.threshold)
	if !ok {
		return nil
	}

	volume := math.Floor(snap.Budget.Amount / candidate.price)
	if volume <= 0 {
		return nil
	}

	stamp := snap.Stamp
	if stamp == 0 {
		stamp = w.now()
	}

	order := model.Order{
		Symbol: candidate.symbol,
		Price:  candidate.price,
		Volume: -volume,
		Stamp:  stamp,
		Status: model.StatusPending,
	}
	req := dbsave.EncodeOrders([]model.Order{order})
	return w.bus.Publish(ctx, bus.TopicDatabaseSave, req)
}

type candidate struct {
	symbol string
	price  float64
	trend  float64
}

// bestCandidate groups transactions by symbol, fits a trend per
// symbol with at least 3 observations, and returns the highest-trend
// symbol that clears threshold. Ties keep the first one encountered,
// matching the symbol iteration order of the input.
func bestCandidate(txs []model.Transaction, th threshold.Value) (candidate, bool) {
	order, grouped := groupBySymbol(txs)

	var best candidate
	found := false
	for _, symbol := range order {
		group := grouped[symbol]
		if len(group) < 3 {
			continue
		}

		obs, firstHours, lastHours := toObservations(group)
		absolute, relative, priceAtLast, err := Fit(obs, firstHours, lastHours)
		if err != nil {
			continue
		}

		var trendValue float64
		var clears bool
		switch th.Kind {
		case threshold.Percent:
			trendValue = relative
			clears = relative > th.Number
		default:
			trendValue = absolute
			clears = absolute > th.Number
		}
		if !clears {
			continue
		}

		if !found || trendValue > best.trend {
			best = candidate{symbol: symbol, price: priceAtLast, trend: trendValue}
			found = true
		}
	}
	return best, found
}

// groupBySymbol partitions txs by symbol while recording first-seen
// order, so iteration is deterministic and tie-breaking favors the
// earliest-encountered symbol.
func groupBySymbol(txs []model.Transaction) ([]string, map[string][]model.Transaction) {
	grouped := make(map[string][]model.Transaction)
	var order []string
	for _, t := range txs {
		if _, ok := grouped[t.Symbol]; !ok {
			order = append(order, t.Symbol)
		}
		grouped[t.Symbol] = append(grouped[t.Symbol], t)
	}
	return order, grouped
}

func toObservations(group []model.Transaction) (obs []Observation, firstHours, lastHours float64) {
	sorted := make([]model.Transaction, len(group))
	copy(sorted, group)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Stamp < sorted[j].Stamp })

	minStamp := sorted[0].Stamp
	obs = make([]Observation, len(sorted))
	for i, t := range sorted {
		obs[i] = Observation{
			StampHours: float64(t.Stamp-minStamp) / msPerHour,
			Volume:     t.Volume,
			Price:      t.Price,
		}
	}
	firstHours = obs[0].StampHours
	lastHours = obs[len(obs)-1].StampHours
	return obs, firstHours, lastHours
}
