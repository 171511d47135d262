// Package query assembles the decision snapshots the evaluators
// consume. Every read in one invocation runs inside a single
// REPEATABLE READ transaction so an evaluator never sees a torn view
// across the order count, budget, portfolio, and price tables.
package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tradectl/bus"
	"tradectl/internal/snapshot"
	"tradectl/store"
)

// Publisher is the subset of *bus.Bus the worker needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Worker answers database.read requests.
type Worker struct {
	store         *store.Store
	bus           Publisher
	log           zerolog.Logger
	seedBudget    float64
	nowFn         func() int64
	defaultLook   snapshot.ReadParams
}

// Config configures a Worker.
type Config struct {
	SeedBudget        float64
	DefaultLookahead  int64
	DefaultLookbehind int64
	Now               func() int64
}

func New(st *store.Store, b Publisher, log zerolog.Logger, cfg Config) *Worker {
	now := cfg.Now
	if now == nil {
		now = defaultNow
	}
	return &Worker{
		store:       st,
		bus:         b,
		log:         log,
		seedBudget:  cfg.SeedBudget,
		nowFn:       now,
		defaultLook: snapshot.ReadParams{Lookahead: cfg.DefaultLookahead, Lookbehind: cfg.DefaultLookbehind},
	}
}

// Handle is the bus.Handler for the database_read queue.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	var req snapshot.ReadRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		w.log.Warn().Err(err).Msg("database.read: malformed payload, dropping")
		return nil
	}

	stamp := resolveStamp(req.Stamp, w.nowFn)

	switch req.Type {
	case "profit":
		return w.handleProfit(ctx, stamp)
	case "trends":
		params := resolveLookParams(req.Params, w.defaultLook)
		return w.handleTrends(ctx, stamp, params)
	default:
		w.log.Warn().Str("type", req.Type).Msg("database.read: unknown request type, dropping")
		return nil
	}
}

func (w *Worker) handleProfit(ctx context.Context, stamp int64) error {
	var snap snapshot.ProfitSnapshot
	snap.Stamp = stamp

	err := w.store.WithSnapshot(ctx, func(tx *sql.Tx) error {
		active, err := store.ActiveOrderCount(ctx, tx, stamp)
		if err != nil {
			return err
		}
		snap.ActiveOrders = active

		budget, ok, err := store.LatestBudget(ctx, tx)
		if err != nil {
			return err
		}
		if !ok {
			budget, err = w.store.SeedBudget(ctx, w.seedBudget, stamp)
			if err != nil {
				return err
			}
		}
		snap.Budget = budget

		portfolio, err := store.PortfolioAggregates(ctx, tx)
		if err != nil {
			return err
		}
		snap.Portfolio = portfolio

		prices, err := store.LatestPrices(ctx, tx)
		if err != nil {
			return err
		}
		snap.Prices = prices
		return nil
	})
	if err != nil {
		return fmt.Errorf("query: profit snapshot: %w", err)
	}

	return w.bus.Publish(ctx, bus.TopicRequestedProfit, snap)
}

func (w *Worker) handleTrends(ctx context.Context, stamp int64, params snapshot.ReadParams) error {
	lookahead := params.Lookahead
	lookbehind := params.Lookbehind

	var snap snapshot.TrendsSnapshot
	snap.Stamp = stamp

	windowEnd := stamp - lookahead*1000
	windowStart := stamp - (lookbehind+lookahead)*1000

	err := w.store.WithSnapshot(ctx, func(tx *sql.Tx) error {
		active, err := store.ActiveOrderCount(ctx, tx, stamp)
		if err != nil {
			return err
		}
		snap.ActiveOrders = active

		budget, ok, err := store.LatestBudget(ctx, tx)
		if err != nil {
			return err
		}
		if !ok {
			budget, err = w.store.SeedBudget(ctx, w.seedBudget, stamp)
			if err != nil {
				return err
			}
		}
		snap.Budget = budget

		txs, err := store.TransactionsInRange(ctx, tx, windowStart, windowEnd)
		if err != nil {
			return err
		}
		snap.Transactions = txs
		return nil
	})
	if err != nil {
		return fmt.Errorf("query: trends snapshot: %w", err)
	}

	return w.bus.Publish(ctx, bus.TopicRequestedTrends, snap)
}

func defaultNow() int64 {
	return time.Now().UnixMilli()
}

// resolveStamp uses the request's stamp when present, else the
// worker's clock.
func resolveStamp(requested int64, now func() int64) int64 {
	if requested != 0 {
		return requested
	}
	return now()
}

// resolveLookParams fills in the configured lookahead/lookbehind
// defaults for any field the request left zero.
func resolveLookParams(params, defaults snapshot.ReadParams) snapshot.ReadParams {
	if params.Lookahead == 0 {
		params.Lookahead = defaults.Lookahead
	}
	if params.Lookbehind == 0 {
		params.Lookbehind = defaults.Lookbehind
	}
	return params
}
