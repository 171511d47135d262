// Package broker also hosts the bus-facing wrapper around Match: the
// orders.make consumer that reads one consistent window, runs the
// matching algorithm, and persists the resulting plan as a single
// write unit.
package broker

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tradectl/internal/snapshot"
	"tradectl/internal/threshold"
	"tradectl/store"
)

// Worker consumes orders.make and runs one matching pass per message.
// A sync.Mutex.TryLock enforces single-writer discipline: a handler
// invoked while a prior invocation is still running returns
// immediately instead of blocking or queuing.
type Worker struct {
	store      *store.Store
	log        zerolog.Logger
	commission threshold.Value
	reserve    float64
	seedBudget float64
	lookahead  int64 // default seconds, used when the request omits one
	now        func() int64
	lock       sync.Mutex
}

// Config configures a Worker.
type Config struct {
	Commission       threshold.Value
	Reserve          float64
	SeedBudget       float64
	DefaultLookahead int64 // seconds
	Now              func() int64
}

func New(st *store.Store, log zerolog.Logger, cfg Config) *Worker {
	now := cfg.Now
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	return &Worker{
		store:      st,
		log:        log,
		commission: cfg.Commission,
		reserve:    cfg.Reserve,
		seedBudget: cfg.SeedBudget,
		lookahead:  cfg.DefaultLookahead,
		now:        now,
	}
}

// Handle is the bus.Handler for the orders_make queue.
func (w *Worker) Handle(ctx context.Context, payload []byte) error {
	if !w.lock.TryLock() {
		w.log.Debug().Msg("broker: invocation already in progress, dropping")
		return nil
	}
	defer w.lock.Unlock()

	var req snapshot.OrdersMakeRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		w.log.Warn().Err(err).Msg("orders.make: malformed payload, dropping")
		return nil
	}

	now := req.Stamp
	if now == 0 {
		now = w.now()
	}
	lookaheadSeconds := req.Lookahead
	if lookaheadSeconds == 0 {
		lookaheadSeconds = w.lookahead
	}
	orderStamp := now - lookaheadSeconds*1000

	return w.store.WithTx(ctx, func(tx *sql.Tx) error {
		orders, err := store.ActiveOrders(ctx, tx, orderStamp)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}

		txs, err := store.TransactionsInWindow(ctx, tx, orderStamp, now)
		if err != nil {
			return err
		}

		priorUsed, err := store.UsedVolumeByTransaction(ctx, tx, orderStamp, now)
		if err != nil {
			return err
		}

		budget, ok, err := store.LatestBudget(ctx, tx)
		if err != nil {
			return err
		}
		if !ok {
			budget, err = w.store.SeedBudget(ctx, w.seedBudget, now)
			if err != nil {
				return err
			}
		}

		plan := Match(Input{
			Orders:       orders,
			Transactions: txs,
			PriorUsed:    priorUsed,
			BudgetAmount: budget.Amount,
			Reserve:      w.reserve,
			Commission:   w.commission,
			Now:          now,
		})

		if len(plan.OrderUpdates) == 0 {
			return nil
		}

		if err := w.store.InsertPortfolioEntries(ctx, tx, plan.Portfolio); err != nil {
			return err
		}
		if err := w.store.InsertUsed(ctx, tx, plan.Used); err != nil {
			return err
		}
		if err := w.store.InsertBudget(ctx, tx, budget.Amount+plan.DeltaBudget, now, now); err != nil {
			return err
		}

		updates := make([]store.OrderUpdate, len(plan.OrderUpdates))
		for i, u := range plan.OrderUpdates {
			updates[i] = store.OrderUpdate{ID: u.OrderID, Status: u.Status, Volume: u.Volume}
		}
		if err := w.store.UpdateOrderStatuses(ctx, tx, updates); err != nil {
			return err
		}

		w.log.Info().
			Int("orders_touched", len(plan.OrderUpdates)).
			Float64("delta_budget", plan.DeltaBudget).
			Msg("broker: matching pass committed")
		return nil
	})
}
