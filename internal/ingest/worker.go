// Package ingest buffers trades from the external market feed and
// flushes them to persistence through the bus. A stream error
// triggers a flush of whatever's buffered followed by a delayed
// reconnect, so a flaky feed connection never blocks ingestion for
// long or loses already-read trades.
package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tradectl/bus"
	"tradectl/internal/dbsave"
	"tradectl/internal/feed"
	"tradectl/internal/model"
)

// Publisher is the subset of *bus.Bus a Worker needs, narrowed so
// tests can substitute a fake.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Worker owns the feed connection and the flush buffer.
type Worker struct {
	client  *feed.Client
	bus     Publisher
	log     zerolog.Logger
	buffer  int
	respawn time.Duration
	symbols []string
}

// Config configures a Worker.
type Config struct {
	Buffer  int
	Respawn time.Duration
	Symbols []string
}

func New(client *feed.Client, b Publisher, log zerolog.Logger, cfg Config) *Worker {
	return &Worker{client: client, bus: b, log: log, buffer: cfg.Buffer, respawn: cfg.Respawn, symbols: cfg.Symbols}
}

// Run connects, subscribes, and reads trades until ctx is cancelled.
// On stream error it flushes what it has, waits the respawn delay, and
// reconnects.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := w.runOnce(ctx); err != nil {
			w.log.Error().Err(err).Msg("ingest: stream error, respawning")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.respawn):
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) error {
	if err := w.client.Connect(); err != nil {
		return err
	}
	defer w.client.Close()

	if err := w.client.Subscribe(w.symbols); err != nil {
		return err
	}

	stop := make(chan struct{})
	defer close(stop)
	w.client.StartPing(30*time.Second, stop)

	buf := make([]feed.Trade, 0, w.buffer)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if err := w.flush(ctx, buf); err != nil {
			w.log.Error().Err(err).Msg("ingest: flush failed")
		}
		buf = buf[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		default:
		}

		trades, err := w.client.ReadTrades()
		if err != nil {
			flush()
			return err
		}

		buf = append(buf, trades...)
		if len(buf) >= w.buffer {
			flush()
		}
	}
}

func (w *Worker) flush(ctx context.Context, trades []feed.Trade) error {
	txs := make([]model.Transaction, len(trades))
	for i, t := range trades {
		txs[i] = model.Transaction{Price: t.Price, Symbol: t.Symbol, Stamp: t.Stamp, Volume: t.Volume}
	}
	req := dbsave.EncodeTransactions(txs)
	return w.bus.Publish(ctx, bus.TopicDatabaseSave, req)
}
