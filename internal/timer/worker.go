package timer

import (
	"context"
	"fmt"

	"tradectl/bus"
	"tradectl/internal/snapshot"
)

// Publisher is the subset of *bus.Bus the dispatcher needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Config configures one Dispatch invocation.
type Config struct {
	StatePath         string
	DefaultLookahead  int64 // seconds
	DefaultLookbehind int64 // seconds
	Now               func() int64
}

// Dispatch runs the next pending phase and advances the persisted
// state to the one after it. The state file holds the phase still to
// run; a missing or corrupt file defaults to phase 0 (trends). It is
// meant to be invoked once per tick by a one-shot binary driven by an
// external scheduler.
func Dispatch(ctx context.Context, b Publisher, cfg Config) error {
	phase := readPhase(cfg.StatePath)
	now := cfg.Now()

	switch phase {
	case phaseTrends:
		err := b.Publish(ctx, bus.TopicDatabaseRead, snapshot.ReadRequest{
			Type:  "trends",
			Stamp: now,
			Params: snapshot.ReadParams{
				Lookahead:  cfg.DefaultLookahead,
				Lookbehind: cfg.DefaultLookbehind,
			},
		})
		if err != nil {
			return fmt.Errorf("timer: publish trends request: %w", err)
		}
	case phaseOrders1, phaseOrders2:
		err := b.Publish(ctx, bus.TopicOrdersMake, snapshot.OrdersMakeRequest{
			Stamp:     now,
			Lookahead: cfg.DefaultLookahead,
		})
		if err != nil {
			return fmt.Errorf("timer: publish orders request: %w", err)
		}
	case phaseProfit:
		err := b.Publish(ctx, bus.TopicDatabaseRead, snapshot.ReadRequest{
			Type:  "profit",
			Stamp: now,
		})
		if err != nil {
			return fmt.Errorf("timer: publish profit request: %w", err)
		}
	}

	return writePhase(cfg.StatePath, (phase+1)%phaseCount)
}
