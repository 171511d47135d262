package profit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"tradectl/internal/model"
	"tradectl/internal/snapshot"
	"tradectl/internal/threshold"
)

type fakePublisher struct {
	calls   int
	payload any
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	f.calls++
	f.payload = payload
	return nil
}

func TestHandleEmitsSellWhenMarginClearsAfterCooldown(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Percent, Number: 0.1}, 0, func() int64 { return 99 })

	snap := snapshot.ProfitSnapshot{
		Portfolio: []model.PortfolioAggregate{
			{Symbol: "AAA", Commission: 0, BuyValue: 1000, Volume: 10, LastStamp: 0},
		},
		Prices: []model.PriceQuote{{Symbol: "AAA", Price: 120, Stamp: 10_000_000}},
	}
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 1, pub.calls)
}

func TestHandleSkipsWhenCooldownNotElapsed(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Fixed, Number: 0}, 3600, func() int64 { return 99 })

	snap := snapshot.ProfitSnapshot{
		Portfolio: []model.PortfolioAggregate{
			{Symbol: "AAA", Commission: 0, BuyValue: 1000, Volume: 10, LastStamp: 0},
		},
		Prices: []model.PriceQuote{{Symbol: "AAA", Price: 120, Stamp: 100_000}},
	}
	payload, _ := json.Marshal(snap)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 0, pub.calls)
}

func TestHandleSkipsWhenNoPriceAvailable(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Fixed, Number: 0}, 0, func() int64 { return 99 })

	snap := snapshot.ProfitSnapshot{
		Portfolio: []model.PortfolioAggregate{{Symbol: "AAA", Volume: 10}},
	}
	payload, _ := json.Marshal(snap)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 0, pub.calls)
}

func TestHandleSkipsWhenOrdersActiveOrPortfolioEmpty(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Fixed, Number: 0}, 0, func() int64 { return 99 })

	active, _ := json.Marshal(snapshot.ProfitSnapshot{ActiveOrders: 1, Portfolio: []model.PortfolioAggregate{{Symbol: "AAA", Volume: 1}}})
	require.NoError(t, w.Handle(context.Background(), active))
	require.Equal(t, 0, pub.calls)

	empty, _ := json.Marshal(snapshot.ProfitSnapshot{})
	require.NoError(t, w.Handle(context.Background(), empty))
	require.Equal(t, 0, pub.calls)
}
