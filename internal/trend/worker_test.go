package trend

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

func fixedClock(ms int64) func() int64 {
	return func() int64 { return ms }
}

type fakePublisher struct {
	topic   string
	payload any
	calls   int
}

func (f *fakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	f.topic, f.payload = topic, payload
	f.calls++
	return nil
}

func risingSeries(symbol string) []model.Transaction {
	return []model.Transaction{
		{Symbol: symbol, Price: 100, Stamp: 0, Volume: 10},
		{Symbol: symbol, Price: 110, Stamp: 3_600_000, Volume: 10},
		{Symbol: symbol, Price: 120, Stamp: 7_200_000, Volume: 10},
	}
}

func TestHandleEmitsBuyOrderForRisingSymbol(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Percent, Number: 0.01}, fixedClock(99_000))

	snap := snapshot.TrendsSnapshot{
		ActiveOrders: 0,
		Budget:       model.Budget{Amount: 10000},
		Transactions: risingSeries("AAA"),
	}
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 1, pub.calls)

	req, ok := pub.payload.(snapshot.DatabaseSaveRequest)
	require.True(t, ok)
	stamps := req.TableDesc["stamp"]
	require.Len(t, stamps, 1)
	require.EqualValues(t, 99_000, stamps["0"])
}

// TestHandleUsesSnapshotStampWhenPresent confirms the emitted order
// carries the snapshot's own stamp rather than the clock whenever the
// snapshot supplies one, so repeated buys of the same symbol land on
// distinct stamps instead of colliding on the insert-ignore unique key.
func TestHandleUsesSnapshotStampWhenPresent(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Percent, Number: 0.01}, fixedClock(99_000))

	snap := snapshot.TrendsSnapshot{
		Stamp:        42_000,
		ActiveOrders: 0,
		Budget:       model.Budget{Amount: 10000},
		Transactions: risingSeries("AAA"),
	}
	payload, err := json.Marshal(snap)
	require.NoError(t, err)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 1, pub.calls)

	req, ok := pub.payload.(snapshot.DatabaseSaveRequest)
	require.True(t, ok)
	stamps := req.TableDesc["stamp"]
	require.EqualValues(t, 42_000, stamps["0"])
}

func TestHandleSkipsWhenOrdersActive(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Percent, Number: 0.01}, fixedClock(99_000))

	snap := snapshot.TrendsSnapshot{ActiveOrders: 1, Budget: model.Budget{Amount: 10000}, Transactions: risingSeries("AAA")}
	payload, _ := json.Marshal(snap)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 0, pub.calls)
}

func TestHandleSkipsWhenBudgetNonPositive(t *testing.T) {
	pub := &fakePublisher{}
	w := New(pub, zerolog.Nop(), threshold.Value{Kind: threshold.Percent, Number: 0.01}, fixedClock(99_000))

	snap := snapshot.TrendsSnapshot{Budget: model.Budget{Amount: 0}, Transactions: risingSeries("AAA")}
	payload, _ := json.Marshal(snap)

	require.NoError(t, w.Handle(context.Background(), payload))
	require.Equal(t, 0, pub.calls)
}

func TestBestCandidatePicksHighestTrendAboveThreshold(t *testing.T) {
	txs := append(risingSeries("AAA"), model.Transaction{Symbol: "BBB", Price: 50, Stamp: 0, Volume: 5})
	txs = append(txs, model.Transaction{Symbol: "BBB", Price: 52, Stamp: 3_600_000, Volume: 5})
	txs = append(txs, model.Transaction{Symbol: "BBB", Price: 54, Stamp: 7_200_000, Volume: 5})

	c, ok := bestCandidate(txs, threshold.Value{Kind: threshold.Percent, Number: 0.01})
	require.True(t, ok)
	require.Equal(t, "AAA", c.symbol)
}

func TestBestCandidateNoneClearThreshold(t *testing.T) {
	_, ok := bestCandidate(risingSeries("AAA"), threshold.Value{Kind: threshold.Fixed, Number: 1000})
	require.False(t, ok)
}
