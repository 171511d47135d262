package trend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFitRecoversLinearTrend(t *testing.T) {
	// price = 100 + 10*hours with volume held at 10. A constant volume
	// column is collinear with the intercept, so the pseudo-inverse's
	// minimum-norm solution splits the level 100 between them
	// (b0 = 100/101, b2 = 1000/101). The slope is recovered exactly, but
	// the price predicted at volume 1 is 1100/101 + 10*hours, so the
	// last-stamp prediction is 3120/101 (about 30.89), not 120.
	obs := []Observation{
		{StampHours: 0, Volume: 10, Price: 100},
		{StampHours: 1, Volume: 10, Price: 110},
		{StampHours: 2, Volume: 10, Price: 120},
	}

	absolute, relative, priceAtLast, err := Fit(obs, 0, 2)
	require.NoError(t, err)
	require.InDelta(t, 20.0, absolute, 1e-6)
	require.InDelta(t, 20.0/(3120.0/101.0), relative, 1e-6)
	require.InDelta(t, 3120.0/101.0, priceAtLast, 1e-6)
}

func TestFitRejectsTooFewObservations(t *testing.T) {
	_, _, _, err := Fit([]Observation{{StampHours: 0, Volume: 1, Price: 1}}, 0, 1)
	require.Error(t, err)
}

func TestFitFlatPriceYieldsZeroTrend(t *testing.T) {
	obs := []Observation{
		{StampHours: 0, Volume: 10, Price: 100},
		{StampHours: 1, Volume: -5, Price: 100},
		{StampHours: 2, Volume: 10, Price: 100},
	}

	absolute, relative, priceAtLast, err := Fit(obs, 0, 2)
	require.NoError(t, err)
	require.InDelta(t, 0.0, absolute, 1e-6)
	require.InDelta(t, 0.0, relative, 1e-6)
	require.InDelta(t, 100.0, priceAtLast, 1e-6)
}
