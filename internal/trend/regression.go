package trend

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// pseudoInverseEpsilon is the singular-value floor below which a
// component is treated as noise and dropped from the pseudo-inverse,
// the standard guard against a near-singular normal-equation matrix
// (e.g. a symbol whose volume column is constant).
const pseudoInverseEpsilon = 1e-10

// Observation is one transaction reduced to the regression's inputs:
// hours since the window's first transaction, signed volume, and the
// observed price.
type Observation struct {
	StampHours float64
	Volume     float64
	Price      float64
}

// Fit solves price ~ 1 + stamp_hours + volume by ordinary least
// squares via the normal equation and a pseudo-inverse, then predicts
// price at firstHours and lastHours holding volume at 1, returning the
// absolute and relative trend between those two predictions along
// with the predicted price at lastHours (the order price a caller
// proposing a buy should use).
func Fit(obs []Observation, firstHours, lastHours float64) (absolute, relative, priceAtLast float64, err error) {
	n := len(obs)
	if n < 3 {
		return 0, 0, 0, fmt.Errorf("trend: need at least 3 observations, got %d", n)
	}

	x := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i, o := range obs {
		x.SetRow(i, []float64{1, o.StampHours, o.Volume})
		y.Set(i, 0, o.Price)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	var xty mat.Dense
	xty.Mul(x.T(), y)

	pinv, err := pseudoInverse(&xtx)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("trend: pseudo-inverse: %w", err)
	}

	var beta mat.Dense
	beta.Mul(pinv, &xty)
	b0, b1, b2 := beta.At(0, 0), beta.At(1, 0), beta.At(2, 0)

	predict := func(hours float64) float64 {
		return b0 + b1*hours + b2*1.0
	}

	priceFirst := predict(firstHours)
	priceLast := predict(lastHours)

	absolute = priceLast - priceFirst
	if priceLast == 0 {
		return absolute, 0, priceLast, nil
	}
	relative = absolute / priceLast
	return absolute, relative, priceLast, nil
}

// pseudoInverse computes the Moore-Penrose pseudo-inverse of a via its
// singular value decomposition, zeroing reciprocals of singular
// values at or below pseudoInverseEpsilon.
func pseudoInverse(a *mat.Dense) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDFull); !ok {
		return nil, fmt.Errorf("svd factorization failed")
	}

	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	r, _ := a.Dims()
	sInv := mat.NewDense(r, r, nil)
	for i, s := range values {
		if s > pseudoInverseEpsilon {
			sInv.Set(i, i, 1/s)
		}
	}

	var vsInv mat.Dense
	vsInv.Mul(&v, sInv)
	var pinv mat.Dense
	pinv.Mul(&vsInv, u.T())
	return &pinv, nil
}
