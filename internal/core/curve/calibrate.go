package curve

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/curvemkt/curved/internal/core/amount"
)

// Calibration helpers solve curve constants from high-level economic
// targets. They use decimal arithmetic on the continuous form of the
// curve; the result is a starting point that operators refine against
// the chunked integral (DefaultTarget), which is the number the engine
// actually realizes.

var ErrTargetBelowFloor = errors.New("curve: target raise below the flat floor of the curve")

var weiPerEth = decimal.New(1, 18)

// SolveK returns the curve coefficient K that makes the continuous
// integral of the price over tokenLimit whole tokens equal targetRaise.
//
//	raise = P0*L + (K/1e18) * (2/5) * L^2.5
//
// solved for K. targetRaise and initialPrice are in wei, tokenLimit in
// whole tokens.
func SolveK(initialPrice, targetRaise amount.Amount, tokenLimit uint64) (*big.Int, error) {
	p0 := decimal.NewFromBigInt(initialPrice.BigInt(), 0)
	raise := decimal.NewFromBigInt(targetRaise.BigInt(), 0)
	limit := decimal.NewFromUint64(tokenLimit)

	floor := p0.Mul(limit)
	if raise.LessThanOrEqual(floor) {
		return nil, ErrTargetBelowFloor
	}

	// L^2.5 = L^2 * sqrt(L)
	l25 := limit.Mul(limit).Mul(sqrtDecimal(limit))

	k := raise.Sub(floor).
		Mul(weiPerEth).
		Mul(decimal.NewFromInt(5)).
		Div(l25.Mul(decimal.NewFromInt(2)))

	return k.Floor().BigInt(), nil
}

// EstimateRaise returns the continuous-integral estimate of the total
// raise for the given params, in wei. The chunked integral realized by
// the engine differs from this by the midpoint-rule bias; both values
// are reported by the params CLI so operators can see the skew.
func EstimateRaise(params Params, tokenLimit uint64) amount.Amount {
	p0 := decimal.NewFromBigInt(params.InitialPrice.BigInt(), 0)
	limit := decimal.NewFromUint64(tokenLimit)
	k := decimal.NewFromBigInt(params.K, 0)

	l25 := limit.Mul(limit).Mul(sqrtDecimal(limit))
	curvePart := k.Mul(l25).Mul(decimal.NewFromInt(2)).
		Div(decimal.NewFromInt(5)).
		Div(weiPerEth)

	total := p0.Mul(limit).Add(curvePart).Floor()
	return amount.MustNew(total.BigInt())
}

// sqrtDecimal computes sqrt(d) via Newton iteration at fixed precision.
func sqrtDecimal(d decimal.Decimal) decimal.Decimal {
	if d.Sign() <= 0 {
		return decimal.Zero
	}

	x := d.Div(decimal.NewFromInt(2)).Add(decimal.NewFromInt(1))
	two := decimal.NewFromInt(2)
	for i := 0; i < 64; i++ {
		next := x.Add(d.DivRound(x, 24)).Div(two)
		if next.Sub(x).Abs().LessThan(decimal.New(1, -18)) {
			return next
		}
		x = next
	}
	return x
}
