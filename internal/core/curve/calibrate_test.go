package curve

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curvemkt/curved/internal/core/amount"
)

func TestSolveKRecoversDefault(t *testing.T) {
	// Solving K for the continuous estimate of the default params should
	// land close to the configured K.
	params := DefaultParams()
	estimate := EstimateRaise(params, 400_000)

	k, err := SolveK(params.InitialPrice, estimate, 400_000)
	require.NoError(t, err)

	// Within 0.1% of the configured coefficient.
	diff := new(big.Int).Sub(k, params.K)
	diff.Abs(diff).Mul(diff, big.NewInt(1000))
	require.True(t, diff.Cmp(params.K) < 0,
		"solved K %s too far from configured %s", k, params.K)
}

func TestSolveKRejectsFloorTarget(t *testing.T) {
	params := DefaultParams()

	// 400k tokens at the flat initial price raise exactly 4; anything at
	// or below that leaves nothing for the curve term.
	floor := amount.MustParse("4000000000000000000")
	_, err := SolveK(params.InitialPrice, floor, 400_000)
	require.ErrorIs(t, err, ErrTargetBelowFloor)
}

func TestEstimateRaiseAboveChunked(t *testing.T) {
	params := DefaultParams()
	e := New(params)

	continuous := EstimateRaise(params, 400_000)
	chunked := e.DefaultTarget()
	require.True(t, continuous.GT(chunked))
}
