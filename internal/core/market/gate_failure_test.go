package market_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/gate"
	"github.com/curvemkt/curved/internal/testutil"
	"github.com/curvemkt/curved/internal/testutil/mocks"
)

var errGateDown = errors.New("gate backend unreachable")

// requireBalance asserts an account's native balance in whole ETH.
func requireBalance(t *testing.T, env *testutil.Env, account string, whole uint64) {
	t.Helper()
	bal, err := env.Native.BalanceOf(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Cmp(amount.FromWhole(whole)), "balance %s", bal.Decimal())
}

func TestBuyPauseCheckFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	g := mocks.NewMockGate(ctrl)
	env := testutil.NewEnv(t, testutil.WithGate(g))
	asset := env.Launch("alice", "WIDGET", 1)
	env.Fund("bob", 10)

	g.EXPECT().Paused(gomock.Any()).Return(false, errGateDown)

	rcpt := env.Buy("bob", asset.ID, 1)
	require.Equal(t, market.ErrInternal, rcpt.Result)
	requireBalance(t, env, "bob", 10)
}

func TestBuyValidateFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	g := mocks.NewMockGate(ctrl)
	env := testutil.NewEnv(t, testutil.WithGate(g))
	asset := env.Launch("alice", "WIDGET", 1)
	env.Fund("bob", 10)

	t.Run("gate error is internal", func(t *testing.T) {
		g.EXPECT().Paused(gomock.Any()).Return(false, nil)
		g.EXPECT().ValidateBuy(gomock.Any(), asset.ID, "bob", gomock.Any()).
			Return(false, errGateDown)

		rcpt := env.Buy("bob", asset.ID, 1)
		require.Equal(t, market.ErrInternal, rcpt.Result)
	})

	t.Run("gate refusal is a rejection", func(t *testing.T) {
		g.EXPECT().Paused(gomock.Any()).Return(false, nil)
		g.EXPECT().ValidateBuy(gomock.Any(), asset.ID, "bob", gomock.Any()).
			Return(false, nil)

		rcpt := env.Buy("bob", asset.ID, 1)
		require.Equal(t, market.RejGateBlocked, rcpt.Result)
	})

	requireBalance(t, env, "bob", 10)
}

func TestBuyFairLaunchLookupFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	g := mocks.NewMockGate(ctrl)
	env := testutil.NewEnv(t, testutil.WithGate(g))
	asset := env.Launch("alice", "WIDGET", 1)
	env.Fund("bob", 10)

	g.EXPECT().Paused(gomock.Any()).Return(false, nil)
	g.EXPECT().ValidateBuy(gomock.Any(), asset.ID, "bob", gomock.Any()).Return(true, nil)
	g.EXPECT().FairLaunch(gomock.Any(), asset.ID, "bob").
		Return(gate.FairLaunch{}, errGateDown)

	rcpt := env.Buy("bob", asset.ID, 1)
	require.Equal(t, market.ErrInternal, rcpt.Result)
	requireBalance(t, env, "bob", 10)
}

// A fill-record failure must not void a settled trade; the gate's cap
// tracking degrades, the buy stands.
func TestBuyStandsWhenFillRecordFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	g := mocks.NewMockGate(ctrl)
	env := testutil.NewEnv(t, testutil.WithGate(g))
	asset := env.Launch("alice", "WIDGET", 1)
	env.Fund("bob", 10)

	g.EXPECT().Paused(gomock.Any()).Return(false, nil)
	g.EXPECT().ValidateBuy(gomock.Any(), asset.ID, "bob", gomock.Any()).Return(true, nil)
	g.EXPECT().FairLaunch(gomock.Any(), asset.ID, "bob").Return(gate.FairLaunch{}, nil)
	g.EXPECT().RecordFill(gomock.Any(), asset.ID, "bob", gomock.Any()).Return(errGateDown)

	rcpt := env.Buy("bob", asset.ID, 1)
	require.Equal(t, market.OK, rcpt.Result, rcpt.Result.Message())
	require.True(t, rcpt.Tokens.IsPositive())

	got, err := env.Tokens.BalanceOf(context.Background(), asset.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(rcpt.Tokens))
}

// The gate's fair-launch override bypasses the curve: tokens price at
// the window's fixed rate and cap at the wallet's remaining allowance.
func TestBuyHonorsFairLaunchWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	g := mocks.NewMockGate(ctrl)
	env := testutil.NewEnv(t, testutil.WithGate(g))
	asset := env.Launch("alice", "WIDGET", 1)
	env.Fund("bob", 10)

	// 0.01 ETH per token, wallet may take 50 more.
	price := amount.MustParseDecimal("0.01")
	capLeft := amount.FromWhole(50)

	g.EXPECT().Paused(gomock.Any()).Return(false, nil)
	g.EXPECT().ValidateBuy(gomock.Any(), asset.ID, "bob", gomock.Any()).Return(true, nil)
	g.EXPECT().FairLaunch(gomock.Any(), asset.ID, "bob").
		Return(gate.FairLaunch{Active: true, Price: price, Remaining: capLeft}, nil)
	g.EXPECT().RecordFill(gomock.Any(), asset.ID, "bob", capLeft).Return(nil)

	// 1 ETH gross, 0.99 net would afford 99 tokens at the fixed price;
	// the wallet cap trims it to 50.
	rcpt := env.Buy("bob", asset.ID, 1)
	require.Equal(t, market.OK, rcpt.Result, rcpt.Result.Message())
	require.True(t, rcpt.FairLaunch)
	require.Equal(t, 0, rcpt.Tokens.Cmp(capLeft))
	require.Equal(t, 0, rcpt.Spent.Cmp(curve.CostAtPrice(price, capLeft)))
	require.True(t, rcpt.Refund.IsPositive())
}
