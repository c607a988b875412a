package fees

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/ledger"
)

func TestSplitValidation(t *testing.T) {
	require.NoError(t, Split{Creator: 50, Community: 30, Buyback: 20}.Validate())
	require.ErrorIs(t, Split{Creator: 50, Community: 30, Buyback: 21}.Validate(), ErrBadSplit)
	require.ErrorIs(t, Split{Creator: 100, Community: 0, Buyback: 1}.Validate(), ErrBadSplit)
	require.NoError(t, Split{Creator: 100}.Validate())
}

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestSplitConservation(t *testing.T) {
	// The four buckets reassemble the fee within one wei: the
	// platform/adjustable floor division can drop at most one, and the
	// three-way split is exact because buyback is the remainder.
	p := DefaultParams()

	totals := []string{"1", "3", "10", "99", "10000", "1000000000000000001", "333333333333333333"}
	splits := []Split{
		{Creator: 50, Community: 30, Buyback: 20},
		{Creator: 33, Community: 33, Buyback: 34},
		{Creator: 100, Community: 0, Buyback: 0},
		{Creator: 0, Community: 0, Buyback: 100},
		{Creator: 1, Community: 98, Buyback: 1},
	}

	for _, ts := range totals {
		total := amount.MustParse(ts)
		for _, s := range splits {
			b, err := p.SplitTrading(total, &s)
			require.NoError(t, err)

			sum := b.Total()
			require.True(t, sum.LTE(total), "split exceeds fee: %s > %s", sum, total)

			lost := total.MustSub(sum)
			require.True(t, lost.LTE(amount.FromUint64(1)),
				"more than one wei lost: total=%s split=%+v lost=%s", total, s, lost)
		}
	}
}

func TestBuybackAbsorbsResidual(t *testing.T) {
	// 100 wei adjustable, 33/33/34: floors give 33+33, buyback takes
	// the remaining 34 even though 34% of 100 is exactly 34 here; with
	// 101 wei the residual lands in buyback.
	p := Params{
		FixedPlatformBps: 0,
		AdjustableBps:    BpsDenom,
		DefaultSplit:     Split{Creator: 33, Community: 33, Buyback: 34},
	}

	b, err := p.SplitTrading(amount.FromUint64(101), nil)
	require.NoError(t, err)

	require.Equal(t, 0, b.Creator.Cmp(amount.FromUint64(33)))
	require.Equal(t, 0, b.Community.Cmp(amount.FromUint64(33)))
	require.Equal(t, 0, b.Buyback.Cmp(amount.FromUint64(35))) // 101-33-33
	require.Equal(t, 0, b.Total().Cmp(amount.FromUint64(101)))
}

func TestSplitRejectsBadConfig(t *testing.T) {
	p := DefaultParams()
	bad := Split{Creator: 60, Community: 30, Buyback: 20}
	_, err := p.SplitTrading(amount.FromUint64(1000), &bad)
	require.ErrorIs(t, err, ErrBadSplit)
}

func TestDexSplitUsesOwnPlatformCut(t *testing.T) {
	p := DefaultParams()
	total := amount.FromUint64(10000)

	trading, err := p.SplitTrading(total, nil)
	require.NoError(t, err)
	dex, err := p.SplitDex(total, nil)
	require.NoError(t, err)

	require.Equal(t, 0, trading.Platform.Cmp(amount.FromUint64(5000)))
	require.Equal(t, 0, dex.Platform.Cmp(amount.FromUint64(2000)))
}

func newTestDistributor(t *testing.T) (*Distributor, *ledger.MemoryNative) {
	t.Helper()
	native := ledger.NewMemoryNative()
	d := NewDistributor(DefaultParams(), native, "vault", nil, nil)
	return d, native
}

func TestClaimCreatorZeroBeforeTransfer(t *testing.T) {
	ctx := context.Background()
	d, native := newTestDistributor(t)
	asset := assetid.Derive("alice", "MOON", 1)

	fee := amount.FromUint64(10000)
	require.NoError(t, native.Credit(ctx, "vault", fee))

	_, err := d.DistributeTrading(fee, nil, "alice", asset)
	require.NoError(t, err)

	// 50% adjustable, 50% of that to the creator.
	want := amount.FromUint64(2500)
	require.Equal(t, 0, d.CreatorBalance("alice").Cmp(want))

	claimed, err := d.ClaimCreator(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 0, claimed.Cmp(want))

	got, _ := native.BalanceOf(ctx, "alice")
	require.Equal(t, 0, got.Cmp(want))

	// Second claim is a no-op: the balance was zeroed before paying.
	claimed, err = d.ClaimCreator(ctx, "alice")
	require.NoError(t, err)
	require.True(t, claimed.IsZero())

	got, _ = native.BalanceOf(ctx, "alice")
	require.Equal(t, 0, got.Cmp(want), "second claim moved funds")
}

func TestClaimRestoredOnTransferFailure(t *testing.T) {
	ctx := context.Background()
	native := ledger.NewMemoryNative()
	d := NewDistributor(DefaultParams(), native, "vault", nil, nil)
	asset := assetid.Derive("alice", "MOON", 1)

	// Credit the ledger but not the vault: the payout transfer fails.
	_, err := d.DistributeTrading(amount.FromUint64(10000), nil, "alice", asset)
	require.NoError(t, err)

	before := d.CreatorBalance("alice")
	require.True(t, before.IsPositive())

	_, err = d.ClaimCreator(ctx, "alice")
	require.Error(t, err)

	// Balance restored: the claim can be retried.
	require.Equal(t, 0, d.CreatorBalance("alice").Cmp(before))
}

func TestNoCreatorRoutesToCommunity(t *testing.T) {
	d, _ := newTestDistributor(t)
	asset := assetid.Derive("alice", "MOON", 1)

	b, err := d.DistributeTrading(amount.FromUint64(10000), nil, "", asset)
	require.NoError(t, err)

	snap := d.Snapshot()
	require.Equal(t, 0, snap.CommunityTotal.Cmp(b.Community.Add(b.Creator)),
		"creator share should fall back to community")
	require.Empty(t, snap.CreatorClaims)
}

func TestWithdrawBuybackPerAsset(t *testing.T) {
	ctx := context.Background()
	d, native := newTestDistributor(t)
	a1 := assetid.Derive("alice", "MOON", 1)
	a2 := assetid.Derive("bob", "DOGE", 1)

	require.NoError(t, native.Credit(ctx, "vault", amount.FromUint64(100000)))

	_, err := d.DistributeTrading(amount.FromUint64(10000), nil, "alice", a1)
	require.NoError(t, err)
	_, err = d.DistributeTrading(amount.FromUint64(20000), nil, "bob", a2)
	require.NoError(t, err)

	// a1 buyback: 10000 * 50% adjustable * 20% = 1000.
	got, err := d.WithdrawBuyback(ctx, a1, "executor")
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(amount.FromUint64(1000)))

	// a2's sub-balance is untouched.
	snap := d.Snapshot()
	require.Equal(t, 0, snap.AssetBuyback[a2].Cmp(amount.FromUint64(2000)))
	require.True(t, snap.AssetBuyback[a1].IsZero())

	// Repeated withdraw is a no-op.
	got, err = d.WithdrawBuyback(ctx, a1, "executor")
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestWithdrawPlatformIncludesGraduationFees(t *testing.T) {
	ctx := context.Background()
	d, native := newTestDistributor(t)
	asset := assetid.Derive("alice", "MOON", 1)

	require.NoError(t, native.Credit(ctx, "vault", amount.FromUint64(100000)))

	_, err := d.DistributeTrading(amount.FromUint64(10000), nil, "alice", asset)
	require.NoError(t, err)
	d.AddGraduationFee(amount.FromUint64(700))

	got, err := d.WithdrawPlatform(ctx, "treasury")
	require.NoError(t, err)
	require.Equal(t, 0, got.Cmp(amount.FromUint64(5700))) // 5000 platform + 700 graduation

	snap := d.Snapshot()
	require.True(t, snap.PlatformTotal.IsZero())
	require.True(t, snap.GraduationTotal.IsZero())
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	d, _ := newTestDistributor(t)
	asset := assetid.Derive("alice", "MOON", 1)

	_, err := d.DistributeTrading(amount.FromUint64(12345), nil, "alice", asset)
	require.NoError(t, err)
	d.AddGraduationFee(amount.FromUint64(42))

	snap := d.Snapshot()

	d2, _ := newTestDistributor(t)
	d2.Restore(snap)

	snap2 := d2.Snapshot()
	require.Equal(t, 0, snap.PlatformTotal.Cmp(snap2.PlatformTotal))
	require.Equal(t, 0, snap.GraduationTotal.Cmp(snap2.GraduationTotal))
	require.Equal(t, 0, snap.CreatorClaims["alice"].Cmp(snap2.CreatorClaims["alice"]))
	require.Equal(t, 0, snap.AssetBuyback[asset].Cmp(snap2.AssetBuyback[asset]))
}
