package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/storage/kvstore"
)

func newTestStore(t *testing.T, db kvstore.DB) *Store {
	t.Helper()
	s, err := New(db, 0, nil)
	require.NoError(t, err)
	return s
}

func sampleAsset(salt uint64) market.Asset {
	p := curve.DefaultParams()
	p.SpreadBps = 250
	return market.Asset{
		ID:        assetid.Derive("carol", "MOON", salt),
		Creator:   "carol",
		Symbol:    "MOON",
		Name:      "Moonshot",
		Target:    amount.FromWhole(20),
		Split:     &fees.Split{Creator: 40, Community: 40, Buyback: 20},
		DexSplit:  &fees.Split{Creator: 70, Community: 20, Buyback: 10},
		Curve:     p,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 42, time.UTC),
	}
}

func TestAssetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kvstore.NewMemory())
	want := sampleAsset(1)

	require.NoError(t, s.SaveAsset(ctx, want))

	got, ok, err := s.Asset(ctx, want.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Creator, got.Creator)
	require.Equal(t, want.Symbol, got.Symbol)
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, 0, got.Target.Cmp(want.Target))
	require.Equal(t, want.Split, got.Split)
	require.Equal(t, want.DexSplit, got.DexSplit)
	require.Equal(t, 0, got.Curve.InitialPrice.Cmp(want.Curve.InitialPrice))
	require.Equal(t, 0, got.Curve.K.Cmp(want.Curve.K))
	require.Equal(t, 0, got.Curve.TokenLimit.Cmp(want.Curve.TokenLimit))
	require.Equal(t, want.Curve.SpreadBps, got.Curve.SpreadBps)
	require.True(t, got.CreatedAt.Equal(want.CreatedAt), "created %s, want %s", got.CreatedAt, want.CreatedAt)

	// Never saved: not an error, just absent.
	_, ok, err = s.Asset(ctx, assetid.Derive("nobody", "NONE", 9))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStateRoundTripAndCache(t *testing.T) {
	ctx := context.Background()
	db := kvstore.NewMemory()
	s := newTestStore(t, db)

	id := assetid.Derive("carol", "MOON", 2)
	want := market.TradingState{
		Sold:         amount.FromWhole(1200),
		Raised:       amount.MustParseDecimal("3.25"),
		Open:         false,
		SellsEnabled: true,
		Graduated:    true,
		PoolRef:      "pool-7",
		PositionRef:  "pos-7",
	}
	require.NoError(t, s.SaveState(ctx, id, want))

	// SaveState warms the cache: this read never touches the backend.
	got, ok, err := s.State(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, got.Sold.Cmp(want.Sold))
	stats := s.CacheStats()
	require.EqualValues(t, 1, stats.Hits)
	require.EqualValues(t, 0, stats.Misses)

	// A fresh store over the same backend decodes from disk.
	cold := newTestStore(t, db)
	got, ok, err = cold.State(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, got.Sold.Cmp(want.Sold))
	require.Equal(t, 0, got.Raised.Cmp(want.Raised))
	require.Equal(t, want.Open, got.Open)
	require.Equal(t, want.SellsEnabled, got.SellsEnabled)
	require.Equal(t, want.Graduated, got.Graduated)
	require.Equal(t, want.PoolRef, got.PoolRef)
	require.Equal(t, want.PositionRef, got.PositionRef)
	require.EqualValues(t, 1, cold.CacheStats().Misses)

	// And the decoded state is cached for the next read.
	_, _, err = cold.State(ctx, id)
	require.NoError(t, err)
	require.EqualValues(t, 1, cold.CacheStats().Hits)

	_, ok, err = cold.State(ctx, assetid.Derive("nobody", "NONE", 9))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLoadAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kvstore.NewMemory())

	a1, a2, orphan := sampleAsset(1), sampleAsset(2), sampleAsset(3)
	for _, a := range []market.Asset{a1, a2, orphan} {
		require.NoError(t, s.SaveAsset(ctx, a))
	}
	require.NoError(t, s.SaveState(ctx, a1.ID, market.TradingState{
		Sold: amount.FromWhole(10), Raised: amount.FromWhole(1), Open: true,
	}))
	require.NoError(t, s.SaveState(ctx, a2.ID, market.TradingState{
		Sold: amount.Zero(), Raised: amount.Zero(), Open: true,
	}))

	assets, states, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	require.Len(t, states, 2, "the orphan has no trading state")

	ids := make([]assetid.AssetID, len(assets))
	for i, a := range assets {
		ids[i] = a.ID
	}
	require.ElementsMatch(t, []assetid.AssetID{a1.ID, a2.ID, orphan.ID}, ids)

	st, ok := states[a1.ID]
	require.True(t, ok)
	require.Equal(t, 0, st.Sold.Cmp(amount.FromWhole(10)))
	_, ok = states[orphan.ID]
	require.False(t, ok)
}

func TestFeeLedgerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, kvstore.NewMemory())

	// Nothing written yet.
	_, ok, err := s.LoadFees(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	id := assetid.Derive("carol", "MOON", 4)
	want := fees.Ledger{
		PlatformTotal:   amount.MustParse("600"),
		CommunityTotal:  amount.MustParse("400"),
		BuybackTotal:    amount.MustParse("300"),
		GraduationTotal: amount.MustParseDecimal("0.1"),
		CreatorClaims: map[string]amount.Amount{
			"carol": amount.MustParse("1400"),
		},
		AssetBuyback: map[assetid.AssetID]amount.Amount{
			id: amount.MustParse("300"),
		},
	}
	require.NoError(t, s.SaveFees(ctx, want))

	got, ok, err := s.LoadFees(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, got.PlatformTotal.Cmp(want.PlatformTotal))
	require.Equal(t, 0, got.CommunityTotal.Cmp(want.CommunityTotal))
	require.Equal(t, 0, got.BuybackTotal.Cmp(want.BuybackTotal))
	require.Equal(t, 0, got.GraduationTotal.Cmp(want.GraduationTotal))
	require.Len(t, got.CreatorClaims, 1)
	require.Equal(t, 0, got.CreatorClaims["carol"].Cmp(want.CreatorClaims["carol"]))
	require.Len(t, got.AssetBuyback, 1)
	require.Equal(t, 0, got.AssetBuyback[id].Cmp(want.AssetBuyback[id]))
}

func TestCorruptRecordSurfaces(t *testing.T) {
	ctx := context.Background()
	db := kvstore.NewMemory()
	s := newTestStore(t, db)

	id := assetid.Derive("carol", "MOON", 5)
	require.NoError(t, db.Put(ctx, stateKey(id), []byte("not cbor")))
	_, _, err := s.State(ctx, id)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decoding state")

	require.NoError(t, db.Put(ctx, assetKey(id), []byte("not cbor")))
	_, _, err = s.Asset(ctx, id)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decoding asset")
}
