package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/gate"
	"github.com/curvemkt/curved/internal/ledger"
	"github.com/curvemkt/curved/internal/registry"
)

// capturePub records published events for assertions.
type capturePub struct {
	created   []events.AssetCreatedEvent
	trades    []events.TradeEvent
	grads     []events.GraduationEvent
	gradFails []events.GraduationFailedEvent
	claims    []events.ClaimEvent
}

func (p *capturePub) PublishAssetCreated(e *events.AssetCreatedEvent) { p.created = append(p.created, *e) }
func (p *capturePub) PublishTrade(e *events.TradeEvent)               { p.trades = append(p.trades, *e) }
func (p *capturePub) PublishGraduation(e *events.GraduationEvent)     { p.grads = append(p.grads, *e) }
func (p *capturePub) PublishGraduationFailed(e *events.GraduationFailedEvent) {
	p.gradFails = append(p.gradFails, *e)
}
func (p *capturePub) PublishClaim(e *events.ClaimEvent) { p.claims = append(p.claims, *e) }

type fixture struct {
	m      *Machine
	tokens *ledger.MemoryTokens
	native *ledger.MemoryNative
	dist   *fees.Distributor
	reg    *registry.Memory
	pub    *capturePub
}

func newFixture(t *testing.T, g gate.Gate) *fixture {
	t.Helper()
	f := &fixture{
		tokens: ledger.NewMemoryTokens(),
		native: ledger.NewMemoryNative(),
		reg:    registry.NewMemory(),
		pub:    &capturePub{},
	}
	f.dist = fees.NewDistributor(fees.DefaultParams(), f.native, "vault", nil, nil)
	f.m = NewMachine(DefaultConfig(), Deps{
		Tokens:   f.tokens,
		Native:   f.native,
		Fees:     f.dist,
		Gate:     g,
		Events:   f.pub,
		Recorder: f.reg,
		Creators: f.reg,
	})
	return f
}

func (f *fixture) fund(t *testing.T, account string, eth uint64) {
	t.Helper()
	require.NoError(t, f.native.Credit(context.Background(), account, amount.FromWhole(eth)))
}

func (f *fixture) list(t *testing.T) Asset {
	t.Helper()
	a, res := f.m.CreateAsset(context.Background(), AssetDef{
		Creator: "carol", Symbol: "MOON", Name: "Moonshot", Salt: 1,
	})
	require.Equal(t, OK, res, res.Message())
	return a
}

func eth(whole uint64) amount.Amount { return amount.FromWhole(whole) }

func TestCreateAsset(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a := f.list(t)
	require.Equal(t, "MOON", a.Symbol)
	require.True(t, a.Target.GT(eth(19)) && a.Target.LT(eth(21)),
		"default target should sit near the full-allocation raise, got %s", a.Target.Decimal())

	_, st, ok := f.m.State(a.ID)
	require.True(t, ok)
	require.True(t, st.Open)
	require.False(t, st.SellsEnabled)
	require.True(t, st.Sold.IsZero())
	require.True(t, st.Raised.IsZero())

	// The escrow holds the curve allocation plus the pool reserve.
	minted, err := f.tokens.BalanceOf(ctx, a.ID, "curve:escrow")
	require.NoError(t, err)
	require.True(t, minted.GT(a.Curve.TokenLimit), "pool reserve missing from the mint")

	_, res := f.m.CreateAsset(ctx, AssetDef{Creator: "carol", Symbol: "MOON", Salt: 1})
	require.Equal(t, RejDuplicateAsset, res)

	_, res = f.m.CreateAsset(ctx, AssetDef{Creator: "carol", Symbol: ""})
	require.Equal(t, RejBadSymbol, res)

	_, res = f.m.CreateAsset(ctx, AssetDef{Creator: "", Symbol: "X"})
	require.Equal(t, RejNoAccount, res)

	bad := fees.Split{Creator: 70, Community: 70, Buyback: 70}
	_, res = f.m.CreateAsset(ctx, AssetDef{Creator: "carol", Symbol: "X", Split: &bad})
	require.Equal(t, RejBadSplit, res)

	require.Len(t, f.pub.created, 1)
	require.Len(t, f.reg.Launches(), 1)
}

func TestCreateAssetRejectsTargetBelowFloor(t *testing.T) {
	f := newFixture(t, nil)

	// The flat part of the curve alone raises 4 ETH over the full
	// allocation; no K can hit a smaller target.
	_, res := f.m.CreateAsset(context.Background(), AssetDef{
		Creator: "carol", Symbol: "TINY", Target: eth(1),
	})
	require.Equal(t, RejBadParams, res)
}

func TestBuyHappyPath(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)

	in := eth(1)
	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: in})
	require.Equal(t, OK, rcpt.Result, rcpt.Result.Message())
	require.True(t, rcpt.Tokens.IsPositive())

	// Gross in = curve spend + fee + refund, always.
	total := rcpt.Spent.Add(rcpt.Fee).Add(rcpt.Refund)
	require.Equal(t, 0, total.Cmp(in))

	// 1% of the gross.
	wantFee, _ := in.MulDiv(100, fees.BpsDenom)
	require.Equal(t, 0, rcpt.Fee.Cmp(wantFee))

	// Buyer paid spend+fee net of refund and holds the tokens.
	bal, _ := f.native.BalanceOf(ctx, "alice")
	require.Equal(t, 0, bal.Cmp(eth(10).MustSub(rcpt.Spent).MustSub(rcpt.Fee)))
	held, _ := f.tokens.BalanceOf(ctx, a.ID, "alice")
	require.Equal(t, 0, held.Cmp(rcpt.Tokens))

	// The escrow retains exactly the raise; the fee sits in the vault.
	escrow, _ := f.native.BalanceOf(ctx, "curve:escrow")
	require.Equal(t, 0, escrow.Cmp(rcpt.Spent))
	vault, _ := f.native.BalanceOf(ctx, "vault")
	require.Equal(t, 0, vault.Cmp(rcpt.Fee))

	_, st, _ := f.m.State(a.ID)
	require.Equal(t, 0, st.Sold.Cmp(rcpt.Tokens))
	require.Equal(t, 0, st.Raised.Cmp(rcpt.Spent))
	require.True(t, st.Open)

	// The creator share accrued from the distributed fee.
	require.True(t, f.dist.CreatorBalance("carol").IsPositive())

	require.Len(t, f.pub.trades, 1)
	require.Equal(t, events.SideBuy, f.pub.trades[0].Side)
	require.Len(t, f.reg.Trades(), 1)
}

func TestBuySlippageLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)

	quote, res := f.m.QuoteBuy(a.ID, eth(1))
	require.Equal(t, OK, res)

	rcpt := f.m.Buy(ctx, BuyRequest{
		Asset: a.ID, Buyer: "alice", EthIn: eth(1),
		MinTokensOut: quote.Tokens.Add(amount.FromWhole(1)),
	})
	require.Equal(t, EconSlippage, rcpt.Result)

	_, st, _ := f.m.State(a.ID)
	require.True(t, st.Sold.IsZero())
	require.True(t, st.Raised.IsZero())
	bal, _ := f.native.BalanceOf(ctx, "alice")
	require.Equal(t, 0, bal.Cmp(eth(10)), "rejected buy moved funds")
}

func TestBuyValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice"})
	require.Equal(t, RejZeroAmount, rcpt.Result)

	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(51)})
	require.Equal(t, RejOverTxCap, rcpt.Result)

	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "", EthIn: eth(1)})
	require.Equal(t, RejNoAccount, rcpt.Result)

	var unknown = a
	unknown.ID[0] ^= 0xff
	rcpt = f.m.Buy(ctx, BuyRequest{Asset: unknown.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, RejUnknownAsset, rcpt.Result)
}

func TestBuyInsufficientFunds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "pauper", EthIn: eth(1)})
	require.Equal(t, EconInsufficientFunds, rcpt.Result)

	_, st, _ := f.m.State(a.ID)
	require.True(t, st.Sold.IsZero())
	require.True(t, st.Raised.IsZero())
}

func TestBuyPaused(t *testing.T) {
	w := gate.NewWindow(gate.WindowConfig{})
	f := newFixture(t, w)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)

	w.SetPaused(true)
	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, RejPaused, rcpt.Result)

	w.SetPaused(false)
	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)
}

func TestSellRequiresEnable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)

	sell := f.m.Sell(ctx, SellRequest{Asset: a.ID, Seller: "alice", Tokens: rcpt.Tokens})
	require.Equal(t, RejSellsDisabled, sell.Result)

	require.Equal(t, OK, f.m.SetSellsEnabled(ctx, a.ID, true))
	sell = f.m.Sell(ctx, SellRequest{Asset: a.ID, Seller: "alice", Tokens: rcpt.Tokens})
	require.Equal(t, OK, sell.Result, sell.Result.Message())
}

func TestRoundTripCostsMoney(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)
	require.Equal(t, OK, f.m.SetSellsEnabled(ctx, a.ID, true))

	buy := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(2)})
	require.Equal(t, OK, buy.Result)

	sell := f.m.Sell(ctx, SellRequest{Asset: a.ID, Seller: "alice", Tokens: buy.Tokens})
	require.Equal(t, OK, sell.Result, sell.Result.Message())

	// Fee both ways plus the sell spread: the unwind must lose money.
	paid := buy.Spent.Add(buy.Fee)
	require.True(t, sell.Proceeds.LT(paid),
		"round trip paid %s, got back %s", paid, sell.Proceeds)

	_, st, _ := f.m.State(a.ID)
	require.True(t, st.Sold.IsZero())
	require.Equal(t, 0, st.Raised.Cmp(buy.Spent.MustSub(sell.Gross)))
}

func TestSellValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)
	require.Equal(t, OK, f.m.SetSellsEnabled(ctx, a.ID, true))

	buy := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, buy.Result)

	sell := f.m.Sell(ctx, SellRequest{Asset: a.ID, Seller: "alice"})
	require.Equal(t, RejZeroAmount, sell.Result)

	sell = f.m.Sell(ctx, SellRequest{
		Asset: a.ID, Seller: "alice", Tokens: buy.Tokens.Add(amount.FromWhole(10)),
	})
	require.Equal(t, RejExceedsSold, sell.Result)

	// A seller without the tokens is refused on settlement.
	sell = f.m.Sell(ctx, SellRequest{Asset: a.ID, Seller: "mallory", Tokens: buy.Tokens})
	require.Equal(t, EconInsufficientFunds, sell.Result)

	// Slippage floor above the quote.
	quote, res := f.m.QuoteSell(a.ID, buy.Tokens)
	require.Equal(t, OK, res)
	sell = f.m.Sell(ctx, SellRequest{
		Asset: a.ID, Seller: "alice", Tokens: buy.Tokens,
		MinEthOut: quote.Proceeds.Add(amount.FromUint64(1)),
	})
	require.Equal(t, EconSlippage, sell.Result)

	_, st, _ := f.m.State(a.ID)
	require.Equal(t, 0, st.Sold.Cmp(buy.Tokens), "failed sells must not touch state")
}

func TestSellCappedByRaise(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// Restore a state whose raise understates the trapezoid proceeds;
	// the unsigned accumulator must refuse rather than underflow.
	params := curve.DefaultParams()
	asset := Asset{
		ID:      assetid.Derive("carol", "RIG", 9),
		Creator: "carol",
		Symbol:  "RIG",
		Target:  eth(20),
		Curve:   params,
	}
	require.Equal(t, OK, f.m.Restore(asset, TradingState{
		Sold:         amount.FromWhole(50_000),
		Raised:       amount.FromUint64(1), // pathological
		Open:         true,
		SellsEnabled: true,
	}))
	require.NoError(t, f.tokens.Mint(ctx, asset.ID, "seller", amount.FromWhole(50_000)))

	sell := f.m.Sell(ctx, SellRequest{Asset: asset.ID, Seller: "seller", Tokens: amount.FromWhole(40_000)})
	require.Equal(t, EconExceedsRaise, sell.Result)
}

func TestSupplySellOutClosesAndDefersGraduation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "whale", 100)

	// Net 20.79 ETH clears the full-allocation cost, so the walk stops
	// exactly at the ceiling and spends exactly the default target.
	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "whale", EthIn: eth(21)})
	require.Equal(t, OkGraduationPending, rcpt.Result, rcpt.Result.Message())
	require.Equal(t, 0, rcpt.Tokens.Cmp(a.Curve.TokenLimit))
	require.Equal(t, 0, rcpt.Spent.Cmp(a.Target))
	require.True(t, rcpt.Refund.IsPositive())
	require.False(t, rcpt.Graduated)

	_, st, _ := f.m.State(a.ID)
	require.False(t, st.Open)
	require.False(t, st.Graduated)
	require.Equal(t, 0, st.Sold.Cmp(a.Curve.TokenLimit))
	require.Equal(t, 0, st.Raised.Cmp(a.Target))

	require.Len(t, f.pub.gradFails, 1)

	// Closed means closed.
	again := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "whale", EthIn: eth(1)})
	require.Equal(t, RejNotOpen, again.Result)
}

func TestTargetCrossingClosesBelowSupply(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	params := curve.DefaultParams()
	a, res := f.m.CreateAsset(ctx, AssetDef{
		Creator: "carol", Symbol: "FAST", Salt: 2,
		Target: eth(10), Curve: &params,
	})
	require.Equal(t, OK, res)
	f.fund(t, "whale", 100)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "whale", EthIn: eth(11)})
	require.Equal(t, OkGraduationPending, rcpt.Result, rcpt.Result.Message())
	require.True(t, rcpt.Raised.GTE(eth(10)))
	require.True(t, rcpt.Sold.LT(params.TokenLimit), "target should trip before the supply cap")

	_, st, _ := f.m.State(a.ID)
	require.False(t, st.Open)
}

func TestReentrantBuyRejected(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)

	var inner *BuyReceipt
	f.native.SetTransferHook(func(from, to string, amt amount.Amount) {
		// React to the refund leg only, once.
		if inner != nil || from != "curve:escrow" || to != "alice" {
			return
		}
		r := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
		inner = &r
	})

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)
	require.True(t, rcpt.Refund.IsPositive(), "test needs a refund leg to re-enter through")

	require.NotNil(t, inner, "re-entrant call never happened")
	require.Equal(t, RejBusy, inner.Result)

	// Only the outer buy committed.
	_, st, _ := f.m.State(a.ID)
	require.Equal(t, 0, st.Sold.Cmp(rcpt.Tokens))
	require.Equal(t, 0, st.Raised.Cmp(rcpt.Spent))
}

func TestFairLaunchWindow(t *testing.T) {
	w := gate.NewWindow(gate.WindowConfig{
		SniperBlock:     2 * time.Minute,
		FairLaunch:      time.Hour,
		FairLaunchPrice: amount.MustParse("20000000000000"), // 2e13 wei per token
		WalletCap:       amount.FromWhole(1_000),
	})
	f := newFixture(t, w)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }
	w.SetClock(clock)
	f.m.SetClock(clock)

	a := f.list(t)
	f.fund(t, "alice", 10)
	f.fund(t, "bob", 10)

	// Inside the sniper block every buy is refused.
	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, RejGateBlocked, rcpt.Result)

	// Fair launch: fixed price, wallet cap, refund of the unused net.
	now = base.Add(5 * time.Minute)
	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result, rcpt.Result.Message())
	require.True(t, rcpt.FairLaunch)
	require.Equal(t, 0, rcpt.Tokens.Cmp(amount.FromWhole(1_000)))
	require.Equal(t, 0, rcpt.Spent.Cmp(amount.MustParse("20000000000000000"))) // 1000 * 2e13

	// The wallet is full; the same buyer gets nothing more.
	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, EconNoTokens, rcpt.Result)

	// Another wallet has its own cap.
	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "bob", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)
	require.Equal(t, 0, rcpt.Tokens.Cmp(amount.FromWhole(1_000)))

	// After the window the curve takes over.
	now = base.Add(2 * time.Hour)
	rcpt = f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)
	require.False(t, rcpt.FairLaunch)
}

func TestQuoteMatchesExecution(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)
	require.Equal(t, OK, f.m.SetSellsEnabled(ctx, a.ID, true))

	quote, res := f.m.QuoteBuy(a.ID, eth(1))
	require.Equal(t, OK, res)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)
	require.Equal(t, 0, quote.Tokens.Cmp(rcpt.Tokens))
	require.Equal(t, 0, quote.Spend.Cmp(rcpt.Spent))
	require.Equal(t, 0, quote.Fee.Cmp(rcpt.Fee))
	require.Equal(t, 0, quote.Refund.Cmp(rcpt.Refund))
	require.Equal(t, 0, quote.PriceAfter.Cmp(rcpt.PriceAfter))

	squote, res := f.m.QuoteSell(a.ID, rcpt.Tokens)
	require.Equal(t, OK, res)

	sell := f.m.Sell(ctx, SellRequest{Asset: a.ID, Seller: "alice", Tokens: rcpt.Tokens})
	require.Equal(t, OK, sell.Result)
	require.Equal(t, 0, squote.Proceeds.Cmp(sell.Proceeds))
	require.Equal(t, 0, squote.Gross.Cmp(sell.Gross))
	require.Equal(t, 0, squote.Fee.Cmp(sell.Fee))
}

func TestCloseIsUnconditional(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a := f.list(t)
	f.fund(t, "alice", 10)

	require.Equal(t, OK, f.m.Close(ctx, a.ID))
	_, st, _ := f.m.State(a.ID)
	require.False(t, st.Open)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, RejNotOpen, rcpt.Result)

	// Closing twice stays closed.
	require.Equal(t, OK, f.m.Close(ctx, a.ID))
}

func TestCreatorLookupFailureRoutesToCommunity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	// A recorder that was never told about the launch: the lookup
	// yields no creator, and the creator share lands with the
	// community instead of blocking the buy.
	f.m.deps.Creators = registry.NewMemory()

	a := f.list(t)
	f.fund(t, "alice", 10)

	rcpt := f.m.Buy(ctx, BuyRequest{Asset: a.ID, Buyer: "alice", EthIn: eth(1)})
	require.Equal(t, OK, rcpt.Result)
	require.True(t, f.dist.CreatorBalance("carol").IsZero())

	snap := f.dist.Snapshot()
	require.True(t, snap.CommunityTotal.IsPositive())
}
