// Package testutil wires complete in-memory trading stacks for tests:
// machine, fee distributor, venue, graduation coordinator, memory
// ledgers and a capturing event publisher. Engine packages keep their
// own internal fixtures; this package serves tests that sit outside the
// engine (failure injection through mocks, RPC surfaces, integration).
//
// Basic usage:
//
//	env := testutil.NewEnv(t)
//	asset := env.Launch("alice", "WIDGET", 1)
//	env.Fund("bob", 10)
//	rcpt := env.Buy("bob", asset.ID, 1)
//
// External collaborators can be swapped before wiring, typically for
// gomock instances from testutil/mocks:
//
//	env := testutil.NewEnv(t, testutil.WithGate(mockGate))
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/graduation"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/gate"
	"github.com/curvemkt/curved/internal/ledger"
	"github.com/curvemkt/curved/internal/registry"
	"github.com/curvemkt/curved/internal/venue"
)

// Vault is the fee account every Env distributor pays into.
const Vault = "curve:vault"

// Capture is an events.Publisher that records everything it sees.
type Capture struct {
	Created   []events.AssetCreatedEvent
	Trades    []events.TradeEvent
	Grads     []events.GraduationEvent
	GradFails []events.GraduationFailedEvent
	Claims    []events.ClaimEvent
}

func (c *Capture) PublishAssetCreated(e *events.AssetCreatedEvent) { c.Created = append(c.Created, *e) }
func (c *Capture) PublishTrade(e *events.TradeEvent)               { c.Trades = append(c.Trades, *e) }
func (c *Capture) PublishGraduation(e *events.GraduationEvent)     { c.Grads = append(c.Grads, *e) }
func (c *Capture) PublishGraduationFailed(e *events.GraduationFailedEvent) {
	c.GradFails = append(c.GradFails, *e)
}
func (c *Capture) PublishClaim(e *events.ClaimEvent) { c.Claims = append(c.Claims, *e) }

var _ events.Publisher = (*Capture)(nil)

type options struct {
	cfg      market.Config
	gate     gate.Gate
	venueSvc venue.Venue
	noGrad   bool
}

// Option adjusts the Env wiring before construction.
type Option func(*options)

// WithConfig replaces the default platform configuration.
func WithConfig(cfg market.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithGate installs an admission gate, typically a mock.
func WithGate(g gate.Gate) Option {
	return func(o *options) { o.gate = g }
}

// WithVenue installs a liquidity venue, typically a mock. The Env's AMM
// field stays nil in that case.
func WithVenue(v venue.Venue) Option {
	return func(o *options) { o.venueSvc = v }
}

// WithoutGraduator leaves the machine unwired, so a crossing buy
// reports OkGraduationPending instead of graduating.
func WithoutGraduator() Option {
	return func(o *options) { o.noGrad = true }
}

// Env owns one fully wired in-memory trading stack.
type Env struct {
	T        *testing.T
	Machine  *market.Machine
	Grad     *graduation.Coordinator
	AMM      *venue.AMM // nil when WithVenue replaced it
	Tokens   *ledger.MemoryTokens
	Native   *ledger.MemoryNative
	Dist     *fees.Distributor
	Registry *registry.Memory
	Events   *Capture
	Config   market.Config
}

// NewEnv builds the stack. Every collaborator is in-memory; nothing
// needs cleanup.
func NewEnv(t *testing.T, opts ...Option) *Env {
	t.Helper()

	o := options{cfg: market.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Env{
		T:        t,
		Tokens:   ledger.NewMemoryTokens(),
		Native:   ledger.NewMemoryNative(),
		Registry: registry.NewMemory(),
		Events:   &Capture{},
		Config:   o.cfg,
	}
	e.Dist = fees.NewDistributor(fees.DefaultParams(), e.Native, Vault, nil, nil)
	e.Machine = market.NewMachine(e.Config, market.Deps{
		Tokens:   e.Tokens,
		Native:   e.Native,
		Fees:     e.Dist,
		Gate:     o.gate,
		Events:   e.Events,
		Recorder: e.Registry,
		Creators: e.Registry,
	})

	v := o.venueSvc
	if v == nil {
		e.AMM = venue.NewAMM(0, e.Tokens, e.Native, nil)
		v = e.AMM
	}
	e.Grad = graduation.NewCoordinator(e.Config, graduation.Deps{
		Book:     e.Machine,
		Venue:    v,
		Tokens:   e.Tokens,
		Native:   e.Native,
		Fees:     e.Dist,
		Events:   e.Events,
		Recorder: e.Registry,
		Creators: e.Registry,
	})
	if !o.noGrad {
		e.Machine.SetGraduator(e.Grad)
	}
	return e
}

// Fund credits whole ETH to the account's native balance.
func (e *Env) Fund(account string, whole uint64) {
	e.T.Helper()
	require.NoError(e.T, e.Native.Credit(context.Background(), account, amount.FromWhole(whole)))
}

// Launch lists an asset on the platform defaults and requires success.
func (e *Env) Launch(creator, symbol string, salt uint64) market.Asset {
	e.T.Helper()
	a, res := e.Machine.CreateAsset(context.Background(), market.AssetDef{
		Creator: creator,
		Symbol:  symbol,
		Name:    symbol,
		Salt:    salt,
	})
	require.Equal(e.T, market.OK, res, res.Message())
	return a
}

// Buy spends whole ETH on the asset and returns the receipt without
// judging the result.
func (e *Env) Buy(buyer string, asset assetid.AssetID, whole uint64) market.BuyReceipt {
	e.T.Helper()
	return e.Machine.Buy(context.Background(), market.BuyRequest{
		Asset: asset,
		Buyer: buyer,
		EthIn: amount.FromWhole(whole),
	})
}

// MustBuy is Buy, requiring the trade to have applied.
func (e *Env) MustBuy(buyer string, asset assetid.AssetID, whole uint64) market.BuyReceipt {
	e.T.Helper()
	rcpt := e.Buy(buyer, asset, whole)
	require.True(e.T, rcpt.Result.IsApplied(), rcpt.Result.Message())
	return rcpt
}

// EnableSells flips the asset's sell switch on.
func (e *Env) EnableSells(asset assetid.AssetID) {
	e.T.Helper()
	res := e.Machine.SetSellsEnabled(context.Background(), asset, true)
	require.Equal(e.T, market.OK, res, res.Message())
}

// Sell returns tokens to the curve and returns the receipt without
// judging the result.
func (e *Env) Sell(seller string, asset assetid.AssetID, tokens amount.Amount) market.SellReceipt {
	e.T.Helper()
	return e.Machine.Sell(context.Background(), market.SellRequest{
		Asset:  asset,
		Seller: seller,
		Tokens: tokens,
	})
}
