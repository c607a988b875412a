// Package graduation migrates a finished curve listing to its liquidity
// venue: it freezes trading, deducts the flat graduation fee, seeds a
// full-range position priced at the curve's final price, burns whatever
// escrowed tokens the pool cannot absorb, and marks the asset graduated.
// It also routes the venue's accrued swap fees through the DEX fee
// split.
package graduation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/ledger"
	"github.com/curvemkt/curved/internal/registry"
	"github.com/curvemkt/curved/internal/venue"
)

var (
	ErrUnknownAsset     = errors.New("graduation: unknown asset")
	ErrInFlight         = errors.New("graduation: already in progress")
	ErrAlreadyGraduated = errors.New("graduation: already graduated")
	ErrNothingSold      = errors.New("graduation: nothing sold")
	ErrRaiseBelowFee    = errors.New("graduation: raise does not cover the fee")
	ErrNothingToSeed    = errors.New("graduation: nothing to seed")
	ErrNotGraduated     = errors.New("graduation: not graduated")
)

// Book is the trading surface the coordinator drives. *market.Machine
// implements it.
type Book interface {
	ForceClose(ctx context.Context, id assetid.AssetID) (market.Asset, market.TradingState, market.Result)
	MarkGraduated(ctx context.Context, id assetid.AssetID, poolRef, positionRef string) market.Result
	State(id assetid.AssetID) (market.Asset, market.TradingState, bool)
}

// Deps wires the coordinator's collaborators. Book, Venue, Tokens,
// Native and Fees are required; the rest default to no-ops.
type Deps struct {
	Book     Book
	Venue    venue.Venue
	Tokens   ledger.Tokens
	Native   ledger.Native
	Fees     *fees.Distributor
	Events   events.Publisher
	Recorder registry.Recorder
	Creators registry.CreatorLookup
	Log      *zap.Logger
}

// Coordinator performs graduations one at a time per asset. The machine
// calls Graduate best-effort after a buy crosses the target; operators
// retry through the same entry point when that attempt failed.
type Coordinator struct {
	cfg  market.Config
	deps Deps
	log  *zap.Logger
	now  func() time.Time

	mu       sync.Mutex
	inFlight map[assetid.AssetID]bool
}

var _ market.Graduator = (*Coordinator)(nil)

// NewCoordinator builds a coordinator sharing the machine's platform
// config, so the fee and escrow account match what trading used.
func NewCoordinator(cfg market.Config, deps Deps) *Coordinator {
	if deps.Events == nil {
		deps.Events = events.NoOp{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Coordinator{
		cfg:      cfg,
		deps:     deps,
		log:      deps.Log.Named("graduation"),
		now:      time.Now,
		inFlight: make(map[assetid.AssetID]bool),
	}
}

// begin claims the asset for one graduation attempt.
func (c *Coordinator) begin(id assetid.AssetID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[id] {
		return false
	}
	c.inFlight[id] = true
	return true
}

func (c *Coordinator) end(id assetid.AssetID) {
	c.mu.Lock()
	delete(c.inFlight, id)
	c.mu.Unlock()
}

// Graduate freezes the asset and moves its raise onto the venue. The
// listing stays closed whether or not this succeeds, so a failed
// attempt can be retried: the fee transfer is the only escrow movement
// that precedes a fallible step, and it is unwound on failure.
func (c *Coordinator) Graduate(ctx context.Context, id assetid.AssetID) error {
	if !c.begin(id) {
		return ErrInFlight
	}
	defer c.end(id)

	asset, st, res := c.deps.Book.ForceClose(ctx, id)
	switch res {
	case market.OK:
	case market.RejUnknownAsset:
		return ErrUnknownAsset
	case market.RejGraduated:
		return ErrAlreadyGraduated
	default:
		return fmt.Errorf("graduation: close rejected: %s", res)
	}

	if st.Sold.IsZero() || st.Raised.IsZero() {
		return ErrNothingSold
	}
	fee := c.cfg.GraduationFee
	ethForPool, err := st.Raised.Sub(fee)
	if err != nil || ethForPool.IsZero() {
		return ErrRaiseBelowFee
	}

	// The venue opens where the curve ended.
	finalPrice := curve.New(asset.Curve).BuyPrice(st.Sold)
	tokensForPool := curve.TokensAtPrice(finalPrice, ethForPool)

	escrowed, err := c.deps.Tokens.BalanceOf(ctx, id, c.cfg.Escrow)
	if err != nil {
		return fmt.Errorf("graduation: escrow balance: %w", err)
	}
	tokensForPool = amount.Min(tokensForPool, escrowed)
	if tokensForPool.IsZero() {
		return ErrNothingToSeed
	}
	burn := escrowed.MustSub(tokensForPool)

	pool, err := c.deps.Venue.CreateOrGetPool(ctx, id)
	if err != nil {
		return fmt.Errorf("graduation: pool: %w", err)
	}
	if err := c.deps.Venue.InitializePrice(ctx, pool.Ref, finalPrice); err != nil {
		return fmt.Errorf("graduation: price: %w", err)
	}

	vault := c.deps.Fees.Vault()
	if fee.IsPositive() {
		if err := c.deps.Native.Transfer(ctx, c.cfg.Escrow, vault, fee); err != nil {
			return fmt.Errorf("graduation: fee transfer: %w", err)
		}
	}
	refundFee := func() {
		if !fee.IsPositive() {
			return
		}
		if uerr := c.deps.Native.Transfer(ctx, vault, c.cfg.Escrow, fee); uerr != nil {
			c.log.Error("fee refund failed", zap.Stringer("asset", id), zap.Error(uerr))
		}
	}

	// Burn before seeding: everything above the pool reserve is excess
	// supply. A retry after a later failure finds the escrow holding
	// exactly the reserve and burns nothing.
	if burn.IsPositive() {
		if err := c.deps.Tokens.Burn(ctx, id, c.cfg.Escrow, burn); err != nil {
			refundFee()
			return fmt.Errorf("graduation: burn: %w", err)
		}
	}

	pos, err := c.deps.Venue.MintFullRangePosition(ctx, pool.Ref, c.cfg.Escrow, tokensForPool, ethForPool)
	if err != nil {
		refundFee()
		return fmt.Errorf("graduation: seed: %w", err)
	}

	if res := c.deps.Book.MarkGraduated(ctx, id, pool.Ref, pos.Ref); res != market.OK {
		// The position is live; only the bookkeeping bit is missing.
		// Surface it loudly instead of trying to unwind a funded pool.
		c.log.Error("graduated asset not marked", zap.Stringer("asset", id), zap.Stringer("result", res))
		return fmt.Errorf("graduation: mark: %s", res)
	}

	c.deps.Fees.AddGraduationFee(fee)

	c.log.Info("asset graduated",
		zap.Stringer("asset", id),
		zap.String("pool", pool.Ref),
		zap.String("position", pos.Ref),
		zap.String("final_price", finalPrice.String()),
		zap.String("eth_to_pool", ethForPool.String()),
		zap.String("tokens_to_pool", tokensForPool.String()),
		zap.String("burned", burn.String()))

	c.deps.Events.PublishGraduation(&events.GraduationEvent{
		Asset:        id,
		FinalPrice:   finalPrice,
		EthToPool:    ethForPool,
		TokensToPool: tokensForPool,
		Burned:       burn,
		PoolRef:      pool.Ref,
		PositionRef:  pos.Ref,
		Timestamp:    c.now(),
	})
	c.record(ctx, registry.Graduation{
		Asset:        id,
		Pool:         pool.Ref,
		Position:     pos.Ref,
		FinalPrice:   finalPrice,
		EthSeeded:    ethForPool,
		TokensSeeded: tokensForPool,
		Burned:       burn,
		At:           c.now(),
	})
	return nil
}

// Collected reports one fee collection: what the venue paid out and how
// the wei side was split.
type Collected struct {
	TokenFees amount.Amount
	WeiFees   amount.Amount
	Breakdown fees.Breakdown
}

// CollectFees pulls the venue position's accrued swap fees into the
// vault and routes the wei side through the DEX fee split. Token-side
// fees stay in the vault as platform inventory.
func (c *Coordinator) CollectFees(ctx context.Context, id assetid.AssetID) (Collected, error) {
	asset, st, ok := c.deps.Book.State(id)
	if !ok {
		return Collected{}, ErrUnknownAsset
	}
	if !st.Graduated {
		return Collected{}, ErrNotGraduated
	}

	tokenFees, weiFees, err := c.deps.Venue.CollectFees(ctx, st.PositionRef, c.deps.Fees.Vault())
	if err != nil {
		return Collected{}, fmt.Errorf("graduation: collect: %w", err)
	}

	out := Collected{TokenFees: tokenFees, WeiFees: weiFees}
	if weiFees.IsPositive() {
		bd, err := c.deps.Fees.DistributeDex(weiFees, asset.DexSplit, c.creatorOf(ctx, asset), id)
		if err != nil {
			return out, fmt.Errorf("graduation: distribute: %w", err)
		}
		out.Breakdown = bd
	}
	if tokenFees.IsPositive() || weiFees.IsPositive() {
		c.log.Info("venue fees collected",
			zap.Stringer("asset", id),
			zap.String("token_fees", tokenFees.String()),
			zap.String("wei_fees", weiFees.String()))
	}
	return out, nil
}

func (c *Coordinator) creatorOf(ctx context.Context, a market.Asset) string {
	if c.deps.Creators == nil {
		return a.Creator
	}
	creator, err := c.deps.Creators.Creator(ctx, a.ID)
	if err != nil {
		c.log.Debug("creator lookup failed, share goes to community",
			zap.Stringer("asset", a.ID), zap.Error(err))
		return ""
	}
	return creator
}

func (c *Coordinator) record(ctx context.Context, g registry.Graduation) {
	if c.deps.Recorder == nil {
		return
	}
	if err := c.deps.Recorder.RecordGraduation(ctx, g); err != nil {
		c.log.Warn("graduation record dropped", zap.Stringer("asset", g.Asset), zap.Error(err))
	}
}
