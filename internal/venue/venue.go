// Package venue abstracts the external liquidity service an asset
// graduates into: pool creation, price initialization, full-range
// liquidity, and fee harvesting. The AMM type provides an in-process
// constant-product implementation used by single-node deployments and
// tests; production deployments bind an external DEX here.
package venue

import (
	"context"
	"errors"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

var (
	ErrUnknownPool     = errors.New("venue: unknown pool")
	ErrUnknownPosition = errors.New("venue: unknown position")
	ErrNotInitialized  = errors.New("venue: pool price not initialized")
	ErrHasLiquidity    = errors.New("venue: pool already holds liquidity")
	ErrZeroLiquidity   = errors.New("venue: liquidity amounts must be positive")
	ErrSlippage        = errors.New("venue: output below minimum")
)

// Pool describes one token/wei pool.
type Pool struct {
	Ref          string
	Asset        assetid.AssetID
	Price        amount.Amount // wei per whole token at initialization
	TokenReserve amount.Amount
	WeiReserve   amount.Amount
}

// Position describes one liquidity position.
type Position struct {
	Ref       string
	PoolRef   string
	Owner     string
	Liquidity amount.Amount
}

// Venue is the liquidity service consumed by the graduation
// coordinator.
type Venue interface {
	// CreateOrGetPool returns the asset's pool, creating an empty one
	// on first call.
	CreateOrGetPool(ctx context.Context, asset assetid.AssetID) (Pool, error)

	// InitializePrice fixes the pool's opening price. Must happen
	// before any liquidity is minted; re-initializing a priced but
	// still-empty pool is allowed.
	InitializePrice(ctx context.Context, poolRef string, price amount.Amount) error

	// MintFullRangePosition moves tokens and wei from owner into the
	// pool and returns the position entitled to its fees.
	MintFullRangePosition(ctx context.Context, poolRef, owner string, tokens, wei amount.Amount) (Position, error)

	// CollectFees drains the position's accrued fees to the given
	// account and returns what was collected.
	CollectFees(ctx context.Context, positionRef, to string) (tokenFees, weiFees amount.Amount, err error)
}
