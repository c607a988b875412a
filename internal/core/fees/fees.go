// Package fees splits trading and venue fees between the platform and
// the per-asset stakeholders, accumulates claimable balances, and pays
// them out. Balances are zeroed before any external transfer so a
// re-entrant claim observes nothing left to take.
package fees

import (
	"errors"
	"fmt"

	"github.com/curvemkt/curved/internal/core/amount"
)

// BpsDenom is the basis-point denominator.
const BpsDenom = 10000

var (
	ErrBadSplit   = errors.New("fees: adjustable shares must sum to 100")
	ErrBadBpsPair = errors.New("fees: fixed and adjustable bps must sum to the denominator")
)

// Split is the adjustable three-way share on a 0-100 scale. The three
// fields must sum to exactly 100.
type Split struct {
	Creator   uint64 `mapstructure:"creator" json:"creator"`
	Community uint64 `mapstructure:"community" json:"community"`
	Buyback   uint64 `mapstructure:"buyback" json:"buyback"`
}

// Validate checks the 100-sum rule.
func (s Split) Validate() error {
	if s.Creator+s.Community+s.Buyback != 100 {
		return fmt.Errorf("%w: %d+%d+%d", ErrBadSplit, s.Creator, s.Community, s.Buyback)
	}
	return nil
}

// Params fixes the platform's cut of every fee and the default splits.
// Trading fees and post-graduation venue fees carry separate platform
// cuts and separate default splits.
type Params struct {
	// FixedPlatformBps of a trading fee goes to the platform; the
	// remaining AdjustableBps is divided by the asset's Split.
	FixedPlatformBps uint64
	AdjustableBps    uint64
	DefaultSplit     Split

	// Venue fee distribution after graduation.
	DexFixedPlatformBps uint64
	DexAdjustableBps    uint64
	DexDefaultSplit     Split
}

// DefaultParams returns the platform defaults: trading fees split 50/50
// between the platform and the adjustable shares, venue fees 20/80.
func DefaultParams() Params {
	return Params{
		FixedPlatformBps: 5000,
		AdjustableBps:    5000,
		DefaultSplit:     Split{Creator: 50, Community: 30, Buyback: 20},

		DexFixedPlatformBps: 2000,
		DexAdjustableBps:    8000,
		DexDefaultSplit:     Split{Creator: 60, Community: 20, Buyback: 20},
	}
}

// Validate checks both bps pairs and both default splits.
func (p Params) Validate() error {
	if p.FixedPlatformBps+p.AdjustableBps != BpsDenom {
		return fmt.Errorf("%w: trading %d+%d", ErrBadBpsPair, p.FixedPlatformBps, p.AdjustableBps)
	}
	if p.DexFixedPlatformBps+p.DexAdjustableBps != BpsDenom {
		return fmt.Errorf("%w: dex %d+%d", ErrBadBpsPair, p.DexFixedPlatformBps, p.DexAdjustableBps)
	}
	if err := p.DefaultSplit.Validate(); err != nil {
		return err
	}
	return p.DexDefaultSplit.Validate()
}

// Breakdown is one distributed fee, by recipient bucket.
type Breakdown struct {
	Platform  amount.Amount
	Creator   amount.Amount
	Community amount.Amount
	Buyback   amount.Amount
}

// Total returns the sum of the four buckets. Up to one wei of the
// distributed fee can evaporate in the platform/adjustable floor
// divisions; the three-way split itself is exact because the last share
// is computed by subtraction.
func (b Breakdown) Total() amount.Amount {
	return b.Platform.Add(b.Creator).Add(b.Community).Add(b.Buyback)
}

// split divides total between the platform cut and the adjustable
// shares. creator and community are floored; buyback is the remainder
// of the adjustable pot, absorbing the residual wei.
func split(total amount.Amount, fixedBps, adjustableBps uint64, s Split) (Breakdown, error) {
	if err := s.Validate(); err != nil {
		return Breakdown{}, err
	}

	platform, err := total.MulDiv(fixedBps, BpsDenom)
	if err != nil {
		return Breakdown{}, err
	}
	adjustable, err := total.MulDiv(adjustableBps, BpsDenom)
	if err != nil {
		return Breakdown{}, err
	}

	creator, err := adjustable.MulDiv(s.Creator, 100)
	if err != nil {
		return Breakdown{}, err
	}
	community, err := adjustable.MulDiv(s.Community, 100)
	if err != nil {
		return Breakdown{}, err
	}
	buyback := adjustable.MustSub(creator).MustSub(community)

	return Breakdown{
		Platform:  platform,
		Creator:   creator,
		Community: community,
		Buyback:   buyback,
	}, nil
}

// SplitTrading divides a trading fee using the asset's split, or the
// default when the asset has none.
func (p Params) SplitTrading(total amount.Amount, assetSplit *Split) (Breakdown, error) {
	s := p.DefaultSplit
	if assetSplit != nil {
		s = *assetSplit
	}
	return split(total, p.FixedPlatformBps, p.AdjustableBps, s)
}

// SplitDex divides a harvested venue fee using the asset's DEX split,
// or the DEX default when the asset has none.
func (p Params) SplitDex(total amount.Amount, assetSplit *Split) (Breakdown, error) {
	s := p.DexDefaultSplit
	if assetSplit != nil {
		s = *assetSplit
	}
	return split(total, p.DexFixedPlatformBps, p.DexAdjustableBps, s)
}
