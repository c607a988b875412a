// Package gate defines the admission gate consulted before every buy:
// a pause switch, a yes/no buy check, and the fair-launch override. The
// reference implementation applies a sniper block followed by a
// fixed-price, per-wallet-capped fair-launch window.
package gate

import (
	"context"
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

// FairLaunch describes the fair-launch state for one buyer on one asset.
// While active, purchases execute at Price instead of the curve, and the
// buyer may acquire at most Remaining further base units.
type FairLaunch struct {
	Active    bool
	Price     amount.Amount // wei per whole token
	Remaining amount.Amount // base units still purchasable by this wallet
}

// Gate is the admission interface consumed by the trading engine.
type Gate interface {
	// Paused reports whether all trading is suspended.
	Paused(ctx context.Context) (bool, error)

	// ValidateBuy reports whether the buyer may buy into the asset right
	// now. A false return is a rejection, not an error.
	ValidateBuy(ctx context.Context, asset assetid.AssetID, buyer string, ethIn amount.Amount) (bool, error)

	// FairLaunch returns the fair-launch override for the buyer, if one
	// is active on the asset.
	FairLaunch(ctx context.Context, asset assetid.AssetID, buyer string) (FairLaunch, error)

	// RecordFill informs the gate of tokens delivered to the buyer so
	// per-wallet caps stay accurate.
	RecordFill(ctx context.Context, asset assetid.AssetID, buyer string, tokens amount.Amount) error
}

// Registrar is implemented by gates that anchor their windows to the
// asset's launch time. The trading engine registers each asset at
// creation when its gate supports this.
type Registrar interface {
	Register(asset assetid.AssetID, launchedAt time.Time)
}

// Open is a Gate that admits everything. Used when no admission policy
// is configured.
type Open struct{}

func (Open) Paused(ctx context.Context) (bool, error) { return false, nil }

func (Open) ValidateBuy(ctx context.Context, asset assetid.AssetID, buyer string, ethIn amount.Amount) (bool, error) {
	return true, nil
}

func (Open) FairLaunch(ctx context.Context, asset assetid.AssetID, buyer string) (FairLaunch, error) {
	return FairLaunch{}, nil
}

func (Open) RecordFill(ctx context.Context, asset assetid.AssetID, buyer string, tokens amount.Amount) error {
	return nil
}
