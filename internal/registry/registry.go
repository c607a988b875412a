// Package registry defines the external bookkeeping consumed by the
// trading engine: a trade/launch recorder and a creator lookup. Both
// are best-effort collaborators; the engine logs their failures and
// carries on, so an unavailable registry never blocks trading.
package registry

import (
	"context"
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

// Launch is one asset listed for curve trading.
type Launch struct {
	Asset      assetid.AssetID
	Creator    string
	Symbol     string
	Name       string
	Target     amount.Amount
	LaunchedAt time.Time
}

// Trade is one settled buy or sell.
type Trade struct {
	Asset      assetid.AssetID
	Side       string
	Trader     string
	Tokens     amount.Amount
	Eth        amount.Amount
	Fee        amount.Amount
	PriceAfter amount.Amount
	Sold       amount.Amount
	Raised     amount.Amount
	At         time.Time
}

// Graduation is one completed migration to the liquidity venue.
type Graduation struct {
	Asset        assetid.AssetID
	Pool         string
	Position     string
	FinalPrice   amount.Amount
	EthSeeded    amount.Amount
	TokensSeeded amount.Amount
	Burned       amount.Amount
	At           time.Time
}

// Recorder persists launches, trades and graduations.
type Recorder interface {
	RecordLaunch(ctx context.Context, l Launch) error
	RecordTrade(ctx context.Context, t Trade) error
	RecordGraduation(ctx context.Context, g Graduation) error
}

// CreatorLookup resolves the creator entitled to an asset's fee share.
// A failed lookup is treated as "no creator" by callers, never as a
// reason to abort the operation that needed it.
type CreatorLookup interface {
	Creator(ctx context.Context, asset assetid.AssetID) (string, error)
}

// Noop discards every record and knows no creators.
type Noop struct{}

var _ Recorder = Noop{}
var _ CreatorLookup = Noop{}

func (Noop) RecordLaunch(ctx context.Context, l Launch) error         { return nil }
func (Noop) RecordTrade(ctx context.Context, t Trade) error           { return nil }
func (Noop) RecordGraduation(ctx context.Context, g Graduation) error { return nil }

func (Noop) Creator(ctx context.Context, asset assetid.AssetID) (string, error) {
	return "", nil
}
