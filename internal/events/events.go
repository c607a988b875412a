// Package events defines the engine's outbound event types and the
// Publisher interface used to fan them out. The engine publishes without
// depending on the transport; the websocket stream server implements
// Publisher.
package events

import (
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

// Trade sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// AssetCreatedEvent is published when a new asset opens for trading.
type AssetCreatedEvent struct {
	Asset     assetid.AssetID `json:"asset"`
	Creator   string          `json:"creator"`
	Symbol    string          `json:"symbol"`
	Target    amount.Amount   `json:"target"`
	CreatedAt time.Time       `json:"created_at"`
}

// TradeEvent is published after every committed buy or sell.
type TradeEvent struct {
	Asset      assetid.AssetID `json:"asset"`
	Side       string          `json:"side"`
	Trader     string          `json:"trader"`
	Tokens     amount.Amount   `json:"tokens"`
	Eth        amount.Amount   `json:"eth"`
	Fee        amount.Amount   `json:"fee"`
	PriceAfter amount.Amount   `json:"price_after"`
	Sold       amount.Amount   `json:"sold"`
	Raised     amount.Amount   `json:"raised"`
	Timestamp  time.Time       `json:"timestamp"`
}

// GraduationEvent is published when an asset migrates to its venue.
type GraduationEvent struct {
	Asset        assetid.AssetID `json:"asset"`
	FinalPrice   amount.Amount   `json:"final_price"`
	EthToPool    amount.Amount   `json:"eth_to_pool"`
	TokensToPool amount.Amount   `json:"tokens_to_pool"`
	Burned       amount.Amount   `json:"burned"`
	PoolRef      string          `json:"pool_ref"`
	PositionRef  string          `json:"position_ref"`
	Timestamp    time.Time       `json:"timestamp"`
}

// GraduationFailedEvent surfaces a best-effort graduation failure after
// a buy that crossed the target. The buy itself committed; an operator
// retries graduation manually.
type GraduationFailedEvent struct {
	Asset     assetid.AssetID `json:"asset"`
	Reason    string          `json:"reason"`
	Timestamp time.Time       `json:"timestamp"`
}

// ClaimEvent is published when accumulated fees leave the ledger.
type ClaimEvent struct {
	Kind      string        `json:"kind"` // creator, platform, community, buyback
	Account   string        `json:"account"`
	Amount    amount.Amount `json:"amount"`
	Timestamp time.Time     `json:"timestamp"`
}

// Publisher fans engine events out to subscribers. Implementations must
// not block the caller.
type Publisher interface {
	PublishAssetCreated(event *AssetCreatedEvent)
	PublishTrade(event *TradeEvent)
	PublishGraduation(event *GraduationEvent)
	PublishGraduationFailed(event *GraduationFailedEvent)
	PublishClaim(event *ClaimEvent)
}

// NoOp is a Publisher that drops everything. Used in tests and when the
// stream server is disabled.
type NoOp struct{}

func (NoOp) PublishAssetCreated(event *AssetCreatedEvent)         {}
func (NoOp) PublishTrade(event *TradeEvent)                       {}
func (NoOp) PublishGraduation(event *GraduationEvent)             {}
func (NoOp) PublishGraduationFailed(event *GraduationFailedEvent) {}
func (NoOp) PublishClaim(event *ClaimEvent)                       {}

var _ Publisher = NoOp{}
