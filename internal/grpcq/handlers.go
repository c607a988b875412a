package grpcq

import (
	"context"
	"math/big"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/market"
)

// GetServerInfoRequest asks for service-level counters.
type GetServerInfoRequest struct{}

// GetServerInfoResponse summarizes the running service.
type GetServerInfoResponse struct {
	// Version is the daemon build version
	Version string `json:"version"`

	// UptimeSeconds is seconds since the query service started
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Assets is the number of listed assets
	Assets int `json:"assets"`

	// Open is the number of assets still trading on the curve
	Open int `json:"open"`

	// Graduated is the number of assets migrated to the venue
	Graduated int `json:"graduated"`

	// TradeFeeBps is the platform trading fee in basis points
	TradeFeeBps uint64 `json:"trade_fee_bps"`
}

// GetServerInfo reports version, uptime and asset counters.
func (s *Server) GetServerInfo(ctx context.Context, req *GetServerInfoRequest) (*GetServerInfoResponse, error) {
	resp := &GetServerInfoResponse{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		TradeFeeBps:   s.machine.Config().TradeFeeBps,
	}
	for _, a := range s.machine.Assets() {
		resp.Assets++
		if _, st, ok := s.machine.State(a.ID); ok {
			if st.Open {
				resp.Open++
			}
			if st.Graduated {
				resp.Graduated++
			}
		}
	}
	return resp, nil
}

// GetAssetRequest selects one asset.
type GetAssetRequest struct {
	// Asset is the 40-character hex asset id
	Asset string `json:"asset"`
}

// GetAssetResponse is the full public view of one listing.
type GetAssetResponse struct {
	Asset        assetid.AssetID `json:"asset"`
	Creator      string          `json:"creator"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Target       amount.Amount   `json:"target"`
	CreatedAt    time.Time       `json:"created_at"`
	Sold         amount.Amount   `json:"sold"`
	Raised       amount.Amount   `json:"raised"`
	Open         bool            `json:"open"`
	SellsEnabled bool            `json:"sells_enabled"`
	Graduated    bool            `json:"graduated"`
	PoolRef      string          `json:"pool_ref,omitempty"`
	PositionRef  string          `json:"position_ref,omitempty"`
	Price        amount.Amount   `json:"price"`
	ProgressBps  uint64          `json:"progress_bps"`
}

// GetAsset retrieves one asset's listing and trading state.
func (s *Server) GetAsset(ctx context.Context, req *GetAssetRequest) (*GetAssetResponse, error) {
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}

	asset, st, ok := s.machine.State(id)
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown asset")
	}
	resp := assetView(asset, st)
	if price, res := s.machine.Price(id); res.IsSuccess() {
		resp.Price = price
	}
	return resp, nil
}

func assetView(asset market.Asset, st market.TradingState) *GetAssetResponse {
	resp := &GetAssetResponse{
		Asset:        asset.ID,
		Creator:      asset.Creator,
		Symbol:       asset.Symbol,
		Name:         asset.Name,
		Target:       asset.Target,
		CreatedAt:    asset.CreatedAt,
		Sold:         st.Sold,
		Raised:       st.Raised,
		Open:         st.Open,
		SellsEnabled: st.SellsEnabled,
		Graduated:    st.Graduated,
		PoolRef:      st.PoolRef,
		PositionRef:  st.PositionRef,
	}
	if asset.Target.IsPositive() {
		bps := new(big.Int).Mul(st.Raised.BigInt(), big.NewInt(10000))
		bps.Div(bps, asset.Target.BigInt())
		if bps.IsUint64() {
			resp.ProgressBps = bps.Uint64()
		}
	}
	return resp
}

// ListAssetsRequest filters the asset list.
type ListAssetsRequest struct {
	// OnlyOpen restricts the list to assets still trading on the curve
	OnlyOpen bool `json:"only_open,omitempty"`
}

// ListAssetsResponse carries the matching listings.
type ListAssetsResponse struct {
	Assets []*GetAssetResponse `json:"assets"`
	Count  int                 `json:"count"`
}

// ListAssets retrieves every known asset, optionally only open ones.
func (s *Server) ListAssets(ctx context.Context, req *ListAssetsRequest) (*ListAssetsResponse, error) {
	resp := &ListAssetsResponse{Assets: make([]*GetAssetResponse, 0)}
	for _, a := range s.machine.Assets() {
		_, st, ok := s.machine.State(a.ID)
		if !ok {
			continue
		}
		if req.OnlyOpen && !st.Open {
			continue
		}
		view := assetView(a, st)
		if price, res := s.machine.Price(a.ID); res.IsSuccess() {
			view.Price = price
		}
		resp.Assets = append(resp.Assets, view)
	}
	resp.Count = len(resp.Assets)
	return resp, nil
}

// GetQuoteRequest prices a prospective trade without touching state.
type GetQuoteRequest struct {
	// Asset is the 40-character hex asset id
	Asset string `json:"asset"`

	// Side is "buy" or "sell"
	Side string `json:"side"`

	// Amount is ETH in for buys and tokens in for sells, in base units
	Amount amount.Amount `json:"amount"`
}

// GetQuoteResponse carries the quoted outcome. Buy quotes fill Tokens,
// Spend and Refund; sell quotes fill Gross and Proceeds.
type GetQuoteResponse struct {
	Side       string        `json:"side"`
	Tokens     amount.Amount `json:"tokens"`
	Spend      amount.Amount `json:"spend"`
	Proceeds   amount.Amount `json:"proceeds"`
	Gross      amount.Amount `json:"gross"`
	Fee        amount.Amount `json:"fee"`
	Refund     amount.Amount `json:"refund"`
	PriceAfter amount.Amount `json:"price_after"`
}

// GetQuote previews a buy or sell at the current curve position.
func (s *Server) GetQuote(ctx context.Context, req *GetQuoteRequest) (*GetQuoteResponse, error) {
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}

	switch req.Side {
	case "buy":
		q, res := s.machine.QuoteBuy(id, req.Amount)
		if !res.IsSuccess() {
			return nil, statusFromResult(res)
		}
		return &GetQuoteResponse{
			Side:       "buy",
			Tokens:     q.Tokens,
			Spend:      q.Spend,
			Fee:        q.Fee,
			Refund:     q.Refund,
			PriceAfter: q.PriceAfter,
		}, nil

	case "sell":
		q, res := s.machine.QuoteSell(id, req.Amount)
		if !res.IsSuccess() {
			return nil, statusFromResult(res)
		}
		return &GetQuoteResponse{
			Side:       "sell",
			Gross:      q.Gross,
			Proceeds:   q.Proceeds,
			Fee:        q.Fee,
			PriceAfter: q.PriceAfter,
		}, nil

	default:
		return nil, status.Error(codes.InvalidArgument, "side must be buy or sell")
	}
}

// GetTradesRequest pages an asset's most recent trades.
type GetTradesRequest struct {
	// Asset is the 40-character hex asset id
	Asset string `json:"asset"`

	// Limit caps the number of rows; the backend default applies when 0
	Limit int `json:"limit,omitempty"`
}

// TradeRecord is one settled buy or sell.
type TradeRecord struct {
	Asset      assetid.AssetID `json:"asset"`
	Side       string          `json:"side"`
	Trader     string          `json:"trader"`
	Tokens     amount.Amount   `json:"tokens"`
	Eth        amount.Amount   `json:"eth"`
	Fee        amount.Amount   `json:"fee"`
	PriceAfter amount.Amount   `json:"price_after"`
	At         time.Time       `json:"at"`
}

// GetTradesResponse carries the matching trades, newest first.
type GetTradesResponse struct {
	Asset  assetid.AssetID `json:"asset"`
	Trades []TradeRecord   `json:"trades"`
}

// GetTrades retrieves an asset's recent trade history.
func (s *Server) GetTrades(ctx context.Context, req *GetTradesRequest) (*GetTradesResponse, error) {
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "trade history is not configured")
	}
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}

	trades, err := s.history.TradesByAsset(ctx, id, req.Limit)
	if err != nil {
		s.log.Error("trade query failed", zap.Stringer("asset", id), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to query trades")
	}

	resp := &GetTradesResponse{Asset: id, Trades: make([]TradeRecord, 0, len(trades))}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, TradeRecord{
			Asset:      t.Asset,
			Side:       t.Side,
			Trader:     t.Trader,
			Tokens:     t.Tokens,
			Eth:        t.Eth,
			Fee:        t.Fee,
			PriceAfter: t.PriceAfter,
			At:         t.At,
		})
	}
	return resp, nil
}

// GetStatsRequest selects one asset.
type GetStatsRequest struct {
	// Asset is the 40-character hex asset id
	Asset string `json:"asset"`
}

// GetStatsResponse aggregates an asset's recorded trading activity.
type GetStatsResponse struct {
	Asset       assetid.AssetID `json:"asset"`
	Trades      int             `json:"trades"`
	Buys        int             `json:"buys"`
	Sells       int             `json:"sells"`
	VolumeEth   amount.Amount   `json:"volume_eth"`
	FeesEth     amount.Amount   `json:"fees_eth"`
	LastPrice   amount.Amount   `json:"last_price"`
	LastTradeAt time.Time       `json:"last_trade_at"`
}

// GetStats retrieves aggregate trade statistics for one asset.
func (s *Server) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	if s.history == nil {
		return nil, status.Error(codes.Unimplemented, "trade history is not configured")
	}
	id, err := parseAsset(req.Asset)
	if err != nil {
		return nil, err
	}

	st, err := s.history.Stats(ctx, id)
	if err != nil {
		s.log.Error("stats query failed", zap.Stringer("asset", id), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to query stats")
	}
	return &GetStatsResponse{
		Asset:       id,
		Trades:      st.Trades,
		Buys:        st.Buys,
		Sells:       st.Sells,
		VolumeEth:   st.VolumeEth,
		FeesEth:     st.FeesEth,
		LastPrice:   st.LastPrice,
		LastTradeAt: st.LastTradeAt,
	}, nil
}

// GetFeeLedgerRequest asks for the accrued fee ledger.
type GetFeeLedgerRequest struct{}

// GetFeeLedgerResponse snapshots every accrued fee bucket.
type GetFeeLedgerResponse struct {
	PlatformTotal   amount.Amount            `json:"platform_total"`
	CommunityTotal  amount.Amount            `json:"community_total"`
	BuybackTotal    amount.Amount            `json:"buyback_total"`
	GraduationTotal amount.Amount            `json:"graduation_total"`
	CreatorClaims   map[string]amount.Amount `json:"creator_claims"`
	AssetBuyback    map[string]amount.Amount `json:"asset_buyback"`
}

// GetFeeLedger retrieves the distributor's accrued balances.
func (s *Server) GetFeeLedger(ctx context.Context, req *GetFeeLedgerRequest) (*GetFeeLedgerResponse, error) {
	l := s.dist.Snapshot()
	resp := &GetFeeLedgerResponse{
		PlatformTotal:   l.PlatformTotal,
		CommunityTotal:  l.CommunityTotal,
		BuybackTotal:    l.BuybackTotal,
		GraduationTotal: l.GraduationTotal,
		CreatorClaims:   l.CreatorClaims,
		AssetBuyback:    make(map[string]amount.Amount, len(l.AssetBuyback)),
	}
	for id, amt := range l.AssetBuyback {
		resp.AssetBuyback[id.String()] = amt
	}
	return resp, nil
}

// parseAsset decodes a hex asset id into a key, mapping failures onto
// InvalidArgument.
func parseAsset(s string) (assetid.AssetID, error) {
	if s == "" {
		return assetid.AssetID{}, status.Error(codes.InvalidArgument, "asset is required")
	}
	id, err := assetid.FromHex(s)
	if err != nil {
		return assetid.AssetID{}, status.Error(codes.InvalidArgument, "invalid asset id: "+err.Error())
	}
	return id, nil
}

// statusFromResult maps an engine result code onto a grpc status.
// Malformed requests surface as InvalidArgument, unknown assets as
// NotFound, phase and economic refusals as FailedPrecondition.
func statusFromResult(res market.Result) error {
	switch {
	case res == market.RejUnknownAsset:
		return status.Error(codes.NotFound, res.Message())
	case res.IsInternal():
		return status.Error(codes.Internal, res.Message())
	case res <= -200:
		return status.Error(codes.InvalidArgument, res.Message())
	default:
		return status.Error(codes.FailedPrecondition, res.Message())
	}
}
