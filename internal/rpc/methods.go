package rpc

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/graduation"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/registry"
	"github.com/curvemkt/curved/internal/storage/historydb"
)

// History is the optional trade-history backend. When nil, the history
// methods answer notSupported instead of failing.
type History interface {
	TradesByAsset(ctx context.Context, asset assetid.AssetID, limit int) ([]registry.Trade, error)
	Stats(ctx context.Context, asset assetid.AssetID) (historydb.Stats, error)
	RecentLaunches(ctx context.Context, limit int) ([]registry.Launch, error)
}

// Service implements every RPC method over the trading engine.
type Service struct {
	machine *market.Machine
	grad    *graduation.Coordinator
	dist    *fees.Distributor
	history History
	log     *zap.Logger

	version string
	started time.Time
}

// ServiceDeps wires the service's collaborators. Machine, Grad and Dist
// are required.
type ServiceDeps struct {
	Machine *market.Machine
	Grad    *graduation.Coordinator
	Dist    *fees.Distributor
	History History
	Log     *zap.Logger
	Version string
}

// NewService builds the method service.
func NewService(deps ServiceDeps) *Service {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Service{
		machine: deps.Machine,
		grad:    deps.Grad,
		dist:    deps.Dist,
		history: deps.History,
		log:     deps.Log.Named("rpc"),
		version: deps.Version,
		started: time.Now(),
	}
}

// RegisterAll registers every method on the registry. Mutating platform
// controls are admin-only; trading, quoting and reads are public.
func (s *Service) RegisterAll(reg *MethodRegistry) {
	reg.Register("ping", s.Ping)
	reg.Register("server_info", s.ServerInfo)

	reg.Register("launch", s.Launch)
	reg.Register("buy", s.Buy)
	reg.Register("sell", s.Sell)
	reg.Register("quote_buy", s.QuoteBuy)
	reg.Register("quote_sell", s.QuoteSell)
	reg.Register("price", s.Price)

	reg.Register("asset_info", s.AssetInfo)
	reg.Register("assets", s.Assets)
	reg.Register("trades", s.Trades)
	reg.Register("stats", s.AssetStats)
	reg.Register("launches", s.Launches)

	reg.Register("claim_creator", s.ClaimCreator)
	reg.Register("creator_balance", s.CreatorBalance)

	reg.RegisterAdmin("graduate", s.Graduate)
	reg.RegisterAdmin("collect_fees", s.CollectFees)
	reg.RegisterAdmin("close", s.CloseAsset)
	reg.RegisterAdmin("set_sells_enabled", s.SetSellsEnabled)
	reg.RegisterAdmin("fee_ledger", s.FeeLedger)
	reg.RegisterAdmin("withdraw_platform", s.WithdrawPlatform)
	reg.RegisterAdmin("withdraw_community", s.WithdrawCommunity)
	reg.RegisterAdmin("withdraw_buyback", s.WithdrawBuyback)
}

// parseParams unmarshals the params object, rejecting absent params.
func parseParams(params json.RawMessage, dst interface{}) *Error {
	if len(params) == 0 {
		return errInvalidParams("missing params object")
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return errInvalidParams(err.Error())
	}
	return nil
}

func parseAsset(s string) (assetid.AssetID, *Error) {
	if s == "" {
		return assetid.AssetID{}, errInvalidParams("asset is required")
	}
	id, err := assetid.FromHex(s)
	if err != nil {
		return assetid.AssetID{}, errInvalidParams("invalid asset id: " + err.Error())
	}
	return id, nil
}

// Ping answers with the server time.
func (s *Service) Ping(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	return map[string]interface{}{"time": time.Now().UTC()}, nil
}

// ServerInfoResult summarizes the node.
type ServerInfoResult struct {
	Version       string        `json:"version"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	Assets        int           `json:"assets"`
	Open          int           `json:"open"`
	Graduated     int           `json:"graduated"`
	TradeFeeBps   uint64        `json:"trade_fee_bps"`
	MaxTxEth      amount.Amount `json:"max_tx_eth"`
	GraduationFee amount.Amount `json:"graduation_fee"`
}

// ServerInfo reports version, uptime and listing counts.
func (s *Service) ServerInfo(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	info := ServerInfoResult{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	cfg := s.machine.Config()
	info.TradeFeeBps = cfg.TradeFeeBps
	info.MaxTxEth = cfg.MaxTxEth
	info.GraduationFee = cfg.GraduationFee

	for _, a := range s.machine.Assets() {
		info.Assets++
		if _, st, ok := s.machine.State(a.ID); ok {
			if st.Open {
				info.Open++
			}
			if st.Graduated {
				info.Graduated++
			}
		}
	}
	return info, nil
}

// LaunchParams lists a new asset. Target and the curve override are
// optional; amounts are base-unit decimal strings throughout.
type LaunchParams struct {
	Creator  string         `json:"creator"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Salt     uint64         `json:"salt"`
	Target   amount.Amount  `json:"target,omitempty"`
	Split    *SplitParams   `json:"split,omitempty"`
	DexSplit *SplitParams   `json:"dex_split,omitempty"`
	Curve    *CurveOverride `json:"curve,omitempty"`
}

// SplitParams is a creator/community/buyback triple summing to 100.
type SplitParams struct {
	Creator   uint64 `json:"creator"`
	Community uint64 `json:"community"`
	Buyback   uint64 `json:"buyback"`
}

// CurveOverride replaces the default pricing parameters for one asset.
type CurveOverride struct {
	InitialPrice amount.Amount `json:"initial_price"`
	K            string        `json:"k"`
	TokenLimit   amount.Amount `json:"token_limit"`
	SpreadBps    uint64        `json:"spread_bps,omitempty"`
}

// LaunchResult echoes the created listing.
type LaunchResult struct {
	Asset     assetid.AssetID `json:"asset"`
	Creator   string          `json:"creator"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Target    amount.Amount   `json:"target"`
	CreatedAt time.Time       `json:"created_at"`
}

// Launch creates and opens a new asset.
func (s *Service) Launch(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p LaunchParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}

	def := market.AssetDef{
		Creator: p.Creator,
		Symbol:  p.Symbol,
		Name:    p.Name,
		Salt:    p.Salt,
		Target:  p.Target,
	}
	if p.Split != nil {
		def.Split = &fees.Split{
			Creator:   p.Split.Creator,
			Community: p.Split.Community,
			Buyback:   p.Split.Buyback,
		}
	}
	if p.DexSplit != nil {
		def.DexSplit = &fees.Split{
			Creator:   p.DexSplit.Creator,
			Community: p.DexSplit.Community,
			Buyback:   p.DexSplit.Buyback,
		}
	}
	if p.Curve != nil {
		k, ok := new(big.Int).SetString(p.Curve.K, 10)
		if !ok {
			return nil, errInvalidParams("invalid curve k")
		}
		def.Curve = &curve.Params{
			InitialPrice: p.Curve.InitialPrice,
			K:            k,
			TokenLimit:   p.Curve.TokenLimit,
			SpreadBps:    p.Curve.SpreadBps,
		}
	}

	asset, res := s.machine.CreateAsset(ctx.Context, def)
	if !res.IsApplied() {
		return nil, errFromResult(res)
	}
	return LaunchResult{
		Asset:     asset.ID,
		Creator:   asset.Creator,
		Symbol:    asset.Symbol,
		Name:      asset.Name,
		Target:    asset.Target,
		CreatedAt: asset.CreatedAt,
	}, nil
}

// BuyParams is one purchase attempt.
type BuyParams struct {
	Asset        string        `json:"asset"`
	Buyer        string        `json:"buyer"`
	EthIn        amount.Amount `json:"eth_in"`
	MinTokensOut amount.Amount `json:"min_tokens_out,omitempty"`
}

// TradeResult reports an applied buy or sell.
type TradeResult struct {
	Result     string        `json:"result"`
	Code       int           `json:"code"`
	Tokens     amount.Amount `json:"tokens,omitempty"`
	Spent      amount.Amount `json:"spent,omitempty"`
	Proceeds   amount.Amount `json:"proceeds,omitempty"`
	Gross      amount.Amount `json:"gross,omitempty"`
	Fee        amount.Amount `json:"fee"`
	Refund     amount.Amount `json:"refund,omitempty"`
	PriceAfter amount.Amount `json:"price_after"`
	Sold       amount.Amount `json:"sold"`
	Raised     amount.Amount `json:"raised"`
	FairLaunch bool          `json:"fair_launch,omitempty"`
	Graduated  bool          `json:"graduated,omitempty"`
}

// Buy executes a purchase. Applied results, including a buy whose
// follow-up graduation failed, come back as success with the receipt.
func (s *Service) Buy(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p BuyParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	rcpt := s.machine.Buy(ctx.Context, market.BuyRequest{
		Asset:        id,
		Buyer:        p.Buyer,
		EthIn:        p.EthIn,
		MinTokensOut: p.MinTokensOut,
	})
	if !rcpt.Result.IsApplied() {
		return nil, errFromResult(rcpt.Result)
	}
	return TradeResult{
		Result:     rcpt.Result.String(),
		Code:       int(rcpt.Result),
		Tokens:     rcpt.Tokens,
		Spent:      rcpt.Spent,
		Fee:        rcpt.Fee,
		Refund:     rcpt.Refund,
		PriceAfter: rcpt.PriceAfter,
		Sold:       rcpt.Sold,
		Raised:     rcpt.Raised,
		FairLaunch: rcpt.FairLaunch,
		Graduated:  rcpt.Graduated,
	}, nil
}

// SellParams is one sale attempt.
type SellParams struct {
	Asset     string        `json:"asset"`
	Seller    string        `json:"seller"`
	Tokens    amount.Amount `json:"tokens"`
	MinEthOut amount.Amount `json:"min_eth_out,omitempty"`
}

// Sell executes a sale back into the curve.
func (s *Service) Sell(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p SellParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	rcpt := s.machine.Sell(ctx.Context, market.SellRequest{
		Asset:     id,
		Seller:    p.Seller,
		Tokens:    p.Tokens,
		MinEthOut: p.MinEthOut,
	})
	if !rcpt.Result.IsApplied() {
		return nil, errFromResult(rcpt.Result)
	}
	return TradeResult{
		Result:     rcpt.Result.String(),
		Code:       int(rcpt.Result),
		Proceeds:   rcpt.Proceeds,
		Gross:      rcpt.Gross,
		Fee:        rcpt.Fee,
		PriceAfter: rcpt.PriceAfter,
		Sold:       rcpt.Sold,
		Raised:     rcpt.Raised,
	}, nil
}

// QuoteBuyParams prices a prospective buy.
type QuoteBuyParams struct {
	Asset string        `json:"asset"`
	EthIn amount.Amount `json:"eth_in"`
}

// QuoteResult reports a quote; buys fill Tokens/Spend/Refund, sells
// fill Proceeds/Gross.
type QuoteResult struct {
	Tokens     amount.Amount `json:"tokens,omitempty"`
	Spend      amount.Amount `json:"spend,omitempty"`
	Proceeds   amount.Amount `json:"proceeds,omitempty"`
	Gross      amount.Amount `json:"gross,omitempty"`
	Fee        amount.Amount `json:"fee"`
	Refund     amount.Amount `json:"refund,omitempty"`
	PriceAfter amount.Amount `json:"price_after"`
}

// QuoteBuy previews a buy without touching state.
func (s *Service) QuoteBuy(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p QuoteBuyParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	q, res := s.machine.QuoteBuy(id, p.EthIn)
	if !res.IsSuccess() {
		return nil, errFromResult(res)
	}
	return QuoteResult{
		Tokens:     q.Tokens,
		Spend:      q.Spend,
		Fee:        q.Fee,
		Refund:     q.Refund,
		PriceAfter: q.PriceAfter,
	}, nil
}

// QuoteSellParams prices a prospective sell.
type QuoteSellParams struct {
	Asset  string        `json:"asset"`
	Tokens amount.Amount `json:"tokens"`
}

// QuoteSell previews a sell without touching state.
func (s *Service) QuoteSell(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p QuoteSellParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	q, res := s.machine.QuoteSell(id, p.Tokens)
	if !res.IsSuccess() {
		return nil, errFromResult(res)
	}
	return QuoteResult{
		Proceeds:   q.Proceeds,
		Gross:      q.Gross,
		Fee:        q.Fee,
		PriceAfter: q.PriceAfter,
	}, nil
}

// AssetParams selects one asset.
type AssetParams struct {
	Asset string `json:"asset"`
}

// Price returns the current spot buy price.
func (s *Service) Price(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p AssetParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	price, res := s.machine.Price(id)
	if !res.IsSuccess() {
		return nil, errFromResult(res)
	}
	return map[string]interface{}{"asset": id, "price": price}, nil
}

// AssetInfoResult is the full public view of one listing.
type AssetInfoResult struct {
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

// AssetInfo returns one asset's listing and trading state.
func (s *Service) AssetInfo(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p AssetParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	asset, st, ok := s.machine.State(id)
	if !ok {
		return nil, errFromResult(market.RejUnknownAsset)
	}
	info := assetInfo(asset, st)
	if price, res := s.machine.Price(id); res.IsSuccess() {
		info.Price = price
	}
	return info, nil
}

func assetInfo(asset market.Asset, st market.TradingState) AssetInfoResult {
	info := AssetInfoResult{
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
			info.ProgressBps = bps.Uint64()
		}
	}
	return info
}

// AssetsParams filters the asset list.
type AssetsParams struct {
	OnlyOpen bool `json:"only_open,omitempty"`
}

// Assets lists every known asset.
func (s *Service) Assets(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p AssetsParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errInvalidParams(err.Error())
		}
	}

	list := make([]AssetInfoResult, 0)
	for _, a := range s.machine.Assets() {
		_, st, ok := s.machine.State(a.ID)
		if !ok {
			continue
		}
		if p.OnlyOpen && !st.Open {
			continue
		}
		info := assetInfo(a, st)
		if price, res := s.machine.Price(a.ID); res.IsSuccess() {
			info.Price = price
		}
		list = append(list, info)
	}
	return map[string]interface{}{"assets": list, "count": len(list)}, nil
}

// TradesParams pages an asset's trade history.
type TradesParams struct {
	Asset string `json:"asset"`
	Limit int    `json:"limit,omitempty"`
}

// Trades returns an asset's recent trades, newest first.
func (s *Service) Trades(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	if s.history == nil {
		return nil, errNotSupported("trade history is not configured")
	}
	var p TradesParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	trades, err := s.history.TradesByAsset(ctx.Context, id, p.Limit)
	if err != nil {
		s.log.Error("trade history query failed", zap.Error(err))
		return nil, errInternal(err)
	}
	return map[string]interface{}{"asset": id, "trades": trades, "count": len(trades)}, nil
}

// AssetStats aggregates an asset's trade history.
func (s *Service) AssetStats(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	if s.history == nil {
		return nil, errNotSupported("trade history is not configured")
	}
	var p AssetParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	st, err := s.history.Stats(ctx.Context, id)
	if err != nil {
		s.log.Error("stats query failed", zap.Error(err))
		return nil, errInternal(err)
	}
	return map[string]interface{}{
		"asset":      id,
		"trades":     st.Trades,
		"buys":       st.Buys,
		"sells":      st.Sells,
		"volume_eth": st.VolumeEth,
		"fees_eth":   st.FeesEth,
		"last_price": st.LastPrice,
		"last_trade": st.LastTradeAt,
	}, nil
}

// LaunchesParams pages the launch feed.
type LaunchesParams struct {
	Limit int `json:"limit,omitempty"`
}

// Launches returns the newest listings.
func (s *Service) Launches(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	if s.history == nil {
		return nil, errNotSupported("trade history is not configured")
	}
	var p LaunchesParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errInvalidParams(err.Error())
		}
	}

	launches, err := s.history.RecentLaunches(ctx.Context, p.Limit)
	if err != nil {
		s.log.Error("launch feed query failed", zap.Error(err))
		return nil, errInternal(err)
	}
	return map[string]interface{}{"launches": launches, "count": len(launches)}, nil
}

// CreatorParams selects a creator account.
type CreatorParams struct {
	Creator string `json:"creator"`
}

// ClaimCreator pays out a creator's accumulated fee share.
func (s *Service) ClaimCreator(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p CreatorParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	if p.Creator == "" {
		return nil, errInvalidParams("creator is required")
	}

	claimed, err := s.dist.ClaimCreator(ctx.Context, p.Creator)
	if err != nil {
		return nil, errInternal(err)
	}
	return map[string]interface{}{"creator": p.Creator, "claimed": claimed}, nil
}

// CreatorBalance reads a creator's claimable balance.
func (s *Service) CreatorBalance(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p CreatorParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	if p.Creator == "" {
		return nil, errInvalidParams("creator is required")
	}
	return map[string]interface{}{
		"creator": p.Creator,
		"balance": s.dist.CreatorBalance(p.Creator),
	}, nil
}

// Graduate migrates a closed or target-reached asset to its venue.
func (s *Service) Graduate(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p AssetParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	if err := s.grad.Graduate(ctx.Context, id); err != nil {
		return nil, NewError(CodeInternal, "graduationFailed", err.Error())
	}
	asset, st, _ := s.machine.State(id)
	return assetInfo(asset, st), nil
}

// CollectFees sweeps the venue position's accrued swap fees.
func (s *Service) CollectFees(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p AssetParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	col, err := s.grad.CollectFees(ctx.Context, id)
	if err != nil {
		return nil, NewError(CodeInternal, "collectFailed", err.Error())
	}
	return map[string]interface{}{
		"asset":      id,
		"token_fees": col.TokenFees,
		"wei_fees":   col.WeiFees,
		"platform":   col.Breakdown.Platform,
		"creator":    col.Breakdown.Creator,
		"community":  col.Breakdown.Community,
		"buyback":    col.Breakdown.Buyback,
	}, nil
}

// CloseAsset halts trading on an asset.
func (s *Service) CloseAsset(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p AssetParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	if res := s.machine.Close(ctx.Context, id); !res.IsApplied() {
		return nil, errFromResult(res)
	}
	asset, st, _ := s.machine.State(id)
	return assetInfo(asset, st), nil
}

// SellsParams toggles sells for one asset.
type SellsParams struct {
	Asset   string `json:"asset"`
	Enabled bool   `json:"enabled"`
}

// SetSellsEnabled flips the per-asset sell switch.
func (s *Service) SetSellsEnabled(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p SellsParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}

	if res := s.machine.SetSellsEnabled(ctx.Context, id, p.Enabled); !res.IsApplied() {
		return nil, errFromResult(res)
	}
	asset, st, _ := s.machine.State(id)
	return assetInfo(asset, st), nil
}

// FeeLedger snapshots the platform fee buckets.
func (s *Service) FeeLedger(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	l := s.dist.Snapshot()

	creators := make(map[string]amount.Amount, len(l.CreatorClaims))
	for creator, bal := range l.CreatorClaims {
		creators[creator] = bal
	}
	buybacks := make(map[string]amount.Amount, len(l.AssetBuyback))
	for id, bal := range l.AssetBuyback {
		buybacks[id.String()] = bal
	}
	return map[string]interface{}{
		"platform_total":   l.PlatformTotal,
		"community_total":  l.CommunityTotal,
		"buyback_total":    l.BuybackTotal,
		"graduation_total": l.GraduationTotal,
		"creator_claims":   creators,
		"asset_buyback":    buybacks,
	}, nil
}

// WithdrawParams names the receiving account.
type WithdrawParams struct {
	To string `json:"to"`
}

// WithdrawPlatform pays the platform bucket out of the vault.
func (s *Service) WithdrawPlatform(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p WithdrawParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	if p.To == "" {
		return nil, errInvalidParams("to is required")
	}

	amt, err := s.dist.WithdrawPlatform(ctx.Context, p.To)
	if err != nil {
		return nil, errInternal(err)
	}
	return map[string]interface{}{"to": p.To, "amount": amt}, nil
}

// WithdrawCommunity pays the community bucket out of the vault.
func (s *Service) WithdrawCommunity(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p WithdrawParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	if p.To == "" {
		return nil, errInvalidParams("to is required")
	}

	amt, err := s.dist.WithdrawCommunity(ctx.Context, p.To)
	if err != nil {
		return nil, errInternal(err)
	}
	return map[string]interface{}{"to": p.To, "amount": amt}, nil
}

// BuybackParams names the asset bucket and receiving account.
type BuybackParams struct {
	Asset string `json:"asset"`
	To    string `json:"to"`
}

// WithdrawBuyback pays one asset's buyback bucket out of the vault.
func (s *Service) WithdrawBuyback(ctx *ReqContext, params json.RawMessage) (interface{}, *Error) {
	var p BuybackParams
	if errp := parseParams(params, &p); errp != nil {
		return nil, errp
	}
	id, errp := parseAsset(p.Asset)
	if errp != nil {
		return nil, errp
	}
	if p.To == "" {
		return nil, errInvalidParams("to is required")
	}

	amt, err := s.dist.WithdrawBuyback(ctx.Context, id, p.To)
	if err != nil {
		return nil, errInternal(err)
	}
	return map[string]interface{}{"asset": id, "to": p.To, "amount": amt}, nil
}
