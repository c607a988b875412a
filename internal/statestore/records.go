package statestore

import (
	"fmt"
	"math/big"
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
)

// Persisted records keep amounts as decimal strings so the encoding is
// stable across codec versions and readable in a raw dump. Conversions
// back into domain types validate every field.

type curveRecord struct {
	InitialPrice string `codec:"initial_price"`
	K            string `codec:"k"`
	TokenLimit   string `codec:"token_limit"`
	SpreadBps    uint64 `codec:"spread_bps"`
}

type splitRecord struct {
	Creator   uint64 `codec:"creator"`
	Community uint64 `codec:"community"`
	Buyback   uint64 `codec:"buyback"`
}

type assetRecord struct {
	ID        []byte       `codec:"id"`
	Creator   string       `codec:"creator"`
	Symbol    string       `codec:"symbol"`
	Name      string       `codec:"name"`
	Target    string       `codec:"target"`
	Split     *splitRecord `codec:"split,omitempty"`
	DexSplit  *splitRecord `codec:"dex_split,omitempty"`
	Curve     curveRecord  `codec:"curve"`
	CreatedAt int64        `codec:"created_at"`
}

type stateRecord struct {
	Sold         string `codec:"sold"`
	Raised       string `codec:"raised"`
	Open         bool   `codec:"open"`
	SellsEnabled bool   `codec:"sells_enabled"`
	Graduated    bool   `codec:"graduated"`
	PoolRef      string `codec:"pool_ref,omitempty"`
	PositionRef  string `codec:"position_ref,omitempty"`
}

type feesRecord struct {
	Platform   string `codec:"platform"`
	Community  string `codec:"community"`
	Buyback    string `codec:"buyback"`
	Graduation string `codec:"graduation"`

	// Creators maps claimant account to claimable balance.
	Creators map[string]string `codec:"creators"`

	// AssetBuyback maps hex asset id to its buyback sub-balance.
	AssetBuyback map[string]string `codec:"asset_buyback"`
}

func splitToRecord(s *fees.Split) *splitRecord {
	if s == nil {
		return nil
	}
	return &splitRecord{Creator: s.Creator, Community: s.Community, Buyback: s.Buyback}
}

func recordToSplit(rec *splitRecord) *fees.Split {
	if rec == nil {
		return nil
	}
	return &fees.Split{Creator: rec.Creator, Community: rec.Community, Buyback: rec.Buyback}
}

func assetToRecord(a market.Asset) assetRecord {
	rec := assetRecord{
		ID:       a.ID.Bytes(),
		Creator:  a.Creator,
		Symbol:   a.Symbol,
		Name:     a.Name,
		Target:   a.Target.String(),
		Split:    splitToRecord(a.Split),
		DexSplit: splitToRecord(a.DexSplit),
		Curve: curveRecord{
			InitialPrice: a.Curve.InitialPrice.String(),
			K:            "0",
			TokenLimit:   a.Curve.TokenLimit.String(),
			SpreadBps:    a.Curve.SpreadBps,
		},
	}
	if a.Curve.K != nil {
		rec.Curve.K = a.Curve.K.String()
	}
	if !a.CreatedAt.IsZero() {
		rec.CreatedAt = a.CreatedAt.UnixNano()
	}
	return rec
}

func recordToAsset(rec assetRecord) (market.Asset, error) {
	target, err := amount.Parse(rec.Target)
	if err != nil {
		return market.Asset{}, fmt.Errorf("asset target: %w", err)
	}
	initial, err := amount.Parse(rec.Curve.InitialPrice)
	if err != nil {
		return market.Asset{}, fmt.Errorf("curve initial price: %w", err)
	}
	limit, err := amount.Parse(rec.Curve.TokenLimit)
	if err != nil {
		return market.Asset{}, fmt.Errorf("curve token limit: %w", err)
	}
	k, ok := new(big.Int).SetString(rec.Curve.K, 10)
	if !ok {
		return market.Asset{}, fmt.Errorf("curve constant: bad integer %q", rec.Curve.K)
	}

	a := market.Asset{
		ID:       assetid.FromBytes(rec.ID),
		Creator:  rec.Creator,
		Symbol:   rec.Symbol,
		Name:     rec.Name,
		Target:   target,
		Split:    recordToSplit(rec.Split),
		DexSplit: recordToSplit(rec.DexSplit),
		Curve: curve.Params{
			InitialPrice: initial,
			K:            k,
			TokenLimit:   limit,
			SpreadBps:    rec.Curve.SpreadBps,
		},
	}
	if rec.CreatedAt != 0 {
		a.CreatedAt = time.Unix(0, rec.CreatedAt)
	}
	return a, nil
}

func stateToRecord(st market.TradingState) stateRecord {
	return stateRecord{
		Sold:         st.Sold.String(),
		Raised:       st.Raised.String(),
		Open:         st.Open,
		SellsEnabled: st.SellsEnabled,
		Graduated:    st.Graduated,
		PoolRef:      st.PoolRef,
		PositionRef:  st.PositionRef,
	}
}

func recordToState(rec stateRecord) (market.TradingState, error) {
	sold, err := amount.Parse(rec.Sold)
	if err != nil {
		return market.TradingState{}, fmt.Errorf("state sold: %w", err)
	}
	raised, err := amount.Parse(rec.Raised)
	if err != nil {
		return market.TradingState{}, fmt.Errorf("state raised: %w", err)
	}
	return market.TradingState{
		Sold:         sold,
		Raised:       raised,
		Open:         rec.Open,
		SellsEnabled: rec.SellsEnabled,
		Graduated:    rec.Graduated,
		PoolRef:      rec.PoolRef,
		PositionRef:  rec.PositionRef,
	}, nil
}

func ledgerToRecord(l fees.Ledger) feesRecord {
	rec := feesRecord{
		Platform:     l.PlatformTotal.String(),
		Community:    l.CommunityTotal.String(),
		Buyback:      l.BuybackTotal.String(),
		Graduation:   l.GraduationTotal.String(),
		Creators:     make(map[string]string, len(l.CreatorClaims)),
		AssetBuyback: make(map[string]string, len(l.AssetBuyback)),
	}
	for acct, v := range l.CreatorClaims {
		rec.Creators[acct] = v.String()
	}
	for id, v := range l.AssetBuyback {
		rec.AssetBuyback[id.String()] = v.String()
	}
	return rec
}

func recordToLedger(rec feesRecord) (fees.Ledger, error) {
	platform, err := amount.Parse(rec.Platform)
	if err != nil {
		return fees.Ledger{}, fmt.Errorf("platform total: %w", err)
	}
	community, err := amount.Parse(rec.Community)
	if err != nil {
		return fees.Ledger{}, fmt.Errorf("community total: %w", err)
	}
	buyback, err := amount.Parse(rec.Buyback)
	if err != nil {
		return fees.Ledger{}, fmt.Errorf("buyback total: %w", err)
	}
	graduation, err := amount.Parse(rec.Graduation)
	if err != nil {
		return fees.Ledger{}, fmt.Errorf("graduation total: %w", err)
	}

	l := fees.Ledger{
		PlatformTotal:   platform,
		CommunityTotal:  community,
		BuybackTotal:    buyback,
		GraduationTotal: graduation,
		CreatorClaims:   make(map[string]amount.Amount, len(rec.Creators)),
		AssetBuyback:    make(map[assetid.AssetID]amount.Amount, len(rec.AssetBuyback)),
	}
	for acct, s := range rec.Creators {
		v, err := amount.Parse(s)
		if err != nil {
			return fees.Ledger{}, fmt.Errorf("creator claim %s: %w", acct, err)
		}
		l.CreatorClaims[acct] = v
	}
	for idHex, s := range rec.AssetBuyback {
		id, err := assetid.FromHex(idHex)
		if err != nil {
			return fees.Ledger{}, fmt.Errorf("buyback asset %s: %w", idHex, err)
		}
		v, err := amount.Parse(s)
		if err != nil {
			return fees.Ledger{}, fmt.Errorf("buyback balance %s: %w", idHex, err)
		}
		l.AssetBuyback[id] = v
	}
	return l, nil
}
