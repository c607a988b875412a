package historydb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/registry"
)

// Stats aggregates one asset's trade history.
type Stats struct {
	Trades      int
	Buys        int
	Sells       int
	VolumeEth   amount.Amount
	FeesEth     amount.Amount
	LastPrice   amount.Amount
	LastTradeAt time.Time
}

// TradesByAsset returns the most recent trades for an asset, newest
// first, at most limit rows.
func (d *DB) TradesByAsset(ctx context.Context, asset assetid.AssetID, limit int) ([]registry.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	query := d.rebind(`SELECT asset, side, trader, tokens, eth, fee, price_after, sold, raised, traded_at
		FROM trades WHERE asset = ? ORDER BY traded_at DESC, id DESC LIMIT ?`)

	rows, err := d.db.QueryContext(ctx, query, asset.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []registry.Trade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Stats scans an asset's trades and aggregates in Go; wei sums exceed
// int64 so SQL SUM cannot be used on the string columns.
func (d *DB) Stats(ctx context.Context, asset assetid.AssetID) (Stats, error) {
	query := d.rebind(`SELECT side, eth, fee, price_after, traded_at
		FROM trades WHERE asset = ? ORDER BY traded_at ASC, id ASC`)

	rows, err := d.db.QueryContext(ctx, query, asset.String())
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()

	st := Stats{VolumeEth: amount.Zero(), FeesEth: amount.Zero(), LastPrice: amount.Zero()}
	for rows.Next() {
		var side, eth, fee, price string
		var at int64
		if err := rows.Scan(&side, &eth, &fee, &price, &at); err != nil {
			return Stats{}, err
		}
		ethAmt, err := amount.Parse(eth)
		if err != nil {
			return Stats{}, fmt.Errorf("historydb: corrupt eth column: %w", err)
		}
		feeAmt, err := amount.Parse(fee)
		if err != nil {
			return Stats{}, fmt.Errorf("historydb: corrupt fee column: %w", err)
		}
		priceAmt, err := amount.Parse(price)
		if err != nil {
			return Stats{}, fmt.Errorf("historydb: corrupt price column: %w", err)
		}

		st.Trades++
		if side == "buy" {
			st.Buys++
		} else {
			st.Sells++
		}
		st.VolumeEth = st.VolumeEth.Add(ethAmt)
		st.FeesEth = st.FeesEth.Add(feeAmt)
		st.LastPrice = priceAmt
		st.LastTradeAt = time.Unix(0, at)
	}
	return st, rows.Err()
}

// RecentLaunches returns the newest listings, at most limit rows.
func (d *DB) RecentLaunches(ctx context.Context, limit int) ([]registry.Launch, error) {
	if limit <= 0 {
		limit = 50
	}
	query := d.rebind(`SELECT asset, creator, symbol, name, target, launched_at
		FROM launches ORDER BY launched_at DESC LIMIT ?`)

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var launches []registry.Launch
	for rows.Next() {
		var asset, creator, symbol, name, target string
		var at int64
		if err := rows.Scan(&asset, &creator, &symbol, &name, &target, &at); err != nil {
			return nil, err
		}
		id, err := assetid.FromHex(asset)
		if err != nil {
			return nil, fmt.Errorf("historydb: corrupt asset column: %w", err)
		}
		targetAmt, err := amount.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("historydb: corrupt target column: %w", err)
		}
		launches = append(launches, registry.Launch{
			Asset:      id,
			Creator:    creator,
			Symbol:     symbol,
			Name:       name,
			Target:     targetAmt,
			LaunchedAt: time.Unix(0, at),
		})
	}
	return launches, rows.Err()
}

// Graduation returns an asset's migration record; found is false when
// the asset has not graduated.
func (d *DB) Graduation(ctx context.Context, asset assetid.AssetID) (registry.Graduation, bool, error) {
	query := d.rebind(`SELECT pool_ref, position_ref, final_price, eth_seeded, tokens_seeded, burned, graduated_at
		FROM graduations WHERE asset = ?`)

	var pool, position, price, eth, tokens, burned string
	var at int64
	err := d.db.QueryRowContext(ctx, query, asset.String()).
		Scan(&pool, &position, &price, &eth, &tokens, &burned, &at)
	if err == sql.ErrNoRows {
		return registry.Graduation{}, false, nil
	}
	if err != nil {
		return registry.Graduation{}, false, err
	}

	g := registry.Graduation{Asset: asset, Pool: pool, Position: position, At: time.Unix(0, at)}
	if g.FinalPrice, err = amount.Parse(price); err != nil {
		return registry.Graduation{}, false, fmt.Errorf("historydb: corrupt final_price column: %w", err)
	}
	if g.EthSeeded, err = amount.Parse(eth); err != nil {
		return registry.Graduation{}, false, fmt.Errorf("historydb: corrupt eth_seeded column: %w", err)
	}
	if g.TokensSeeded, err = amount.Parse(tokens); err != nil {
		return registry.Graduation{}, false, fmt.Errorf("historydb: corrupt tokens_seeded column: %w", err)
	}
	if g.Burned, err = amount.Parse(burned); err != nil {
		return registry.Graduation{}, false, fmt.Errorf("historydb: corrupt burned column: %w", err)
	}
	return g, true, nil
}

func scanTrade(rows *sql.Rows) (registry.Trade, error) {
	var asset, side, trader, tokens, eth, fee, price, sold, raised string
	var at int64
	if err := rows.Scan(&asset, &side, &trader, &tokens, &eth, &fee, &price, &sold, &raised, &at); err != nil {
		return registry.Trade{}, err
	}

	id, err := assetid.FromHex(asset)
	if err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt asset column: %w", err)
	}
	t := registry.Trade{Asset: id, Side: side, Trader: trader, At: time.Unix(0, at)}
	if t.Tokens, err = amount.Parse(tokens); err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt tokens column: %w", err)
	}
	if t.Eth, err = amount.Parse(eth); err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt eth column: %w", err)
	}
	if t.Fee, err = amount.Parse(fee); err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt fee column: %w", err)
	}
	if t.PriceAfter, err = amount.Parse(price); err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt price_after column: %w", err)
	}
	if t.Sold, err = amount.Parse(sold); err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt sold column: %w", err)
	}
	if t.Raised, err = amount.Parse(raised); err != nil {
		return registry.Trade{}, fmt.Errorf("historydb: corrupt raised column: %w", err)
	}
	return t, nil
}
