package historydb

import (
	"context"
	"database/sql"

	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/registry"
)

var _ registry.Recorder = (*DB)(nil)
var _ registry.CreatorLookup = (*DB)(nil)

// RecordLaunch stores one listing. A duplicate asset is ignored so a
// replayed launch cannot corrupt history.
func (d *DB) RecordLaunch(ctx context.Context, l registry.Launch) error {
	query := d.rebind(`INSERT INTO launches
		(asset, creator, symbol, name, target, launched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (asset) DO NOTHING`)

	_, err := d.db.ExecContext(ctx, query,
		l.Asset.String(), l.Creator, l.Symbol, l.Name,
		l.Target.String(), l.LaunchedAt.UnixNano())
	return err
}

// RecordTrade appends one settled buy or sell.
func (d *DB) RecordTrade(ctx context.Context, t registry.Trade) error {
	query := d.rebind(`INSERT INTO trades
		(asset, side, trader, tokens, eth, fee, price_after, sold, raised, traded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := d.db.ExecContext(ctx, query,
		t.Asset.String(), t.Side, t.Trader,
		t.Tokens.String(), t.Eth.String(), t.Fee.String(),
		t.PriceAfter.String(), t.Sold.String(), t.Raised.String(),
		t.At.UnixNano())
	return err
}

// RecordGraduation stores the migration record. Graduation is terminal,
// so a duplicate is ignored.
func (d *DB) RecordGraduation(ctx context.Context, g registry.Graduation) error {
	query := d.rebind(`INSERT INTO graduations
		(asset, pool_ref, position_ref, final_price, eth_seeded, tokens_seeded, burned, graduated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (asset) DO NOTHING`)

	_, err := d.db.ExecContext(ctx, query,
		g.Asset.String(), g.Pool, g.Position,
		g.FinalPrice.String(), g.EthSeeded.String(), g.TokensSeeded.String(),
		g.Burned.String(), g.At.UnixNano())
	return err
}

// Creator resolves the launching account of an asset. An unknown asset
// returns empty without error, matching the lookup contract.
func (d *DB) Creator(ctx context.Context, asset assetid.AssetID) (string, error) {
	query := d.rebind(`SELECT creator FROM launches WHERE asset = ?`)

	var creator string
	err := d.db.QueryRowContext(ctx, query, asset.String()).Scan(&creator)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return creator, nil
}
