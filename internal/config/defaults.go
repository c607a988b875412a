package config

import "github.com/spf13/viper"

// setDefaults registers every key with its platform default so env
// overrides resolve even without a config file.
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)

	// Storage defaults
	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "data/state")
	v.SetDefault("storage.compression", "lz4")
	v.SetDefault("storage.cache_size", 1024)

	// History defaults
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "data/history.db")

	// Market defaults: 1% trading fee, 50 ETH per-buy cap, 0.1 ETH
	// graduation fee.
	v.SetDefault("market.trade_fee_bps", 100)
	v.SetDefault("market.max_tx_eth", "50")
	v.SetDefault("market.graduation_fee", "0.1")
	v.SetDefault("market.escrow", "curve:escrow")

	// Curve defaults: starting price 0.00001, K tuned so the full
	// 400,000-token allocation raises roughly 20.
	v.SetDefault("curve.initial_price", "0.00001")
	v.SetDefault("curve.k", "400000000000000000000000")
	v.SetDefault("curve.token_limit", 400_000)
	v.SetDefault("curve.spread_bps", 500)

	// Fee distribution defaults
	v.SetDefault("fees.vault", "curve:vault")
	v.SetDefault("fees.fixed_platform_bps", 5_000)
	v.SetDefault("fees.adjustable_bps", 5_000)
	v.SetDefault("fees.split.creator", 50)
	v.SetDefault("fees.split.community", 30)
	v.SetDefault("fees.split.buyback", 20)
	v.SetDefault("fees.dex_fixed_platform_bps", 2_000)
	v.SetDefault("fees.dex_adjustable_bps", 8_000)
	v.SetDefault("fees.dex_split.creator", 60)
	v.SetDefault("fees.dex_split.community", 20)
	v.SetDefault("fees.dex_split.buyback", 20)

	// Gate defaults: a short sniper block, no fair-launch window.
	v.SetDefault("gate.sniper_block", "2s")
	v.SetDefault("gate.fair_launch", "0s")
	v.SetDefault("gate.fair_launch_price", "0.00001")
	v.SetDefault("gate.wallet_cap_tokens", 10_000)

	// Venue defaults
	v.SetDefault("venue.fee_bps", 30)

	// RPC defaults
	v.SetDefault("rpc.ip", "127.0.0.1")
	v.SetDefault("rpc.port", 5005)
	v.SetDefault("rpc.admin_ips", []string{"127.0.0.1", "::1"})

	// Query service defaults
	v.SetDefault("grpc.enabled", false)
	v.SetDefault("grpc.ip", "127.0.0.1")
	v.SetDefault("grpc.port", 50051)
}
