package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "pebble", cfg.Storage.Backend)
	assert.Equal(t, "lz4", cfg.Storage.Compression)
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, uint64(100), cfg.Market.TradeFeeBps)
	assert.Equal(t, "curve:vault", cfg.Fees.Vault)
	assert.Equal(t, "127.0.0.1:5005", cfg.RPCAddr())
	assert.False(t, cfg.GRPC.Enabled)
	assert.Empty(t, cfg.Path())
}

func TestLoadFile(t *testing.T) {
	content := `
[log]
level = "debug"

[storage]
backend = "memory"

[market]
trade_fee_bps = 250
max_tx_eth = "10"
escrow = "test:escrow"

[gate]
sniper_block = "30s"
fair_launch = "5m"

[rpc]
port = 7001
`
	path := filepath.Join(t.TempDir(), "curved.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, uint64(250), cfg.Market.TradeFeeBps)
	assert.Equal(t, 7001, cfg.RPC.Port)
	assert.Equal(t, 30*time.Second, cfg.Gate.SniperBlock)
	assert.Equal(t, 5*time.Minute, cfg.Gate.FairLaunch)
	assert.Equal(t, path, cfg.Path())

	// Keys absent from the file keep their defaults.
	assert.Equal(t, "sqlite", cfg.History.Driver)
	assert.Equal(t, "0.1", cfg.Market.GraduationFee)

	mkt, err := cfg.MarketConfig()
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", mkt.MaxTxEth.String())
	assert.Equal(t, "test:escrow", mkt.Escrow)
	require.NotNil(t, mkt.DefaultCurve)
	assert.Equal(t, "10000000000000", mkt.DefaultCurve.InitialPrice.String())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CURVED_RPC_PORT", "7100")
	t.Setenv("CURVED_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.RPC.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"bad backend",
			func(c *Config) { c.Storage.Backend = "rocksdb" },
			"backend must be",
		},
		{
			"bad compression",
			func(c *Config) { c.Storage.Compression = "zstd" },
			"compression must be",
		},
		{
			"bad history driver",
			func(c *Config) { c.History.Driver = "mysql" },
			"driver must be",
		},
		{
			"trade fee too high",
			func(c *Config) { c.Market.TradeFeeBps = 10000 },
			"trade_fee_bps",
		},
		{
			"unparseable amount",
			func(c *Config) { c.Market.MaxTxEth = "ten" },
			"max_tx_eth",
		},
		{
			"bad split",
			func(c *Config) { c.Fees.Split.Creator = 99 },
			"fees",
		},
		{
			"missing vault",
			func(c *Config) { c.Fees.Vault = "" },
			"vault",
		},
		{
			"bad rpc port",
			func(c *Config) { c.RPC.Port = 99999 },
			"port must be between",
		},
		{
			"bad log level",
			func(c *Config) { c.Log.Level = "loud" },
			"log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCurveParams(t *testing.T) {
	cfg := Default()
	params, err := cfg.CurveParams()
	require.NoError(t, err)

	assert.Equal(t, "10000000000000", params.InitialPrice.String())
	assert.Equal(t, "400000000000000000000000", params.K.String())
	assert.Equal(t, "400000000000000000000000", params.TokenLimit.String())
	assert.Equal(t, uint64(500), params.SpreadBps)
}

func TestFeeParams(t *testing.T) {
	cfg := Default()
	params := cfg.FeeParams()
	require.NoError(t, params.Validate())

	assert.Equal(t, uint64(5000), params.FixedPlatformBps)
	assert.Equal(t, uint64(50), params.DefaultSplit.Creator)
	assert.Equal(t, uint64(2000), params.DexFixedPlatformBps)
	assert.Equal(t, uint64(60), params.DexDefaultSplit.Creator)
}

func TestGateWindow(t *testing.T) {
	cfg := Default()
	w, err := cfg.GateWindow()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, w.SniperBlock)
	assert.Zero(t, w.FairLaunch)
	assert.Equal(t, "10000000000000000000000", w.WalletCap.String())
}
