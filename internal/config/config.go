package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/gate"
	"github.com/curvemkt/curved/internal/logging"
)

// Config is the complete curved configuration. Monetary values are
// decimal strings of whole units ("0.1" is 0.1 ETH) so the file stays
// human-editable; conversion methods parse them into base units.
type Config struct {
	Log     LogConfig     `toml:"log" mapstructure:"log"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
	Market  MarketConfig  `toml:"market" mapstructure:"market"`
	Curve   CurveConfig   `toml:"curve" mapstructure:"curve"`
	Fees    FeesConfig    `toml:"fees" mapstructure:"fees"`
	Gate    GateConfig    `toml:"gate" mapstructure:"gate"`
	Venue   VenueConfig   `toml:"venue" mapstructure:"venue"`
	RPC     RPCConfig     `toml:"rpc" mapstructure:"rpc"`
	GRPC    GRPCConfig    `toml:"grpc" mapstructure:"grpc"`

	path string `toml:"-" mapstructure:"-"`
}

// LogConfig mirrors the logging package's knobs.
type LogConfig struct {
	Level      string `toml:"level" mapstructure:"level"`
	Format     string `toml:"format" mapstructure:"format"`
	File       string `toml:"file" mapstructure:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `toml:"compress" mapstructure:"compress"`
}

// StorageConfig selects the key-value backend holding asset and
// trading-state records.
type StorageConfig struct {
	// Backend is one of "pebble", "leveldb", "memory".
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`

	// Compression is the value codec: "none" or "lz4".
	Compression string `toml:"compression" mapstructure:"compression"`

	// CacheSize is the number of hot assets kept in the LRU.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// HistoryConfig selects the relational trade-history database.
type HistoryConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `toml:"driver" mapstructure:"driver"`
	DSN    string `toml:"dsn" mapstructure:"dsn"`
}

// MarketConfig carries the platform-wide trading parameters.
type MarketConfig struct {
	TradeFeeBps   uint64 `toml:"trade_fee_bps" mapstructure:"trade_fee_bps"`
	MaxTxEth      string `toml:"max_tx_eth" mapstructure:"max_tx_eth"`
	GraduationFee string `toml:"graduation_fee" mapstructure:"graduation_fee"`
	Escrow        string `toml:"escrow" mapstructure:"escrow"`
}

// CurveConfig carries the default pricing-curve calibration. K is a
// base-10 integer string because it exceeds uint64 range.
type CurveConfig struct {
	InitialPrice string `toml:"initial_price" mapstructure:"initial_price"`
	K            string `toml:"k" mapstructure:"k"`
	TokenLimit   uint64 `toml:"token_limit" mapstructure:"token_limit"`
	SpreadBps    uint64 `toml:"spread_bps" mapstructure:"spread_bps"`
}

// FeesConfig carries the platform cut and default splits for trading
// and post-graduation venue fees.
type FeesConfig struct {
	// Vault is the ledger account fees accrue in before withdrawal.
	Vault string `toml:"vault" mapstructure:"vault"`

	FixedPlatformBps uint64      `toml:"fixed_platform_bps" mapstructure:"fixed_platform_bps"`
	AdjustableBps    uint64      `toml:"adjustable_bps" mapstructure:"adjustable_bps"`
	Split            SplitConfig `toml:"split" mapstructure:"split"`

	DexFixedPlatformBps uint64      `toml:"dex_fixed_platform_bps" mapstructure:"dex_fixed_platform_bps"`
	DexAdjustableBps    uint64      `toml:"dex_adjustable_bps" mapstructure:"dex_adjustable_bps"`
	DexSplit            SplitConfig `toml:"dex_split" mapstructure:"dex_split"`
}

// SplitConfig is a creator/community/buyback share triple summing to 100.
type SplitConfig struct {
	Creator   uint64 `toml:"creator" mapstructure:"creator"`
	Community uint64 `toml:"community" mapstructure:"community"`
	Buyback   uint64 `toml:"buyback" mapstructure:"buyback"`
}

// GateConfig parameterizes the launch-admission window.
type GateConfig struct {
	SniperBlock     time.Duration `toml:"sniper_block" mapstructure:"sniper_block"`
	FairLaunch      time.Duration `toml:"fair_launch" mapstructure:"fair_launch"`
	FairLaunchPrice string        `toml:"fair_launch_price" mapstructure:"fair_launch_price"`
	WalletCapTokens uint64        `toml:"wallet_cap_tokens" mapstructure:"wallet_cap_tokens"`
}

// VenueConfig parameterizes the in-process liquidity venue.
type VenueConfig struct {
	FeeBps uint64 `toml:"fee_bps" mapstructure:"fee_bps"`
}

// RPCConfig is the JSON-RPC and websocket listener. Admin methods are
// open to the listed IPs only.
type RPCConfig struct {
	IP       string   `toml:"ip" mapstructure:"ip"`
	Port     int      `toml:"port" mapstructure:"port"`
	AdminIPs []string `toml:"admin_ips" mapstructure:"admin_ips"`
}

// GRPCConfig is the read-only query service listener.
type GRPCConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	IP      string `toml:"ip" mapstructure:"ip"`
	Port    int    `toml:"port" mapstructure:"port"`
}

// Path returns the file this configuration was loaded from, empty when
// running on defaults.
func (c *Config) Path() string {
	return c.path
}

// LoggingConfig converts the log section for the logging package.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// MarketConfig parses the market section into trading parameters. The
// curve section rides along as the launch-time default calibration.
func (c *Config) MarketConfig() (market.Config, error) {
	maxTx, err := amount.ParseDecimal(c.Market.MaxTxEth)
	if err != nil {
		return market.Config{}, fmt.Errorf("market.max_tx_eth: %w", err)
	}
	gradFee, err := amount.ParseDecimal(c.Market.GraduationFee)
	if err != nil {
		return market.Config{}, fmt.Errorf("market.graduation_fee: %w", err)
	}
	params, err := c.CurveParams()
	if err != nil {
		return market.Config{}, err
	}
	return market.Config{
		TradeFeeBps:   c.Market.TradeFeeBps,
		MaxTxEth:      maxTx,
		GraduationFee: gradFee,
		Escrow:        c.Market.Escrow,
		DefaultCurve:  &params,
	}, nil
}

// CurveParams parses the curve section into pricing parameters.
func (c *Config) CurveParams() (curve.Params, error) {
	initial, err := amount.ParseDecimal(c.Curve.InitialPrice)
	if err != nil {
		return curve.Params{}, fmt.Errorf("curve.initial_price: %w", err)
	}
	k, ok := new(big.Int).SetString(c.Curve.K, 10)
	if !ok || k.Sign() < 0 {
		return curve.Params{}, fmt.Errorf("curve.k: invalid integer %q", c.Curve.K)
	}
	return curve.Params{
		InitialPrice: initial,
		K:            k,
		TokenLimit:   amount.FromWhole(c.Curve.TokenLimit),
		SpreadBps:    c.Curve.SpreadBps,
	}, nil
}

// FeeParams converts the fees section.
func (c *Config) FeeParams() fees.Params {
	return fees.Params{
		FixedPlatformBps: c.Fees.FixedPlatformBps,
		AdjustableBps:    c.Fees.AdjustableBps,
		DefaultSplit: fees.Split{
			Creator:   c.Fees.Split.Creator,
			Community: c.Fees.Split.Community,
			Buyback:   c.Fees.Split.Buyback,
		},
		DexFixedPlatformBps: c.Fees.DexFixedPlatformBps,
		DexAdjustableBps:    c.Fees.DexAdjustableBps,
		DexDefaultSplit: fees.Split{
			Creator:   c.Fees.DexSplit.Creator,
			Community: c.Fees.DexSplit.Community,
			Buyback:   c.Fees.DexSplit.Buyback,
		},
	}
}

// GateWindow parses the gate section into the window gate's config.
func (c *Config) GateWindow() (gate.WindowConfig, error) {
	price, err := amount.ParseDecimal(c.Gate.FairLaunchPrice)
	if err != nil {
		return gate.WindowConfig{}, fmt.Errorf("gate.fair_launch_price: %w", err)
	}
	return gate.WindowConfig{
		SniperBlock:     c.Gate.SniperBlock,
		FairLaunch:      c.Gate.FairLaunch,
		FairLaunchPrice: price,
		WalletCap:       amount.FromWhole(c.Gate.WalletCapTokens),
	}, nil
}

// RPCAddr returns the JSON-RPC listen address.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("%s:%d", c.RPC.IP, c.RPC.Port)
}

// GRPCAddr returns the query-service listen address.
func (c *Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.GRPC.IP, c.GRPC.Port)
}
