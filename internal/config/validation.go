package config

import (
	"fmt"

	"github.com/curvemkt/curved/internal/logging"
)

// Validate checks every section, including that monetary strings parse
// and that derived domain parameters pass their own validation.
func Validate(cfg *Config) error {
	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := validateStorage(&cfg.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := validateHistory(&cfg.History); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := validateMarket(cfg); err != nil {
		return fmt.Errorf("market: %w", err)
	}
	if err := validateCurve(cfg); err != nil {
		return fmt.Errorf("curve: %w", err)
	}
	if cfg.Fees.Vault == "" {
		return fmt.Errorf("fees: vault account required")
	}
	if err := cfg.FeeParams().Validate(); err != nil {
		return fmt.Errorf("fees: %w", err)
	}
	if _, err := cfg.GateWindow(); err != nil {
		return fmt.Errorf("gate: %w", err)
	}
	if cfg.Venue.FeeBps >= 10000 {
		return fmt.Errorf("venue: fee_bps must be below 10000, got %d", cfg.Venue.FeeBps)
	}
	if err := validatePort(cfg.RPC.Port); err != nil {
		return fmt.Errorf("rpc: %w", err)
	}
	if cfg.GRPC.Enabled {
		if err := validatePort(cfg.GRPC.Port); err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
	}
	return nil
}

func validateLog(log *LogConfig) error {
	if _, err := logging.ParseLevel(log.Level); err != nil {
		return err
	}
	if log.Format != "console" && log.Format != "json" {
		return fmt.Errorf("format must be console or json, got %q", log.Format)
	}
	return nil
}

func validateStorage(s *StorageConfig) error {
	switch s.Backend {
	case "pebble", "leveldb", "memory":
	default:
		return fmt.Errorf("backend must be pebble, leveldb or memory, got %q", s.Backend)
	}
	if s.Backend != "memory" && s.Path == "" {
		return fmt.Errorf("path required for %s backend", s.Backend)
	}
	switch s.Compression {
	case "none", "lz4":
	default:
		return fmt.Errorf("compression must be none or lz4, got %q", s.Compression)
	}
	if s.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive, got %d", s.CacheSize)
	}
	return nil
}

func validateHistory(h *HistoryConfig) error {
	switch h.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("driver must be sqlite or postgres, got %q", h.Driver)
	}
	if h.DSN == "" {
		return fmt.Errorf("dsn required")
	}
	return nil
}

func validateMarket(cfg *Config) error {
	if cfg.Market.TradeFeeBps >= 10000 {
		return fmt.Errorf("trade_fee_bps must be below 10000, got %d", cfg.Market.TradeFeeBps)
	}
	if cfg.Market.Escrow == "" {
		return fmt.Errorf("escrow account required")
	}
	_, err := cfg.MarketConfig()
	return err
}

func validateCurve(cfg *Config) error {
	params, err := cfg.CurveParams()
	if err != nil {
		return err
	}
	if params.TokenLimit.IsZero() {
		return fmt.Errorf("token_limit must be positive")
	}
	if cfg.Curve.SpreadBps >= 10000 {
		return fmt.Errorf("spread_bps must be below 10000, got %d", cfg.Curve.SpreadBps)
	}
	return nil
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}
