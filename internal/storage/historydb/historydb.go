// Package historydb persists launches, trades and graduations in a
// relational database for history and stats queries. It implements the
// registry interfaces, so the trading engine records through it without
// knowing the backend. The default dialect is an embedded sqlite file;
// postgres is selectable for shared deployments.
package historydb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

// Config selects the backend. DSN is a file path for sqlite (":memory:"
// for tests) and a connection string for postgres.
type Config struct {
	Driver string
	DSN    string
}

const (
	defaultTimeout = 5 * time.Second
	maxOpenConns   = 8
	maxIdleConns   = 4
)

// DB is an open history database.
type DB struct {
	db     *sql.DB
	driver string
	log    *zap.Logger
}

// Open connects, configures the pool and initializes the schema.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*DB, error) {
	driver, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	sqlDB, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("historydb: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == "sqlite" {
		// sqlite is single-writer, and a pooled ":memory:" DSN would
		// hand every connection its own empty database.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("historydb: ping: %w", err)
	}

	d := &DB{db: sqlDB, driver: cfg.Driver, log: log}
	if err := d.initSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("historydb: init schema: %w", err)
	}

	log.Info("history database ready", zap.String("driver", cfg.Driver))
	return d, nil
}

func driverName(driver string) (string, error) {
	switch driver {
	case "sqlite":
		return "sqlite", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("historydb: unsupported driver %q", driver)
	}
}

// Close closes the underlying pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping tests the connection.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// initSchema creates the tables and indexes. Amounts are stored as
// base-unit decimal strings because wei values exceed int64 range;
// aggregation happens in Go. Times are unix nanoseconds.
func (d *DB) initSchema(ctx context.Context) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.driver == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	queries := []string{
		`CREATE TABLE IF NOT EXISTS launches (
			asset TEXT PRIMARY KEY,
			creator TEXT NOT NULL,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL,
			target TEXT NOT NULL,
			launched_at BIGINT NOT NULL
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS trades (
			id %s,
			asset TEXT NOT NULL,
			side TEXT NOT NULL,
			trader TEXT NOT NULL,
			tokens TEXT NOT NULL,
			eth TEXT NOT NULL,
			fee TEXT NOT NULL,
			price_after TEXT NOT NULL,
			sold TEXT NOT NULL,
			raised TEXT NOT NULL,
			traded_at BIGINT NOT NULL
		)`, serial),

		`CREATE TABLE IF NOT EXISTS graduations (
			asset TEXT PRIMARY KEY,
			pool_ref TEXT NOT NULL,
			position_ref TEXT NOT NULL,
			final_price TEXT NOT NULL,
			eth_seeded TEXT NOT NULL,
			tokens_seeded TEXT NOT NULL,
			burned TEXT NOT NULL,
			graduated_at BIGINT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_trades_asset_at ON trades(asset, traded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_trader ON trades(trader)`,
		`CREATE INDEX IF NOT EXISTS idx_launches_at ON launches(launched_at)`,
	}

	for _, query := range queries {
		if _, err := d.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute schema query: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$N" for postgres. Statements are
// written in sqlite form.
func (d *DB) rebind(query string) string {
	if d.driver != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
