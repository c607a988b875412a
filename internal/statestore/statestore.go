// Package statestore persists assets, trading states and the fee
// ledger to a key-value backend so a restart resumes where the last
// run stopped. Records are CBOR-encoded; hot trading states sit in
// front of the backend in an LRU cache.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/ugorji/go/codec"
	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/core/market"
	"github.com/curvemkt/curved/internal/storage/kvstore"
)

const (
	assetPrefix = "asset/"
	statePrefix = "state/"

	// DefaultCacheSize bounds the in-memory trading state cache.
	DefaultCacheSize = 1024
)

var feesKey = []byte("fees")

// Store reads and writes platform state through a kvstore.DB. It
// implements market.Store; the machine treats write failures as
// warnings, so Store never needs to retry internally.
type Store struct {
	db  kvstore.DB
	h   codec.CborHandle
	log *zap.Logger

	cache  *lru.Cache[assetid.AssetID, market.TradingState]
	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ market.Store = (*Store)(nil)

// New wraps db. cacheSize <= 0 selects DefaultCacheSize.
func New(db kvstore.DB, cacheSize int, log *zap.Logger) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := lru.New[assetid.AssetID, market.TradingState](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating state cache: %w", err)
	}
	s := &Store{
		db:    db,
		log:   log.Named("statestore"),
		cache: cache,
	}
	// Canonical CBOR keeps map key order stable between runs.
	s.h.Canonical = true
	return s, nil
}

func assetKey(id assetid.AssetID) []byte {
	return append([]byte(assetPrefix), id.Bytes()...)
}

func stateKey(id assetid.AssetID) []byte {
	return append([]byte(statePrefix), id.Bytes()...)
}

func (s *Store) encode(v any) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, &s.h).Encode(v); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) decode(data []byte, v any) error {
	return codec.NewDecoderBytes(data, &s.h).Decode(v)
}

// SaveAsset persists an asset listing. Listings are immutable after
// creation, so overwrites are harmless.
func (s *Store) SaveAsset(ctx context.Context, a market.Asset) error {
	data, err := s.encode(assetToRecord(a))
	if err != nil {
		return fmt.Errorf("encoding asset %s: %w", a.ID, err)
	}
	if err := s.db.Put(ctx, assetKey(a.ID), data); err != nil {
		return fmt.Errorf("writing asset %s: %w", a.ID, err)
	}
	return nil
}

// SaveState persists one asset's trading state and refreshes the cache.
func (s *Store) SaveState(ctx context.Context, id assetid.AssetID, st market.TradingState) error {
	data, err := s.encode(stateToRecord(st))
	if err != nil {
		return fmt.Errorf("encoding state %s: %w", id, err)
	}
	if err := s.db.Put(ctx, stateKey(id), data); err != nil {
		return fmt.Errorf("writing state %s: %w", id, err)
	}
	s.cache.Add(id, st)
	return nil
}

// Asset loads one asset listing. The second return is false when the
// asset was never saved.
func (s *Store) Asset(ctx context.Context, id assetid.AssetID) (market.Asset, bool, error) {
	data, err := s.db.Get(ctx, assetKey(id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return market.Asset{}, false, nil
	}
	if err != nil {
		return market.Asset{}, false, fmt.Errorf("reading asset %s: %w", id, err)
	}
	var rec assetRecord
	if err := s.decode(data, &rec); err != nil {
		return market.Asset{}, false, fmt.Errorf("decoding asset %s: %w", id, err)
	}
	a, err := recordToAsset(rec)
	if err != nil {
		return market.Asset{}, false, fmt.Errorf("restoring asset %s: %w", id, err)
	}
	return a, true, nil
}

// State loads one trading state, serving from cache when possible.
func (s *Store) State(ctx context.Context, id assetid.AssetID) (market.TradingState, bool, error) {
	if st, ok := s.cache.Get(id); ok {
		s.hits.Add(1)
		return st, true, nil
	}
	s.misses.Add(1)

	data, err := s.db.Get(ctx, stateKey(id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return market.TradingState{}, false, nil
	}
	if err != nil {
		return market.TradingState{}, false, fmt.Errorf("reading state %s: %w", id, err)
	}
	var rec stateRecord
	if err := s.decode(data, &rec); err != nil {
		return market.TradingState{}, false, fmt.Errorf("decoding state %s: %w", id, err)
	}
	st, err := recordToState(rec)
	if err != nil {
		return market.TradingState{}, false, fmt.Errorf("restoring state %s: %w", id, err)
	}
	s.cache.Add(id, st)
	return st, true, nil
}

// LoadAll scans every persisted asset and its trading state. Assets
// whose state record is missing are returned with a zero state and a
// warning; the caller decides whether to relist them.
func (s *Store) LoadAll(ctx context.Context) ([]market.Asset, map[assetid.AssetID]market.TradingState, error) {
	start, end := kvstore.PrefixRange([]byte(assetPrefix))
	it, err := s.db.Iterator(ctx, start, end)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning assets: %w", err)
	}
	defer it.Close()

	var assets []market.Asset
	for it.Next() {
		var rec assetRecord
		if err := s.decode(it.Value(), &rec); err != nil {
			return nil, nil, fmt.Errorf("decoding asset %x: %w", it.Key(), err)
		}
		a, err := recordToAsset(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("restoring asset %x: %w", it.Key(), err)
		}
		assets = append(assets, a)
	}
	if err := it.Error(); err != nil {
		return nil, nil, fmt.Errorf("scanning assets: %w", err)
	}

	states := make(map[assetid.AssetID]market.TradingState, len(assets))
	for _, a := range assets {
		st, ok, err := s.State(ctx, a.ID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			s.log.Warn("asset has no trading state", zap.Stringer("asset", a.ID))
			continue
		}
		states[a.ID] = st
	}

	s.log.Info("state loaded",
		zap.Int("assets", len(assets)),
		zap.Int("states", len(states)))
	return assets, states, nil
}

// SaveFees persists a fee ledger snapshot.
func (s *Store) SaveFees(ctx context.Context, l fees.Ledger) error {
	data, err := s.encode(ledgerToRecord(l))
	if err != nil {
		return fmt.Errorf("encoding fee ledger: %w", err)
	}
	if err := s.db.Put(ctx, feesKey, data); err != nil {
		return fmt.Errorf("writing fee ledger: %w", err)
	}
	return nil
}

// LoadFees restores the fee ledger snapshot. The second return is
// false when no snapshot was ever written.
func (s *Store) LoadFees(ctx context.Context) (fees.Ledger, bool, error) {
	data, err := s.db.Get(ctx, feesKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return fees.Ledger{}, false, nil
	}
	if err != nil {
		return fees.Ledger{}, false, fmt.Errorf("reading fee ledger: %w", err)
	}
	var rec feesRecord
	if err := s.decode(data, &rec); err != nil {
		return fees.Ledger{}, false, fmt.Errorf("decoding fee ledger: %w", err)
	}
	l, err := recordToLedger(rec)
	if err != nil {
		return fees.Ledger{}, false, fmt.Errorf("restoring fee ledger: %w", err)
	}
	return l, true, nil
}

// CacheStats reports trading state cache performance.
type CacheStats struct {
	Hits   uint64
	Misses uint64
	Len    int
}

func (s *Store) CacheStats() CacheStats {
	return CacheStats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Len:    s.cache.Len(),
	}
}
