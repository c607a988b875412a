package registry

import (
	"context"
	"sync"

	"github.com/curvemkt/curved/internal/core/assetid"
)

// Memory is an in-process Recorder and CreatorLookup. It backs tests
// and single-node runs without a history database.
type Memory struct {
	mu          sync.RWMutex
	launches    map[assetid.AssetID]Launch
	trades      []Trade
	graduations []Graduation
}

var _ Recorder = (*Memory)(nil)
var _ CreatorLookup = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{launches: make(map[assetid.AssetID]Launch)}
}

func (m *Memory) RecordLaunch(ctx context.Context, l Launch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.launches[l.Asset] = l
	return nil
}

func (m *Memory) RecordTrade(ctx context.Context, t Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = append(m.trades, t)
	return nil
}

func (m *Memory) RecordGraduation(ctx context.Context, g Graduation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.graduations = append(m.graduations, g)
	return nil
}

// Creator returns the launch creator, or "" when the asset was never
// recorded.
func (m *Memory) Creator(ctx context.Context, asset assetid.AssetID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.launches[asset].Creator, nil
}

// Trades returns a copy of the recorded trades, oldest first.
func (m *Memory) Trades() []Trade {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Trade, len(m.trades))
	copy(out, m.trades)
	return out
}

// Graduations returns a copy of the recorded graduations.
func (m *Memory) Graduations() []Graduation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Graduation, len(m.graduations))
	copy(out, m.graduations)
	return out
}

// Launches returns a copy of the recorded launches keyed by asset.
func (m *Memory) Launches() map[assetid.AssetID]Launch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[assetid.AssetID]Launch, len(m.launches))
	for k, v := range m.launches {
		out[k] = v
	}
	return out
}
