package ledger

import (
	"context"
	"sync"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

// MemoryTokens is an in-memory Tokens ledger guarded by a mutex.
type MemoryTokens struct {
	mu       sync.RWMutex
	balances map[assetid.AssetID]map[string]amount.Amount

	// transferHook, when set, runs inside Transfer after the balance
	// update. Tests use it to simulate token contracts that call back
	// into the engine.
	transferHook func(asset assetid.AssetID, from, to string, amt amount.Amount)
}

// NewMemoryTokens returns an empty in-memory token ledger.
func NewMemoryTokens() *MemoryTokens {
	return &MemoryTokens{
		balances: make(map[assetid.AssetID]map[string]amount.Amount),
	}
}

// SetTransferHook installs a callback invoked on every successful
// transfer. Test-only.
func (m *MemoryTokens) SetTransferHook(hook func(asset assetid.AssetID, from, to string, amt amount.Amount)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferHook = hook
}

func (m *MemoryTokens) BalanceOf(ctx context.Context, asset assetid.AssetID, holder string) (amount.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holders, ok := m.balances[asset]
	if !ok {
		return amount.Zero(), nil
	}
	return holders[holder], nil
}

func (m *MemoryTokens) Mint(ctx context.Context, asset assetid.AssetID, to string, amt amount.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders, ok := m.balances[asset]
	if !ok {
		holders = make(map[string]amount.Amount)
		m.balances[asset] = holders
	}
	holders[to] = holders[to].Add(amt)
	return nil
}

func (m *MemoryTokens) Burn(ctx context.Context, asset assetid.AssetID, from string, amt amount.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holders, ok := m.balances[asset]
	if !ok {
		return ErrUnknownAsset
	}
	next, err := holders[from].Sub(amt)
	if err != nil {
		return ErrInsufficientBalance
	}
	holders[from] = next
	return nil
}

func (m *MemoryTokens) Transfer(ctx context.Context, asset assetid.AssetID, from, to string, amt amount.Amount) error {
	m.mu.Lock()

	holders, ok := m.balances[asset]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownAsset
	}
	next, err := holders[from].Sub(amt)
	if err != nil {
		m.mu.Unlock()
		return ErrInsufficientBalance
	}
	holders[from] = next
	holders[to] = holders[to].Add(amt)
	hook := m.transferHook
	m.mu.Unlock()

	if hook != nil {
		hook(asset, from, to, amt)
	}
	return nil
}

// MemoryNative is an in-memory Native ledger guarded by a mutex.
type MemoryNative struct {
	mu       sync.RWMutex
	balances map[string]amount.Amount

	transferHook func(from, to string, amt amount.Amount)
}

// NewMemoryNative returns an empty in-memory native ledger.
func NewMemoryNative() *MemoryNative {
	return &MemoryNative{balances: make(map[string]amount.Amount)}
}

// SetTransferHook installs a callback invoked on every successful
// transfer. Test-only.
func (m *MemoryNative) SetTransferHook(hook func(from, to string, amt amount.Amount)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferHook = hook
}

func (m *MemoryNative) BalanceOf(ctx context.Context, account string) (amount.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[account], nil
}

func (m *MemoryNative) Transfer(ctx context.Context, from, to string, amt amount.Amount) error {
	m.mu.Lock()

	next, err := m.balances[from].Sub(amt)
	if err != nil {
		m.mu.Unlock()
		return ErrInsufficientBalance
	}
	m.balances[from] = next
	m.balances[to] = m.balances[to].Add(amt)
	hook := m.transferHook
	m.mu.Unlock()

	if hook != nil {
		hook(from, to, amt)
	}
	return nil
}

func (m *MemoryNative) Credit(ctx context.Context, account string, amt amount.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = m.balances[account].Add(amt)
	return nil
}
