package gate

import (
	"context"
	"sync"
	"time"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

// WindowConfig parameterizes the launch-window gate.
type WindowConfig struct {
	// SniperBlock is how long after registration all buys are rejected.
	SniperBlock time.Duration

	// FairLaunch is how long after the sniper block ends the fixed-price
	// window stays open. Zero disables the window.
	FairLaunch time.Duration

	// FairLaunchPrice is the fixed price during the window, in wei per
	// whole token.
	FairLaunchPrice amount.Amount

	// WalletCap is the most base units a single wallet may acquire
	// during the window.
	WalletCap amount.Amount
}

// Window is the reference Gate: a sniper block immediately after launch,
// then a fair-launch window, then unrestricted curve trading.
type Window struct {
	cfg WindowConfig

	mu       sync.RWMutex
	paused   bool
	launches map[assetid.AssetID]time.Time
	filled   map[assetid.AssetID]map[string]amount.Amount

	now func() time.Time
}

// NewWindow returns a Window gate with the given config.
func NewWindow(cfg WindowConfig) *Window {
	return &Window{
		cfg:      cfg,
		launches: make(map[assetid.AssetID]time.Time),
		filled:   make(map[assetid.AssetID]map[string]amount.Amount),
		now:      time.Now,
	}
}

// SetClock overrides the time source. Test-only.
func (w *Window) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// Register starts the launch windows for an asset. Called when the asset
// is initialized; unregistered assets are not window-restricted.
func (w *Window) Register(asset assetid.AssetID, launchedAt time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.launches[asset] = launchedAt
}

// SetPaused flips the global pause switch.
func (w *Window) SetPaused(paused bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = paused
}

func (w *Window) Paused(ctx context.Context) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.paused, nil
}

// phase reports where the asset sits in its launch schedule.
type phase int

const (
	phaseUnrestricted phase = iota
	phaseSniperBlock
	phaseFairLaunch
)

func (w *Window) phaseOf(asset assetid.AssetID) phase {
	launched, ok := w.launches[asset]
	if !ok {
		return phaseUnrestricted
	}
	elapsed := w.now().Sub(launched)
	if elapsed < w.cfg.SniperBlock {
		return phaseSniperBlock
	}
	if elapsed < w.cfg.SniperBlock+w.cfg.FairLaunch {
		return phaseFairLaunch
	}
	return phaseUnrestricted
}

func (w *Window) ValidateBuy(ctx context.Context, asset assetid.AssetID, buyer string, ethIn amount.Amount) (bool, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.paused {
		return false, nil
	}
	return w.phaseOf(asset) != phaseSniperBlock, nil
}

func (w *Window) FairLaunch(ctx context.Context, asset assetid.AssetID, buyer string) (FairLaunch, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.phaseOf(asset) != phaseFairLaunch {
		return FairLaunch{}, nil
	}

	remaining := w.cfg.WalletCap
	if fills, ok := w.filled[asset]; ok {
		if used, err := remaining.Sub(fills[buyer]); err == nil {
			remaining = used
		} else {
			remaining = amount.Zero()
		}
	}

	return FairLaunch{
		Active:    true,
		Price:     w.cfg.FairLaunchPrice,
		Remaining: remaining,
	}, nil
}

func (w *Window) RecordFill(ctx context.Context, asset assetid.AssetID, buyer string, tokens amount.Amount) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	fills, ok := w.filled[asset]
	if !ok {
		fills = make(map[string]amount.Amount)
		w.filled[asset] = fills
	}
	fills[buyer] = fills[buyer].Add(tokens)
	return nil
}
