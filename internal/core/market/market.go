// Package market owns the per-asset trading state and applies buys and
// sells against the bonding curve. Every mutating operation is guarded
// by a per-asset busy flag so a re-entrant call arriving through an
// external transfer cannot observe or mutate intermediate state.
//
// The package layers like a transaction processor: requests pass a
// stateless preflight, then a phase check against current state, and
// only then settle and commit. Any failure before commit leaves the
// asset untouched.
package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/gate"
	"github.com/curvemkt/curved/internal/ledger"
	"github.com/curvemkt/curved/internal/registry"
)

// Asset is the static listing of one curve-traded asset. Fields are
// fixed at creation and never change.
type Asset struct {
	ID        assetid.AssetID
	Creator   string
	Symbol    string
	Name      string
	Target    amount.Amount // raise that triggers graduation
	Split     *fees.Split   // trading fee shares; nil means the platform default
	DexSplit  *fees.Split   // venue fee shares after graduation; nil means the DEX default
	Curve     curve.Params
	CreatedAt time.Time
}

// TradingState is the mutable aggregate state of one asset.
type TradingState struct {
	Sold         amount.Amount
	Raised       amount.Amount
	Open         bool
	SellsEnabled bool
	Graduated    bool
	PoolRef      string
	PositionRef  string
}

// AssetDef describes an asset to create.
type AssetDef struct {
	Creator string
	Symbol  string
	Name    string
	Salt    uint64

	// Target overrides the curve's default raise. When set without
	// explicit curve parameters, the curve constant is solved so the
	// full allocation raises approximately Target.
	Target amount.Amount

	// Split overrides the platform's default trading fee shares.
	Split *fees.Split

	// DexSplit overrides the default venue fee shares used after
	// graduation.
	DexSplit *fees.Split

	// Curve overrides the default curve parameters entirely.
	Curve *curve.Params
}

// Config carries the platform-wide trading parameters.
type Config struct {
	// TradeFeeBps is charged on the gross wei of every buy and on the
	// gross proceeds of every sell.
	TradeFeeBps uint64 `mapstructure:"trade_fee_bps"`

	// MaxTxEth caps the gross wei of a single buy. Zero disables the
	// cap.
	MaxTxEth amount.Amount `mapstructure:"max_tx_eth"`

	// GraduationFee is the flat wei fee deducted from the raise at
	// graduation.
	GraduationFee amount.Amount `mapstructure:"graduation_fee"`

	// Escrow is the ledger account holding unsold tokens and raised
	// wei for every asset.
	Escrow string `mapstructure:"escrow"`

	// DefaultCurve overrides the package calibration used when a launch
	// carries no explicit curve. Nil keeps curve.DefaultParams().
	DefaultCurve *curve.Params `mapstructure:"-"`
}

// DefaultConfig returns the platform defaults: a 1% trading fee, a
// 50 ETH per-buy cap, and a 0.1 ETH graduation fee.
func DefaultConfig() Config {
	return Config{
		TradeFeeBps:   100,
		MaxTxEth:      amount.FromWhole(50),
		GraduationFee: amount.MustParse("100000000000000000"),
		Escrow:        "curve:escrow",
	}
}

// Graduator migrates a closed asset to its liquidity venue. The
// machine calls it best-effort after a buy crosses the target.
type Graduator interface {
	Graduate(ctx context.Context, asset assetid.AssetID) error
}

// Store persists assets and trading states across restarts. Writes are
// best-effort: a failed write is logged and trading continues.
type Store interface {
	SaveAsset(ctx context.Context, a Asset) error
	SaveState(ctx context.Context, id assetid.AssetID, st TradingState) error
}

// Deps wires the machine's collaborators. Tokens, Native and Fees are
// required; the rest default to no-op implementations.
type Deps struct {
	Tokens   ledger.Tokens
	Native   ledger.Native
	Fees     *fees.Distributor
	Gate     gate.Gate
	Events   events.Publisher
	Recorder registry.Recorder
	Creators registry.CreatorLookup
	Store    Store
	Log      *zap.Logger
}

// book is one asset's runtime entry: its listing, curve engine, state
// and the re-entrancy guard.
type book struct {
	asset Asset
	eng   *curve.Engine

	mu   sync.Mutex
	busy bool
	st   TradingState
}

// enter claims the book for one mutating operation. It fails when an
// operation is already in flight, which is how a re-entrant call
// surfaces.
func (b *book) enter() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.busy {
		return false
	}
	b.busy = true
	return true
}

func (b *book) leave() {
	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

// state returns a copy of the current trading state.
func (b *book) state() TradingState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

// commit replaces the trading state. Only the operation holding the
// busy flag may call it.
func (b *book) commit(st TradingState) {
	b.mu.Lock()
	b.st = st
	b.mu.Unlock()
}

// Machine applies trading operations against per-asset state.
type Machine struct {
	cfg  Config
	deps Deps
	grad Graduator
	log  *zap.Logger
	now  func() time.Time

	mu    sync.RWMutex
	books map[assetid.AssetID]*book
}

// NewMachine builds a trading machine. Optional dependencies left nil
// are replaced with no-ops.
func NewMachine(cfg Config, deps Deps) *Machine {
	if deps.Gate == nil {
		deps.Gate = gate.Open{}
	}
	if deps.Events == nil {
		deps.Events = events.NoOp{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &Machine{
		cfg:   cfg,
		deps:  deps,
		log:   deps.Log,
		now:   time.Now,
		books: make(map[assetid.AssetID]*book),
	}
}

// SetGraduator wires the graduation coordinator. Setter injection
// breaks the construction cycle between the machine and the
// coordinator.
func (m *Machine) SetGraduator(g Graduator) {
	m.grad = g
}

// SetClock overrides the time source. Test hook.
func (m *Machine) SetClock(now func() time.Time) {
	m.now = now
}

// Config returns the platform trading parameters.
func (m *Machine) Config() Config {
	return m.cfg
}

func (m *Machine) book(id assetid.AssetID) (*book, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[id]
	return b, ok
}

// CreateAsset lists a new asset: derives its identity, solves the
// curve for a custom target when one is given, mints the curve
// allocation plus the pool reserve into escrow, and opens trading.
func (m *Machine) CreateAsset(ctx context.Context, def AssetDef) (Asset, Result) {
	if def.Symbol == "" {
		return Asset{}, RejBadSymbol
	}
	if def.Creator == "" {
		return Asset{}, RejNoAccount
	}
	if def.Split != nil {
		if err := def.Split.Validate(); err != nil {
			return Asset{}, RejBadSplit
		}
	}
	if def.DexSplit != nil {
		if err := def.DexSplit.Validate(); err != nil {
			return Asset{}, RejBadSplit
		}
	}

	params := curve.DefaultParams()
	if m.cfg.DefaultCurve != nil {
		params = *m.cfg.DefaultCurve
	}
	if def.Curve != nil {
		params = *def.Curve
		if params.K == nil || params.K.Sign() < 0 ||
			!params.InitialPrice.IsPositive() || !params.TokenLimit.IsPositive() {
			return Asset{}, RejBadParams
		}
	} else if def.Target.IsPositive() {
		k, err := curve.SolveK(params.InitialPrice, def.Target, params.TokenLimit.WholeTokens().Uint64())
		if err != nil {
			return Asset{}, RejBadParams
		}
		params.K = k
	}

	eng := curve.New(params)
	target := def.Target
	if target.IsZero() {
		target = eng.DefaultTarget()
	}

	id := assetid.Derive(def.Creator, def.Symbol, def.Salt)
	createdAt := m.now()

	asset := Asset{
		ID:        id,
		Creator:   def.Creator,
		Symbol:    def.Symbol,
		Name:      def.Name,
		Target:    target,
		Split:     def.Split,
		DexSplit:  def.DexSplit,
		Curve:     params,
		CreatedAt: createdAt,
	}

	b := &book{
		asset: asset,
		eng:   eng,
		st:    TradingState{Open: true},
	}

	m.mu.Lock()
	if _, dup := m.books[id]; dup {
		m.mu.Unlock()
		return Asset{}, RejDuplicateAsset
	}
	m.books[id] = b
	m.mu.Unlock()

	// Curve allocation plus the reserve the venue position will need.
	supply := params.TokenLimit.Add(eng.PoolReserveFor(target, m.cfg.GraduationFee))
	if err := m.deps.Tokens.Mint(ctx, id, m.cfg.Escrow, supply); err != nil {
		m.mu.Lock()
		delete(m.books, id)
		m.mu.Unlock()
		m.log.Error("asset mint failed", zap.Stringer("asset", id), zap.Error(err))
		return Asset{}, ErrLedger
	}

	if r, ok := m.deps.Gate.(gate.Registrar); ok {
		r.Register(id, createdAt)
	}

	m.recordLaunch(ctx, asset)
	m.deps.Events.PublishAssetCreated(&events.AssetCreatedEvent{
		Asset:     id,
		Creator:   def.Creator,
		Symbol:    def.Symbol,
		Target:    target,
		CreatedAt: createdAt,
	})
	m.saveAsset(ctx, asset)
	m.saveState(ctx, id, b.state())

	m.log.Info("asset listed",
		zap.Stringer("asset", id),
		zap.String("symbol", def.Symbol),
		zap.String("creator", def.Creator),
		zap.String("target", target.String()))
	return asset, OK
}

// Restore reinstates a persisted asset and its trading state. Used at
// boot; fails on duplicates.
func (m *Machine) Restore(asset Asset, st TradingState) Result {
	if asset.Curve.K == nil || !asset.Curve.InitialPrice.IsPositive() {
		return RejBadParams
	}
	b := &book{asset: asset, eng: curve.New(asset.Curve), st: st}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.books[asset.ID]; dup {
		return RejDuplicateAsset
	}
	m.books[asset.ID] = b
	return OK
}

// Close halts trading unconditionally. Administrative; graduation is
// still possible afterwards.
func (m *Machine) Close(ctx context.Context, id assetid.AssetID) Result {
	b, ok := m.book(id)
	if !ok {
		return RejUnknownAsset
	}
	if !b.enter() {
		return RejBusy
	}
	defer b.leave()

	st := b.state()
	st.Open = false
	b.commit(st)
	m.saveState(ctx, id, st)

	m.log.Info("asset closed", zap.Stringer("asset", id))
	return OK
}

// SetSellsEnabled flips the per-asset sell switch. Sells are disabled
// at creation and stay so until enabled here.
func (m *Machine) SetSellsEnabled(ctx context.Context, id assetid.AssetID, enabled bool) Result {
	b, ok := m.book(id)
	if !ok {
		return RejUnknownAsset
	}
	if !b.enter() {
		return RejBusy
	}
	defer b.leave()

	st := b.state()
	st.SellsEnabled = enabled
	b.commit(st)
	m.saveState(ctx, id, st)

	m.log.Info("sells toggled", zap.Stringer("asset", id), zap.Bool("enabled", enabled))
	return OK
}

// State returns the listing and current trading state of an asset.
func (m *Machine) State(id assetid.AssetID) (Asset, TradingState, bool) {
	b, ok := m.book(id)
	if !ok {
		return Asset{}, TradingState{}, false
	}
	return b.asset, b.state(), true
}

// Assets returns all listings.
func (m *Machine) Assets() []Asset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Asset, 0, len(m.books))
	for _, b := range m.books {
		out = append(out, b.asset)
	}
	return out
}

// ForceClose halts trading ahead of graduation and returns the frozen
// listing and state. Rejected once the asset has graduated.
func (m *Machine) ForceClose(ctx context.Context, id assetid.AssetID) (Asset, TradingState, Result) {
	b, ok := m.book(id)
	if !ok {
		return Asset{}, TradingState{}, RejUnknownAsset
	}
	if !b.enter() {
		return Asset{}, TradingState{}, RejBusy
	}
	defer b.leave()

	st := b.state()
	if st.Graduated {
		return b.asset, st, RejGraduated
	}
	if st.Open {
		st.Open = false
		b.commit(st)
		m.saveState(ctx, id, st)
	}
	return b.asset, st, OK
}

// MarkGraduated records the venue handles and makes graduation
// terminal.
func (m *Machine) MarkGraduated(ctx context.Context, id assetid.AssetID, poolRef, positionRef string) Result {
	b, ok := m.book(id)
	if !ok {
		return RejUnknownAsset
	}
	if !b.enter() {
		return RejBusy
	}
	defer b.leave()

	st := b.state()
	if st.Graduated {
		return RejGraduated
	}
	st.Graduated = true
	st.Open = false
	st.PoolRef = poolRef
	st.PositionRef = positionRef
	b.commit(st)
	m.saveState(ctx, id, st)
	return OK
}

// creatorOf resolves the account entitled to the creator fee share. A
// failed lookup means no creator; the share then falls back to the
// community bucket downstream.
func (m *Machine) creatorOf(ctx context.Context, a Asset) string {
	if m.deps.Creators == nil {
		return a.Creator
	}
	c, err := m.deps.Creators.Creator(ctx, a.ID)
	if err != nil {
		m.log.Debug("creator lookup failed, share goes to community",
			zap.Stringer("asset", a.ID), zap.Error(err))
		return ""
	}
	return c
}

func (m *Machine) recordLaunch(ctx context.Context, a Asset) {
	if m.deps.Recorder == nil {
		return
	}
	err := m.deps.Recorder.RecordLaunch(ctx, registry.Launch{
		Asset:      a.ID,
		Creator:    a.Creator,
		Symbol:     a.Symbol,
		Name:       a.Name,
		Target:     a.Target,
		LaunchedAt: a.CreatedAt,
	})
	if err != nil {
		m.log.Warn("launch record dropped", zap.Stringer("asset", a.ID), zap.Error(err))
	}
}

func (m *Machine) recordTrade(ctx context.Context, t registry.Trade) {
	if m.deps.Recorder == nil {
		return
	}
	if err := m.deps.Recorder.RecordTrade(ctx, t); err != nil {
		m.log.Warn("trade record dropped", zap.Stringer("asset", t.Asset), zap.Error(err))
	}
}

func (m *Machine) saveAsset(ctx context.Context, a Asset) {
	if m.deps.Store == nil {
		return
	}
	if err := m.deps.Store.SaveAsset(ctx, a); err != nil {
		m.log.Warn("asset persist failed", zap.Stringer("asset", a.ID), zap.Error(err))
	}
}

func (m *Machine) saveState(ctx context.Context, id assetid.AssetID, st TradingState) {
	if m.deps.Store == nil {
		return
	}
	if err := m.deps.Store.SaveState(ctx, id, st); err != nil {
		m.log.Warn("state persist failed", zap.Stringer("asset", id), zap.Error(err))
	}
}
