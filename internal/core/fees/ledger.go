package fees

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/ledger"
)

// Distributor owns the fee ledger. It is the only mutator of the
// accumulators; claims drain them. Fee wei physically sit in the vault
// account on the native ledger; the accumulators say who may take what.
type Distributor struct {
	params Params
	native ledger.Native
	vault  string
	pub    events.Publisher
	log    *zap.Logger

	mu     sync.Mutex
	ledger Ledger
}

// Ledger is the global fee accounting state.
type Ledger struct {
	PlatformTotal   amount.Amount
	CommunityTotal  amount.Amount
	BuybackTotal    amount.Amount
	GraduationTotal amount.Amount

	// CreatorClaims is the claimable balance per creator account.
	CreatorClaims map[string]amount.Amount

	// AssetBuyback is the buyback sub-balance per asset.
	AssetBuyback map[assetid.AssetID]amount.Amount
}

func newLedger() Ledger {
	return Ledger{
		CreatorClaims: make(map[string]amount.Amount),
		AssetBuyback:  make(map[assetid.AssetID]amount.Amount),
	}
}

// NewDistributor returns a Distributor paying claims out of the vault
// account on native.
func NewDistributor(params Params, native ledger.Native, vault string, pub events.Publisher, log *zap.Logger) *Distributor {
	if pub == nil {
		pub = events.NoOp{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Distributor{
		params: params,
		native: native,
		vault:  vault,
		pub:    pub,
		log:    log,
		ledger: newLedger(),
	}
}

// Params returns the distributor's fee parameters.
func (d *Distributor) Params() Params {
	return d.params
}

// Vault returns the account holding undistributed fee wei.
func (d *Distributor) Vault() string {
	return d.vault
}

// DistributeTrading splits a trading fee and credits the accumulators.
// The fee wei must already sit in the vault. An empty creator account
// routes the creator share to the community bucket, covering assets
// whose creator lookup failed.
func (d *Distributor) DistributeTrading(total amount.Amount, assetSplit *Split, creator string, asset assetid.AssetID) (Breakdown, error) {
	b, err := d.params.SplitTrading(total, assetSplit)
	if err != nil {
		return Breakdown{}, err
	}
	d.credit(b, creator, asset)
	return b, nil
}

// DistributeDex splits a harvested venue fee and credits the
// accumulators.
func (d *Distributor) DistributeDex(total amount.Amount, assetSplit *Split, creator string, asset assetid.AssetID) (Breakdown, error) {
	b, err := d.params.SplitDex(total, assetSplit)
	if err != nil {
		return Breakdown{}, err
	}
	d.credit(b, creator, asset)
	return b, nil
}

func (d *Distributor) credit(b Breakdown, creator string, asset assetid.AssetID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.ledger.PlatformTotal = d.ledger.PlatformTotal.Add(b.Platform)
	d.ledger.CommunityTotal = d.ledger.CommunityTotal.Add(b.Community)
	d.ledger.BuybackTotal = d.ledger.BuybackTotal.Add(b.Buyback)
	d.ledger.AssetBuyback[asset] = d.ledger.AssetBuyback[asset].Add(b.Buyback)

	if creator != "" {
		d.ledger.CreatorClaims[creator] = d.ledger.CreatorClaims[creator].Add(b.Creator)
	} else {
		// No creator on record: their share stays with the community.
		d.ledger.CommunityTotal = d.ledger.CommunityTotal.Add(b.Creator)
	}
}

// AddGraduationFee records a collected graduation fee. The wei must
// already sit in the vault.
func (d *Distributor) AddGraduationFee(amt amount.Amount) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ledger.GraduationTotal = d.ledger.GraduationTotal.Add(amt)
}

// ClaimCreator pays out the creator's accumulated share. The balance is
// zeroed before the transfer; a re-entrant or repeated claim finds
// nothing and is a no-op returning zero.
func (d *Distributor) ClaimCreator(ctx context.Context, creator string) (amount.Amount, error) {
	d.mu.Lock()
	due := d.ledger.CreatorClaims[creator]
	if due.IsZero() {
		d.mu.Unlock()
		return amount.Zero(), nil
	}
	d.ledger.CreatorClaims[creator] = amount.Zero()
	d.mu.Unlock()

	if err := d.native.Transfer(ctx, d.vault, creator, due); err != nil {
		// Restore the balance: the payout never happened.
		d.mu.Lock()
		d.ledger.CreatorClaims[creator] = d.ledger.CreatorClaims[creator].Add(due)
		d.mu.Unlock()
		return amount.Zero(), err
	}

	d.pub.PublishClaim(&events.ClaimEvent{
		Kind:      "creator",
		Account:   creator,
		Amount:    due,
		Timestamp: time.Now().UTC(),
	})
	d.log.Info("creator claim paid",
		zap.String("creator", creator),
		zap.String("amount", due.String()))
	return due, nil
}

// WithdrawPlatform drains the platform bucket (including graduation
// fees) to the given treasury account. Zero-before-transfer, like
// claims.
func (d *Distributor) WithdrawPlatform(ctx context.Context, to string) (amount.Amount, error) {
	d.mu.Lock()
	due := d.ledger.PlatformTotal.Add(d.ledger.GraduationTotal)
	if due.IsZero() {
		d.mu.Unlock()
		return amount.Zero(), nil
	}
	platform, graduation := d.ledger.PlatformTotal, d.ledger.GraduationTotal
	d.ledger.PlatformTotal = amount.Zero()
	d.ledger.GraduationTotal = amount.Zero()
	d.mu.Unlock()

	if err := d.native.Transfer(ctx, d.vault, to, due); err != nil {
		d.mu.Lock()
		d.ledger.PlatformTotal = d.ledger.PlatformTotal.Add(platform)
		d.ledger.GraduationTotal = d.ledger.GraduationTotal.Add(graduation)
		d.mu.Unlock()
		return amount.Zero(), err
	}

	d.pub.PublishClaim(&events.ClaimEvent{
		Kind:      "platform",
		Account:   to,
		Amount:    due,
		Timestamp: time.Now().UTC(),
	})
	return due, nil
}

// WithdrawCommunity drains the community bucket to the given account.
func (d *Distributor) WithdrawCommunity(ctx context.Context, to string) (amount.Amount, error) {
	d.mu.Lock()
	due := d.ledger.CommunityTotal
	if due.IsZero() {
		d.mu.Unlock()
		return amount.Zero(), nil
	}
	d.ledger.CommunityTotal = amount.Zero()
	d.mu.Unlock()

	if err := d.native.Transfer(ctx, d.vault, to, due); err != nil {
		d.mu.Lock()
		d.ledger.CommunityTotal = d.ledger.CommunityTotal.Add(due)
		d.mu.Unlock()
		return amount.Zero(), err
	}

	d.pub.PublishClaim(&events.ClaimEvent{
		Kind:      "community",
		Account:   to,
		Amount:    due,
		Timestamp: time.Now().UTC(),
	})
	return due, nil
}

// WithdrawBuyback drains one asset's buyback sub-balance to the given
// account, typically the buyback executor.
func (d *Distributor) WithdrawBuyback(ctx context.Context, asset assetid.AssetID, to string) (amount.Amount, error) {
	d.mu.Lock()
	due := d.ledger.AssetBuyback[asset]
	if due.IsZero() {
		d.mu.Unlock()
		return amount.Zero(), nil
	}
	d.ledger.AssetBuyback[asset] = amount.Zero()
	remaining, err := d.ledger.BuybackTotal.Sub(due)
	if err == nil {
		d.ledger.BuybackTotal = remaining
	}
	d.mu.Unlock()

	if err := d.native.Transfer(ctx, d.vault, to, due); err != nil {
		d.mu.Lock()
		d.ledger.AssetBuyback[asset] = d.ledger.AssetBuyback[asset].Add(due)
		d.ledger.BuybackTotal = d.ledger.BuybackTotal.Add(due)
		d.mu.Unlock()
		return amount.Zero(), err
	}

	d.pub.PublishClaim(&events.ClaimEvent{
		Kind:      "buyback",
		Account:   to,
		Amount:    due,
		Timestamp: time.Now().UTC(),
	})
	return due, nil
}

// CreatorBalance returns a creator's claimable balance.
func (d *Distributor) CreatorBalance(creator string) amount.Amount {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ledger.CreatorClaims[creator]
}

// Snapshot returns a copy of the fee ledger for queries and persistence.
func (d *Distributor) Snapshot() Ledger {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := Ledger{
		PlatformTotal:   d.ledger.PlatformTotal,
		CommunityTotal:  d.ledger.CommunityTotal,
		BuybackTotal:    d.ledger.BuybackTotal,
		GraduationTotal: d.ledger.GraduationTotal,
		CreatorClaims:   make(map[string]amount.Amount, len(d.ledger.CreatorClaims)),
		AssetBuyback:    make(map[assetid.AssetID]amount.Amount, len(d.ledger.AssetBuyback)),
	}
	for k, v := range d.ledger.CreatorClaims {
		out.CreatorClaims[k] = v
	}
	for k, v := range d.ledger.AssetBuyback {
		out.AssetBuyback[k] = v
	}
	return out
}

// Restore replaces the ledger state. Used at startup when reloading a
// persisted snapshot.
func (d *Distributor) Restore(l Ledger) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if l.CreatorClaims == nil {
		l.CreatorClaims = make(map[string]amount.Amount)
	}
	if l.AssetBuyback == nil {
		l.AssetBuyback = make(map[assetid.AssetID]amount.Amount)
	}
	d.ledger = l
}
