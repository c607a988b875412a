package venue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/ledger"
)

// FeeBpsDefault is the default pool fee charged on swap input.
const FeeBpsDefault = 30

const bpsDenom = 10000

// AMM is an in-process constant-product venue. Each pool holds its
// reserves in a dedicated ledger account; swap fees accrue in separate
// buckets (they do not compound into the reserves) so CollectFees can
// hand the position owner exactly what accrued.
type AMM struct {
	feeBps uint64
	tokens ledger.Tokens
	native ledger.Native
	log    *zap.Logger

	mu        sync.Mutex
	pools     map[string]*pool
	byAsset   map[assetid.AssetID]string
	positions map[string]*position
}

var _ Venue = (*AMM)(nil)

type pool struct {
	ref     string
	asset   assetid.AssetID
	account string

	price        amount.Amount
	priced       bool
	tokenReserve amount.Amount
	weiReserve   amount.Amount

	feeToken amount.Amount
	feeWei   amount.Amount

	nextPosition int
}

type position struct {
	ref     string
	poolRef string
	owner   string
	liq     amount.Amount
}

// NewAMM builds an in-process venue over the given ledgers. A zero
// feeBps falls back to FeeBpsDefault.
func NewAMM(feeBps uint64, tokens ledger.Tokens, native ledger.Native, log *zap.Logger) *AMM {
	if feeBps == 0 {
		feeBps = FeeBpsDefault
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AMM{
		feeBps:    feeBps,
		tokens:    tokens,
		native:    native,
		log:       log,
		pools:     make(map[string]*pool),
		byAsset:   make(map[assetid.AssetID]string),
		positions: make(map[string]*position),
	}
}

// poolRef derives a stable pool identifier from the asset.
func poolRef(asset assetid.AssetID) string {
	sum := sha256.Sum256(asset.Bytes())
	return "pool-" + hex.EncodeToString(sum[:10])
}

func (a *AMM) CreateOrGetPool(ctx context.Context, asset assetid.AssetID) (Pool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ref, ok := a.byAsset[asset]; ok {
		return a.pools[ref].snapshot(), nil
	}

	ref := poolRef(asset)
	p := &pool{
		ref:          ref,
		asset:        asset,
		account:      "amm:" + ref,
		price:        amount.Zero(),
		tokenReserve: amount.Zero(),
		weiReserve:   amount.Zero(),
		feeToken:     amount.Zero(),
		feeWei:       amount.Zero(),
	}
	a.pools[ref] = p
	a.byAsset[asset] = ref
	a.log.Info("pool created", zap.Stringer("asset", asset), zap.String("pool", ref))
	return p.snapshot(), nil
}

func (p *pool) snapshot() Pool {
	return Pool{
		Ref:          p.ref,
		Asset:        p.asset,
		Price:        p.price,
		TokenReserve: p.tokenReserve,
		WeiReserve:   p.weiReserve,
	}
}

func (a *AMM) InitializePrice(ctx context.Context, ref string, price amount.Amount) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.pools[ref]
	if !ok {
		return ErrUnknownPool
	}
	if p.tokenReserve.IsPositive() || p.weiReserve.IsPositive() {
		return ErrHasLiquidity
	}
	p.price = price
	p.priced = true
	return nil
}

func (a *AMM) MintFullRangePosition(ctx context.Context, ref, owner string, tokens, wei amount.Amount) (Position, error) {
	a.mu.Lock()
	p, ok := a.pools[ref]
	if !ok {
		a.mu.Unlock()
		return Position{}, ErrUnknownPool
	}
	if !p.priced {
		a.mu.Unlock()
		return Position{}, ErrNotInitialized
	}
	if tokens.IsZero() || wei.IsZero() {
		a.mu.Unlock()
		return Position{}, ErrZeroLiquidity
	}
	asset, account := p.asset, p.account
	a.mu.Unlock()

	// Move the deposit before recording it; transfers are the part
	// that can fail.
	if err := a.tokens.Transfer(ctx, asset, owner, account, tokens); err != nil {
		return Position{}, fmt.Errorf("venue: token deposit: %w", err)
	}
	if err := a.native.Transfer(ctx, owner, account, wei); err != nil {
		if uerr := a.tokens.Transfer(ctx, asset, account, owner, tokens); uerr != nil {
			a.log.Error("deposit unwind failed", zap.String("pool", ref), zap.Error(uerr))
		}
		return Position{}, fmt.Errorf("venue: wei deposit: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	p.tokenReserve = p.tokenReserve.Add(tokens)
	p.weiReserve = p.weiReserve.Add(wei)
	p.nextPosition++

	pos := &position{
		ref:     fmt.Sprintf("%s/%d", ref, p.nextPosition),
		poolRef: ref,
		owner:   owner,
		liq:     liquidityFor(tokens, wei),
	}
	a.positions[pos.ref] = pos

	a.log.Info("position minted",
		zap.String("pool", ref),
		zap.String("position", pos.ref),
		zap.String("tokens", tokens.String()),
		zap.String("wei", wei.String()))
	return Position{Ref: pos.ref, PoolRef: ref, Owner: owner, Liquidity: pos.liq}, nil
}

// liquidityFor is the geometric mean of the two deposits.
func liquidityFor(tokens, wei amount.Amount) amount.Amount {
	product := new(big.Int).Mul(tokens.BigInt(), wei.BigInt())
	return amount.MustNew(product.Sqrt(product))
}

// SwapExactIn trades amountIn of one side for the other against the
// constant product, charging the pool fee on the input. weiIn selects
// the direction: true spends wei for tokens. Reserves are committed
// before the external transfers and rolled back if settlement fails,
// so a re-entrant call never sees credit it cannot take.
func (a *AMM) SwapExactIn(ctx context.Context, ref, trader string, weiIn bool, amountIn, minOut amount.Amount) (amount.Amount, error) {
	a.mu.Lock()
	p, ok := a.pools[ref]
	if !ok {
		a.mu.Unlock()
		return amount.Zero(), ErrUnknownPool
	}
	if p.tokenReserve.IsZero() || p.weiReserve.IsZero() {
		a.mu.Unlock()
		return amount.Zero(), ErrNotInitialized
	}

	fee, _ := amountIn.MulDiv(a.feeBps, bpsDenom)
	inNet := amountIn.MustSub(fee)

	var reserveIn, reserveOut amount.Amount
	if weiIn {
		reserveIn, reserveOut = p.weiReserve, p.tokenReserve
	} else {
		reserveIn, reserveOut = p.tokenReserve, p.weiReserve
	}

	// out = reserveOut * inNet / (reserveIn + inNet), floored.
	num := new(big.Int).Mul(reserveOut.BigInt(), inNet.BigInt())
	den := new(big.Int).Add(reserveIn.BigInt(), inNet.BigInt())
	out := amount.MustNew(num.Div(num, den))

	if out.LT(minOut) || out.IsZero() {
		a.mu.Unlock()
		return amount.Zero(), ErrSlippage
	}

	if weiIn {
		p.weiReserve = p.weiReserve.Add(inNet)
		p.tokenReserve = p.tokenReserve.MustSub(out)
		p.feeWei = p.feeWei.Add(fee)
	} else {
		p.tokenReserve = p.tokenReserve.Add(inNet)
		p.weiReserve = p.weiReserve.MustSub(out)
		p.feeToken = p.feeToken.Add(fee)
	}
	asset, account := p.asset, p.account
	a.mu.Unlock()

	var err error
	if weiIn {
		if err = a.native.Transfer(ctx, trader, account, amountIn); err == nil {
			if err = a.tokens.Transfer(ctx, asset, account, trader, out); err != nil {
				if uerr := a.native.Transfer(ctx, account, trader, amountIn); uerr != nil {
					a.log.Error("swap unwind failed", zap.String("pool", ref), zap.Error(uerr))
				}
			}
		}
	} else {
		if err = a.tokens.Transfer(ctx, asset, trader, account, amountIn); err == nil {
			if err = a.native.Transfer(ctx, account, trader, out); err != nil {
				if uerr := a.tokens.Transfer(ctx, asset, account, trader, amountIn); uerr != nil {
					a.log.Error("swap unwind failed", zap.String("pool", ref), zap.Error(uerr))
				}
			}
		}
	}
	if err != nil {
		a.mu.Lock()
		if weiIn {
			p.weiReserve = p.weiReserve.MustSub(inNet)
			p.tokenReserve = p.tokenReserve.Add(out)
			p.feeWei = p.feeWei.MustSub(fee)
		} else {
			p.tokenReserve = p.tokenReserve.MustSub(inNet)
			p.weiReserve = p.weiReserve.Add(out)
			p.feeToken = p.feeToken.MustSub(fee)
		}
		a.mu.Unlock()
		return amount.Zero(), fmt.Errorf("venue: swap settlement: %w", err)
	}
	return out, nil
}

func (a *AMM) CollectFees(ctx context.Context, positionRef, to string) (amount.Amount, amount.Amount, error) {
	a.mu.Lock()
	pos, ok := a.positions[positionRef]
	if !ok {
		a.mu.Unlock()
		return amount.Zero(), amount.Zero(), ErrUnknownPosition
	}
	p := a.pools[pos.poolRef]

	// Zero the buckets before paying out; a re-entrant collect finds
	// nothing.
	tokenFees, weiFees := p.feeToken, p.feeWei
	p.feeToken = amount.Zero()
	p.feeWei = amount.Zero()
	asset, account := p.asset, p.account
	a.mu.Unlock()

	if tokenFees.IsPositive() {
		if err := a.tokens.Transfer(ctx, asset, account, to, tokenFees); err != nil {
			a.restoreFees(pos.poolRef, tokenFees, weiFees)
			return amount.Zero(), amount.Zero(), fmt.Errorf("venue: fee token payout: %w", err)
		}
	}
	if weiFees.IsPositive() {
		if err := a.native.Transfer(ctx, account, to, weiFees); err != nil {
			if tokenFees.IsPositive() {
				if uerr := a.tokens.Transfer(ctx, asset, to, account, tokenFees); uerr != nil {
					a.log.Error("fee payout unwind failed", zap.String("pool", pos.poolRef), zap.Error(uerr))
				}
			}
			a.restoreFees(pos.poolRef, tokenFees, weiFees)
			return amount.Zero(), amount.Zero(), fmt.Errorf("venue: fee wei payout: %w", err)
		}
	}
	return tokenFees, weiFees, nil
}

func (a *AMM) restoreFees(ref string, tokenFees, weiFees amount.Amount) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.pools[ref]; ok {
		p.feeToken = p.feeToken.Add(tokenFees)
		p.feeWei = p.feeWei.Add(weiFees)
	}
}

// PoolState returns the pool snapshot for inspection.
func (a *AMM) PoolState(ref string) (Pool, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.pools[ref]
	if !ok {
		return Pool{}, false
	}
	return p.snapshot(), true
}
