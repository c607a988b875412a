// Package curve implements the bonding-curve price engine: instantaneous
// price, chunked integral cost, the greedy inverse, and the discounted
// sell side. All functions are pure and operate on 18-decimal fixed-point
// quantities.
package curve

import (
	"math/big"

	"github.com/curvemkt/curved/internal/core/amount"
)

// BpsDenom is the basis-point denominator used for the sell spread.
const BpsDenom = 10000

// DefaultSpreadBps is the default sell discount: sells execute at 95% of
// the buy price.
const DefaultSpreadBps = 500

// integrationChunks are the descending step sizes, in whole tokens, used
// by the midpoint-rule cost integral and its greedy inverse. The chunking
// is a deliberate approximation with a systematic bias; downstream
// calibration (pool seeding at graduation) is tuned against this exact
// scheme, so the scheme must not be replaced by a closed-form integral.
var integrationChunks = [4]uint64{10_000, 1_000, 100, 10}

// Params holds the curve constants. Prices are in wei per whole token.
type Params struct {
	// InitialPrice is the price at sold == 0.
	InitialPrice amount.Amount

	// K scales the x^1.5 term: price(n) = InitialPrice + K*n*isqrt(n)/1e18
	// for n whole tokens sold.
	K *big.Int

	// TokenLimit is the supply ceiling in base units.
	TokenLimit amount.Amount

	// SpreadBps is the sell discount in basis points.
	SpreadBps uint64
}

// DefaultParams returns the platform calibration: starting price 0.00001,
// K tuned so selling out the 400,000-token allocation raises roughly 20.
func DefaultParams() Params {
	k, _ := new(big.Int).SetString("400000000000000000000000", 10) // 4e23
	return Params{
		InitialPrice: amount.MustParse("10000000000000"), // 1e13 wei
		K:            k,
		TokenLimit:   amount.FromWhole(400_000),
		SpreadBps:    DefaultSpreadBps,
	}
}

// Engine evaluates the curve for a fixed set of Params.
type Engine struct {
	params Params

	// defaultTarget caches BuyCost(0, TokenLimit), the raise produced by
	// selling the entire allocation. Computed lazily.
	defaultTarget amount.Amount
	targetSet     bool
}

// New returns an Engine for the given params. K must be non-nil.
func New(params Params) *Engine {
	if params.K == nil {
		params.K = new(big.Int)
	}
	if params.SpreadBps == 0 {
		params.SpreadBps = DefaultSpreadBps
	}
	return &Engine{params: params}
}

// Params returns the engine's curve constants.
func (e *Engine) Params() Params {
	return e.params
}

// TokenLimit returns the supply ceiling in base units.
func (e *Engine) TokenLimit() amount.Amount {
	return e.params.TokenLimit
}

// BuyPrice returns the instantaneous price, in wei per whole token, after
// sold base units have been sold.
//
// price(0) = InitialPrice; otherwise
// price(n) = InitialPrice + K * n * isqrt(n) / 1e18 with n = sold / 1e18
// rounded down. The floor division and floor sqrt make the price a step
// function of whole tokens sold.
func (e *Engine) BuyPrice(sold amount.Amount) amount.Amount {
	if sold.IsZero() {
		return e.params.InitialPrice
	}

	n := sold.WholeTokens()
	term := new(big.Int).Mul(e.params.K, n)
	term.Mul(term, isqrt(n))
	term.Div(term, amount.BaseUnitsPerToken)

	return e.params.InitialPrice.Add(amount.MustNew(term))
}

// chunkCost prices a chunk of whole tokens at the midpoint price, i.e.
// the instantaneous price after half the chunk has been sold.
func (e *Engine) chunkCost(sold amount.Amount, chunkTokens uint64) amount.Amount {
	mid := sold.Add(amount.FromWhole(chunkTokens / 2))
	price := e.BuyPrice(mid)
	return price.Mul(chunkTokens)
}

// BuyCost returns the cost, in wei, of buying amt base units starting
// from sold. The integral is approximated by midpoint-rule chunks of
// decreasing size; any remainder below the smallest chunk is priced at
// the instantaneous price. The approximation's bias is part of the
// platform's economic behavior and is covered by tests in both
// directions.
func (e *Engine) BuyCost(sold, amt amount.Amount) amount.Amount {
	cost := amount.Zero()
	cur := sold
	remaining := amt

	for _, chunk := range integrationChunks {
		step := amount.FromWhole(chunk)
		for remaining.GTE(step) {
			cost = cost.Add(e.chunkCost(cur, chunk))
			cur = cur.Add(step)
			remaining = remaining.MustSub(step)
		}
	}

	if remaining.IsPositive() {
		price := e.BuyPrice(cur)
		rem := price.BigInt()
		rem.Mul(rem, remaining.BigInt())
		rem.Div(rem, amount.BaseUnitsPerToken)
		cost = cost.Add(amount.MustNew(rem))
	}

	return cost
}

// TokensForBudget returns how many base units budget wei buys starting
// from sold, and the exact wei consumed. It walks the same chunk ladder
// as BuyCost, consuming whole chunks while they remain affordable and
// the supply ceiling is not exceeded. Because only whole chunks are
// consumed, up to one smallest-chunk's cost of budget can be left
// unspent; callers refund the difference. The returned spent never
// exceeds budget, and re-pricing the returned tokens with BuyCost yields
// exactly spent.
func (e *Engine) TokensForBudget(sold, budget amount.Amount) (tokens, spent amount.Amount) {
	tokens = amount.Zero()
	spent = amount.Zero()
	cur := sold
	left := budget

	for _, chunk := range integrationChunks {
		step := amount.FromWhole(chunk)
		for {
			if cur.Add(step).GT(e.params.TokenLimit) {
				break
			}
			cost := e.chunkCost(cur, chunk)
			if cost.GT(left) || cost.IsZero() {
				break
			}
			tokens = tokens.Add(step)
			spent = spent.Add(cost)
			cur = cur.Add(step)
			left = left.MustSub(cost)
		}
	}

	return tokens, spent
}

// SellPrice returns the instantaneous sell price: the buy price less the
// spread. Selling into an empty curve is worth nothing.
func (e *Engine) SellPrice(sold amount.Amount) amount.Amount {
	if sold.IsZero() {
		return amount.Zero()
	}
	p, _ := e.BuyPrice(sold).MulDiv(BpsDenom-e.params.SpreadBps, BpsDenom)
	return p
}

// SellProceeds returns the gross wei received for selling amt base units
// back into the curve at position sold: the trapezoidal average of the
// sell price before and after the sale, times the amount.
func (e *Engine) SellProceeds(sold, amt amount.Amount) amount.Amount {
	if amt.IsZero() || sold.IsZero() {
		return amount.Zero()
	}

	after := amount.Zero()
	if amt.LT(sold) {
		after = sold.MustSub(amt)
	}

	avg := e.SellPrice(sold).Add(e.SellPrice(after))
	v, _ := avg.Div(2)

	proceeds := v.BigInt()
	proceeds.Mul(proceeds, amt.BigInt())
	proceeds.Div(proceeds, amount.BaseUnitsPerToken)
	return amount.MustNew(proceeds)
}

// DefaultTarget returns the raise produced by selling the entire token
// allocation: BuyCost(0, TokenLimit). Assets with no explicit target
// graduate at this value.
func (e *Engine) DefaultTarget() amount.Amount {
	if !e.targetSet {
		e.defaultTarget = e.BuyCost(amount.Zero(), e.params.TokenLimit)
		e.targetSet = true
	}
	return e.defaultTarget
}

// PoolReserveFor returns the token reserve, in base units, that a venue
// position seeded with (target - graduationFee) wei needs so that the
// venue opens exactly at the curve's final price with nothing burned:
// (target - fee) * 1e18 / BuyPrice(TokenLimit), rounded down. A zero is
// returned when the fee consumes the whole target.
func (e *Engine) PoolReserveFor(target, graduationFee amount.Amount) amount.Amount {
	ethForPool, err := target.Sub(graduationFee)
	if err != nil || ethForPool.IsZero() {
		return amount.Zero()
	}

	finalPrice := e.BuyPrice(e.params.TokenLimit)
	v := ethForPool.BigInt()
	v.Mul(v, amount.BaseUnitsPerToken)
	v.Div(v, finalPrice.BigInt())
	return amount.MustNew(v)
}

// TokensAtPrice returns how many base units budget wei buys at a flat
// price of price wei per whole token, rounded down. Fair-launch
// purchases bypass the curve and use this instead.
func TokensAtPrice(price, budget amount.Amount) amount.Amount {
	if price.IsZero() {
		return amount.Zero()
	}
	v := budget.BigInt()
	v.Mul(v, amount.BaseUnitsPerToken)
	v.Div(v, price.BigInt())
	return amount.MustNew(v)
}

// CostAtPrice returns the wei cost of tokens base units at a flat price
// of price wei per whole token, rounded down.
func CostAtPrice(price, tokens amount.Amount) amount.Amount {
	v := price.BigInt()
	v.Mul(v, tokens.BigInt())
	v.Div(v, amount.BaseUnitsPerToken)
	return amount.MustNew(v)
}
