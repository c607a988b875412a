package market

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
	"github.com/curvemkt/curved/internal/core/curve"
	"github.com/curvemkt/curved/internal/core/fees"
	"github.com/curvemkt/curved/internal/events"
	"github.com/curvemkt/curved/internal/ledger"
	"github.com/curvemkt/curved/internal/registry"
)

// BuyRequest is one attempted purchase.
type BuyRequest struct {
	Asset        assetid.AssetID
	Buyer        string
	EthIn        amount.Amount // gross wei, fee included
	MinTokensOut amount.Amount // slippage floor; zero accepts anything
}

// SellRequest is one attempted sale back into the curve.
type SellRequest struct {
	Asset     assetid.AssetID
	Seller    string
	Tokens    amount.Amount
	MinEthOut amount.Amount
}

// BuyReceipt reports the outcome of a buy. On non-applied results only
// Result is meaningful.
type BuyReceipt struct {
	Result     Result
	Tokens     amount.Amount
	Spent      amount.Amount // wei consumed on the curve, net of fee
	Fee        amount.Amount
	Refund     amount.Amount // unspent net wei returned to the buyer
	PriceAfter amount.Amount
	Sold       amount.Amount
	Raised     amount.Amount
	FairLaunch bool
	Graduated  bool
}

// SellReceipt reports the outcome of a sell.
type SellReceipt struct {
	Result     Result
	Proceeds   amount.Amount // net wei paid to the seller
	Gross      amount.Amount
	Fee        amount.Amount
	PriceAfter amount.Amount
	Sold       amount.Amount
	Raised     amount.Amount
}

func (m *Machine) feeOn(gross amount.Amount) amount.Amount {
	fee, _ := gross.MulDiv(m.cfg.TradeFeeBps, fees.BpsDenom)
	return fee
}

// Buy purchases tokens with req.EthIn wei. The fee is charged on the
// gross amount; the remainder walks the curve (or the fair-launch
// price while one is active). Output is capped at the supply ceiling
// and at any fair-launch wallet cap; unspent wei is refunded. A buy
// that crosses the asset's raise target or sells out the supply closes
// the asset and triggers graduation best-effort: the buy stands even
// when graduation fails.
func (m *Machine) Buy(ctx context.Context, req BuyRequest) BuyReceipt {
	if req.EthIn.IsZero() {
		return BuyReceipt{Result: RejZeroAmount}
	}
	if m.cfg.MaxTxEth.IsPositive() && req.EthIn.GT(m.cfg.MaxTxEth) {
		return BuyReceipt{Result: RejOverTxCap}
	}
	if req.Buyer == "" {
		return BuyReceipt{Result: RejNoAccount}
	}

	b, ok := m.book(req.Asset)
	if !ok {
		return BuyReceipt{Result: RejUnknownAsset}
	}

	rcpt, graduate := m.applyBuy(ctx, b, req)
	if graduate {
		m.autoGraduate(ctx, b, &rcpt)
	}
	return rcpt
}

// applyBuy runs the buy inside the book's busy window and reports
// whether the graduation trigger fired.
func (m *Machine) applyBuy(ctx context.Context, b *book, req BuyRequest) (BuyReceipt, bool) {
	if !b.enter() {
		return BuyReceipt{Result: RejBusy}, false
	}
	defer b.leave()

	st := b.state()
	if !st.Open {
		return BuyReceipt{Result: RejNotOpen}, false
	}

	paused, err := m.deps.Gate.Paused(ctx)
	if err != nil {
		m.log.Error("gate pause check failed", zap.Error(err))
		return BuyReceipt{Result: ErrInternal}, false
	}
	if paused {
		return BuyReceipt{Result: RejPaused}, false
	}
	allowed, err := m.deps.Gate.ValidateBuy(ctx, req.Asset, req.Buyer, req.EthIn)
	if err != nil {
		m.log.Error("gate buy check failed", zap.Error(err))
		return BuyReceipt{Result: ErrInternal}, false
	}
	if !allowed {
		return BuyReceipt{Result: RejGateBlocked}, false
	}

	fee := m.feeOn(req.EthIn)
	net := req.EthIn.MustSub(fee)

	fl, err := m.deps.Gate.FairLaunch(ctx, req.Asset, req.Buyer)
	if err != nil {
		m.log.Error("fair launch lookup failed", zap.Error(err))
		return BuyReceipt{Result: ErrInternal}, false
	}

	var tokensOut, spend amount.Amount
	if fl.Active && fl.Price.IsPositive() {
		// Fixed-price window: the curve is bypassed. Cap at the
		// wallet's remaining allowance and the supply ceiling, then
		// re-price the capped amount.
		tokensOut = curve.TokensAtPrice(fl.Price, net)
		tokensOut = amount.Min(tokensOut, fl.Remaining)
		tokensOut = amount.Min(tokensOut, b.asset.Curve.TokenLimit.MustSub(st.Sold))
		spend = curve.CostAtPrice(fl.Price, tokensOut)
	} else {
		tokensOut, spend = b.eng.TokensForBudget(st.Sold, net)
	}

	if tokensOut.IsZero() {
		return BuyReceipt{Result: EconNoTokens}, false
	}
	if tokensOut.LT(req.MinTokensOut) {
		return BuyReceipt{Result: EconSlippage, Tokens: tokensOut}, false
	}
	refund := net.MustSub(spend)

	if res := m.settleBuy(ctx, b, req, tokensOut, fee, refund); res != OK {
		return BuyReceipt{Result: res}, false
	}

	st.Sold = st.Sold.Add(tokensOut)
	st.Raised = st.Raised.Add(spend)
	b.commit(st)

	if fee.IsPositive() {
		if _, err := m.deps.Fees.DistributeTrading(fee, b.asset.Split, m.creatorOf(ctx, b.asset), b.asset.ID); err != nil {
			m.log.Error("fee distribution failed", zap.Stringer("asset", b.asset.ID), zap.Error(err))
		}
	}
	if err := m.deps.Gate.RecordFill(ctx, req.Asset, req.Buyer, tokensOut); err != nil {
		m.log.Warn("gate fill record failed", zap.Error(err))
	}

	priceAfter := b.eng.BuyPrice(st.Sold)
	now := m.now()
	m.recordTrade(ctx, registry.Trade{
		Asset:      b.asset.ID,
		Side:       events.SideBuy,
		Trader:     req.Buyer,
		Tokens:     tokensOut,
		Eth:        spend.Add(fee),
		Fee:        fee,
		PriceAfter: priceAfter,
		Sold:       st.Sold,
		Raised:     st.Raised,
		At:         now,
	})
	m.deps.Events.PublishTrade(&events.TradeEvent{
		Asset:      b.asset.ID,
		Side:       events.SideBuy,
		Trader:     req.Buyer,
		Tokens:     tokensOut,
		Eth:        spend.Add(fee),
		Fee:        fee,
		PriceAfter: priceAfter,
		Sold:       st.Sold,
		Raised:     st.Raised,
		Timestamp:  now,
	})

	// Graduation trigger: supply exhausted or target raised. Trading
	// closes inside this busy window; the graduation itself runs after
	// it, against an already-closed asset.
	graduate := st.Sold.GTE(b.asset.Curve.TokenLimit) || st.Raised.GTE(b.asset.Target)
	if graduate {
		st.Open = false
		b.commit(st)
	}
	m.saveState(ctx, b.asset.ID, st)

	return BuyReceipt{
		Result:     OK,
		Tokens:     tokensOut,
		Spent:      spend,
		Fee:        fee,
		Refund:     refund,
		PriceAfter: priceAfter,
		Sold:       st.Sold,
		Raised:     st.Raised,
		FairLaunch: fl.Active,
	}, graduate
}

// settleBuy moves the money: gross wei in, tokens out, fee to the
// vault, leftover back. Any failure unwinds the earlier legs so a
// rejected buy leaves every balance as it was.
func (m *Machine) settleBuy(ctx context.Context, b *book, req BuyRequest, tokensOut, fee, refund amount.Amount) Result {
	esc := m.cfg.Escrow
	if err := m.deps.Native.Transfer(ctx, req.Buyer, esc, req.EthIn); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return EconInsufficientFunds
		}
		m.log.Error("buy funding transfer failed", zap.Error(err))
		return ErrLedger
	}
	if err := m.deps.Tokens.Transfer(ctx, b.asset.ID, esc, req.Buyer, tokensOut); err != nil {
		m.unwind(ctx, func() error { return m.deps.Native.Transfer(ctx, esc, req.Buyer, req.EthIn) })
		m.log.Error("buy token transfer failed", zap.Stringer("asset", b.asset.ID), zap.Error(err))
		return ErrLedger
	}
	if fee.IsPositive() {
		if err := m.deps.Native.Transfer(ctx, esc, m.deps.Fees.Vault(), fee); err != nil {
			m.unwind(ctx, func() error { return m.deps.Tokens.Transfer(ctx, b.asset.ID, req.Buyer, esc, tokensOut) })
			m.unwind(ctx, func() error { return m.deps.Native.Transfer(ctx, esc, req.Buyer, req.EthIn) })
			m.log.Error("buy fee transfer failed", zap.Error(err))
			return ErrLedger
		}
	}
	if refund.IsPositive() {
		if err := m.deps.Native.Transfer(ctx, esc, req.Buyer, refund); err != nil {
			m.unwind(ctx, func() error { return m.deps.Native.Transfer(ctx, m.deps.Fees.Vault(), esc, fee) })
			m.unwind(ctx, func() error { return m.deps.Tokens.Transfer(ctx, b.asset.ID, req.Buyer, esc, tokensOut) })
			m.unwind(ctx, func() error { return m.deps.Native.Transfer(ctx, esc, req.Buyer, req.EthIn) })
			m.log.Error("buy refund transfer failed", zap.Error(err))
			return ErrLedger
		}
	}
	return OK
}

// unwind runs a compensating transfer and logs when even that fails;
// there is nothing better to do at that point.
func (m *Machine) unwind(ctx context.Context, f func() error) {
	if err := f(); err != nil {
		m.log.Error("compensating transfer failed", zap.Error(err))
	}
}

// autoGraduate runs the best-effort graduation after a triggering buy.
// The buy has committed; failure here downgrades the receipt to
// OkGraduationPending and surfaces an event for the operator.
func (m *Machine) autoGraduate(ctx context.Context, b *book, rcpt *BuyReceipt) {
	var err error
	if m.grad == nil {
		err = errors.New("no graduation coordinator wired")
	} else {
		err = m.grad.Graduate(ctx, b.asset.ID)
	}
	if err != nil {
		m.log.Warn("auto graduation failed, buy stands",
			zap.Stringer("asset", b.asset.ID), zap.Error(err))
		m.deps.Events.PublishGraduationFailed(&events.GraduationFailedEvent{
			Asset:     b.asset.ID,
			Reason:    err.Error(),
			Timestamp: m.now(),
		})
		rcpt.Result = OkGraduationPending
		return
	}
	rcpt.Graduated = true
}

// Sell returns tokens to the curve for wei. Requires sells to be
// enabled for the asset. The gross proceeds come off the raise; the
// fee is charged on those proceeds.
func (m *Machine) Sell(ctx context.Context, req SellRequest) SellReceipt {
	if req.Tokens.IsZero() {
		return SellReceipt{Result: RejZeroAmount}
	}
	if req.Seller == "" {
		return SellReceipt{Result: RejNoAccount}
	}

	b, ok := m.book(req.Asset)
	if !ok {
		return SellReceipt{Result: RejUnknownAsset}
	}
	if !b.enter() {
		return SellReceipt{Result: RejBusy}
	}
	defer b.leave()

	st := b.state()
	if !st.Open {
		return SellReceipt{Result: RejNotOpen}
	}
	if !st.SellsEnabled {
		return SellReceipt{Result: RejSellsDisabled}
	}

	paused, err := m.deps.Gate.Paused(ctx)
	if err != nil {
		m.log.Error("gate pause check failed", zap.Error(err))
		return SellReceipt{Result: ErrInternal}
	}
	if paused {
		return SellReceipt{Result: RejPaused}
	}

	if req.Tokens.GT(st.Sold) {
		return SellReceipt{Result: RejExceedsSold}
	}

	gross := b.eng.SellProceeds(st.Sold, req.Tokens)
	fee := m.feeOn(gross)
	net := gross.MustSub(fee)
	if net.IsZero() {
		return SellReceipt{Result: EconDustProceeds}
	}
	if net.LT(req.MinEthOut) {
		return SellReceipt{Result: EconSlippage, Proceeds: net}
	}
	// The raise accumulator is unsigned; the trapezoid can overshoot
	// what this span actually raised, so the whole raise is the hard
	// ceiling on what a sale may take out.
	if gross.GT(st.Raised) {
		return SellReceipt{Result: EconExceedsRaise}
	}

	if res := m.settleSell(ctx, b, req, net, fee); res != OK {
		return SellReceipt{Result: res}
	}

	st.Sold = st.Sold.MustSub(req.Tokens)
	st.Raised = st.Raised.MustSub(gross)
	b.commit(st)

	if fee.IsPositive() {
		if _, err := m.deps.Fees.DistributeTrading(fee, b.asset.Split, m.creatorOf(ctx, b.asset), b.asset.ID); err != nil {
			m.log.Error("fee distribution failed", zap.Stringer("asset", b.asset.ID), zap.Error(err))
		}
	}

	priceAfter := b.eng.BuyPrice(st.Sold)
	now := m.now()
	m.recordTrade(ctx, registry.Trade{
		Asset:      b.asset.ID,
		Side:       events.SideSell,
		Trader:     req.Seller,
		Tokens:     req.Tokens,
		Eth:        gross,
		Fee:        fee,
		PriceAfter: priceAfter,
		Sold:       st.Sold,
		Raised:     st.Raised,
		At:         now,
	})
	m.deps.Events.PublishTrade(&events.TradeEvent{
		Asset:      b.asset.ID,
		Side:       events.SideSell,
		Trader:     req.Seller,
		Tokens:     req.Tokens,
		Eth:        gross,
		Fee:        fee,
		PriceAfter: priceAfter,
		Sold:       st.Sold,
		Raised:     st.Raised,
		Timestamp:  now,
	})
	m.saveState(ctx, b.asset.ID, st)

	return SellReceipt{
		Result:     OK,
		Proceeds:   net,
		Gross:      gross,
		Fee:        fee,
		PriceAfter: priceAfter,
		Sold:       st.Sold,
		Raised:     st.Raised,
	}
}

// settleSell moves tokens in and wei out, unwinding on failure.
func (m *Machine) settleSell(ctx context.Context, b *book, req SellRequest, net, fee amount.Amount) Result {
	esc := m.cfg.Escrow
	if err := m.deps.Tokens.Transfer(ctx, b.asset.ID, req.Seller, esc, req.Tokens); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return EconInsufficientFunds
		}
		m.log.Error("sell token transfer failed", zap.Stringer("asset", b.asset.ID), zap.Error(err))
		return ErrLedger
	}
	if err := m.deps.Native.Transfer(ctx, esc, req.Seller, net); err != nil {
		m.unwind(ctx, func() error { return m.deps.Tokens.Transfer(ctx, b.asset.ID, esc, req.Seller, req.Tokens) })
		m.log.Error("sell payout transfer failed", zap.Error(err))
		return ErrLedger
	}
	if fee.IsPositive() {
		if err := m.deps.Native.Transfer(ctx, esc, m.deps.Fees.Vault(), fee); err != nil {
			m.unwind(ctx, func() error { return m.deps.Native.Transfer(ctx, req.Seller, esc, net) })
			m.unwind(ctx, func() error { return m.deps.Tokens.Transfer(ctx, b.asset.ID, esc, req.Seller, req.Tokens) })
			m.log.Error("sell fee transfer failed", zap.Error(err))
			return ErrLedger
		}
	}
	return OK
}
