package market

import (
	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

// BuyQuote prices a prospective buy without touching state. Quotes
// always walk the curve; any active fair-launch price applies only at
// execution time.
type BuyQuote struct {
	Tokens     amount.Amount
	Spend      amount.Amount
	Fee        amount.Amount
	Refund     amount.Amount
	PriceAfter amount.Amount
}

// SellQuote prices a prospective sell without touching state.
type SellQuote struct {
	Proceeds   amount.Amount // net of fee
	Gross      amount.Amount
	Fee        amount.Amount
	PriceAfter amount.Amount
}

// QuoteBuy previews what ethIn wei would buy right now.
func (m *Machine) QuoteBuy(id assetid.AssetID, ethIn amount.Amount) (BuyQuote, Result) {
	if ethIn.IsZero() {
		return BuyQuote{}, RejZeroAmount
	}
	b, ok := m.book(id)
	if !ok {
		return BuyQuote{}, RejUnknownAsset
	}
	st := b.state()

	fee := m.feeOn(ethIn)
	net := ethIn.MustSub(fee)
	tokens, spend := b.eng.TokensForBudget(st.Sold, net)

	return BuyQuote{
		Tokens:     tokens,
		Spend:      spend,
		Fee:        fee,
		Refund:     net.MustSub(spend),
		PriceAfter: b.eng.BuyPrice(st.Sold.Add(tokens)),
	}, OK
}

// QuoteSell previews the proceeds of selling tokens right now.
func (m *Machine) QuoteSell(id assetid.AssetID, tokens amount.Amount) (SellQuote, Result) {
	if tokens.IsZero() {
		return SellQuote{}, RejZeroAmount
	}
	b, ok := m.book(id)
	if !ok {
		return SellQuote{}, RejUnknownAsset
	}
	st := b.state()
	if tokens.GT(st.Sold) {
		return SellQuote{}, RejExceedsSold
	}

	gross := b.eng.SellProceeds(st.Sold, tokens)
	fee := m.feeOn(gross)

	return SellQuote{
		Proceeds:   gross.MustSub(fee),
		Gross:      gross,
		Fee:        fee,
		PriceAfter: b.eng.BuyPrice(st.Sold.MustSub(tokens)),
	}, OK
}

// Price returns the instantaneous buy price at the current supply.
func (m *Machine) Price(id assetid.AssetID) (amount.Amount, Result) {
	b, ok := m.book(id)
	if !ok {
		return amount.Zero(), RejUnknownAsset
	}
	return b.eng.BuyPrice(b.state().Sold), OK
}
