// Package ledger defines the balance ledgers the trading engine settles
// against: a per-asset token ledger and a native-currency ledger. Both
// are consumed as interfaces; the in-memory implementations back the
// standalone daemon and the test suites.
package ledger

import (
	"context"
	"errors"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrUnknownAsset        = errors.New("ledger: unknown asset")
)

// Tokens is the balance-checked token ledger. One balance sheet exists
// per asset; amounts are in base units.
type Tokens interface {
	// BalanceOf returns holder's balance for the asset.
	BalanceOf(ctx context.Context, asset assetid.AssetID, holder string) (amount.Amount, error)

	// Mint credits newly created tokens to an account.
	Mint(ctx context.Context, asset assetid.AssetID, to string, amt amount.Amount) error

	// Burn destroys tokens held by an account. Fails if the balance is
	// smaller than amt.
	Burn(ctx context.Context, asset assetid.AssetID, from string, amt amount.Amount) error

	// Transfer moves tokens between accounts. Fails if the sender's
	// balance is smaller than amt.
	Transfer(ctx context.Context, asset assetid.AssetID, from, to string, amt amount.Amount) error
}

// Native moves the quote currency between accounts. Amounts are in wei.
type Native interface {
	// BalanceOf returns the account's native balance.
	BalanceOf(ctx context.Context, account string) (amount.Amount, error)

	// Transfer moves native funds. Fails if the sender's balance is
	// smaller than amt.
	Transfer(ctx context.Context, from, to string, amt amount.Amount) error

	// Credit creates native funds in an account. Deposits from outside
	// the system arrive through this entry point.
	Credit(ctx context.Context, account string, amt amount.Amount) error
}
