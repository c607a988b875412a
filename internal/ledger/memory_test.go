package ledger

import (
	"context"
	"testing"

	"github.com/curvemkt/curved/internal/core/amount"
	"github.com/curvemkt/curved/internal/core/assetid"
)

func TestMemoryTokens(t *testing.T) {
	ctx := context.Background()
	tokens := NewMemoryTokens()
	asset := assetid.Derive("alice", "MOON", 1)

	if err := tokens.Mint(ctx, asset, "vault", amount.FromWhole(100)); err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if err := tokens.Transfer(ctx, asset, "vault", "bob", amount.FromWhole(30)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	got, _ := tokens.BalanceOf(ctx, asset, "bob")
	if got.Cmp(amount.FromWhole(30)) != 0 {
		t.Errorf("bob balance = %s, want 30 tokens", got)
	}

	// Overdraft rejected, balances untouched.
	if err := tokens.Transfer(ctx, asset, "bob", "vault", amount.FromWhole(31)); err != ErrInsufficientBalance {
		t.Errorf("overdraft: got err %v, want ErrInsufficientBalance", err)
	}
	got, _ = tokens.BalanceOf(ctx, asset, "bob")
	if got.Cmp(amount.FromWhole(30)) != 0 {
		t.Errorf("bob balance changed on failed transfer: %s", got)
	}

	if err := tokens.Burn(ctx, asset, "vault", amount.FromWhole(70)); err != nil {
		t.Fatalf("Burn: %v", err)
	}
	got, _ = tokens.BalanceOf(ctx, asset, "vault")
	if !got.IsZero() {
		t.Errorf("vault balance after burn = %s, want 0", got)
	}

	if err := tokens.Burn(ctx, asset, "vault", amount.FromWhole(1)); err != ErrInsufficientBalance {
		t.Errorf("over-burn: got err %v, want ErrInsufficientBalance", err)
	}
}

func TestMemoryTokensUnknownAsset(t *testing.T) {
	ctx := context.Background()
	tokens := NewMemoryTokens()
	asset := assetid.Derive("alice", "MOON", 1)

	if err := tokens.Transfer(ctx, asset, "a", "b", amount.FromWhole(1)); err != ErrUnknownAsset {
		t.Errorf("transfer on unknown asset: got %v, want ErrUnknownAsset", err)
	}

	got, err := tokens.BalanceOf(ctx, asset, "a")
	if err != nil || !got.IsZero() {
		t.Errorf("BalanceOf unknown asset = %s, %v; want 0, nil", got, err)
	}
}

func TestMemoryNative(t *testing.T) {
	ctx := context.Background()
	native := NewMemoryNative()

	if err := native.Credit(ctx, "alice", amount.FromUint64(1000)); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if err := native.Transfer(ctx, "alice", "bob", amount.FromUint64(400)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	a, _ := native.BalanceOf(ctx, "alice")
	b, _ := native.BalanceOf(ctx, "bob")
	if a.Cmp(amount.FromUint64(600)) != 0 || b.Cmp(amount.FromUint64(400)) != 0 {
		t.Errorf("balances = %s/%s, want 600/400", a, b)
	}

	if err := native.Transfer(ctx, "bob", "alice", amount.FromUint64(401)); err != ErrInsufficientBalance {
		t.Errorf("overdraft: got err %v, want ErrInsufficientBalance", err)
	}
}

func TestTransferHookFires(t *testing.T) {
	ctx := context.Background()
	native := NewMemoryNative()
	native.Credit(ctx, "alice", amount.FromUint64(10))

	var fired bool
	native.SetTransferHook(func(from, to string, amt amount.Amount) {
		fired = true
	})

	if err := native.Transfer(ctx, "alice", "bob", amount.FromUint64(1)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if !fired {
		t.Error("transfer hook did not fire")
	}
}
