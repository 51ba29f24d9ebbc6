package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func addr(b byte) common.Address {
	var a common.Address
	a[19] = b
	return a
}

func TestTransferMovesBalance(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	alice := addr(0xAA)
	bob := addr(0xBB)

	if err := ledger.Mint(dai, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(dai, alice, bob, big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.BalanceOf(dai, alice); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected alice balance 60, got %s", got)
	}
	if got := ledger.BalanceOf(dai, bob); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected bob balance 40, got %s", got)
	}
}

func TestTransferRejectsOverdraw(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	alice := addr(0xAA)
	bob := addr(0xBB)

	if err := ledger.Mint(dai, alice, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(dai, alice, bob, big.NewInt(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := ledger.BalanceOf(dai, alice); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected balance unchanged, got %s", got)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	owner := addr(0xAA)
	spender := addr(0xBB)
	sink := addr(0xCC)

	if err := ledger.Mint(dai, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TransferFrom(dai, spender, owner, sink, big.NewInt(5)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}

	if err := ledger.Approve(dai, owner, spender, big.NewInt(30)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom(dai, spender, owner, sink, big.NewInt(20)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if got := ledger.Allowance(dai, owner, spender); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected allowance 10, got %s", got)
	}
	if err := ledger.TransferFrom(dai, spender, owner, sink, big.NewInt(11)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
}

func TestTransferFromSelfSkipsAllowance(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	owner := addr(0xAA)
	sink := addr(0xCC)

	if err := ledger.Mint(dai, owner, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TransferFrom(dai, owner, owner, sink, big.NewInt(5)); err != nil {
		t.Fatalf("self transfer from: %v", err)
	}
}

func TestApproveZeroClearsAllowance(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	owner := addr(0xAA)
	spender := addr(0xBB)

	if err := ledger.Approve(dai, owner, spender, big.NewInt(30)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.Approve(dai, owner, spender, big.NewInt(0)); err != nil {
		t.Fatalf("clear approve: %v", err)
	}
	if got := ledger.Allowance(dai, owner, spender); got.Sign() != 0 {
		t.Fatalf("expected allowance cleared, got %s", got)
	}
}

func TestSnapshotRevertRestoresState(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	usds := addr(0x02)
	alice := addr(0xAA)
	bob := addr(0xBB)

	if err := ledger.Mint(dai, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(dai, alice, bob, big.NewInt(7)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	snap := ledger.Snapshot()

	if err := ledger.Transfer(dai, alice, bob, big.NewInt(99)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := ledger.Mint(usds, bob, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve(dai, alice, bob, big.NewInt(0)); err != nil {
		t.Fatalf("clear approve: %v", err)
	}

	ledger.Revert(snap)

	if got := ledger.BalanceOf(dai, alice); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected alice balance restored to 100, got %s", got)
	}
	if got := ledger.BalanceOf(usds, bob); got.Sign() != 0 {
		t.Fatalf("expected bob usds balance reverted, got %s", got)
	}
	if got := ledger.Allowance(dai, alice, bob); got.Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("expected allowance restored to 7, got %s", got)
	}
}

func TestBurn(t *testing.T) {
	ledger := NewLedger()
	dai := addr(0x01)
	alice := addr(0xAA)

	if err := ledger.Mint(dai, alice, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Burn(dai, alice, big.NewInt(4)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got := ledger.BalanceOf(dai, alice); got.Cmp(big.NewInt(6)) != 0 {
		t.Fatalf("expected balance 6, got %s", got)
	}
	if err := ledger.Burn(dai, alice, big.NewInt(7)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}
