package token

import (
	"errors"
	"math/big"
	"testing"

	"creditledger/storage"
)

func newPersistent(t *testing.T, db storage.Database) *PersistentLedger {
	t.Helper()
	ledger, err := NewPersistentLedger(db)
	if err != nil {
		t.Fatalf("NewPersistentLedger: %v", err)
	}
	return ledger
}

func TestPersistentLedgerSurvivesReopen(t *testing.T) {
	db := storage.NewMemDB()
	ledger := newPersistent(t, db)
	alice, bob, spender := acct(0x01), acct(0x02), acct(0x03)

	if err := ledger.Mint(alice, big.NewInt(1_000)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(400)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if err := ledger.Approve(alice, spender, big.NewInt(250)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := ledger.TransferFrom(spender, alice, bob, big.NewInt(50)); err != nil {
		t.Fatalf("TransferFrom: %v", err)
	}
	if err := ledger.Burn(bob, big.NewInt(100)); err != nil {
		t.Fatalf("Burn: %v", err)
	}

	reopened := newPersistent(t, db)
	if got := reopened.BalanceOf(alice); got.Cmp(big.NewInt(550)) != 0 {
		t.Fatalf("expected alice balance 550 after reload, got %s", got)
	}
	if got := reopened.BalanceOf(bob); got.Cmp(big.NewInt(350)) != 0 {
		t.Fatalf("expected bob balance 350 after reload, got %s", got)
	}
	if got := reopened.Allowance(alice, spender); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("expected allowance 200 after reload, got %s", got)
	}
	if got := reopened.TotalSupply(); got.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("expected supply 900 after reload, got %s", got)
	}
}

func TestPersistentLedgerEnforcesShortfalls(t *testing.T) {
	ledger := newPersistent(t, storage.NewMemDB())
	alice, bob, spender := acct(0x01), acct(0x02), acct(0x03)

	if err := ledger.Transfer(alice, bob, big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := ledger.Mint(alice, big.NewInt(10)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ledger.TransferFrom(spender, alice, bob, big.NewInt(1)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected ErrInsufficientAllowance, got %v", err)
	}
	if err := ledger.Burn(alice, big.NewInt(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance on burn, got %v", err)
	}
	if err := ledger.Mint(alice, nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestPersistentLedgerClearsZeroRows(t *testing.T) {
	db := storage.NewMemDB()
	ledger := newPersistent(t, db)
	alice, bob := acct(0x01), acct(0x02)

	if err := ledger.Mint(alice, big.NewInt(5)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := ledger.Transfer(alice, bob, big.NewInt(5)); err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if has, _ := db.Has(balanceDBKey(alice)); has {
		t.Fatalf("expected empty balance row to be deleted")
	}

	key := allowanceKey{owner: alice, spender: bob}
	if err := ledger.Approve(alice, bob, big.NewInt(7)); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if err := ledger.Approve(alice, bob, nil); err != nil {
		t.Fatalf("Approve clear: %v", err)
	}
	if has, _ := db.Has(allowanceDBKey(key)); has {
		t.Fatalf("expected cleared allowance row to be deleted")
	}
}
