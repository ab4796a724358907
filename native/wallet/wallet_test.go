package wallet

import (
	"errors"
	"math/big"
	"testing"

	"creditledger/native/token"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testID(fill byte) [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = fill
	}
	return id
}

func TestDeriveAddressIsDeterministic(t *testing.T) {
	first := DeriveAddress(testID(0x01))
	second := DeriveAddress(testID(0x01))
	if first != second {
		t.Fatalf("expected stable derivation, got %x and %x", first, second)
	}
	other := DeriveAddress(testID(0x02))
	if other == first {
		t.Fatalf("expected distinct identifiers to derive distinct addresses")
	}
	if first == (testAddr(0x00)) {
		t.Fatalf("derived a zero address")
	}
}

func TestFactoryCreateAndAttachAgree(t *testing.T) {
	ledger := token.NewLedger()
	controller := testAddr(0xCC)
	factory := NewDeterministicFactory(ledger, controller)

	created, err := factory.Create(testID(0x01))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	attached := factory.Attach(testID(0x01), created.Address())
	if created.Address() != attached.Address() {
		t.Fatalf("attach produced a different address: %x vs %x", created.Address(), attached.Address())
	}
	if created.Identifier() != testID(0x01) {
		t.Fatalf("unexpected identifier %x", created.Identifier())
	}
}

func TestTransferToMovesBalance(t *testing.T) {
	ledger := token.NewLedger()
	factory := NewDeterministicFactory(ledger, testAddr(0xCC))
	sender, _ := factory.Create(testID(0x01))
	receiver, _ := factory.Create(testID(0x02))

	if err := ledger.Mint(sender.Address(), big.NewInt(100)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := sender.TransferTo(receiver, big.NewInt(60)); err != nil {
		t.Fatalf("TransferTo: %v", err)
	}
	if sender.AvailableBalance().Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected sender balance 40, got %s", sender.AvailableBalance())
	}
	if receiver.AvailableBalance().Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected receiver balance 60, got %s", receiver.AvailableBalance())
	}
	if err := sender.TransferTo(receiver, big.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := sender.TransferTo(receiver, big.NewInt(0)); !errors.Is(err, token.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestWithdrawMovesToController(t *testing.T) {
	ledger := token.NewLedger()
	controller := testAddr(0xCC)
	factory := NewDeterministicFactory(ledger, controller)
	w, _ := factory.Create(testID(0x01))

	if err := ledger.Mint(w.Address(), big.NewInt(100)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := w.Withdraw(big.NewInt(70)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if ledger.BalanceOf(controller).Cmp(big.NewInt(70)) != 0 {
		t.Fatalf("expected controller custody 70, got %s", ledger.BalanceOf(controller))
	}
	if w.AvailableBalance().Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("expected remainder 30, got %s", w.AvailableBalance())
	}
	if err := w.Withdraw(big.NewInt(31)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransferControllerHandover(t *testing.T) {
	ledger := token.NewLedger()
	oldController := testAddr(0xCC)
	newController := testAddr(0xDD)
	w := NewTokenWallet(testID(0x01), DeriveAddress(testID(0x01)), oldController, ledger)

	if err := w.TransferController(newController, newController); !errors.Is(err, ErrNotController) {
		t.Fatalf("expected ErrNotController, got %v", err)
	}
	if err := w.TransferController(oldController, newController); err != nil {
		t.Fatalf("TransferController: %v", err)
	}
	// Withdrawals now land in the new controller's custody.
	if err := ledger.Mint(w.Address(), big.NewInt(10)); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := w.Withdraw(big.NewInt(10)); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if ledger.BalanceOf(newController).Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected new controller custody, got %s", ledger.BalanceOf(newController))
	}
	if ledger.BalanceOf(oldController).Sign() != 0 {
		t.Fatalf("expected old controller untouched")
	}
}

func TestUpgradeImplementationRegistry(t *testing.T) {
	factory := NewDeterministicFactory(token.NewLedger(), testAddr(0xCC))
	walletAddr := DeriveAddress(testID(0x01))
	if _, ok := factory.Implementation(walletAddr); ok {
		t.Fatalf("expected no implementation recorded yet")
	}
	if err := factory.UpgradeImplementation(walletAddr, testAddr(0xE1)); err != nil {
		t.Fatalf("UpgradeImplementation: %v", err)
	}
	impl, ok := factory.Implementation(walletAddr)
	if !ok || impl != testAddr(0xE1) {
		t.Fatalf("expected implementation 0xE1.., got %x ok=%v", impl, ok)
	}
}
