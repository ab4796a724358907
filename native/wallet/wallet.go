package wallet

import (
	"errors"
	"math/big"
	"sync"

	"creditledger/native/token"
)

var (
	ErrInsufficientBalance = errors.New("wallet: insufficient balance")
	ErrNotController       = errors.New("wallet: caller is not the controller")
)

// Wallet is the per-identifier value custody primitive. Value only moves at
// the direction of the wallet's controller; the interface is deliberately
// narrow so test doubles can stand in for the real custody type.
type Wallet interface {
	Identifier() [32]byte
	Address() [20]byte
	AvailableBalance() *big.Int
	TransferTo(other Wallet, amount *big.Int) error
	Withdraw(amount *big.Int) error
	TransferController(caller, newController [20]byte) error
}

// TokenWallet holds a balance row in the value token ledger on behalf of one
// registered identifier.
type TokenWallet struct {
	mu         sync.RWMutex
	id         [32]byte
	addr       [20]byte
	controller [20]byte
	token      token.Token
}

// NewTokenWallet binds a wallet to its token ledger and controlling address.
func NewTokenWallet(id [32]byte, addr, controller [20]byte, tok token.Token) *TokenWallet {
	return &TokenWallet{id: id, addr: addr, controller: controller, token: tok}
}

// Identifier returns the registered identifier this wallet belongs to.
func (w *TokenWallet) Identifier() [32]byte { return w.id }

// Address returns the wallet's ledger address.
func (w *TokenWallet) Address() [20]byte { return w.addr }

// AvailableBalance returns the wallet's current token balance.
func (w *TokenWallet) AvailableBalance() *big.Int {
	return w.token.BalanceOf(w.addr)
}

// TransferTo atomically debits this wallet and credits the other.
func (w *TokenWallet) TransferTo(other Wallet, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return token.ErrInvalidAmount
	}
	if w.AvailableBalance().Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if err := w.token.Transfer(w.addr, other.Address(), amount); err != nil {
		return err
	}
	return nil
}

// Withdraw moves value out of the wallet into the controller's own custody.
// Used exclusively by the controller's withdraw flow.
func (w *TokenWallet) Withdraw(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return token.ErrInvalidAmount
	}
	if w.AvailableBalance().Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	w.mu.RLock()
	controller := w.controller
	w.mu.RUnlock()
	return w.token.Transfer(w.addr, controller, amount)
}

// TransferController reassigns which address may direct this wallet's funds.
// Only the current controller may hand over control.
func (w *TokenWallet) TransferController(caller, newController [20]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if caller != w.controller {
		return ErrNotController
	}
	w.controller = newController
	return nil
}
