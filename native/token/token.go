package token

import (
	"errors"
	"math/big"
	"sync"
)

var (
	ErrInvalidAmount         = errors.New("token: amount must be positive")
	ErrInsufficientBalance   = errors.New("token: insufficient balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
)

// Token is the fungible value-transfer primitive the ledger engines consume.
// Implementations must fail with an error on any balance or allowance
// shortfall; a silent no-op would break conservation accounting upstream.
type Token interface {
	Mint(to [20]byte, amount *big.Int) error
	Burn(from [20]byte, amount *big.Int) error
	Transfer(from, to [20]byte, amount *big.Int) error
	TransferFrom(spender, from, to [20]byte, amount *big.Int) error
	Approve(owner, spender [20]byte, amount *big.Int) error
	Allowance(owner, spender [20]byte) *big.Int
	BalanceOf(addr [20]byte) *big.Int
	TotalSupply() *big.Int
}

type allowanceKey struct {
	owner   [20]byte
	spender [20]byte
}

// Ledger is the reference in-process Token implementation. It is the
// authoritative total-supply ledger: every wallet balance and the controller's
// own custody are rows in this ledger, so the conservation invariant reduces
// to totalSupply bookkeeping here.
type Ledger struct {
	mu         sync.RWMutex
	balances   map[[20]byte]*big.Int
	allowances map[allowanceKey]*big.Int
	supply     *big.Int
}

// NewLedger creates an empty ledger with zero total supply.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[[20]byte]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		supply:     big.NewInt(0),
	}
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (l *Ledger) balance(addr [20]byte) *big.Int {
	if bal, ok := l.balances[addr]; ok {
		return bal
	}
	bal := big.NewInt(0)
	l.balances[addr] = bal
	return bal
}

// Mint credits freshly created supply to the recipient.
func (l *Ledger) Mint(to [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balance(to)
	l.balances[to] = new(big.Int).Add(bal, amount)
	l.supply = new(big.Int).Add(l.supply, amount)
	return nil
}

// Burn destroys supply held by the given address.
func (l *Ledger) Burn(from [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balance(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(big.Int).Sub(bal, amount)
	l.supply = new(big.Int).Sub(l.supply, amount)
	return nil
}

// Transfer moves value between two addresses.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *Ledger) move(from, to [20]byte, amount *big.Int) error {
	fromBal := l.balance(from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBal := l.balance(to)
	l.balances[from] = new(big.Int).Sub(fromBal, amount)
	l.balances[to] = new(big.Int).Add(toBal, amount)
	return nil
}

// TransferFrom moves value on behalf of a spender, consuming allowance first.
func (l *Ledger) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if spender != from {
		key := allowanceKey{owner: from, spender: spender}
		allowed, ok := l.allowances[key]
		if !ok || allowed.Cmp(amount) < 0 {
			return ErrInsufficientAllowance
		}
		l.allowances[key] = new(big.Int).Sub(allowed, amount)
	}
	return l.move(from, to, amount)
}

// Approve sets the spender's allowance over the owner's balance. A zero or
// negative amount clears the allowance.
func (l *Ledger) Approve(owner, spender [20]byte, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := allowanceKey{owner: owner, spender: spender}
	if amount == nil || amount.Sign() <= 0 {
		delete(l.allowances, key)
		return nil
	}
	l.allowances[key] = new(big.Int).Set(amount)
	return nil
}

// Allowance returns the remaining allowance for the owner/spender pair.
func (l *Ledger) Allowance(owner, spender [20]byte) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if allowed, ok := l.allowances[allowanceKey{owner: owner, spender: spender}]; ok {
		return new(big.Int).Set(allowed)
	}
	return big.NewInt(0)
}

// BalanceOf returns the balance held by the address.
func (l *Ledger) BalanceOf(addr [20]byte) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if bal, ok := l.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// TotalSupply returns the current minted-minus-burned supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}
