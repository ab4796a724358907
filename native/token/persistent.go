package token

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"creditledger/storage"
)

const (
	balancePrefix   = "token/balance/"
	allowancePrefix = "token/allowance/"
	supplyKey       = "token/supply"
)

// PersistentLedger is a Token implementation whose rows live in the keyed
// store, so balances, allowances, and total supply survive restarts alongside
// the wallet registry and fee accruals. The full state is hydrated once at
// construction; reads are answered from memory and every mutation writes
// through before it is committed to the in-memory view.
type PersistentLedger struct {
	mu         sync.RWMutex
	db         storage.Database
	balances   map[[20]byte]*big.Int
	allowances map[allowanceKey]*big.Int
	supply     *big.Int
}

// NewPersistentLedger hydrates a ledger from the store. An empty store yields
// an empty ledger with zero supply.
func NewPersistentLedger(db storage.Database) (*PersistentLedger, error) {
	l := &PersistentLedger{
		db:         db,
		balances:   make(map[[20]byte]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		supply:     big.NewInt(0),
	}
	if err := l.hydrate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *PersistentLedger) hydrate() error {
	if err := l.db.IteratePrefix([]byte(balancePrefix), func(key, value []byte) error {
		addr, err := decodeAddressKey(string(key[len(balancePrefix):]))
		if err != nil {
			return err
		}
		amount, err := decodeAmount(value)
		if err != nil {
			return err
		}
		l.balances[addr] = amount
		return nil
	}); err != nil {
		return err
	}
	if err := l.db.IteratePrefix([]byte(allowancePrefix), func(key, value []byte) error {
		parts := strings.SplitN(string(key[len(allowancePrefix):]), "/", 2)
		if len(parts) != 2 {
			return fmt.Errorf("token: corrupt allowance key %q", key)
		}
		owner, err := decodeAddressKey(parts[0])
		if err != nil {
			return err
		}
		spender, err := decodeAddressKey(parts[1])
		if err != nil {
			return err
		}
		amount, err := decodeAmount(value)
		if err != nil {
			return err
		}
		l.allowances[allowanceKey{owner: owner, spender: spender}] = amount
		return nil
	}); err != nil {
		return err
	}
	blob, err := l.db.Get([]byte(supplyKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	supply, err := decodeAmount(blob)
	if err != nil {
		return err
	}
	l.supply = supply
	return nil
}

func decodeAddressKey(raw string) ([20]byte, error) {
	var addr [20]byte
	decoded, err := hex.DecodeString(raw)
	if err != nil || len(decoded) != len(addr) {
		return addr, fmt.Errorf("token: corrupt address key %q", raw)
	}
	copy(addr[:], decoded)
	return addr, nil
}

func decodeAmount(blob []byte) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(string(blob), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("token: corrupt amount record %q", blob)
	}
	return amount, nil
}

func balanceDBKey(addr [20]byte) []byte {
	return []byte(balancePrefix + hex.EncodeToString(addr[:]))
}

func allowanceDBKey(key allowanceKey) []byte {
	return []byte(allowancePrefix + hex.EncodeToString(key.owner[:]) + "/" + hex.EncodeToString(key.spender[:]))
}

// writeAmount persists an amount row; zero deletes the key so the store never
// accumulates empty rows.
func (l *PersistentLedger) writeAmount(key []byte, amount *big.Int) error {
	if amount.Sign() == 0 {
		return l.db.Delete(key)
	}
	return l.db.Put(key, []byte(amount.String()))
}

func (l *PersistentLedger) balance(addr [20]byte) *big.Int {
	if bal, ok := l.balances[addr]; ok {
		return bal
	}
	return big.NewInt(0)
}

func (l *PersistentLedger) move(from, to [20]byte, amount *big.Int) error {
	fromBal := l.balance(from)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	newFrom := new(big.Int).Sub(fromBal, amount)
	newTo := new(big.Int).Add(l.balance(to), amount)
	if err := l.writeAmount(balanceDBKey(from), newFrom); err != nil {
		return err
	}
	if err := l.writeAmount(balanceDBKey(to), newTo); err != nil {
		return err
	}
	l.balances[from] = newFrom
	l.balances[to] = newTo
	return nil
}

// Mint credits freshly created supply to the recipient.
func (l *PersistentLedger) Mint(to [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	newBal := new(big.Int).Add(l.balance(to), amount)
	newSupply := new(big.Int).Add(l.supply, amount)
	if err := l.writeAmount(balanceDBKey(to), newBal); err != nil {
		return err
	}
	if err := l.writeAmount([]byte(supplyKey), newSupply); err != nil {
		return err
	}
	l.balances[to] = newBal
	l.supply = newSupply
	return nil
}

// Burn destroys supply held by the given address.
func (l *PersistentLedger) Burn(from [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balance(from)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	newBal := new(big.Int).Sub(bal, amount)
	newSupply := new(big.Int).Sub(l.supply, amount)
	if err := l.writeAmount(balanceDBKey(from), newBal); err != nil {
		return err
	}
	if err := l.writeAmount([]byte(supplyKey), newSupply); err != nil {
		return err
	}
	l.balances[from] = newBal
	l.supply = newSupply
	return nil
}

// Transfer moves value between two addresses.
func (l *PersistentLedger) Transfer(from, to [20]byte, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves value on behalf of a spender, consuming allowance first.
func (l *PersistentLedger) TransferFrom(spender, from, to [20]byte, amount *big.Int) error {
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
		remaining := new(big.Int).Sub(allowed, amount)
		if err := l.writeAmount(allowanceDBKey(key), remaining); err != nil {
			return err
		}
		if remaining.Sign() == 0 {
			delete(l.allowances, key)
		} else {
			l.allowances[key] = remaining
		}
	}
	return l.move(from, to, amount)
}

// Approve sets the spender's allowance over the owner's balance. A zero or
// negative amount clears the allowance.
func (l *PersistentLedger) Approve(owner, spender [20]byte, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := allowanceKey{owner: owner, spender: spender}
	if amount == nil || amount.Sign() <= 0 {
		if err := l.db.Delete(allowanceDBKey(key)); err != nil {
			return err
		}
		delete(l.allowances, key)
		return nil
	}
	stored := new(big.Int).Set(amount)
	if err := l.db.Put(allowanceDBKey(key), []byte(stored.String())); err != nil {
		return err
	}
	l.allowances[key] = stored
	return nil
}

// Allowance returns the remaining allowance for the owner/spender pair.
func (l *PersistentLedger) Allowance(owner, spender [20]byte) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if allowed, ok := l.allowances[allowanceKey{owner: owner, spender: spender}]; ok {
		return new(big.Int).Set(allowed)
	}
	return big.NewInt(0)
}

// BalanceOf returns the balance held by the address.
func (l *PersistentLedger) BalanceOf(addr [20]byte) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.balance(addr))
}

// TotalSupply returns the current minted-minus-burned supply.
func (l *PersistentLedger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}
