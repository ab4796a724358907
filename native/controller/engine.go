package controller

import (
	"math/big"
	"sync"

	"creditledger/core/events"
	nativecommon "creditledger/native/common"
	"creditledger/native/token"
	"creditledger/native/wallet"
)

const moduleName = "controller"

// engineState is the keyed registry store behind the controller. The
// controller is the sole writer; identifier entries are append-only.
type engineState interface {
	WalletPut(id [32]byte, addr [20]byte) error
	WalletGet(id [32]byte) ([20]byte, bool, error)
	WalletCount() (uint64, error)
	WalletAt(index uint64) ([32]byte, [20]byte, error)
	SetPaused(module string, paused bool) error
}

type authorizer interface {
	IsOwner(addr [20]byte) bool
	IsOperator(addr [20]byte) bool
}

// Engine orchestrates the identifier registry and all value movement between
// wallets, the treasury, and the token supply.
type Engine struct {
	mu           sync.RWMutex
	lock         nativecommon.Lock
	state        engineState
	factory      wallet.Factory
	token        token.Token
	roles        authorizer
	emitter      events.Emitter
	pauses       nativecommon.PauseView
	custody      [20]byte
	treasury     [20]byte
	communityID  [32]byte
	hasCommunity bool
	policy       FeePolicy
}

// NewEngine constructs a controller engine holding custody at the supplied
// address and routing redemption fees to the treasury.
func NewEngine(custody, treasury [20]byte) *Engine {
	return &Engine{
		custody:  custody,
		treasury: treasury,
		emitter:  events.NoopEmitter{},
	}
}

// SetState wires the engine to the registry persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetFactory wires the wallet factory used for registration and rehydration.
func (e *Engine) SetFactory(f wallet.Factory) {
	e.mu.Lock()
	e.factory = f
	e.mu.Unlock()
}

// walletFactory snapshots the factory under the engine mutex; the factory is
// the one collaborator that can be swapped at runtime (SetWalletFactory), so
// readers must not touch the field directly.
func (e *Engine) walletFactory() wallet.Factory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.factory
}

// SetToken wires the value token ledger.
func (e *Engine) SetToken(t token.Token) { e.token = t }

// SetRoles wires the authorization predicates.
func (e *Engine) SetRoles(r authorizer) { e.roles = r }

// SetPauses wires the pause gate checked by every value-moving operation.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) requireOperator(caller [20]byte) error {
	if e.roles == nil || !e.roles.IsOperator(caller) {
		return ErrNotOperator
	}
	return nil
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if e.roles == nil || !e.roles.IsOwner(caller) {
		return ErrNotOwner
	}
	return nil
}

func (e *Engine) ready() error {
	if e.state == nil {
		return errNilState
	}
	if e.walletFactory() == nil {
		return errNilFactory
	}
	if e.token == nil {
		return errNilToken
	}
	return nil
}

func (e *Engine) resolve(id [32]byte) (wallet.Wallet, error) {
	addr, ok, err := e.state.WalletGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnknownIdentifier
	}
	return e.walletFactory().Attach(id, addr), nil
}

// Treasury returns the configured redemption fee beneficiary.
func (e *Engine) Treasury() [20]byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.treasury
}

// Custody returns the controller's own custody address.
func (e *Engine) Custody() [20]byte { return e.custody }

// Policy returns a copy of the current redemption fee policy.
func (e *Engine) Policy() FeePolicy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy.Clone()
}

// NewWallet registers an identifier and creates its wallet. Registration is
// one-way: an identifier can never be registered twice and never deleted.
func (e *Engine) NewWallet(caller [20]byte, id [32]byte) ([20]byte, error) {
	if err := e.requireOperator(caller); err != nil {
		return [20]byte{}, err
	}
	if err := e.ready(); err != nil {
		return [20]byte{}, err
	}
	if err := e.lock.Enter(); err != nil {
		return [20]byte{}, err
	}
	defer e.lock.Exit()
	_, exists, err := e.state.WalletGet(id)
	if err != nil {
		return [20]byte{}, err
	}
	if exists {
		return [20]byte{}, ErrAlreadyExists
	}
	w, err := e.walletFactory().Create(id)
	if err != nil || w == nil || w.Address() == ([20]byte{}) {
		return [20]byte{}, ErrWalletCreationFailed
	}
	addr := w.Address()
	if err := e.state.WalletPut(id, addr); err != nil {
		return [20]byte{}, err
	}
	e.emit(events.NewUser{ID: id, Wallet: addr})
	return addr, nil
}

// Transfer moves value between two registered identifiers, with an optional
// best-effort round-up leg to the community wallet. The returned flag is true
// only when every requested leg succeeded; a failed round-up degrades the
// flag without rolling back the primary leg.
func (e *Engine) Transfer(caller [20]byte, fromID, toID [32]byte, value, roundUp *big.Int, memo string) (bool, error) {
	if err := e.requireOperator(caller); err != nil {
		return false, err
	}
	to, err := e.resolveChecked(toID)
	if err != nil {
		return false, err
	}
	return e.transfer(fromID, to.Address(), to, value, roundUp, memo)
}

// TransferToAddress moves value from a registered identifier to a raw token
// address outside the registry.
func (e *Engine) TransferToAddress(caller [20]byte, fromID [32]byte, to [20]byte, value, roundUp *big.Int, memo string) (bool, error) {
	if err := e.requireOperator(caller); err != nil {
		return false, err
	}
	return e.transfer(fromID, to, nil, value, roundUp, memo)
}

func (e *Engine) resolveChecked(id [32]byte) (wallet.Wallet, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.resolve(id)
}

func (e *Engine) transfer(fromID [32]byte, toAddr [20]byte, toWallet wallet.Wallet, value, roundUp *big.Int, memo string) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return false, err
	}
	if value == nil || value.Sign() <= 0 {
		return false, ErrInvalidAmount
	}
	if err := e.lock.Enter(); err != nil {
		return false, err
	}
	defer e.lock.Exit()
	from, err := e.resolve(fromID)
	if err != nil {
		return false, err
	}
	required := new(big.Int).Set(value)
	if roundUp != nil && roundUp.Sign() > 0 {
		required = required.Add(required, roundUp)
	}
	if from.AvailableBalance().Cmp(required) < 0 {
		return false, ErrInsufficientBalance
	}
	if toWallet != nil {
		if err := from.TransferTo(toWallet, value); err != nil {
			return false, err
		}
	} else {
		if err := e.token.Transfer(from.Address(), toAddr, value); err != nil {
			return false, err
		}
	}
	e.emit(events.Transfer{FromID: fromID, To: toAddr, Amount: value, Memo: memo})
	success := true
	if roundUp != nil && roundUp.Sign() > 0 {
		success = e.roundUpTransfer(from, fromID, roundUp)
	}
	return success, nil
}

// roundUpTransfer performs the secondary community leg. Failure here must not
// unwind the already-committed primary leg, so errors degrade the flag only.
func (e *Engine) roundUpTransfer(from wallet.Wallet, fromID [32]byte, amount *big.Int) bool {
	e.mu.RLock()
	communityID := e.communityID
	configured := e.hasCommunity
	e.mu.RUnlock()
	if !configured {
		return false
	}
	community, err := e.resolve(communityID)
	if err != nil {
		return false
	}
	if err := from.TransferTo(community, amount); err != nil {
		return false
	}
	e.emit(events.RoundUp{FromID: fromID, To: community.Address(), Amount: amount})
	return true
}

// Deposit mints value into a registered identifier's wallet, modelling an
// external fiat inflow. Total supply increases accordingly.
func (e *Engine) Deposit(caller [20]byte, id [32]byte, value *big.Int) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if value == nil || value.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := e.lock.Enter(); err != nil {
		return err
	}
	defer e.lock.Exit()
	w, err := e.resolve(id)
	if err != nil {
		return err
	}
	if err := e.token.Mint(w.Address(), value); err != nil {
		return err
	}
	e.emit(events.UserDeposit{ID: id, Operator: caller, Amount: value})
	return nil
}

// Withdraw pulls value out of a wallet into controller custody, routes the
// redemption fee to the treasury, and burns the remainder from supply. The
// fee is computed before any value moves so a misconfigured policy rejects
// the whole operation.
func (e *Engine) Withdraw(caller [20]byte, id [32]byte, value *big.Int) error {
	if err := e.requireOperator(caller); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if value == nil || value.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.RLock()
	policy := e.policy.Clone()
	treasury := e.treasury
	e.mu.RUnlock()
	if value.Cmp(policy.minimum()) <= 0 {
		return ErrWithdrawBelowMinimum
	}
	fee, err := RedemptionFee(value, policy)
	if err != nil {
		return err
	}
	if err := e.lock.Enter(); err != nil {
		return err
	}
	defer e.lock.Exit()
	w, err := e.resolve(id)
	if err != nil {
		return err
	}
	if err := w.Withdraw(value); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := e.token.Transfer(e.custody, treasury, fee); err != nil {
			return err
		}
		e.emit(events.RedemptionFee{Treasury: treasury, Amount: fee})
	}
	burn := new(big.Int).Sub(value, fee)
	if burn.Sign() > 0 {
		if err := e.token.Burn(e.custody, burn); err != nil {
			return err
		}
	}
	e.emit(events.UserWithdrawal{ID: id, Operator: caller, Amount: value})
	return nil
}

// BalanceOf returns the wallet balance for a registered identifier.
func (e *Engine) BalanceOf(id [32]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	w, err := e.resolve(id)
	if err != nil {
		return nil, err
	}
	return w.AvailableBalance(), nil
}

// BalanceOfAddress returns the token balance of a raw address.
func (e *Engine) BalanceOfAddress(addr [20]byte) (*big.Int, error) {
	if e.token == nil {
		return nil, errNilToken
	}
	return e.token.BalanceOf(addr), nil
}

// WalletAddress resolves an identifier to its registered wallet address.
func (e *Engine) WalletAddress(id [32]byte) ([20]byte, error) {
	if e.state == nil {
		return [20]byte{}, errNilState
	}
	addr, ok, err := e.state.WalletGet(id)
	if err != nil {
		return [20]byte{}, err
	}
	if !ok {
		return [20]byte{}, ErrUnknownIdentifier
	}
	return addr, nil
}

// WalletCount returns the number of registered identifiers.
func (e *Engine) WalletCount() (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	return e.state.WalletCount()
}

// WalletAt enumerates the registry by insertion index.
func (e *Engine) WalletAt(index uint64) ([32]byte, [20]byte, error) {
	if e.state == nil {
		return [32]byte{}, [20]byte{}, errNilState
	}
	return e.state.WalletAt(index)
}
