package controller

import (
	"errors"
	"math/big"

	"creditledger/core/events"
	"creditledger/native/wallet"
)

var errOwnershipUnsupported = errors.New("controller: role backend does not support ownership transfer")

type ownership interface {
	SetOwner(addr [20]byte)
}

// SetWalletFactory replaces the factory used for new registrations. Existing
// registry entries are unaffected; they rebind through the new factory on the
// next resolution.
func (e *Engine) SetWalletFactory(caller [20]byte, f wallet.Factory) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if f == nil {
		return errNilFactory
	}
	e.mu.Lock()
	e.factory = f
	e.mu.Unlock()
	e.emit(events.FactoryUpdated{})
	return nil
}

// SetTreasury updates the redemption fee beneficiary.
func (e *Engine) SetTreasury(caller, treasury [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	e.mu.Lock()
	e.treasury = treasury
	e.mu.Unlock()
	return nil
}

// SetCommunityWallet designates the registered identifier receiving round-up
// transfers.
func (e *Engine) SetCommunityWallet(caller [20]byte, id [32]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	if _, err := e.resolve(id); err != nil {
		return err
	}
	e.mu.Lock()
	e.communityID = id
	e.hasCommunity = true
	e.mu.Unlock()
	return nil
}

// SetRedemptionFee updates the fee ratio applied at withdrawal time.
func (e *Engine) SetRedemptionFee(caller [20]byte, numerator, denominator *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if numerator == nil || denominator == nil || numerator.Sign() < 0 || denominator.Sign() <= 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	e.policy.Numerator = new(big.Int).Set(numerator)
	e.policy.Denominator = new(big.Int).Set(denominator)
	e.mu.Unlock()
	return nil
}

// SetRedemptionFeeMinimum updates the fee floor applied at withdrawal time.
func (e *Engine) SetRedemptionFeeMinimum(caller [20]byte, minimum *big.Int) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if minimum == nil || minimum.Sign() < 0 {
		return ErrInvalidAmount
	}
	e.mu.Lock()
	e.policy.MinimumFee = new(big.Int).Set(minimum)
	e.mu.Unlock()
	return nil
}

// Pause gates all value-moving operations until Unpause.
func (e *Engine) Pause(caller [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.state == nil {
		return errNilState
	}
	if err := e.lock.Enter(); err != nil {
		return err
	}
	defer e.lock.Exit()
	return e.state.SetPaused(moduleName, true)
}

// Unpause lifts the pause gate.
func (e *Engine) Unpause(caller [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.state == nil {
		return errNilState
	}
	if err := e.lock.Enter(); err != nil {
		return err
	}
	defer e.lock.Exit()
	return e.state.SetPaused(moduleName, false)
}

// TransferOwnership reassigns the engine owner when the role backend
// supports it.
func (e *Engine) TransferOwnership(caller, newOwner [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	backend, ok := e.roles.(ownership)
	if !ok {
		return errOwnershipUnsupported
	}
	backend.SetOwner(newOwner)
	return nil
}

// TransferWalletController hands a single wallet's control to another
// orchestrator address.
func (e *Engine) TransferWalletController(caller [20]byte, id [32]byte, newController [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	w, err := e.resolve(id)
	if err != nil {
		return err
	}
	return w.TransferController(e.custody, newController)
}

// UpgradeWalletImplementations points every registered wallet at a new logic
// implementation. The walk covers the full registry and is unbounded in the
// registry size; operators should schedule it accordingly.
func (e *Engine) UpgradeWalletImplementations(caller [20]byte, implementation [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if err := e.ready(); err != nil {
		return err
	}
	count, err := e.state.WalletCount()
	if err != nil {
		return err
	}
	factory := e.walletFactory()
	for i := uint64(0); i < count; i++ {
		_, addr, err := e.state.WalletAt(i)
		if err != nil {
			return err
		}
		if err := factory.UpgradeImplementation(addr, implementation); err != nil {
			return err
		}
	}
	return nil
}

// EmergencyWithdraw sweeps the controller's own custody balance to the owner.
// Only permitted while paused.
func (e *Engine) EmergencyWithdraw(caller [20]byte) error {
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	if e.token == nil {
		return errNilToken
	}
	if e.pauses == nil || !e.pauses.IsPaused(moduleName) {
		return ErrNotPaused
	}
	if err := e.lock.Enter(); err != nil {
		return err
	}
	defer e.lock.Exit()
	balance := e.token.BalanceOf(e.custody)
	if balance.Sign() == 0 {
		return nil
	}
	return e.token.Transfer(e.custody, caller, balance)
}
