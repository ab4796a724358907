package events

import (
	"math/big"

	"creditledger/core/types"
)

const (
	TypeNewUser        = "ledger.user.created"
	TypeUserDeposit    = "ledger.user.deposit"
	TypeUserWithdrawal = "ledger.user.withdrawal"
	TypeTransfer       = "ledger.transfer"
	TypeTransferMemo   = "ledger.transfer.memo"
	TypeRoundUp        = "ledger.roundup"
	TypeRedemptionFee  = "ledger.redemption_fee"
	TypeFactoryUpdated = "ledger.factory.updated"
)

// FactoryUpdated is emitted when the owner swaps the wallet factory.
type FactoryUpdated struct{}

func (FactoryUpdated) EventType() string { return TypeFactoryUpdated }

func (FactoryUpdated) Event() *types.Event {
	return &types.Event{Type: TypeFactoryUpdated, Attributes: map[string]string{}}
}

// NewUser is emitted when an identifier is registered and its wallet created.
type NewUser struct {
	ID     [32]byte
	Wallet [20]byte
}

func (NewUser) EventType() string { return TypeNewUser }

func (e NewUser) Event() *types.Event {
	return &types.Event{
		Type: TypeNewUser,
		Attributes: map[string]string{
			"id":     formatIdentifier(e.ID),
			"wallet": formatAddress(e.Wallet),
		},
	}
}

// UserDeposit is emitted when value is minted into a user wallet against an
// external fiat inflow.
type UserDeposit struct {
	ID       [32]byte
	Operator [20]byte
	Amount   *big.Int
}

func (UserDeposit) EventType() string { return TypeUserDeposit }

func (e UserDeposit) Event() *types.Event {
	return &types.Event{
		Type: TypeUserDeposit,
		Attributes: map[string]string{
			"id":       formatIdentifier(e.ID),
			"operator": formatAddress(e.Operator),
			"amount":   formatAmount(e.Amount),
		},
	}
}

// UserWithdrawal is emitted when value leaves a user wallet for redemption.
type UserWithdrawal struct {
	ID       [32]byte
	Operator [20]byte
	Amount   *big.Int
}

func (UserWithdrawal) EventType() string { return TypeUserWithdrawal }

func (e UserWithdrawal) Event() *types.Event {
	return &types.Event{
		Type: TypeUserWithdrawal,
		Attributes: map[string]string{
			"id":       formatIdentifier(e.ID),
			"operator": formatAddress(e.Operator),
			"amount":   formatAmount(e.Amount),
		},
	}
}

// Transfer is emitted for the primary leg of a wallet-to-wallet transfer. The
// memo attribute is present only when the caller supplied one.
type Transfer struct {
	FromID [32]byte
	To     [20]byte
	Amount *big.Int
	Memo   string
}

func (e Transfer) EventType() string {
	if e.Memo != "" {
		return TypeTransferMemo
	}
	return TypeTransfer
}

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{
		"fromId": formatIdentifier(e.FromID),
		"to":     formatAddress(e.To),
		"amount": formatAmount(e.Amount),
	}
	if e.Memo != "" {
		attrs["memo"] = e.Memo
	}
	return &types.Event{Type: e.EventType(), Attributes: attrs}
}

// RoundUp is emitted when the secondary community-wallet leg of a transfer
// succeeds.
type RoundUp struct {
	FromID [32]byte
	To     [20]byte
	Amount *big.Int
}

func (RoundUp) EventType() string { return TypeRoundUp }

func (e RoundUp) Event() *types.Event {
	return &types.Event{
		Type: TypeRoundUp,
		Attributes: map[string]string{
			"fromId": formatIdentifier(e.FromID),
			"to":     formatAddress(e.To),
			"amount": formatAmount(e.Amount),
		},
	}
}

// RedemptionFee is emitted when a withdrawal routes its fee to the treasury.
type RedemptionFee struct {
	Treasury [20]byte
	Amount   *big.Int
}

func (RedemptionFee) EventType() string { return TypeRedemptionFee }

func (e RedemptionFee) Event() *types.Event {
	return &types.Event{
		Type: TypeRedemptionFee,
		Attributes: map[string]string{
			"treasury": formatAddress(e.Treasury),
			"amount":   formatAmount(e.Amount),
		},
	}
}
