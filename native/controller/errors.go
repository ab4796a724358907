package controller

import "errors"

var (
	errNilState                = errors.New("controller: state not configured")
	errNilFactory              = errors.New("controller: wallet factory not configured")
	errNilToken                = errors.New("controller: value token not configured")
	ErrInvalidAmount           = errors.New("controller: amount must be positive")
	ErrAlreadyExists           = errors.New("controller: identifier already registered")
	ErrUnknownIdentifier       = errors.New("controller: identifier not registered")
	ErrWalletCreationFailed    = errors.New("controller: wallet creation failed")
	ErrInsufficientBalance     = errors.New("controller: insufficient wallet balance")
	ErrWithdrawBelowMinimum    = errors.New("controller: withdrawal must exceed the minimum redemption fee")
	ErrInvalidFeeConfiguration = errors.New("controller: redemption fee exceeds withdrawal amount")
	ErrNotOwner                = errors.New("controller: caller is not the owner")
	ErrNotOperator             = errors.New("controller: caller is not an operator")
	ErrNotPaused               = errors.New("controller: not paused")
)
