package credit

import "errors"

var (
	errNilState            = errors.New("credit: state not configured")
	errNilManager          = errors.New("credit: credit manager not configured")
	errNilToken            = errors.New("credit: collateral token not configured")
	ErrInvalidAmount       = errors.New("credit: amount must be positive")
	ErrNotNetwork          = errors.New("credit: caller is not an authorized network")
	ErrNotOperator         = errors.New("credit: caller is not an operator")
	ErrTransferNotApproved = errors.New("credit: member has not approved the fee transfer")
	ErrCreditLineExpired   = errors.New("credit: credit line expired for transaction size")
	ErrPercentOutOfRange   = errors.New("credit: fee percent exceeds MAX_PPM")
	ErrBatchTooLarge       = errors.New("credit: distribution batch exceeds configured maximum")
)
