// Package credit implements the fee accrual and distribution subsystem for
// collateral-backed credit lines. Networks pull a parts-per-million fee from
// member transactions into per-(network, member) accrual buckets; a
// permissionless distribution pass later zeroes each bucket and routes it to
// the underwriter backing the member's credit line, staking into the credit
// pool first whenever the pool's loan-to-value has fallen below the required
// minimum.
package credit

import "math/big"

// MaxPPM is one hundred percent expressed in parts per million.
const MaxPPM = 1_000_000

// CreditLine describes the credit extended to a member on a network. The
// credit manager owns these records; this package only reads them.
type CreditLine struct {
	Pool        [20]byte
	IssueDate   int64
	CreditLimit *big.Int
}

// Manager exposes the credit-line registry and collateral math the fee
// manager depends on.
type Manager interface {
	CalculatePercentInCollateral(network [20]byte, ppm uint32, amount *big.Int) *big.Int
	CreditLine(network, member [20]byte) (CreditLine, bool)
	CreditLineUnderwriter(network, member [20]byte) ([20]byte, bool)
	IsPoolValidLTV(network, pool [20]byte) bool
	NeededCollateral(network, member [20]byte) *big.Int
}

// Request verifies credit line freshness for a transaction. Implementations
// return an error when the line has expired for the given size.
type Request interface {
	VerifyCreditLineExpiration(network, member [20]byte, transactionValue *big.Int) error
}

// Pool holds underwriter collateral stakes. Stake and reward amounts are
// pulled from the fee manager's custody via a standing allowance granted by
// ApproveCreditPool.
type Pool interface {
	Address() [20]byte
	StakeFor(staker [20]byte, amount *big.Int) error
	NotifyRewardAmount(amount *big.Int) error
	BalanceOf(account [20]byte) *big.Int
	TotalSupply() *big.Int
}

// PercentOf computes floor(amount * ppm / MaxPPM).
func PercentOf(amount *big.Int, ppm uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 || ppm == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, big.NewInt(int64(ppm)))
	return out.Div(out, big.NewInt(MaxPPM))
}
