package events

import (
	"math/big"

	"creditledger/core/types"
)

const (
	TypeFeesCollected       = "credit.fees.collected"
	TypePoolRewardsUpdated  = "credit.pool.rewards_updated"
	TypeUnderwriterStaked   = "credit.underwriter.rewards_staked"
	TypeUnderwriterFeePPMCh = "credit.fee_ppm.updated"
	TypeDistributionSkipped = "credit.distribution.skipped"
)

// FeesCollected is emitted when a network pulls a transaction fee from a
// member into the accrual bucket.
type FeesCollected struct {
	Network [20]byte
	Member  [20]byte
	Fee     *big.Int
}

func (FeesCollected) EventType() string { return TypeFeesCollected }

func (e FeesCollected) Event() *types.Event {
	return &types.Event{
		Type: TypeFeesCollected,
		Attributes: map[string]string{
			"network": formatAddress(e.Network),
			"member":  formatAddress(e.Member),
			"fee":     formatAmount(e.Fee),
		},
	}
}

// PoolRewardsUpdated is emitted when leftover distributed fees are forwarded
// to a credit pool as general rewards.
type PoolRewardsUpdated struct {
	Pool   [20]byte
	Amount *big.Int
}

func (PoolRewardsUpdated) EventType() string { return TypePoolRewardsUpdated }

func (e PoolRewardsUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypePoolRewardsUpdated,
		Attributes: map[string]string{
			"pool":   formatAddress(e.Pool),
			"amount": formatAmount(e.Amount),
		},
	}
}

// UnderwriterRewardsStaked is emitted when distributed fees are staked into a
// pool on an underwriter's behalf to cover a collateral shortfall.
type UnderwriterRewardsStaked struct {
	Underwriter [20]byte
	Amount      *big.Int
}

func (UnderwriterRewardsStaked) EventType() string { return TypeUnderwriterStaked }

func (e UnderwriterRewardsStaked) Event() *types.Event {
	return &types.Event{
		Type: TypeUnderwriterStaked,
		Attributes: map[string]string{
			"underwriter": formatAddress(e.Underwriter),
			"amount":      formatAmount(e.Amount),
		},
	}
}

// DistributionSkipped is emitted when a zeroed accrual bucket cannot be
// routed because the member's credit line points at an unregistered pool.
// The amount stays in custody.
type DistributionSkipped struct {
	Network [20]byte
	Member  [20]byte
	Pool    [20]byte
	Amount  *big.Int
}

func (DistributionSkipped) EventType() string { return TypeDistributionSkipped }

func (e DistributionSkipped) Event() *types.Event {
	return &types.Event{
		Type: TypeDistributionSkipped,
		Attributes: map[string]string{
			"network": formatAddress(e.Network),
			"member":  formatAddress(e.Member),
			"pool":    formatAddress(e.Pool),
			"amount":  formatAmount(e.Amount),
		},
	}
}

// UnderwriterFeePercentUpdated is emitted when the operator retunes the
// parts-per-million fee rate.
type UnderwriterFeePercentUpdated struct {
	PreviousPPM uint32
	CurrentPPM  uint32
}

func (UnderwriterFeePercentUpdated) EventType() string { return TypeUnderwriterFeePPMCh }

func (e UnderwriterFeePercentUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeUnderwriterFeePPMCh,
		Attributes: map[string]string{
			"previousPpm": formatUint(uint64(e.PreviousPPM)),
			"currentPpm":  formatUint(uint64(e.CurrentPPM)),
		},
	}
}
