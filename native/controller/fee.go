package controller

import "math/big"

// FeePolicy is the redemption fee configuration: a ratio with a floor,
// applied only at withdrawal time. The ratio is deliberately not forced
// below one; misconfigurations surface per-withdrawal as
// ErrInvalidFeeConfiguration instead.
type FeePolicy struct {
	Numerator   *big.Int
	Denominator *big.Int
	MinimumFee  *big.Int
}

// Clone returns a deep copy so callers cannot alias the engine's policy.
func (p FeePolicy) Clone() FeePolicy {
	clone := FeePolicy{}
	if p.Numerator != nil {
		clone.Numerator = new(big.Int).Set(p.Numerator)
	}
	if p.Denominator != nil {
		clone.Denominator = new(big.Int).Set(p.Denominator)
	}
	if p.MinimumFee != nil {
		clone.MinimumFee = new(big.Int).Set(p.MinimumFee)
	}
	return clone
}

func (p FeePolicy) minimum() *big.Int {
	if p.MinimumFee == nil {
		return big.NewInt(0)
	}
	return p.MinimumFee
}

// RedemptionFee computes the fee owed on a withdrawal of the supplied amount:
// floor(amount * numerator / denominator), clamped up to the configured
// minimum. A computed fee exceeding the amount itself is rejected rather than
// allowed to underflow the burn remainder.
func RedemptionFee(amount *big.Int, policy FeePolicy) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	fee := big.NewInt(0)
	if policy.Numerator != nil && policy.Denominator != nil && policy.Denominator.Sign() > 0 {
		fee = new(big.Int).Mul(amount, policy.Numerator)
		fee = fee.Div(fee, policy.Denominator)
	}
	if fee.Cmp(policy.minimum()) < 0 {
		fee = new(big.Int).Set(policy.minimum())
	}
	if fee.Cmp(amount) > 0 {
		return nil, ErrInvalidFeeConfiguration
	}
	return fee, nil
}
