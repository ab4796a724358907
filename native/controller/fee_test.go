package controller

import (
	"errors"
	"math/big"
	"testing"
)

func policy(numerator, denominator, minimum int64) FeePolicy {
	return FeePolicy{
		Numerator:   big.NewInt(numerator),
		Denominator: big.NewInt(denominator),
		MinimumFee:  big.NewInt(minimum),
	}
}

func TestRedemptionFeeFloorApplies(t *testing.T) {
	// 100 * 15 / 1000 = 1, below the floor of 50.
	fee, err := RedemptionFee(big.NewInt(100), policy(15, 1000, 50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("expected floor fee 50, got %s", fee)
	}
}

func TestRedemptionFeeRatio(t *testing.T) {
	fee, err := RedemptionFee(big.NewInt(10000), policy(15, 1000, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Cmp(big.NewInt(150)) != 0 {
		t.Fatalf("expected ratio fee 150, got %s", fee)
	}
	burn := new(big.Int).Sub(big.NewInt(10000), fee)
	if burn.Cmp(big.NewInt(9850)) != 0 {
		t.Fatalf("expected burn amount 9850, got %s", burn)
	}
}

func TestRedemptionFeeRoundsDown(t *testing.T) {
	// 999 * 15 / 1000 = 14.985, floor division yields 14.
	fee, err := RedemptionFee(big.NewInt(999), policy(15, 1000, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Cmp(big.NewInt(14)) != 0 {
		t.Fatalf("expected fee 14, got %s", fee)
	}
}

func TestRedemptionFeeExceedingAmountRejected(t *testing.T) {
	// Floor of 500 exceeds a withdrawal of 100.
	if _, err := RedemptionFee(big.NewInt(100), policy(15, 1000, 500)); !errors.Is(err, ErrInvalidFeeConfiguration) {
		t.Fatalf("expected ErrInvalidFeeConfiguration, got %v", err)
	}
	// A ratio above one must be rejected the same way.
	if _, err := RedemptionFee(big.NewInt(100), policy(3, 2, 0)); !errors.Is(err, ErrInvalidFeeConfiguration) {
		t.Fatalf("expected ErrInvalidFeeConfiguration for ratio > 1, got %v", err)
	}
}

func TestRedemptionFeeZeroPolicy(t *testing.T) {
	fee, err := RedemptionFee(big.NewInt(100), FeePolicy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Sign() != 0 {
		t.Fatalf("expected zero fee for empty policy, got %s", fee)
	}
}
