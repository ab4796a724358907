package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Validate checks the configuration for values the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Ledger.RedemptionNumerator < 0 {
		return fmt.Errorf("config: RedemptionNumerator cannot be negative")
	}
	if c.Ledger.RedemptionDenominator <= 0 {
		return fmt.Errorf("config: RedemptionDenominator must be positive")
	}
	if c.Credit.UnderwriterFeePPM > 1_000_000 {
		return fmt.Errorf("config: UnderwriterFeePPM exceeds one million")
	}
	if strings.TrimSpace(c.Ledger.RedemptionMinimumFee) != "" {
		if _, err := c.RedemptionMinimum(); err != nil {
			return err
		}
	}
	for _, raw := range append(append([]string{}, c.Operators...), c.Networks...) {
		if _, err := ParseAddress(raw); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.OwnerAddress) != "" {
		if _, err := ParseAddress(c.OwnerAddress); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Ledger.TreasuryAddress) != "" {
		if _, err := ParseAddress(c.Ledger.TreasuryAddress); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Ledger.CommunityIdentifier) != "" {
		if _, err := ParseIdentifier(c.Ledger.CommunityIdentifier); err != nil {
			return err
		}
	}
	return nil
}

// RedemptionMinimum parses the configured minimum fee as a decimal amount.
func (c *Config) RedemptionMinimum() (*big.Int, error) {
	raw := strings.TrimSpace(c.Ledger.RedemptionMinimumFee)
	if raw == "" {
		return big.NewInt(0), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: invalid RedemptionMinimumFee %q", raw)
	}
	return amount, nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(cleaned)
	if err != nil || len(decoded) != 20 {
		return addr, fmt.Errorf("config: invalid address %q", raw)
	}
	copy(addr[:], decoded)
	return addr, nil
}

// ParseIdentifier decodes a 0x-prefixed 32-byte hex identifier.
func ParseIdentifier(raw string) ([32]byte, error) {
	var id [32]byte
	cleaned := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(cleaned)
	if err != nil || len(decoded) != 32 {
		return id, fmt.Errorf("config: invalid identifier %q", raw)
	}
	copy(id[:], decoded)
	return id, nil
}
