package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, decoded from TOML.
type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	DataDir        string `toml:"DataDir"`
	ServiceName    string `toml:"ServiceName"`
	OwnerAddress   string `toml:"OwnerAddress"`
	CustodyAddress string `toml:"CustodyAddress"`

	Operators []string `toml:"Operators"`
	Networks  []string `toml:"Networks"`

	Ledger LedgerConfig `toml:"Ledger"`
	Credit CreditConfig `toml:"Credit"`
}

// LedgerConfig carries the controller's fee policy and fixed beneficiaries.
type LedgerConfig struct {
	TreasuryAddress       string `toml:"TreasuryAddress"`
	CommunityIdentifier   string `toml:"CommunityIdentifier"`
	RedemptionNumerator   int64  `toml:"RedemptionNumerator"`
	RedemptionDenominator int64  `toml:"RedemptionDenominator"`
	RedemptionMinimumFee  string `toml:"RedemptionMinimumFee"`
	EventBufferSize       int    `toml:"EventBufferSize"`
}

// CreditConfig carries the fee manager's tunables.
type CreditConfig struct {
	UnderwriterFeePPM  uint32 `toml:"UnderwriterFeePPM"`
	MaxDistributeBatch int    `toml:"MaxDistributeBatch"`
	CreditLineTTLHours int    `toml:"CreditLineTTLHours"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	// A key the struct does not bind is almost always a typo'd setting that
	// would otherwise be silently ignored.
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config: unrecognized keys: %s", strings.Join(keys, ", "))
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		cfg.ServiceName = "creditledger"
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Ledger.RedemptionDenominator == 0 {
		cfg.Ledger.RedemptionDenominator = 1000
	}
	if cfg.Ledger.EventBufferSize == 0 {
		cfg.Ledger.EventBufferSize = 1024
	}
	if cfg.Credit.MaxDistributeBatch == 0 {
		cfg.Credit.MaxDistributeBatch = 256
	}
	if cfg.Operators == nil {
		cfg.Operators = []string{}
	}
	if cfg.Networks == nil {
		cfg.Networks = []string{}
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create default %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
