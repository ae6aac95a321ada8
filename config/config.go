package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/DrDelphi/EgldLotteryBot/data"
	"github.com/DrDelphi/EgldLotteryBot/utils"
	"github.com/tyler-smith/go-bip39"
)

const (
	defaultProxy               = "https://devnet-gateway.elrond.com"
	defaultIndexer             = "https://devnet-index.elrond.com"
	defaultExplorerTransaction = "https://devnet-explorer.elrond.com/transactions/"
	defaultExplorerAccount     = "https://devnet-explorer.elrond.com/accounts/"
	defaultPollInterval        = 5
	defaultAccounts            = 10
	defaultBalance             = "100"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrInvalidSeed     = errors.New("invalid seed phrase")
	ErrMissingProxy    = errors.New("proxy provider needs network.proxy and network.indexer")
)

// NewConfig - reads the application configuration from the provided path
// and returns an AppConfig struct or an error if something goes wrong
func NewConfig(configPath string) (*data.AppConfig, error) {
	bytes, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg := &data.AppConfig{}
	err = json.Unmarshal(bytes, cfg)
	if err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	return cfg, Validate(cfg)
}

// ApplyDefaults - fills the optional fields left empty
func ApplyDefaults(cfg *data.AppConfig) {
	if cfg.Provider == "" {
		cfg.Provider = utils.ProviderSimulator
	}
	if cfg.Lottery.GasLimit == 0 {
		cfg.Lottery.GasLimit = utils.EnterGasLimit
	}
	if cfg.Simulator.Accounts == 0 {
		cfg.Simulator.Accounts = defaultAccounts
	}
	if cfg.Simulator.Balance == "" {
		cfg.Simulator.Balance = defaultBalance
	}
	if cfg.Simulator.ImportBalance == "" {
		cfg.Simulator.ImportBalance = "0"
	}
	if cfg.Simulator.GasPrice == 0 {
		cfg.Simulator.GasPrice = utils.DefaultGasPrice
	}
	if cfg.Network.PollInterval == 0 {
		cfg.Network.PollInterval = defaultPollInterval
	}
	if cfg.Network.ExplorerTransaction == "" {
		cfg.Network.ExplorerTransaction = defaultExplorerTransaction
	}
	if cfg.Network.ExplorerAccount == "" {
		cfg.Network.ExplorerAccount = defaultExplorerAccount
	}
	if cfg.Provider == utils.ProviderProxy {
		if cfg.Network.Proxy == "" {
			cfg.Network.Proxy = defaultProxy
		}
		if cfg.Network.Indexer == "" {
			cfg.Network.Indexer = defaultIndexer
		}
	}
}

// Validate - checks the values that can not be defaulted
func Validate(cfg *data.AppConfig) error {
	switch cfg.Provider {
	case utils.ProviderSimulator:
	case utils.ProviderProxy:
		if cfg.Network.Proxy == "" || cfg.Network.Indexer == "" {
			return ErrMissingProxy
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	if cfg.Seedphrase != "" && !bip39.IsMnemonicValid(cfg.Seedphrase) {
		return ErrInvalidSeed
	}

	for name, amount := range map[string]string{
		"lottery.minimumEntry":    cfg.Lottery.MinimumEntry,
		"simulator.balance":       cfg.Simulator.Balance,
		"simulator.importBalance": cfg.Simulator.ImportBalance,
	} {
		if amount == "" {
			continue
		}
		if _, err := utils.ToDenominated(amount); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// Save - writes cfg back to path
func Save(cfg *data.AppConfig, path string) error {
	bytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, bytes, 0644)
}
