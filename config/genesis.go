package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gopkg.in/yaml.v3"
)

// Genesis seeds a fresh node: which currencies exist, who administers the
// pools, initial ledger balances and the pools themselves.
type Genesis struct {
	Admins           []string         `yaml:"admins"`
	PooledCurrencies []string         `yaml:"pooled_currencies"`
	LpCurrencies     []string         `yaml:"lp_currencies"`
	Balances         []GenesisBalance `yaml:"balances"`
	Pools            []GenesisPool    `yaml:"pools"`
}

// GenesisBalance credits Amount of Currency to Account.
type GenesisBalance struct {
	Account  string `yaml:"account"`
	Currency string `yaml:"currency"`
	Amount   string `yaml:"amount"`
}

// GenesisPool describes a pool created at genesis.
type GenesisPool struct {
	Currencies       []string `yaml:"currencies"`
	Decimals         []uint8  `yaml:"decimals"`
	LpCurrency       string   `yaml:"lp_currency"`
	A                uint64   `yaml:"a"`
	Fee              uint64   `yaml:"fee"`
	AdminFee         uint64   `yaml:"admin_fee"`
	AdminFeeReceiver string   `yaml:"admin_fee_receiver"`
	LpSymbol         string   `yaml:"lp_symbol"`
	LpDecimals       uint8    `yaml:"lp_decimals"`
}

// LoadGenesis reads and validates a genesis file.
func LoadGenesis(path string) (*Genesis, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genesis: %w", err)
	}
	defer file.Close()
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	g := &Genesis{}
	if err := dec.Decode(g); err != nil {
		return nil, fmt.Errorf("decode genesis: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks addresses, amounts and pool shapes.
func (g *Genesis) Validate() error {
	if g == nil {
		return errors.New("genesis: nil")
	}
	if len(g.Admins) == 0 && len(g.Pools) > 0 {
		return errors.New("genesis: pools require at least one admin")
	}
	for _, admin := range g.Admins {
		if !common.IsHexAddress(admin) {
			return fmt.Errorf("genesis: invalid admin address %q", admin)
		}
	}
	lpCurrencies := make(map[string]struct{}, len(g.LpCurrencies)+len(g.Pools))
	for _, lp := range g.LpCurrencies {
		lpCurrencies[lp] = struct{}{}
	}
	for _, pool := range g.Pools {
		lpCurrencies[pool.LpCurrency] = struct{}{}
	}
	for i, bal := range g.Balances {
		if !common.IsHexAddress(bal.Account) {
			return fmt.Errorf("genesis: balance %d: invalid account %q", i, bal.Account)
		}
		if strings.TrimSpace(bal.Currency) == "" {
			return fmt.Errorf("genesis: balance %d: currency required", i)
		}
		// LP supply is minted only by deposits; pre-existing issuance would
		// leave a pool with supply but no invariant.
		if _, ok := lpCurrencies[bal.Currency]; ok {
			return fmt.Errorf("genesis: balance %d: %q is an lp currency", i, bal.Currency)
		}
		if _, err := uint256.FromDecimal(bal.Amount); err != nil {
			return fmt.Errorf("genesis: balance %d: invalid amount %q: %w", i, bal.Amount, err)
		}
	}
	for i, pool := range g.Pools {
		if len(pool.Currencies) != len(pool.Decimals) {
			return fmt.Errorf("genesis: pool %d: %d currencies but %d decimals", i, len(pool.Currencies), len(pool.Decimals))
		}
		if strings.TrimSpace(pool.LpCurrency) == "" {
			return fmt.Errorf("genesis: pool %d: lp currency required", i)
		}
		if pool.AdminFeeReceiver != "" && !common.IsHexAddress(pool.AdminFeeReceiver) {
			return fmt.Errorf("genesis: pool %d: invalid admin fee receiver %q", i, pool.AdminFeeReceiver)
		}
	}
	return nil
}

// AdminAddresses returns the parsed admin accounts.
func (g *Genesis) AdminAddresses() []common.Address {
	out := make([]common.Address, len(g.Admins))
	for i, admin := range g.Admins {
		out[i] = common.HexToAddress(admin)
	}
	return out
}
