// Package types contains shared type definitions used across multiple packages
package types

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// SupportedNetwork identifies a staking network
type SupportedNetwork string

// Built-in networks
const (
	NetworkPolkadot SupportedNetwork = "polkadot"
	NetworkKusama   SupportedNetwork = "kusama"
	NetworkWestend  SupportedNetwork = "westend"
	NetworkMoonbeam SupportedNetwork = "moonbeam"
)

// ErrUnknownNetwork is returned when a network has no denomination entry
var ErrUnknownNetwork = errors.New("unknown network")

// NetworkConfig holds configuration for a specific staking network
type NetworkConfig struct {
	Decimals    int    `yaml:"decimals" toml:"decimals" json:"decimals"`
	Ticker      string `yaml:"ticker" toml:"ticker" json:"ticker"`
	CoinGeckoID string `yaml:"coingecko_id" toml:"coingecko_id" json:"coingecko_id"`
	SubscanURL  string `yaml:"subscan_url" toml:"subscan_url" json:"subscan_url"`
}

// Denomination returns the factor converting planks to human-readable units
func (c NetworkConfig) Denomination() float64 {
	return math.Pow10(-c.Decimals)
}

// Registry maps network identifiers to their configuration
type Registry map[SupportedNetwork]NetworkConfig

// DefaultRegistry returns the built-in network table
func DefaultRegistry() Registry {
	return Registry{
		NetworkPolkadot: {Decimals: 10, Ticker: "DOT", CoinGeckoID: "polkadot", SubscanURL: "https://polkadot.api.subscan.io"},
		NetworkKusama:   {Decimals: 12, Ticker: "KSM", CoinGeckoID: "kusama", SubscanURL: "https://kusama.api.subscan.io"},
		NetworkWestend:  {Decimals: 12, Ticker: "WND", CoinGeckoID: "polkadot", SubscanURL: "https://westend.api.subscan.io"},
		NetworkMoonbeam: {Decimals: 18, Ticker: "GLMR", CoinGeckoID: "moonbeam", SubscanURL: "https://moonbeam.api.subscan.io"},
	}
}

// Lookup returns the configuration of a network, matched case-insensitively
func (r Registry) Lookup(network string) (NetworkConfig, error) {
	cfg, ok := r[SupportedNetwork(strings.ToLower(strings.TrimSpace(network)))]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
	return cfg, nil
}

// Denomination returns the planks-to-unit factor of a network
func (r Registry) Denomination(network string) (float64, error) {
	cfg, err := r.Lookup(network)
	if err != nil {
		return 0, err
	}
	return cfg.Denomination(), nil
}

// Names returns the registered network identifiers in sorted order
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}
