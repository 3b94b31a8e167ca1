package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/staking-rewards/internal/types"
	"gopkg.in/yaml.v3"
)

// networksFile is the layout of a network table override, in YAML:
//
//	networks:
//	  polkadot:
//	    decimals: 10
//	    ticker: DOT
//	    coingecko_id: polkadot
//	    subscan_url: https://polkadot.api.subscan.io
//
// or in TOML with a [networks.polkadot] table per entry.
type networksFile struct {
	Networks map[string]types.NetworkConfig `yaml:"networks" toml:"networks"`
}

// LoadNetworks returns the built-in network table merged with the entries
// of the file at path. Files ending in .toml are read as TOML, anything else
// as YAML. An empty path yields the defaults.
func LoadNetworks(path string) (types.Registry, error) {
	registry := types.DefaultRegistry()
	if path == "" {
		return registry, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open networks file: %w", err)
	}
	defer file.Close()

	var parsed networksFile
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		meta, err := toml.NewDecoder(file).Decode(&parsed)
		if err != nil {
			return nil, fmt.Errorf("decode networks file: %w", err)
		}
		for _, key := range meta.Undecoded() {
			logrus.WithField("key", key.String()).Warn("Unknown key in networks file")
		}
	} else if err := yaml.NewDecoder(file).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode networks file: %w", err)
	}

	for name, cfg := range parsed.Networks {
		key := types.SupportedNetwork(strings.ToLower(strings.TrimSpace(name)))
		if err := validateNetwork(key, cfg); err != nil {
			return nil, err
		}
		cfg.SubscanURL = strings.TrimRight(cfg.SubscanURL, "/")
		registry[key] = cfg
		logrus.WithFields(logrus.Fields{
			"network":  key,
			"decimals": cfg.Decimals,
		}).Debug("Loaded network override")
	}

	return registry, nil
}

func validateNetwork(name types.SupportedNetwork, cfg types.NetworkConfig) error {
	if name == "" {
		return fmt.Errorf("network with empty name")
	}
	if cfg.Decimals < 0 || cfg.Decimals > 30 {
		return fmt.Errorf("network %s: decimals out of range: %d", name, cfg.Decimals)
	}
	return nil
}
