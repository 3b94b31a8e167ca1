package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourorg/staking-rewards/internal/types"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SUBSCAN_API_KEY", "API_SLEEP_DELAY", "PRICE_API", "CURRENCY", "REQUEST_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "", cfg.SubscanAPIKey)
	assert.Equal(t, 300, cfg.APISleepDelay)
	assert.Equal(t, DefaultPriceAPI, cfg.PriceAPI)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, 30*time.Minute, cfg.RequestTimeout)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("SUBSCAN_API_KEY", "key")
	t.Setenv("API_SLEEP_DELAY", "1000")
	t.Setenv("PRICE_API", "http://localhost:9999/api/")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("MAX_ANNUALIZED_RETURN", "2.5")

	cfg := Load()
	assert.Equal(t, "key", cfg.SubscanAPIKey)
	assert.Equal(t, 1000, cfg.APISleepDelay)
	assert.Equal(t, "http://localhost:9999/api", cfg.PriceAPI)
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.MaxAnnualizedReturn)
	assert.Zero(t, cfg.MaxPriceChange)
}

func TestGetEnvHelpers_InvalidFallBack(t *testing.T) {
	t.Setenv("X_INT", "ten")
	t.Setenv("X_FLOAT", "1.5")
	t.Setenv("X_DURATION", "soon")

	assert.Equal(t, 7, GetEnvAsInt("X_INT", 7))
	assert.Equal(t, 1.5, GetEnvAsFloat("X_FLOAT", 0))
	assert.Equal(t, time.Second, GetEnvAsDuration("X_DURATION", time.Second))
}

func TestLoadNetworks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.yaml")
	content := `networks:
  Acala:
    decimals: 12
    ticker: ACA
    coingecko_id: acala
    subscan_url: https://acala.api.subscan.io/
  polkadot:
    decimals: 10
    ticker: DOT
    coingecko_id: polkadot
    subscan_url: http://localhost:8080
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := LoadNetworks(path)
	require.NoError(t, err)

	acala, err := reg.Lookup("acala")
	require.NoError(t, err)
	assert.Equal(t, 12, acala.Decimals)
	assert.Equal(t, "https://acala.api.subscan.io", acala.SubscanURL)

	dot, err := reg.Lookup("polkadot")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", dot.SubscanURL)

	_, err = reg.Lookup(string(types.NetworkKusama))
	assert.NoError(t, err, "defaults stay available")
}

func TestLoadNetworks_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	content := `[networks.astar]
decimals = 18
ticker = "ASTR"
coingecko_id = "astar"
subscan_url = "https://astar.api.subscan.io"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := LoadNetworks(path)
	require.NoError(t, err)

	astar, err := reg.Lookup("astar")
	require.NoError(t, err)
	assert.Equal(t, "ASTR", astar.Ticker)
	assert.Equal(t, "astar", astar.CoinGeckoID)
	assert.InDelta(t, 1e-18, astar.Denomination(), 1e-30)
}

func TestLoadNetworks_Errors(t *testing.T) {
	_, err := LoadNetworks(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open networks file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("networks:\n  x:\n    decimals: 99\n"), 0o600))
	_, err = LoadNetworks(path)
	assert.ErrorContains(t, err, "decimals out of range")
}

func TestLoadNetworks_EmptyPath(t *testing.T) {
	reg, err := LoadNetworks("")
	require.NoError(t, err)
	assert.Equal(t, types.DefaultRegistry(), reg)
}
