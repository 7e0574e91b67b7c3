package config_test

import (
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3deploy/internal/config"
	"github.com/Mohsinsiddi/w3deploy/internal/env"
	"github.com/naoina/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const (
	testPrivKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAccount = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func fullEnv() env.Map {
	return env.Map{
		config.EnvEtherscanAPIKey:    "etherscan-key",
		config.EnvDeployerPrivateKey: testPrivKey,
		config.EnvDeployerAccount:    testAccount,
		config.EnvGasPrice:           "20000000000",
		config.EnvMainnetInfuraKey:   "mainnet-key",
		config.EnvKovanInfuraKey:     "kovan-key",
		config.EnvRopstenInfuraKey:   "ropsten-key",
		config.EnvRinkebyInfuraKey:   "rinkeby-key",
	}
}

// ---------------------------------------------------------------------------
// compiler, plugins, api keys
// ---------------------------------------------------------------------------

func TestLoadCompilerSettings(t *testing.T) {
	cfg := config.Load(env.Map{})
	solc := cfg.Compilers.Solc

	assert.Equal(t, "0.6.12", solc.Version)
	assert.True(t, solc.Optimizer.Enabled)
	assert.Equal(t, 200, solc.Optimizer.Runs)
	assert.Equal(t, "istanbul", solc.EVMVersion)
}

func TestLoadPluginsAndAPIKeys(t *testing.T) {
	cfg := config.Load(fullEnv())
	assert.Equal(t, []string{"truffle-plugin-verify"}, cfg.Plugins)
	assert.Equal(t, "etherscan-key", cfg.APIKeys.Etherscan)
}

// ---------------------------------------------------------------------------
// network table
// ---------------------------------------------------------------------------

func TestLoadNetworkTable(t *testing.T) {
	cfg := config.Load(fullEnv())
	assert.Equal(t, []string{"kovan", "mainnet", "rinkeby", "ropsten"}, cfg.NetworkNames())

	tests := []struct {
		name          string
		id            string
		url           string
		gasPrice      uint64
		timeoutBlocks uint64
		checkTimeout  time.Duration
	}{
		{"mainnet", "1", "https://mainnet.infura.io/v3/mainnet-key", 20_000_000_000, 8000, 5 * time.Second},
		{"kovan", "42", "wss://kovan.infura.io/ws/v3/kovan-key", 1_000_000_000, 500, 1000 * time.Second},
		{"ropsten", "3", "wss://ropsten.infura.io/ws/v3/ropsten-key", 10_000_000_000, 500, 1000 * time.Second},
		{"rinkeby", "4", "wss://rinkeby.infura.io/ws/v3/rinkeby-key", 1_000_000_000, 500, 1000 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := cfg.Network(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.id, n.NetworkID)
			assert.Equal(t, tt.url, n.Endpoint.URL())
			assert.Equal(t, tt.gasPrice, n.GasPrice)
			assert.Equal(t, uint64(8_000_000), n.Gas)
			assert.Equal(t, testAccount, n.From)
			assert.Equal(t, tt.timeoutBlocks, n.TimeoutBlocks)
			assert.Equal(t, tt.checkTimeout, n.CheckTimeout())
			assert.NotNil(t, n.Provider)
		})
	}
}

func TestEveryNetworkHasRequiredFields(t *testing.T) {
	// Holds even with an empty environment.
	cfg := config.Load(env.Map{})
	for _, name := range cfg.NetworkNames() {
		n := cfg.Networks[name]
		assert.NotEmpty(t, n.NetworkID, name)
		assert.NotNil(t, n.Provider, name)
		assert.NotZero(t, n.Gas, name)
	}
}

func TestProviderUsesDeployerKey(t *testing.T) {
	cfg := config.Load(fullEnv())
	n, err := cfg.Network("kovan")
	require.NoError(t, err)

	w, err := n.NewProvider()
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, "wss://kovan.infura.io/ws/v3/kovan-key", w.URL())
	require.Len(t, w.Addresses(), 1)
	assert.Equal(t, testAccount, w.Addresses()[0].Hex())
}

func TestProviderWithoutKeyFails(t *testing.T) {
	cfg := config.Load(env.Map{config.EnvKovanInfuraKey: "k"})
	n, err := cfg.Network("kovan")
	require.NoError(t, err)

	_, err = n.NewProvider()
	assert.Error(t, err)
}

func TestNewProviderNilConstructor(t *testing.T) {
	n := &config.Network{Name: "x"}
	_, err := n.NewProvider()
	assert.ErrorIs(t, err, config.ErrNoProvider)
}

// ---------------------------------------------------------------------------
// GAS_PRICE
// ---------------------------------------------------------------------------

func TestGasPriceParsing(t *testing.T) {
	tests := []struct {
		raw     string
		want    uint64
		warning bool
	}{
		{"20000000000", 20_000_000_000, false},
		{" 5000 ", 5000, false},
		{"2e10", 20_000_000_000, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-1", 0, true},
		{"1.5", 0, true},
		{"0x3b9aca00", 1_000_000_000, false},
		{"0X3B9ACA00", 1_000_000_000, false},
		{"0o17", 15, false},
		{"0b101", 5, false},
		{"010", 10, false},
		{"0x", 0, true},
		{"0xzz", 0, true},
		{"0b102", 0, true},
		{"-0", 0, true},
		{"-0x10", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg := config.Load(env.Map{config.EnvGasPrice: tt.raw})
			n, err := cfg.Network("mainnet")
			require.NoError(t, err)
			assert.Equal(t, tt.want, n.GasPrice)
			if tt.warning {
				require.Len(t, cfg.Warnings(), 1)
				assert.Contains(t, cfg.Warnings()[0], "GAS_PRICE")
			} else {
				assert.Empty(t, cfg.Warnings())
			}
		})
	}
}

func TestGasPriceUnsetWarns(t *testing.T) {
	cfg := config.Load(env.Map{})
	require.Len(t, cfg.Warnings(), 1)
	assert.Contains(t, cfg.Warnings()[0], "not set")
}

func TestFixedGasPricesIgnoreEnv(t *testing.T) {
	cfg := config.Load(env.Map{config.EnvGasPrice: "7"})
	n, err := cfg.Network("ropsten")
	require.NoError(t, err)
	assert.Equal(t, 10*config.Gwei, n.GasPrice)
}

// ---------------------------------------------------------------------------
// lookups
// ---------------------------------------------------------------------------

func TestNetworkCaseInsensitive(t *testing.T) {
	cfg := config.Load(fullEnv())
	n, err := cfg.Network("Kovan")
	require.NoError(t, err)
	assert.Equal(t, "kovan", n.Name)
}

func TestNetworkNotFound(t *testing.T) {
	cfg := config.Load(fullEnv())
	_, err := cfg.Network("goerli")
	assert.ErrorIs(t, err, config.ErrNetworkNotFound)
}

func TestNetworkReturnsCopy(t *testing.T) {
	cfg := config.Load(fullEnv())
	n, err := cfg.Network("kovan")
	require.NoError(t, err)
	n.GasPrice = 1

	again, err := cfg.Network("kovan")
	require.NoError(t, err)
	assert.Equal(t, config.Gwei, again.GasPrice)
}

func TestNetworkByID(t *testing.T) {
	cfg := config.Load(fullEnv())
	n, err := cfg.NetworkByID("3")
	require.NoError(t, err)
	assert.Equal(t, "ropsten", n.Name)

	_, err = cfg.NetworkByID("5")
	assert.ErrorIs(t, err, config.ErrNetworkNotFound)
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func TestValidateFullEnv(t *testing.T) {
	cfg := config.Load(fullEnv())
	assert.NoError(t, cfg.Validate())
}

func TestValidateEmptyEnv(t *testing.T) {
	cfg := config.Load(env.Map{})
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	msg := err.Error()
	assert.Contains(t, msg, "Networks[mainnet].GasPrice must be greater than 0")
	assert.Contains(t, msg, "Networks[kovan].From is required")
	assert.Contains(t, msg, "Networks[rinkeby].Endpoint.APIKey is required")
}

func TestValidateOrderIsStable(t *testing.T) {
	cfg := config.Load(env.Map{})
	first := cfg.Validate()
	require.Error(t, first)

	lines := strings.Split(first.Error(), "\n")
	// The first line carries the ErrInvalidConfig prefix.
	assert.True(t, sort.StringsAreSorted(lines[1:]), "validation lines are not sorted:\n%s", first)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Error(), cfg.Validate().Error())
	}
}

func TestValidateBadAccount(t *testing.T) {
	vars := fullEnv()
	vars[config.EnvDeployerAccount] = "not-an-address"
	err := config.Load(vars).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not an address")
}

func TestValidateCatchesBrokenNetwork(t *testing.T) {
	cfg := config.Load(fullEnv())
	cfg.Networks["custom"] = &config.Network{Name: "custom", NetworkID: "abc"}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Networks[custom].NetworkID")
	assert.Contains(t, msg, "Networks[custom].Provider is required")
	assert.Contains(t, msg, "Networks[custom].Gas must be greater than 0")
}

func TestValidateCompiler(t *testing.T) {
	cfg := config.Load(fullEnv())
	cfg.Compilers.Solc.Version = "latest"
	cfg.Compilers.Solc.EVMVersion = "frontier"
	cfg.Compilers.Solc.Optimizer.Runs = 0

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Compilers.Solc.Version")
	assert.Contains(t, msg, "Compilers.Solc.EVMVersion")
	assert.Contains(t, msg, "Compilers.Solc.Optimizer.Runs")
}

// ---------------------------------------------------------------------------
// Export / Fingerprint
// ---------------------------------------------------------------------------

func TestExportRedactsSecrets(t *testing.T) {
	cfg := config.Load(fullEnv())
	data, err := cfg.Export().JSON()
	require.NoError(t, err)

	out := string(data)
	for _, secret := range []string{"etherscan-key", "mainnet-key", "kovan-key", testPrivKey} {
		assert.NotContains(t, out, secret)
	}
	assert.Contains(t, out, "https://mainnet.infura.io/v3/***")
}

func TestExportJSONShape(t *testing.T) {
	cfg := config.Load(fullEnv())
	data, err := cfg.Export().JSON()
	require.NoError(t, err)

	var m config.Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "0.6.12", m.Compilers.Solc.Version)
	assert.True(t, m.APIKeys.Etherscan)
	require.Contains(t, m.Networks, "kovan")
	assert.Equal(t, "42", m.Networks["kovan"].NetworkID)
	assert.True(t, m.Networks["kovan"].Provider.PrivateKeySet)
	assert.Equal(t, 1, m.Networks["kovan"].Provider.NumAddresses)
	assert.Equal(t, uint64(1_000_000), m.Networks["kovan"].NetworkCheckTimeout)
	assert.Zero(t, m.Networks["mainnet"].NetworkCheckTimeout)
}

func TestExportWithoutKey(t *testing.T) {
	cfg := config.Load(env.Map{})
	m := cfg.Export()
	assert.False(t, m.APIKeys.Etherscan)
	for name, n := range m.Networks {
		assert.False(t, n.Provider.PrivateKeySet, name)
	}
}

func TestExportTOML(t *testing.T) {
	cfg := config.Load(fullEnv())
	data, err := cfg.Export().TOML()
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "evm_version")
	assert.True(t, strings.Contains(out, "kovan"))
	assert.NotContains(t, out, "kovan-key")

	var m config.Manifest
	require.NoError(t, toml.Unmarshal(data, &m))
	assert.Equal(t, "istanbul", m.Compilers.Solc.EVMVersion)
	assert.Equal(t, uint64(8000), m.Networks["mainnet"].TimeoutBlocks)
}

func TestFingerprintDeterministic(t *testing.T) {
	a, err := config.Load(fullEnv()).Fingerprint()
	require.NoError(t, err)
	b, err := config.Load(fullEnv()).Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "0x"))
	assert.Len(t, a, 66)
}

func TestFingerprintChangesWithEnv(t *testing.T) {
	vars := fullEnv()
	a, err := config.Load(vars).Fingerprint()
	require.NoError(t, err)

	vars[config.EnvGasPrice] = "30000000000"
	b, err := config.Load(vars).Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestExportDeterministic(t *testing.T) {
	a, err := config.Load(fullEnv()).Export().JSON()
	require.NoError(t, err)
	b, err := config.Load(fullEnv()).Export().JSON()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

// ---------------------------------------------------------------------------
// Endpoint
// ---------------------------------------------------------------------------

func TestEndpoint(t *testing.T) {
	e := config.Endpoint{Base: "wss://kovan.infura.io/ws/v3/", APIKey: "k"}
	assert.Equal(t, "wss://kovan.infura.io/ws/v3/k", e.URL())
	assert.Equal(t, "wss://kovan.infura.io/ws/v3/***", e.Redacted())
	assert.Equal(t, "wss", e.Scheme())

	empty := config.Endpoint{Base: "https://mainnet.infura.io/v3/"}
	assert.Equal(t, "https://mainnet.infura.io/v3/", empty.Redacted())
	assert.Equal(t, "", config.Endpoint{Base: "nope"}.Scheme())
}
