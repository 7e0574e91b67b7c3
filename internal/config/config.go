package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3deploy/internal/env"
	"github.com/Mohsinsiddi/w3deploy/internal/provider"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrNetworkNotFound is returned when a network is not in the table.
	ErrNetworkNotFound = errors.New("network not found")
	// ErrNoProvider is returned when a network has no provider constructor.
	ErrNoProvider = errors.New("network has no provider")
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// networkRow is one row of the network table. GasPriceEnv, when set,
// takes precedence over GasPrice.
type networkRow struct {
	Name         string
	NetworkID    string
	EndpointBase string
	APIKeyEnv    string
	GasPrice     uint64
	GasPriceEnv  string
	Timeout      uint64 // blocks
	CheckTimeout uint64 // ms
}

func networkTable() []networkRow {
	return []networkRow{
		{
			Name: "mainnet", NetworkID: "1",
			EndpointBase: "https://mainnet.infura.io/v3/", APIKeyEnv: EnvMainnetInfuraKey,
			GasPriceEnv: EnvGasPrice,
			Timeout:     8000,
		},
		{
			Name: "kovan", NetworkID: "42",
			EndpointBase: "wss://kovan.infura.io/ws/v3/", APIKeyEnv: EnvKovanInfuraKey,
			GasPrice: 1 * Gwei,
			Timeout:  500, CheckTimeout: 1_000_000,
		},
		{
			Name: "ropsten", NetworkID: "3",
			EndpointBase: "wss://ropsten.infura.io/ws/v3/", APIKeyEnv: EnvRopstenInfuraKey,
			GasPrice: 10 * Gwei,
			Timeout:  500, CheckTimeout: 1_000_000,
		},
		{
			Name: "rinkeby", NetworkID: "4",
			EndpointBase: "wss://rinkeby.infura.io/ws/v3/", APIKeyEnv: EnvRinkebyInfuraKey,
			GasPrice: 1 * Gwei,
			Timeout:  500, CheckTimeout: 1_000_000,
		},
	}
}

// Load builds the configuration from src. It never fails: missing variables
// leave empty or zero fields behind, which Validate reports. Values that are
// present but cannot be parsed are recorded as warnings.
func Load(src env.Source) *Config {
	cfg := &Config{
		Compilers: Compilers{Solc: Compiler{
			Version:    SolcVersion,
			Optimizer:  Optimizer{Enabled: true, Runs: OptimizerRuns},
			EVMVersion: EVMVersion,
		}},
		Plugins:  []string{PluginVerify},
		APIKeys:  APIKeys{Etherscan: env.Get(src, EnvEtherscanAPIKey)},
		Networks: make(map[string]*Network),
	}

	privateKey := env.Get(src, EnvDeployerPrivateKey)
	from := env.Get(src, EnvDeployerAccount)

	for _, row := range networkTable() {
		n := &Network{
			Name:                row.Name,
			NetworkID:           row.NetworkID,
			Endpoint:            Endpoint{Base: row.EndpointBase, APIKey: env.Get(src, row.APIKeyEnv)},
			GasPrice:            row.GasPrice,
			Gas:                 DefaultGas,
			From:                from,
			TimeoutBlocks:       row.Timeout,
			NetworkCheckTimeout: row.CheckTimeout,
		}
		if row.GasPriceEnv != "" {
			n.GasPrice = cfg.parseGasPrice(row.GasPriceEnv, env.Get(src, row.GasPriceEnv))
		}
		n.Provider = hdWalletFunc([]string{privateKey}, n.Endpoint.URL())
		cfg.Networks[n.Name] = n
	}

	return cfg
}

// hdWalletFunc returns a constructor for a provider using the first account
// of keys.
func hdWalletFunc(keys []string, url string) ProviderFunc {
	return func() (*provider.HDWallet, error) {
		return provider.NewHDWallet(keys, url, 0, 1)
	}
}

// gasPriceBases maps the integer prefixes GAS_PRICE may carry to their base.
var gasPriceBases = map[string]int{"0x": 16, "0o": 8, "0b": 2}

// parseGasPrice accepts a Wei amount written as a decimal integer, in
// exponent notation such as 2e10, or with a 0x, 0o or 0b prefix. A leading
// zero does not mean octal. Anything else, including any negative value,
// yields 0 and a warning.
func (c *Config) parseGasPrice(key, raw string) uint64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		c.warnings = append(c.warnings, fmt.Sprintf("%s is not set", key))
		return 0
	}
	bad := func() uint64 {
		c.warnings = append(c.warnings, fmt.Sprintf("%s=%q is not a Wei amount", key, raw))
		return 0
	}
	if strings.HasPrefix(raw, "-") {
		return bad()
	}
	if len(raw) > 2 {
		if base, ok := gasPriceBases[strings.ToLower(raw[:2])]; ok {
			v, err := strconv.ParseUint(raw[2:], base, 64)
			if err != nil {
				return bad()
			}
			return v
		}
	}
	if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f >= math.MaxUint64 {
		return bad()
	}
	return uint64(f)
}

// Warnings returns the problems found while loading.
func (c *Config) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Network returns a copy of the named network (case-insensitive).
func (c *Config) Network(name string) (*Network, error) {
	n, ok := c.Networks[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
	}
	cp := *n
	return &cp, nil
}

// NetworkByID returns a copy of the network with the given network id.
func (c *Config) NetworkByID(id string) (*Network, error) {
	for _, name := range c.NetworkNames() {
		if n := c.Networks[name]; n.NetworkID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: id %s", ErrNetworkNotFound, id)
}

// NetworkNames returns the network names in sorted order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for name := range c.Networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var validate = validator.New()

// Validate checks the structural properties every consumer relies on and
// returns all failures at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError(fe))
	}
	// Networks is a map, so the validator visits it in random order.
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "eth_addr":
		return fmt.Errorf("%s %q is not an address", field, fe.Value())
	case "gt":
		return fmt.Errorf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Errorf("%s failed %s %s", field, fe.Tag(), fe.Param())
	}
}
