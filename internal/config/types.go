package config

import (
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3deploy/internal/provider"
)

// Config is the deploy configuration: compiler settings, plugins, explorer
// API keys and the network table. It is built once by Load and only read
// afterwards.
type Config struct {
	Compilers Compilers
	Plugins   []string `validate:"dive,required"`
	APIKeys   APIKeys
	Networks  map[string]*Network `validate:"required,dive,required"`

	warnings []string
}

// Compilers groups the compiler settings by compiler.
type Compilers struct {
	Solc Compiler
}

// Compiler holds solc version and settings.
type Compiler struct {
	Version    string    `json:"version"     toml:"version"     validate:"required,semver"`
	Optimizer  Optimizer `json:"optimizer"   toml:"optimizer"`
	EVMVersion string    `json:"evm_version" toml:"evm_version" validate:"required,oneof=homestead tangerineWhistle spuriousDragon byzantium constantinople petersburg istanbul berlin london paris shanghai cancun"`
}

// Optimizer holds the solc optimizer settings.
type Optimizer struct {
	Enabled bool `json:"enabled" toml:"enabled"`
	Runs    int  `json:"runs"    toml:"runs"    validate:"required_if=Enabled true,gte=0"`
}

// APIKeys holds explorer API keys used by plugins.
type APIKeys struct {
	Etherscan string
}

// ProviderFunc builds the signing provider of a network.
type ProviderFunc func() (*provider.HDWallet, error)

// Network holds the connection and transaction parameters of one network.
type Network struct {
	Name      string `validate:"required"`
	NetworkID string `validate:"required,numeric"`
	Endpoint  Endpoint
	Provider  ProviderFunc `validate:"required"`
	GasPrice  uint64       `validate:"gt=0"` // Wei
	Gas       uint64       `validate:"gt=0"`
	From      string       `validate:"required,eth_addr"`

	TimeoutBlocks uint64 `validate:"gt=0"`
	// NetworkCheckTimeout in milliseconds; 0 means DefaultNetworkCheckTimeout.
	NetworkCheckTimeout uint64
}

// CheckTimeout returns how long a connectivity check may take.
func (n *Network) CheckTimeout() time.Duration {
	if n.NetworkCheckTimeout == 0 {
		return DefaultNetworkCheckTimeout
	}
	return time.Duration(n.NetworkCheckTimeout) * time.Millisecond
}

// NewProvider calls the network's provider constructor.
func (n *Network) NewProvider() (*provider.HDWallet, error) {
	if n.Provider == nil {
		return nil, ErrNoProvider
	}
	return n.Provider()
}

// Endpoint is a node URL whose trailing segment is an API key.
type Endpoint struct {
	Base   string `validate:"required,url"`
	APIKey string `validate:"required"`
}

// URL returns the full endpoint URL.
func (e Endpoint) URL() string { return e.Base + e.APIKey }

// Redacted returns the endpoint URL with the API key masked.
func (e Endpoint) Redacted() string {
	if e.APIKey == "" {
		return e.Base
	}
	return e.Base + "***"
}

// Scheme returns the URL scheme, e.g. "https" or "wss".
func (e Endpoint) Scheme() string {
	scheme, _, ok := strings.Cut(e.Base, "://")
	if !ok {
		return ""
	}
	return scheme
}
