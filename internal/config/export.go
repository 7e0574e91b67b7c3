package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/naoina/toml"
	"golang.org/x/crypto/sha3"
)

// Manifest is the secret-free view of a Config handed to other tools and
// printed by the CLI.
type Manifest struct {
	Compilers ManifestCompilers          `json:"compilers" toml:"compilers"`
	Plugins   []string                   `json:"plugins"   toml:"plugins"`
	APIKeys   ManifestAPIKeys            `json:"api_keys"  toml:"api_keys"`
	Networks  map[string]ManifestNetwork `json:"networks"  toml:"networks"`
}

// ManifestCompilers mirrors Compilers.
type ManifestCompilers struct {
	Solc Compiler `json:"solc" toml:"solc"`
}

// ManifestAPIKeys reports which API keys are set.
type ManifestAPIKeys struct {
	Etherscan bool `json:"etherscan" toml:"etherscan"`
}

// ManifestNetwork describes one network without secrets.
type ManifestNetwork struct {
	NetworkID           string           `json:"network_id"                      toml:"network_id"`
	Provider            ManifestProvider `json:"provider"                        toml:"provider"`
	GasPrice            uint64           `json:"gas_price"                       toml:"gas_price"`
	Gas                 uint64           `json:"gas"                             toml:"gas"`
	From                string           `json:"from"                            toml:"from"`
	TimeoutBlocks       uint64           `json:"timeout_blocks"                  toml:"timeout_blocks"`
	NetworkCheckTimeout uint64           `json:"network_check_timeout,omitempty" toml:"network_check_timeout"`
}

// ManifestProvider describes a provider constructor.
type ManifestProvider struct {
	URL           string `json:"url"             toml:"url"`
	PrivateKeySet bool   `json:"private_key_set" toml:"private_key_set"`
	AddressIndex  int    `json:"address_index"   toml:"address_index"`
	NumAddresses  int    `json:"num_addresses"   toml:"num_addresses"`
}

// Export returns the manifest of c.
func (c *Config) Export() Manifest {
	m := Manifest{
		Compilers: ManifestCompilers{Solc: c.Compilers.Solc},
		Plugins:   append([]string(nil), c.Plugins...),
		APIKeys:   ManifestAPIKeys{Etherscan: c.APIKeys.Etherscan != ""},
		Networks:  make(map[string]ManifestNetwork, len(c.Networks)),
	}
	for name, n := range c.Networks {
		m.Networks[name] = ManifestNetwork{
			NetworkID: n.NetworkID,
			Provider: ManifestProvider{
				URL:           n.Endpoint.Redacted(),
				PrivateKeySet: n.privateKeySet(),
				AddressIndex:  0,
				NumAddresses:  1,
			},
			GasPrice:            n.GasPrice,
			Gas:                 n.Gas,
			From:                n.From,
			TimeoutBlocks:       n.TimeoutBlocks,
			NetworkCheckTimeout: n.NetworkCheckTimeout,
		}
	}
	return m
}

// privateKeySet reports whether the provider can be built, which is only
// possible when a usable private key is present.
func (n *Network) privateKeySet() bool {
	if n.Provider == nil {
		return false
	}
	w, err := n.Provider()
	if err != nil {
		return false
	}
	w.Close()
	return true
}

// JSON renders the manifest as indented JSON.
func (m Manifest) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent: %w", err)
	}
	return data, nil
}

// TOML renders the manifest as TOML.
func (m Manifest) TOML() ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("toml.Marshal: %w", err)
	}
	return data, nil
}

// Fingerprint returns the keccak-256 hash of the manifest's canonical JSON.
// Two configs loaded from the same variables have the same fingerprint.
func (c *Config) Fingerprint() (string, error) {
	data, err := json.Marshal(c.Export())
	if err != nil {
		return "", fmt.Errorf("json.Marshal: %w", err)
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil)), nil
}
