package config

import "time"

// Compiler settings shared by every network.
const (
	SolcVersion   = "0.6.12"
	OptimizerRuns = 200
	EVMVersion    = "istanbul"

	// PluginVerify publishes sources to Etherscan after deployment.
	PluginVerify = "truffle-plugin-verify"
)

// Gas and timeout parameters.
const (
	Gwei       = uint64(1_000_000_000)
	DefaultGas = uint64(8_000_000)

	// DefaultNetworkCheckTimeout applies when a network sets no check timeout.
	DefaultNetworkCheckTimeout = 5 * time.Second
)

// Environment variables the configuration is built from.
const (
	EnvEtherscanAPIKey    = "ETHERSCAN_API_KEY"
	EnvDeployerPrivateKey = "DEPLOYER_PRIVATE_KEY"
	EnvDeployerAccount    = "DEPLOYER_ACCOUNT"
	EnvGasPrice           = "GAS_PRICE"
	EnvMainnetInfuraKey   = "MAINNET_INFURA_API_KEY"
	EnvKovanInfuraKey     = "KOVAN_INFURA_API_KEY"
	EnvRopstenInfuraKey   = "ROPSTEN_INFURA_API_KEY"
	EnvRinkebyInfuraKey   = "RINKEBY_INFURA_API_KEY"
)

// EnvVars lists every variable Load reads, in a stable order.
var EnvVars = []string{
	EnvEtherscanAPIKey,
	EnvDeployerPrivateKey,
	EnvDeployerAccount,
	EnvGasPrice,
	EnvMainnetInfuraKey,
	EnvKovanInfuraKey,
	EnvRopstenInfuraKey,
	EnvRinkebyInfuraKey,
}

// SecretVars are the variables that must never be printed.
var SecretVars = []string{
	EnvEtherscanAPIKey,
	EnvDeployerPrivateKey,
	EnvMainnetInfuraKey,
	EnvKovanInfuraKey,
	EnvRopstenInfuraKey,
	EnvRinkebyInfuraKey,
}
