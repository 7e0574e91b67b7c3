package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

// Well-known Hardhat/Anvil test account #0. Never fund on mainnet.
const fullDotenv = `ETHERSCAN_API_KEY=etherscan-key
DEPLOYER_PRIVATE_KEY=ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80
DEPLOYER_ACCOUNT=0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266
GAS_PRICE=20000000000
MAINNET_INFURA_API_KEY=mainnet-key
KOVAN_INFURA_API_KEY=kovan-key
ROPSTEN_INFURA_API_KEY=ropsten-key
RINKEBY_INFURA_API_KEY=rinkeby-key
`

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "w3deploy-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "w3deploy")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

// runCLI runs the binary with a clean environment whose only deploy
// variables come from the .env files in envDir.
func runCLI(t *testing.T, envDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = []string{
		"HOME=" + envDir,
		"PATH=" + os.Getenv("PATH"),
		"W3DEPLOY_ENV_DIR=" + envDir,
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func writeDotenv(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestVersionFlag(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "w3deploy")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "--help")
	require.NoError(t, err)
	for _, sub := range []string{"config", "network", "secret", "verify"} {
		assert.Contains(t, out, sub)
	}
	assert.Contains(t, out, "--env-dir")
}

func TestNetworkList(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "network", "list")
	require.NoError(t, err)
	for _, n := range []string{"mainnet", "kovan", "ropsten", "rinkeby"} {
		assert.Contains(t, out, n)
	}
	assert.Contains(t, out, "4 networks total")
}

func TestConfigShowJSONRedacted(t *testing.T) {
	dir := t.TempDir()
	writeDotenv(t, dir, ".env", fullDotenv)

	out, err := runCLI(t, dir, "config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version": "0.6.12"`)
	assert.Contains(t, out, `"network_id": "42"`)
	assert.NotContains(t, out, "kovan-key")
	assert.NotContains(t, out, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
}

func TestConfigValidateEmptyEnvFails(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "config", "validate")
	require.Error(t, err)
	assert.Contains(t, out, "GAS_PRICE is not set")
	assert.Contains(t, out, "is required")
}

func TestConfigValidateFullEnv(t *testing.T) {
	dir := t.TempDir()
	writeDotenv(t, dir, ".env", fullDotenv)

	out, err := runCLI(t, dir, "config", "validate")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Configuration valid")
}

func TestLocalFileOverridesGasPrice(t *testing.T) {
	dir := t.TempDir()
	writeDotenv(t, dir, ".env", fullDotenv)
	writeDotenv(t, dir, ".env.local", "GAS_PRICE=30000000000\n")

	out, err := runCLI(t, dir, "config", "show", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"gas_price": 30000000000`)
}

func TestFingerprintStable(t *testing.T) {
	dir := t.TempDir()
	writeDotenv(t, dir, ".env", fullDotenv)

	a, err := runCLI(t, dir, "config", "fingerprint")
	require.NoError(t, err)
	b, err := runCLI(t, dir, "config", "fingerprint")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(a), "0x"))
}

func TestNetworkCheckUnknown(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "network", "check", "goerli")
	require.Error(t, err)
	assert.Contains(t, out, "network not found")
}
