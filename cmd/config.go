package cmd

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3deploy/internal/config"
	"github.com/Mohsinsiddi/w3deploy/internal/ui"
	"github.com/spf13/cobra"
)

var showFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the deploy configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the configuration (secrets redacted)",
	Long: `Print the compiler settings, plugins and network table.

Formats: text (default), json, toml. API keys and private keys are never
printed; endpoints show the key as ***.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := renderConfig(cfg, showFormat)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every network is fully configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, w := range cfg.Warnings() {
			fmt.Println(ui.Warn(w))
		}
		err := cfg.Validate()
		if err == nil {
			fmt.Println(ui.Success(fmt.Sprintf("Configuration valid (%d networks)", len(cfg.Networks))))
			return nil
		}
		for _, line := range validationLines(err) {
			fmt.Println(ui.Err(line))
		}
		return err
	},
}

var configFingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print a hash of the configuration",
	Long: `Print the keccak-256 hash of the redacted configuration. The same
environment always yields the same fingerprint, so it can be compared
across machines or CI runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fp, err := cfg.Fingerprint()
		if err != nil {
			return err
		}
		fmt.Println(fp)
		return nil
	},
}

func renderConfig(c *config.Config, format string) (string, error) {
	m := c.Export()
	switch strings.ToLower(format) {
	case "", "text":
		return renderConfigText(c), nil
	case "json":
		data, err := m.JSON()
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "toml":
		data, err := m.TOML()
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or toml)", format)
	}
}

func renderConfigText(c *config.Config) string {
	solc := c.Compilers.Solc
	var sb strings.Builder

	sb.WriteString(ui.KeyValueBlock("Compiler", [][2]string{
		{"solc", solc.Version},
		{"optimizer", ui.YesNo(solc.Optimizer.Enabled)},
		{"runs", strconv.Itoa(solc.Optimizer.Runs)},
		{"evm version", solc.EVMVersion},
		{"plugins", strings.Join(c.Plugins, ", ")},
		{"etherscan api key", ui.YesNo(c.APIKeys.Etherscan != "")},
	}))
	sb.WriteString("\n\n")
	sb.WriteString(networkTable(c).Render())
	return sb.String()
}

func networkTable(c *config.Config) *ui.Table {
	t := ui.NewTable([]ui.Column{
		{Title: "Network", Width: 9},
		{Title: "ID", Width: 4},
		{Title: "Endpoint", Width: 34},
		{Title: "Gas price", Width: 10},
		{Title: "Gas", Width: 9},
		{Title: "Timeout", Width: 8},
		{Title: "Check", Width: 8},
		{Title: "From", Width: 14},
	})
	for _, name := range c.NetworkNames() {
		n := c.Networks[name]
		from := n.From
		if from == "" {
			from = "—"
		} else if len(from) > 10 {
			from = from[:6] + "…" + from[len(from)-4:]
		}
		t.AddRow(ui.Row{
			n.Name,
			n.NetworkID,
			n.Endpoint.Redacted(),
			ui.Gwei(new(big.Int).SetUint64(n.GasPrice)),
			strconv.FormatUint(n.Gas, 10),
			strconv.FormatUint(n.TimeoutBlocks, 10),
			n.CheckTimeout().String(),
			from,
		})
	}
	return t
}

// validationLines splits a joined validation error into one line per field.
func validationLines(err error) []string {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []string{err.Error()}
	}
	var lines []string
	for _, e := range joined.Unwrap() {
		if e == config.ErrInvalidConfig { //nolint:errorlint
			continue
		}
		lines = append(lines, strings.Split(e.Error(), "\n")...)
	}
	return lines
}

func init() {
	configShowCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "output format: text, json, toml")
	configCmd.AddCommand(configShowCmd, configValidateCmd, configFingerprintCmd)
}
