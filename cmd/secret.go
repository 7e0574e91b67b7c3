package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Mohsinsiddi/w3deploy/internal/config"
	"github.com/Mohsinsiddi/w3deploy/internal/secrets"
	"github.com/Mohsinsiddi/w3deploy/internal/ui"
	"github.com/spf13/cobra"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Store deploy secrets in the OS keychain",
	Long: `Store API keys and the deployer private key in the OS keychain.
Stored values are used when W3DEPLOY_KEYRING=true and the variable is set
neither in the environment nor in a .env file.

Storable variables: ` + strings.Join(config.SecretVars, ", "),
}

var secretSetCmd = &cobra.Command{
	Use:   "set <VARIABLE>",
	Short: "Store a secret (value read from stdin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToUpper(args[0])
		fmt.Fprintf(os.Stderr, "Value for %s: ", key)
		value, err := readSecret(bufio.NewReader(cmd.InOrStdin()))
		if err != nil {
			return err
		}
		if err := secrets.Open(config.SecretVars).Set(key, value); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Stored %s in the keychain", key)))
		return nil
	},
}

var secretRemoveCmd = &cobra.Command{
	Use:     "rm <VARIABLE>",
	Aliases: []string{"remove"},
	Short:   "Remove a stored secret",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToUpper(args[0])
		if err := secrets.Open(config.SecretVars).Remove(key); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed %s from the keychain", key)))
		return nil
	},
}

// readSecret reads one line and rejects empty values.
func readSecret(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading value: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("empty value")
	}
	return line, nil
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretRemoveCmd)
}
