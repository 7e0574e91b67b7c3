package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3deploy/internal/ui"
	"github.com/Mohsinsiddi/w3deploy/internal/verify"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check contract verification on Etherscan",
}

var verifyStatusCmd = &cobra.Command{
	Use:   "status <network> <address>",
	Short: "Compare a verified contract's compiler settings with the config",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := cfg.Network(args[0])
		if err != nil {
			return err
		}
		client, err := verify.NewClient(cfg.APIKeys.Etherscan, n.NetworkID)
		if err != nil {
			return err
		}

		sc, err := client.GetSourceCode(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		fmt.Println(ui.KeyValueBlock(sc.ContractName, [][2]string{
			{"network", n.Name},
			{"address", args[1]},
			{"compiler", sc.CompilerVersion},
			{"optimizer", sc.OptimizationUsed},
			{"runs", sc.Runs},
			{"evm version", sc.EVMVersion},
			{"license", sc.LicenseType},
		}))

		mismatches := verify.Compare(sc, cfg.Compilers.Solc)
		if len(mismatches) == 0 {
			fmt.Println(ui.Success("Verified with the configured compiler settings"))
			return nil
		}
		for _, m := range mismatches {
			fmt.Println(ui.Err(fmt.Sprintf("%s: configured %s, verified with %s", m.Field, m.Want, m.Got)))
		}
		return fmt.Errorf("%d compiler settings differ", len(mismatches))
	},
}

func init() {
	verifyCmd.AddCommand(verifyStatusCmd)
}
