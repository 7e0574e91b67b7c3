package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/Mohsinsiddi/w3deploy/internal/config"
	"github.com/Mohsinsiddi/w3deploy/internal/env"
	"github.com/Mohsinsiddi/w3deploy/internal/secrets"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3deploy/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	envDir  string
	nodeEnv string
	verbose bool

	settings env.Settings
	cfg      *config.Config
	logger   = newLogger("info", false)
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3deploy",
	Short: "Contract deploy configuration",
	Long: `w3deploy holds the compiler settings and network table used to deploy
contracts, built from environment variables.

Variables are read from the process environment first, then from
dotenv-flow files in --env-dir (.env, .env.local, .env.<NODE_ENV>,
.env.<NODE_ENV>.local) and, with W3DEPLOY_KEYRING=true, from the OS keychain.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		settings, err = env.LoadSettings()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if cmd.Flags().Changed("env-dir") {
			settings.EnvDir = envDir
		}
		if cmd.Flags().Changed("node-env") {
			settings.NodeEnv = nodeEnv
		}
		logger = newLogger(settings.LogLevel, verbose)

		var keychain env.Source
		if settings.Keyring {
			keychain = secrets.Open(config.SecretVars)
		}
		src, err := env.Resolve(settings, keychain, logger)
		if err != nil {
			return fmt.Errorf("resolving environment: %w", err)
		}

		for _, key := range config.EnvVars {
			_, ok := src.Lookup(key)
			logger.Debug("deploy variable", "name", key, "set", ok)
		}

		cfg = config.Load(src)
		for _, w := range cfg.Warnings() {
			logger.Debug("config warning", "msg", w)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())
		stop()
		os.Exit(1)
	}
}

// newLogger returns a stderr logger at level; verbose forces debug.
// Unknown levels fall back to info.
func newLogger(level string, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "w3deploy",
		Level:  lvl,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envDir, "env-dir", ".", "directory holding the .env files (env: W3DEPLOY_ENV_DIR)")
	rootCmd.PersistentFlags().StringVar(&nodeEnv, "node-env", "", "selects .env.<node-env> files (env: NODE_ENV)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		configCmd,
		networkCmd,
		secretCmd,
		verifyCmd,
	)
}
