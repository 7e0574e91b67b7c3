package env

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the env prefix of the toolchain's own settings.
const Prefix = "W3DEPLOY"

// Settings controls how the toolchain itself behaves. Unlike the deploy
// variables these are only read from the process environment.
type Settings struct {
	// NodeEnv selects the .env.<NodeEnv> files. W3DEPLOY_NODE_ENV wins over NODE_ENV.
	NodeEnv  string `envconfig:"NODE_ENV"`
	EnvDir   string `split_words:"true" default:"."`
	LogLevel string `split_words:"true" default:"info"`
	Keyring  bool   `default:"false"`
}

// LoadSettings reads Settings from the process environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return Settings{}, fmt.Errorf("envconfig.Process: %w", err)
	}
	return s, nil
}
