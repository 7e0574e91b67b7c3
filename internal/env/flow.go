package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// nodeEnvTest disables .env.local so test runs stay reproducible.
const nodeEnvTest = "test"

// FlowFiles lists the dotenv files considered for nodeEnv, lowest priority first.
func FlowFiles(nodeEnv string) []string {
	files := []string{".env"}
	if nodeEnv != nodeEnvTest {
		files = append(files, ".env.local")
	}
	if nodeEnv != "" {
		files = append(files, ".env."+nodeEnv, ".env."+nodeEnv+".local")
	}
	return files
}

// LoadFlow reads the dotenv-flow files from dir and merges them, later files
// overriding earlier ones. Missing files are skipped. It returns the merged
// values and the paths that were actually read.
func LoadFlow(dir, nodeEnv string) (Map, []string, error) {
	merged := Map{}
	var read []string

	for _, name := range FlowFiles(nodeEnv) {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return nil, nil, fmt.Errorf("stat %s: %w", path, err)
		}

		values, err := godotenv.Read(path)
		if err != nil {
			return nil, nil, fmt.Errorf("godotenv.Read %s: %w", path, err)
		}
		for k, v := range values {
			merged[k] = v
		}
		read = append(read, path)
	}

	return merged, read, nil
}

// Resolve builds the Source the configuration is loaded from: the process
// environment first, then the dotenv-flow files, then the keychain (nil
// keychain means disabled).
func Resolve(s Settings, keychain Source, logger *log.Logger) (Source, error) {
	files, read, err := LoadFlow(s.EnvDir, s.NodeEnv)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		for _, path := range read {
			logger.Debug("loaded env file", "path", path)
		}
		if len(read) == 0 {
			logger.Debug("no env files found", "dir", s.EnvDir, "node_env", s.NodeEnv)
		} else {
			logger.Debug("env file keys", "keys", files.Keys())
		}
	}

	if !s.Keyring {
		keychain = nil
	}
	return Chain(OS(), files, keychain), nil
}
