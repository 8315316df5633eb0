/*
Package config contains the YAML configuration of the mptdb tool.
*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nspcc-dev/mptdb/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"gopkg.in/yaml.v3"
)

// Version is the version of the tool, set at build time.
var Version string

// Config top level struct representing the config.
type Config struct {
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Default returns the configuration used when no config file is given:
// Keccak-256 in-memory trie with the default node cache.
func Default() Config {
	return Config{
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{
				Type: dbconfig.InMemoryDB,
			},
			Hasher:        hash.Keccak256Name,
			NodeCacheSize: DefaultNodeCacheSize,
		},
	}
}

// LoadFile loads config from the provided path. Unknown fields are treated
// as errors, omitted ones are taken from Default.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
		}
		return Config{}, fmt.Errorf("unable to stat config: %w", err)
	}
	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return Parse(configData)
}

// Parse decodes YAML config data over Default and validates the result.
func Parse(configData []byte) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	err = config.ApplicationConfiguration.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid ApplicationConfiguration: %w", err)
	}
	return config, nil
}
