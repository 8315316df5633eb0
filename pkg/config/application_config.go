package config

import (
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptdb/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
)

// DefaultNodeCacheSize is the number of decoded nodes cached when
// NodeCacheSize is not set.
const DefaultNodeCacheSize = 4096

// ApplicationConfiguration config specific to the trie database.
type ApplicationConfiguration struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	// Hasher is the name of the node hash function, see hash.FromName.
	Hasher string `yaml:"Hasher"`
	// SecureKeys enables key hashing before insertion into the trie.
	SecureKeys bool `yaml:"SecureKeys"`
	// KeepHistory disables removal of replaced nodes, so every committed
	// root stays resolvable.
	KeepHistory bool `yaml:"KeepHistory"`
	// NodeCacheSize is the number of decoded nodes kept in memory, negative
	// value disables the cache.
	NodeCacheSize int          `yaml:"NodeCacheSize"`
	LogLevel      string       `yaml:"LogLevel"`
	LogPath       string       `yaml:"LogPath"`
	Pprof         BasicService `yaml:"Pprof"`
	Prometheus    BasicService `yaml:"Prometheus"`
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	switch a.DBConfiguration.Type {
	case dbconfig.InMemoryDB, dbconfig.LevelDB, dbconfig.BoltDB, dbconfig.BadgerDB:
	default:
		return fmt.Errorf("unknown DB type: %q", a.DBConfiguration.Type)
	}
	if _, err := hash.FromName(a.Hasher); err != nil {
		return fmt.Errorf("invalid Hasher: %w", err)
	}
	if a.Pprof.Enabled && len(a.Pprof.Addresses) == 0 {
		return errors.New("no addresses for enabled Pprof service")
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return errors.New("no addresses for enabled Prometheus service")
	}
	return nil
}
