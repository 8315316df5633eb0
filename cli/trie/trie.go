/*
Package trie contains the CLI commands operating on a persisted trie.
*/
package trie

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/nspcc-dev/mptdb/cli/options"
	"github.com/nspcc-dev/mptdb/pkg/config"
	"github.com/nspcc-dev/mptdb/pkg/core/hashdb"
	"github.com/nspcc-dev/mptdb/pkg/core/mpt"
	"github.com/nspcc-dev/mptdb/pkg/core/storage"
	"github.com/nspcc-dev/mptdb/pkg/crypto/hash"
	"github.com/nspcc-dev/mptdb/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// RootFlag selects the root to start from instead of the latest persisted one.
var RootFlag = cli.StringFlag{
	Name:  "root, r",
	Usage: "hex-encoded root to open (the latest committed root by default)",
}

// HexFlag switches keys and values to hex encoding.
var HexFlag = cli.BoolFlag{
	Name:  "hex, x",
	Usage: "keys and values are hex-encoded in arguments and output",
}

// DigestsFlag allows dumping a trie with hashed keys.
var DigestsFlag = cli.BoolFlag{
	Name:  "digests",
	Usage: "allow dumping key digests when SecureKeys is enabled (the output can't be imported back)",
}

// NewCommands returns 'trie' command.
func NewCommands() []cli.Command {
	flags := []cli.Flag{options.ConfigFile, options.Debug, RootFlag, HexFlag}
	importFlags := append([]cli.Flag{
		cli.UintFlag{
			Name:  "batch, b",
			Value: 1000,
			Usage: "number of entries to commit at once",
		},
	}, flags...)
	return []cli.Command{{
		Name:  "trie",
		Usage: "Operations with the trie database",
		Subcommands: []cli.Command{
			{
				Name:      "put",
				Usage:     "Insert a key-value pair and commit",
				UsageText: "mptdb trie put [--config-file file] [--root hash] [--hex] <key> <value>",
				Description: `Inserts the pair into the trie, commits it and prints the new root.
   An empty value removes the key.`,
				Action: put,
				Flags:  flags,
			},
			{
				Name:      "get",
				Usage:     "Print the value of a key",
				UsageText: "mptdb trie get [--config-file file] [--root hash] [--hex] <key>",
				Action:    get,
				Flags:     flags,
			},
			{
				Name:      "delete",
				Usage:     "Remove a key and commit",
				UsageText: "mptdb trie delete [--config-file file] [--root hash] [--hex] <key>",
				Action:    remove,
				Flags:     flags,
			},
			{
				Name:      "root",
				Usage:     "Print the latest committed root",
				UsageText: "mptdb trie root [--config-file file]",
				Action:    root,
				Flags:     flags,
			},
			{
				Name:      "dump",
				Usage:     "Print all key-value pairs in key order",
				UsageText: "mptdb trie dump [--config-file file] [--root hash] [--hex] [--digests]",
				Description: `Prints one "<key> <value>" pair per line, the output can be passed to
   import. Without --hex keys can't contain spaces and neither keys nor
   values can contain line breaks, use --hex for arbitrary data.
   Keys are digests if SecureKeys is enabled, import would hash them once
   more, so such a dump requires --digests.`,
				Action: dump,
				Flags:  append([]cli.Flag{DigestsFlag}, flags...),
			},
			{
				Name:      "stats",
				Usage:     "Print node database statistics",
				UsageText: "mptdb trie stats [--config-file file]",
				Action:    stats,
				Flags:     []cli.Flag{options.ConfigFile, options.Debug},
			},
			{
				Name:      "import",
				Usage:     "Insert key-value pairs from a file",
				UsageText: "mptdb trie import [--config-file file] [--root hash] [--hex] [--batch n] <file>",
				Description: `Reads "<key> <value>" pairs (one per line, "-" for standard input),
   committing every --batch entries. The key ends at the first space, the
   rest of the line is the value (kept as is). Prometheus and pprof
   services are running during import if enabled in the configuration.`,
				Action: importPairs,
				Flags:  importFlags,
			},
		},
	}}
}

// session is an opened trie database.
type session struct {
	cfg    config.ApplicationConfiguration
	log    *zap.Logger
	db     *hashdb.DB
	trieCf mpt.Config
	hex    bool
}

func newSession(ctx *cli.Context) (*session, error) {
	cfg, err := options.GetConfigFromContext(ctx)
	if err != nil {
		return nil, err
	}
	log, _, err := options.HandleLoggingParams(ctx.Bool("debug"), cfg.ApplicationConfiguration)
	if err != nil {
		return nil, err
	}
	hasher, err := hash.FromName(cfg.ApplicationConfiguration.Hasher)
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(cfg.ApplicationConfiguration.DBConfiguration)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	s := &session{
		cfg: cfg.ApplicationConfiguration,
		log: log,
		db:  hashdb.New(store, hasher, log),
		hex: ctx.Bool("hex"),
		trieCf: mpt.Config{
			Log: log,
		},
	}
	if s.cfg.KeepHistory {
		s.trieCf.Mode = mpt.ModeAll
	}
	if s.cfg.NodeCacheSize > 0 {
		s.trieCf.Cache, err = mpt.NewNodeCache(s.cfg.NodeCacheSize)
		if err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) close() {
	if err := s.db.Close(); err != nil {
		s.log.Error("failed to close store", zap.Error(err))
	}
	_ = s.log.Sync()
}

// startRoot returns the --root flag value or the latest committed root.
func (s *session) startRoot(ctx *cli.Context) (util.Uint256, error) {
	if r := ctx.String("root"); r != "" {
		return util.Uint256DecodeStringBE(r)
	}
	r, ok, err := s.db.LatestRoot()
	if err != nil {
		return r, err
	}
	if !ok {
		return mpt.EmptyRoot(s.db.Hasher(), nil), nil
	}
	return r, nil
}

func (s *session) openMut(ctx *cli.Context) (mpt.TrieMut, error) {
	r, err := s.startRoot(ctx)
	if err != nil {
		return nil, err
	}
	tr, err := mpt.NewTrieDBMutFromExisting(s.db, r, s.trieCf)
	if err != nil {
		return nil, err
	}
	if s.cfg.SecureKeys {
		return mpt.NewSecTrieDBMut(tr), nil
	}
	return tr, nil
}

type reader interface {
	Get(key []byte) ([]byte, error)
	Walk(f func(key, value []byte) bool) error
}

func (s *session) openReader(ctx *cli.Context) (reader, error) {
	r, err := s.startRoot(ctx)
	if err != nil {
		return nil, err
	}
	if s.cfg.SecureKeys {
		return mpt.NewSecTrieDB(s.db, r, s.trieCf), nil
	}
	return mpt.NewTrieDB(s.db, r, s.trieCf), nil
}

// commit computes the new root, saves it as the latest one and persists it
// along with all nodes. The last commit closes tr, so that references held
// by it are released before persisting.
func (s *session) commit(tr mpt.TrieMut, last bool) (util.Uint256, error) {
	r, err := tr.Root()
	if err != nil {
		return r, err
	}
	if err := s.db.PutRoot(r); err != nil {
		return r, err
	}
	if last {
		if err := tr.Close(); err != nil {
			return r, err
		}
	}
	if _, err := s.db.Persist(); err != nil {
		return r, err
	}
	return r, nil
}

// abort drops uncommitted changes of tr and persists the release of roots
// it has committed before.
func (s *session) abort(tr mpt.TrieMut) {
	err := tr.Close()
	if err == nil {
		_, err = s.db.Persist()
	}
	if err != nil {
		s.log.Error("failed to release trie", zap.Error(err))
	}
}

func (s *session) decode(arg string) ([]byte, error) {
	if !s.hex {
		return []byte(arg), nil
	}
	return hex.DecodeString(arg)
}

func (s *session) encode(b []byte) string {
	if !s.hex {
		return string(b)
	}
	return hex.EncodeToString(b)
}

func checkArgs(ctx *cli.Context, n int) error {
	if ctx.NArg() != n {
		return fmt.Errorf("expected %d arguments, got %d", n, ctx.NArg())
	}
	return nil
}

func put(ctx *cli.Context) error {
	if err := checkArgs(ctx, 2); err != nil {
		return cli.NewExitError(err, 1)
	}
	return mutate(ctx, func(s *session, tr mpt.TrieMut) error {
		key, err := s.decode(ctx.Args().Get(0))
		if err != nil {
			return fmt.Errorf("invalid key: %w", err)
		}
		value, err := s.decode(ctx.Args().Get(1))
		if err != nil {
			return fmt.Errorf("invalid value: %w", err)
		}
		return tr.Insert(key, value)
	})
}

func remove(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return cli.NewExitError(err, 1)
	}
	return mutate(ctx, func(s *session, tr mpt.TrieMut) error {
		key, err := s.decode(ctx.Args().First())
		if err != nil {
			return fmt.Errorf("invalid key: %w", err)
		}
		return tr.Remove(key)
	})
}

func mutate(ctx *cli.Context, f func(*session, mpt.TrieMut) error) error {
	s, err := newSession(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.close()

	tr, err := s.openMut(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if err := f(s, tr); err != nil {
		return cli.NewExitError(err, 1)
	}
	r, err := s.commit(tr, true)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, r.StringBE())
	return nil
}

func get(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return cli.NewExitError(err, 1)
	}
	s, err := newSession(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.close()

	key, err := s.decode(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid key: %w", err), 1)
	}
	tr, err := s.openReader(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	value, err := tr.Get(key)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if value == nil {
		return cli.NewExitError(errors.New("key not found"), 1)
	}
	fmt.Fprintln(ctx.App.Writer, s.encode(value))
	return nil
}

func root(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.close()

	r, err := s.startRoot(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, r.StringBE())
	return nil
}

func dump(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.close()

	if s.cfg.SecureKeys && !ctx.Bool("digests") {
		return cli.NewExitError("keys are hashed with SecureKeys, use --digests to dump them anyway", 1)
	}
	tr, err := s.openReader(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var badPair error
	err = tr.Walk(func(k, v []byte) bool {
		if !s.hex {
			if bytes.ContainsAny(k, " \r\n") || bytes.ContainsAny(v, "\r\n") {
				badPair = fmt.Errorf("pair with key %q can't be dumped without --hex", k)
				return false
			}
		}
		fmt.Fprintf(ctx.App.Writer, "%s %s\n", s.encode(k), s.encode(v))
		return true
	})
	if err == nil {
		err = badPair
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return nil
}

func stats(ctx *cli.Context) error {
	s, err := newSession(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.close()

	st, err := s.db.Stats()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "nodes: %d\nbytes: %d\nreferences: %d\n", st.Nodes, st.Bytes, st.References)
	return nil
}
