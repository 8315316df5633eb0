package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/mptdb/cli/trie"
	"github.com/nspcc-dev/mptdb/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "mptdb\nVersion: %s\nGoVersion: %s\n",
		c.App.Version,
		runtime.Version(),
	)
}

// New creates an mptdb instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "mptdb"
	ctl.Version = config.Version
	ctl.Usage = "Merkle Patricia trie key-value database"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, trie.NewCommands()...)
	return ctl
}
