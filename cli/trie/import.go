package trie

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nspcc-dev/mptdb/pkg/core/mpt"
	"github.com/nspcc-dev/mptdb/pkg/services/metrics"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

func importPairs(ctx *cli.Context) error {
	if err := checkArgs(ctx, 1); err != nil {
		return cli.NewExitError(err, 1)
	}
	batch := ctx.Uint("batch")
	if batch == 0 {
		return cli.NewExitError("batch size must be positive", 1)
	}
	s, err := newSession(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer s.close()

	var in io.Reader = os.Stdin
	if path := ctx.Args().First(); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		defer f.Close()
		in = f
	}

	prometheus := metrics.NewPrometheusService(s.cfg.Prometheus, s.log)
	pprof := metrics.NewPprofService(s.cfg.Pprof, s.log)
	for _, srv := range []*metrics.Service{prometheus, pprof} {
		if err := srv.Start(); err != nil {
			return cli.NewExitError(fmt.Errorf("failed to start %s service: %w", srv.Name(), err), 1)
		}
		defer srv.ShutDown()
	}

	tr, err := s.openMut(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	n, err := s.importFrom(tr, in, batch)
	if err != nil {
		s.abort(tr)
		return cli.NewExitError(err, 1)
	}
	r, err := s.commit(tr, true)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	s.log.Info("import finished", zap.Uint("entries", n), zap.Stringer("root", r))
	fmt.Fprintln(ctx.App.Writer, r.StringBE())
	return nil
}

// importFrom inserts "<key> <value>" lines from in, committing every batch
// entries. The key ends at the first space, the value is the rest of the
// line. Empty lines are skipped, a line without a value removes the key.
func (s *session) importFrom(tr mpt.TrieMut, in io.Reader, batch uint) (uint, error) {
	var (
		n       uint
		line    int
		scanner = bufio.NewScanner(in)
	)
	scanner.Buffer(nil, 16*1024*1024)
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		k, v, _ := strings.Cut(text, " ")
		key, err := s.decode(k)
		if err != nil {
			return n, fmt.Errorf("line %d: invalid key: %w", line, err)
		}
		value, err := s.decode(v)
		if err != nil {
			return n, fmt.Errorf("line %d: invalid value: %w", line, err)
		}
		if err := tr.Insert(key, value); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
		if n%batch == 0 {
			r, err := s.commit(tr, false)
			if err != nil {
				return n, err
			}
			s.log.Debug("batch committed", zap.Uint("entries", n), zap.Stringer("root", r))
		}
	}
	return n, scanner.Err()
}
