// Command rntool inspects RNTuple description documents.
//
// Usage:
//
//	rntool index  [flags] FILE...
//	rntool layout [flags] FILE...
//	rntool pages  [flags] FILE...
//	rntool store  [flags] FILE...
//
// Each FILE is processed independently; a file which fails to process is
// reported on stderr and does not prevent the others from being processed.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	color "github.com/logrusorgru/aurora/v3"
	"golang.org/x/sync/errgroup"

	"github.com/segmentio/rntuple-go"
	"github.com/segmentio/rntuple-go/format"
	"github.com/segmentio/rntuple-go/internal/debug"
	"github.com/segmentio/rntuple-go/internal/metrics"
)

type commandFunc func(ctx context.Context, cmd *command, path string, f *format.File) error

var commands = map[string]struct {
	help string
	run  commandFunc
	// setup, when set, runs once before any file is processed.
	setup func(ctx context.Context, cmd *command) (func(), error)
}{
	"index":  {help: "Print the field, column and page tree of each RNTuple", run: indexCommand},
	"layout": {help: "Write a speedscope profile of the byte layout of each file", run: layoutCommand},
	"pages":  {help: "Print the size and number of elements of every page", run: pagesCommand},
	"store":  {help: "Write the relational rows of each file to PostgreSQL", run: storeCommand, setup: storeSetup},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func usage() {
	perrorf("usage: rntool COMMAND [flags] FILE...")
	for _, name := range []string{"index", "layout", "pages", "store"} {
		_, _ = fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, commands[name].help)
	}
}

func run(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	name := args[0]
	sub, ok := commands[name]
	if !ok {
		perrorf("unknown command %q", name)
		usage()
		return 2
	}

	cmd, paths, err := parseCommand(name, args[1:])
	if err != nil {
		if err != flag.ErrHelp {
			perrorf("%s", err)
		}
		return 2
	}
	cmd.stdout = stdout

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if sub.setup != nil {
		teardown, err := sub.setup(ctx, cmd)
		if err != nil {
			perrorf("%s: %s", name, err)
			return 1
		}
		defer teardown()
	}

	failures := cmd.runFiles(ctx, paths, sub.run)

	if cmd.config.MetricsFile != "" {
		if err := cmd.metrics.WriteTextfile(cmd.config.MetricsFile); err != nil {
			perrorf("could not write metrics: %s", err)
		} else {
			pdebugf("wrote metrics to %s", cmd.config.MetricsFile)
		}
	}

	if failures > 0 {
		perrorf("%d of %d files failed", failures, len(paths))
		return 1
	}
	return 0
}

func parseCommand(name string, args []string) (*command, []string, error) {
	fs := flag.NewFlagSet("rntool "+name, flag.ContinueOnError)

	var (
		configPath    = fs.String("config", "", "YAML configuration file")
		workers       = fs.Int("j", 0, "Number of files processed concurrently")
		debugMode     = fs.Bool("debug", false, "Display debugging logs")
		metricsFile   = fs.String("metrics-file", "", "Write prometheus metrics to the given file")
		outputDir     = fs.String("o", "", "Write one report per file to the given directory")
		compression   = fs.String("compression", "", "Compression codec of layout documents")
		uniqueFields  = fs.Bool("unique-fields", false, "Use one frame per field instead of one per name and type")
		uniqueColumns = fs.Bool("unique-columns", false, "Use one frame per column instead of one per column type")
		csvOutput     = fs.Bool("csv", false, "Print page statistics as CSV")
		databaseURL   = fs.String("database", "", "PostgreSQL connection string")
		dataset       = fs.String("dataset", "", "Dataset the stored files belong to")
	)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() == 0 {
		return nil, nil, fmt.Errorf("rntool %s: no input files", name)
	}

	c, err := loadConfig(*configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading configuration: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "j":
			c.Workers = *workers
		case "metrics-file":
			c.MetricsFile = *metricsFile
		case "o":
			c.OutputDir = *outputDir
		case "compression":
			c.Compression = *compression
		case "unique-fields":
			c.UniqueFields = *uniqueFields
		case "unique-columns":
			c.UniqueColumns = *uniqueColumns
		case "database":
			c.DatabaseURL = *databaseURL
		case "dataset":
			c.Dataset = *dataset
		}
	})

	if err := c.validate(); err != nil {
		return nil, nil, err
	}

	debug.Toggle(*debugMode)

	return &command{
		name:    name,
		config:  c,
		csv:     *csvOutput,
		metrics: metrics.NewRegistry(),
	}, fs.Args(), nil
}

type command struct {
	name    string
	config  *config
	csv     bool
	metrics *metrics.Registry
	stdout  io.Writer
	mutex   sync.Mutex
	store   rowStore
}

// runFiles processes paths concurrently and returns the number of files which
// failed.
func (cmd *command) runFiles(ctx context.Context, paths []string, run commandFunc) int {
	failures := int32(0)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cmd.config.Workers)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			start := time.Now()
			err := ctx.Err()
			if err == nil {
				err = cmd.runFile(ctx, path, run)
			}
			cmd.metrics.RecordFile(cmd.name, err == nil, rntuple.ErrorKind(err), time.Since(start))
			if err != nil {
				atomic.AddInt32(&failures, 1)
				perrorf("%s: %s", path, err)
			} else {
				pdebugf("%s: done in %s", path, time.Since(start).Round(time.Millisecond))
			}
			return nil
		})
	}

	_ = g.Wait()
	return int(failures)
}

func (cmd *command) runFile(ctx context.Context, path string, run commandFunc) error {
	f, err := readFile(path)
	if err != nil {
		return err
	}
	return run(ctx, cmd, path, f)
}

// indexFile builds the indexes of f and records their size.
func (cmd *command) indexFile(f *format.File) (map[string]*rntuple.Index, error) {
	indexes, err := rntuple.IndexFile(f)
	if err != nil {
		return nil, err
	}

	for _, name := range sortedNames(indexes) {
		idx := indexes[name]
		report := idx.Report()
		cmd.metrics.RecordIndex(idx.Schema().NumFields(), idx.Schema().NumColumns(), report.NumPages, report.NumBytes, len(report.SharedPages))
		for _, shared := range report.SharedPages {
			pdebugf("%s: %s: %s", f.Name, name, shared)
		}
	}

	return indexes, nil
}

// output writes the report of the input file at path. Reports go to a file
// named after the input in the output directory when one is configured, and
// to stdout otherwise; writes to stdout are serialized so that the reports of
// concurrent files do not interleave.
func (cmd *command) output(path, suffix string, write func(io.Writer) error) error {
	if dir := cmd.config.OutputDir; dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		name := filepath.Join(dir, baseName(path)+suffix)
		file, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := write(file); err != nil {
			file.Close()
			return err
		}
		pdebugf("%s: wrote %s", path, name)
		return file.Close()
	}

	buf := new(bytes.Buffer)
	if err := write(buf); err != nil {
		return err
	}

	cmd.mutex.Lock()
	defer cmd.mutex.Unlock()
	_, err := buf.WriteTo(cmd.stdout)
	return err
}

func perrorf(format string, args ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	_, _ = fmt.Fprintf(os.Stderr, color.Red(format).String(), args...)
}

func pdebugf(format string, args ...interface{}) {
	debug.Format(color.Gray(12, format).String(), args...)
}
