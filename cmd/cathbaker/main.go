package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/japaniel/cathbaker/pkg/dataset"
	"github.com/japaniel/cathbaker/pkg/db"
	"github.com/japaniel/cathbaker/pkg/funfam"
	"github.com/japaniel/cathbaker/pkg/logger"
	"github.com/japaniel/cathbaker/pkg/report"
	"github.com/rs/zerolog"
)

const (
	datasetName    = "02.medium"
	defaultVersion = "v4_2_0"
)

type options struct {
	version   string
	out       string
	noCache   bool
	baseURL   string
	dbPath    string
	pattern   string
	logLevel  string
	cacheDir  string
	batchSize int
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("cathbaker", flag.ContinueOnError)
	opts := options{}
	fs.StringVar(&opts.version, "version", defaultVersion, "CATH version to build the dataset from")
	fs.StringVar(&opts.out, "out", filepath.Join("dataset", datasetName), "Output directory for the report and alignments")
	fs.BoolVar(&opts.noCache, "nocache", false, "Re-fetch the Funfam listing even when a cache file exists")
	fs.StringVar(&opts.baseURL, "base-url", funfam.DefaultBaseURL, "Base URL of the CATH API")
	fs.StringVar(&opts.dbPath, "db", "", "Path to the SQLite catalog (default <out>/"+datasetName+".db, \"-\" disables)")
	fs.StringVar(&opts.pattern, "pattern", "*", "Only keep superfamilies matching this glob")
	fs.StringVar(&opts.cacheDir, "cache-dir", "", "Directory holding the cached Funfam listing (default working directory)")
	fs.StringVar(&opts.logLevel, "loglevel", "info", "Log level (trace, debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.dbPath == "" {
		opts.dbPath = filepath.Join(opts.out, datasetName+".db")
	} else if opts.dbPath == "-" {
		opts.dbPath = ""
	}
	opts.batchSize = 100
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	log, err := logger.New(os.Stdout, opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, log); err != nil {
		log.Fatal().Err(err).Msg("Dataset build failed")
	}
}

func run(ctx context.Context, opts options, log zerolog.Logger) error {
	started := time.Now()

	cfg := dataset.DefaultConfig()
	cfg.SuperfamilyPattern = opts.pattern
	cfg.AlignmentDir = filepath.Join(opts.out, "alignments")
	if err := os.MkdirAll(cfg.AlignmentDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	client := funfam.NewClient(opts.baseURL)
	loader := funfam.NewLoader(client, opts.cacheDir)
	loader.NoCache = opts.noCache
	loader.Log = log

	res, err := dataset.New(cfg, loader, client, log).Run(ctx, opts.version)
	if err != nil {
		return err
	}

	logger.Title(log, "WRITING DATASETS")
	logger.KV(log, "Total funfams in dataset:", len(res.Rows))
	reportPath := filepath.Join(opts.out, report.FileName(datasetName, "all"))
	if err := report.WriteFile(reportPath, res.Rows); err != nil {
		return err
	}
	log.Info().Str("file", reportPath).Msg("Report written")

	if opts.dbPath != "" {
		if err := writeCatalog(opts, res, started, log); err != nil {
			return err
		}
	}

	logger.Title(log, "DONE")
	return nil
}

func writeCatalog(opts options, res *dataset.Result, started time.Time, log zerolog.Logger) error {
	conn, err := db.Open(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer conn.Close()

	runID, err := db.SaveResult(conn, res, started, opts.batchSize)
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	log.Info().Str("file", opts.dbPath).Int64("run_id", runID).Int("alignments", len(res.Fetched)).Msg("Catalog written")
	return nil
}
