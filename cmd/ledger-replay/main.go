/*
main.go - Command-line entry point

PURPOSE:
  Replays a transaction log and prints the final state of every client.

STARTUP SEQUENCE:
  1. Load configuration (environment, then flags)
  2. Open the input file (failure here is the only fatal replay error)
  3. Replay every record; diagnostics stream to stderr as they happen
  4. Print the summary table to stdout
  5. Optionally export to SQLite and serve the snapshot over HTTP

EXIT CODES:
  0  the whole input was processed, even if records were rejected
  1  the input could not be read, or an export/serve step failed
  2  usage error

EXAMPLES:
  ledger-replay transactions.csv > accounts.csv
  ledger-replay -no-color transactions.csv 2> rejected.log
  ledger-replay -db=replays.db -serve=:8080 transactions.csv

SEE ALSO:
  - config/config.go: Flags and environment variables
  - replay/engine.go: The replay loop
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/warp/ledger-replay/api"
	"github.com/warp/ledger-replay/config"
	"github.com/warp/ledger-replay/ledger/store"
	"github.com/warp/ledger-replay/logging"
	"github.com/warp/ledger-replay/replay"
	"github.com/warp/ledger-replay/report"
	"github.com/warp/ledger-replay/store/sqlite"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := config.Load("ledger-replay", args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "ledger-replay: %v\n", err)
		return exitUsage
	}

	logger, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "ledger-replay: %v\n", err)
		return exitUsage
	}
	defer logger.Sync()

	input, err := os.Open(cfg.InputPath)
	if err != nil {
		fmt.Fprintf(stderr, "ledger-replay: %v\n", err)
		return exitError
	}
	defer input.Close()

	clients := store.NewMemory()
	diagnostics := report.ForTerminal(stderr, cfg.NoColor)

	var collected *replay.Collector
	if cfg.DBPath != "" || cfg.ServeAddr != "" {
		collected = &replay.Collector{}
	}

	engine := replay.NewEngine(clients, replay.Tee(diagnostics, collected), logger)
	engine.SkipHeader = cfg.SkipHeader

	res, err := engine.Run(input)
	if err != nil {
		fmt.Fprintf(stderr, "ledger-replay: %v\n", err)
		return exitError
	}

	accounts := clients.Snapshot()
	if err := report.WriteSummary(stdout, accounts); err != nil {
		fmt.Fprintf(stderr, "ledger-replay: write summary: %v\n", err)
		return exitError
	}

	if cfg.DBPath != "" {
		if err := export(ctx, cfg.DBPath, sqlite.NewRun(cfg.InputPath, res), clients, collected, logger); err != nil {
			fmt.Fprintf(stderr, "ledger-replay: export: %v\n", err)
			return exitError
		}
	}

	if cfg.ServeAddr != "" {
		h := api.NewHandler(api.Snapshot{
			Input:       cfg.InputPath,
			Result:      res,
			Accounts:    accounts,
			Diagnostics: collected.Diagnostics,
		})
		if err := api.Serve(ctx, cfg.ServeAddr, api.NewRouter(h, logger), logger); err != nil {
			fmt.Fprintf(stderr, "ledger-replay: serve: %v\n", err)
			return exitError
		}
	}

	return exitOK
}

func export(ctx context.Context, path string, run sqlite.Run, clients *store.Memory, collected *replay.Collector, logger *zap.Logger) error {
	db, err := sqlite.New(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Export(ctx, run, clients.Snapshot(), collected.Diagnostics); err != nil {
		return err
	}
	logger.Info("run exported", zap.String("db", path), zap.String("run_id", run.ID))
	return nil
}

