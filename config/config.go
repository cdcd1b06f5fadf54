// Package config holds the command-line configuration of a replay.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/warp/ledger-replay/logging"
)

// Config holds the application configuration.
type Config struct {
	InputPath  string
	NoColor    bool
	SkipHeader bool
	DBPath     string
	ServeAddr  string
	LogLevel   string
}

// FromEnv loads defaults from environment variables.
//
//	NO_COLOR            any non-empty value disables diagnostic styling
//	LEDGER_LOG_LEVEL    operational log level
//	LEDGER_DB           SQLite export path
//	LEDGER_SERVE_ADDR   HTTP address for the snapshot view
func FromEnv(getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Config{
		NoColor:   getenv("NO_COLOR") != "",
		DBPath:    getenv("LEDGER_DB"),
		ServeAddr: getenv("LEDGER_SERVE_ADDR"),
		LogLevel:  getenv("LEDGER_LOG_LEVEL"),
	}
}

// Load builds a Config from the environment, then applies args on top.
// Flags win over environment variables. Usage and flag errors are
// written to output.
func Load(name string, args []string, getenv func(string) string, output io.Writer) (*Config, error) {
	cfg := FromEnv(getenv)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "disable diagnostic styling")
	fs.BoolVar(&cfg.SkipHeader, "header", cfg.SkipHeader, "silently drop the first record if it does not parse")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "also export the run to this SQLite database")
	fs.StringVar(&cfg.ServeAddr, "serve", cfg.ServeAddr, "serve the final snapshot over HTTP at this address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "operational log level (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] <transactions.csv>\n", name)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		cfg.InputPath = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return nil, errors.New("unexpected arguments: " + strings.Join(fs.Args()[1:], " "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var problems []string

	if c.InputPath == "" {
		problems = append(problems, "input file path is required")
	}
	if lvl := strings.ToLower(strings.TrimSpace(c.LogLevel)); lvl != "" && lvl != logging.Off {
		if _, err := logging.ParseLevel(lvl); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
