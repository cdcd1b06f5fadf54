/*
Package sqlite exports completed replays to a SQLite database.

PURPOSE:
  The replay itself is in-memory and single-pass. When asked, the final
  snapshot is also written to SQLite so it can be inspected with SQL
  tooling after the process exits. The database is never read back into
  a replay: each run is exported under its own run id.

KEY TABLES:
  runs:        One row per replay (input path, counts, timings)
  accounts:    Final account state per client, per run
  diagnostics: Records that were not applied, per run

AMOUNTS:
  Stored as TEXT with 4 fractional digits, never as REAL, so values read
  back exactly as they were printed.

APPEND-ONLY:
  Exports only insert. A run is written in a single transaction: either
  the run, its accounts and its diagnostics are all present, or none are.

USAGE:
  store, err := sqlite.New("./replays.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  err = store.Export(ctx, sqlite.NewRun(path, result), accounts, diagnostics)

SEE ALSO:
  - replay/engine.go: Produces the Result and diagnostics
  - ledger/store/memory.go: Produces the snapshot
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/ledger-replay/ledger"
	"github.com/warp/ledger-replay/replay"
)

// ErrRunExists is returned when a run id was already exported.
var ErrRunExists = errors.New("run already exported")

// timeFormat is fixed-width so started_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store writes replay exports to SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and shared.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		records INTEGER NOT NULL,
		applied INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		malformed INTEGER NOT NULL,
		skipped INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		run_id TEXT NOT NULL REFERENCES runs(id),
		client_id INTEGER NOT NULL,
		available TEXT NOT NULL,
		held TEXT NOT NULL,
		total TEXT NOT NULL,
		locked INTEGER NOT NULL,
		PRIMARY KEY (run_id, client_id)
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		line INTEGER NOT NULL,
		record TEXT,
		category TEXT NOT NULL,
		message TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_diagnostics_category
		ON diagnostics(run_id, category);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORDS
// =============================================================================

// Run is the exported summary of one replay.
type Run struct {
	ID        string
	Input     string
	StartedAt time.Time
	Duration  time.Duration
	Records   int
	Applied   int
	Rejected  int
	Malformed int
	Skipped   int
}

// NewRun converts a replay result into a Run record.
func NewRun(input string, res replay.Result) Run {
	return Run{
		ID:        res.RunID,
		Input:     input,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Records:   res.Records,
		Applied:   res.Applied,
		Rejected:  res.Rejected,
		Malformed: res.Malformed,
		Skipped:   res.Skipped,
	}
}

// DiagnosticRecord is an exported diagnostic.
type DiagnosticRecord struct {
	Line     int
	Record   string
	Category string // replay.CategoryMalformed or replay.CategoryRejected
	Message  string
}

// =============================================================================
// EXPORT
// =============================================================================

// Export writes a run, its final accounts and its diagnostics atomically.
func (s *Store) Export(ctx context.Context, run Run, accounts []ledger.Account, diags []replay.Diagnostic) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var exists int
	err = sqlTx.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", run.ID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return ErrRunExists
	}

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO runs (id, input, started_at, duration_ms, records, applied, rejected, malformed, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Input, run.StartedAt.UTC().Format(timeFormat), run.Duration.Milliseconds(),
		run.Records, run.Applied, run.Rejected, run.Malformed, run.Skipped,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	accStmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO accounts (run_id, client_id, available, held, total, locked)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer accStmt.Close()

	for _, a := range accounts {
		_, err := accStmt.ExecContext(ctx, run.ID, int(a.Client),
			a.Available.String(), a.Held.String(), a.Total.String(), a.Locked)
		if err != nil {
			return fmt.Errorf("failed to insert account %d: %w", a.Client, err)
		}
	}

	diagStmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO diagnostics (run_id, seq, line, record, category, message)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer diagStmt.Close()

	for i, d := range diags {
		var record sql.NullString
		if d.Record != nil {
			record = sql.NullString{String: strings.Join(d.Record, ","), Valid: true}
		}
		_, err := diagStmt.ExecContext(ctx, run.ID, i, d.Line, record, d.Category(), d.Err.Error())
		if err != nil {
			return fmt.Errorf("failed to insert diagnostic for line %d: %w", d.Line, err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// QUERIES
// =============================================================================

// GetRun returns the exported run, or nil if it does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r Run
	var startedAt string
	var durationMS int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, input, started_at, duration_ms, records, applied, rejected, malformed, skipped
		FROM runs WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.Input, &startedAt, &durationMS, &r.Records, &r.Applied, &r.Rejected, &r.Malformed, &r.Skipped)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r.StartedAt, _ = time.Parse(timeFormat, startedAt)
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return &r, nil
}

// Runs returns every exported run, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, started_at, duration_ms, records, applied, rejected, malformed, skipped
		FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.Input, &startedAt, &durationMS, &r.Records, &r.Applied, &r.Rejected, &r.Malformed, &r.Skipped); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(timeFormat, startedAt)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Accounts returns the exported accounts of a run, ordered by client id.
func (s *Store) Accounts(ctx context.Context, runID string) ([]ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT client_id, available, held, total, locked
		FROM accounts WHERE run_id = ? ORDER BY client_id`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []ledger.Account
	for rows.Next() {
		var clientID int
		var available, held, total string
		var a ledger.Account
		if err := rows.Scan(&clientID, &available, &held, &total, &a.Locked); err != nil {
			return nil, err
		}
		a.Client = ledger.ClientID(clientID)
		if a.Available, err = ledger.ParseAmount(available); err != nil {
			return nil, fmt.Errorf("client %d: bad available %q: %w", clientID, available, err)
		}
		if a.Held, err = ledger.ParseAmount(held); err != nil {
			return nil, fmt.Errorf("client %d: bad held %q: %w", clientID, held, err)
		}
		if a.Total, err = ledger.ParseAmount(total); err != nil {
			return nil, fmt.Errorf("client %d: bad total %q: %w", clientID, total, err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Diagnostics returns the exported diagnostics of a run in input order.
// An empty category returns all of them.
func (s *Store) Diagnostics(ctx context.Context, runID, category string) ([]DiagnosticRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT line, record, category, message FROM diagnostics WHERE run_id = ?"
	args := []any{runID}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	query += " ORDER BY seq"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DiagnosticRecord
	for rows.Next() {
		var d DiagnosticRecord
		var record sql.NullString
		if err := rows.Scan(&d.Line, &record, &d.Category, &d.Message); err != nil {
			return nil, err
		}
		d.Record = record.String
		out = append(out, d)
	}
	return out, rows.Err()
}
