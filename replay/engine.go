/*
Package replay drives a single pass over a transaction log.

PURPOSE:
  Reads records in order, parses each into a ledger.Transaction, routes it
  to its client through the ledger.Store and applies it. Records that fail
  to parse or are rejected by their client become Diagnostics; they never
  stop the run and never touch state.

STATE MACHINE:
  for each record:
    blank            → skipped
    parse failure    → diagnostic, next record
    client rejection → diagnostic, next record
    otherwise        → applied
  input exhausted    → done, caller takes Store.Snapshot()

  Only a failure of the underlying stream is fatal.

ORDER MATTERS:
  A dispute that references a deposit appearing later in the file is
  rejected as unknown. Nothing is buffered or retried.

FIRST LINE:
  With SkipHeader set, an unparseable first record is dropped without a
  diagnostic, which is how the tool historically treated header lines.
  By default every record is diagnosed.

SEE ALSO:
  - ledger/parse.go: Record parser
  - ledger/client.go: Transaction application
  - report/diagnostics.go: Terminal rendering of diagnostics
*/
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/ledger-replay/ledger"
)

// =============================================================================
// ENGINE
// =============================================================================

// MaxLineLength is the longest input line accepted. A longer line is a
// read failure, not a malformed record.
const MaxLineLength = 1024 * 1024

type Engine struct {
	Store      ledger.Store
	Sink       DiagnosticSink
	Logger     *zap.Logger
	SkipHeader bool
}

func NewEngine(store ledger.Store, sink DiagnosticSink, logger *zap.Logger) *Engine {
	return &Engine{Store: store, Sink: sink, Logger: logger}
}

// Result summarizes a completed run.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Records   int // non-blank lines read, header included
	Applied   int
	Rejected  int
	Malformed int
	Skipped   int // blank records and a silently dropped header
	Clients   int
}

// Diagnostics returns the number of records that produced a diagnostic.
func (r Result) Diagnostics() int {
	return r.Rejected + r.Malformed
}

// Run replays every record from r. The returned error is non-nil only when
// r itself cannot be read; the Result is valid up to that point.
func (e *Engine) Run(r io.Reader) (Result, error) {
	logger := e.logger()
	res := Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger = logger.With(zap.String("run_id", res.RunID))
	logger.Info("replay started")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)

	line := 0
	first := true
	for scanner.Scan() {
		line++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			res.Skipped++
			continue
		}
		res.Records++

		isFirst := first
		first = false

		record := SplitRecord(text)
		tx, err := ledger.ParseRecord(record)
		if err != nil {
			if isFirst && e.SkipHeader {
				logger.Debug("header dropped", zap.Strings("record", record))
				res.Skipped++
				continue
			}
			res.Malformed++
			e.report(Diagnostic{Line: line, Record: record, Err: err})
			continue
		}

		if err := e.apply(tx); err != nil {
			res.Rejected++
			e.report(Diagnostic{Line: line, Record: record, Err: err})
			continue
		}
		res.Applied++
		logger.Debug("applied", zap.Int("line", line), zap.Stringer("tx", tx))
	}

	if err := scanner.Err(); err != nil {
		res.finish(e.Store)
		logger.Error("replay aborted", zap.Int("line", line+1), zap.Error(err))
		return res, fmt.Errorf("read transactions: line %d: %w", line+1, err)
	}

	res.finish(e.Store)
	logger.Info("replay finished",
		zap.Int("records", res.Records),
		zap.Int("applied", res.Applied),
		zap.Int("rejected", res.Rejected),
		zap.Int("malformed", res.Malformed),
		zap.Int("clients", res.Clients),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

// Apply parses and applies a single record outside of a full run. It
// returns the same errors a run would report as diagnostics.
func (e *Engine) Apply(fields []string) error {
	tx, err := ledger.ParseRecord(fields)
	if err != nil {
		return err
	}
	return e.apply(tx)
}

func (e *Engine) apply(tx ledger.Transaction) error {
	return e.Store.GetOrCreate(tx.Client).Apply(tx)
}

func (e *Engine) report(d Diagnostic) {
	if e.Sink != nil {
		e.Sink.Report(d)
	}
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (r *Result) finish(store ledger.Store) {
	r.Duration = time.Since(r.StartedAt)
	r.Clients = store.Len()
}

// SplitRecord splits one input line into its comma-separated fields.
// Fields are not unquoted; the parser trims surrounding whitespace.
func SplitRecord(line string) []string {
	return strings.Split(line, ",")
}
