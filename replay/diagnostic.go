package replay

import (
	"fmt"
	"strings"

	"github.com/warp/ledger-replay/ledger"
)

// Diagnostic reports one record that was not applied.
type Diagnostic struct {
	Line   int      // 1-based line in the input
	Record []string // raw fields, nil when the line could not be split
	Err    error
}

// Diagnostic categories.
const (
	CategoryMalformed = "malformed"
	CategoryRejected  = "rejected"
)

// Malformed reports whether the record failed to parse, as opposed to
// being rejected by its client.
func (d Diagnostic) Malformed() bool {
	return ledger.IsMalformed(d.Err)
}

// Category returns CategoryMalformed or CategoryRejected.
func (d Diagnostic) Category() string {
	if d.Malformed() {
		return CategoryMalformed
	}
	return CategoryRejected
}

func (d Diagnostic) String() string {
	if d.Record == nil {
		return fmt.Sprintf("line %d: %v", d.Line, d.Err)
	}
	return fmt.Sprintf("line %d: %v [%s]", d.Line, d.Err, strings.Join(d.Record, ","))
}

// DiagnosticSink receives diagnostics in input order.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to DiagnosticSink.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Collector keeps every diagnostic in memory. A nil *Collector discards
// everything, so an optional collector can be passed as a sink directly.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	if c == nil {
		return
	}
	c.Diagnostics = append(c.Diagnostics, d)
}

// Tee forwards each diagnostic to every sink in order. Nil interface
// values are skipped; typed nil pointers are called like any other sink.
func Tee(sinks ...DiagnosticSink) DiagnosticSink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}
