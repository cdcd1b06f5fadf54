/*
Package report renders the results of a replay.

OUTPUTS:
  - Summary: the final account table, written to stdout as CSV
  - Diagnostics: one line per record that was not applied, written to
    stderr and highlighted when stderr is a terminal

The two never share a writer, so redirecting stdout yields a clean table.
*/
package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/warp/ledger-replay/ledger"
)

// SummaryHeader is the first row of the summary table.
var SummaryHeader = []string{"client", "available", "held", "total", "locked"}

// WriteSummary writes one CSV row per account, in the order given.
func WriteSummary(w io.Writer, accounts []ledger.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryHeader); err != nil {
		return err
	}
	for _, a := range accounts {
		if err := cw.Write(SummaryRow(a)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SummaryRow formats a single account.
func SummaryRow(a ledger.Account) []string {
	return []string{
		a.Client.String(),
		a.Available.String(),
		a.Held.String(),
		a.Total.String(),
		strconv.FormatBool(a.Locked),
	}
}
