/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures returned by the snapshot view. Amounts are
  strings with 4 fractional digits, exactly as printed in the CSV summary,
  so no client ever sees a binary float.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Wrappers with more than one field

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"strings"
	"time"

	"github.com/warp/ledger-replay/ledger"
	"github.com/warp/ledger-replay/replay"
)

// AccountDTO represents one client's final state.
type AccountDTO struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// RunDTO summarizes the replay that produced the snapshot.
type RunDTO struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
	Records   int       `json:"records"`
	Applied   int       `json:"applied"`
	Rejected  int       `json:"rejected"`
	Malformed int       `json:"malformed"`
	Skipped   int       `json:"skipped"`
	Clients   int       `json:"clients"`
}

// DiagnosticDTO represents a record that was not applied.
type DiagnosticDTO struct {
	Line     int    `json:"line"`
	Record   string `json:"record,omitempty"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// AccountsResponse lists accounts in client id order.
type AccountsResponse struct {
	Accounts []AccountDTO `json:"accounts"`
	Count    int          `json:"count"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toAccountDTO(a ledger.Account) AccountDTO {
	return AccountDTO{
		Client:    uint16(a.Client),
		Available: a.Available.String(),
		Held:      a.Held.String(),
		Total:     a.Total.String(),
		Locked:    a.Locked,
	}
}

func toRunDTO(input string, res replay.Result) RunDTO {
	return RunDTO{
		ID:        res.RunID,
		Input:     input,
		StartedAt: res.StartedAt,
		Duration:  res.Duration.String(),
		Records:   res.Records,
		Applied:   res.Applied,
		Rejected:  res.Rejected,
		Malformed: res.Malformed,
		Skipped:   res.Skipped,
		Clients:   res.Clients,
	}
}

func toDiagnosticDTO(d replay.Diagnostic) DiagnosticDTO {
	return DiagnosticDTO{
		Line:     d.Line,
		Record:   strings.Join(d.Record, ","),
		Category: d.Category(),
		Message:  d.Err.Error(),
	}
}
