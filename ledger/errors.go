/*
errors.go - Error types for parsing and applying records

ERROR CATEGORIES:
  1. Parse errors - the record could not be turned into a Transaction
  2. Rejections - the Transaction is valid but the Client refused it

Both are record-level and recoverable: the replay reports them and moves
on to the next record. Use errors.Is with the sentinels below to classify.

SEE ALSO:
  - parse.go: Returns *ParseError
  - client.go: Returns *RejectionError
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// Parse failures.
	ErrEmptyRecord    = errors.New("empty record")
	ErrUnknownKind    = errors.New("unknown transaction type")
	ErrFieldCount     = errors.New("wrong number of fields")
	ErrInvalidID      = errors.New("invalid id")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeAmount = errors.New("negative amount")

	// Rejections.
	ErrAccountLocked        = errors.New("account is locked")
	ErrDuplicateTransaction = errors.New("duplicate transaction id")
	ErrInsufficientFunds    = errors.New("insufficient available funds")
	ErrUnknownReference     = errors.New("referenced transaction not found")
	ErrNotDisputable        = errors.New("referenced transaction is not a deposit")
	ErrAlreadyDisputed      = errors.New("referenced transaction is already disputed")
	ErrNotDisputed          = errors.New("referenced transaction is not under dispute")
	ErrClientMismatch       = errors.New("transaction addressed to another client")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParseError describes why a raw record could not be parsed.
type ParseError struct {
	Field string // which field failed, empty when the record as a whole is wrong
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid record: %v", e.Err)
	}
	return fmt.Sprintf("invalid record: %v: %s %q", e.Err, e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RejectionError is returned by Client.Apply when a transaction is refused.
type RejectionError struct {
	Client ClientID
	Kind   Kind
	Target TransactionID
	Err    error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s %d rejected for client %d: %v", e.Kind, e.Target, e.Client, e.Err)
}

func (e *RejectionError) Unwrap() error { return e.Err }

// InsufficientFundsError details a withdrawal that exceeds available funds.
type InsufficientFundsError struct {
	Available Amount
	Requested Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient available funds: available %s, requested %s",
		e.Available, e.Requested)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsMalformed returns true if the error comes from parsing a record.
func IsMalformed(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsRejection returns true if a well-formed transaction was refused by its client.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
