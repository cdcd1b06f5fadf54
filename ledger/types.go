/*
Package ledger provides the client ledger model and its transaction state machine.

PURPOSE:
  A replay consumes a log of banking records once, in order. Every record
  becomes a typed Transaction that is applied to exactly one Client. The
  Client holds running balances (available, held), a lock flag and the
  history needed to validate disputes.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: fixed-point money quantity (decimal.Decimal, never float64)
  - Transaction: tagged variant over the five record kinds
  - ClientID / TransactionID: typed identifiers

DESIGN PRINCIPLES:
  1. Precision: decimal arithmetic, output rendered with 4 fractional digits
  2. Type Safety: distinct ID types so client and transaction ids never mix
  3. No-op rejections: a rejected transaction never mutates a Client

USAGE:
  tx, err := ledger.ParseRecord([]string{"deposit", "1", "1", "5.0"})
  if err != nil {
      // malformed record
  }
  err = store.GetOrCreate(tx.Client).Apply(tx)

SEE ALSO:
  - parse.go: Record parser
  - client.go: Client state machine
  - errors.go: Rejection and parse errors
*/
package ledger

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Fixed-point money quantity
// =============================================================================

// AmountPlaces is the number of fractional digits used when rendering amounts.
const AmountPlaces = 4

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

// ParseAmount parses a decimal string such as "2.5" or "0.0001".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, err
	}
	return Amount{Value: d}, nil
}

// MustParseAmount is ParseAmount for literals known to be valid. It panics otherwise.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Add(b Amount) Amount              { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount              { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) IsNegative() bool                 { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                     { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool              { return a.Value.Equal(b.Value) }
func (a Amount) LessThan(b Amount) bool           { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.Value.GreaterThanOrEqual(b.Value) }

// String renders the amount with AmountPlaces fractional digits.
func (a Amount) String() string { return a.Value.StringFixed(AmountPlaces) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ClientID uint16

func (id ClientID) String() string { return strconv.FormatUint(uint64(id), 10) }

// TransactionID identifies a deposit or withdrawal. Zero is used as the
// "no id" placeholder on dispute, resolve and chargeback records.
type TransactionID uint32

func (id TransactionID) String() string { return strconv.FormatUint(uint64(id), 10) }

// =============================================================================
// TRANSACTION - One typed input record
// =============================================================================

type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindDispute    Kind = "dispute"
	KindResolve    Kind = "resolve"
	KindChargeback Kind = "chargeback"
)

// Kinds lists every record kind in declaration order.
var Kinds = []Kind{KindDeposit, KindWithdrawal, KindDispute, KindResolve, KindChargeback}

// CarriesAmount reports whether records of this kind mint an id and carry an amount.
func (k Kind) CarriesAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Transaction is a tagged variant. Deposit and Withdrawal use ID and Amount;
// Dispute, Resolve and Chargeback use Ref only.
type Transaction struct {
	Kind   Kind
	Client ClientID
	ID     TransactionID
	Ref    TransactionID
	Amount Amount
}

func Deposit(client ClientID, id TransactionID, amount Amount) Transaction {
	return Transaction{Kind: KindDeposit, Client: client, ID: id, Amount: amount}
}

func Withdrawal(client ClientID, id TransactionID, amount Amount) Transaction {
	return Transaction{Kind: KindWithdrawal, Client: client, ID: id, Amount: amount}
}

func Dispute(client ClientID, ref TransactionID) Transaction {
	return Transaction{Kind: KindDispute, Client: client, Ref: ref}
}

func Resolve(client ClientID, ref TransactionID) Transaction {
	return Transaction{Kind: KindResolve, Client: client, Ref: ref}
}

func Chargeback(client ClientID, ref TransactionID) Transaction {
	return Transaction{Kind: KindChargeback, Client: client, Ref: ref}
}

// Target returns the id this transaction is about: its own id for
// deposits and withdrawals, the referenced id otherwise.
func (t Transaction) Target() TransactionID {
	if t.Kind.CarriesAmount() {
		return t.ID
	}
	return t.Ref
}

func (t Transaction) String() string {
	if t.Kind.CarriesAmount() {
		return fmt.Sprintf("%s tx=%d client=%d amount=%s", t.Kind, t.ID, t.Client, t.Amount)
	}
	return fmt.Sprintf("%s ref=%d client=%d", t.Kind, t.Ref, t.Client)
}

// =============================================================================
// ACCOUNT - Read-only view of a client at snapshot time
// =============================================================================

type Account struct {
	Client    ClientID
	Available Amount
	Held      Amount
	Total     Amount
	Locked    bool
}
