package ledger

import (
	"strconv"
	"strings"
)

// Field positions within a raw record.
const (
	fieldKind = iota
	fieldTx
	fieldClient
	fieldAmount
)

// ParseRecord turns one raw record into a Transaction.
//
// Layout: kind, tx, client[, amount]. Fields are trimmed and the kind is
// matched case-insensitively. Deposits and withdrawals need exactly four
// fields, the other kinds exactly three. Extra fields are an error, not
// something to ignore.
func ParseRecord(fields []string) (Transaction, error) {
	if len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "") {
		return Transaction{}, &ParseError{Err: ErrEmptyRecord}
	}

	raw := strings.TrimSpace(fields[fieldKind])
	kind, ok := lookupKind(raw)
	if !ok {
		return Transaction{}, &ParseError{Field: "type", Value: raw, Err: ErrUnknownKind}
	}

	want := 3
	if kind.CarriesAmount() {
		want = 4
	}
	if len(fields) != want {
		return Transaction{}, &ParseError{
			Field: "fields",
			Value: strconv.Itoa(len(fields)),
			Err:   ErrFieldCount,
		}
	}

	txID, err := parseTransactionID(fields[fieldTx])
	if err != nil {
		return Transaction{}, err
	}
	clientID, err := parseClientID(fields[fieldClient])
	if err != nil {
		return Transaction{}, err
	}

	switch kind {
	case KindDeposit, KindWithdrawal:
		amount, err := parseAmount(fields[fieldAmount])
		if err != nil {
			return Transaction{}, err
		}
		if kind == KindDeposit {
			return Deposit(clientID, txID, amount), nil
		}
		return Withdrawal(clientID, txID, amount), nil
	case KindDispute:
		return Dispute(clientID, txID), nil
	case KindResolve:
		return Resolve(clientID, txID), nil
	default:
		return Chargeback(clientID, txID), nil
	}
}

func lookupKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

func parseTransactionID(s string) (TransactionID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, &ParseError{Field: "tx", Value: s, Err: ErrInvalidID}
	}
	return TransactionID(n), nil
}

func parseClientID(s string) (ClientID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, &ParseError{Field: "client", Value: s, Err: ErrInvalidID}
	}
	return ClientID(n), nil
}

// parseAmount accepts plain decimals with at most AmountPlaces significant
// fractional digits, so every reported column adds up exactly. Exponent
// notation is refused before it reaches the decimal parser.
func parseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "eE") {
		return Amount{}, &ParseError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	if i := strings.IndexByte(s, '.'); i >= 0 && len(strings.TrimRight(s[i+1:], "0")) > AmountPlaces {
		return Amount{}, &ParseError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	amount, err := ParseAmount(s)
	if err != nil {
		return Amount{}, &ParseError{Field: "amount", Value: s, Err: ErrInvalidAmount}
	}
	if amount.IsNegative() {
		return Amount{}, &ParseError{Field: "amount", Value: s, Err: ErrNegativeAmount}
	}
	return amount, nil
}
