/*
client.go - Per-client balances and the transaction state machine

CRITICAL INVARIANTS:
  1. total = available + held, always. Total is never stored.
  2. Every disputed id is in history and refers to a deposit.
  3. A rejected transaction leaves the client untouched.
  4. Once locked, the client accepts nothing.

TRANSITIONS:
  Deposit     available += amt
  Withdrawal  available -= amt            (requires available >= amt)
  Dispute     available -= amt, held += amt
  Resolve     held -= amt, available += amt
  Chargeback  held -= amt, locked = true

  Dispute → Resolve → Dispute on the same deposit is legal. A second
  Dispute while the first is open is rejected, so funds are never held twice.

  A disputed deposit whose funds were already withdrawn drives available
  below zero; the client then owes the bank.
*/
package ledger

// Client is the running state of one account.
type Client struct {
	id        ClientID
	available Amount
	held      Amount
	locked    bool
	history   map[TransactionID]Transaction
	disputed  map[TransactionID]struct{}
}

// NewClient returns an empty, unlocked client.
func NewClient(id ClientID) *Client {
	return &Client{
		id:       id,
		history:  make(map[TransactionID]Transaction),
		disputed: make(map[TransactionID]struct{}),
	}
}

func (c *Client) ID() ClientID      { return c.id }
func (c *Client) Available() Amount { return c.available }
func (c *Client) Held() Amount      { return c.held }
func (c *Client) Total() Amount     { return c.available.Add(c.held) }
func (c *Client) Locked() bool      { return c.locked }

// IsDisputed reports whether the given transaction is under an open dispute.
func (c *Client) IsDisputed(id TransactionID) bool {
	_, ok := c.disputed[id]
	return ok
}

// Account returns a read-only view of the client.
func (c *Client) Account() Account {
	return Account{
		Client:    c.id,
		Available: c.available,
		Held:      c.held,
		Total:     c.Total(),
		Locked:    c.locked,
	}
}

// Apply validates tx against the client's state and history and, if
// allowed, mutates the client. Any error is a *RejectionError and means
// nothing changed.
func (c *Client) Apply(tx Transaction) error {
	if err := c.check(tx); err != nil {
		return &RejectionError{Client: c.id, Kind: tx.Kind, Target: tx.Target(), Err: err}
	}

	switch tx.Kind {
	case KindDeposit:
		c.available = c.available.Add(tx.Amount)
		c.history[tx.ID] = tx
	case KindWithdrawal:
		c.available = c.available.Sub(tx.Amount)
		c.history[tx.ID] = tx
	case KindDispute:
		amount := c.history[tx.Ref].Amount
		c.available = c.available.Sub(amount)
		c.held = c.held.Add(amount)
		c.disputed[tx.Ref] = struct{}{}
	case KindResolve:
		amount := c.history[tx.Ref].Amount
		c.held = c.held.Sub(amount)
		c.available = c.available.Add(amount)
		delete(c.disputed, tx.Ref)
	case KindChargeback:
		amount := c.history[tx.Ref].Amount
		c.held = c.held.Sub(amount)
		c.locked = true
		delete(c.disputed, tx.Ref)
	}
	return nil
}

// check returns the reason tx cannot be applied, or nil.
func (c *Client) check(tx Transaction) error {
	if tx.Client != c.id {
		return ErrClientMismatch
	}
	if c.locked {
		return ErrAccountLocked
	}

	switch tx.Kind {
	case KindDeposit:
		if _, exists := c.history[tx.ID]; exists {
			return ErrDuplicateTransaction
		}
	case KindWithdrawal:
		if !c.available.GreaterThanOrEqual(tx.Amount) {
			return &InsufficientFundsError{Available: c.available, Requested: tx.Amount}
		}
		if _, exists := c.history[tx.ID]; exists {
			return ErrDuplicateTransaction
		}
	case KindDispute:
		orig, exists := c.history[tx.Ref]
		if !exists {
			return ErrUnknownReference
		}
		if orig.Kind != KindDeposit {
			return ErrNotDisputable
		}
		if c.IsDisputed(tx.Ref) {
			return ErrAlreadyDisputed
		}
	case KindResolve, KindChargeback:
		if !c.IsDisputed(tx.Ref) {
			return ErrNotDisputed
		}
	default:
		return ErrUnknownKind
	}
	return nil
}
