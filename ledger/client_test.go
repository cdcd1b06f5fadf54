package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-replay/ledger"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func amt(s string) ledger.Amount {
	return ledger.MustParseAmount(s)
}

func assertFunds(t *testing.T, c *ledger.Client, available, held string) {
	t.Helper()
	assert.Equal(t, amt(available).String(), c.Available().String(), "available")
	assert.Equal(t, amt(held).String(), c.Held().String(), "held")
	assert.Equal(t, amt(available).Add(amt(held)).String(), c.Total().String(), "total")
}

// applyAll applies transactions in order and fails the test on any rejection.
func applyAll(t *testing.T, c *ledger.Client, txs ...ledger.Transaction) {
	t.Helper()
	for _, tx := range txs {
		require.NoError(t, c.Apply(tx), "applying %s", tx)
	}
}

// =============================================================================
// DEPOSIT / WITHDRAWAL
// =============================================================================

func TestClient_Deposit_IncreasesAvailable(t *testing.T) {
	c := ledger.NewClient(1)

	applyAll(t, c, ledger.Deposit(1, 1, amt("1.5")))

	assertFunds(t, c, "1.5", "0")
	assert.False(t, c.Locked())
}

func TestClient_Deposit_DuplicateID_Rejected(t *testing.T) {
	// GIVEN: Deposit tx 1 of 5.0
	// WHEN: Another deposit reuses tx 1
	// THEN: Rejected, available stays 5.0

	c := ledger.NewClient(1)
	applyAll(t, c, ledger.Deposit(1, 1, amt("5.0")))

	err := c.Apply(ledger.Deposit(1, 1, amt("3.0")))

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)
	assertFunds(t, c, "5.0", "0")
}

func TestClient_Withdrawal_ReusingDepositID_Rejected(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c, ledger.Deposit(1, 1, amt("5.0")))

	err := c.Apply(ledger.Withdrawal(1, 1, amt("1.0")))

	assert.ErrorIs(t, err, ledger.ErrDuplicateTransaction)
	assertFunds(t, c, "5.0", "0")
}

func TestClient_Withdrawal_DecreasesAvailable(t *testing.T) {
	c := ledger.NewClient(1)

	applyAll(t, c,
		ledger.Deposit(1, 1, amt("10")),
		ledger.Withdrawal(1, 2, amt("2.5")),
	)

	assertFunds(t, c, "7.5", "0")
}

func TestClient_Withdrawal_ExactBalance_Allowed(t *testing.T) {
	c := ledger.NewClient(1)

	applyAll(t, c,
		ledger.Deposit(1, 1, amt("3.0001")),
		ledger.Withdrawal(1, 2, amt("3.0001")),
	)

	assertFunds(t, c, "0", "0")
}

func TestClient_Withdrawal_InsufficientFunds_Rejected(t *testing.T) {
	// GIVEN: 1.0 available
	// WHEN: Withdrawing 1.5
	// THEN: Rejected with details, nothing changes

	c := ledger.NewClient(1)
	applyAll(t, c, ledger.Deposit(1, 1, amt("1.0")))

	err := c.Apply(ledger.Withdrawal(1, 2, amt("1.5")))

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	var insufficient *ledger.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "1.0000", insufficient.Available.String())
	assert.Equal(t, "1.5000", insufficient.Requested.String())
	assertFunds(t, c, "1.0", "0")

	// The rejected id was not recorded: it can be used later.
	applyAll(t, c, ledger.Deposit(1, 2, amt("1.0")))
	assertFunds(t, c, "2.0", "0")
}

func TestClient_Withdrawal_HeldFundsNotAvailable(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Deposit(1, 2, amt("1.0")),
		ledger.Dispute(1, 1),
	)

	err := c.Apply(ledger.Withdrawal(1, 3, amt("2.0")))

	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assertFunds(t, c, "1.0", "5.0")
}

func TestClient_DecimalPrecision_NoBinaryDrift(t *testing.T) {
	c := ledger.NewClient(1)

	applyAll(t, c,
		ledger.Deposit(1, 1, amt("0.1")),
		ledger.Deposit(1, 2, amt("0.2")),
	)

	assert.Equal(t, "0.3000", c.Available().String())
	assert.True(t, c.Available().Equal(amt("0.3")))
}

// =============================================================================
// DISPUTE LIFECYCLE
// =============================================================================

func TestClient_Dispute_MovesFundsToHeld(t *testing.T) {
	// GIVEN: Deposit of 5.0 plus 2.0
	// WHEN: The 5.0 deposit is disputed
	// THEN: 5.0 moves from available to held, total unchanged

	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Deposit(1, 2, amt("2.0")),
	)
	before := c.Total()

	applyAll(t, c, ledger.Dispute(1, 1))

	assertFunds(t, c, "2.0", "5.0")
	assert.True(t, c.Total().Equal(before), "funds conservation")
	assert.True(t, c.IsDisputed(1))
}

func TestClient_Dispute_UnknownReference_Rejected(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c, ledger.Deposit(1, 1, amt("5.0")))

	err := c.Apply(ledger.Dispute(1, 99))

	assert.ErrorIs(t, err, ledger.ErrUnknownReference)
	assertFunds(t, c, "5.0", "0")
}

func TestClient_Dispute_Twice_Rejected(t *testing.T) {
	// GIVEN: Deposit 5.0, disputed once
	// WHEN: Disputed again before resolution
	// THEN: Rejected, held is not doubled

	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Dispute(1, 1),
	)

	err := c.Apply(ledger.Dispute(1, 1))

	assert.ErrorIs(t, err, ledger.ErrAlreadyDisputed)
	assertFunds(t, c, "0", "5.0")
}

func TestClient_Dispute_Withdrawal_NotDisputable(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Withdrawal(1, 2, amt("2.0")),
	)

	err := c.Apply(ledger.Dispute(1, 2))

	assert.ErrorIs(t, err, ledger.ErrNotDisputable)
	assert.False(t, c.IsDisputed(2))
	assertFunds(t, c, "3.0", "0")
}

func TestClient_Dispute_AfterWithdrawal_AvailableGoesNegative(t *testing.T) {
	// GIVEN: Deposit 5.0, then 4.0 withdrawn
	// WHEN: The deposit is disputed
	// THEN: All 5.0 is held and available drops to -4.0

	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Withdrawal(1, 2, amt("4.0")),
		ledger.Dispute(1, 1),
	)

	assertFunds(t, c, "-4.0", "5.0")
}

func TestClient_Resolve_RestoresAvailable(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Deposit(1, 2, amt("1.0")),
		ledger.Dispute(1, 1),
		ledger.Resolve(1, 1),
	)

	assertFunds(t, c, "6.0", "0")
	assert.False(t, c.IsDisputed(1))
	assert.False(t, c.Locked())
}

func TestClient_Resolve_NotDisputed_Rejected(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c, ledger.Deposit(1, 1, amt("5.0")))

	err := c.Apply(ledger.Resolve(1, 1))

	assert.ErrorIs(t, err, ledger.ErrNotDisputed)
	assertFunds(t, c, "5.0", "0")
}

func TestClient_Resolve_Twice_SecondRejected(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Dispute(1, 1),
		ledger.Resolve(1, 1),
	)

	err := c.Apply(ledger.Resolve(1, 1))

	assert.ErrorIs(t, err, ledger.ErrNotDisputed)
	assertFunds(t, c, "5.0", "0")
}

func TestClient_DisputeResolveDispute_Legal(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Dispute(1, 1),
		ledger.Resolve(1, 1),
		ledger.Dispute(1, 1),
	)

	assertFunds(t, c, "0", "5.0")
	assert.True(t, c.IsDisputed(1))
}

func TestClient_Chargeback_RemovesHeldAndLocks(t *testing.T) {
	// GIVEN: Deposit 5.0 and 2.0, the 5.0 disputed
	// WHEN: Charged back
	// THEN: Held drops to 0, available untouched, account locked

	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Deposit(1, 2, amt("2.0")),
		ledger.Dispute(1, 1),
		ledger.Chargeback(1, 1),
	)

	assertFunds(t, c, "2.0", "0")
	assert.True(t, c.Locked())
	assert.False(t, c.IsDisputed(1))
}

func TestClient_Chargeback_NotDisputed_Rejected(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c, ledger.Deposit(1, 1, amt("5.0")))

	err := c.Apply(ledger.Chargeback(1, 1))

	assert.ErrorIs(t, err, ledger.ErrNotDisputed)
	assert.False(t, c.Locked())
	assertFunds(t, c, "5.0", "0")
}

func TestClient_Chargeback_AfterResolve_Rejected(t *testing.T) {
	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Dispute(1, 1),
		ledger.Resolve(1, 1),
	)

	err := c.Apply(ledger.Chargeback(1, 1))

	assert.ErrorIs(t, err, ledger.ErrNotDisputed)
	assert.False(t, c.Locked())
}

// =============================================================================
// LOCKED ACCOUNTS
// =============================================================================

func TestClient_Locked_RejectsEverything(t *testing.T) {
	// GIVEN: A charged-back account with another open dispute
	// WHEN: Any further transaction arrives
	// THEN: All are rejected with ErrAccountLocked and nothing changes

	c := ledger.NewClient(1)
	applyAll(t, c,
		ledger.Deposit(1, 1, amt("5.0")),
		ledger.Deposit(1, 2, amt("3.0")),
		ledger.Dispute(1, 1),
		ledger.Dispute(1, 2),
		ledger.Chargeback(1, 1),
	)
	require.True(t, c.Locked())
	assertFunds(t, c, "0", "3.0")

	attempts := []ledger.Transaction{
		ledger.Deposit(1, 10, amt("1.0")),
		ledger.Withdrawal(1, 11, amt("0")),
		ledger.Dispute(1, 1),
		ledger.Resolve(1, 2),
		ledger.Chargeback(1, 2),
	}
	for _, tx := range attempts {
		err := c.Apply(tx)
		assert.ErrorIs(t, err, ledger.ErrAccountLocked, "%s", tx)
	}

	assertFunds(t, c, "0", "3.0")
	assert.True(t, c.IsDisputed(2))
}

// =============================================================================
// REJECTION DETAILS
// =============================================================================

func TestClient_Rejection_CarriesContext(t *testing.T) {
	c := ledger.NewClient(7)

	err := c.Apply(ledger.Dispute(7, 42))

	var rej *ledger.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, ledger.ClientID(7), rej.Client)
	assert.Equal(t, ledger.KindDispute, rej.Kind)
	assert.Equal(t, ledger.TransactionID(42), rej.Target)
	assert.True(t, ledger.IsRejection(err))
	assert.False(t, ledger.IsMalformed(err))
	assert.Contains(t, err.Error(), "client 7")
}

func TestClient_OtherClientsTransaction_Rejected(t *testing.T) {
	c := ledger.NewClient(1)

	err := c.Apply(ledger.Deposit(2, 1, amt("5.0")))

	assert.ErrorIs(t, err, ledger.ErrClientMismatch)
	assertFunds(t, c, "0", "0")
}

func TestClient_Account_Snapshot(t *testing.T) {
	c := ledger.NewClient(3)
	applyAll(t, c,
		ledger.Deposit(3, 1, amt("2")),
		ledger.Deposit(3, 2, amt("1")),
		ledger.Dispute(3, 2),
	)

	a := c.Account()

	assert.Equal(t, ledger.ClientID(3), a.Client)
	assert.Equal(t, "2.0000", a.Available.String())
	assert.Equal(t, "1.0000", a.Held.String())
	assert.Equal(t, "3.0000", a.Total.String())
	assert.False(t, a.Locked)
}
