/*
store.go - Collection of all clients seen during a replay

CONTRACT:
  - GetOrCreate never fails. The first reference to a client id, by any
    record kind (including a dispute for a deposit that never happened),
    creates an empty, unlocked client.
  - Clients are never removed.
  - Snapshot is taken once, after the input is exhausted.

IMPLEMENTATIONS:
  - ledger/store/memory.go: map-backed store used by the replay engine
*/
package ledger

// Store owns every Client for the duration of a replay.
type Store interface {
	// GetOrCreate returns the client with the given id, creating it if needed.
	GetOrCreate(id ClientID) *Client

	// Snapshot returns a view of every client, ordered by client id.
	Snapshot() []Account

	// Len returns the number of clients.
	Len() int
}
