// Package store provides ledger.Store implementations.
package store

import (
	"sort"

	"github.com/warp/ledger-replay/ledger"
)

// =============================================================================
// MEMORY STORE - Map-backed client store
// =============================================================================

// Memory keeps every client in a map. It has no locking: a replay owns it
// exclusively until the final snapshot, which is a copy.
type Memory struct {
	clients map[ledger.ClientID]*ledger.Client
}

var _ ledger.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{clients: make(map[ledger.ClientID]*ledger.Client)}
}

// GetOrCreate returns the existing client or inserts a fresh one.
func (m *Memory) GetOrCreate(id ledger.ClientID) *ledger.Client {
	c, ok := m.clients[id]
	if !ok {
		c = ledger.NewClient(id)
		m.clients[id] = c
	}
	return c
}

// Lookup returns the client if it has been referenced, without creating
// it. The replay itself only uses GetOrCreate; Lookup is for inspecting a
// store afterwards, which is what the tests do.
func (m *Memory) Lookup(id ledger.ClientID) (*ledger.Client, bool) {
	c, ok := m.clients[id]
	return c, ok
}

func (m *Memory) Len() int {
	return len(m.clients)
}

// Snapshot returns accounts sorted by client id.
func (m *Memory) Snapshot() []ledger.Account {
	ids := make([]ledger.ClientID, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]ledger.Account, 0, len(ids))
	for _, id := range ids {
		result = append(result, m.clients[id].Account())
	}
	return result
}
