package engine

import "github.com/yahgos/payment-engine/internal/domain"

// AccountStore holds the accounts owned by one worker. It is a plain
// map with no locking: only the owning worker ever touches it.
type AccountStore struct {
	accounts map[uint16]*domain.Account
}

// NewAccountStore returns an empty store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[uint16]*domain.Account)}
}

// GetOrCreate returns the account for client, creating it on first
// reference. The bool reports whether a new account was created.
func (s *AccountStore) GetOrCreate(client uint16) (*domain.Account, bool) {
	if acc, ok := s.accounts[client]; ok {
		return acc, false
	}
	acc := domain.NewAccount(client)
	s.accounts[client] = acc
	return acc, true
}

// Len returns the number of accounts held.
func (s *AccountStore) Len() int {
	return len(s.accounts)
}

// Snapshots returns a point-in-time view of every account, in map
// order. Callers sort.
func (s *AccountStore) Snapshots() []domain.Snapshot {
	out := make([]domain.Snapshot, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.Snapshot())
	}
	return out
}

// LedgerIndex maps transaction ids to ledger entries for the clients
// one worker owns. Dispute records can only see movements that landed
// on the same worker, which is exactly the set of movements for the
// clients it owns.
type LedgerIndex struct {
	entries map[uint32]*domain.LedgerEntry
}

// NewLedgerIndex returns an empty index.
func NewLedgerIndex() *LedgerIndex {
	return &LedgerIndex{entries: make(map[uint32]*domain.LedgerEntry)}
}

// Get returns the entry for txID if one was recorded.
func (l *LedgerIndex) Get(txID uint32) (*domain.LedgerEntry, bool) {
	e, ok := l.entries[txID]
	return e, ok
}

// Contains reports whether txID was already recorded.
func (l *LedgerIndex) Contains(txID uint32) bool {
	_, ok := l.entries[txID]
	return ok
}

// Put records e under its transaction id.
func (l *LedgerIndex) Put(e *domain.LedgerEntry) {
	l.entries[e.TxID] = e
}

// Len returns the number of recorded entries.
func (l *LedgerIndex) Len() int {
	return len(l.entries)
}
