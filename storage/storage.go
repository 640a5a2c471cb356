// Package storage defines the Storage collaborator (§6), narrowed from
// the teacher's storage/database.DBManager interface shape (method names
// grouped by what they persist, a Close()) down to the handful of calls
// the account-sync/transfer core actually issues. Persistence itself is
// an external collaborator (§1); this module only depends on the
// interface.
package storage

import (
	"github.com/iotaledger/wallet.go/account"
)

// Storage is the external collaborator consumed by the Syncer and
// Transfer Builder.
type Storage interface {
	SaveAccount(a *account.Account) error
	SaveMessages(accountIndex uint32, messages []*account.Message) error
	// SaveAddresses persists newly generated addresses. The Syncer calls
	// it once per sync, after scanning and reconciliation; the Transfer
	// Builder calls it right after generating a change or external
	// address. Addresses derived during a Scanner sweep are not saved
	// before their reconciliation round-trip (SPEC_FULL.md supplement 5).
	SaveAddresses(accountIndex uint32, addresses []*account.Address) error

	// Participation is feature-gated in the original and out of scope
	// here (§1 non-goals: consensus participation); no method is defined
	// for it.

	Close() error
}

// Memory is an in-memory Storage used by this module's own tests.
type Memory struct {
	Accounts  map[uint32]*account.Account
	Messages  map[uint32][]*account.Message
	Addresses map[uint32][]*account.Address
}

// NewMemory returns an empty in-memory Storage.
func NewMemory() *Memory {
	return &Memory{
		Accounts:  make(map[uint32]*account.Account),
		Messages:  make(map[uint32][]*account.Message),
		Addresses: make(map[uint32][]*account.Address),
	}
}

func (m *Memory) SaveAccount(a *account.Account) error {
	m.Accounts[a.Index] = a
	return nil
}

func (m *Memory) SaveMessages(accountIndex uint32, messages []*account.Message) error {
	m.Messages[accountIndex] = append(m.Messages[accountIndex], messages...)
	return nil
}

func (m *Memory) SaveAddresses(accountIndex uint32, addresses []*account.Address) error {
	m.Addresses[accountIndex] = append(m.Addresses[accountIndex], addresses...)
	return nil
}

func (m *Memory) Close() error { return nil }
