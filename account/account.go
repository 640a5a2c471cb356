package account

import (
	"sort"
	"sync"
	"time"

	"github.com/iotaledger/wallet.go/common"
)

// addrKey orders addresses by (internal, key_index) as §3 requires.
type addrKey struct {
	internal bool
	index    uint32
}

// Account is the root record §3 describes. The Syncer and Transfer
// Builder never hold a pointer to it directly; they borrow it through a
// Handle (see handle.go) to avoid the cyclic Account <-> Syncer <->
// Transfer Builder references §9 warns against.
type Account struct {
	Index         uint32
	SignerType    string
	ClientOptions interface{}
	Bech32HRP     string
	StoragePath   string

	mu             sync.RWMutex
	addresses      map[addrKey]*Address
	messages       map[common.MessageID]*Message
	latestSyncedAt time.Time

	changeMu              sync.Mutex
	changeAddressesToSync map[common.AddressRef]struct{}

	locked *LockedOutputs
}

// New constructs an empty Account with its own scoped LockedOutputs set
// (§9: scoped to the AccountHandle, not process-global).
func New(index uint32, signerType, bech32HRP, storagePath string, clientOptions interface{}) *Account {
	return &Account{
		Index:                 index,
		SignerType:            signerType,
		ClientOptions:         clientOptions,
		Bech32HRP:             bech32HRP,
		StoragePath:           storagePath,
		addresses:             make(map[addrKey]*Address),
		messages:              make(map[common.MessageID]*Message),
		changeAddressesToSync: make(map[common.AddressRef]struct{}),
		locked:                NewLockedOutputs(),
	}
}

// LockedOutputs returns the account-scoped reservation set.
func (a *Account) LockedOutputs() *LockedOutputs { return a.locked }

// AddAddress inserts or replaces an address at its (internal, key_index)
// slot. Callers must hold the account write lock (see Handle.Write).
func (a *Account) AddAddress(addr *Address) {
	a.addresses[addrKey{internal: addr.Internal, index: addr.KeyIndex}] = addr
}

// Address looks up an address by identity.
func (a *Account) Address(internal bool, keyIndex uint32) (*Address, bool) {
	addr, ok := a.addresses[addrKey{internal: internal, index: keyIndex}]
	return addr, ok
}

// AddressByRef finds an address by its rendered AddressRef.
func (a *Account) AddressByRef(ref common.AddressRef) (*Address, bool) {
	for _, addr := range a.addresses {
		if addr.Ref.Equal(ref) {
			return addr, true
		}
	}
	return nil, false
}

// Addresses returns a copy sorted by (internal, key_index) as §3 requires.
func (a *Account) Addresses() []*Address {
	out := make([]*Address, 0, len(a.addresses))
	for _, addr := range a.addresses {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Internal != out[j].Internal {
			return !out[i].Internal // external (false) before internal (true), §4.2 ordering
		}
		return out[i].KeyIndex < out[j].KeyIndex
	})
	return out
}

// AddressesInSpace returns addresses for a single space, sorted ascending
// by key_index.
func (a *Account) AddressesInSpace(internal bool) []*Address {
	out := make([]*Address, 0)
	for _, addr := range a.addresses {
		if addr.Internal == internal {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].KeyIndex < out[j].KeyIndex })
	return out
}

// HighestIndex returns the highest key_index observed in a space and
// whether any address exists there at all.
func (a *Account) HighestIndex(internal bool) (uint32, bool) {
	found := false
	var max uint32
	for _, addr := range a.addresses {
		if addr.Internal != internal {
			continue
		}
		if !found || addr.KeyIndex > max {
			max = addr.KeyIndex
			found = true
		}
	}
	return max, found
}

// Message looks up a cached message by id.
func (a *Account) Message(id common.MessageID) (*Message, bool) {
	m, ok := a.messages[id]
	return m, ok
}

// SaveMessage upserts a message into the cache.
func (a *Account) SaveMessage(m *Message) {
	a.messages[m.ID] = m
}

// Messages returns a snapshot of all cached messages.
func (a *Account) Messages() []*Message {
	out := make([]*Message, 0, len(a.messages))
	for _, m := range a.messages {
		out = append(out, m)
	}
	return out
}

// SetLatestSyncedAt records the sync timestamp under the write lock.
func (a *Account) SetLatestSyncedAt(t time.Time) { a.latestSyncedAt = t }

// LatestSyncedAt returns the last recorded sync timestamp.
func (a *Account) LatestSyncedAt() time.Time { return a.latestSyncedAt }

// AddChangeAddressToSync records a change address as a remainder target of
// an in-flight transfer, so a subsequent skip_change sync still reconciles
// it (spec §4.1). Has its own brief lock per §5.
func (a *Account) AddChangeAddressToSync(ref common.AddressRef) {
	a.changeMu.Lock()
	defer a.changeMu.Unlock()
	a.changeAddressesToSync[ref] = struct{}{}
}

// ChangeAddressesToSync returns a snapshot of the set.
func (a *Account) ChangeAddressesToSync() []common.AddressRef {
	a.changeMu.Lock()
	defer a.changeMu.Unlock()
	out := make([]common.AddressRef, 0, len(a.changeAddressesToSync))
	for ref := range a.changeAddressesToSync {
		out = append(out, ref)
	}
	return out
}

// Owns reports whether ref belongs to one of this account's addresses.
func (a *Account) Owns(ref common.AddressRef) bool {
	_, ok := a.AddressByRef(ref)
	return ok
}
