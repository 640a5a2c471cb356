package account

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/log"
)

var lockedLogger = log.NewModuleLogger(log.Account)

// LockedOutputs is the process-wide-per-account set of OutputIDs reserved
// by in-flight transfers (§3). It is scoped to a single AccountHandle, not
// process-global (§9 design note: "Global mutable state ... is scoped to
// the AccountHandle"). No I/O ever happens while the mutex is held (§5).
type LockedOutputs struct {
	mu  sync.Mutex
	set mapset.Set[common.OutputID]
}

// NewLockedOutputs returns an empty reservation set.
func NewLockedOutputs() *LockedOutputs {
	return &LockedOutputs{set: mapset.NewSet[common.OutputID]()}
}

// Contains reports whether id is currently reserved.
func (l *LockedOutputs) Contains(id common.OutputID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set.Contains(id)
}

// Lock reserves every id in ids. Used by the Input Selector to commit a
// selection (§4.4: "The selector commits by extending LockedOutputs with
// every chosen OutputId").
func (l *LockedOutputs) Lock(ids []common.OutputID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.set.Add(id)
	}
	lockedLogger.Debug("reserved outputs", "count", len(ids))
}

// Release frees every id in ids, used on the post-submit path (§4.5 step 9)
// and on the Transfer Builder's error paths after a successful selection
// (§7).
func (l *LockedOutputs) Release(ids []common.OutputID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		l.set.Remove(id)
	}
	lockedLogger.Debug("released outputs", "count", len(ids))
}

// Snapshot returns the currently reserved IDs, for filtering candidates
// outside the lock (readers must not assume the set is stable afterward).
func (l *LockedOutputs) Snapshot() []common.OutputID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.set.ToSlice()
}
