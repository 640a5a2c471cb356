package node

import (
	"context"
	"sync"

	"github.com/iotaledger/wallet.go/common"
)

// Fake is an in-memory Node used by this module's own tests, in the spirit
// of the teacher's test-backend pattern (a map-backed stand-in wired
// through the same interface real RPC clients satisfy).
type Fake struct {
	mu sync.Mutex

	HRP string

	outputsByAddress map[common.AddressRef][]common.OutputID
	outputs          map[common.OutputID]*OutputResponse
	messages         map[common.MessageID]*MessageResponse
	balances         map[common.AddressRef]*BalanceResponse
	included         map[common.TransactionID]*MessageResponse

	PostErr error // simulate a broadcast failure (§4.5 step 8)
}

// NewFake returns an empty fake node for the given network HRP.
func NewFake(hrp string) *Fake {
	return &Fake{
		HRP:              hrp,
		outputsByAddress: make(map[common.AddressRef][]common.OutputID),
		outputs:          make(map[common.OutputID]*OutputResponse),
		messages:         make(map[common.MessageID]*MessageResponse),
		balances:         make(map[common.AddressRef]*BalanceResponse),
		included:         make(map[common.TransactionID]*MessageResponse),
	}
}

// SeedOutput registers an output as currently present at an address, the
// primary fixture-building hook tests use.
func (f *Fake) SeedOutput(addr common.AddressRef, out *OutputResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputsByAddress[addr] = append(f.outputsByAddress[addr], out.OutputID)
	f.outputs[out.OutputID] = out
}

// RemoveOutput simulates a node pruning/spending an output: it stops
// appearing in Outputs() listings, exercising prune inference (§4.3
// step 2, §8 S4).
func (f *Fake) RemoveOutput(addr common.AddressRef, id common.OutputID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.outputsByAddress[addr]
	for i, existing := range ids {
		if existing == id {
			f.outputsByAddress[addr] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// SeedMessage registers a message fixture.
func (f *Fake) SeedMessage(msg *MessageResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.ID] = msg
}

// SeedBalance registers a balance fixture.
func (f *Fake) SeedBalance(addr common.AddressRef, bal *BalanceResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[addr] = bal
}

func (f *Fake) Outputs(_ context.Context, address common.AddressRef, opts OutputsOptions) ([]common.OutputID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.outputsByAddress[address]
	if opts.IncludeSpent {
		out := make([]common.OutputID, len(ids))
		copy(out, ids)
		return out, nil
	}
	out := make([]common.OutputID, 0, len(ids))
	for _, id := range ids {
		if o, ok := f.outputs[id]; ok && !o.IsSpent {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *Fake) GetOutput(_ context.Context, id common.OutputID) (*OutputResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.outputs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *Fake) GetMessage(_ context.Context, id common.MessageID) (*MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (f *Fake) Balance(_ context.Context, address common.AddressRef) (*BalanceResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.balances[address]; ok {
		return b, nil
	}
	// Derive from seeded unspent outputs when no explicit fixture exists.
	var total uint64
	for _, id := range f.outputsByAddress[address] {
		if o := f.outputs[id]; o != nil && !o.IsSpent {
			total += o.Amount
		}
	}
	return &BalanceResponse{Balance: total, DustAllowed: false}, nil
}

func (f *Fake) PostMessage(_ context.Context, msg *MessageResponse) (common.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PostErr != nil {
		return msg.ID, f.PostErr
	}
	f.messages[msg.ID] = msg
	if msg.Transaction != nil {
		f.included[msg.Transaction.ID] = msg
	}
	return msg.ID, nil
}

func (f *Fake) Repost(_ context.Context, _ RepostAction, id common.MessageID) (common.MessageID, *MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return common.MessageID{}, nil, ErrNotFound
	}
	return id, m, nil
}

func (f *Fake) GetIncludedMessage(_ context.Context, txID common.TransactionID) (*MessageResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.included[txID]
	if !ok {
		return nil, ErrNotFound
	}
	return m, nil
}

func (f *Fake) NetworkInfo(_ context.Context) (string, error) {
	return f.HRP, nil
}

func (f *Fake) RetryUntilIncluded(ctx context.Context, id common.MessageID) ([]*MessageResponse, error) {
	m, err := f.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return []*MessageResponse{m}, nil
}
