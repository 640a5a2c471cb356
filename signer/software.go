package signer

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"golang.org/x/crypto/ed25519"

	"github.com/iotaledger/wallet.go/common"
	"github.com/iotaledger/wallet.go/essence"
	"github.com/iotaledger/wallet.go/params"
)

// Software is the deterministic, always-available signer backend: every
// address derives from a single seed via HMAC-SHA512(seed, path), the
// same "derive, never prompt" shape the teacher's account-key machinery
// assumes for a non-hardware signer. It never rejects a Derive call.
type Software struct {
	Seed []byte
}

// NewSoftware constructs a software signer over seed. The caller owns the
// seed's lifetime and zeroing; this module never persists it.
func NewSoftware(seed []byte) *Software {
	cp := make([]byte, len(seed))
	copy(cp, seed)
	return &Software{Seed: cp}
}

func (s *Software) path(index uint32, internal bool) []byte {
	buf := make([]byte, 5)
	binary.BigEndian.PutUint32(buf, index)
	if internal {
		buf[4] = 1
	}
	return buf
}

func (s *Software) keyPair(index uint32, internal bool) (ed25519.PublicKey, ed25519.PrivateKey) {
	mac := hmac.New(sha512.New, s.Seed)
	mac.Write(s.path(index, internal))
	sum := mac.Sum(nil)
	seed := sum[:ed25519.SeedSize]
	priv := ed25519.NewKeyFromSeed(seed)
	return priv.Public().(ed25519.PublicKey), priv
}

// Derive implements Signer. Deterministic: the same (index, internal)
// always yields the same AddressRef.
func (s *Software) Derive(_ context.Context, index uint32, internal bool, bech32HRP string, _ DeriveOptions) (common.AddressRef, error) {
	pub, _ := s.keyPair(index, internal)
	var payload [32]byte
	copy(payload[:], pub)
	return common.AddressRef{HRP: bech32HRP, Payload: payload}, nil
}

// Sign implements Signer, producing one unlock block per input, keyed by
// the input's (AddressIndex, Internal) tuple.
func (s *Software) Sign(_ context.Context, ess *essence.Essence, inputs []InputMeta, _ SignMetadata) ([]essence.UnlockBlock, error) {
	hash := ess.Hash()
	blocks := make([]essence.UnlockBlock, len(inputs))
	for i, in := range inputs {
		pub, priv := s.keyPair(in.AddressIndex, in.Internal)
		blocks[i] = essence.UnlockBlock{
			PublicKey: pub,
			Signature: ed25519.Sign(priv, hash[:]),
		}
	}
	return blocks, nil
}

// Capability implements Signer: software signers use the ledger-defined
// cardinality cap, not the 17-output hardware envelope.
func (s *Software) Capability() Capability {
	return Capability{MaxInputsPlusOutputs: params.InputOutputCountMax, IsHardware: false}
}
