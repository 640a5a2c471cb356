package essence

import (
	"golang.org/x/crypto/ed25519"
)

// UnlockBlock is the per-input authorization the Signer produces for an
// essence hash (§6 Signer collaborator, §4.5 step 6).
type UnlockBlock struct {
	PublicKey ed25519.PublicKey
	Signature []byte
}

// Verify checks an UnlockBlock against the essence hash it was produced
// over (§4.5 step 7, §8 property 7: "verify_unlock_blocks accepts iff
// signer produced the blocks over the canonical essence hash").
func (u UnlockBlock) Verify(hash [32]byte) bool {
	if len(u.PublicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(u.PublicKey, hash[:], u.Signature)
}

// VerifyAll verifies every unlock block against hash, returning the index
// of the first failure, or -1 if all verify. It does not compare the
// number of blocks with the number of inputs; the caller checks that and
// reports a shortfall as MissingUnlockBlock (§7).
func VerifyAll(hash [32]byte, blocks []UnlockBlock) int {
	for i, b := range blocks {
		if !b.Verify(hash) {
			return i
		}
	}
	return -1
}
