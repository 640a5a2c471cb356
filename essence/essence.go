// Package essence implements the canonical binary layout of a transaction
// essence (§6 "Wire format"): a deterministic byte representation used
// both to sort inputs/outputs (§4.5 step 5) and to derive the hash that
// gets signed and later re-verified (§4.5 steps 6-7).
package essence

import (
	"bytes"
	"encoding/binary"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/iotaledger/wallet.go/common"
)

// Input is the essence-level representation of a selected UTXO.
type Input struct {
	OutputID common.OutputID
}

// Output is the essence-level representation of a created output.
type Output struct {
	Address common.AddressRef
	Amount  uint64
	Kind    common.OutputKind
}

// Essence is the unsigned, canonically serialized body of a transaction.
type Essence struct {
	Inputs     []Input
	Outputs    []Output
	Indexation []byte // optional indexation payload
}

func (i Input) bytes() []byte {
	buf := make([]byte, 0, 34)
	buf = append(buf, i.OutputID.TransactionID[:]...)
	var idx [2]byte
	binary.LittleEndian.PutUint16(idx[:], i.OutputID.Index)
	return append(buf, idx[:]...)
}

func (o Output) bytes() []byte {
	buf := make([]byte, 0, 41)
	buf = append(buf, byte(o.Kind))
	buf = append(buf, o.Address.Payload[:]...)
	var amt [8]byte
	binary.LittleEndian.PutUint64(amt[:], o.Amount)
	return append(buf, amt[:]...)
}

// SortInputs canonicalizes input order by serialized bytes (§4.5 step 5,
// §6 "inputs and outputs are sorted by their serialized bytes").
func SortInputs(inputs []Input) {
	sort.Slice(inputs, func(i, j int) bool {
		return bytes.Compare(inputs[i].bytes(), inputs[j].bytes()) < 0
	})
}

// SortOutputs canonicalizes output order by serialized bytes.
func SortOutputs(outputs []Output) {
	sort.Slice(outputs, func(i, j int) bool {
		return bytes.Compare(outputs[i].bytes(), outputs[j].bytes()) < 0
	})
}

// Canonicalize sorts both legs in place, matching §4.5 step 5 exactly.
func (e *Essence) Canonicalize() {
	SortInputs(e.Inputs)
	SortOutputs(e.Outputs)
}

// Serialize produces the canonical binary layout consumed by Hash and by
// the Signer. Callers must Canonicalize before Serialize if determinism
// relative to selection order matters (the Transfer Builder always does).
func (e *Essence) Serialize() []byte {
	var buf bytes.Buffer
	var nIn [2]byte
	binary.LittleEndian.PutUint16(nIn[:], uint16(len(e.Inputs)))
	buf.Write(nIn[:])
	for _, in := range e.Inputs {
		buf.Write(in.bytes())
	}
	var nOut [2]byte
	binary.LittleEndian.PutUint16(nOut[:], uint16(len(e.Outputs)))
	buf.Write(nOut[:])
	for _, out := range e.Outputs {
		buf.Write(out.bytes())
	}
	var idxLen [4]byte
	binary.LittleEndian.PutUint32(idxLen[:], uint32(len(e.Indexation)))
	buf.Write(idxLen[:])
	buf.Write(e.Indexation)
	return buf.Bytes()
}

// Hash derives the essence hash that gets signed (§6: "Message id is
// derived from the serialized message per ledger spec" — the essence hash
// is the transaction-level analogue consumed one layer down).
func (e *Essence) Hash() [32]byte {
	return blake2b.Sum256(e.Serialize())
}
