package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressRef is an opaque ledger address: a bech32 human-readable prefix
// plus the raw address payload. Equality is defined over the payload only
// (§3); the bech32 string is a rendering, computed at the boundary.
type AddressRef struct {
	HRP     string
	Payload [32]byte
}

// Equal compares two AddressRefs by payload, as the data model requires.
func (a AddressRef) Equal(b AddressRef) bool {
	return a.Payload == b.Payload
}

// IsZero reports whether the ref has never been assigned a payload.
func (a AddressRef) IsZero() bool {
	return a.Payload == [32]byte{}
}

// Bech32 renders the address as "<hrp>1<hex-payload>", a simplified
// bech32-shaped encoding sufficient for this module's internal round-trip
// needs (bit-level bech32 checksum computation is delegated to the
// production ledger SDK at the real network boundary; this module treats
// Bech32 encoding itself as outside its scope, see spec §1 collaborators).
func (a AddressRef) Bech32() string {
	return fmt.Sprintf("%s1%s", a.HRP, hex.EncodeToString(a.Payload[:]))
}

func (a AddressRef) String() string { return a.Bech32() }

// ParseAddressRef is the inverse of Bech32, used by the Validate round-trip
// guard below and by tests that construct refs from fixtures.
func ParseAddressRef(s string) (AddressRef, error) {
	idx := strings.IndexByte(s, '1')
	if idx < 0 {
		return AddressRef{}, fmt.Errorf("common: malformed address %q: missing hrp separator", s)
	}
	hrp, payloadHex := s[:idx], s[idx+1:]
	raw, err := hex.DecodeString(payloadHex)
	if err != nil {
		return AddressRef{}, fmt.Errorf("common: malformed address %q: %w", s, err)
	}
	if len(raw) != 32 {
		return AddressRef{}, fmt.Errorf("common: malformed address %q: payload must be 32 bytes, got %d", s, len(raw))
	}
	var ref AddressRef
	ref.HRP = hrp
	copy(ref.Payload[:], raw)
	return ref, nil
}

// Validate re-parses the address's own rendered bech32 string and fails if
// it doesn't round-trip, guarding against HRP drift across network
// switches — recovered from original_source's AddressWrapper round-trip
// guard (see SPEC_FULL.md supplement 3).
func (a AddressRef) Validate() error {
	reparsed, err := ParseAddressRef(a.Bech32())
	if err != nil {
		return err
	}
	if !reparsed.Equal(a) || reparsed.HRP != a.HRP {
		return fmt.Errorf("common: address %s failed bech32 round-trip", a.Bech32())
	}
	return nil
}
