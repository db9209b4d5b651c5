package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is a 3-byte Insteon device address
type Address [3]byte

// UnknownAddress is used where an address field has no value
var UnknownAddress = Address{0x00, 0x00, 0x00}

// ParseAddress parses "AA.BB.CC" or "AABBCC" (case-insensitive).
// An empty string yields UnknownAddress.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownAddress, nil
	}

	raw := strings.ReplaceAll(s, ".", "")
	if len(raw) != 6 {
		return Address{}, fmt.Errorf("invalid address %q: expected format AA.BB.CC", s)
	}

	b, err := hex.DecodeString(raw)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}

	var a Address
	copy(a[:], b)
	return a, nil
}

// GroupAddress returns the synthetic destination used by all-link broadcasts
func GroupAddress(group byte) Address {
	return Address{0x00, 0x00, group}
}

// High returns the first (most significant) address byte
func (a Address) High() byte { return a[0] }

// Middle returns the second address byte
func (a Address) Middle() byte { return a[1] }

// Low returns the last address byte
func (a Address) Low() byte { return a[2] }

// IsUnknown reports whether a is the reserved unknown address
func (a Address) IsUnknown() bool {
	return a == UnknownAddress
}

// String returns the address as AA.BB.CC
func (a Address) String() string {
	return fmt.Sprintf("%02X.%02X.%02X", a[0], a[1], a[2])
}
