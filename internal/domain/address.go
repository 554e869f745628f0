package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLen is the byte length of every ledger account address.
const AddressLen = 32

// Address is an opaque 32-byte ledger account identifier.
// Its text form is base58, as shown by ledger explorers and wallets.
type Address [AddressLen]byte

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, fmt.Errorf("decode address %q: %w", s, err)
	}
	if len(raw) != AddressLen {
		return a, fmt.Errorf("decode address %q: want %d bytes, got %d", s, AddressLen, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is ParseAddress for well-known constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressLen)
	copy(b, a[:])
	return b
}

// IsZero reports whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// SystemProgram is the ledger's native account-creation program.
var SystemProgram = Address{}

// Programs holds the two module identifiers every derivation is owned by.
// It is built once at startup and never mutated.
type Programs struct {
	Router Address `json:"router"` // routing module: vaults, escrows, caps
	Market Address `json:"market"` // market module: routes, holds, positions
}

// Hash is an opaque 32-byte digest carried through drafts uninterpreted.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	raw, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode hash: %w", err)
	}
	if len(raw) != len(h) {
		return fmt.Errorf("decode hash: want %d bytes, got %d", len(h), len(raw))
	}
	copy(h[:], raw)
	return nil
}
