// Package pda derives the deterministic, signer-incapable account addresses
// the ledger's verifier recomputes to authorize module-owned accounts.
package pda

import (
	"crypto/sha256"

	"filippo.io/edwards25519"

	"github.com/Miminimi234/padd/internal/domain"
)

const (
	// MaxSeeds is the verifier's seed count limit, bump included.
	MaxSeeds = 16
	// MaxSeedLen is the verifier's per-seed byte limit.
	MaxSeedLen = 32

	// pdaMarker is appended to every preimage by the verifier.
	pdaMarker = "ProgramDerivedAddress"
)

// IsOnCurve reports whether b is a valid compressed ed25519 point, i.e.
// whether some private key could sign for it.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// Deriver runs the bump search. The zero value uses the real curve check;
// tests substitute a synthetic oracle.
type Deriver struct {
	OnCurve func([]byte) bool
}

// Derive searches bump = 255 down to 0 and returns the first
// sha256(seeds ‖ bump ‖ owner ‖ marker) that is not a curve point.
func (d Deriver) Derive(seeds [][]byte, owner domain.Address) (domain.Address, uint8, error) {
	const op = "derive address"

	if len(seeds) > MaxSeeds-1 {
		return domain.Address{}, 0, domain.Errorf(domain.ErrValidation, op, "%d seeds exceeds limit of %d", len(seeds), MaxSeeds-1)
	}
	for i, s := range seeds {
		if len(s) > MaxSeedLen {
			return domain.Address{}, 0, domain.Errorf(domain.ErrValidation, op, "seed %d is %d bytes, limit %d", i, len(s), MaxSeedLen)
		}
	}

	onCurve := d.OnCurve
	if onCurve == nil {
		onCurve = IsOnCurve
	}

	for bump := 255; bump >= 0; bump-- {
		candidate := hashCandidate(seeds, uint8(bump), owner)
		if !onCurve(candidate[:]) {
			return domain.Address(candidate), uint8(bump), nil
		}
	}
	return domain.Address{}, 0, domain.Errorf(domain.ErrDerivationExhausted, op, "no off-curve address for owner %s", owner)
}

// Create recomputes the address for a known bump, the way the verifier
// checks a submitted account. It fails if the result lies on the curve.
func (d Deriver) Create(seeds [][]byte, bump uint8, owner domain.Address) (domain.Address, error) {
	onCurve := d.OnCurve
	if onCurve == nil {
		onCurve = IsOnCurve
	}
	candidate := hashCandidate(seeds, bump, owner)
	if onCurve(candidate[:]) {
		return domain.Address{}, domain.Errorf(domain.ErrValidation, "create address", "bump %d yields an on-curve address", bump)
	}
	return domain.Address(candidate), nil
}

func hashCandidate(seeds [][]byte, bump uint8, owner domain.Address) [32]byte {
	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write([]byte{bump})
	h.Write(owner[:])
	h.Write([]byte(pdaMarker))

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Derive uses the real curve check.
func Derive(seeds [][]byte, owner domain.Address) (domain.Address, uint8, error) {
	return Deriver{}.Derive(seeds, owner)
}
