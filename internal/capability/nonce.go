package capability

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// NonceSource yields the nonce that distinguishes caps minted for the same
// (user, route, mint).
type NonceSource interface {
	Next() (uint64, error)
}

// TimeNonces uses the wall clock in unix milliseconds. Two mints for the
// same key within one millisecond collide; callers minting concurrently
// should use RandomNonces.
type TimeNonces struct {
	Now func() time.Time
}

func (n TimeNonces) Next() (uint64, error) {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	ms := now().UnixMilli()
	if ms < 0 {
		return 0, fmt.Errorf("clock before epoch: %d", ms)
	}
	return uint64(ms), nil
}

// RandomNonces draws 64 bits from Rand, crypto/rand when nil.
type RandomNonces struct {
	Rand io.Reader
}

func (n RandomNonces) Next() (uint64, error) {
	r := n.Rand
	if r == nil {
		r = rand.Reader
	}
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("failed to read nonce: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// FixedNonce always returns the same value. Useful when the caller has
// already picked the nonce.
type FixedNonce uint64

func (n FixedNonce) Next() (uint64, error) { return uint64(n), nil }
