package domain

import (
	"github.com/Miminimi234/padd/pkg/quant"
	"github.com/Miminimi234/padd/pkg/safe"
)

// CapToken is a bounded spend authorization: total debit never exceeds
// AmountMax, and only within TTLMs of creation.
// Invariant: 0 <= AmountUsed <= AmountMax, AmountUsed never decreases.
type CapToken struct {
	Owner      Address     `json:"owner"`
	Route      Address     `json:"route"`
	Mint       Address     `json:"mint"`
	Nonce      uint64      `json:"nonce,string"`
	AmountMax  quant.Fixed `json:"amount_max,string"`
	AmountUsed quant.Fixed `json:"amount_used,string"`
	TTLMs      uint32      `json:"ttl_ms"`
	Address    Address     `json:"address"`
}

// Remaining returns how much can still be debited.
func (c *CapToken) Remaining() quant.Fixed {
	rem, err := safe.Sub(uint64(c.AmountMax), uint64(c.AmountUsed))
	if err != nil {
		return 0
	}
	return quant.Fixed(rem)
}

// Debit records a spend against the cap. It fails without modifying the
// cap when amount exceeds what remains.
func (c *CapToken) Debit(amount quant.Fixed) error {
	if amount > c.Remaining() {
		return Errorf(ErrAuthorization, "cap debit", "debit %s exceeds remaining %s", amount, c.Remaining())
	}
	c.AmountUsed += amount
	return nil
}
