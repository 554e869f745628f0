package domain

import (
	"fmt"

	"github.com/Miminimi234/padd/pkg/quant"
)

// Side is the order direction, encoded as the ledger's u8 enum.
type Side uint8

const (
	SideBid Side = 0 // long
	SideAsk Side = 1 // short
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	default:
		return fmt.Sprintf("SIDE(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBid || s == SideAsk
}

// ParseSide accepts "bid"/"long"/"buy" and "ask"/"short"/"sell".
func ParseSide(s string) (Side, error) {
	switch s {
	case "bid", "BID", "long", "LONG", "buy", "BUY":
		return SideBid, nil
	case "ask", "ASK", "short", "SHORT", "sell", "SELL":
		return SideAsk, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// Protocol ttl ceilings, enforced by the ledger.
const (
	MaxHoldTTLMs uint32 = 60_000
	MaxCapTTLMs  uint32 = 120_000
)

// PlaceOrderParams is the caller's order request in human units.
// Quantity and LimitPrice are already converted to fixed point; a zero
// LimitPrice means market order.
type PlaceOrderParams struct {
	InstrumentIndex uint16
	Side            Side
	Quantity        quant.Fixed
	LimitPrice      quant.Fixed
	Leverage        uint32 // whole multiples, e.g. 5 = 5x

	// Optional pre-trade band check. Skipped when OraclePrice is zero.
	OraclePrice quant.Fixed
	BandBps     uint32

	// Optional caller-supplied commitment. Drawn at random when nil.
	CommitmentHash *Hash
}

// IsMarket reports whether the order has no limit price.
func (p PlaceOrderParams) IsMarket() bool {
	return p.LimitPrice == 0
}

// HoldStatus is the client-side intended state of a hold. Actual
// transitions happen on the ledger once the draft is submitted.
type HoldStatus uint8

const (
	HoldPending HoldStatus = iota
	HoldCommitted
	HoldCancelled
	HoldExpired
)

func (s HoldStatus) String() string {
	switch s {
	case HoldPending:
		return "PENDING"
	case HoldCommitted:
		return "COMMITTED"
	case HoldCancelled:
		return "CANCELLED"
	case HoldExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// HoldReceipt describes a time-bound order-intent lock.
// HoldID is random; Address is the hold account derived from it.
type HoldReceipt struct {
	HoldID          Address     `json:"hold_id"`
	Address         Address     `json:"address"`
	RouteID         Address     `json:"route_id"`
	InstrumentIndex uint16      `json:"instrument_index"`
	Side            Side        `json:"side"`
	Quantity        quant.Fixed `json:"quantity,string"`
	LimitPrice      quant.Fixed `json:"limit_price,string"`
	TTLMs           uint32      `json:"ttl_ms"`
	CommitmentHash  Hash        `json:"commitment_hash"`
	Status          HoldStatus  `json:"status"`
}
