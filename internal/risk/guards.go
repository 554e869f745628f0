// Package risk holds the stateless pre-trade checks: capability expiry and
// debit limits, oracle price bands, margin and liquidation math, and the
// warmup-period gate read from the route header.
package risk

import (
	"errors"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/pkg/quant"
	"github.com/Miminimi234/padd/pkg/safe"
)

// ValidateCapExpiry reports whether a cap expiring at expiry is still
// usable at now. A cap expiring exactly at now is not.
func ValidateCapExpiry(expiry, now int64) bool {
	return now < expiry
}

// ValidateCapDebit reports whether debit fits in what the cap has left.
// Exact exhaustion is allowed.
func ValidateCapDebit(debit, capMax, capUsed quant.Fixed) bool {
	remaining, err := safe.Sub(uint64(capMax), uint64(capUsed))
	if err != nil {
		return false
	}
	return uint64(debit) <= remaining
}

// CheckCapDebit combines both cap checks and returns a typed error for
// the first one that fails.
func CheckCapDebit(c *domain.CapToken, expiry, now int64, debit quant.Fixed) error {
	const op = "check cap debit"
	if !ValidateCapExpiry(expiry, now) {
		return domain.Errorf(domain.ErrExpiry, op, "cap %s expired at %d (now %d)", c.Address, expiry, now)
	}
	if !ValidateCapDebit(debit, c.AmountMax, c.AmountUsed) {
		return domain.Errorf(domain.ErrAuthorization, op, "debit %s exceeds remaining %s on cap %s", debit, c.Remaining(), c.Address)
	}
	return nil
}

// PriceBand returns the inclusive [lower, upper] band around oraclePrice.
// Both bounds are computed directly from oraclePrice with floor division:
//
//	upper = oracle * (10000 + bps) / 10000
//	lower = oracle * 10000 / (10000 + bps)
//
// upper saturates at the largest Fixed when the true bound does not fit.
func PriceBand(oraclePrice quant.Fixed, bandBps uint32) (lower, upper quant.Fixed) {
	widened := uint64(quant.BpsDenominator) + uint64(bandBps)

	up, err := safe.MulDiv(uint64(oraclePrice), widened, quant.BpsDenominator)
	if err != nil {
		up = ^uint64(0)
	}
	// widened >= denominator, so this cannot overflow.
	low, _ := safe.MulDiv(uint64(oraclePrice), quant.BpsDenominator, widened)
	return quant.Fixed(low), quant.Fixed(up)
}

// ValidatePriceBands reports whether price lies within the band around
// oraclePrice.
func ValidatePriceBands(price, oraclePrice quant.Fixed, bandBps uint32) bool {
	lower, upper := PriceBand(oraclePrice, bandBps)
	return lower <= price && price <= upper
}

// CalculateRequiredMargin returns floor(positionValue * imBps / 10000).
func CalculateRequiredMargin(positionValue quant.Fixed, initialMarginBps uint32) (quant.Fixed, error) {
	m, err := safe.MulDiv(uint64(positionValue), uint64(initialMarginBps), quant.BpsDenominator)
	if err != nil {
		return 0, domain.Wrap(domain.ErrValidation, "required margin", err)
	}
	return quant.Fixed(m), nil
}

// CalculateLiquidationPrice returns the price at which equity falls to the
// maintenance margin:
//
//	long:  floor(entry * (10000 - mm) / 10000)
//	short: ceil(entry * (10000 + mm) / 10000)
//
// mm is applied in whole basis points; it is never truncated to a
// fraction before multiplying. Both sides round against the trader, so
// for 0 < mm the short level stays strictly above a non-zero entry.
func CalculateLiquidationPrice(entryPrice quant.Fixed, side domain.Side, maintenanceMarginBps uint32) (quant.Fixed, error) {
	const op = "liquidation price"
	if maintenanceMarginBps >= quant.BpsDenominator {
		return 0, domain.Errorf(domain.ErrValidation, op, "maintenance margin %d bps must be below %d", maintenanceMarginBps, quant.BpsDenominator)
	}

	var (
		p   uint64
		err error
	)
	switch side {
	case domain.SideBid:
		p, err = safe.MulDiv(uint64(entryPrice), quant.BpsDenominator-uint64(maintenanceMarginBps), quant.BpsDenominator)
	case domain.SideAsk:
		p, err = safe.MulDivUp(uint64(entryPrice), quant.BpsDenominator+uint64(maintenanceMarginBps), quant.BpsDenominator)
	default:
		return 0, domain.Errorf(domain.ErrValidation, op, "unknown side %s", side)
	}

	if errors.Is(err, safe.ErrOverflow) {
		return 0, domain.Errorf(domain.ErrValidation, op, "entry price %s too large", entryPrice)
	}
	return quant.Fixed(p), err
}

// LiquidationPriceFor is CalculateLiquidationPrice for an open position.
func LiquidationPriceFor(p *domain.Position, maintenanceMarginBps uint32) (quant.Fixed, error) {
	return CalculateLiquidationPrice(p.EntryPrice, p.Side, maintenanceMarginBps)
}

// NotionalValue returns floor(quantity * price / Scale).
func NotionalValue(quantity, price quant.Fixed) (quant.Fixed, error) {
	v, err := safe.MulDiv(uint64(quantity), uint64(price), quant.Scale)
	if err != nil {
		return 0, domain.Wrap(domain.ErrValidation, "notional value", err)
	}
	return quant.Fixed(v), nil
}
