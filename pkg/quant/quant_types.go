package quant

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Miminimi234/padd/pkg/safe"
)

// Fixed is a non-negative quantity or price multiplied by Scale (10^6).
// E.g., 1.23 USDC = 1,230,000 Fixed. This is the ledger's own unit and the
// only representation used for arithmetic.
type Fixed uint64

const (
	// Decimals is the number of fractional digits carried on-chain.
	Decimals = 6
	// Scale is 10^Decimals.
	Scale = 1_000_000

	// BpsDenominator is the number of basis points in 100%.
	BpsDenominator = 10_000
)

var (
	ErrNegative  = errors.New("fixed-point value must not be negative")
	ErrTooLarge  = errors.New("fixed-point value exceeds uint64 range")
	ErrMalformed = errors.New("malformed decimal value")
)

var maxFixed = decimal.NewFromUint64(^uint64(0))

// ToFixed converts a human decimal into Fixed, truncating extra precision
// toward zero the same way the ledger does.
func ToFixed(d decimal.Decimal) (Fixed, error) {
	if d.IsNegative() {
		return 0, ErrNegative
	}
	scaled := d.Shift(Decimals).Truncate(0)
	if scaled.GreaterThan(maxFixed) {
		return 0, ErrTooLarge
	}
	return Fixed(scaled.BigInt().Uint64()), nil
}

// ParseFixed converts a numeric string (e.g. "1.5") into Fixed without
// touching float64.
func ParseFixed(s string) (Fixed, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return ToFixed(d)
}

// MustParseFixed is ParseFixed for constants and tests.
func MustParseFixed(s string) Fixed {
	f, err := ParseFixed(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Units returns a Fixed equal to n whole units. Like MustParseFixed it is
// meant for constants and tests, and panics if n units overflow.
func Units(n uint64) Fixed {
	v, err := safe.Mul(n, Scale)
	if err != nil {
		panic(fmt.Errorf("%w: %d units", ErrTooLarge, n))
	}
	return Fixed(v)
}

// Decimal returns the human-readable decimal value.
func (f Fixed) Decimal() decimal.Decimal {
	return decimal.NewFromUint64(uint64(f)).Shift(-Decimals)
}

func (f Fixed) String() string {
	return f.Decimal().StringFixed(Decimals)
}
