package safe

import (
	"errors"
	"math/bits"
)

var (
	ErrOverflow       = errors.New("CORE_SAFE_OVERFLOW")
	ErrUnderflow      = errors.New("CORE_SAFE_UNDERFLOW")
	ErrDivisionByZero = errors.New("CORE_SAFE_DIV_BY_ZERO")
)

// Add performs uint64 addition and reports overflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub performs uint64 subtraction and reports underflow.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

// Mul performs uint64 multiplication and reports overflow.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrOverflow
	}
	return lo, nil
}

// Div performs uint64 division, flooring toward zero.
func Div(a, b uint64) (uint64, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// MulDiv computes floor(a*b/d) with a 128-bit intermediate product, so
// a*b may exceed uint64 as long as the quotient fits.
func MulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	// bits.Div64 panics when the quotient does not fit.
	if hi >= d {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, d)
	return quo, nil
}

// MulDivUp computes ceil(a*b/d) with a 128-bit intermediate product.
func MulDivUp(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrOverflow
	}
	quo, rem := bits.Div64(hi, lo, d)
	if rem == 0 {
		return quo, nil
	}
	return Add(quo, 1)
}
