// Package types provides common types used across StreamPay.
package types

import (
	"fmt"
	"math/bits"
	"strconv"
)

// Amount represents a value in the smallest indivisible unit of the host
// chain's native currency. All arithmetic is integer-only, no floating point.
//
// Amounts are unsigned: the ledger never holds or reports a negative balance.
type Amount uint64

// MaxAmount is the largest representable Amount.
const MaxAmount = Amount(^uint64(0))

// CheckedAdd adds two Amounts and reports whether the result overflowed.
func (a Amount) CheckedAdd(other Amount) (Amount, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(other), 0)
	return Amount(sum), carry == 0
}

// SaturatingSub subtracts other from a, clamping at zero instead of wrapping.
func (a Amount) SaturatingSub(other Amount) Amount {
	if other >= a {
		return 0
	}
	return a - other
}

// Prorate returns a * elapsed / total, computed with a 128-bit intermediate
// product so the multiplication cannot overflow before the division. The
// result truncates toward zero: a prorated share is never rounded up.
//
// Prorate panics if total is zero or elapsed > total; callers clamp the
// elapsed window first.
func (a Amount) Prorate(elapsed, total uint64) Amount {
	if total == 0 {
		panic("types: prorate with zero total")
	}
	if elapsed > total {
		panic(fmt.Sprintf("types: prorate elapsed %d exceeds total %d", elapsed, total))
	}
	if elapsed == total {
		return a
	}

	hi, lo := bits.Mul64(uint64(a), elapsed)
	// hi < total holds because elapsed < total, so the quotient fits in 64 bits.
	quo, _ := bits.Div64(hi, lo, total)
	return Amount(quo)
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a > 0 }

// Min returns the smaller of two Amounts.
func (a Amount) Min(other Amount) Amount {
	if a < other {
		return a
	}
	return other
}

// Max returns the larger of two Amounts.
func (a Amount) Max(other Amount) Amount {
	if a > other {
		return a
	}
	return other
}

// String returns the amount in base-10 smallest units.
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}
