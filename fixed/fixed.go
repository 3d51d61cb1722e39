package fixed

import (
	"math/bits"
	"strconv"
)

// Num is a fixed-point value tagged with its format.
//
// Operations between values of the same format use scaled integer
// arithmetic. Operations between different formats are computed in float64
// and re-quantized into the promoted format (wider N, finer K, minimal
// storage), which trades precision for convenience. The zero Num is an
// unformatted zero that takes on the format of the value it is combined with.
type Num struct {
	raw    int64
	format Format
}

// FromInt returns i in format f.
func FromInt(f Format, i int64) Num {
	return Num{raw: f.wrap(i << f.Frac), format: f}
}

// FromFloat returns x in format f, truncated toward zero.
func FromFloat(f Format, x float64) Num {
	return Num{raw: f.wrap(int64(x * f.scale())), format: f}
}

// FromRaw wraps an already scaled integer.
func FromRaw(f Format, raw int64) Num {
	return Num{raw: f.wrap(raw), format: f}
}

// Zero returns zero in format f.
func Zero(f Format) Num {
	return Num{format: f}
}

// Raw returns the scaled integer.
func (a Num) Raw() int64 { return a.raw }

// Format returns the value's format.
func (a Num) Format() Format { return a.format }

// Float64 returns the value as a float64.
func (a Num) Float64() float64 {
	if a.format.Bits == 0 {
		return 0
	}
	return float64(a.raw) / a.format.scale()
}

// Float32 returns the value as a float32.
func (a Num) Float32() float32 {
	return float32(a.Float64())
}

// Int returns the integer part, rounding toward negative infinity.
func (a Num) Int() int64 {
	return a.raw >> a.format.Frac
}

// To converts a into format f through float64.
func (a Num) To(f Format) Num {
	if a.format == f {
		return a
	}
	if a.format.Bits == 0 {
		return Num{raw: f.wrap(a.raw), format: f}
	}
	return FromFloat(f, a.Float64())
}

// unify resolves unformatted operands. ok reports whether both operands
// share a format afterwards.
func unify(a, b Num) (Num, Num, bool) {
	switch {
	case a.format == b.format:
		return a, b, true
	case a.format.Bits == 0:
		a.format = b.format
		return a, b, true
	case b.format.Bits == 0:
		b.format = a.format
		return a, b, true
	}
	return a, b, false
}

// Add returns a + b.
func (a Num) Add(b Num) Num {
	a, b, ok := unify(a, b)
	if !ok {
		return FromFloat(promote(a.format, b.format), a.Float64()+b.Float64())
	}
	return Num{raw: a.format.wrap(a.raw + b.raw), format: a.format}
}

// Sub returns a - b.
func (a Num) Sub(b Num) Num {
	a, b, ok := unify(a, b)
	if !ok {
		return FromFloat(promote(a.format, b.format), a.Float64()-b.Float64())
	}
	return Num{raw: a.format.wrap(a.raw - b.raw), format: a.format}
}

// Mul returns a * b.
func (a Num) Mul(b Num) Num {
	a, b, ok := unify(a, b)
	if !ok {
		return FromFloat(promote(a.format, b.format), a.Float64()*b.Float64())
	}
	f := a.format
	if f.StorageBits() <= 32 {
		return Num{raw: f.wrap((a.raw * b.raw) >> f.Frac), format: f}
	}
	hi, lo := mul128(a.raw, b.raw)
	return Num{raw: f.wrap(shiftRight128(hi, lo, f.Frac)), format: f}
}

// Div returns a / b, truncated toward zero. It panics if b is zero.
func (a Num) Div(b Num) Num {
	a, b, ok := unify(a, b)
	if !ok {
		if b.raw == 0 {
			panic("fixed: division by zero")
		}
		return FromFloat(promote(a.format, b.format), a.Float64()/b.Float64())
	}
	if b.raw == 0 {
		panic("fixed: division by zero")
	}
	f := a.format
	if f.StorageBits() <= 32 {
		return Num{raw: f.wrap((a.raw << f.Frac) / b.raw), format: f}
	}
	return Num{raw: f.wrap(div128(a.raw, b.raw, f.Frac)), format: f}
}

// DivInt returns a / n in a's format, truncated toward zero.
func (a Num) DivInt(n int) Num {
	if n == 0 {
		panic("fixed: division by zero")
	}
	return Num{raw: a.format.wrap(a.raw / int64(n)), format: a.format}
}

// MulFloat returns a * x computed in float64 and quantized into a's format.
func (a Num) MulFloat(x float64) Num {
	if a.format.Bits == 0 {
		return a
	}
	return FromFloat(a.format, a.Float64()*x)
}

// Neg returns -a.
func (a Num) Neg() Num {
	return Num{raw: a.format.wrap(-a.raw), format: a.format}
}

// Cmp compares a and b and returns -1, 0 or +1. Values of different formats
// are compared through float64.
func (a Num) Cmp(b Num) int {
	a, b, ok := unify(a, b)
	if ok {
		switch {
		case a.raw < b.raw:
			return -1
		case a.raw > b.raw:
			return 1
		}
		return 0
	}
	x, y := a.Float64(), b.Float64()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

// Equal reports whether a and b hold the same value. Formats of the same
// storage variant are compared exactly by aligning their fractional bits.
func (a Num) Equal(b Num) bool {
	a, b, ok := unify(a, b)
	if ok {
		return a.raw == b.raw
	}
	if a.format.Fast != b.format.Fast {
		return a.Float64() == b.Float64()
	}
	switch {
	case a.format.Frac > b.format.Frac:
		return a.raw == b.raw<<(a.format.Frac-b.format.Frac)
	case b.format.Frac > a.format.Frac:
		return a.raw<<(b.format.Frac-a.format.Frac) == b.raw
	}
	return a.raw == b.raw
}

func (a Num) Less(b Num) bool    { return a.Cmp(b) < 0 }
func (a Num) LessEq(b Num) bool  { return a.Cmp(b) <= 0 }
func (a Num) Greater(b Num) bool { return a.Cmp(b) > 0 }

// Sign returns -1, 0 or +1.
func (a Num) Sign() int {
	switch {
	case a.raw < 0:
		return -1
	case a.raw > 0:
		return 1
	}
	return 0
}

// IsZero reports whether a is zero.
func (a Num) IsZero() bool { return a.raw == 0 }

func (a Num) String() string {
	return strconv.FormatFloat(a.Float64(), 'g', -1, 64)
}

// Min returns the smaller of a and b.
func Min(a, b Num) Num {
	if b.Less(a) {
		return b
	}
	return a
}

// mul128 returns the signed 128-bit product of a and b.
func mul128(a, b int64) (hi int64, lo uint64) {
	uh, ul := bits.Mul64(uint64(a), uint64(b))
	// Correct the unsigned high word for negative operands.
	if a < 0 {
		uh -= uint64(b)
	}
	if b < 0 {
		uh -= uint64(a)
	}
	return int64(uh), ul
}

// shiftRight128 returns the low 64 bits of (hi:lo) >> k.
func shiftRight128(hi int64, lo uint64, k uint8) int64 {
	if k == 0 {
		return int64(lo)
	}
	return int64(lo>>k | uint64(hi)<<(64-k))
}

// div128 returns the low 64 bits of (a << k) / b, truncated toward zero.
func div128(a, b int64, k uint8) int64 {
	negative := (a < 0) != (b < 0)
	ua, ub := uint64(a), uint64(b)
	if a < 0 {
		ua = -ua
	}
	if b < 0 {
		ub = -ub
	}
	var hi, lo uint64
	if k == 0 {
		lo = ua
	} else {
		hi, lo = ua>>(64-k), ua<<k
	}
	// Reduce the high word first so Div64 cannot overflow; the quotient bits
	// above 64 are dropped, matching storage wrap-around.
	_, rem := bits.Div64(0, hi, ub)
	q, _ := bits.Div64(rem, lo, ub)
	if negative {
		return -int64(q)
	}
	return int64(q)
}
