// Package fixed implements signed binary fixed-point numbers whose width and
// fractional precision are chosen at runtime.
//
// A value v of format (N, K) represents v / 2^K. Two storage variants exist:
// the minimal variant wraps at the smallest of 8/16/32/64 bits that holds N,
// the fast variant wraps at the native 64-bit word (8 bits when N <= 8).
package fixed

import (
	"fmt"
	"regexp"
	"strconv"
)

// Format describes a fixed-point parameterization.
type Format struct {
	Bits uint8 // total width N
	Frac uint8 // fractional bits K
	Fast bool  // word-aligned storage instead of minimal storage
}

// Q32_16 is the default format used for every simulation quantity.
var Q32_16 = Format{Bits: 32, Frac: 16}

var formatPattern = regexp.MustCompile(`^\s*(FAST_FIXED|FIXED)\s*[(<]\s*(\d+)\s*,\s*(\d+)\s*[)>]\s*$`)

// ParseFormat parses "FIXED(N,K)" or "FAST_FIXED(N,K)". Angle brackets are
// accepted in place of parentheses.
func ParseFormat(s string) (Format, error) {
	m := formatPattern.FindStringSubmatch(s)
	if m == nil {
		return Format{}, fmt.Errorf("fixed: unrecognized format %q", s)
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Format{}, fmt.Errorf("fixed: parsing width of %q: %w", s, err)
	}
	k, err := strconv.Atoi(m[3])
	if err != nil {
		return Format{}, fmt.Errorf("fixed: parsing fraction of %q: %w", s, err)
	}
	if n > 64 || k > 64 {
		return Format{}, fmt.Errorf("fixed: format %q out of range", s)
	}
	f := Format{Bits: uint8(n), Frac: uint8(k), Fast: m[1] == "FAST_FIXED"}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// MustParseFormat is like ParseFormat but panics on error.
func MustParseFormat(s string) Format {
	f, err := ParseFormat(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Validate reports whether the format can hold values.
func (f Format) Validate() error {
	switch {
	case f.Bits == 0:
		return fmt.Errorf("fixed: %v has no bits", f)
	case f.Bits > 64:
		return fmt.Errorf("fixed: %v is wider than 64 bits", f)
	case f.Frac >= f.Bits:
		return fmt.Errorf("fixed: %v needs fewer fractional bits than total bits", f)
	}
	return nil
}

func (f Format) String() string {
	name := "FIXED"
	if f.Fast {
		name = "FAST_FIXED"
	}
	return fmt.Sprintf("%s(%d,%d)", name, f.Bits, f.Frac)
}

// StorageBits returns the width at which values of this format wrap.
func (f Format) StorageBits() uint {
	switch {
	case f.Bits <= 8:
		return 8
	case f.Fast:
		return 64
	case f.Bits <= 16:
		return 16
	case f.Bits <= 32:
		return 32
	}
	return 64
}

// wrap truncates v to the storage width with sign extension.
func (f Format) wrap(v int64) int64 {
	w := f.StorageBits()
	if w >= 64 {
		return v
	}
	s := 64 - w
	return v << s >> s
}

func (f Format) scale() float64 {
	return float64(uint64(1) << f.Frac)
}

// promote returns the format mixed-format arithmetic produces.
func promote(a, b Format) Format {
	return Format{Bits: max(a.Bits, b.Bits), Frac: max(a.Frac, b.Frac)}
}
