// Package core provides the finance data model and money handling utilities.
//
// This file contains the money codec: parsing user-entered currency strings
// into integer cents and formatting cents back into a USD display string.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// CentsPerDollar is the number of minor units in one major currency unit.
const CentsPerDollar = 100

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ParseAmount converts a user-entered money string to cents.
//
// Every rune other than digits, '.' and '-' is dropped first, so currency
// symbols, grouping separators and whitespace are tolerated. The longest
// numeric prefix of what remains is read as a decimal and rounded half away
// from zero to whole cents. Input that holds no number yields 0.
//
// Examples:
//
//	ParseAmount("$1,234.56") -> 123456
//	ParseAmount("-42.1")     -> -4210
//	ParseAmount("abc")       -> 0
func ParseAmount(s string) int64 {
	clean := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)

	num := numericPrefix(clean)
	if num == "" {
		return 0
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0
	}
	return cents.IntPart()
}

// numericPrefix returns the leading "-?digits[.digits]" run of s, or "" when
// that run holds no digit.
func numericPrefix(s string) string {
	i := 0
	neg := i < len(s) && s[i] == '-'
	if neg {
		i++
	}
	intStart := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	intPart := s[intStart:i]

	fracPart := ""
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		fracPart = s[i+1 : j]
	}
	if intPart == "" && fracPart == "" {
		return ""
	}
	if intPart == "" {
		intPart = "0"
	}
	out := intPart
	if fracPart != "" {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// FormatAmount renders cents as a USD string with grouping, e.g. "-$1,234.56".
func FormatAmount(cents int64) string {
	neg := cents < 0
	// work in uint64 so math.MinInt64 keeps its magnitude
	abs := uint64(cents)
	if neg {
		abs = uint64(-(cents + 1)) + 1
	}
	dollars := abs / CentsPerDollar
	rem := abs % CentsPerDollar

	s := "$" + humanize.Comma(int64(dollars)) + fmt.Sprintf(".%02d", rem)
	if neg {
		return "-" + s
	}
	return s
}

// Money wraps an amount in cents.
type Money struct {
	Cents int64
}

// String formats the amount for display.
func (m Money) String() string {
	return FormatAmount(m.Cents)
}

// Dollars returns the value as a float64 for display purposes only.
// Use cents for calculations to avoid floating-point drift.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / CentsPerDollar
}
