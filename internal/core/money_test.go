package core

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
	}{
		{"", 0},
		{"abc", 0},
		{"-", 0},
		{".", 0},
		{"$1,234.56", 123456},
		{"-42.1", -4210},
		{"1", 100},
		{"0.01", 1},
		{".5", 50},
		{"-.5", -50},
		{"5.", 500},
		{" 2.50 ", 250},
		{"USD 12", 1200},
		{"1.005", 101},   // half away from zero
		{"-1.005", -101}, // half away from zero
		{"1.2.3", 120},   // trailing garbage after the number is ignored
		{"-$1,234.56", 123456 * -1},
		{"$-7.99", -799},
		{"99999999999999999999999", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.out {
			t.Errorf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.out)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  int64
		out string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{123456, "$1,234.56"},
		{-15000, "-$150.00"},
		{100000000, "$1,000,000.00"},
		{-1, "-$0.01"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.out {
			t.Errorf("FormatAmount(%d) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	values := []int64{0, 1, 99, 100, 101, 999999, 2241458, -8542, -1, math.MaxInt64 / 1000, math.MaxInt64, math.MinInt64}
	for _, c := range values {
		if got := ParseAmount(FormatAmount(c)); got != c {
			t.Errorf("round trip of %d gave %d (formatted %q)", c, got, FormatAmount(c))
		}
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 241458}).String(); got != "$2,414.58" {
		t.Fatalf("unexpected money string %q", got)
	}
}
