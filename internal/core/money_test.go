package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"4.59", 459, false},
		{"4,59", 459, false},
		{"12", 1200, false},
		{"0.5", 50, false},
		{"4.595", 460, false}, // half-up on third decimal
		{"4.594", 459, false},
		{"0", 0, false}, // promotional zero-price lines are valid
		{"", 0, true},
		{"-1.00", 0, true},
		{"+1.00", 0, true},
		{"1.2.3", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDecimalToCents(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseDecimalToCents(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseDecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyFromReais(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{4.59, 459},
		{0, 0},
		{12.3, 1230},
		{-2.5, -250},
	}
	for _, tc := range cases {
		if got := MoneyFromReais(tc.in); got.Cents != tc.want {
			t.Fatalf("MoneyFromReais(%v) = %d, want %d", tc.in, got.Cents, tc.want)
		}
	}
}

func TestFormatReais(t *testing.T) {
	if got := (Money{Cents: 459}).FormatReais(); got != "R$ 4,59" {
		t.Fatalf("got %q", got)
	}
	if got := (Money{Cents: -1205}).FormatReais(); got != "-R$ 12,05" {
		t.Fatalf("got %q", got)
	}
}
