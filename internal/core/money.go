// Package core holds the receipt domain model and the aggregation engine.
//
// This file contains functions for parsing monetary amounts from strings and
// converting between cents and real (R$) representations.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var errInvalidAmount = fmt.Errorf("invalid amount")

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, which
// matters because extracted receipt payloads carry prices the way they were
// printed. Negative values are rejected; zero is allowed (promotional items).
//
// Examples:
//
//	ParseDecimalToCents("4.59")  -> 459, nil
//	ParseDecimalToCents("4,59")  -> 459, nil
//	ParseDecimalToCents("4.595") -> 460, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, errInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, errInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, errInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, errInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, errInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, errInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		d1 := int64(fracPart[0] - '0')
		fracCents = d1 * 10
		if len(fracPart) > 1 {
			d2 := int64(fracPart[1] - '0')
			fracCents += d2
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// MoneyFromReais converts a float amount in reais to cents with half-up
// rounding. Used at the JSON boundary where the API speaks decimal reais.
func MoneyFromReais(v float64) Money {
	return Money{Cents: int64(math.Round(v * 100))}
}

// Reais returns the real value as a float64 for display and JSON encoding.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// FormatReais renders the amount as "R$ 12,34".
func (m Money) FormatReais() string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := strconv.FormatInt(cents/100, 10) + "," + fmt.Sprintf("%02d", cents%100)
	if neg {
		return "-R$ " + s
	}
	return "R$ " + s
}
