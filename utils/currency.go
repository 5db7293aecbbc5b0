package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEUR renders an amount for display, rounded to cents.
// Example: 1234.5 -> "€1.234,50"
func FormatEUR(amount decimal.Decimal) string {
	formatted := amount.Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign = "-"
		formatted = formatted[1:]
	}

	parts := strings.SplitN(formatted, ".", 2)
	integerPart := parts[0]
	decimalPart := parts[1]

	// Tambahkan pemisah ribuan
	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return sign + "€" + strings.Join(groups, ".") + "," + decimalPart
}

// RoundPrice rounds to cents for presentation. Stored prices stay exact.
func RoundPrice(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}
