// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with comma separators and a fixed number of decimals.
// e.g., 1234567.891 with places=2 -> "1,234,567.89"
func FormatMoney(d decimal.Decimal, places int32) string {
	rounded := d.Round(places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}

	s := rounded.Abs().StringFixed(places)
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := sign + groupDigits(intPart)
	if hasFrac {
		out += "." + frac
	}
	return out
}

// FormatCurrency formats an amount followed by a currency label.
// e.g., (1234.5, 0, "JPY") -> "1,235 JPY"
func FormatCurrency(d decimal.Decimal, places int32, label string) string {
	if label == "" {
		return FormatMoney(d, places)
	}
	return FormatMoney(d, places) + " " + label
}

// FormatDelta formats a signed amount, always carrying a sign.
func FormatDelta(d decimal.Decimal, places int32) string {
	if d.Round(places).IsNegative() {
		return FormatMoney(d, places)
	}
	return "+" + FormatMoney(d, places)
}

// FormatDuration formats a duration for run summaries.
// e.g., 1m5s -> "1m 5s", 2.5s -> "2.5s", 120ms -> "120ms"
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		mins := int64(d / time.Minute)
		secs := int64((d % time.Minute) / time.Second)
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	return groupDigits(strconv.FormatInt(n, 10))
}

// FormatPercent formats an integer percentage.
func FormatPercent(pct int64) string {
	return strconv.FormatInt(pct, 10) + "%"
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
