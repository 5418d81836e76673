package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// nbsp separates digit groups and the currency suffix, as cs-CZ formatting does.
const nbsp = "\u00a0"

// FormatCZK formats an amount in whole Czech crowns using cs-CZ notation,
// e.g. 41750 -> "41 750 Kč". Halves round away from zero.
func FormatCZK(amount decimal.Decimal) string {
	return formatGrouped(amount.Round(0)) + nbsp + "Kč"
}

// FormatAmount formats a decimal with up to two fraction digits and a decimal
// comma, without a currency suffix.
func FormatAmount(v decimal.Decimal) string {
	v = v.Round(2)
	intPart := v.Truncate(0)
	frac := v.Sub(intPart).Abs()

	out := formatGrouped(intPart)
	if v.IsNegative() && intPart.IsZero() {
		out = "-" + out
	}
	if !frac.IsZero() {
		out += "," + strings.TrimPrefix(frac.String(), "0.")
	}
	return out
}

// FormatPercent formats a discount, e.g. 15 -> "15 %".
func FormatPercent(v decimal.Decimal) string {
	return FormatAmount(v) + nbsp + "%"
}

// FormatDate formats a date the way cs-CZ does, e.g. "09. 02. 2026".
func FormatDate(t time.Time) string {
	return t.Format("02. 01. 2006")
}

// formatGrouped renders the integer part of v with space-grouped thousands.
func formatGrouped(v decimal.Decimal) string {
	digits := v.Truncate(0).Abs().String()
	negative := v.IsNegative() && !v.Truncate(0).IsZero()

	applied := applyThousandsGrouping(digits)
	if negative {
		return "-" + applied
	}
	return applied
}

// applyThousandsGrouping inserts a separator every three digits from the right.
func applyThousandsGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(nbsp)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
