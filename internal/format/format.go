// Package format renders and parses amounts, dates and percentages using
// the Chilean display convention: "$" prefix, "." thousands separator and
// no decimals.
//
// FormatCurrency is the single rendering path for money. Everything that
// shows an amount to a user goes through it.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	CurrencySymbol    = "$"
	ThousandSeparator = "."
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// FormatCurrency renders an amount in the smallest unit, e.g. 1500 -> "$1.500".
func FormatCurrency(amount int64) string {
	n := FormatNumber(amount)
	if digits, ok := strings.CutPrefix(n, "-"); ok {
		return "-" + CurrencySymbol + digits
	}
	return CurrencySymbol + n
}

// FormatAmount rounds half away from zero before rendering.
func FormatAmount(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return FormatCurrency(0)
	}
	return FormatCurrency(int64(math.Round(amount)))
}

// FormatNumber groups the digits of n. humanize.Comma works on the int64
// directly, so every value including math.MinInt64 is exact.
func FormatNumber(n int64) string {
	return strings.ReplaceAll(humanize.Comma(n), ",", ThousandSeparator)
}

// ParseLocalizedNumber strips the currency symbol, thousands separators
// and spaces and parses what is left as an integer. Empty or non-numeric
// input yields 0.
func ParseLocalizedNumber(text string) int64 {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, CurrencySymbol)
	s = strings.ReplaceAll(s, ThousandSeparator, "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// FormatDate renders an ISO calendar day ("2025-03-14", optionally with a
// time part) as "14/03/2025". The day is read from the string itself, so no
// zone conversion can move it. Unparseable input is returned unchanged.
func FormatDate(iso string) string {
	s := strings.TrimSpace(iso)
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

// FormatDay renders a time's calendar day in its own location.
func FormatDay(t time.Time) string {
	return t.Format("02/01/2006")
}

// RoundPercent rounds to one decimal place.
func RoundPercent(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return decimal.NewFromFloat(p).Round(1).InexactFloat64()
}

// FormatPercent renders p with one decimal, e.g. 30 -> "30.0%".
func FormatPercent(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		p = 0
	}
	return decimal.NewFromFloat(p).StringFixed(1) + "%"
}

// Share returns part/whole*100, or 0 when whole is 0.
func Share(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).
		InexactFloat64()
}

// MonthName returns the lowercase Spanish name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// RelativeTime renders the age of t as seen at now.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	mins := int(diff / time.Minute)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))

	switch {
	case mins < 1:
		return "Justo ahora"
	case mins < 60:
		return fmt.Sprintf("Hace %d min", mins)
	case hours < 24:
		return fmt.Sprintf("Hace %dh", hours)
	case days == 1:
		return "Ayer"
	case days < 7:
		return fmt.Sprintf("Hace %d días", days)
	default:
		return t.In(now.Location()).Format("02/01")
	}
}
