// Package format renders amounts for display.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// Currency renders a dollar amount with thousands separators, e.g. "-$1,234.56".
func Currency(amount float64) string {
	sign := ""
	if amount < 0 && math.Round(amount*100) != 0 {
		sign = "-"
	}
	return sign + usd.Sprintf("$%.2f", math.Abs(amount))
}

// SignedCurrency is Currency with an explicit plus sign for gains.
func SignedCurrency(amount float64) string {
	if amount > 0 {
		return "+" + Currency(amount)
	}
	return Currency(amount)
}

// Percent renders a percentage with one decimal (e.g., "43.5%").
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

// LocalAmount renders a whole local currency amount grouped per locale,
// e.g. "INR 6,880" for the en-IN locale. Unknown locales fall back to English.
func LocalAmount(amount float64, code, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%s %d", code, int64(math.Round(amount)))
}
