package web

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatPrice renders a prediction as dollars with thousands separators and
// two decimals, e.g. $181,234.50.
func FormatPrice(v float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return "$" + p.Sprintf("%.2f", v)
}
