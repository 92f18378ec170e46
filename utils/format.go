package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numPrinter = message.NewPrinter(language.English)

// FormatNumber renders an integer with thousands separators for admin
// summaries (e.g. 1234567 -> "1,234,567").
func FormatNumber(n int64) string {
	return numPrinter.Sprintf("%d", n)
}
