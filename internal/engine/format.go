package engine

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// Money formats a sum with thousands separators, e.g. "£12,500".
func Money(v float64) string {
	return printer.Sprintf("£%d", int64(math.Round(v)))
}
