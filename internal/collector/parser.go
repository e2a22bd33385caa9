package collector

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParsePriceText extracts a positive price from free-form listing text such as
// "1 234,56 ₽", "$1,234.56", "1.234,56 €" or "от 450 руб.".
//
// Currency symbols and letters are dropped. Spaces, NBSP, thin spaces and
// apostrophes are grouping separators. When both '.' and ',' occur, the last one
// is the decimal point. A lone separator is a decimal point only if one or two
// digits follow it; otherwise it groups thousands.
func ParsePriceText(raw string) (float64, bool) {
	num := extractNumber(raw)
	if num == "" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(num, '.')
	lastComma := strings.LastIndexByte(num, ',')
	decimalAt := -1
	switch {
	case lastDot >= 0 && lastComma >= 0:
		decimalAt = max(lastDot, lastComma)
	case lastDot >= 0 || lastComma >= 0:
		sep := max(lastDot, lastComma)
		frac := len(num) - sep - 1
		if frac >= 1 && frac <= 2 && strings.Count(num, string(num[sep])) == 1 {
			decimalAt = sep
		}
	}

	var b strings.Builder
	for i := 0; i < len(num); i++ {
		c := num[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case i == decimalAt:
			b.WriteByte('.')
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// extractNumber returns the first run of digits and separators in raw, with
// grouping whitespace removed and trailing separators trimmed.
func extractNumber(raw string) string {
	var b strings.Builder
	started := false
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			started = true
		case !started:
			continue
		case r == '.' || r == ',':
			b.WriteRune(r)
		case r == ' ' || r == '\u00a0' || r == '\u2009' || r == '\u202f' || r == '\'':
			// grouping separator
		default:
			return strings.TrimRight(b.String(), ".,")
		}
	}
	return strings.TrimRight(b.String(), ".,")
}
