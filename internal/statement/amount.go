package statement

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a statement amount cell into a decimal. It accepts
// plain numbers and localized strings: comma as decimal separator with
// period as thousands separator ("1.234,56"), or American style as fallback
// ("1,234.56"), optionally prefixed with a currency symbol or sign.
func ParseAmount(raw string) (decimal.Decimal, error) {
	neg := false
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r == '€' || r == '$' || r == '£':
		case unicode.IsSpace(r):
		case r == '+':
		case r == '-' || r == '−':
			neg = true
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}

	// The decimal separator is whichever of ',' and '.' appears last.
	lastComma := strings.LastIndexByte(s, ',')
	if lastComma > strings.LastIndexByte(s, '.') && strings.Count(s, ",") == 1 {
		// Comma decimal separator; periods are thousands grouping.
		s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + s[lastComma+1:]
	} else {
		// American fallback: commas are thousands grouping.
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
