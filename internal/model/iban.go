package model

import (
	"fmt"
	"strings"
)

// ValidateIBAN checks an IBAN's length, charset and mod-97 checksum.
func ValidateIBAN(iban string) error {
	s := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return fmt.Errorf("invalid IBAN %q: bad length", iban)
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("invalid IBAN %q: bad character %q", iban, r)
		}
	}

	// Move the country code and check digits to the end, then compute
	// the ISO 7064 mod-97 remainder with letters mapped to 10..35.
	rearranged := s[4:] + s[:4]
	rem := 0
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			rem = (rem*100 + int(r-'A') + 10) % 97
		} else {
			rem = (rem*10 + int(r-'0')) % 97
		}
	}
	if rem != 1 {
		return fmt.Errorf("invalid IBAN %q: checksum failed", iban)
	}
	return nil
}
