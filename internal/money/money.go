// Package money handles currency amounts as int64 minor units so that
// rent-range comparisons and gateway amounts are exact at the cents
// level. Decimal strings are parsed without ever going through a float.
package money

import (
	"fmt"
	"strings"
)

// ParseAmount converts a decimal string such as "1500.50" into minor
// units (150050). At most two fractional digits are accepted; negative
// amounts are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", s)
	}

	var minor int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		d := int64(r - '0')
		if minor > (1<<62)/10 {
			return 0, fmt.Errorf("amount %q overflows", s)
		}
		minor = minor*10 + d
	}
	// Pad the fraction to exactly two digits.
	for len(frac) < 2 {
		frac += "0"
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		minor = minor*10 + int64(r-'0')
	}
	return minor, nil
}

// Format renders minor units back to a two-decimal string: 150050 ->
// "1500.50".
func Format(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
