// Package phone holds the phone-number rules shared by the cache store,
// the device-book adapter and the search layer. Two numbers refer to the
// same line iff their normalized forms are equal.
package phone

import (
	"strings"
	"unicode"
)

// Normalize strips spaces, hyphens, parentheses and plus signs from a phone
// number. A leading "+90" country prefix collapses to the national leading
// "0" so that "+90 532 123 45 67" and "05321234567" normalize equal.
func Normalize(number string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	n := r.Replace(number)
	if strings.HasPrefix(n, "+90") {
		n = "0" + strings.TrimPrefix(n, "+90")
	}
	return strings.ReplaceAll(n, "+", "")
}

// Equal reports whether two numbers normalize to the same form.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Format renders a number for display using the national grouping
// 0 5XX XXX XX XX (11 digits) or 5XX XXX XX XX (10 digits). Anything else
// is returned unchanged.
func Format(number string) string {
	var digits []byte
	for _, r := range number {
		if unicode.IsDigit(r) {
			digits = append(digits, byte(r))
		}
	}
	d := string(digits)
	switch {
	case len(d) == 11 && d[0] == '0':
		return d[0:1] + " " + d[1:4] + " " + d[4:7] + " " + d[7:9] + " " + d[9:11]
	case len(d) == 10 && d[0] == '5':
		return d[0:3] + " " + d[3:6] + " " + d[6:8] + " " + d[8:10]
	default:
		return number
	}
}

// IsValid reports whether a number carries at least 10 digits, allowing an
// optional leading plus sign.
func IsValid(number string) bool {
	digits := 0
	for _, r := range number {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}
