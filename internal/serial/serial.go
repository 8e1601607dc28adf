// Package serial derives comparable identity keys from free-form pump
// serial numbers.
package serial

import "strings"

// DefaultShortLen is the truncation length used for filesystem-safe names.
const DefaultShortLen = 20

// Digits returns the concatenation of all decimal-digit runs in s, in order,
// with every non-digit character removed. Two serials identify the same pump
// iff their Digits are equal, which makes matching case- and
// punctuation-insensitive by construction ("EDW12-345" → "12345").
// An empty result means the serial carries no usable identity.
func Digits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Shorten truncates s to at most max runes. No other transformation is
// applied; callers use this to keep result filenames under path limits.
func Shorten(s string, max int) string {
	if max <= 0 {
		max = DefaultShortLen
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
