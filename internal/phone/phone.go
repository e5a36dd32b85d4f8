// Package phone validates customer phone numbers entered as free text.
package phone

import "strings"

// Normalize strips everything except digits and a leading "+" and rewrites
// a leading "8" to "+7", so "8 (900) 123-45-67" becomes "+79001234567".
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if strings.HasPrefix(s, "8") {
		s = "+7" + s[1:]
	}
	return s
}

// Valid reports whether raw is an acceptable phone number. Two shapes pass:
// a Russian "+7" number with exactly 10 digits after the prefix, or a loose
// international form of "+" followed by 9 to 16 digits.
func Valid(raw string) bool {
	s := Normalize(raw)
	if !strings.HasPrefix(s, "+") {
		return false
	}
	digits := s[1:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	if strings.HasPrefix(s, "+7") {
		return len(s) == 12
	}
	return len(digits) >= 9 && len(digits) <= 16
}
