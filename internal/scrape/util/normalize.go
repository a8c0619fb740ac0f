package util

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizePhone reduces a raw phone string to digits with an optional
// leading +. "Phone: +1 203-555-1212" becomes "+12035551212". Returns ""
// when no digits remain.
func NormalizePhone(s string) string {
	s = CleanText(s)
	for _, prefix := range []string{"Phone:", "phone:", "Call", "call", "tel:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}

	var b strings.Builder
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	if digits == 0 {
		return ""
	}
	return b.String()
}

// CountDigits reports how many decimal digits s contains.
func CountDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
