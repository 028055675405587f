package metadata

import (
	"fmt"
	"strings"
)

const cpfLength = 11

// NormalizeCPF strips everything but digits.
func NormalizeCPF(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NewCPF returns the digits-only form of value. An empty value is a valid absent CPF.
func NewCPF(value string) (string, error) {
	digits := NormalizeCPF(value)
	if digits == "" {
		if strings.TrimSpace(value) != "" {
			return "", fmt.Errorf("cpf %q contains no digits", value)
		}
		return "", nil
	}
	if len(digits) != cpfLength {
		return "", fmt.Errorf("cpf must have %d digits, got %d", cpfLength, len(digits))
	}
	return digits, nil
}

// FormatCPF renders 11 digits as 000.000.000-00 and leaves anything else untouched.
func FormatCPF(digits string) string {
	if len(digits) != cpfLength {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// IsNumericQuery reports whether a search query looks like a CPF fragment:
// only digits and CPF punctuation, with at least three digits.
func IsNumericQuery(query string) bool {
	digits := 0
	for _, r := range strings.TrimSpace(query) {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' || r == '-' || r == ' ':
		default:
			return false
		}
	}
	return digits >= 3
}
