package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Validation mirrors the intake rules: descriptions carry at least 10
// characters after trimming, contacts are an email or a 10-15 digit phone,
// payment is a strictly positive integer.

const MinDescriptionLen = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidDescription reports whether text is an acceptable task or spec
// description, returning the trimmed form.
func ValidDescription(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	return trimmed, len([]rune(trimmed)) >= MinDescriptionLen
}

// NormalizeContact validates and canonicalizes a free-text contact.
// Emails pass through verbatim; phones are reduced to digits and stored
// with a leading "+".
func NormalizeContact(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if emailPattern.MatchString(trimmed) {
		return trimmed, true
	}
	digits := keepDigits(trimmed)
	if len(digits) >= 10 && len(digits) <= 15 {
		return "+" + digits, true
	}
	return "", false
}

// NormalizePhone canonicalizes a structured contact share, which arrives
// digits-only (possibly with separators) and is always treated as a phone.
func NormalizePhone(number string) string {
	return "+" + keepDigits(number)
}

// ParsePayment parses a strictly positive integer amount.
func ParsePayment(text string) (int64, bool) {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func formatUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
