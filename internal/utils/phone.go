package utils

import (
	"regexp"
	"strings"
)

var (
	phoneRegex     = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	nonPhoneDigits = regexp.MustCompile(`[^\d+]`)
)

// NormalizePhone strips formatting and ensures a leading +.
func NormalizePhone(phone string) string {
	normalized := nonPhoneDigits.ReplaceAllString(phone, "")
	if normalized != "" && !strings.HasPrefix(normalized, "+") {
		normalized = "+" + normalized
	}
	return normalized
}

// IsValidPhone checks E.164 after normalization.
func IsValidPhone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
