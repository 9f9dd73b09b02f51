package models

import (
	"regexp"
	"strings"
)

var registrationPattern = regexp.MustCompile(`^REG-\d{6}$`)

// NormalizeRegistrationNumber trims, uppercases and turns underscores into
// hyphens. Applying it twice yields the same value.
func NormalizeRegistrationNumber(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), "_", "-")
}

// ValidRegistrationNumber reports whether s, once normalized, has the
// REG-dddddd shape.
func ValidRegistrationNumber(s string) bool {
	return registrationPattern.MatchString(NormalizeRegistrationNumber(s))
}

// SameRegistrationNumber compares two registration numbers after
// normalizing both sides.
func SameRegistrationNumber(a, b string) bool {
	return NormalizeRegistrationNumber(a) == NormalizeRegistrationNumber(b)
}
