package leads

import (
	"regexp"
	"strings"
	"unicode"
)

// emailPattern matches local@domain.tld with no whitespace.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// minPhoneDigits is the shortest accepted phone number after stripping punctuation.
const minPhoneDigits = 10

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// PhoneDigits strips every non-digit character from s.
func PhoneDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ValidPhone reports whether s carries at least ten digits.
func ValidPhone(s string) bool {
	return len(PhoneDigits(s)) >= minPhoneDigits
}

// ValidateContact checks a general contact submission. name is the already
// resolved full name and email the trimmed address.
func ValidateContact(name, email string) error {
	if isBlank(name) || isBlank(email) {
		return ErrNameEmailRequired
	}
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateIntake checks a qualified intake submission. email is optional but
// must be well formed when present.
func ValidateIntake(firstName, lastName, phone, email string) error {
	if isBlank(firstName) || isBlank(lastName) || isBlank(phone) {
		return ErrIntakeRequired
	}
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}
	if email != "" && !ValidEmail(email) {
		return ErrInvalidEmail
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimFunc(s, unicode.IsSpace) == ""
}
