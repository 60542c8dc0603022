package vault

import (
	"strings"
	"unicode"
)

// commonPasswords is a built-in list of passwords seen in every breach dump.
// Used both for strength penalties and the breach-check heuristic.
var commonPasswords = map[string]bool{
	"123456":      true,
	"12345678":    true,
	"123456789":   true,
	"password":    true,
	"password1":   true,
	"password123": true,
	"qwerty":      true,
	"qwerty123":   true,
	"abc123":      true,
	"111111":      true,
	"1234567890":  true,
	"iloveyou":    true,
	"admin":       true,
	"welcome":     true,
	"monkey":      true,
	"letmein":     true,
	"dragon":      true,
	"sunshine":    true,
	"princess":    true,
	"football":    true,
}

// IsCommonPassword reports whether the password appears in the built-in
// common-password list (case-insensitive).
func IsCommonPassword(password string) bool {
	return commonPasswords[strings.ToLower(password)]
}

// StrengthScore rates a password 0-100 from length and character-class
// diversity, with a heavy penalty for known common passwords.
func StrengthScore(password string) int {
	if password == "" {
		return 0
	}

	score := 0

	// Length: up to 40 points, 2.5 per character capped at 16.
	length := len(password)
	if length > 16 {
		length = 16
	}
	score += length * 5 / 2

	// Character classes: 15 points each.
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	for _, ok := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if ok {
			score += 15
		}
	}

	if IsCommonPassword(password) {
		score -= 60
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
