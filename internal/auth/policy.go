package auth

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PasswordSymbols is the fixed set of characters that satisfy the symbol rule.
const PasswordSymbols = "!.@#$%^&*()_[]"

const minPasswordLength = 6

// IsValidPassword reports whether password is at least six characters long and
// contains an upper-case letter, a lower-case letter, a digit and one of
// PasswordSymbols.
func IsValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSymbol
}
