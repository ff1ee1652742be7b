package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "strong", password: "Strong@123", want: true},
		{name: "no digit or symbol", password: "WeakPass", want: false},
		{name: "empty", password: "", want: false},
		{name: "five chars with every class", password: "Aa1!b", want: false},
		{name: "six chars with every class", password: "Aa1!bc", want: true},
		{name: "no upper", password: "strong@123", want: false},
		{name: "no lower", password: "STRONG@123", want: false},
		{name: "no digit", password: "Strong@abc", want: false},
		{name: "no symbol", password: "Strong1234", want: false},
		{name: "symbol outside set", password: "Strong-123", want: false},
		{name: "brackets count", password: "Strong[123", want: true},
		{name: "underscore counts", password: "Strong_123", want: true},
		{name: "unicode letters", password: "Äpfelß1!", want: true},
		{name: "unicode digit", password: "Strong@١٢٣", want: true},
		{name: "length is counted in characters", password: "Ää1!ß", want: false},
		{name: "no maximum length", password: "Aa1!" + strings.Repeat("a", 500), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPassword(tt.password))
		})
	}
}

func TestIsValidPassword_EverySymbol(t *testing.T) {
	for _, r := range PasswordSymbols {
		assert.True(t, IsValidPassword("Abcde1"+string(r)), "symbol %q", r)
	}
}
