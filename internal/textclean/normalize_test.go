package textclean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := New(3, nil)

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "int", input: 123, want: ""},
		{name: "float", input: 4.5, want: ""},
		{name: "nil string pointer", input: (*string)(nil), want: ""},
		{name: "empty", input: "", want: ""},
		{name: "punctuation and case", input: "Terrible app, crashes every time!!", want: "terrible app crashes every time"},
		{name: "stop words dropped", input: "Transfers are fast and reliable", want: "transfers fast reliable"},
		{name: "short tokens dropped", input: "ok go app", want: "app"},
		{name: "digits stripped", input: "error 500 on login", want: "error login"},
		{name: "digits inside words", input: "b2b pay4me", want: "payme"},
		{name: "apostrophes collapse", input: "Don't update", want: "dont update"},
		{name: "whitespace collapsed", input: "  great\tservice\n\nfast  ", want: "great service fast"},
		{name: "non latin removed", input: "ባንክ bank", want: "bank"},
		{name: "bytes accepted", input: []byte("Login FAILS"), want: "login fails"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizeStringPointer(t *testing.T) {
	s := "Customer service was great"
	assert.Equal(t, "customer service great", New(3, nil).Normalize(&s))
}

func TestNormalizeIdempotent(t *testing.T) {
	n := New(3, nil)
	for _, in := range []string{
		"customer service great fast",
		"app crashes login",
		"",
	} {
		assert.Equal(t, in, n.Normalize(in))
		assert.Equal(t, n.Normalize(in), n.Normalize(n.Normalize(in)))
	}
}

func TestNormalizeCustomSettings(t *testing.T) {
	n := New(1, map[string]struct{}{"bank": {}})
	assert.Equal(t, "a the app", n.Normalize("A bank, the app"))
}
