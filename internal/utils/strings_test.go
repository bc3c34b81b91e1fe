package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty token", "", "(none)"},
		{"short token", "abc123", "****"},
		{"jwt-like token", "eyJhbGciOiJIUzI1NiJ9.payload.sig", "eyJhbG....sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaskToken(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "abcdef", Truncate("abcdef", 3))
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"user": `{"name":"<b>Ana & Co</b>"}`}, false)
	assert.NoError(t, err)
	assert.Equal(t, `{"user":"{\"name\":\"<b>Ana & Co</b>\"}"}`, string(out))
}
