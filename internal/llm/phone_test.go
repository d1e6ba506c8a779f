package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"081228051404", "+6281228051404"},
		{"0812-2805-1404", "+6281228051404"},
		{"0812 2805 1404", "+6281228051404"},
		{"+6281228051404", "+6281228051404"},
		{"+62 812 2805 1404", "+6281228051404"},
		{"(0812) 2805.1404", "+6281228051404"},
		{"6281234567890", "6281234567890"},
		{"+1 415 555 0100", "N/A"},
		{"021-5551234", "N/A"},
		{"0215551234", "N/A"},
		{"62 21 5551 2345", "N/A"},
		{"622155512345", "N/A"},
		{"+62 21 5551 2345", "N/A"},
		{"0812", "N/A"},
		{"+62812", "N/A"},
		{"08122805140412345", "N/A"},
		{"0812-ABCD-1404", "N/A"},
		{"", "N/A"},
		{"  ", "N/A"},
		{"n/a", "N/A"},
		{"N/A", "N/A"},
		{"none", "N/A"},
		{"call me", "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.in))
		})
	}
}
