package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WH/IN", "%WH/IN%"},
		{"WH_IN", `%WH\_IN%`},
		{"100%", `%100\%%`},
		{`a\b`, `%a\\b%`},
		{`_%\`, `%\_\%\\%`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsPattern(tt.in))
		})
	}
}
