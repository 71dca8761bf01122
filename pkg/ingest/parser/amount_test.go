package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"12.345,00$", 1234500},
		{"1.000", 1000},
		{"500", 500},
		{"0", 0},
		{"", 0},
		{"$", 0},
		{"abc", 0},
		{"1,5", 15},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAmount(tt.input), "input %q", tt.input)
	}
}
