package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		text    string
		minutes int
		ok      bool
	}{
		{"1:23:45", 83, true},  // hours and minutes, seconds dropped
		{"45:30", 45, true},    // minutes and seconds
		{"0:59", 0, true},      // under a minute
		{"30", 30, true},       // bare small number is minutes
		{"9000", 150, true},    // bare large number is seconds
		{"101", 1, true},       // just over the seconds threshold
		{"100", 100, true},     // at the threshold, still minutes
		{"", 0, false},
		{"live", 0, false},
		{"1:2:3:4", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			minutes, ok := ParseDurationMinutes(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.minutes, minutes)
			}
		})
	}
}
