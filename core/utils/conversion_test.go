package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	for in, want := range map[string]bool{
		"":      false,
		"0":     false,
		"false": false,
		"FALSE": false,
		" No ":  false,
		"n":     false,
		"off":   false,
		"1":     true,
		"TRUE":  true,
		"Yes":   true,
		"Y":     true,
	} {
		assert.Equal(t, want, ToBool(in), "input %q", in)
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{" 42 ", 42, false},
		{"1,250.5", 1250.5, false},
		{"-3", -3, false},
		{"abc", 0, true},
		{"NaN", 0, true},
		{"inf", 0, true},
		{"-Inf", 0, true},
		{"Infinity", 0, true},
		{"1e400", 0, true},
	}
	for _, tt := range tests {
		got, err := ToNumber(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

// TestToString tests that numeric renderings of identifiers are folded back to digits.
func TestToString(t *testing.T) {
	assert.Equal(t, "4165551234", ToString("4.165551234E+09"))
	assert.Equal(t, "1234", ToString("1234.0"))
	assert.Equal(t, "12.5", ToString("12.5"))
	assert.Equal(t, "E1234", ToString(" E1234 "))
	assert.Equal(t, "a.b@example.com", ToString("a.b@example.com"))
	assert.Equal(t, "1E5", ToString("1E5"))
	assert.Equal(t, "", ToString("\u00a0"))
}

func TestToList(t *testing.T) {
	assert.Equal(t, []string{}, ToList("  ", ""))
	assert.Equal(t, []string{"Crew Member"}, ToList("Crew Member", ""))
	assert.Equal(t, []string{"Crew", "Manager"}, ToList("Crew; ;Manager", ";"))
}
