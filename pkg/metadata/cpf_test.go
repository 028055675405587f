package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCPF(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "formatted", input: "123.456.789-09", expected: "12345678909"},
		{name: "digits only", input: "12345678909", expected: "12345678909"},
		{name: "absent", input: "   ", expected: ""},
		{name: "too short", input: "123.456", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := NewCPF(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestFormatCPF(t *testing.T) {
	assert.Equal(t, "123.456.789-09", FormatCPF("12345678909"))
	assert.Equal(t, "1234", FormatCPF("1234"))
}

func TestIsNumericQuery(t *testing.T) {
	tests := []struct {
		query    string
		expected bool
	}{
		{"123", true},
		{"123.4", true},
		{"12", false},
		{"ana", false},
		{"ana 123", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNumericQuery(tt.query))
		})
	}
}
