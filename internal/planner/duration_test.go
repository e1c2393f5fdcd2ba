package planner

import (
	"testing"

	"study-planner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationMinutes(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"PT1H2M3S", 62.05},
		{"PT45S", 0.75},
		{"PT", 0},
		{"PT10M", 10},
		{"PT2H", 120},
		{"PT1H30S", 60.5},
		{"PT15M30S", 15.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDurationMinutes(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParseDurationMinutes_Malformed(t *testing.T) {
	for _, input := range []string{"", "garbage", "1H2M", "P1D", "PT1X", "PT5M3H", "12:30"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDurationMinutes(input)
			assert.ErrorIs(t, err, models.ErrMalformedDuration)
		})
	}
}

func TestParseDurationMinutes_HugeComponents(t *testing.T) {
	got, err := ParseDurationMinutes("PT9000000000000000H")
	require.NoError(t, err)
	assert.InDelta(t, 9e15*60, got, 1e6)
	assert.Positive(t, got)

	_, err = ParseDurationMinutes("PT99999999999999999999H")
	assert.ErrorIs(t, err, models.ErrMalformedDuration)
}
