package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samply/laplace-go/pkg/errors"
)

func TestRoundToStep(t *testing.T) {
	tests := []struct {
		value    float64
		step     uint64
		expected uint64
	}{
		{3.2, 1, 3},
		{3.7, 1, 4},
		{12.8, 5, 15},
		{17.4, 5, 15},
		{38.2, 10, 40},
		{44.9, 10, 40},
		{45.0, 10, 50}, // ties round half away from zero
	}

	for _, tt := range tests {
		result, err := RoundToStep(tt.value, tt.step)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "RoundToStep(%g, %d)", tt.value, tt.step)
	}
}

func TestRoundToStepZeroValue(t *testing.T) {
	for _, step := range []uint64{1, 5, 10} {
		result, err := RoundToStep(0, step)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), result)
	}
}

func TestRoundToStepLargeValue(t *testing.T) {
	for _, step := range []uint64{1, 5, 10} {
		result, err := RoundToStep(1_000_000, step)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000), result)
	}
}

func TestRoundToStepNegativeClampsToZero(t *testing.T) {
	for _, value := range []float64{-0.4, -3.2, -1000} {
		result, err := RoundToStep(value, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), result)
	}
}

func TestRoundToStepInvalidStep(t *testing.T) {
	_, err := RoundToStep(10, 0)
	require.Error(t, err)
	assert.True(t, errors.IsRoundingStepError(err))
}

func TestRoundToStepAlwaysMultipleOfStep(t *testing.T) {
	for _, step := range []uint64{1, 2, 5, 10, 25} {
		for _, value := range []float64{0.3, 7.7, 12.5, 99.99, 1234.5} {
			result, err := RoundToStep(value, step)
			require.NoError(t, err)
			assert.Zero(t, result%step)
			// Within one step of the input.
			assert.LessOrEqual(t, float64(result)-value, float64(step))
			assert.LessOrEqual(t, value-float64(result), float64(step))
		}
	}
}
