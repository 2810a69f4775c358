package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecayWeights(t *testing.T) {
	weights, err := DecayWeights(5, 0.98)
	require.NoError(t, err)
	require.Len(t, weights, 5)

	sum := 0.0
	for i, w := range weights {
		assert.Greater(t, w, 0.0)
		if i > 0 {
			assert.Greater(t, w, weights[i-1], "more recent slots carry more mass")
		}
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-12)

	// Adjacent slots decay by exactly lambda
	assert.InDelta(t, 0.98, weights[0]/weights[1], 1e-12)
}

func TestDecayWeightsValidation(t *testing.T) {
	tests := []struct {
		name   string
		window int
		lambda float64
	}{
		{name: "zero window", window: 0, lambda: 0.98},
		{name: "lambda zero", window: 5, lambda: 0},
		{name: "lambda one", window: 5, lambda: 1},
		{name: "lambda above one", window: 5, lambda: 1.02},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecayWeights(tt.window, tt.lambda)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestUniformWeights(t *testing.T) {
	weights, err := UniformWeights(4)
	require.NoError(t, err)
	require.Len(t, weights, 4)
	for _, w := range weights {
		assert.Equal(t, 0.25, w)
	}

	_, err = UniformWeights(0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
