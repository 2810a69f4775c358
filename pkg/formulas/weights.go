package formulas

import (
	"fmt"
	"math"
)

// DecayWeights builds a recency weight vector for weighted historical
// simulation: geometric decay with factor lambda, normalized to sum 1, in
// ascending chronological order (oldest slot first, most recent slot
// heaviest). A lambda of 0.98 halves an observation's mass roughly every 34
// trading days.
func DecayWeights(window int, lambda float64) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window %d, must be positive", ErrInvalidParameter, window)
	}
	if lambda <= 0 || lambda >= 1 {
		return nil, fmt.Errorf("%w: lambda %g, must be in (0, 1)", ErrInvalidParameter, lambda)
	}

	weights := make([]float64, window)
	sum := 0.0
	for i := range weights {
		weights[i] = math.Pow(lambda, float64(window-1-i))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}

// UniformWeights builds the equal-mass weight vector, under which weighted
// historical simulation degenerates to plain historical simulation
func UniformWeights(window int) ([]float64, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window %d, must be positive", ErrInvalidParameter, window)
	}
	weights := make([]float64, window)
	for i := range weights {
		weights[i] = 1.0 / float64(window)
	}
	return weights, nil
}
