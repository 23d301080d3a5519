package privacy

import (
	"math"

	"github.com/samply/laplace-go/pkg/errors"
)

// RoundToStep rounds value to the nearest multiple of step. This is the only
// point where a continuous noisy value becomes the final reported integer.
//
// Ties round half away from zero (math.Round). Noisy values that round below
// zero clamp to zero, since reported counts are unsigned.
func RoundToStep(value float64, step uint64) (uint64, error) {
	if step == 0 {
		return 0, errors.ErrRoundingStepZero
	}

	rounded := math.Round(value / float64(step))
	if rounded <= 0 {
		return 0, nil
	}
	return uint64(rounded) * step, nil
}
