// Package privacy implements the differential-privacy noise mechanism used to
// obfuscate small-count statistics before they leave a data-holding site.
//
// The mechanism perturbs each count with zero-mean Laplace noise whose scale is
// calibrated as sensitivity/epsilon, then rounds the result to a configurable
// step. A memoization cache makes repeated obfuscation of the same count
// deterministic within one processing run.
package privacy

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samply/laplace-go/pkg/errors"
)

// SampleLaplace draws a single sample from a Laplace(mu, scale) distribution
// using the supplied random source. The scale must be strictly positive; a
// non-positive or NaN scale fails with a distribution-creation error rather
// than substituting a default, since a wrong scale would break the privacy
// guarantee.
func SampleLaplace(mu, scale float64, src rand.Source) (float64, error) {
	if math.IsNaN(scale) || scale <= 0 {
		return 0, errors.NewDistributionError(mu, scale)
	}

	dist := distuv.Laplace{Mu: mu, Scale: scale, Src: src}
	return dist.Rand(), nil
}
