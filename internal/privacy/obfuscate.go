package privacy

import (
	"math"
	"math/rand/v2"

	"github.com/samply/laplace-go/pkg/errors"
)

// Below10Mode selects how counts below 10 are suppressed. Noise alone does not
// adequately hide very small counts, so they get a fixed floor instead.
type Below10Mode int

const (
	// Below10Zero suppresses small counts to zero.
	Below10Zero Below10Mode = iota
	// Below10Ten raises small counts to ten.
	Below10Ten
	// Below10Obfuscate applies the normal noise mechanism to small counts.
	Below10Obfuscate
)

// String returns the configuration name of the mode.
func (m Below10Mode) String() string {
	switch m {
	case Below10Zero:
		return "zero"
	case Below10Ten:
		return "ten"
	case Below10Obfuscate:
		return "obfuscate"
	default:
		return "unknown"
	}
}

// ParseBelow10Mode parses a configuration string into a Below10Mode.
func ParseBelow10Mode(s string) (Below10Mode, error) {
	switch s {
	case "zero":
		return Below10Zero, nil
	case "ten":
		return Below10Ten, nil
	case "obfuscate":
		return Below10Obfuscate, nil
	default:
		return 0, errors.WrapError(errors.ErrInvalidBelow10Mode,
			errors.ErrorTypeConfiguration, "BELOW_10_MODE_INVALID", s)
	}
}

// Privatize perturbs value with a sample from the (epsilon, 0) Laplace
// mechanism and rounds the result to the nearest multiple of roundingStep.
// Mechanism and rounding errors propagate unchanged.
func Privatize(value uint64, sensitivity, epsilon float64, roundingStep uint64, src rand.Source) (uint64, error) {
	noise, err := SampleLaplace(0, sensitivity/epsilon, src)
	if err != nil {
		return 0, err
	}
	return RoundToStep(float64(value)+noise, roundingStep)
}

// FromCacheOrPrivatize obfuscates value, memoizing the result in cache so that
// repeated calls with the same (sensitivity, value, bin) triple return the
// identical result for the life of the cache.
//
// The policy is evaluated in this order:
//  1. A nil cache always recomputes via Privatize, with no memoization and no
//     suppression. This serves one-off calls where cross-call determinism is
//     not required.
//  2. Zero counts are returned unchanged unless obfuscateZero is set, since
//     perturbing them would fabricate a count where none exists.
//  3. Counts below 10 follow mode: Below10Zero returns 0, Below10Ten returns
//     10, Below10Obfuscate falls through to normal processing.
//  4. Cache hit returns the stored value; a miss privatizes, stores, returns.
func FromCacheOrPrivatize(
	value uint64,
	sensitivity, epsilon float64,
	bin int,
	cache *Cache,
	obfuscateZero bool,
	mode Below10Mode,
	roundingStep uint64,
	src rand.Source,
) (uint64, error) {
	if cache == nil {
		return Privatize(value, sensitivity, epsilon, roundingStep, src)
	}

	if !obfuscateZero && value == 0 {
		return 0, nil
	}

	if value < 10 {
		switch mode {
		case Below10Zero:
			return 0, nil
		case Below10Ten:
			return 10, nil
		}
	}

	key := NewKey(sensitivity, value, bin)
	if stored, ok := cache.Lookup(key); ok {
		if stored < 0 {
			return 0, nil
		}
		return uint64(stored), nil
	}

	obfuscated, err := Privatize(value, sensitivity, epsilon, roundingStep, src)
	if err != nil {
		return 0, err
	}
	cache.Store(key, int64(obfuscated))
	return obfuscated, nil
}

// Perturbation returns the memoized Laplace draw for the (sensitivity, value,
// bin) triple, rounded to the nearest integer, sampling and storing a fresh
// draw on a cache miss. The document rewriter uses this to apply its own
// integer rounding to noisy counts. A nil cache always samples fresh.
func Perturbation(value uint64, sensitivity, epsilon float64, bin int, cache *Cache, src rand.Source) (int64, error) {
	var key Key
	if cache != nil {
		key = NewKey(sensitivity, value, bin)
		if stored, ok := cache.Lookup(key); ok {
			return stored, nil
		}
	}

	noise, err := SampleLaplace(0, sensitivity/epsilon, src)
	if err != nil {
		return 0, err
	}

	perturbation := int64(math.Round(noise))
	if cache != nil {
		cache.Store(key, perturbation)
	}
	return perturbation, nil
}
