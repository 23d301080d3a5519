package errors

import "fmt"

// Privacy-mechanism error definitions. These must propagate to the caller
// unchanged: substituting a default scale or rounding step would silently
// weaken the privacy guarantee.
var (
	// ErrRoundingStepZero is returned when a rounding step of zero is requested.
	ErrRoundingStepZero = NewPrivacyError("ROUNDING_STEP_ZERO", "rounding step zero not allowed")
)

// NewDistributionError creates an error for a Laplace distribution that could
// not be constructed, carrying the offending parameters.
func NewDistributionError(mu, scale float64) *AppError {
	return NewPrivacyError("DISTRIBUTION_CREATION_FAILED", "unable to create Laplace distribution").
		WithDetails(fmt.Sprintf("mu=%g, scale=%g: scale must be strictly positive", mu, scale))
}

// IsDistributionError reports whether err is a distribution-creation failure.
func IsDistributionError(err error) bool {
	return GetErrorCode(err) == "DISTRIBUTION_CREATION_FAILED"
}

// IsRoundingStepError reports whether err is a rounding-step failure.
func IsRoundingStepError(err error) bool {
	return GetErrorCode(err) == "ROUNDING_STEP_ZERO"
}
