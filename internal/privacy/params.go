package privacy

import (
	"fmt"

	"github.com/samply/laplace-go/pkg/errors"
)

// Default parameter values. Sensitivities bound how much one individual can
// change a count of the given kind: a patient appears once in a patient count,
// in up to three diagnoses and in up to twenty specimens.
const (
	DefaultEpsilon              = 0.1
	DefaultSensitivityPatients  = 1.0
	DefaultSensitivityDiagnosis = 3.0
	DefaultSensitivitySpecimen  = 20.0
	DefaultRoundingStep         = 10
)

// Params holds the resolved numeric configuration for one obfuscation run.
type Params struct {
	Epsilon              float64     `json:"epsilon" mapstructure:"epsilon"`
	SensitivityPatients  float64     `json:"sensitivity_patients" mapstructure:"sensitivity_patients"`
	SensitivityDiagnosis float64     `json:"sensitivity_diagnosis" mapstructure:"sensitivity_diagnosis"`
	SensitivitySpecimen  float64     `json:"sensitivity_specimen" mapstructure:"sensitivity_specimen"`
	RoundingStep         uint64      `json:"rounding_step" mapstructure:"rounding_step"`
	ObfuscateZero        bool        `json:"obfuscate_zero" mapstructure:"obfuscate_zero"`
	Below10              Below10Mode `json:"-" mapstructure:"-"`
}

// DefaultParams returns the parameter set used when the embedding application
// provides no overrides.
func DefaultParams() Params {
	return Params{
		Epsilon:              DefaultEpsilon,
		SensitivityPatients:  DefaultSensitivityPatients,
		SensitivityDiagnosis: DefaultSensitivityDiagnosis,
		SensitivitySpecimen:  DefaultSensitivitySpecimen,
		RoundingStep:         DefaultRoundingStep,
		ObfuscateZero:        false,
		Below10:              Below10Ten,
	}
}

// Validate checks that every parameter is usable by the noise mechanism.
// Validation happens once up front so the document rewriter can assume its
// calls into the mechanism cannot fail on parameters.
func (p Params) Validate() error {
	if p.Epsilon <= 0 {
		return errors.WrapError(errors.ErrInvalidEpsilon,
			errors.ErrorTypeConfiguration, "EPSILON_INVALID", fmt.Sprintf("epsilon=%g", p.Epsilon))
	}
	for name, s := range map[string]float64{
		"patients":  p.SensitivityPatients,
		"diagnosis": p.SensitivityDiagnosis,
		"specimen":  p.SensitivitySpecimen,
	} {
		if s <= 0 {
			return errors.WrapError(errors.ErrInvalidSensitivity,
				errors.ErrorTypeConfiguration, "SENSITIVITY_INVALID", fmt.Sprintf("%s=%g", name, s))
		}
	}
	if p.RoundingStep == 0 {
		return errors.WrapError(errors.ErrInvalidRoundingStep,
			errors.ErrorTypeConfiguration, "ROUNDING_STEP_INVALID", "rounding_step=0")
	}
	return nil
}
