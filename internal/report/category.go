// Package report rewrites count statistics inside structured medical report
// documents, replacing every count with its obfuscated value while leaving the
// document shape untouched.
package report

import (
	"strings"

	"github.com/samply/laplace-go/internal/privacy"
)

// Category identifies which sensitivity applies to the counts of a report
// group, derived from the group's human-readable label.
type Category int

const (
	// CategoryUnknown marks groups whose label is not recognized. Their
	// counts are never obfuscated.
	CategoryUnknown Category = iota
	// CategoryPatients covers subject counts.
	CategoryPatients
	// CategoryDiagnosis covers diagnosis counts.
	CategoryDiagnosis
	// CategorySpecimen covers specimen counts.
	CategorySpecimen
)

// String returns the canonical label of the category.
func (c Category) String() string {
	switch c {
	case CategoryPatients:
		return "patients"
	case CategoryDiagnosis:
		return "diagnosis"
	case CategorySpecimen:
		return "specimen"
	default:
		return "unknown"
	}
}

// ParseCategory maps a group label to its category. Unrecognized labels map to
// CategoryUnknown rather than failing: unknown report structure must not abort
// processing of the rest of the document.
func ParseCategory(label string) Category {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "patients", "patient":
		return CategoryPatients
	case "diagnosis":
		return CategoryDiagnosis
	case "specimen":
		return CategorySpecimen
	default:
		return CategoryUnknown
	}
}

// Sensitivity returns the sensitivity configured for the category.
func (c Category) Sensitivity(p privacy.Params) float64 {
	switch c {
	case CategoryPatients:
		return p.SensitivityPatients
	case CategoryDiagnosis:
		return p.SensitivityDiagnosis
	case CategorySpecimen:
		return p.SensitivitySpecimen
	default:
		return 0
	}
}
