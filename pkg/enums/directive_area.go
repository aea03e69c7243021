package enums

import "fmt"

// DirectiveArea identifies one row of the healthcare directive matrix.
type DirectiveArea string

const (
	DirectiveAreaMedicalTreatment DirectiveArea = "medical_treatment"
	DirectiveAreaMentalHealth     DirectiveArea = "mental_health_treatment"
	DirectiveAreaEndOfLife        DirectiveArea = "end_of_life"
	DirectiveAreaOrganDonation    DirectiveArea = "organ_donation"
	DirectiveAreaRemains          DirectiveArea = "disposition_of_remains"
)

var validDirectiveAreas = []DirectiveArea{
	DirectiveAreaMedicalTreatment,
	DirectiveAreaMentalHealth,
	DirectiveAreaEndOfLife,
	DirectiveAreaOrganDonation,
	DirectiveAreaRemains,
}

// AllDirectiveAreas returns the matrix rows in rendering order.
func AllDirectiveAreas() []DirectiveArea {
	out := make([]DirectiveArea, len(validDirectiveAreas))
	copy(out, validDirectiveAreas)
	return out
}

func (d DirectiveArea) String() string {
	return string(d)
}

func (d DirectiveArea) IsValid() bool {
	for _, candidate := range validDirectiveAreas {
		if candidate == d {
			return true
		}
	}
	return false
}

// Title returns the heading used when rendering the directive area.
func (d DirectiveArea) Title() string {
	switch d {
	case DirectiveAreaMedicalTreatment:
		return "Medical Treatment Decisions"
	case DirectiveAreaMentalHealth:
		return "Mental Health Treatment Decisions"
	case DirectiveAreaEndOfLife:
		return "End-of-Life Decisions"
	case DirectiveAreaOrganDonation:
		return "Organ Donation"
	case DirectiveAreaRemains:
		return "Disposition of Remains"
	}
	return string(d)
}

func ParseDirectiveArea(value string) (DirectiveArea, error) {
	for _, candidate := range validDirectiveAreas {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid directive area %q", value)
}
