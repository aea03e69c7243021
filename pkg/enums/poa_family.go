package enums

import "fmt"

// POAFamily splits instruments into financial and healthcare templates.
type POAFamily string

const (
	POAFamilyFinancial  POAFamily = "financial"
	POAFamilyHealthcare POAFamily = "healthcare"
)

var validPOAFamilies = []POAFamily{
	POAFamilyFinancial,
	POAFamilyHealthcare,
}

func (f POAFamily) String() string {
	return string(f)
}

func (f POAFamily) IsValid() bool {
	for _, candidate := range validPOAFamilies {
		if candidate == f {
			return true
		}
	}
	return false
}

func ParsePOAFamily(value string) (POAFamily, error) {
	for _, candidate := range validPOAFamilies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid poa family %q", value)
}
