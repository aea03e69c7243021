package enums

import "fmt"

// POAType discriminates the kind of power of attorney instrument.
type POAType string

const (
	POATypeDurable    POAType = "durable"
	POATypeSpringing  POAType = "springing"
	POATypeLimited    POAType = "limited"
	POATypeHealthcare POAType = "healthcare"
)

var validPOATypes = []POAType{
	POATypeDurable,
	POATypeSpringing,
	POATypeLimited,
	POATypeHealthcare,
}

// String implements fmt.Stringer.
func (p POAType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known POAType.
func (p POAType) IsValid() bool {
	for _, candidate := range validPOATypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// Family returns the instrument family the type belongs to.
func (p POAType) Family() POAFamily {
	if p == POATypeHealthcare {
		return POAFamilyHealthcare
	}
	return POAFamilyFinancial
}

// ParsePOAType converts raw input into a POAType.
func ParsePOAType(value string) (POAType, error) {
	for _, candidate := range validPOATypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid poa type %q", value)
}
