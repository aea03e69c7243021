package enums

import (
	"fmt"
	"strings"
)

// USState is a two-letter USPS state code.
type USState string

var validUSStates = map[USState]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// String implements fmt.Stringer.
func (s USState) String() string {
	return string(s)
}

// IsValid reports whether the value is a recognized state code.
func (s USState) IsValid() bool {
	_, ok := validUSStates[s]
	return ok
}

// FullName returns the display name for the state, or the raw code when unknown.
func (s USState) FullName() string {
	if name, ok := validUSStates[s]; ok {
		return name
	}
	return string(s)
}

// ParseUSState converts raw input into a USState, normalizing case.
func ParseUSState(value string) (USState, error) {
	code := USState(strings.ToUpper(strings.TrimSpace(value)))
	if !code.IsValid() {
		return "", fmt.Errorf("invalid state code %q", value)
	}
	return code, nil
}
