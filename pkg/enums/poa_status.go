package enums

import "fmt"

// POAStatus tracks the lifecycle of a power of attorney instrument.
type POAStatus string

const (
	POAStatusDraft   POAStatus = "draft"
	POAStatusActive  POAStatus = "active"
	POAStatusRevoked POAStatus = "revoked"
	POAStatusExpired POAStatus = "expired"
)

var validPOAStatuses = []POAStatus{
	POAStatusDraft,
	POAStatusActive,
	POAStatusRevoked,
	POAStatusExpired,
}

// String implements fmt.Stringer.
func (s POAStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known POAStatus.
func (s POAStatus) IsValid() bool {
	for _, candidate := range validPOAStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further transitions.
func (s POAStatus) IsTerminal() bool {
	return s == POAStatusRevoked || s == POAStatusExpired
}

// ParsePOAStatus converts raw input into a POAStatus.
func ParsePOAStatus(value string) (POAStatus, error) {
	for _, candidate := range validPOAStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid poa status %q", value)
}
