package validation

// Mode selects how much of the payload a validation pass inspects.
type Mode struct {
	full   bool
	stepID string
}

// ModeFull validates the entire payload against the rules catalog. This is
// the gate in front of document assembly.
var ModeFull = Mode{full: true}

// ModeStep scopes validation to the fields owned by the given wizard step.
func ModeStep(stepID string) Mode {
	return Mode{stepID: stepID}
}

// IsFull reports whether this is a whole-payload pass.
func (m Mode) IsFull() bool {
	return m.full
}

// StepID returns the scoping step for step mode, or "" in full mode.
func (m Mode) StepID() string {
	return m.stepID
}

func (m Mode) keeps(field string) bool {
	if m.full {
		return true
	}
	return StepOwnsField(m.stepID, field)
}
