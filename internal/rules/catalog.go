package rules

import (
	"github.com/attestly/poa-backend/pkg/enums"
)

// Field names match the wire names of the creation payload so validation
// errors can be routed straight back to the originating form field.
type Field string

const (
	FieldSpringingCondition Field = "springingCondition"
	FieldPhysiciansRequired Field = "numberOfPhysiciansRequired"
	FieldExpirationDate     Field = "expirationDate"
	FieldSpecificPurpose    Field = "specificPurpose"
	FieldDirectives         Field = "healthcareDirectives"
	FieldWitnesses          Field = "witnesses"
	FieldNotaryPublic       Field = "notaryPublic"
)

// Rule describes what a (POA type, state) combination demands.
type Rule struct {
	// Permitted is false when the state does not recognize this POA type at
	// all, or when the combination needs attorney review before the product
	// will author it.
	Permitted bool
	// RequiresLegalReview marks combinations the catalog has no data for.
	// Fail closed: the caller must treat these as not self-serviceable.
	RequiresLegalReview bool

	WitnessesRequired int
	NotaryRequired    bool

	RequiredFields []Field
}

// stateExecution captures a state's execution formalities, split by family.
type stateExecution struct {
	financialWitnesses  int
	financialNotary     bool
	healthcareWitnesses int
	healthcareNotary    bool
	springingPermitted  bool
}

// Execution formalities per supported state. States absent from this table
// fall through to the legal-review rule. Witness counts and notary demands
// follow each state's statutory execution requirements for the family.
var stateTable = map[enums.USState]stateExecution{
	"AZ": {financialWitnesses: 1, financialNotary: true, healthcareWitnesses: 1, healthcareNotary: true, springingPermitted: true},
	"CA": {financialWitnesses: 2, financialNotary: false, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"CO": {financialWitnesses: 0, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"CT": {financialWitnesses: 2, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	// Florida eliminated springing POAs for instruments executed after
	// October 1, 2011.
	"FL": {financialWitnesses: 2, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: false},
	"GA": {financialWitnesses: 1, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"IL": {financialWitnesses: 1, financialNotary: true, healthcareWitnesses: 1, healthcareNotary: false, springingPermitted: true},
	"MA": {financialWitnesses: 2, financialNotary: false, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"MI": {financialWitnesses: 2, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"NC": {financialWitnesses: 0, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: true, springingPermitted: true},
	"NJ": {financialWitnesses: 1, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"NY": {financialWitnesses: 2, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"OH": {financialWitnesses: 0, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"PA": {financialWitnesses: 2, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"TX": {financialWitnesses: 0, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"VA": {financialWitnesses: 0, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
	"WA": {financialWitnesses: 2, financialNotary: true, healthcareWitnesses: 2, healthcareNotary: false, springingPermitted: true},
}

// typeFields are the conditionally-required fields per POA type.
var typeFields = map[enums.POAType][]Field{
	enums.POATypeDurable:    nil,
	enums.POATypeSpringing:  {FieldSpringingCondition, FieldPhysiciansRequired},
	enums.POATypeLimited:    {FieldExpirationDate, FieldSpecificPurpose},
	enums.POATypeHealthcare: {FieldDirectives},
}

// legalReviewRule is the fail-closed answer for combinations the catalog
// carries no data for.
var legalReviewRule = Rule{
	Permitted:           false,
	RequiresLegalReview: true,
}

// Lookup returns the rule for the given POA type and state. Combinations the
// catalog does not cover come back with RequiresLegalReview set; callers must
// not treat them as permitted.
func Lookup(poaType enums.POAType, state enums.USState) Rule {
	if !poaType.IsValid() || !state.IsValid() {
		return legalReviewRule
	}

	exec, ok := stateTable[state]
	if !ok {
		return legalReviewRule
	}

	if poaType == enums.POATypeSpringing && !exec.springingPermitted {
		return Rule{
			Permitted:         false,
			WitnessesRequired: exec.financialWitnesses,
			NotaryRequired:    exec.financialNotary,
			RequiredFields:    append([]Field(nil), typeFields[poaType]...),
		}
	}

	rule := Rule{
		Permitted:      true,
		RequiredFields: append([]Field(nil), typeFields[poaType]...),
	}
	if poaType.Family() == enums.POAFamilyHealthcare {
		rule.WitnessesRequired = exec.healthcareWitnesses
		rule.NotaryRequired = exec.healthcareNotary
	} else {
		rule.WitnessesRequired = exec.financialWitnesses
		rule.NotaryRequired = exec.financialNotary
	}
	return rule
}

// SupportedStates lists the states the catalog carries execution data for.
func SupportedStates() []enums.USState {
	out := make([]enums.USState, 0, len(stateTable))
	for state := range stateTable {
		out = append(out, state)
	}
	return out
}

// Requires reports whether the rule demands the named field.
func (r Rule) Requires(field Field) bool {
	for _, f := range r.RequiredFields {
		if f == field {
			return true
		}
	}
	return false
}
