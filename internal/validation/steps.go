package validation

import "strings"

// Step identifiers shared with the wizard. The wizard builds its section/step
// chain from these; the engine uses them to scope validation to the fields a
// step owns.
const (
	StepPOAType      = "poa-type"
	StepPrincipal    = "principal"
	StepPrimaryAgent = "primary-agent"
	StepMoreAgents   = "additional-agents"
	StepPowers       = "powers"
	StepDirectives   = "healthcare-directives"
	StepSpringing    = "springing-details"
	StepLimited      = "limited-details"
	StepEffective    = "effective-date"
	StepWitnesses    = "witnesses"
	StepNotary       = "notary"
	StepReview       = "review"
)

// stepFieldPrefixes maps each step to the payload field prefixes it owns.
// Step-scoped validation keeps only errors attributed to an owned prefix, so
// a step never surfaces problems with fields the user has not reached.
var stepFieldPrefixes = map[string][]string{
	StepPOAType:      {"poaType", "state", "isDurable", "isSpringing", "isLimited"},
	StepPrincipal:    {"principal"},
	StepPrimaryAgent: {"agents"},
	StepMoreAgents:   {"agents"},
	StepPowers:       {"grantedPowers"},
	StepDirectives:   {"healthcareDirectives"},
	StepSpringing:    {"springingCondition", "numberOfPhysiciansRequired"},
	StepLimited:      {"specificPurpose", "expirationDate"},
	StepEffective:    {"effectiveDate"},
	StepWitnesses:    {"witnesses"},
	StepNotary:       {"notaryPublic"},
}

// StepOwnsField reports whether the step's field set covers the given
// (possibly indexed or dotted) field path.
func StepOwnsField(stepID, field string) bool {
	prefixes, ok := stepFieldPrefixes[stepID]
	if !ok {
		// Review and unknown steps own everything: scoping there is
		// equivalent to a full pass.
		return true
	}
	for _, prefix := range prefixes {
		if field == prefix {
			return true
		}
		if strings.HasPrefix(field, prefix+".") || strings.HasPrefix(field, prefix+"[") {
			return true
		}
	}
	return false
}

// KnownStep reports whether the identifier names a defined interview step.
func KnownStep(stepID string) bool {
	if stepID == StepReview {
		return true
	}
	_, ok := stepFieldPrefixes[stepID]
	return ok
}
