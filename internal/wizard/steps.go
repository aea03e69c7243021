package wizard

import (
	"github.com/attestly/poa-backend/internal/rules"
	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/enums"
)

// Section identifiers in interview order.
const (
	SectionInstrument = "instrument"
	SectionParties    = "parties"
	SectionAuthority  = "authority"
	SectionExecution  = "execution"
	SectionReview     = "review"
)

// Step is one interview step: a strictly linear chain, though a step may be
// skipped when the accumulated data makes it inapplicable.
type Step struct {
	ID      string
	Section string
	Title   string

	applicable func(p *validation.Payload) bool
}

// Applicable reports whether the step participates in the interview for the
// given payload. Steps whose predicate cannot be decided yet (type or state
// not chosen) stay applicable so progress never over-reports early on.
func (s Step) Applicable(p *validation.Payload) bool {
	if s.applicable == nil {
		return true
	}
	return s.applicable(p)
}

// chain is the full interview in order. Skip predicates consult the payload
// and, for execution formalities, the rules catalog.
var chain = []Step{
	{ID: validation.StepPOAType, Section: SectionInstrument, Title: "Power of Attorney Type"},
	{ID: validation.StepPrincipal, Section: SectionParties, Title: "Principal Information"},
	{ID: validation.StepPrimaryAgent, Section: SectionParties, Title: "Primary Agent"},
	{ID: validation.StepMoreAgents, Section: SectionParties, Title: "Successor and Co-Agents"},
	{ID: validation.StepPowers, Section: SectionAuthority, Title: "Granted Powers", applicable: isFinancial},
	{ID: validation.StepDirectives, Section: SectionAuthority, Title: "Healthcare Directives", applicable: isHealthcare},
	{ID: validation.StepSpringing, Section: SectionAuthority, Title: "Springing Conditions", applicable: isSpringing},
	{ID: validation.StepLimited, Section: SectionAuthority, Title: "Purpose and Expiration", applicable: isLimited},
	{ID: validation.StepEffective, Section: SectionAuthority, Title: "Effective Date", applicable: notSpringing},
	{ID: validation.StepWitnesses, Section: SectionExecution, Title: "Witnesses", applicable: needsWitnesses},
	{ID: validation.StepNotary, Section: SectionExecution, Title: "Notarization", applicable: needsNotary},
	{ID: validation.StepReview, Section: SectionReview, Title: "Review and Submit"},
}

func payloadType(p *validation.Payload) (enums.POAType, bool) {
	if p == nil || p.POAType == "" {
		return "", false
	}
	t, err := enums.ParsePOAType(p.POAType)
	if err != nil {
		return "", false
	}
	return t, true
}

func isFinancial(p *validation.Payload) bool {
	t, ok := payloadType(p)
	if !ok {
		return true
	}
	return t.Family() == enums.POAFamilyFinancial
}

func isHealthcare(p *validation.Payload) bool {
	t, ok := payloadType(p)
	if !ok {
		return false
	}
	return t.Family() == enums.POAFamilyHealthcare
}

func isSpringing(p *validation.Payload) bool {
	t, ok := payloadType(p)
	if !ok {
		return false
	}
	return t == enums.POATypeSpringing
}

func notSpringing(p *validation.Payload) bool {
	return !isSpringing(p)
}

func isLimited(p *validation.Payload) bool {
	t, ok := payloadType(p)
	if !ok {
		return false
	}
	return t == enums.POATypeLimited
}

func payloadRule(p *validation.Payload) (rules.Rule, bool) {
	t, ok := payloadType(p)
	if !ok {
		return rules.Rule{}, false
	}
	state, err := enums.ParseUSState(p.State)
	if err != nil {
		return rules.Rule{}, false
	}
	return rules.Lookup(t, state), true
}

func needsWitnesses(p *validation.Payload) bool {
	rule, ok := payloadRule(p)
	if !ok {
		return true
	}
	return rule.WitnessesRequired > 0
}

func needsNotary(p *validation.Payload) bool {
	rule, ok := payloadRule(p)
	if !ok {
		return true
	}
	return rule.NotaryRequired
}

// Steps returns the applicable chain for the payload, in interview order.
func Steps(p *validation.Payload) []Step {
	out := make([]Step, 0, len(chain))
	for _, s := range chain {
		if s.Applicable(p) {
			out = append(out, s)
		}
	}
	return out
}

func stepByID(id string) (Step, bool) {
	for _, s := range chain {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}
