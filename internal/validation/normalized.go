package validation

import (
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/types"
)

// NormalizedPOA is the validated, normalized output of a full validation
// pass: trimmed names, lowercased emails, parsed dates, and the granted-power
// projection materialized. Only this shape reaches the document assembler.
type NormalizedPOA struct {
	Type   enums.POAType
	Family enums.POAFamily
	State  enums.USState

	Principal Principal
	Agents    []Agent

	Powers PowerGrantSet

	Witnesses []Witness
	Notary    *Notary

	EffectiveDate  *time.Time
	ExpirationDate *time.Time

	SpringingCondition string
	PhysiciansRequired int
	SpecificPurpose    string

	Directives *Directives

	// Execution formalities resolved from the rules catalog at validation
	// time, so the assembler renders the right blocks without a second
	// catalog lookup.
	WitnessesRequired int
	NotaryRequired    bool
}

type Principal struct {
	FullName    string
	DateOfBirth time.Time
	Email       string
	Phone       string
	Address     types.Address
}

type Agent struct {
	Role     enums.AgentRole
	Order    int
	FullName string
	Email    string
	Phone    string
	Address  types.Address
}

// PowerGrantSet is the computed projection of the "grant all" flag onto the
// category catalog. GrantAll and Selections are never both authoritative:
// when GrantAll is set, Selections is the materialized full catalog.
type PowerGrantSet struct {
	GrantAll          bool
	GrantAllSubPowers bool
	Selections        []PowerGrant
}

type PowerGrant struct {
	CategoryID   uuid.UUID
	CategoryCode string
	CategoryName string
	AllSubPowers bool
	SubPowers    []SubPowerRef
}

type SubPowerRef struct {
	ID   uuid.UUID
	Name string
}

type Witness struct {
	FullName string
	Address  types.Address
}

type Notary struct {
	FullName         string
	CommissionNumber string
	CommissionExpiry *time.Time
	Address          types.Address
}

// Directives is the validated healthcare directive matrix.
type Directives struct {
	Choices map[enums.DirectiveArea]DirectiveChoice
}

type DirectiveChoice struct {
	Granted      bool
	Instructions string
}

// PrimaryAgent returns the (validated to be unique) primary agent.
func (n *NormalizedPOA) PrimaryAgent() *Agent {
	for i := range n.Agents {
		if n.Agents[i].Role == enums.AgentRolePrimary {
			return &n.Agents[i]
		}
	}
	return nil
}

// AgentsInSigningOrder returns agents ordered primary, then successors by
// fallback order, then co-agents. This is the order the instrument renders.
func (n *NormalizedPOA) AgentsInSigningOrder() []Agent {
	out := make([]Agent, 0, len(n.Agents))
	if p := n.PrimaryAgent(); p != nil {
		out = append(out, *p)
	}
	for order := 1; order <= len(n.Agents); order++ {
		for _, a := range n.Agents {
			if a.Role == enums.AgentRoleSuccessor && a.Order == order {
				out = append(out, a)
			}
		}
	}
	for _, a := range n.Agents {
		if a.Role == enums.AgentRoleCoAgent {
			out = append(out, a)
		}
	}
	return out
}
