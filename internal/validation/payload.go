package validation

import (
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/types"
)

// DateLayout is the wire format for all date-only fields.
const DateLayout = "2006-01-02"

// Payload is the POA creation payload as collected by the interview. Fields
// arrive incrementally: step-scoped validation only inspects what the current
// step owns, full validation inspects everything.
type Payload struct {
	POAType     string `json:"poaType" validate:"required"`
	State       string `json:"state" validate:"required"`
	IsDurable   bool   `json:"isDurable"`
	IsSpringing bool   `json:"isSpringing"`
	IsLimited   bool   `json:"isLimited"`

	Principal PrincipalInput `json:"principal"`
	Agents    []AgentInput   `json:"agents"`

	GrantedPowers GrantedPowersInput `json:"grantedPowers"`

	Witnesses    []WitnessInput `json:"witnesses,omitempty"`
	NotaryPublic *NotaryInput   `json:"notaryPublic,omitempty"`

	EffectiveDate  string `json:"effectiveDate,omitempty"`
	ExpirationDate string `json:"expirationDate,omitempty"`

	SpringingCondition         string `json:"springingCondition,omitempty"`
	NumberOfPhysiciansRequired *int   `json:"numberOfPhysiciansRequired,omitempty"`
	SpecificPurpose            string `json:"specificPurpose,omitempty"`

	HealthcareDirectives *DirectivesInput `json:"healthcareDirectives,omitempty"`
}

// PrincipalInput identifies the person granting power.
type PrincipalInput struct {
	FullName    string        `json:"fullName" validate:"required,min=2"`
	DateOfBirth string        `json:"dateOfBirth" validate:"required"`
	Email       string        `json:"email" validate:"required,email"`
	Phone       string        `json:"phone,omitempty"`
	Address     types.Address `json:"address"`
}

// AgentInput is one appointed agent as submitted by the interview.
type AgentInput struct {
	Type     string        `json:"type" validate:"required"`
	Order    *int          `json:"order,omitempty"`
	FullName string        `json:"fullName" validate:"required,min=2"`
	Email    string        `json:"email" validate:"required,email"`
	Phone    string        `json:"phone,omitempty"`
	Address  types.Address `json:"address"`
}

// GrantedPowersInput selects power categories from the UPOAA catalog.
type GrantedPowersInput struct {
	GrantAllPowers    bool        `json:"grantAllPowers"`
	GrantAllSubPowers bool        `json:"grantAllSubPowers"`
	CategoryIDs       []uuid.UUID `json:"categoryIds"`
}

// WitnessInput identifies one attesting witness.
type WitnessInput struct {
	FullName string        `json:"fullName" validate:"required,min=2"`
	Address  types.Address `json:"address"`
}

// NotaryInput identifies the notary public.
type NotaryInput struct {
	FullName         string        `json:"fullName" validate:"required,min=2"`
	CommissionNumber string        `json:"commissionNumber,omitempty"`
	CommissionExpiry string        `json:"commissionExpiry,omitempty"`
	Address          types.Address `json:"address"`
}

// DirectiveInput is one row of the healthcare directive matrix.
type DirectiveInput struct {
	Granted      bool   `json:"granted"`
	Instructions string `json:"instructions,omitempty"`
}

// DirectivesInput is the healthcare directive matrix.
type DirectivesInput struct {
	MedicalTreatment     *DirectiveInput `json:"medicalTreatment,omitempty"`
	MentalHealth         *DirectiveInput `json:"mentalHealthTreatment,omitempty"`
	EndOfLife            *DirectiveInput `json:"endOfLife,omitempty"`
	OrganDonation        *DirectiveInput `json:"organDonation,omitempty"`
	DispositionOfRemains *DirectiveInput `json:"dispositionOfRemains,omitempty"`
}
