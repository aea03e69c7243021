package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/attestly/poa-backend/internal/rules"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
)

// Engine runs validation passes over creation payloads. Safe for concurrent
// use; construct once and share.
type Engine struct {
	validate *validator.Validate
}

// NewEngine builds an Engine with JSON field names wired into the underlying
// validator so error paths match the wire payload.
func NewEngine() *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Engine{validate: v}
}

// Validate runs every applicable check over the payload and returns the field
// errors the mode keeps. A step-scoped pass runs the same checks as a full
// pass and then discards errors attributed to fields the step does not own,
// so a step never blocks on fields the user has not reached.
func (e *Engine) Validate(p *Payload, mode Mode) ErrorList {
	var all ErrorList

	e.structural(p, &all)
	e.crossField(p, &all)
	e.setChecks(p, mode, &all)
	e.jurisdictional(p, &all)

	var kept ErrorList
	for _, fe := range all {
		if mode.keeps(fe.Field) {
			kept = append(kept, fe)
		}
	}
	return kept
}

// structural covers presence, shape and format of individual fields.
func (e *Engine) structural(p *Payload, out *ErrorList) {
	if err := e.validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) {
			for _, ve := range verrs {
				field := trimNamespace(ve.Namespace())
				switch ve.Tag() {
				case "required":
					out.add(field, CodeRequired, "this field is required")
				case "email":
					out.add(field, CodeInvalid, "must be a valid email address")
				case "min":
					out.add(field, CodeInvalid, fmt.Sprintf("must be at least %s characters", ve.Param()))
				default:
					out.add(field, CodeInvalid, "invalid value")
				}
			}
		}
	}

	if p.POAType != "" {
		if _, err := enums.ParsePOAType(p.POAType); err != nil {
			out.add("poaType", CodeInvalid, "unknown power of attorney type")
		}
	}
	if p.State != "" {
		if _, err := enums.ParseUSState(p.State); err != nil {
			out.add("state", CodeInvalid, "unknown state code")
		}
	}

	checkDate(out, "principal.dateOfBirth", p.Principal.DateOfBirth)
	checkDate(out, "effectiveDate", p.EffectiveDate)
	checkDate(out, "expirationDate", p.ExpirationDate)
	if p.NotaryPublic != nil {
		checkDate(out, "notaryPublic.commissionExpiry", p.NotaryPublic.CommissionExpiry)
	}

	for i, a := range p.Agents {
		if a.Type == "" {
			continue
		}
		if _, err := enums.ParseAgentRole(a.Type); err != nil {
			out.add(fmt.Sprintf("agents[%d].type", i), CodeInvalid, "unknown agent role")
		}
	}
}

// crossField covers consistency between fields: date ordering, the flag/type
// pairing, and the conditional fields each POA type demands.
func (e *Engine) crossField(p *Payload, out *ErrorList) {
	poaType, typeErr := enums.ParsePOAType(p.POAType)

	effective, effErr := parseDate(p.EffectiveDate)
	expiration, expErr := parseDate(p.ExpirationDate)
	if effErr == nil && expErr == nil && effective != nil && expiration != nil {
		if !expiration.After(*effective) {
			out.add("expirationDate", CodeCrossField, "must be after the effective date")
		}
	}

	if typeErr != nil {
		return
	}

	if flagMismatch(poaType, p) {
		out.add("poaType", CodeCrossField, "type flags do not match the selected type")
	}

	switch poaType {
	case enums.POATypeSpringing:
		if strings.TrimSpace(p.SpringingCondition) == "" {
			out.add("springingCondition", CodeRequired, "springing powers need a triggering condition")
		}
		if p.NumberOfPhysiciansRequired == nil {
			out.add("numberOfPhysiciansRequired", CodeRequired, "springing powers need a physician certification count")
		} else if *p.NumberOfPhysiciansRequired < 1 {
			out.add("numberOfPhysiciansRequired", CodeInvalid, "must certify with at least one physician")
		}
	case enums.POATypeLimited:
		if strings.TrimSpace(p.SpecificPurpose) == "" {
			out.add("specificPurpose", CodeRequired, "limited powers need a specific purpose")
		}
		if p.ExpirationDate == "" {
			out.add("expirationDate", CodeRequired, "limited powers need an expiration date")
		} else if expErr == nil && expiration != nil && effective == nil {
			if !expiration.After(time.Now()) {
				out.add("expirationDate", CodeCrossField, "must be in the future")
			}
		}
	case enums.POATypeHealthcare:
		if p.HealthcareDirectives == nil || !anyDirectiveSet(p.HealthcareDirectives) {
			out.add("healthcareDirectives", CodeRequired, "at least one directive area must be addressed")
		}
	}
}

// setChecks covers collection-level invariants over agents, powers and
// witnesses.
func (e *Engine) setChecks(p *Payload, mode Mode, out *ErrorList) {
	seen := make(map[string]int, len(p.Agents))
	primaries := 0
	orders := make(map[int]int)
	maxOrder := 0
	successors := 0

	for i, a := range p.Agents {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		if email != "" {
			if _, dup := seen[email]; dup {
				out.add(fmt.Sprintf("agents[%d].email", i), CodeDuplicate, "each agent must have a distinct email")
			} else {
				seen[email] = i
			}
		}

		role, err := enums.ParseAgentRole(a.Type)
		if err != nil {
			continue
		}
		switch role {
		case enums.AgentRolePrimary:
			primaries++
		case enums.AgentRoleSuccessor:
			successors++
			if a.Order == nil {
				out.add(fmt.Sprintf("agents[%d].order", i), CodeRequired, "successor agents need a fallback order")
				continue
			}
			if *a.Order < 1 {
				out.add(fmt.Sprintf("agents[%d].order", i), CodeInvalid, "fallback order starts at 1")
				continue
			}
			if _, dup := orders[*a.Order]; dup {
				out.add(fmt.Sprintf("agents[%d].order", i), CodeDuplicate, "fallback order already taken")
				continue
			}
			orders[*a.Order] = i
			if *a.Order > maxOrder {
				maxOrder = *a.Order
			}
		}
	}

	if successors > 0 && len(orders) == successors && maxOrder != successors {
		out.add("agents", CodeInvalid, "successor fallback order must be contiguous from 1")
	}

	if primaries > 1 {
		out.add("agents", CodeDuplicate, "only one primary agent is allowed")
	}
	if primaries == 0 && (mode.IsFull() || len(p.Agents) > 0) {
		out.add("agents", CodeRequired, "a primary agent is required")
	}

	poaType, err := enums.ParsePOAType(p.POAType)
	if err == nil && poaType.Family() == enums.POAFamilyFinancial {
		if !p.GrantedPowers.GrantAllPowers && len(p.GrantedPowers.CategoryIDs) == 0 {
			out.add("grantedPowers", CodeRequired, "select at least one power category or grant all powers")
		}
	}
}

// jurisdictional gates the payload through the rules catalog and checks the
// state's execution formalities.
func (e *Engine) jurisdictional(p *Payload, out *ErrorList) {
	poaType, typeErr := enums.ParsePOAType(p.POAType)
	state, stateErr := enums.ParseUSState(p.State)
	if typeErr != nil || stateErr != nil {
		return
	}

	rule := rules.Lookup(poaType, state)
	if rule.RequiresLegalReview {
		out.add("state", CodeJurisdiction, fmt.Sprintf("%s powers of attorney in %s require attorney review", poaType, state))
		return
	}
	if !rule.Permitted {
		out.add("poaType", CodeJurisdiction, fmt.Sprintf("%s does not permit %s powers of attorney", state.FullName(), poaType))
		return
	}

	if len(p.Witnesses) < rule.WitnessesRequired {
		out.add("witnesses", CodeJurisdiction, fmt.Sprintf("%s requires %d witness signatures for this instrument", state.FullName(), rule.WitnessesRequired))
	}
	if rule.NotaryRequired && p.NotaryPublic == nil {
		out.add("notaryPublic", CodeJurisdiction, fmt.Sprintf("%s requires notarization for this instrument", state.FullName()))
	}
}

// Normalize runs a full validation pass and, when it succeeds, converts the
// payload into the canonical form the document assembler consumes. Power
// category names are resolved by the caller against the catalog; Normalize
// carries the selected IDs through.
func (e *Engine) Normalize(p *Payload) (*NormalizedPOA, *pkgerrors.Error) {
	if errs := e.Validate(p, ModeFull); len(errs) > 0 {
		return nil, errs.AsError()
	}

	poaType, _ := enums.ParsePOAType(p.POAType)
	state, _ := enums.ParseUSState(p.State)
	rule := rules.Lookup(poaType, state)

	n := &NormalizedPOA{
		Type:              poaType,
		Family:            poaType.Family(),
		State:             state,
		WitnessesRequired: rule.WitnessesRequired,
		NotaryRequired:    rule.NotaryRequired,
	}

	dob, _ := parseDate(p.Principal.DateOfBirth)
	n.Principal = Principal{
		FullName:    strings.TrimSpace(p.Principal.FullName),
		DateOfBirth: *dob,
		Email:       strings.ToLower(strings.TrimSpace(p.Principal.Email)),
		Phone:       strings.TrimSpace(p.Principal.Phone),
		Address:     p.Principal.Address.Normalized(),
	}

	for _, a := range p.Agents {
		role, _ := enums.ParseAgentRole(a.Type)
		agent := Agent{
			Role:     role,
			FullName: strings.TrimSpace(a.FullName),
			Email:    strings.ToLower(strings.TrimSpace(a.Email)),
			Phone:    strings.TrimSpace(a.Phone),
			Address:  a.Address.Normalized(),
		}
		if a.Order != nil {
			agent.Order = *a.Order
		}
		n.Agents = append(n.Agents, agent)
	}

	n.Powers = PowerGrantSet{
		GrantAll:          p.GrantedPowers.GrantAllPowers,
		GrantAllSubPowers: p.GrantedPowers.GrantAllSubPowers,
	}
	for _, id := range p.GrantedPowers.CategoryIDs {
		n.Powers.Selections = append(n.Powers.Selections, PowerGrant{
			CategoryID:   id,
			AllSubPowers: p.GrantedPowers.GrantAllSubPowers,
		})
	}

	for _, w := range p.Witnesses {
		n.Witnesses = append(n.Witnesses, Witness{
			FullName: strings.TrimSpace(w.FullName),
			Address:  w.Address.Normalized(),
		})
	}
	if p.NotaryPublic != nil {
		notary := &Notary{
			FullName:         strings.TrimSpace(p.NotaryPublic.FullName),
			CommissionNumber: strings.TrimSpace(p.NotaryPublic.CommissionNumber),
			Address:          p.NotaryPublic.Address.Normalized(),
		}
		if expiry, _ := parseDate(p.NotaryPublic.CommissionExpiry); expiry != nil {
			notary.CommissionExpiry = expiry
		}
		n.Notary = notary
	}

	n.EffectiveDate, _ = parseDate(p.EffectiveDate)
	n.ExpirationDate, _ = parseDate(p.ExpirationDate)
	n.SpringingCondition = strings.TrimSpace(p.SpringingCondition)
	if p.NumberOfPhysiciansRequired != nil {
		n.PhysiciansRequired = *p.NumberOfPhysiciansRequired
	}
	n.SpecificPurpose = strings.TrimSpace(p.SpecificPurpose)

	if p.HealthcareDirectives != nil {
		n.Directives = normalizeDirectives(p.HealthcareDirectives)
	}

	return n, nil
}

func normalizeDirectives(in *DirectivesInput) *Directives {
	d := &Directives{Choices: make(map[enums.DirectiveArea]DirectiveChoice)}
	set := func(area enums.DirectiveArea, choice *DirectiveInput) {
		if choice == nil {
			return
		}
		d.Choices[area] = DirectiveChoice{
			Granted:      choice.Granted,
			Instructions: strings.TrimSpace(choice.Instructions),
		}
	}
	set(enums.DirectiveAreaMedicalTreatment, in.MedicalTreatment)
	set(enums.DirectiveAreaMentalHealth, in.MentalHealth)
	set(enums.DirectiveAreaEndOfLife, in.EndOfLife)
	set(enums.DirectiveAreaOrganDonation, in.OrganDonation)
	set(enums.DirectiveAreaRemains, in.DispositionOfRemains)
	return d
}

func anyDirectiveSet(in *DirectivesInput) bool {
	for _, choice := range []*DirectiveInput{
		in.MedicalTreatment, in.MentalHealth, in.EndOfLife, in.OrganDonation, in.DispositionOfRemains,
	} {
		if choice != nil {
			return true
		}
	}
	return false
}

func flagMismatch(poaType enums.POAType, p *Payload) bool {
	switch poaType {
	case enums.POATypeSpringing:
		return !p.IsSpringing || p.IsLimited
	case enums.POATypeLimited:
		return !p.IsLimited || p.IsSpringing
	case enums.POATypeDurable:
		return p.IsSpringing || p.IsLimited
	}
	return false
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func checkDate(out *ErrorList, field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		out.add(field, CodeInvalid, "must be a date in YYYY-MM-DD format")
	}
}

func trimNamespace(ns string) string {
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}
