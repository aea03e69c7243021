package poas

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/internal/validation"
	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/outbox"
	"github.com/attestly/poa-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type grantResolver interface {
	ResolveGrants(ctx context.Context, n *validation.NormalizedPOA) error
}

type documentStore interface {
	SupersedeActiveTx(tx *gorm.DB, poaID uuid.UUID) error
}

// Actor is the authenticated identity a request runs as.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
}

// Service owns the authoring flow for POA instruments: draft creation and
// editing, tenant-scoped reads, and submission. Submission persists the
// normalized instrument atomically with its outbox events; document assembly
// happens asynchronously off the submitted event.
type Service interface {
	CreateDraft(ctx context.Context, actor Actor, payload *validation.Payload) (*models.POA, error)
	GetPOA(ctx context.Context, actor Actor, id uuid.UUID) (*models.POA, error)
	GetDraftPayload(ctx context.Context, actor Actor, id uuid.UUID) (*validation.Payload, error)
	ListPOAs(ctx context.Context, actor Actor, params pagination.Params, status *enums.POAStatus) ([]models.POA, *pagination.Cursor, error)
	UpdateDraft(ctx context.Context, actor Actor, id uuid.UUID, payload *validation.Payload) (*models.POA, error)
	Submit(ctx context.Context, actor Actor, id uuid.UUID) (*models.POA, error)
}

type service struct {
	repo    Repository
	docs    documentStore
	engine  *validation.Engine
	powers  grantResolver
	tx      txRunner
	events  outboxEmitter
	now     func() time.Time
}

func NewService(repo Repository, docs documentStore, engine *validation.Engine, powers grantResolver, tx txRunner, events outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("poa repository required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document store required")
	}
	if engine == nil {
		return nil, fmt.Errorf("validation engine required")
	}
	if powers == nil {
		return nil, fmt.Errorf("grant resolver required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:   repo,
		docs:   docs,
		engine: engine,
		powers: powers,
		tx:     tx,
		events: events,
		now:    time.Now,
	}, nil
}

// submittedEventData is the payload for poa_submitted events. The assembly
// worker rebuilds the normalized instrument from the aggregate, so the event
// carries identity, not content.
type submittedEventData struct {
	POAID    uuid.UUID       `json:"poaId"`
	TenantID uuid.UUID       `json:"tenantId"`
	UserID   uuid.UUID       `json:"userId"`
	Type     enums.POAType   `json:"type"`
	Family   enums.POAFamily `json:"family"`
	State    enums.USState   `json:"state"`
}

type agentDesignatedData struct {
	AgentID  uuid.UUID       `json:"agentId"`
	POAID    uuid.UUID       `json:"poaId"`
	TenantID uuid.UUID       `json:"tenantId"`
	Role     enums.AgentRole `json:"role"`
	Email    string          `json:"email"`
	FullName string          `json:"fullName"`
}

func (s *service) CreateDraft(ctx context.Context, actor Actor, payload *validation.Payload) (*models.POA, error) {
	if payload == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payload required")
	}
	poaType, err := enums.ParsePOAType(payload.POAType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid poaType is required to start a draft")
	}
	state, err := enums.ParseUSState(payload.State)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid state is required to start a draft")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal draft payload")
	}

	poa := &models.POA{
		TenantID:          actor.TenantID,
		UserID:            actor.UserID,
		Type:              poaType,
		Family:            poaType.Family(),
		State:             state,
		Status:            enums.POAStatusDraft,
		PrincipalFullName: payload.Principal.FullName,
		PrincipalEmail:    payload.Principal.Email,
		DraftPayload:      raw,
	}
	if err := s.repo.Create(ctx, poa); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create draft")
	}
	return poa, nil
}

func (s *service) GetPOA(ctx context.Context, actor Actor, id uuid.UUID) (*models.POA, error) {
	poa, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load poa")
	}
	return s.authorize(poa, actor)
}

func (s *service) GetDraftPayload(ctx context.Context, actor Actor, id uuid.UUID) (*validation.Payload, error) {
	poa, err := s.GetPOA(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if len(poa.DraftPayload) == 0 {
		return &validation.Payload{}, nil
	}
	var payload validation.Payload
	if err := json.Unmarshal(poa.DraftPayload, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode draft payload")
	}
	return &payload, nil
}

func (s *service) ListPOAs(ctx context.Context, actor Actor, params pagination.Params, status *enums.POAStatus) ([]models.POA, *pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	poas, next, err := s.repo.List(ctx, ListParams{
		TenantID: actor.TenantID,
		UserID:   actor.UserID,
		Status:   status,
		Limit:    params.Limit,
		Cursor:   cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list poas")
	}
	return poas, next, nil
}

func (s *service) UpdateDraft(ctx context.Context, actor Actor, id uuid.UUID, payload *validation.Payload) (*models.POA, error) {
	if payload == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payload required")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal draft payload")
	}

	var out *models.POA
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		poa, err := s.loadOwnedTx(tx, id, actor)
		if err != nil {
			return err
		}
		if poa.Status != enums.POAStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only drafts can be edited").
				WithDetails(map[string]any{"currentStatus": poa.Status})
		}

		updates := map[string]any{
			"draft_payload":        json.RawMessage(raw),
			"principal_full_name":  payload.Principal.FullName,
			"principal_email":      payload.Principal.Email,
		}
		if poaType, err := enums.ParsePOAType(payload.POAType); err == nil {
			updates["type"] = poaType
			updates["family"] = poaType.Family()
		}
		if state, err := enums.ParseUSState(payload.State); err == nil {
			updates["state"] = state
		}

		// Editing a draft that already has a generated document invalidates
		// that document: the active reference is cleared and the row marked
		// superseded, so only the next submit can produce a current instrument.
		if poa.ActiveDocumentID != nil {
			if err := s.docs.SupersedeActiveTx(tx, poa.ID); err != nil {
				return err
			}
			updates["active_document_id"] = nil
		}

		if err := s.repo.UpdateTx(tx, poa.ID, updates); err != nil {
			return err
		}
		refreshed, err := s.repo.FindByIDTx(tx, poa.ID)
		if err != nil {
			return err
		}
		out = refreshed
		return nil
	})
	if txErr != nil {
		if appErr := pkgerrors.As(txErr); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "update draft")
	}
	return out, nil
}

// Submit runs the full validation pass over the stored draft payload,
// resolves power grants against the catalog, and persists the normalized
// instrument with its outbox events in one transaction. The POA stays a
// draft until a notarized copy activates it; assembly is triggered by the
// poa_submitted event.
func (s *service) Submit(ctx context.Context, actor Actor, id uuid.UUID) (*models.POA, error) {
	payload, err := s.GetDraftPayload(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	normalized, appErr := s.engine.Normalize(payload)
	if appErr != nil {
		return nil, appErr
	}
	if err := s.powers.ResolveGrants(ctx, normalized); err != nil {
		return nil, err
	}

	var out *models.POA
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		poa, err := s.loadOwnedTx(tx, id, actor)
		if err != nil {
			return err
		}
		if poa.Status != enums.POAStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only drafts can be submitted").
				WithDetails(map[string]any{"currentStatus": poa.Status})
		}

		if err := s.repo.UpdateTx(tx, poa.ID, instrumentColumns(normalized)); err != nil {
			return err
		}

		agents := agentRows(poa.ID, normalized)
		if err := s.repo.ReplacePartiesTx(tx, poa.ID,
			agents,
			grantedPowerRows(poa.ID, normalized),
			witnessRows(poa.ID, normalized),
			notaryRow(poa.ID, normalized),
		); err != nil {
			return err
		}

		actorRef := &outbox.ActorRef{UserID: actor.UserID, TenantID: &actor.TenantID, Role: "principal"}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPOASubmitted,
			AggregateType: enums.AggregatePOA,
			AggregateID:   poa.ID,
			Actor:         actorRef,
			Data: submittedEventData{
				POAID:    poa.ID,
				TenantID: poa.TenantID,
				UserID:   poa.UserID,
				Type:     normalized.Type,
				Family:   normalized.Family,
				State:    normalized.State,
			},
		}); err != nil {
			return err
		}
		for i := range agents {
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventAgentDesignated,
				AggregateType: enums.AggregateAgent,
				AggregateID:   agents[i].ID,
				Actor:         actorRef,
				Data: agentDesignatedData{
					AgentID:  agents[i].ID,
					POAID:    poa.ID,
					TenantID: poa.TenantID,
					Role:     agents[i].Role,
					Email:    agents[i].Email,
					FullName: agents[i].FullName,
				},
			}); err != nil {
				return err
			}
		}

		refreshed, err := s.repo.FindByIDTx(tx, poa.ID)
		if err != nil {
			return err
		}
		out = refreshed
		return nil
	})
	if txErr != nil {
		if appErr := pkgerrors.As(txErr); appErr != nil {
			return nil, appErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, txErr, "submit poa")
	}
	return out, nil
}

func (s *service) loadOwnedTx(tx *gorm.DB, id uuid.UUID, actor Actor) (*models.POA, error) {
	poa, err := s.repo.FindByIDTx(tx, id)
	if err != nil {
		return nil, err
	}
	return s.authorize(poa, actor)
}

// authorize hides cross-tenant rows entirely and rejects same-tenant access
// by a different user.
func (s *service) authorize(poa *models.POA, actor Actor) (*models.POA, error) {
	if poa == nil || poa.TenantID != actor.TenantID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "poa not found")
	}
	if poa.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "poa belongs to another user")
	}
	return poa, nil
}

func instrumentColumns(n *validation.NormalizedPOA) map[string]any {
	updates := map[string]any{
		"type":                    n.Type,
		"family":                  n.Family,
		"state":                   n.State,
		"principal_full_name":     n.Principal.FullName,
		"principal_date_of_birth": n.Principal.DateOfBirth,
		"principal_email":         n.Principal.Email,
		"principal_phone":         optionalString(n.Principal.Phone),
		"principal_address":       n.Principal.Address,
		"grant_all_powers":        n.Powers.GrantAll,
		"grant_all_sub_powers":    n.Powers.GrantAllSubPowers,
		"effective_date":          n.EffectiveDate,
		"expiration_date":         n.ExpirationDate,
		"springing_condition":     optionalString(n.SpringingCondition),
		"specific_purpose":        optionalString(n.SpecificPurpose),
		"healthcare_directives":   directiveColumns(n.Directives),
	}
	if n.PhysiciansRequired > 0 {
		updates["physicians_required"] = n.PhysiciansRequired
	} else {
		updates["physicians_required"] = nil
	}
	return updates
}

func directiveColumns(d *validation.Directives) models.HealthcareDirectives {
	var out models.HealthcareDirectives
	if d == nil {
		return out
	}
	set := func(dst **models.DirectiveChoice, area enums.DirectiveArea) {
		if choice, ok := d.Choices[area]; ok {
			*dst = &models.DirectiveChoice{Granted: choice.Granted, Instructions: choice.Instructions}
		}
	}
	set(&out.MedicalTreatment, enums.DirectiveAreaMedicalTreatment)
	set(&out.MentalHealth, enums.DirectiveAreaMentalHealth)
	set(&out.EndOfLife, enums.DirectiveAreaEndOfLife)
	set(&out.OrganDonation, enums.DirectiveAreaOrganDonation)
	set(&out.DispositionOfRemains, enums.DirectiveAreaRemains)
	return out
}

func agentRows(poaID uuid.UUID, n *validation.NormalizedPOA) []models.Agent {
	out := make([]models.Agent, 0, len(n.Agents))
	for _, a := range n.AgentsInSigningOrder() {
		row := models.Agent{
			ID:       uuid.New(),
			POAID:    poaID,
			Role:     a.Role,
			Status:   enums.AgentStatusPending,
			FullName: a.FullName,
			Email:    a.Email,
			Phone:    optionalString(a.Phone),
			Address:  a.Address,
		}
		if a.Role == enums.AgentRoleSuccessor {
			order := a.Order
			row.Order = &order
		}
		out = append(out, row)
	}
	return out
}

func grantedPowerRows(poaID uuid.UUID, n *validation.NormalizedPOA) []models.GrantedPower {
	out := make([]models.GrantedPower, 0, len(n.Powers.Selections))
	for _, sel := range n.Powers.Selections {
		row := models.GrantedPower{
			POAID:        poaID,
			CategoryID:   sel.CategoryID,
			AllSubPowers: sel.AllSubPowers,
		}
		if !sel.AllSubPowers {
			for _, sub := range sel.SubPowers {
				row.SubPowerIDs = append(row.SubPowerIDs, sub.ID)
			}
		}
		out = append(out, row)
	}
	return out
}

func witnessRows(poaID uuid.UUID, n *validation.NormalizedPOA) []models.Witness {
	out := make([]models.Witness, 0, len(n.Witnesses))
	for _, w := range n.Witnesses {
		out = append(out, models.Witness{POAID: poaID, FullName: w.FullName, Address: w.Address})
	}
	return out
}

func notaryRow(poaID uuid.UUID, n *validation.NormalizedPOA) *models.NotaryPublic {
	if n.Notary == nil {
		return nil
	}
	return &models.NotaryPublic{
		POAID:            poaID,
		FullName:         n.Notary.FullName,
		CommissionNumber: optionalString(n.Notary.CommissionNumber),
		CommissionExpiry: n.Notary.CommissionExpiry,
		Address:          n.Notary.Address,
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
