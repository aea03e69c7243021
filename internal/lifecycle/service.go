package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/outbox"
)

type poaRepository interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.POA, error)
	UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]models.POA, error)
}

type agentRepository interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Agent, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.AgentStatus, respondedAt time.Time) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor is the authenticated identity requesting a transition.
type Actor struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
}

// Service owns agent appointment and POA status transitions. Every
// transition is idempotent against its own current state: repeating a
// transition that already happened is a no-op, while a conflicting
// transition is rejected with a state conflict.
type Service interface {
	AcceptAppointment(ctx context.Context, agentID uuid.UUID, actor Actor) (*models.Agent, error)
	DeclineAppointment(ctx context.Context, agentID uuid.UUID, actor Actor) (*models.Agent, error)
	ActivatePOA(ctx context.Context, poaID uuid.UUID, notarizedCopyURL string, actor Actor) (*models.POA, error)
	RevokePOA(ctx context.Context, poaID uuid.UUID, actor Actor) (*models.POA, error)
	SweepExpired(ctx context.Context, asOf time.Time, limit int) (int, error)
}

type service struct {
	poaRepo   poaRepository
	agentRepo agentRepository
	tx        txRunner
	events    outboxEmitter
	now       func() time.Time
}

func NewService(poaRepo poaRepository, agentRepo agentRepository, tx txRunner, events outboxEmitter) (Service, error) {
	if poaRepo == nil {
		return nil, fmt.Errorf("poa repository required")
	}
	if agentRepo == nil {
		return nil, fmt.Errorf("agent repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		poaRepo:   poaRepo,
		agentRepo: agentRepo,
		tx:        tx,
		events:    events,
		now:       time.Now,
	}, nil
}

// agentEventData is the payload for agent appointment events.
type agentEventData struct {
	AgentID  uuid.UUID         `json:"agentId"`
	POAID    uuid.UUID         `json:"poaId"`
	TenantID uuid.UUID         `json:"tenantId"`
	Status   enums.AgentStatus `json:"status"`
	Email    string            `json:"email"`
	FullName string            `json:"fullName"`
}

// poaEventData is the payload for POA status events.
type poaEventData struct {
	POAID    uuid.UUID       `json:"poaId"`
	TenantID uuid.UUID       `json:"tenantId"`
	Status   enums.POAStatus `json:"status"`
	Type     enums.POAType   `json:"type"`
	State    enums.USState   `json:"state"`
}

func (s *service) AcceptAppointment(ctx context.Context, agentID uuid.UUID, actor Actor) (*models.Agent, error) {
	return s.respond(ctx, agentID, actor, enums.AgentStatusAccepted, enums.EventAgentAccepted)
}

func (s *service) DeclineAppointment(ctx context.Context, agentID uuid.UUID, actor Actor) (*models.Agent, error) {
	return s.respond(ctx, agentID, actor, enums.AgentStatusDeclined, enums.EventAgentDeclined)
}

// respond applies a terminal appointment response. Only the appointed agent
// may respond; accept and decline events may arrive out of order and
// duplicated, so a repeat of the current terminal state succeeds untouched.
func (s *service) respond(ctx context.Context, agentID uuid.UUID, actor Actor, target enums.AgentStatus, eventType enums.OutboxEventType) (*models.Agent, error) {
	if agentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agent identity missing")
	}

	var out *models.Agent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		agent, err := s.agentRepo.FindByIDTx(tx, agentID)
		if err != nil {
			return err
		}
		if agent == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "agent appointment not found")
		}
		if !strings.EqualFold(strings.TrimSpace(actor.Email), agent.Email) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the appointed agent may respond")
		}

		if agent.Status == target {
			out = agent
			return nil
		}
		if agent.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("appointment already %s", agent.Status)).
				WithDetails(map[string]any{"currentStatus": agent.Status})
		}

		poa, err := s.poaRepo.FindByIDTx(tx, agent.POAID)
		if err != nil {
			return err
		}
		if poa == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "agent appointment not found")
		}

		respondedAt := s.now()
		if err := s.agentRepo.UpdateStatusTx(tx, agent.ID, target, respondedAt); err != nil {
			return err
		}
		agent.Status = target
		agent.RespondedAt = &respondedAt

		event := outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateAgent,
			AggregateID:   agent.ID,
			Actor:         &outbox.ActorRef{UserID: actor.UserID},
			Version:       1,
			Data: agentEventData{
				AgentID:  agent.ID,
				POAID:    agent.POAID,
				TenantID: poa.TenantID,
				Status:   target,
				Email:    agent.Email,
				FullName: agent.FullName,
			},
		}
		if err := s.events.Emit(ctx, tx, event); err != nil {
			return err
		}
		out = agent
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) ActivatePOA(ctx context.Context, poaID uuid.UUID, notarizedCopyURL string, actor Actor) (*models.POA, error) {
	if poaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "poa identity missing")
	}
	notarizedCopyURL = strings.TrimSpace(notarizedCopyURL)
	if notarizedCopyURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notarized copy url required")
	}

	var out *models.POA
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		poa, err := s.loadOwned(tx, poaID, actor)
		if err != nil {
			return err
		}

		if poa.Status == enums.POAStatusActive {
			out = poa
			return nil
		}
		if poa.Status != enums.POAStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot activate a %s power of attorney", poa.Status)).
				WithDetails(map[string]any{"currentStatus": poa.Status})
		}

		activatedAt := s.now()
		updates := map[string]any{
			"status":             enums.POAStatusActive,
			"notarized_copy_url": notarizedCopyURL,
			"activated_at":       activatedAt,
		}
		if err := s.poaRepo.UpdateTx(tx, poa.ID, updates); err != nil {
			return err
		}
		poa.Status = enums.POAStatusActive
		poa.NotarizedCopyURL = &notarizedCopyURL
		poa.ActivatedAt = &activatedAt

		if err := s.emitPOAEvent(ctx, tx, poa, enums.EventPOAActivated, actor); err != nil {
			return err
		}
		out = poa
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) RevokePOA(ctx context.Context, poaID uuid.UUID, actor Actor) (*models.POA, error) {
	if poaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "poa identity missing")
	}

	var out *models.POA
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		poa, err := s.loadOwned(tx, poaID, actor)
		if err != nil {
			return err
		}

		if poa.Status != enums.POAStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot revoke a %s power of attorney", poa.Status)).
				WithDetails(map[string]any{"currentStatus": poa.Status})
		}

		revokedAt := s.now()
		updates := map[string]any{
			"status":     enums.POAStatusRevoked,
			"revoked_at": revokedAt,
		}
		if err := s.poaRepo.UpdateTx(tx, poa.ID, updates); err != nil {
			return err
		}
		poa.Status = enums.POAStatusRevoked
		poa.RevokedAt = &revokedAt

		if err := s.emitPOAEvent(ctx, tx, poa, enums.EventPOARevoked, actor); err != nil {
			return err
		}
		out = poa
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SweepExpired materializes the derived expired status for active limited
// instruments whose expiration date has passed. Readers never depend on the
// sweep; EffectiveStatus resolves expiration on read.
func (s *service) SweepExpired(ctx context.Context, asOf time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.poaRepo.ListExpiredActive(ctx, asOf, limit)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, row := range rows {
		poa := row
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			current, err := s.poaRepo.FindByIDTx(tx, poa.ID)
			if err != nil {
				return err
			}
			if current == nil || current.Status != enums.POAStatusActive || !current.IsExpired(asOf) {
				return nil
			}

			updates := map[string]any{
				"status":     enums.POAStatusExpired,
				"expired_at": current.ExpirationDate,
			}
			if err := s.poaRepo.UpdateTx(tx, current.ID, updates); err != nil {
				return err
			}
			current.Status = enums.POAStatusExpired
			current.ExpiredAt = current.ExpirationDate

			if err := s.emitPOAEvent(ctx, tx, current, enums.EventPOAExpired, Actor{}); err != nil {
				return err
			}
			swept++
			return nil
		})
		if err != nil {
			return swept, err
		}
	}
	return swept, nil
}

func (s *service) loadOwned(tx *gorm.DB, poaID uuid.UUID, actor Actor) (*models.POA, error) {
	poa, err := s.poaRepo.FindByIDTx(tx, poaID)
	if err != nil {
		return nil, err
	}
	if poa == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "power of attorney not found")
	}
	if actor.TenantID != uuid.Nil && poa.TenantID != actor.TenantID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "power of attorney not found")
	}
	if actor.UserID != uuid.Nil && poa.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the principal may change this power of attorney")
	}
	return poa, nil
}

func (s *service) emitPOAEvent(ctx context.Context, tx *gorm.DB, poa *models.POA, eventType enums.OutboxEventType, actor Actor) error {
	var actorRef *outbox.ActorRef
	if actor.UserID != uuid.Nil {
		actorRef = &outbox.ActorRef{UserID: actor.UserID, TenantID: &poa.TenantID}
	}
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregatePOA,
		AggregateID:   poa.ID,
		Actor:         actorRef,
		Version:       1,
		Data: poaEventData{
			POAID:    poa.ID,
			TenantID: poa.TenantID,
			Status:   poa.Status,
			Type:     poa.Type,
			State:    poa.State,
		},
	})
}
