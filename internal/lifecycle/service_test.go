package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/outbox"
)

type stubPOARepo struct {
	poa         *models.POA
	findErr     error
	updates     map[string]any
	updateErr   error
	expiredRows []models.POA
	listErr     error
}

func (s *stubPOARepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.POA, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.poa == nil || s.poa.ID != id {
		return nil, nil
	}
	copied := *s.poa
	return &copied, nil
}

func (s *stubPOARepo) UpdateTx(tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = updates
	if status, ok := updates["status"].(enums.POAStatus); ok && s.poa != nil {
		s.poa.Status = status
	}
	return nil
}

func (s *stubPOARepo) ListExpiredActive(ctx context.Context, asOf time.Time, limit int) ([]models.POA, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.expiredRows, nil
}

type stubAgentRepo struct {
	agent      *models.Agent
	findErr    error
	lastStatus enums.AgentStatus
	updateErr  error
	updated    int
}

func (s *stubAgentRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Agent, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.agent == nil || s.agent.ID != id {
		return nil, nil
	}
	copied := *s.agent
	return &copied, nil
}

func (s *stubAgentRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.AgentStatus, respondedAt time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.lastStatus = status
	s.updated++
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (s *stubEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func pendingAgent() *models.Agent {
	return &models.Agent{
		ID:       uuid.New(),
		POAID:    uuid.New(),
		Role:     enums.AgentRolePrimary,
		Status:   enums.AgentStatusPending,
		FullName: "Carlos Santos",
		Email:    "carlos@example.com",
	}
}

func draftPOA() *models.POA {
	return &models.POA{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		UserID:   uuid.New(),
		Type:     enums.POATypeDurable,
		Family:   enums.POAFamilyFinancial,
		State:    "FL",
		Status:   enums.POAStatusDraft,
	}
}

func newTestService(t *testing.T, poaRepo *stubPOARepo, agentRepo *stubAgentRepo, emitter *stubEmitter) Service {
	t.Helper()
	svc, err := NewService(poaRepo, agentRepo, stubTxRunner{}, emitter)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error with code %v, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %v, got %v", code, typed.Code())
	}
}

func poaForAgent(agent *models.Agent) *models.POA {
	poa := draftPOA()
	poa.ID = agent.POAID
	return poa
}

func TestAcceptAppointment(t *testing.T) {
	agentRepo := &stubAgentRepo{agent: pendingAgent()}
	emitter := &stubEmitter{}
	svc := newTestService(t, &stubPOARepo{poa: poaForAgent(agentRepo.agent)}, agentRepo, emitter)

	actor := Actor{UserID: uuid.New(), Email: "CARLOS@example.com"}
	agent, err := svc.AcceptAppointment(context.Background(), agentRepo.agent.ID, actor)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if agent.Status != enums.AgentStatusAccepted {
		t.Fatalf("expected accepted, got %v", agent.Status)
	}
	if agent.RespondedAt == nil {
		t.Fatal("expected responded timestamp")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAgentAccepted {
		t.Fatalf("expected agent_accepted event, got %+v", emitter.events)
	}
}

func TestAcceptAppointmentBoundToAgentIdentity(t *testing.T) {
	agentRepo := &stubAgentRepo{agent: pendingAgent()}
	svc := newTestService(t, &stubPOARepo{}, agentRepo, &stubEmitter{})

	_, err := svc.AcceptAppointment(context.Background(), agentRepo.agent.ID, Actor{Email: "someone.else@example.com"})
	expectCode(t, err, pkgerrors.CodeForbidden)
	if agentRepo.updated != 0 {
		t.Fatal("no update should happen for a foreign actor")
	}
}

func TestDuplicateAcceptIsNoOp(t *testing.T) {
	agent := pendingAgent()
	agent.Status = enums.AgentStatusAccepted
	agentRepo := &stubAgentRepo{agent: agent}
	emitter := &stubEmitter{}
	svc := newTestService(t, &stubPOARepo{}, agentRepo, emitter)

	got, err := svc.AcceptAppointment(context.Background(), agent.ID, Actor{Email: agent.Email})
	if err != nil {
		t.Fatalf("duplicate accept should be a no-op: %v", err)
	}
	if got.Status != enums.AgentStatusAccepted {
		t.Fatalf("unexpected status %v", got.Status)
	}
	if agentRepo.updated != 0 || len(emitter.events) != 0 {
		t.Fatal("duplicate accept must not write or emit")
	}
}

func TestAcceptAfterDeclineConflicts(t *testing.T) {
	agent := pendingAgent()
	agent.Status = enums.AgentStatusDeclined
	agentRepo := &stubAgentRepo{agent: agent}
	svc := newTestService(t, &stubPOARepo{}, agentRepo, &stubEmitter{})

	_, err := svc.AcceptAppointment(context.Background(), agent.ID, Actor{Email: agent.Email})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestDeclineAppointment(t *testing.T) {
	agentRepo := &stubAgentRepo{agent: pendingAgent()}
	emitter := &stubEmitter{}
	svc := newTestService(t, &stubPOARepo{poa: poaForAgent(agentRepo.agent)}, agentRepo, emitter)

	agent, err := svc.DeclineAppointment(context.Background(), agentRepo.agent.ID, Actor{Email: agentRepo.agent.Email})
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if agent.Status != enums.AgentStatusDeclined {
		t.Fatalf("expected declined, got %v", agent.Status)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventAgentDeclined {
		t.Fatalf("expected agent_declined event, got %+v", emitter.events)
	}
}

func TestActivatePOA(t *testing.T) {
	poaRepo := &stubPOARepo{poa: draftPOA()}
	emitter := &stubEmitter{}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, emitter)

	actor := Actor{UserID: poaRepo.poa.UserID, TenantID: poaRepo.poa.TenantID}
	poa, err := svc.ActivatePOA(context.Background(), poaRepo.poa.ID, "https://storage.example.com/notarized.pdf", actor)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if poa.Status != enums.POAStatusActive {
		t.Fatalf("expected active, got %v", poa.Status)
	}
	if poa.NotarizedCopyURL == nil || poa.ActivatedAt == nil {
		t.Fatal("expected notarized url and activation time recorded")
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPOAActivated {
		t.Fatalf("expected poa_activated event, got %+v", emitter.events)
	}
}

func TestActivateRequiresNotarizedCopy(t *testing.T) {
	poaRepo := &stubPOARepo{poa: draftPOA()}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, &stubEmitter{})

	_, err := svc.ActivatePOA(context.Background(), poaRepo.poa.ID, "  ", Actor{UserID: poaRepo.poa.UserID})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestActivateIsIdempotent(t *testing.T) {
	poa := draftPOA()
	poa.Status = enums.POAStatusActive
	poaRepo := &stubPOARepo{poa: poa}
	emitter := &stubEmitter{}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, emitter)

	got, err := svc.ActivatePOA(context.Background(), poa.ID, "https://storage.example.com/notarized.pdf", Actor{UserID: poa.UserID})
	if err != nil {
		t.Fatalf("repeat activation should be a no-op: %v", err)
	}
	if got.Status != enums.POAStatusActive {
		t.Fatalf("unexpected status %v", got.Status)
	}
	if poaRepo.updates != nil || len(emitter.events) != 0 {
		t.Fatal("repeat activation must not write or emit")
	}
}

func TestActivateRevokedConflicts(t *testing.T) {
	poa := draftPOA()
	poa.Status = enums.POAStatusRevoked
	poaRepo := &stubPOARepo{poa: poa}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, &stubEmitter{})

	_, err := svc.ActivatePOA(context.Background(), poa.ID, "https://storage.example.com/notarized.pdf", Actor{UserID: poa.UserID})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRevokePOA(t *testing.T) {
	poaRepo := &stubPOARepo{poa: draftPOA()}
	emitter := &stubEmitter{}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, emitter)

	poa, err := svc.RevokePOA(context.Background(), poaRepo.poa.ID, Actor{UserID: poaRepo.poa.UserID})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if poa.Status != enums.POAStatusRevoked || poa.RevokedAt == nil {
		t.Fatalf("expected revoked with timestamp, got %+v", poa)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPOARevoked {
		t.Fatalf("expected poa_revoked event, got %+v", emitter.events)
	}
}

func TestRevokeRevokedConflicts(t *testing.T) {
	poa := draftPOA()
	poa.Status = enums.POAStatusRevoked
	poaRepo := &stubPOARepo{poa: poa}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, &stubEmitter{})

	_, err := svc.RevokePOA(context.Background(), poa.ID, Actor{UserID: poa.UserID})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRevokeForeignPrincipalForbidden(t *testing.T) {
	poaRepo := &stubPOARepo{poa: draftPOA()}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, &stubEmitter{})

	_, err := svc.RevokePOA(context.Background(), poaRepo.poa.ID, Actor{UserID: uuid.New()})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestSweepExpired(t *testing.T) {
	expiration := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	poa := draftPOA()
	poa.Type = enums.POATypeLimited
	poa.Status = enums.POAStatusActive
	poa.ExpirationDate = &expiration

	poaRepo := &stubPOARepo{poa: poa, expiredRows: []models.POA{*poa}}
	emitter := &stubEmitter{}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, emitter)

	asOf := expiration.AddDate(0, 0, 1)
	swept, err := svc.SweepExpired(context.Background(), asOf, 10)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected one sweep, got %d", swept)
	}
	if poaRepo.updates["status"] != enums.POAStatusExpired {
		t.Fatalf("expected expired status write, got %+v", poaRepo.updates)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventPOAExpired {
		t.Fatalf("expected poa_expired event, got %+v", emitter.events)
	}
}

func TestSweepSkipsRowsThatChangedUnderneath(t *testing.T) {
	expiration := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	poa := draftPOA()
	poa.Type = enums.POATypeLimited
	poa.Status = enums.POAStatusActive
	poa.ExpirationDate = &expiration

	snapshot := *poa
	// The row was revoked between the list and the per-row recheck.
	poa.Status = enums.POAStatusRevoked

	poaRepo := &stubPOARepo{poa: poa, expiredRows: []models.POA{snapshot}}
	emitter := &stubEmitter{}
	svc := newTestService(t, poaRepo, &stubAgentRepo{}, emitter)

	swept, err := svc.SweepExpired(context.Background(), expiration.AddDate(0, 0, 1), 10)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 0 || len(emitter.events) != 0 {
		t.Fatalf("expected no sweep, got swept=%d events=%+v", swept, emitter.events)
	}
}

func TestDerivedExpiredStatus(t *testing.T) {
	expiration := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	poa := draftPOA()
	poa.Type = enums.POATypeLimited
	poa.Status = enums.POAStatusActive
	poa.ExpirationDate = &expiration

	before := expiration.AddDate(0, 0, -1)
	after := expiration.AddDate(0, 0, 1)
	if poa.EffectiveStatus(before) != enums.POAStatusActive {
		t.Fatal("should still be active before expiration")
	}
	if poa.EffectiveStatus(after) != enums.POAStatusExpired {
		t.Fatal("should read as expired after expiration without a write")
	}
}
