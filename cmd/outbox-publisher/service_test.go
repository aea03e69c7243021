package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/config"
	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/outbox"
)

type stubRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *stubRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	out := s.events
	s.events = nil
	return out, nil
}

func (s *stubRepo) MarkPublished(id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubRepo) MarkFailed(id uuid.UUID, err error) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubResult struct {
	err error
}

func (r stubResult) Get(context.Context) (string, error) {
	return "msg-1", r.err
}

type stubPublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (p *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return stubResult{err: p.err}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func outboxEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{"poaId": uuid.NewString()})
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregatePOA,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func newTestService(t *testing.T, repo *stubRepo, domain, notification *stubPublisher) *Service {
	t.Helper()
	params := ServiceParams{
		Config:     &config.Config{},
		Logger:     testLogger(),
		Repository: repo,
		Domain:     domain,
	}
	if notification != nil {
		params.Notification = notification
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := outboxEvent(enums.EventPOASubmitted)
	repo := &stubRepo{events: []models.OutboxEvent{event}}
	domain := &stubPublisher{}

	svc := newTestService(t, repo, domain, nil)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(domain.messages) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(domain.messages))
	}
	msg := domain.messages[0]
	if msg.Attributes[outbox.AttrEventType] != string(enums.EventPOASubmitted) {
		t.Fatalf("unexpected event type attribute %q", msg.Attributes[outbox.AttrEventType])
	}
	if msg.Attributes[outbox.AttrAggregateID] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate id attribute %q", msg.Attributes[outbox.AttrAggregateID])
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event %s marked published, got %v", event.ID, repo.published)
	}
}

func TestProcessBatchFansOutNotificationEvents(t *testing.T) {
	repo := &stubRepo{events: []models.OutboxEvent{
		outboxEvent(enums.EventPOAActivated),
		outboxEvent(enums.EventPOASubmitted),
	}}
	domain := &stubPublisher{}
	notification := &stubPublisher{}

	svc := newTestService(t, repo, domain, notification)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(domain.messages) != 2 {
		t.Fatalf("expected both events on the domain topic, got %d", len(domain.messages))
	}
	if len(notification.messages) != 1 {
		t.Fatalf("expected only the activation on the notification topic, got %d", len(notification.messages))
	}
	if got := notification.messages[0].Attributes[outbox.AttrEventType]; got != string(enums.EventPOAActivated) {
		t.Fatalf("unexpected notification event %q", got)
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	failing := outboxEvent(enums.EventPOASubmitted)
	repo := &stubRepo{events: []models.OutboxEvent{failing}}
	domain := &stubPublisher{err: errors.New("pubsub unavailable")}

	svc := newTestService(t, repo, domain, nil)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.published) != 0 {
		t.Fatalf("failed event must not be marked published, got %v", repo.published)
	}
	if len(repo.failed) != 1 || repo.failed[0] != failing.ID {
		t.Fatalf("expected event %s marked failed, got %v", failing.ID, repo.failed)
	}
}
