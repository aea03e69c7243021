package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attestly/poa-backend/pkg/db/models"
	"github.com/attestly/poa-backend/pkg/enums"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/pagination"
)

type stubNotificationRepo struct {
	rows       []models.Notification
	nextCursor *pagination.Cursor
	gotParams  listNotificationsParams
	markResult notificationMarkResult
	markErr    error
	created    []*models.Notification
}

func (s *stubNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	s.created = append(s.created, notification)
	return nil
}

func (s *stubNotificationRepo) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, *pagination.Cursor, error) {
	s.gotParams = params
	return s.rows, s.nextCursor, nil
}

func (s *stubNotificationRepo) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID, now time.Time) (notificationMarkResult, error) {
	return s.markResult, s.markErr
}

func (s *stubNotificationRepo) MarkAllRead(ctx context.Context, tenantID uuid.UUID, now time.Time) (int64, error) {
	return 3, nil
}

func TestListRequiresTenant(t *testing.T) {
	svc, err := NewService(&stubNotificationRepo{})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.List(context.Background(), ListParams{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListEncodesNextCursor(t *testing.T) {
	next := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	repo := &stubNotificationRepo{
		rows:       []models.Notification{{ID: uuid.New()}},
		nextCursor: next,
	}
	svc, _ := NewService(repo)

	result, err := svc.List(context.Background(), ListParams{TenantID: uuid.New(), Limit: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if result.Cursor == "" {
		t.Fatal("expected encoded cursor for next page")
	}
	parsed, err := pagination.ParseCursor(result.Cursor)
	if err != nil || parsed.ID != next.ID {
		t.Fatalf("cursor did not round-trip: %v %v", parsed, err)
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, _ := NewService(&stubNotificationRepo{})

	_, err := svc.List(context.Background(), ListParams{TenantID: uuid.New(), Cursor: "not-base64!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &stubNotificationRepo{markResult: notificationMarkResult{Found: false}}
	svc, _ := NewService(repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMarkReadAlreadyReadSucceeds(t *testing.T) {
	repo := &stubNotificationRepo{markResult: notificationMarkResult{Found: true, Updated: false}}
	svc, _ := NewService(repo)

	if err := svc.MarkRead(context.Background(), uuid.New(), uuid.New()); err != nil {
		t.Fatalf("marking an already-read notification should succeed: %v", err)
	}
}

func TestBuildNotificationMapsEvents(t *testing.T) {
	tenantID := uuid.New()
	poaID := uuid.New()
	event := domainEvent{POAID: poaID, TenantID: tenantID, FullName: "Carlos Santos"}

	cases := []struct {
		eventType enums.OutboxEventType
		want      enums.NotificationType
	}{
		{enums.EventAgentDesignated, enums.NotificationTypeAgentDesignated},
		{enums.EventAgentAccepted, enums.NotificationTypeAgentAccepted},
		{enums.EventAgentDeclined, enums.NotificationTypeAgentDeclined},
		{enums.EventPOAActivated, enums.NotificationTypePOAActivated},
		{enums.EventPOARevoked, enums.NotificationTypePOARevoked},
		{enums.EventPOAExpired, enums.NotificationTypePOAExpired},
		{enums.EventDocumentGenerated, enums.NotificationTypeDocumentReady},
	}
	for _, tc := range cases {
		got := buildNotification(tc.eventType, event)
		if got == nil {
			t.Fatalf("%s: expected a notification", tc.eventType)
		}
		if got.Type != tc.want {
			t.Fatalf("%s: expected type %s, got %s", tc.eventType, tc.want, got.Type)
		}
		if got.TenantID != tenantID {
			t.Fatalf("%s: notification not tenant-scoped", tc.eventType)
		}
		if got.Link == nil || *got.Link != "/poas/"+poaID.String() {
			t.Fatalf("%s: unexpected link %v", tc.eventType, got.Link)
		}
	}
}

func TestBuildNotificationIgnoresUnmappedEvents(t *testing.T) {
	if got := buildNotification(enums.EventPOASubmitted, domainEvent{TenantID: uuid.New()}); got != nil {
		t.Fatalf("submission events should not notify, got %+v", got)
	}
	if got := buildNotification(enums.EventDocumentFailed, domainEvent{TenantID: uuid.New()}); got != nil {
		t.Fatalf("document failures should not notify, got %+v", got)
	}
}
