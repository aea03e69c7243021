package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/attestly/poa-backend/api/middleware"
	"github.com/attestly/poa-backend/internal/notifications"
	pkgerrors "github.com/attestly/poa-backend/pkg/errors"
	"github.com/attestly/poa-backend/pkg/logger"
	"github.com/attestly/poa-backend/pkg/types"
)

type testNotificationsService struct {
	listFn        func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn    func(ctx context.Context, tenantID, notificationID uuid.UUID) error
	markAllReadFn func(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

func (s *testNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return s.listFn(ctx, params)
}

func (s *testNotificationsService) MarkRead(ctx context.Context, tenantID, notificationID uuid.UUID) error {
	return s.markReadFn(ctx, tenantID, notificationID)
}

func (s *testNotificationsService) MarkAllRead(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.markAllReadFn(ctx, tenantID)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func tenantRequest(t *testing.T, method, target string, tenantID uuid.UUID) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.WithTenantID(req.Context(), tenantID.String())
	return req.WithContext(ctx)
}

func withRouteParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body.Error
}

func TestListNotificationsParsesQuery(t *testing.T) {
	tenantID := uuid.New()
	var got notifications.ListParams
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			got = params
			return &notifications.ListResult{}, nil
		},
	}

	req := tenantRequest(t, http.MethodGet, "/api/v1/notifications?limit=25&unreadOnly=true&cursor=abc", tenantID)
	w := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d: %s", w.Code, w.Body.String())
	}
	if got.TenantID != tenantID {
		t.Fatalf("expected tenant %s, got %s", tenantID, got.TenantID)
	}
	if got.Limit != 25 || !got.UnreadOnly || got.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", got)
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := tenantRequest(t, http.MethodGet, "/api/v1/notifications?limit=zero", uuid.New())
	w := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", w.Code)
	}
	if apiErr := decodeError(t, w); apiErr.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
}

func TestListNotificationsRequiresTenant(t *testing.T) {
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	w := httptest.NewRecorder()
	ListNotifications(svc, testLogger())(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 but got %d", w.Code)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	tenantID := uuid.New()
	notificationID := uuid.New()
	var gotTenant, gotNotification uuid.UUID
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, tid, nid uuid.UUID) error {
			gotTenant, gotNotification = tid, nid
			return nil
		},
	}

	req := tenantRequest(t, http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", tenantID)
	req = withRouteParam(req, "notificationId", notificationID.String())
	w := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d: %s", w.Code, w.Body.String())
	}
	if gotTenant != tenantID || gotNotification != notificationID {
		t.Fatalf("service called with tenant %s notification %s", gotTenant, gotNotification)
	}
}

func TestMarkNotificationReadRejectsBadID(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, tid, nid uuid.UUID) error {
			t.Fatal("service should not be called")
			return nil
		},
	}

	req := tenantRequest(t, http.MethodPost, "/api/v1/notifications/not-a-uuid/read", uuid.New())
	req = withRouteParam(req, "notificationId", "not-a-uuid")
	w := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", w.Code)
	}
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	notificationID := uuid.New()
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, tid, nid uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		},
	}

	req := tenantRequest(t, http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", uuid.New())
	req = withRouteParam(req, "notificationId", notificationID.String())
	w := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger())(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 but got %d", w.Code)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &testNotificationsService{
		markAllReadFn: func(ctx context.Context, tenantID uuid.UUID) (int64, error) {
			return 4, nil
		},
	}

	req := tenantRequest(t, http.MethodPost, "/api/v1/notifications/read-all", uuid.New())
	w := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, testLogger())(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", w.Code)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if updated := body.Data.(map[string]any)["updated"].(float64); updated != 4 {
		t.Fatalf("expected 4 updated, got %v", updated)
	}
}
