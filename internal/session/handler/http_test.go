package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	emaillogdomain "slot-booking/backend/internal/emaillog/domain"
	"slot-booking/backend/internal/server/interceptors"
	sessiondomain "slot-booking/backend/internal/session/domain"
	"slot-booking/backend/internal/session/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var demoCustomer = &customerdomain.Customer{ID: "cust-1", Name: "デモ顧客", Email: "customer@example.com"}

type tokenAuth struct{}

func (tokenAuth) Authenticate(ctx context.Context, token string) (*customerdomain.Customer, error) {
	if token == "ok" {
		return demoCustomer, nil
	}
	return nil, apperr.Unauthorized(interceptors.MsgUnauthenticated)
}

type fakeService struct {
	createErr  error
	lastCreate service.CreateInput
	lastPatch  service.RescheduleInput
	date       string
}

func sample() *sessiondomain.Session {
	start := time.Date(2025, 12, 1, 1, 0, 0, 0, time.UTC)
	return &sessiondomain.Session{
		ID: "sess-1", CustomerID: "cust-1", StaffID: "staff-a",
		StartAt: start, EndAt: start.Add(time.Hour), Title: "t", MeetURL: "https://meet.example/abc",
		ExternalID: "evt-123",
		Status:     sessiondomain.StatusScheduled,
		Staff:      &sessiondomain.StaffSummary{ID: "staff-a", Name: "担当A", Code: "STAFF_A"},
	}
}

func (f *fakeService) ListForCustomer(ctx context.Context, customerID string) ([]*sessiondomain.Session, error) {
	return []*sessiondomain.Session{sample()}, nil
}

func (f *fakeService) GetSessionDetail(ctx context.Context, customerID, sessionID string) (*sessiondomain.Session, error) {
	if sessionID != "sess-1" {
		return nil, apperr.NotFound(service.MsgSessionNotFound)
	}
	return sample(), nil
}

func (f *fakeService) GetAvailability(ctx context.Context, date string) ([]service.StaffAvailability, error) {
	f.date = date
	if date == "" {
		return nil, apperr.InvalidInput("日付を指定してください。")
	}
	return []service.StaffAvailability{}, nil
}

func (f *fakeService) CreateSession(ctx context.Context, c *customerdomain.Customer, in service.CreateInput) (*service.BookingResult, error) {
	f.lastCreate = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &service.BookingResult{Session: sample(), EmailStatus: emaillogdomain.StatusFailed}, nil
}

func (f *fakeService) RescheduleSession(ctx context.Context, c *customerdomain.Customer, id string, in service.RescheduleInput) (*service.BookingResult, error) {
	f.lastPatch = in
	return &service.BookingResult{Session: sample(), EmailStatus: emaillogdomain.StatusSuccess}, nil
}

func (f *fakeService) CancelSession(ctx context.Context, c *customerdomain.Customer, id string) (*sessiondomain.Session, error) {
	s := sample()
	s.Status = sessiondomain.StatusCancelled
	return s, nil
}

func (f *fakeService) ListEmailLogs(ctx context.Context, customerID, sessionID string) ([]*emaillogdomain.EmailLog, error) {
	if sessionID != "sess-1" {
		return nil, apperr.NotFound(service.MsgSessionNotFound)
	}
	return []*emaillogdomain.EmailLog{{
		ID: "log-1", SessionID: "sess-1", ToEmail: "customer@example.com", Subject: "t",
		Body: "https://meet.example/abc", Status: emaillogdomain.StatusFailed, ErrorMessage: "smtp down",
	}}, nil
}

func newRouter(svc Service) *gin.Engine {
	r := gin.New()
	g := r.Group("/sessions", interceptors.Auth(tokenAuth{}))
	NewHandler(svc).Register(g)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer ok")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreate_EchoesEmailStatus(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc), http.MethodPost, "/sessions", `{"staffId":"staff-a","startAt":"2025-12-01T10:00:00+09:00","title":"相談"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var got SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EmailStatus != "failed" || got.MeetURL == "" || got.Staff == nil {
		t.Errorf("response = %+v", got)
	}
	if got.ExternalID != "evt-123" {
		t.Errorf("externalId = %q, want evt-123", got.ExternalID)
	}
	if svc.lastCreate.StaffID != "staff-a" || svc.lastCreate.Title == nil || *svc.lastCreate.Title != "相談" {
		t.Errorf("input = %+v", svc.lastCreate)
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{apperr.Conflict(service.MsgSlotTaken), http.StatusConflict},
		{apperr.InvalidInput(service.MsgStaffNotFound), http.StatusBadRequest},
		{apperr.Provisioning(service.MsgProvisioningFailed, nil), http.StatusBadGateway},
	}
	for _, tc := range testCases {
		w := do(newRouter(&fakeService{createErr: tc.err}), http.MethodPost, "/sessions", `{"staffId":"a","startAt":"x"}`)
		if w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
		var body interceptors.ErrorBody
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body.Message != apperr.Message(tc.err, "") {
			t.Errorf("message = %q, want %q", body.Message, apperr.Message(tc.err, ""))
		}
	}
}

func TestCreate_BadBody(t *testing.T) {
	w := do(newRouter(&fakeService{}), http.MethodPost, "/sessions", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRoutes(t *testing.T) {
	svc := &fakeService{}
	r := newRouter(svc)

	if w := do(r, http.MethodGet, "/sessions", ""); w.Code != http.StatusOK {
		t.Errorf("list status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/sessions/availability?date=2025-12-01", ""); w.Code != http.StatusOK || svc.date != "2025-12-01" {
		t.Errorf("availability status = %d, date = %q", w.Code, svc.date)
	}
	if w := do(r, http.MethodGet, "/sessions/availability", ""); w.Code != http.StatusBadRequest {
		t.Errorf("availability without date status = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodGet, "/sessions/sess-1", ""); w.Code != http.StatusOK {
		t.Errorf("detail status = %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/sessions/other", ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign detail status = %d, want 404", w.Code)
	}

	w := do(r, http.MethodPatch, "/sessions/sess-1", `{"startAt":"2025-12-01T11:00:00+09:00"}`)
	if w.Code != http.StatusOK {
		t.Errorf("reschedule status = %d", w.Code)
	}
	if svc.lastPatch.StaffID != nil || svc.lastPatch.StartAt == nil {
		t.Errorf("patch input = %+v, want only startAt", svc.lastPatch)
	}

	w = do(r, http.MethodDelete, "/sessions/sess-1", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"cancelled"`) {
		t.Errorf("cancel = %d %s", w.Code, w.Body.String())
	}
}

func TestDetail_ExposesExternalID(t *testing.T) {
	w := do(newRouter(&fakeService{}), http.MethodGet, "/sessions/sess-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"externalId":"evt-123"`) {
		t.Errorf("body = %s, want externalId", w.Body.String())
	}
}

func TestEmailLogs(t *testing.T) {
	r := newRouter(&fakeService{})
	w := do(r, http.MethodGet, "/sessions/sess-1/email-logs", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var got []EmailLogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Status != emaillogdomain.StatusFailed || got[0].ErrorMessage != "smtp down" {
		t.Errorf("logs = %+v", got)
	}
	if w := do(r, http.MethodGet, "/sessions/other/email-logs", ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign session status = %d, want 404", w.Code)
	}
}

func TestRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	w := httptest.NewRecorder()
	newRouter(&fakeService{}).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
