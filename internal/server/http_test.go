package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	emaillogdomain "slot-booking/backend/internal/emaillog/domain"
	"slot-booking/backend/internal/googleoauth"
	healthhandler "slot-booking/backend/internal/health/handler"
	identityservice "slot-booking/backend/internal/identity/service"
	"slot-booking/backend/internal/logging"
	"slot-booking/backend/internal/security"
	"slot-booking/backend/internal/server/interceptors"
	sessiondomain "slot-booking/backend/internal/session/domain"
	"slot-booking/backend/internal/session/service"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

type stubAuth struct{}

func (stubAuth) Register(ctx context.Context, in identityservice.RegisterInput) (*customerdomain.Profile, error) {
	return &customerdomain.Profile{ID: "cust-1"}, nil
}

func (stubAuth) Login(ctx context.Context, email, password string) (*identityservice.LoginResult, error) {
	return nil, apperr.Unauthorized(identityservice.MsgInvalidCredentials)
}

func (stubAuth) Authenticate(ctx context.Context, token string) (*customerdomain.Customer, error) {
	if token == "ok" {
		return &customerdomain.Customer{ID: "cust-1"}, nil
	}
	return nil, apperr.Unauthorized(interceptors.MsgUnauthenticated)
}

type stubStaffAuth struct{}

func (stubStaffAuth) Login(ctx context.Context, email, password string) (*identityservice.StaffLoginResult, error) {
	return nil, apperr.Unauthorized(identityservice.MsgInvalidCredentials)
}

func (stubStaffAuth) Authenticate(ctx context.Context, token string) (*staffdomain.Staff, error) {
	if token == "staff" {
		return &staffdomain.Staff{ID: "staff-a"}, nil
	}
	return nil, apperr.Unauthorized(interceptors.MsgUnauthenticated)
}

type stubSessions struct{}

func (stubSessions) ListForCustomer(ctx context.Context, customerID string) ([]*sessiondomain.Session, error) {
	return nil, nil
}
func (stubSessions) GetSessionDetail(ctx context.Context, customerID, id string) (*sessiondomain.Session, error) {
	return nil, apperr.NotFound(service.MsgSessionNotFound)
}
func (stubSessions) GetAvailability(ctx context.Context, date string) ([]service.StaffAvailability, error) {
	return []service.StaffAvailability{}, nil
}
func (stubSessions) CreateSession(ctx context.Context, c *customerdomain.Customer, in service.CreateInput) (*service.BookingResult, error) {
	return nil, apperr.Conflict(service.MsgSlotTaken)
}
func (stubSessions) RescheduleSession(ctx context.Context, c *customerdomain.Customer, id string, in service.RescheduleInput) (*service.BookingResult, error) {
	return nil, apperr.NotFound(service.MsgSessionNotFound)
}
func (stubSessions) CancelSession(ctx context.Context, c *customerdomain.Customer, id string) (*sessiondomain.Session, error) {
	return nil, apperr.NotFound(service.MsgSessionNotFound)
}
func (stubSessions) ListEmailLogs(ctx context.Context, customerID, id string) ([]*emaillogdomain.EmailLog, error) {
	return nil, apperr.NotFound(service.MsgSessionNotFound)
}

type stubStaff struct{}

func (stubStaff) List(ctx context.Context) ([]*staffdomain.Staff, error) { return nil, nil }

type countingCounter struct{ n int64 }

func (c *countingCounter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	c.n++
	return c.n, nil
}

func newTestRouter(limiter *interceptors.RateLimiter) http.Handler {
	gin.SetMode(gin.TestMode)
	logger := logging.Discard()
	google := googleoauth.NewService(nil, security.NewTestTokenProvider(), nil, logger)
	return NewRouter(Deps{
		Auth:           stubAuth{},
		StaffAuth:      stubStaffAuth{},
		Google:         googleoauth.NewHandler(google, "http://localhost:3001", logger),
		Sessions:       stubSessions{},
		Staff:          stubStaff{},
		Health:         healthhandler.NewServer(nil, logger),
		RateLimiter:    limiter,
		FrontendOrigin: "http://localhost:3001",
		Logger:         logger,
	})
}

func request(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	h := newTestRouter(nil)
	testCases := []struct {
		method, path, token, body string
		want                      int
	}{
		{http.MethodGet, "/healthz", "", "", http.StatusOK},
		{http.MethodGet, "/readyz", "", "", http.StatusOK},
		{http.MethodPost, "/auth/register", "", `{"name":"n"}`, http.StatusCreated},
		{http.MethodPost, "/auth/login", "", `{"email":"e","password":"p"}`, http.StatusUnauthorized},
		{http.MethodGet, "/staff", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/staff", "ok", "", http.StatusOK},
		{http.MethodGet, "/sessions", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/sessions", "ok", "", http.StatusOK},
		{http.MethodGet, "/sessions/availability?date=2025-12-01", "ok", "", http.StatusOK},
		{http.MethodPost, "/sessions", "ok", `{"staffId":"a","startAt":"b"}`, http.StatusConflict},
		{http.MethodGet, "/sessions/x", "ok", "", http.StatusNotFound},
		{http.MethodPatch, "/sessions/x", "ok", `{}`, http.StatusNotFound},
		{http.MethodDelete, "/sessions/x", "ok", "", http.StatusNotFound},
		{http.MethodGet, "/sessions/x/email-logs", "ok", "", http.StatusNotFound},
		{http.MethodPost, "/staff/auth/login", "", `{"email":"e","password":"p"}`, http.StatusUnauthorized},
		{http.MethodGet, "/google/oauth/url", "", "", http.StatusUnauthorized},
		{http.MethodGet, "/google/oauth/url", "ok", "", http.StatusUnauthorized},
		{http.MethodGet, "/google/oauth/url?staffId=staff-b", "staff", "", http.StatusBadRequest},
		{http.MethodGet, "/google/oauth/callback", "", "", http.StatusFound},
	}
	for _, tc := range testCases {
		if w := request(h, tc.method, tc.path, tc.token, tc.body); w.Code != tc.want {
			t.Errorf("%s %s: status = %d, want %d (%s)", tc.method, tc.path, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestRouter_RateLimited(t *testing.T) {
	limiter := interceptors.NewRateLimiter(&countingCounter{}, 2, logging.Discard())
	h := newTestRouter(limiter)
	var last int
	for i := 0; i < 3; i++ {
		last = request(h, http.MethodGet, "/sessions", "ok", "").Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want 429", last)
	}
	if code := request(h, http.MethodGet, "/healthz", "", "").Code; code != http.StatusOK {
		t.Errorf("health checks must not be limited, got %d", code)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3001" {
		t.Errorf("allow origin = %q", got)
	}
}
