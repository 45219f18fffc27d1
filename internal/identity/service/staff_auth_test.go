package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/logging"
	"slot-booking/backend/internal/security"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

type memStaffRepo struct {
	mu   sync.Mutex
	byID map[string]*staffdomain.Staff
}

func (r *memStaffRepo) GetByID(ctx context.Context, id string) (*staffdomain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memStaffRepo) GetByEmail(ctx context.Context, email string) (*staffdomain.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if strings.EqualFold(s.Email, strings.TrimSpace(email)) {
			return s, nil
		}
	}
	return nil, nil
}

func newTestStaffAuthService(t *testing.T) (*StaffAuthService, *security.TokenProvider) {
	t.Helper()
	hasher := security.NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("staff-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	repo := &memStaffRepo{byID: map[string]*staffdomain.Staff{
		"staff-a": {ID: "staff-a", Code: "STAFF_A", Name: "担当A", Email: "staff-a@example.com", PasswordHash: hash, GoogleRefreshToken: "1//r"},
		"staff-b": {ID: "staff-b", Code: "STAFF_B", Name: "担当B", Email: "staff-b@example.com"},
	}}
	tokens := security.NewTestTokenProvider()
	return NewStaffAuthService(repo, hasher, tokens, logging.Discard()), tokens
}

func TestStaffLogin(t *testing.T) {
	svc, _ := newTestStaffAuthService(t)
	res, err := svc.Login(context.Background(), " Staff-A@Example.com ", "staff-password")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Staff.ID != "staff-a" || !res.Staff.GoogleLinked || res.AccessToken == "" {
		t.Errorf("result = %+v", res)
	}
	st, err := svc.Authenticate(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if st.ID != "staff-a" {
		t.Errorf("staff = %q, want staff-a", st.ID)
	}
}

func TestStaffLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestStaffAuthService(t)
	testCases := []struct{ email, password string }{
		{"staff-a@example.com", "wrong"},
		{"nobody@example.com", "staff-password"},
		{"staff-b@example.com", ""},
	}
	for _, tc := range testCases {
		_, err := svc.Login(context.Background(), tc.email, tc.password)
		if !errors.Is(err, apperr.ErrUnauthorized) {
			t.Errorf("Login(%q): err = %v, want Unauthorized", tc.email, err)
		}
		if msg := apperr.Message(err, ""); msg != MsgInvalidCredentials {
			t.Errorf("Login(%q): message = %q, want %q", tc.email, msg, MsgInvalidCredentials)
		}
	}
}

func TestStaffAuthenticate_RejectsCustomerToken(t *testing.T) {
	svc, tokens := newTestStaffAuthService(t)
	customer, _, err := tokens.IssueAccess("staff-a", "n", "staff-a@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), customer); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("customer token: err = %v, want Unauthorized", err)
	}
	unknown, _, _ := tokens.IssueStaffAccess("staff-gone", "n", "x@example.com")
	if _, err := svc.Authenticate(context.Background(), unknown); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("deleted staff: err = %v, want Unauthorized", err)
	}
}
