package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/security"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

// StaffRepo is the minimal staff repository needed by the staff auth service.
type StaffRepo interface {
	GetByID(ctx context.Context, id string) (*staffdomain.Staff, error)
	GetByEmail(ctx context.Context, email string) (*staffdomain.Staff, error)
}

// StaffLoginResult is returned by StaffAuthService.Login.
type StaffLoginResult struct {
	Staff       staffdomain.Profile `json:"staff"`
	AccessToken string              `json:"accessToken"`
}

// StaffAuthService implements password login and bearer token authentication for staff members.
// Staff tokens carry their own audience and are never accepted where a customer token is expected.
type StaffAuthService struct {
	staff  StaffRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
	logger logrus.FieldLogger
}

// NewStaffAuthService returns a StaffAuthService with the given dependencies.
func NewStaffAuthService(staff StaffRepo, hasher *security.Hasher, tokens *security.TokenProvider, logger logrus.FieldLogger) *StaffAuthService {
	return &StaffAuthService{staff: staff, hasher: hasher, tokens: tokens, logger: logger}
}

// Login verifies the staff member's password and issues a staff access token.
func (s *StaffAuthService) Login(ctx context.Context, email, password string) (*StaffLoginResult, error) {
	st, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("ログインに失敗しました。", err)
	}
	if st == nil || st.PasswordHash == "" || !s.hasher.Matches(st.PasswordHash, password) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	token, _, err := s.tokens.IssueStaffAccess(st.ID, st.Name, st.Email)
	if err != nil {
		return nil, apperr.Internal("ログインに失敗しました。", err)
	}
	s.logger.WithField("staff_id", st.ID).Info("auth: staff logged in")
	return &StaffLoginResult{Staff: st.Sanitize(), AccessToken: token}, nil
}

// Authenticate resolves a staff bearer token to its staff member.
func (s *StaffAuthService) Authenticate(ctx context.Context, token string) (*staffdomain.Staff, error) {
	id, err := s.tokens.ValidateStaffAccess(token)
	if err != nil {
		return nil, apperr.Unauthorized(MsgUnauthenticated)
	}
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("認証に失敗しました。", err)
	}
	if st == nil {
		return nil, apperr.Unauthorized(MsgUnauthenticated)
	}
	return st, nil
}
