// Package service implements customer registration, password login and bearer token authentication.
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"slot-booking/backend/internal/apperr"
	customerdomain "slot-booking/backend/internal/customer/domain"
	"slot-booking/backend/internal/db"
	"slot-booking/backend/internal/security"
)

// User-visible messages.
const (
	MsgNameRequired       = "名前を入力してください。"
	MsgInvalidEmail       = "メールアドレスの形式が不正です。"
	MsgPasswordTooShort   = "パスワードは8文字以上で入力してください。"
	MsgInvalidPhone       = "電話番号の形式が不正です。"
	MsgEmailRegistered    = "既に登録済みのメールアドレスです。"
	MsgInvalidCredentials = "メールアドレスまたはパスワードが正しくありません。"
	MsgUnauthenticated    = "認証が必要です。"
)

const minPasswordLength = 8

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9-]{8,14}$`)
)

// CustomerRepo is the minimal customer repository needed by the auth service.
type CustomerRepo interface {
	GetByID(ctx context.Context, id string) (*customerdomain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*customerdomain.Customer, error)
	Create(ctx context.Context, c *customerdomain.Customer) error
}

// RegisterInput is the sign-up payload. Phone is optional.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// LoginResult is returned by Login.
type LoginResult struct {
	Customer    customerdomain.Profile `json:"customer"`
	AccessToken string                 `json:"accessToken"`
}

// AuthService implements register, login and token authentication for customers.
type AuthService struct {
	customers CustomerRepo
	hasher    *security.Hasher
	tokens    *security.TokenProvider
	logger    logrus.FieldLogger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(customers CustomerRepo, hasher *security.Hasher, tokens *security.TokenProvider, logger logrus.FieldLogger) *AuthService {
	return &AuthService{
		customers: customers,
		hasher:    hasher,
		tokens:    tokens,
		logger:    logger,
	}
}

// Register creates a customer. The email is stored normalized; a duplicate email is a Conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*customerdomain.Profile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.InvalidInput(MsgNameRequired)
	}
	email := customerdomain.NormalizeEmail(in.Email)
	if !emailPattern.MatchString(email) {
		return nil, apperr.InvalidInput(MsgInvalidEmail)
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.InvalidInput(MsgPasswordTooShort)
	}
	phone := strings.TrimSpace(in.Phone)
	if phone != "" && !phonePattern.MatchString(phone) {
		return nil, apperr.InvalidInput(MsgInvalidPhone)
	}

	existing, err := s.customers.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("登録に失敗しました。", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(MsgEmailRegistered)
	}
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Internal("登録に失敗しました。", err)
	}
	now := time.Now().UTC()
	c := &customerdomain.Customer{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Phone:        phone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := c.Validate(); err != nil {
		return nil, apperr.InvalidInput(err.Error())
	}
	if err := s.customers.Create(ctx, c); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperr.Conflict(MsgEmailRegistered)
		}
		return nil, apperr.Internal("登録に失敗しました。", err)
	}
	s.logger.WithField("customer_id", c.ID).Info("auth: customer registered")
	p := c.Sanitize()
	return &p, nil
}

// Login verifies the password and issues an access token. Unknown email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	c, err := s.customers.GetByEmail(ctx, customerdomain.NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("ログインに失敗しました。", err)
	}
	if c == nil || !s.hasher.Matches(c.PasswordHash, password) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}
	token, _, err := s.tokens.IssueAccess(c.ID, c.Name, c.Email)
	if err != nil {
		return nil, apperr.Internal("ログインに失敗しました。", err)
	}
	return &LoginResult{Customer: c.Sanitize(), AccessToken: token}, nil
}

// Authenticate resolves a bearer token to its customer. A valid token for a deleted customer is Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*customerdomain.Customer, error) {
	id, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return nil, apperr.Unauthorized(MsgUnauthenticated)
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("認証に失敗しました。", err)
	}
	if c == nil {
		return nil, apperr.Unauthorized(MsgUnauthenticated)
	}
	return c, nil
}
