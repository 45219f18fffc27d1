package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, expired, or signed with another key.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoSecret is returned when the provider has no signing secret.
	ErrNoSecret = errors.New("token secret is not configured")
)

// stateTTL bounds the Google OAuth consent round trip.
const stateTTL = 10 * time.Minute

// Token audiences. A token is only accepted by the validator of its own audience.
const (
	AudienceCustomer = "customer"
	AudienceStaff    = "staff"
	AudienceState    = "oauth-state"
)

// AccessClaims holds JWT claims for a customer or staff access token; the audience tells them apart.
type AccessClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StateClaims holds the OAuth state: the staff member being linked and a nonce.
type StateClaims struct {
	jwt.RegisteredClaims
	StaffID string `json:"userId"`
	Nonce   string `json:"nonce"`
}

// TokenProvider issues and validates HS256 tokens signed with a shared secret.
type TokenProvider struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. Access tokens live for accessTTL.
func NewTokenProvider(secret string, accessTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

// IssueAccess issues an access token for the customer. Returns the token and its expiry.
func (p *TokenProvider) IssueAccess(customerID, name, email string) (token string, expiresAt time.Time, err error) {
	return p.issueAccess(AudienceCustomer, customerID, name, email)
}

// ValidateAccess parses and validates a customer access token (signature, exp, audience). Returns the customer id.
func (p *TokenProvider) ValidateAccess(tokenString string) (customerID string, err error) {
	return p.validateAccess(AudienceCustomer, tokenString)
}

// IssueStaffAccess issues an access token for a staff member. Returns the token and its expiry.
func (p *TokenProvider) IssueStaffAccess(staffID, name, email string) (token string, expiresAt time.Time, err error) {
	return p.issueAccess(AudienceStaff, staffID, name, email)
}

// ValidateStaffAccess parses and validates a staff access token. Returns the staff id.
func (p *TokenProvider) ValidateStaffAccess(tokenString string) (staffID string, err error) {
	return p.validateAccess(AudienceStaff, tokenString)
}

func (p *TokenProvider) issueAccess(audience, subject, name, email string) (string, time.Time, error) {
	now := p.now().UTC()
	expiresAt := now.Add(p.accessTTL)
	token, err := p.sign(AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Name:  name,
		Email: email,
	})
	return token, expiresAt, err
}

func (p *TokenProvider) validateAccess(audience, tokenString string) (string, error) {
	claims := &AccessClaims{}
	if err := p.parse(tokenString, claims, jwt.WithAudience(audience)); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueState issues a short-lived OAuth state token for linking staffID.
func (p *TokenProvider) IssueState(staffID string) (string, error) {
	nonce, err := generateNonce()
	if err != nil {
		return "", err
	}
	now := p.now().UTC()
	return p.sign(StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{AudienceState},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
		StaffID: staffID,
		Nonce:   nonce,
	})
}

// ValidateState verifies an OAuth state token and returns the staff id it was issued for.
func (p *TokenProvider) ValidateState(tokenString string) (staffID string, err error) {
	claims := &StateClaims{}
	if err := p.parse(tokenString, claims, jwt.WithAudience(AudienceState)); err != nil {
		return "", err
	}
	if claims.StaffID == "" {
		return "", ErrInvalidToken
	}
	return claims.StaffID, nil
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	if len(p.secret) == 0 {
		return "", ErrNoSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *TokenProvider) parse(tokenString string, claims jwt.Claims, opts ...jwt.ParserOption) error {
	if len(p.secret) == 0 {
		return ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, append([]jwt.ParserOption{jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired()}, opts...)...)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func generateNonce() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
