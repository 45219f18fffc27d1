// Package googleoauth links a staff member's Google Calendar through the OAuth consent flow
// and stores the resulting refresh token for the Google meeting provider.
package googleoauth

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"slot-booking/backend/internal/apperr"
	"slot-booking/backend/internal/meeting"
	staffdomain "slot-booking/backend/internal/staff/domain"
)

// CalendarEventsScope lets the backend insert and delete events on the linked calendar.
const CalendarEventsScope = "https://www.googleapis.com/auth/calendar.events"

// DefaultCalendarID is stored for every newly linked staff member.
const DefaultCalendarID = "primary"

// Endpoint is Google's OAuth 2.0 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

var (
	// ErrReconsentRequired is returned when Google did not issue a refresh token.
	ErrReconsentRequired = apperr.InvalidInput("Googleアカウントの再許可が必要です。もう一度お試しください。")
	// ErrInvalidState is returned for a forged or expired state parameter.
	ErrInvalidState  = apperr.InvalidInput("認可リクエストが無効です。もう一度お試しください。")
	errStaffNotFound = apperr.InvalidInput("担当者が存在しません。")
)

// NewConfig returns the OAuth client config, or nil when any of the credentials is missing.
func NewConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURI == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Endpoint:     Endpoint,
		Scopes:       []string{CalendarEventsScope},
	}
}

// StateTokens signs and verifies the OAuth state parameter.
type StateTokens interface {
	IssueState(staffID string) (string, error)
	ValidateState(token string) (staffID string, err error)
}

// StaffStore reads staff members and stores their Google credentials.
type StaffStore interface {
	GetByID(ctx context.Context, id string) (*staffdomain.Staff, error)
	UpdateGoogleAuth(ctx context.Context, id, refreshToken, calendarID string) error
}

// Service runs the consent flow.
type Service struct {
	oauth  *oauth2.Config
	state  StateTokens
	staff  StaffStore
	logger logrus.FieldLogger
}

// NewService returns a Service. A nil oauth config disables the flow.
func NewService(oauth *oauth2.Config, state StateTokens, staff StaffStore, logger logrus.FieldLogger) *Service {
	return &Service{oauth: oauth, state: state, staff: staff, logger: logger}
}

// Enabled reports whether the OAuth client is configured.
func (s *Service) Enabled() bool {
	return s != nil && s.oauth != nil
}

// AuthURL returns the Google consent URL for linking staffID. Offline access with forced consent
// makes Google return a refresh token every time.
func (s *Service) AuthURL(ctx context.Context, staffID string) (string, error) {
	if !s.Enabled() {
		return "", meeting.ErrGoogleNotConfigured
	}
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return "", errStaffNotFound
	}
	st, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return "", apperr.Internal("担当者の取得に失敗しました。", err)
	}
	if st == nil {
		return "", errStaffNotFound
	}
	state, err := s.state.IssueState(st.ID)
	if err != nil {
		return "", apperr.Internal("認可URLの生成に失敗しました。", err)
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// HandleCallback exchanges code for tokens and stores the refresh token on the staff member named by state.
func (s *Service) HandleCallback(ctx context.Context, code, state string) error {
	if !s.Enabled() {
		return meeting.ErrGoogleNotConfigured
	}
	staffID, err := s.state.ValidateState(state)
	if err != nil {
		return ErrInvalidState
	}
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return apperr.Internal("Googleとの連携に失敗しました。", err)
	}
	if tok.RefreshToken == "" {
		return ErrReconsentRequired
	}
	if err := s.staff.UpdateGoogleAuth(ctx, staffID, tok.RefreshToken, DefaultCalendarID); err != nil {
		return apperr.Internal("Google連携情報の保存に失敗しました。", err)
	}
	s.logger.WithField("staff_id", staffID).Info("googleoauth: stored Google credentials")
	return nil
}
