package domain

import (
	"errors"
	"time"
)

// Staff is a bookable staff member. Read-only to the booking engine.
type Staff struct {
	ID                 string
	Code               string
	Name               string
	Email              string
	PasswordHash       string
	GoogleRefreshToken string // empty until the staff member links Google Calendar
	GoogleCalendarID   string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Profile is Staff without credentials, safe to return to clients.
type Profile struct {
	ID               string    `json:"id"`
	Code             string    `json:"code"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	GoogleCalendarID string    `json:"googleCalendarId,omitempty"`
	GoogleLinked     bool      `json:"googleLinked"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Sanitize strips the password hash and Google refresh token.
func (s *Staff) Sanitize() Profile {
	return Profile{
		ID:               s.ID,
		Code:             s.Code,
		Name:             s.Name,
		Email:            s.Email,
		GoogleCalendarID: s.GoogleCalendarID,
		GoogleLinked:     s.GoogleRefreshToken != "",
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

// Validate validates the staff member for persistence.
func (s *Staff) Validate() error {
	if s.Code == "" {
		return errors.New("code is required")
	}
	if s.Email == "" {
		return errors.New("email is required")
	}
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
