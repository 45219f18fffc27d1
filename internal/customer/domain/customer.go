package domain

import (
	"errors"
	"strings"
	"time"
)

// Customer books sessions. Owned by the identity store; the booking engine only reads it.
type Customer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string // optional
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is Customer without the password hash.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Sanitize strips the password hash.
func (c *Customer) Sanitize() Profile {
	return Profile{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Note:      c.Note,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// NormalizeEmail lowercases and trims an email address. Emails are stored normalized.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the customer for persistence.
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	if c.Email == "" {
		return errors.New("email is required")
	}
	if c.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	return nil
}
